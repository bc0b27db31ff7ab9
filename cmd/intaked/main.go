package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/svtalent/candidate-intake/internal/async"
	"github.com/svtalent/candidate-intake/internal/common"
	"github.com/svtalent/candidate-intake/internal/drive"
	"github.com/svtalent/candidate-intake/internal/extract"
	"github.com/svtalent/candidate-intake/internal/ingest"
	"github.com/svtalent/candidate-intake/internal/ledger"
	"github.com/svtalent/candidate-intake/internal/llm"
	"github.com/svtalent/candidate-intake/internal/llm/openai"
	"github.com/svtalent/candidate-intake/internal/parse"
	"github.com/svtalent/candidate-intake/internal/pipeline"
	"github.com/svtalent/candidate-intake/internal/server"
	"github.com/svtalent/candidate-intake/internal/sink"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "intaked:", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	logger := newLogger()
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := ledger.NewSQLiteStore(cfg.Ledger.Path, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	sinks, err := buildSinks(ctx, cfg, logger)
	if err != nil {
		return err
	}

	proc := pipeline.NewProcessor(
		logger,
		extract.NewExtractor(extract.Config{}, logger),
		parse.NewExtractor(logger),
		generative(cfg, logger),
		store,
		sinks,
		pipeline.RetryConfig{
			MaxAttempts:  cfg.Retry.MaxAttempts,
			InitialDelay: cfg.Retry.InitialDelay,
			Multiplier:   cfg.Retry.Multiplier,
			MaxDelay:     cfg.Retry.MaxDelay,
		},
		pipeline.StabilityConfig{
			Checks:   cfg.Watch.StableChecks,
			Interval: cfg.Watch.StableInterval,
			Timeout:  cfg.Watch.StableTimeout,
		},
	)

	queue := async.NewFileQueue(proc, logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithProcessTimeout(cfg.Queue.ProcessTimeout),
	)

	events, watchErrs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{cfg.Watch.Folder},
		InitialScan: true,
		Debounce:    cfg.Watch.Debounce,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case path, ok := <-events:
				if !ok {
					return nil
				}
				if err := queue.Enqueue(gctx, async.Job{Path: path, SubmittedAt: time.Now()}); err != nil {
					logger.Error("intake.enqueue_failed", "path", path, "error", err)
				}
			case err, ok := <-watchErrs:
				if ok && err != nil {
					logger.Warn("intake.watch_error", "error", err)
				}
			}
		}
	})

	srv := server.New(server.Config{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		ServiceName: "candidate-intake",
		WatchFolder: cfg.Watch.Folder,
	}, logger)
	g.Go(func() error { return srv.Run(gctx) })

	if cfg.DriveConfigured() {
		folder := cfg.Drive.FolderID
		if folder == "" {
			folder = cfg.Drive.FolderURL
		}
		fetcher, err := drive.NewFetcher(ctx, drive.Config{
			Credentials:  cfg.Sheets.ServiceAccountJSON,
			Folder:       folder,
			DownloadDir:  cfg.Watch.Folder,
			PollInterval: cfg.Drive.PollInterval,
		}, store, logger)
		if err != nil {
			return err
		}
		g.Go(func() error {
			if err := fetcher.Run(gctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	} else {
		logger.Info("intake.drive_disabled")
	}

	logger.Info("intake.start",
		"watch_folder", cfg.Watch.Folder,
		"workers", cfg.Queue.Workers,
		"sinks", len(sinks),
	)

	err = g.Wait()

	// Let queued work finish before the process exits.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	queue.Shutdown(shutdownCtx)

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("intake.stopped")
	return nil
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

func buildSinks(ctx context.Context, cfg *common.Config, logger *slog.Logger) ([]sink.Sink, error) {
	var sinks []sink.Sink

	if cfg.SheetsConfigured() {
		s, err := sink.NewSheetsSink(ctx, sink.SheetsConfig{
			SpreadsheetID: cfg.Sheets.SheetID,
			Credentials:   cfg.Sheets.ServiceAccountJSON,
		}, logger)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}

	if cfg.Xlsx.Path != "" {
		s, err := sink.NewWorkbookSink(sink.WorkbookConfig{Path: cfg.Xlsx.Path}, logger)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}

	if cfg.PortalConfigured() {
		var browser sink.BrowserSubmitter
		if cfg.Portal.BrowserFallback {
			b, err := sink.NewChromeSubmitter(sink.BrowserConfig{
				BaseURL:  cfg.Portal.URL,
				Email:    cfg.Portal.AdminEmail,
				Password: cfg.Portal.AdminPassword,
			}, logger)
			if err != nil {
				return nil, err
			}
			browser = b
		}
		s, err := sink.NewPortalSink(sink.PortalConfig{
			BaseURL:  cfg.Portal.URL,
			Email:    cfg.Portal.AdminEmail,
			Password: cfg.Portal.AdminPassword,
		}, browser, logger)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}

	return sinks, nil
}

// generative returns nil when no model endpoint is configured; the processor
// treats that as deterministic-only mode.
func generative(cfg *common.Config, logger *slog.Logger) llm.FieldExtractor {
	if cfg.LLM.BaseURL == "" {
		logger.Info("intake.generative_disabled")
		return nil
	}
	return openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
		MaxChars:    cfg.LLM.MaxChars,
	}, logger)
}
