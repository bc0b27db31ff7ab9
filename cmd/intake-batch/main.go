package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/svtalent/candidate-intake/internal/common"
	"github.com/svtalent/candidate-intake/internal/extract"
	"github.com/svtalent/candidate-intake/internal/ingest"
	"github.com/svtalent/candidate-intake/internal/ledger"
	"github.com/svtalent/candidate-intake/internal/llm"
	"github.com/svtalent/candidate-intake/internal/llm/openai"
	"github.com/svtalent/candidate-intake/internal/parse"
	"github.com/svtalent/candidate-intake/internal/pipeline"
	"github.com/svtalent/candidate-intake/internal/sink"
)

func main() {
	var (
		dir   = flag.String("dir", "", "directory of candidate documents (required)")
		out   = flag.String("out", "", "output XLSX path (default: sibling candidates.xlsx)")
		inmem = flag.Bool("inmem", false, "in-memory ledger: reprocess everything, remember nothing")
	)
	flag.Parse()

	if *dir == "" {
		fmt.Fprintln(os.Stderr, "Error: -dir is required")
		flag.Usage()
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*dir), "candidates.xlsx")
	}

	_ = godotenv.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(*dir, *out, *inmem, logger); err != nil {
		fmt.Fprintln(os.Stderr, "intake-batch:", err)
		os.Exit(1)
	}
}

func run(dir, out string, inmem bool, logger *slog.Logger) error {
	ctx := context.Background()
	cfg := common.LoadConfig()

	var store ledger.Store
	if inmem {
		store = ledger.NewMemoryStore()
	} else {
		s, err := ledger.NewSQLiteStore(cfg.Ledger.Path, logger)
		if err != nil {
			return err
		}
		store = s
	}
	defer store.Close()

	wb, err := sink.NewWorkbookSink(sink.WorkbookConfig{Path: out}, logger)
	if err != nil {
		return err
	}

	proc := pipeline.NewProcessor(
		logger,
		extract.NewExtractor(extract.Config{}, logger),
		parse.NewExtractor(logger),
		generative(cfg, logger),
		store,
		[]sink.Sink{wb},
		pipeline.RetryConfig{
			MaxAttempts:  cfg.Retry.MaxAttempts,
			InitialDelay: cfg.Retry.InitialDelay,
			Multiplier:   cfg.Retry.Multiplier,
			MaxDelay:     cfg.Retry.MaxDelay,
		},
		// Batch inputs are at rest already; one quick confirmation is enough.
		pipeline.StabilityConfig{Checks: 1, Interval: 10 * time.Millisecond, Timeout: 5 * time.Second},
	)

	logger.Info("batch.start", "dir", dir, "out", out, "inmem", inmem)
	paths, stats, err := ingest.ScanDirectory(dir, true)
	if err != nil {
		return err
	}

	var processed, duplicates, failures int
	for _, path := range paths {
		outcome, err := proc.ProcessFile(ctx, path)
		switch {
		case err != nil:
			failures++
		case outcome.Duplicate:
			duplicates++
		default:
			processed++
		}
	}

	logger.Info("batch.done",
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"processed", processed,
		"duplicates", duplicates,
		"failures", failures,
		"out", out,
	)

	fmt.Printf("Batch complete!\n")
	fmt.Printf("- Files scanned: %d\n", stats.Scanned)
	fmt.Printf("- Files matched: %d\n", stats.Matched)
	fmt.Printf("- Processed: %d\n", processed)
	fmt.Printf("- Skipped duplicates: %d\n", duplicates)
	fmt.Printf("- Failures: %d\n", failures)
	fmt.Printf("- Output: %s\n", out)
	return nil
}

// generative returns nil when no model endpoint is configured; the processor
// treats that as deterministic-only mode.
func generative(cfg *common.Config, logger *slog.Logger) llm.FieldExtractor {
	if cfg.LLM.BaseURL == "" {
		logger.Warn("model endpoint not configured, running deterministic-only")
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
