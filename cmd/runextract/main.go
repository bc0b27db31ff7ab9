package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/svtalent/candidate-intake/internal/candidate"
	"github.com/svtalent/candidate-intake/internal/common"
	"github.com/svtalent/candidate-intake/internal/extract"
	"github.com/svtalent/candidate-intake/internal/ingest"
	"github.com/svtalent/candidate-intake/internal/llm"
	"github.com/svtalent/candidate-intake/internal/llm/openai"
	"github.com/svtalent/candidate-intake/internal/parse"
)

func main() {
	var (
		showText = flag.Bool("text", false, "also print the extracted text to stderr")
		useModel = flag.Bool("model", false, "run the generative extractor too (needs LLM_BASE_URL)")
	)
	flag.Parse()

	// Logs go to stderr so stdout stays parseable JSON.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: runextract [-text] [-model] <file>")
		os.Exit(2)
	}

	if err := run(flag.Arg(0), *showText, *useModel, logger); err != nil {
		fmt.Fprintln(os.Stderr, "runextract:", err)
		os.Exit(1)
	}
}

func run(path string, showText, useModel bool, logger *slog.Logger) error {
	_ = godotenv.Load()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	res, err := extract.NewExtractor(extract.Config{}, logger).Extract(ctx, path)
	if err != nil && !common.IsCode(err, common.CodeOCRUnavailable) {
		return err
	}
	if showText {
		fmt.Fprintln(os.Stderr, res.Text)
	}

	hash, err := ingest.HashFile(path)
	if err != nil {
		return err
	}
	det := parse.NewExtractor(logger).Extract(res.Text, hash)

	genRes := candidate.ExtractionResult{
		Source: candidate.SourceGenerative,
		Err:    common.NewAppError(common.CodeModelUnavailable, "generative extractor not requested", nil),
	}
	if useModel {
		cfg := common.LoadConfig()
		if cfg.LLM.BaseURL == "" {
			return common.NewAppError(common.CodeConfigError, "LLM_BASE_URL is not set", nil)
		}
		client := openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
			MaxChars:    cfg.LLM.MaxChars,
		}, logger)
		rec, _, genErr := client.ExtractFields(ctx, llm.ExtractRequest{
			Text:         res.Text,
			FilenameHint: filepath.Base(path),
		})
		if genErr != nil {
			logger.Warn("generative extraction failed", "error", genErr)
			genRes.Err = genErr
		} else {
			genRes = candidate.ExtractionResult{Record: rec, Source: candidate.SourceGenerative}
		}
	}

	merged := candidate.Merge(det, genRes)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Method string           `json:"method"`
		Pages  int              `json:"pages,omitempty"`
		Record candidate.Record `json:"record"`
	}{res.Method, res.Pages, merged})
}
