package sink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/svtalent/candidate-intake/internal/candidate"
	"github.com/svtalent/candidate-intake/internal/common"
)

const (
	headerRange = "A1:Q1"
	appendRange = "A:Q"
)

// SheetsConfig holds the Google Sheets sink configuration.
type SheetsConfig struct {
	SpreadsheetID string
	// Credentials is either a path to a service-account JSON file or the
	// JSON document itself.
	Credentials string
}

// SheetsSink appends one row per candidate to a spreadsheet. The header row
// is written once if missing; after that every Deliver is a plain append.
type SheetsSink struct {
	cfg     SheetsConfig
	svc     *sheets.Service
	logger  *slog.Logger
	ensured atomic.Bool
}

func NewSheetsSink(ctx context.Context, cfg SheetsConfig, logger *slog.Logger) (*SheetsSink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SpreadsheetID == "" {
		return nil, common.NewAppError(common.CodeConfigError, "sheets: spreadsheet id is required", nil)
	}

	var creds option.ClientOption
	if strings.HasPrefix(strings.TrimSpace(cfg.Credentials), "{") {
		creds = option.WithCredentialsJSON([]byte(cfg.Credentials))
	} else {
		creds = option.WithCredentialsFile(cfg.Credentials)
	}
	svc, err := sheets.NewService(ctx, creds)
	if err != nil {
		return nil, common.NewAppError(common.CodeConfigError, "sheets: build service", err)
	}

	logger.Info("sink.sheets.init", "spreadsheet_id", cfg.SpreadsheetID)
	return &SheetsSink{cfg: cfg, svc: svc, logger: logger}, nil
}

func (s *SheetsSink) Name() string { return "sheets" }

func (s *SheetsSink) Deliver(ctx context.Context, rec candidate.Record) error {
	start := time.Now()
	if err := s.ensureHeaders(ctx); err != nil {
		return err
	}

	vr := &sheets.ValueRange{Values: [][]any{Flatten(rec)}}
	_, err := s.svc.Spreadsheets.Values.Append(s.cfg.SpreadsheetID, appendRange, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return classifySheetsError("append row", err)
	}

	s.logger.Info("sink.sheets.append_ok",
		"candidate_id", rec.Identity.CandidateID,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// ensureHeaders writes the header row when the sheet is empty or has fewer
// columns than expected. Success is remembered; failure is retried on the
// next Deliver.
func (s *SheetsSink) ensureHeaders(ctx context.Context) error {
	if s.ensured.Load() {
		return nil
	}

	resp, err := s.svc.Spreadsheets.Values.Get(s.cfg.SpreadsheetID, headerRange).Context(ctx).Do()
	if err != nil {
		return classifySheetsError("read headers", err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) >= len(Headers) {
		s.ensured.Store(true)
		return nil
	}

	row := make([]any, len(Headers))
	for i, h := range Headers {
		row[i] = h
	}
	_, err = s.svc.Spreadsheets.Values.Update(s.cfg.SpreadsheetID, headerRange, &sheets.ValueRange{Values: [][]any{row}}).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return classifySheetsError("write headers", err)
	}

	s.logger.Info("sink.sheets.headers_written")
	s.ensured.Store(true)
	return nil
}

// classifySheetsError sorts an API failure into the dispatch taxonomy:
// quota pushback and server errors are retryable, everything else the API
// said no to is terminal, and transport failures are retryable.
func classifySheetsError(op string, err error) error {
	var ge *googleapi.Error
	if errors.As(err, &ge) {
		if ge.Code == 429 || ge.Code >= 500 {
			return common.NewAppError(common.CodeSinkUnreachable, fmt.Sprintf("sheets %s: status %d", op, ge.Code), err)
		}
		return common.NewAppError(common.CodeSinkRejected, fmt.Sprintf("sheets %s: status %d", op, ge.Code), err)
	}
	return common.NewAppError(common.CodeSinkUnreachable, "sheets "+op, err)
}
