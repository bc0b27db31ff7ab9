package sink

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/svtalent/candidate-intake/internal/candidate"
	"github.com/svtalent/candidate-intake/internal/common"
)

// WorkbookConfig holds the local spreadsheet sink configuration.
type WorkbookConfig struct {
	Path  string
	Sheet string
}

// WorkbookSink appends one row per candidate to an .xlsx file on disk,
// creating the file with a header row on first use. Each Deliver does a
// full open, append, save cycle so the file on disk is always complete.
type WorkbookSink struct {
	cfg    WorkbookConfig
	logger *slog.Logger
	mu     sync.Mutex
}

func NewWorkbookSink(cfg WorkbookConfig, logger *slog.Logger) (*WorkbookSink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Path == "" {
		return nil, common.NewAppError(common.CodeConfigError, "workbook: path is required", nil)
	}
	if cfg.Sheet == "" {
		cfg.Sheet = "Candidates"
	}
	return &WorkbookSink{cfg: cfg, logger: logger}, nil
}

func (s *WorkbookSink) Name() string { return "workbook" }

func (s *WorkbookSink) Deliver(ctx context.Context, rec candidate.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return common.NewAppError(common.CodeSinkUnreachable, "workbook: append canceled", err)
	}

	start := time.Now()
	f, err := s.open()
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := f.GetRows(s.cfg.Sheet)
	if err != nil {
		return common.NewAppError(common.CodeSinkRejected, "workbook: read sheet "+s.cfg.Sheet, err)
	}

	next := len(rows) + 1
	if len(rows) == 0 {
		if err := s.writeRow(f, 1, headerCells()); err != nil {
			return err
		}
		next = 2
	}
	if err := s.writeRow(f, next, Flatten(rec)); err != nil {
		return err
	}

	if err := f.SaveAs(s.cfg.Path); err != nil {
		return common.NewAppError(common.CodeSinkUnreachable, "workbook: save "+s.cfg.Path, err)
	}

	s.logger.Info("sink.workbook.append_ok",
		"candidate_id", rec.Identity.CandidateID,
		"row", next,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// open returns the existing workbook, or a fresh one with the configured
// sheet when the file does not exist yet. An existing file that cannot be
// parsed is terminal: retrying will not make it a spreadsheet.
func (s *WorkbookSink) open() (*excelize.File, error) {
	if _, err := os.Stat(s.cfg.Path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, common.NewAppError(common.CodeSinkUnreachable, "workbook: stat "+s.cfg.Path, err)
		}
		f := excelize.NewFile()
		if _, err := f.NewSheet(s.cfg.Sheet); err != nil {
			f.Close()
			return nil, common.NewAppError(common.CodeSinkUnreachable, "workbook: create sheet "+s.cfg.Sheet, err)
		}
		if s.cfg.Sheet != "Sheet1" {
			if err := f.DeleteSheet("Sheet1"); err != nil {
				f.Close()
				return nil, common.NewAppError(common.CodeSinkUnreachable, "workbook: drop default sheet", err)
			}
		}
		_ = f.SetColWidth(s.cfg.Sheet, "A", "A", 38)
		_ = f.SetColWidth(s.cfg.Sheet, "B", "E", 24)
		_ = f.SetColWidth(s.cfg.Sheet, "N", "Q", 40)
		return f, nil
	}

	f, err := excelize.OpenFile(s.cfg.Path)
	if err != nil {
		return nil, common.NewAppError(common.CodeSinkRejected, "workbook: open "+s.cfg.Path, err)
	}
	if idx, err := f.GetSheetIndex(s.cfg.Sheet); err != nil || idx < 0 {
		if _, err := f.NewSheet(s.cfg.Sheet); err != nil {
			f.Close()
			return nil, common.NewAppError(common.CodeSinkRejected, "workbook: create sheet "+s.cfg.Sheet, err)
		}
	}
	return f, nil
}

func (s *WorkbookSink) writeRow(f *excelize.File, row int, values []any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return common.NewAppError(common.CodeSinkUnreachable, "workbook: cell name", err)
		}
		if err := f.SetCellValue(s.cfg.Sheet, cell, v); err != nil {
			return common.NewAppError(common.CodeSinkUnreachable, "workbook: set cell "+cell, err)
		}
	}
	return nil
}

func headerCells() []any {
	row := make([]any, len(Headers))
	for i, h := range Headers {
		row[i] = h
	}
	return row
}
