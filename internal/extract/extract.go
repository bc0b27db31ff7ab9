package extract

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"
	"unicode"

	"github.com/gabriel-vasile/mimetype"

	"github.com/svtalent/candidate-intake/constants"
	"github.com/svtalent/candidate-intake/internal/common"
)

const (
	MethodPDFText = "pdf-text"
	MethodPDFOCR  = "pdf-ocr"
	MethodDOCX    = "docx"
)

const mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	DPI           int    // rasterization DPI for scanned PDFs, default 300
	MaxPages      int    // 0 = no limit

	// MinTextLen is the number of non-whitespace characters below which a
	// PDF's text layer is considered absent and OCR kicks in.
	MinTextLen int
}

type Result struct {
	Text     string
	Pages    int
	Format   constants.Format
	Method   string // "pdf-text" | "pdf-ocr" | "docx"
	Warnings []string
	Duration time.Duration
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.MinTextLen <= 0 {
		cfg.MinTextLen = 100
	}
	return &Extractor{cfg: cfg, runner: execRunner{}, logger: logger}
}

// Extract picks a strategy from the normalized extension, after verifying the
// file content actually is what the extension claims. A partial Result may
// accompany a non-nil error (OCR unavailable); callers decide whether the
// recovered text is still worth processing.
func (e *Extractor) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	format := constants.MapExtToFormat(ext)
	e.logger.Debug("extract.start", "path", path, "ext", ext, "format", string(format))

	if format == "" {
		return Result{}, common.NewAppError(common.CodeUnsupportedFormat, "unsupported extension: "+ext, nil)
	}
	if err := e.verifyContent(path, format); err != nil {
		e.logger.Error("extract.gate.failed", "path", path, "error", err)
		return Result{Format: format}, err
	}

	var res Result
	var err error
	switch format {
	case constants.PDF:
		res, err = e.extractPDF(ctx, path)
	case constants.DOCX:
		res, err = e.extractDOCX(path)
	}
	res.Format = format
	res.Text = Normalize(res.Text)
	res.Duration = time.Since(start)

	if err != nil {
		e.logger.Error("extract.failed", "path", path, "method", res.Method, "error", err)
		return res, err
	}
	e.logger.Debug("extract.ok",
		"path", path,
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"warnings", len(res.Warnings),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// verifyContent sniffs the file and rejects extension/content mismatches. A
// renamed spreadsheet does not become a resume by being called .pdf.
func (e *Extractor) verifyContent(path string, format constants.Format) error {
	info, err := os.Stat(path)
	if err != nil {
		return common.NewAppError(common.CodeCorruptFile, "cannot stat file", err)
	}
	if info.Size() == 0 {
		return common.NewAppError(common.CodeCorruptFile, "file is empty", nil)
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return common.NewAppError(common.CodeCorruptFile, "cannot read file for sniffing", err)
	}
	switch format {
	case constants.PDF:
		if !mt.Is("application/pdf") {
			return common.NewAppError(common.CodeUnsupportedFormat, "extension says pdf, content is "+mt.String(), nil)
		}
	case constants.DOCX:
		// legacy binary .doc sniffs as msword and is rejected here: the
		// container is OLE, not ZIP, and nothing downstream can read it
		if !mt.Is(mimeDOCX) {
			return common.NewAppError(common.CodeUnsupportedFormat, "extension says docx, content is "+mt.String(), nil)
		}
	}
	return nil
}

func countNonWhitespace(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
