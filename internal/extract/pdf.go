package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/svtalent/candidate-intake/internal/common"
)

func (e *Extractor) extractPDF(ctx context.Context, path string) (Result, error) {
	text, pages, err := e.pdfToText(ctx, path)
	if err != nil {
		return Result{}, err
	}
	if countNonWhitespace(text) >= e.cfg.MinTextLen {
		return Result{Text: text, Pages: pages, Method: MethodPDFText}, nil
	}

	// below threshold: no usable text layer, treat as scanned
	e.logger.Debug("extract.pdf.ocr_fallback", "path", path, "direct_chars", countNonWhitespace(text))
	res, err := e.pdfOCR(ctx, path)
	if common.IsCode(err, common.CodeOCRUnavailable) {
		// non-fatal: hand back whatever the text layer had, caller decides
		res.Text = text
		res.Pages = pages
		res.Method = MethodPDFText
		res.Warnings = append(res.Warnings, "ocr unavailable, using below-threshold text layer")
	}
	return res, err
}

func (e *Extractor) pdfToText(ctx context.Context, path string) (text string, pages int, err error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", 0, classifyPopplerErr(err, errb, e.cfg.Pdftotext)
	}
	text = string(out)
	// pdftotext separates pages with a form feed
	pages = 1 + strings.Count(text, "\f")
	return text, pages, nil
}

func (e *Extractor) pdfOCR(ctx context.Context, path string) (Result, error) {
	tmpDir, err := os.MkdirTemp("", "intake-pp-*")
	if err != nil {
		return Result{}, common.WrapError(err, "create ocr temp dir")
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			e.logger.Warn("extract.tmpdir.remove_failed", "dir", tmpDir, "error", rmErr)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r <dpi> -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return Result{}, classifyPopplerErr(err, errb, e.cfg.Pdftoppm)
	}

	// pdftoppm zero-pads page numbers, lexicographic order is page order
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return Result{}, common.NewAppError(common.CodeCorruptFile, "pdftoppm rendered no pages", nil)
	}

	var b strings.Builder
	var warns []string
	for _, img := range matches {
		txt, err := e.tesseractPage(ctx, img)
		if err != nil {
			if errors.Is(err, exec.ErrNotFound) {
				return Result{}, common.NewAppError(common.CodeOCRUnavailable, e.cfg.Tesseract+" not installed", err)
			}
			// single bad page is a warning, the rest still count
			e.logger.Warn("extract.ocr.page_failed", "image", filepath.Base(img), "error", err)
			warns = append(warns, fmt.Sprintf("%s: %v", filepath.Base(img), err))
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n")
		}
		b.WriteString(txt)
	}
	return Result{Text: b.String(), Pages: len(matches), Method: MethodPDFOCR, Warnings: warns}, nil
}

func (e *Extractor) tesseractPage(ctx context.Context, img string) (string, error) {
	// tesseract <img> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, img, "stdout", "-l", e.cfg.TesseractLang)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", err
		}
		return "", fmt.Errorf("tesseract: %v: %s", err, truncate(string(errb), 512))
	}
	return reBoxNoise.ReplaceAllString(string(out), ""), nil
}

var corruptMarkers = []string{
	"may not be a pdf",
	"couldn't read xref",
	"couldn't open file",
	"damaged",
	"encrypted",
	"incorrect password",
	"command line error",
}

// classifyPopplerErr maps a poppler invocation failure onto the taxonomy:
// missing binary degrades (OCR_UNAVAILABLE), anything the tool said about the
// file itself is terminal (CORRUPT_FILE).
func classifyPopplerErr(err error, stderr []byte, bin string) error {
	if errors.Is(err, exec.ErrNotFound) {
		return common.NewAppError(common.CodeOCRUnavailable, bin+" not installed", err)
	}
	msg := strings.ToLower(string(stderr))
	for _, marker := range corruptMarkers {
		if strings.Contains(msg, marker) {
			return common.NewAppError(common.CodeCorruptFile, bin+": "+truncate(strings.TrimSpace(string(stderr)), 512), err)
		}
	}
	return common.NewAppError(common.CodeCorruptFile, bin+" failed: "+truncate(strings.TrimSpace(string(stderr)), 512), err)
}
