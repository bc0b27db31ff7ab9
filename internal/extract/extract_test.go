package extract

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svtalent/candidate-intake/constants"
	"github.com/svtalent/candidate-intake/internal/common"
)

type fakeRunner struct {
	calls []string
	run   func(name string, args ...string) ([]byte, []byte, error)
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, name)
	return f.run(name, args...)
}

func (f *fakeRunner) count(name string) int {
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// fakePDF carries a real PDF magic header so content sniffing lets it through.
func fakePDF(t *testing.T) string {
	t.Helper()
	return writeTempFile(t, "resume.pdf", "%PDF-1.4\n%fake body for sniffing\n")
}

func newTestExtractor(f *fakeRunner) *Extractor {
	e := NewExtractor(Config{}, nil)
	e.runner = f
	return e
}

func TestTextLayerPDFNeverInvokesOCR(t *testing.T) {
	longText := strings.Repeat("curriculum vitae content ", 20)
	f := &fakeRunner{run: func(name string, args ...string) ([]byte, []byte, error) {
		require.Equal(t, "pdftotext", name)
		return []byte(longText), nil, nil
	}}

	res, err := newTestExtractor(f).Extract(context.Background(), fakePDF(t))
	require.NoError(t, err)

	assert.Equal(t, MethodPDFText, res.Method)
	assert.Equal(t, constants.PDF, res.Format)
	assert.Zero(t, f.count("pdftoppm"))
	assert.Zero(t, f.count("tesseract"))
}

func TestScannedPDFFallsBackToOCR(t *testing.T) {
	f := &fakeRunner{}
	f.run = func(name string, args ...string) ([]byte, []byte, error) {
		switch name {
		case "pdftotext":
			return []byte("  \n "), nil, nil
		case "pdftoppm":
			prefix := args[len(args)-1]
			for i := 1; i <= 2; i++ {
				img := fmt.Sprintf("%s-%d.png", prefix, i)
				if err := os.WriteFile(img, []byte("png"), 0o644); err != nil {
					return nil, nil, err
				}
			}
			return nil, nil, nil
		case "tesseract":
			base := filepath.Base(args[0])
			return []byte("ocr text from " + base), nil, nil
		}
		return nil, nil, errors.New("unexpected command " + name)
	}

	res, err := newTestExtractor(f).Extract(context.Background(), fakePDF(t))
	require.NoError(t, err)

	assert.Equal(t, MethodPDFOCR, res.Method)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, 2, f.count("tesseract"))
	assert.Contains(t, res.Text, "ocr text from page-1.png")
	assert.Contains(t, res.Text, "ocr text from page-2.png")
	// pages stay separated by a form feed marker
	assert.Contains(t, res.Text, "\f")
	assert.Empty(t, res.Warnings)
}

func TestOCRPageFailureIsWarningNotError(t *testing.T) {
	f := &fakeRunner{}
	f.run = func(name string, args ...string) ([]byte, []byte, error) {
		switch name {
		case "pdftotext":
			return nil, nil, nil
		case "pdftoppm":
			prefix := args[len(args)-1]
			for i := 1; i <= 3; i++ {
				img := fmt.Sprintf("%s-%d.png", prefix, i)
				if err := os.WriteFile(img, []byte("png"), 0o644); err != nil {
					return nil, nil, err
				}
			}
			return nil, nil, nil
		case "tesseract":
			if strings.HasSuffix(args[0], "-2.png") {
				return nil, []byte("Empty page!!"), errors.New("exit status 1")
			}
			return []byte("page " + filepath.Base(args[0])), nil, nil
		}
		return nil, nil, errors.New("unexpected command " + name)
	}

	res, err := newTestExtractor(f).Extract(context.Background(), fakePDF(t))
	require.NoError(t, err)

	assert.Equal(t, 3, res.Pages)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "page-2.png")
	assert.Contains(t, res.Text, "page-1.png")
	assert.NotContains(t, res.Text, "page page-2.png")
	assert.Contains(t, res.Text, "page-3.png")
}

func TestMissingTesseractDegradesToTextLayer(t *testing.T) {
	f := &fakeRunner{}
	f.run = func(name string, args ...string) ([]byte, []byte, error) {
		switch name {
		case "pdftotext":
			return []byte("short header only"), nil, nil
		case "pdftoppm":
			prefix := args[len(args)-1]
			img := prefix + "-1.png"
			return nil, nil, os.WriteFile(img, []byte("png"), 0o644)
		case "tesseract":
			return nil, nil, &exec.Error{Name: "tesseract", Err: exec.ErrNotFound}
		}
		return nil, nil, errors.New("unexpected command " + name)
	}

	res, err := newTestExtractor(f).Extract(context.Background(), fakePDF(t))
	require.Error(t, err)

	assert.True(t, common.IsCode(err, common.CodeOCRUnavailable))
	// the below-threshold text layer is still handed back for degraded processing
	assert.Equal(t, "short header only", res.Text)
	assert.Equal(t, MethodPDFText, res.Method)
	assert.NotEmpty(t, res.Warnings)
}

func TestCorruptPDFIsTerminal(t *testing.T) {
	f := &fakeRunner{run: func(name string, args ...string) ([]byte, []byte, error) {
		return nil, []byte("Syntax Error: May not be a PDF file (continuing anyway)"), errors.New("exit status 1")
	}}

	_, err := newTestExtractor(f).Extract(context.Background(), fakePDF(t))
	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.CodeCorruptFile))
}

func TestUnsupportedExtensionRejectedBeforeAnyExec(t *testing.T) {
	f := &fakeRunner{run: func(name string, args ...string) ([]byte, []byte, error) {
		return nil, nil, errors.New("should not run")
	}}
	path := writeTempFile(t, "resume.txt", "plain text resume")

	_, err := newTestExtractor(f).Extract(context.Background(), path)
	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.CodeUnsupportedFormat))
	assert.Empty(t, f.calls)
}

func TestMislabeledContentRejected(t *testing.T) {
	f := &fakeRunner{run: func(name string, args ...string) ([]byte, []byte, error) {
		return nil, nil, errors.New("should not run")
	}}

	t.Run("pdf extension with plain text content", func(t *testing.T) {
		path := writeTempFile(t, "resume.pdf", "just some prose, not a pdf at all")
		_, err := newTestExtractor(f).Extract(context.Background(), path)
		assert.True(t, common.IsCode(err, common.CodeUnsupportedFormat))
	})

	t.Run("docx extension with pdf content", func(t *testing.T) {
		path := writeTempFile(t, "resume.docx", "%PDF-1.4\nnot a docx\n")
		_, err := newTestExtractor(f).Extract(context.Background(), path)
		assert.True(t, common.IsCode(err, common.CodeUnsupportedFormat))
	})

	t.Run("empty file", func(t *testing.T) {
		path := writeTempFile(t, "resume.pdf", "")
		_, err := newTestExtractor(f).Extract(context.Background(), path)
		assert.True(t, common.IsCode(err, common.CodeCorruptFile))
	})

	assert.Empty(t, f.calls)
}

const testDocumentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>ASHA RAO</w:t></w:r></w:p>
<w:p><w:r><w:t>Senior </w:t></w:r><w:r><w:t>Engineer</w:t></w:r></w:p>
<w:tbl>
<w:tr><w:tc><w:p><w:r><w:t>PAN</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>ABCDE1234F</w:t></w:r></w:p></w:tc></w:tr>
</w:tbl>
<w:p><w:r><w:t>after table</w:t></w:r></w:p>
</w:body>
</w:document>`

func writeDOCX(t *testing.T, documentXML string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resume.docx")
	out, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(out)

	ct, err := zw.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = ct.Write([]byte(`<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="xml" ContentType="application/xml"/></Types>`))
	require.NoError(t, err)

	doc, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = doc.Write([]byte(documentXML))
	require.NoError(t, err)

	require.NoError(t, zw.Close())
	require.NoError(t, out.Close())
	return path
}

func TestExtractDOCXWalksParagraphsAndTables(t *testing.T) {
	e := NewExtractor(Config{}, nil)
	res, err := e.extractDOCX(writeDOCX(t, testDocumentXML))
	require.NoError(t, err)

	assert.Equal(t, "ASHA RAO\nSenior Engineer\nPAN\tABCDE1234F\nafter table", res.Text)
	assert.Equal(t, MethodDOCX, res.Method)
	assert.Equal(t, 1, res.Pages)
}

func TestExtractDOCXEndToEnd(t *testing.T) {
	f := &fakeRunner{run: func(name string, args ...string) ([]byte, []byte, error) {
		return nil, nil, errors.New("docx must not shell out")
	}}

	res, err := newTestExtractor(f).Extract(context.Background(), writeDOCX(t, testDocumentXML))
	require.NoError(t, err)

	assert.Equal(t, constants.DOCX, res.Format)
	assert.Equal(t, MethodDOCX, res.Method)
	// tabs collapse to single spaces during normalization
	assert.Contains(t, res.Text, "PAN ABCDE1234F")
	assert.Contains(t, res.Text, "ASHA RAO")
	assert.Empty(t, f.calls)
}

func TestExtractDOCXRejectsBrokenContainer(t *testing.T) {
	e := NewExtractor(Config{}, nil)
	path := writeTempFile(t, "broken.docx", "PK\x03\x04 definitely not a zip")
	_, err := e.extractDOCX(path)
	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.CodeCorruptFile))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "crlf to lf", in: "a\r\nb\rc", want: "a\nb\nc"},
		{name: "tabs to space", in: "a\t\tb", want: "a b"},
		{name: "space runs collapse", in: "a    b", want: "a b"},
		{name: "blank line runs collapse", in: "a\n\n\n\n\nb", want: "a\n\nb"},
		{name: "trailing spaces trimmed", in: "a   \nb", want: "a\nb"},
		{name: "digits untouched", in: "UAN 100200300400 01/02/2015", want: "UAN 100200300400 01/02/2015"},
		{name: "empty", in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}
