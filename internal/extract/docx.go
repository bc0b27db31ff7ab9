package extract

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"strings"

	"github.com/svtalent/candidate-intake/internal/common"
)

// extractDOCX pulls paragraph and table text out of word/document.xml in
// document order. Plain text out: one line per paragraph, table cells
// tab-separated, one row per line. Deterministic, no fallback needed.
func (e *Extractor) extractDOCX(path string) (Result, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return Result{}, common.NewAppError(common.CodeCorruptFile, "not a readable docx container", err)
	}
	defer zr.Close()

	body, err := readZipPart(&zr.Reader, "word/document.xml")
	if err != nil {
		return Result{}, common.NewAppError(common.CodeCorruptFile, "docx has no word/document.xml", err)
	}

	var blocks []string
	dec := xml.NewDecoder(strings.NewReader(string(body)))
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "p":
			if p := docxParagraph(dec); p != "" {
				blocks = append(blocks, p)
			}
		case "tbl":
			if t := docxTable(dec); t != "" {
				blocks = append(blocks, t)
			}
		}
	}
	return Result{Text: strings.Join(blocks, "\n"), Pages: 1, Method: MethodDOCX}, nil
}

// docxParagraph reads one <w:p> element and returns its run text.
func docxParagraph(dec *xml.Decoder) string {
	var runs []string
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "t":
				runs = append(runs, readCharData(dec, &depth))
			case "tab":
				runs = append(runs, "\t")
			case "br":
				runs = append(runs, "\n")
			}
		case xml.EndElement:
			depth--
		}
	}
	return strings.TrimSpace(strings.Join(runs, ""))
}

// docxTable reads one <w:tbl> element, one line per row, cells tab-separated.
func docxTable(dec *xml.Decoder) string {
	var rows []string
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if t.Name.Local == "tr" {
				if cells := docxTableRow(dec, &depth); len(cells) > 0 {
					rows = append(rows, strings.Join(cells, "\t"))
				}
			}
		case xml.EndElement:
			depth--
		}
	}
	return strings.Join(rows, "\n")
}

// docxTableRow reads one <w:tr> element and returns its cell texts.
func docxTableRow(dec *xml.Decoder, outerDepth *int) []string {
	var cells []string
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if t.Name.Local == "tc" {
				cells = append(cells, docxTableCell(dec, &depth))
			}
		case xml.EndElement:
			if depth == 0 {
				*outerDepth--
				return cells
			}
			depth--
		}
	}
	return cells
}

// docxTableCell reads one <w:tc> element and returns its joined text.
func docxTableCell(dec *xml.Decoder, outerDepth *int) string {
	var texts []string
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if t.Name.Local == "t" {
				texts = append(texts, readCharData(dec, &depth))
			}
		case xml.EndElement:
			if depth == 0 {
				*outerDepth--
				return strings.TrimSpace(strings.Join(texts, " "))
			}
			depth--
		}
	}
	return strings.TrimSpace(strings.Join(texts, " "))
}

// readCharData consumes tokens until the element that began it closes,
// collecting character data along the way.
func readCharData(dec *xml.Decoder, depth *int) string {
	var sb strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.StartElement:
			*depth++
		case xml.EndElement:
			*depth--
			return sb.String()
		}
	}
	return sb.String()
}

func readZipPart(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, common.ErrNotFound
}
