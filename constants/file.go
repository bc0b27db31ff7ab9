package constants

import "strings"

// Format is the coarse document format routed to an extraction strategy.
type Format string

const (
	PDF  Format = "PDF"
	DOCX Format = "DOCX"
)

// AllowedExtensions holds the default allowed file extensions for candidate ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"docx": {},
	"doc":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps a (possibly dotted) extension to its Format.
// Returns "" for unsupported extensions.
func MapExtToFormat(ext string) Format {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "docx", "doc":
		return DOCX
	default:
		return ""
	}
}
