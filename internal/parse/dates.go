package parse

import (
	"strings"
	"time"
)

// dateLayouts is ordered: year-first forms are unambiguous, then day-first
// (the dominant convention in the source documents), then month-name forms.
var dateLayouts = []string{
	"2006-1-2",
	"2006/1/2",
	"2-1-2006",
	"2/1/2006",
	"1/2/2006",
	"1-2-2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
	"January 2 2006",
	"2 Jan 2006",
	"2 January 2006",
}

// NormalizeDate converts a matched date string to ISO-8601 (YYYY-MM-DD).
// Unparseable input is returned verbatim rather than dropped, so a field
// never disappears just because its format was unrecognized.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	fields := strings.Fields(strings.ReplaceAll(s, ".", ""))
	for i, f := range fields {
		// month names arrive in whatever case the document used
		if c := f[0]; (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			fields[i] = strings.ToUpper(f[:1]) + strings.ToLower(f[1:])
		}
	}
	cleaned := strings.Join(fields, " ")
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}
