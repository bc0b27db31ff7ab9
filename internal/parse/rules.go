package parse

import (
	"regexp"
	"strings"

	"github.com/svtalent/candidate-intake/internal/candidate"
)

// Rule binds one record field to its patterns and normalizer. Rules are
// declarative data: independent of each other, independently testable, and
// addable without touching the engine.
//
// Convention: if a pattern has a capture group, group 1 is the value;
// otherwise the whole match is. Optional prefixes inside patterns must use
// non-capturing groups so they never shadow the value.
type Rule struct {
	Field     string
	Patterns  []*regexp.Regexp
	Normalize func(string) string
	Assign    func(*candidate.Record, string)
}

// apply returns the normalized value of the first matching pattern, or "".
// No pattern is retried after a match.
func (r Rule) apply(text string) string {
	for _, p := range r.Patterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v := m[0]
		if len(m) > 1 && m[1] != "" {
			v = m[1]
		}
		if r.Normalize != nil {
			v = r.Normalize(v)
		} else {
			v = strings.TrimSpace(v)
		}
		if v != "" {
			return v
		}
	}
	return ""
}

var scalarRules = []Rule{
	{
		Field: "identity.email",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		},
		Normalize: func(s string) string { return strings.ToLower(strings.TrimSpace(s)) },
		Assign:    func(r *candidate.Record, v string) { r.Identity.Email = v },
	},
	{
		Field: "identity.phone",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?:\+91[\s-]?)?[6-9]\d{9}`),
			regexp.MustCompile(`\b0?[6-9]\d{9}\b`),
		},
		Normalize: stripPhoneSeparators,
		Assign:    func(r *candidate.Record, v string) { r.Identity.Phone = v },
	},
	{
		Field: "documents.pan_number",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b[A-Z]{5}\d{4}[A-Z]\b`),
		},
		Normalize: func(s string) string { return strings.ToUpper(strings.TrimSpace(s)) },
		Assign:    func(r *candidate.Record, v string) { r.Documents.PANNumber = v },
	},
	{
		Field: "documents.uan_number",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b\d{12}\b`),
		},
		Assign: func(r *candidate.Record, v string) { r.Documents.UANNumber = v },
	},
	{
		Field: "documents.passport_number",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b[A-Z]{1,2}\d{7}\b`),
		},
		Normalize: func(s string) string { return strings.ToUpper(strings.TrimSpace(s)) },
		Assign:    func(r *candidate.Record, v string) { r.Documents.PassportNumber = v },
	},
	{
		Field: "documents.valid_from",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:valid from|date of issue|issue date)[\s:]+(` + datePattern + `)`),
		},
		Normalize: NormalizeDate,
		Assign:    func(r *candidate.Record, v string) { r.Documents.ValidFrom = v },
	},
	{
		Field: "documents.valid_to",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:valid (?:to|till|until)|date of expiry|expiry date)[\s:]+(` + datePattern + `)`),
		},
		Normalize: NormalizeDate,
		Assign:    func(r *candidate.Record, v string) { r.Documents.ValidTo = v },
	},
	{
		Field: "identity.dob",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:date of birth|d\.?o\.?b\.?|born)[\s:]+(` + datePattern + `|` + monthNameDatePattern + `)`),
			regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{4}\b`),
			regexp.MustCompile(`\b\d{4}[/-]\d{1,2}[/-]\d{1,2}\b`),
			regexp.MustCompile(`(?i)\b` + monthNameDatePattern + `\b`),
		},
		Normalize: NormalizeDate,
		Assign:    func(r *candidate.Record, v string) { r.Identity.DateOfBirth = v },
	},
	{
		Field: "identity.name",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:candidate name|full name|name)[\s:]+([A-Z][A-Za-z]*(?:[ \t]+[A-Za-z][A-Za-z.']*){0,3})`),
			regexp.MustCompile(`(?m)^([A-Z][A-Za-z]+(?:[ \t]+[A-Z][A-Za-z.']*){1,3})[ \t]*$`),
		},
		Normalize: collapseSpaces,
		Assign:    func(r *candidate.Record, v string) { r.Identity.Name = v },
	},
	{
		Field: "identity.designation",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:designation|title|position)[\s:]+([A-Za-z][A-Za-z ]{1,50})`),
			regexp.MustCompile(`(?i)\b(?:software engineer|data scientist|developer|manager|analyst|consultant|engineer)\b`),
		},
		Normalize: collapseSpaces,
		Assign:    func(r *candidate.Record, v string) { r.Identity.Designation = v },
	},
	{
		Field: "identity.gender",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(male|female|other|m|f)\b`),
		},
		Normalize: canonicalGender,
		Assign:    func(r *candidate.Record, v string) { r.Identity.Gender = v },
	},
	{
		Field: "identity.nationality",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:nationality|citizen(?:ship)?)[\s:]+([A-Za-z]+)`),
		},
		Normalize: titleWord,
		Assign:    func(r *candidate.Record, v string) { r.Identity.Nationality = v },
	},
}

const (
	datePattern          = `\d{1,2}[/-]\d{1,2}[/-]\d{4}|\d{4}[/-]\d{1,2}[/-]\d{1,2}`
	monthNameDatePattern = `(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{1,2},?\s+\d{4}`
)

func stripPhoneSeparators(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, " ", "")
	return s
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func canonicalGender(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "male":
		return "Male"
	case "f", "female":
		return "Female"
	case "other":
		return "Other"
	default:
		return ""
	}
}

func titleWord(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
