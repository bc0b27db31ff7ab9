package parse

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/svtalent/candidate-intake/internal/candidate"
)

// Extractor is the deterministic rule-table extractor. It cannot fail:
// absence of a match is not an error, so the result is always usable and
// Merge can rely on it as the precedence baseline.
type Extractor struct {
	logger *slog.Logger
}

func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract applies every rule to the raw text and returns a best-effort
// partial record. fileHashHex feeds the candidate ID fallback so the ID stays
// stable across re-runs even when no name was found.
func (e *Extractor) Extract(text, fileHashHex string) candidate.ExtractionResult {
	var rec candidate.Record

	matched := 0
	for _, rule := range scalarRules {
		v := rule.apply(text)
		if v == "" {
			continue
		}
		rule.Assign(&rec, v)
		matched++
		e.logger.Debug("parse.rule.matched", "field", rule.Field)
	}

	extractAddresses(text, &rec)
	rec.Education = extractEducation(text)
	rec.Experience = extractExperience(text)

	rec.Identity.CandidateID = candidate.ID(rec.Identity.Name, rec.Identity.Phone, fileHashHex)

	e.logger.Debug("parse.deterministic.done",
		"fields_matched", matched,
		"education_entries", len(rec.Education),
		"experience_entries", len(rec.Experience),
	)
	return candidate.ExtractionResult{Record: rec, Source: candidate.SourceDeterministic}
}

var addressKeywords = []string{"address", "residence", "location", "city", "state", "pincode"}

// extractAddresses collects lines mentioning an address keyword: the first
// three become the current address, the next three the permanent one (falling
// back to current when the document lists only one).
func extractAddresses(text string, rec *candidate.Record) {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		for _, kw := range addressKeywords {
			if strings.Contains(lower, kw) {
				lines = append(lines, strings.TrimSpace(line))
				break
			}
		}
	}
	if len(lines) == 0 {
		return
	}
	end := min(3, len(lines))
	rec.Addresses.Current = strings.Join(lines[:end], " ")
	if len(lines) > 3 {
		end = min(6, len(lines))
		rec.Addresses.Permanent = strings.Join(lines[3:end], " ")
	} else {
		rec.Addresses.Permanent = rec.Addresses.Current
	}
}

var (
	reEducationHeading  = regexp.MustCompile(`(?i)^\s*(?:education|academics|academic\s+qualifications?)\s*:?\s*$`)
	reExperienceHeading = regexp.MustCompile(`(?i)^\s*(?:work\s+experience|professional\s+experience|employment\s+history|experience)\s*:?\s*$`)
	reAnyHeading        = regexp.MustCompile(`^\s*[A-Z][A-Z &]{2,30}:?\s*$`)

	reDegree = regexp.MustCompile(`(?i)\b(b\.?\s?tech|m\.?\s?tech|b\.?e\.?|m\.?e\.?|b\.?sc\.?|m\.?sc\.?|mba|bca|mca|ph\.?d\.?|diploma|bachelor(?:\s+of\s+\w+)?|master(?:\s+of\s+\w+)?|hsc|ssc)\b`)
	reYear   = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	reRange  = regexp.MustCompile(`(?i)\b((?:19|20)\d{2})\s*(?:-|–|to)\s*((?:19|20)\d{2}|present|current)\b`)
)

// sectionLines returns the lines between a heading matched by start and the
// next heading-looking line.
func sectionLines(text string, start *regexp.Regexp) []string {
	lines := strings.Split(text, "\n")
	begin := -1
	for i, line := range lines {
		if start.MatchString(line) {
			begin = i + 1
			break
		}
	}
	if begin < 0 {
		return nil
	}
	var out []string
	for _, line := range lines[begin:] {
		if reAnyHeading.MatchString(line) || reEducationHeading.MatchString(line) || reExperienceHeading.MatchString(line) {
			break
		}
		if s := strings.TrimSpace(line); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// extractEducation parses the education section: one entry per line carrying
// both a degree keyword and a year, in document order.
func extractEducation(text string) []candidate.EducationEntry {
	var entries []candidate.EducationEntry
	for _, line := range sectionLines(text, reEducationHeading) {
		degree := reDegree.FindString(line)
		year := reYear.FindString(line)
		if degree == "" || year == "" {
			continue
		}
		inst := line
		inst = strings.Replace(inst, degree, "", 1)
		inst = strings.Replace(inst, year, "", 1)
		inst = strings.Trim(inst, " \t,-–()|")
		entries = append(entries, candidate.EducationEntry{
			Institution: collapseSpaces(inst),
			Degree:      collapseSpaces(degree),
			Year:        year,
		})
	}
	return entries
}

// extractExperience parses the experience section: one entry per line
// carrying a year range. Text before the range splits on the first dash or
// comma into employer and title.
func extractExperience(text string) []candidate.ExperienceEntry {
	var entries []candidate.ExperienceEntry
	for _, line := range sectionLines(text, reExperienceHeading) {
		m := reRange.FindStringSubmatchIndex(line)
		if m == nil {
			continue
		}
		start := line[m[2]:m[3]]
		end := titleWord(line[m[4]:m[5]])

		rest := strings.Trim(line[:m[0]], " \t,-–()|")
		employer, title := splitEmployerTitle(rest)
		entries = append(entries, candidate.ExperienceEntry{
			Employer:  employer,
			Title:     title,
			StartDate: start,
			EndDate:   end,
		})
	}
	return entries
}

func splitEmployerTitle(s string) (employer, title string) {
	for _, sep := range []string{" - ", " – ", ", "} {
		if i := strings.Index(s, sep); i > 0 {
			return collapseSpaces(s[:i]), collapseSpaces(s[i+len(sep):])
		}
	}
	return collapseSpaces(s), ""
}
