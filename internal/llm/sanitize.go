package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/svtalent/candidate-intake/internal/parse"
)

// NormalizeAndSanitizeJSON beats a model answer into the candidate schema:
//   - renames known synonyms (company -> employer, date_of_birth -> dob, ...)
//   - drops nulls, empty strings and unknown keys (additionalProperties=false
//     friendliness)
//   - coerces stray numbers to strings, dates to ISO-8601, PAN/passport to
//     uppercase
//   - removes candidate_id should the model volunteer one: the id is derived,
//     never generated
//
// Runs before validation so the validator only ever sees the cleaned shape.
func NormalizeAndSanitizeJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	dropped := make([]string, 0, 8)

	if identity := asMap(m["identity"]); identity != nil {
		if _, ok := identity["candidate_id"]; ok {
			delete(identity, "candidate_id")
			dropped = append(dropped, "identity.candidate_id(forbidden)")
		}
		renameKey(identity, "date_of_birth", "dob", &dropped)
		renameKey(identity, "full_name", "name", &dropped)
		renameKey(identity, "mobile", "phone", &dropped)
		cleanSection(identity, "identity", identityKeys, &dropped)
		if v, ok := identity["phone"].(string); ok {
			identity["phone"] = strings.ReplaceAll(strings.ReplaceAll(v, " ", ""), "-", "")
		}
		if v, ok := identity["dob"].(string); ok {
			identity["dob"] = parse.NormalizeDate(v)
		}
	}

	if documents := asMap(m["documents"]); documents != nil {
		renameKey(documents, "pan", "pan_number", &dropped)
		renameKey(documents, "uan", "uan_number", &dropped)
		renameKey(documents, "passport", "passport_number", &dropped)
		renameKey(documents, "issue_date", "valid_from", &dropped)
		renameKey(documents, "expiry_date", "valid_to", &dropped)
		cleanSection(documents, "documents", documentKeys, &dropped)
		for _, k := range []string{"pan_number", "passport_number"} {
			if v, ok := documents[k].(string); ok {
				documents[k] = strings.ToUpper(v)
			}
		}
		for _, k := range []string{"valid_from", "valid_to"} {
			if v, ok := documents[k].(string); ok {
				documents[k] = parse.NormalizeDate(v)
			}
		}
	}

	if entries, ok := m["education"].([]any); ok {
		m["education"] = sanitizeEntries(entries, "education", educationKeys, educationRenames, &dropped)
	}
	if entries, ok := m["experience"].([]any); ok {
		m["experience"] = sanitizeEntries(entries, "experience", experienceKeys, experienceRenames, &dropped)
	}

	if addresses := asMap(m["addresses"]); addresses != nil {
		renameKey(addresses, "current_address", "current", &dropped)
		renameKey(addresses, "permanent_address", "permanent", &dropped)
		cleanSection(addresses, "addresses", addressKeys, &dropped)
	}

	// unknown or hollow top-level sections go away entirely
	for k, v := range m {
		if _, known := sectionKeys[k]; !known {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
			continue
		}
		switch t := v.(type) {
		case map[string]any:
			if len(t) == 0 {
				delete(m, k)
			}
		case []any:
			if len(t) == 0 {
				delete(m, k)
			}
		case nil:
			delete(m, k)
			dropped = append(dropped, k+"(null)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("llm.extract.sanitize", "dropped", dropped)
	}
	return out, dropped, nil
}

var (
	sectionKeys = map[string]struct{}{
		"identity": {}, "documents": {}, "education": {}, "experience": {}, "addresses": {},
	}
	identityKeys = map[string]struct{}{
		"name": {}, "designation": {}, "email": {}, "phone": {}, "dob": {}, "gender": {}, "nationality": {},
	}
	documentKeys = map[string]struct{}{
		"pan_number": {}, "uan_number": {}, "passport_number": {}, "valid_from": {}, "valid_to": {},
	}
	educationKeys  = map[string]struct{}{"institution": {}, "degree": {}, "year": {}}
	experienceKeys = map[string]struct{}{"employer": {}, "title": {}, "start_date": {}, "end_date": {}}
	addressKeys    = map[string]struct{}{"current": {}, "permanent": {}}

	educationRenames = map[string]string{
		"school": "institution", "college": "institution", "university": "institution",
		"qualification": "degree",
	}
	experienceRenames = map[string]string{
		"company": "employer", "organization": "employer", "organisation": "employer",
		"position": "title", "role": "title", "designation": "title",
		"start": "start_date", "from": "start_date",
		"end": "end_date", "to": "end_date",
	}
)

var reDurationRange = regexp.MustCompile(`(?i)^(.+?)\s*(?:-|–|\bto\b)\s*(.+)$`)

// sanitizeEntries cleans one list section, dropping entries that end up with
// nothing in them. Experience entries get one extra kindness: a "duration"
// range is split into start_date/end_date when the model merged them.
func sanitizeEntries(entries []any, section string, allowed map[string]struct{}, renames map[string]string, dropped *[]string) []any {
	out := make([]any, 0, len(entries))
	for _, e := range entries {
		entry := asMap(e)
		if entry == nil {
			*dropped = append(*dropped, section+"(non-object entry)")
			continue
		}
		for from, to := range renames {
			renameKey(entry, from, to, dropped)
		}
		if section == "experience" {
			splitDuration(entry, dropped)
		}
		cleanSection(entry, section, allowed, dropped)
		if len(entry) > 0 {
			out = append(out, entry)
		}
	}
	return out
}

func splitDuration(entry map[string]any, dropped *[]string) {
	v, ok := entry["duration"].(string)
	if !ok {
		return
	}
	delete(entry, "duration")
	_, hasStart := entry["start_date"]
	_, hasEnd := entry["end_date"]
	if hasStart || hasEnd {
		*dropped = append(*dropped, "experience.duration(redundant)")
		return
	}
	if m := reDurationRange.FindStringSubmatch(strings.TrimSpace(v)); m != nil {
		entry["start_date"] = strings.TrimSpace(m[1])
		entry["end_date"] = strings.TrimSpace(m[2])
		*dropped = append(*dropped, "experience.duration->start_date,end_date")
		return
	}
	*dropped = append(*dropped, "experience.duration(unsplittable)")
}

// cleanSection trims strings, stringifies numbers, and removes nulls, empties
// and unknown keys from one object.
func cleanSection(m map[string]any, section string, allowed map[string]struct{}, dropped *[]string) {
	for k, v := range m {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			*dropped = append(*dropped, section+"."+k+"(unknown)")
			continue
		}
		switch t := v.(type) {
		case nil:
			delete(m, k)
			*dropped = append(*dropped, section+"."+k+"(null)")
		case float64:
			m[k] = strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			delete(m, k)
			*dropped = append(*dropped, section+"."+k+"(type)")
		case string:
			s := strings.TrimSpace(t)
			if s == "" || strings.EqualFold(s, "null") || strings.EqualFold(s, "n/a") || strings.EqualFold(s, "unknown") {
				delete(m, k)
				*dropped = append(*dropped, section+"."+k+"(empty)")
			} else {
				m[k] = s
			}
		case map[string]any, []any:
			delete(m, k)
			*dropped = append(*dropped, section+"."+k+"(type)")
		}
	}
}

func renameKey(m map[string]any, from, to string, dropped *[]string) {
	v, ok := m[from]
	if !ok {
		return
	}
	if _, exists := m[to]; !exists {
		m[to] = v
	}
	delete(m, from)
	*dropped = append(*dropped, from+"->"+to)
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}
