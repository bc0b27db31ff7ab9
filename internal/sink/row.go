package sink

import (
	"encoding/json"

	"github.com/svtalent/candidate-intake/internal/candidate"
)

// Headers is the single source of truth for the 17-column row layout shared
// by the Sheets sink and the local workbook.
var Headers = []string{
	"Candidate ID", "Name", "Designation", "Email", "Phone", "DOB", "Gender", "Nationality",
	"PAN Number", "UAN Number", "Passport Number", "Valid From", "Valid To",
	"Education", "Experience", "Current Address", "Permanent Address",
}

// Flatten renders rec as one row in Headers order. Education and experience
// are embedded as compact JSON; fields with no value become empty cells.
func Flatten(rec candidate.Record) []any {
	return []any{
		rec.Identity.CandidateID,
		rec.Identity.Name,
		rec.Identity.Designation,
		rec.Identity.Email,
		rec.Identity.Phone,
		rec.Identity.DateOfBirth,
		rec.Identity.Gender,
		rec.Identity.Nationality,
		rec.Documents.PANNumber,
		rec.Documents.UANNumber,
		rec.Documents.PassportNumber,
		rec.Documents.ValidFrom,
		rec.Documents.ValidTo,
		marshalEntries(rec.Education),
		marshalEntries(rec.Experience),
		rec.Addresses.Current,
		rec.Addresses.Permanent,
	}
}

func marshalEntries[T any](entries []T) string {
	if len(entries) == 0 {
		return ""
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return ""
	}
	return string(b)
}
