package candidate

// Record is the canonical structured output for one candidate document.
// Every field except Identity.CandidateID is optional: absence means neither
// extractor produced evidence for it, and absent fields stay absent on the
// wire (omitempty), never padded with placeholders.
type Record struct {
	Identity   Identity          `json:"identity"`
	Documents  Documents         `json:"documents"`
	Education  []EducationEntry  `json:"education,omitempty"`
	Experience []ExperienceEntry `json:"experience,omitempty"`
	Addresses  Addresses         `json:"addresses"`
}

// Identity holds the personal fields of a candidate.
type Identity struct {
	CandidateID string `json:"candidate_id"`
	Name        string `json:"name,omitempty"`
	Designation string `json:"designation,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	DateOfBirth string `json:"dob,omitempty"` // ISO-8601 when parseable
	Gender      string `json:"gender,omitempty"`
	Nationality string `json:"nationality,omitempty"`
}

// Documents holds government-document identifiers found in the profile.
// Formats are not validated beyond the pattern that matched them.
type Documents struct {
	PANNumber      string `json:"pan_number,omitempty"`
	UANNumber      string `json:"uan_number,omitempty"`
	PassportNumber string `json:"passport_number,omitempty"`
	ValidFrom      string `json:"valid_from,omitempty"`
	ValidTo        string `json:"valid_to,omitempty"`
}

// EducationEntry is one schooling row, in document order.
type EducationEntry struct {
	Institution string `json:"institution,omitempty"`
	Degree      string `json:"degree,omitempty"`
	Year        string `json:"year,omitempty"`
}

// ExperienceEntry is one employment row, in document order.
type ExperienceEntry struct {
	Employer  string `json:"employer,omitempty"`
	Title     string `json:"title,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// Addresses holds the free-text address fields.
type Addresses struct {
	Current   string `json:"current,omitempty"`
	Permanent string `json:"permanent,omitempty"`
}

// Extractor sources, recorded on each ExtractionResult.
const (
	SourceDeterministic = "deterministic"
	SourceGenerative    = "generative"
)

// ExtractionResult is one extractor's output for one file. Err is nil on
// success. Extractors never mutate each other's results; Merge is the only
// component that combines them.
type ExtractionResult struct {
	Record Record
	Source string
	Err    error
}

// OK reports whether the extractor produced a usable record.
func (r ExtractionResult) OK() bool {
	return r.Err == nil
}
