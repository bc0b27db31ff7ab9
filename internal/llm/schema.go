package llm

// BuildCandidateJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. It rides along in the prompt as a structured-output constraint
// and is also what we validate the model's answer against locally.
//
// Nothing is required: a sparse document legitimately yields a sparse object.
// candidate_id is deliberately not in the schema; the id is derived
// deterministically and a model must never be in a position to supply one.
func BuildCandidateJSONSchema() map[string]any {
	str := func() map[string]any { return map[string]any{"type": "string"} }

	identity := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"name":        str(),
			"designation": str(),
			"email":       str(),
			"phone":       str(),
			"dob":         str(),
			"gender":      str(),
			"nationality": str(),
		},
	}
	documents := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"pan_number":      str(),
			"uan_number":      str(),
			"passport_number": str(),
			"valid_from":      str(),
			"valid_to":        str(),
		},
	}
	education := map[string]any{
		"type": "array",
		"items": map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties": map[string]any{
				"institution": str(),
				"degree":      str(),
				"year":        str(),
			},
		},
	}
	experience := map[string]any{
		"type": "array",
		"items": map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties": map[string]any{
				"employer":   str(),
				"title":      str(),
				"start_date": str(),
				"end_date":   str(),
			},
		},
	}
	addresses := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"current":   str(),
			"permanent": str(),
		},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"identity":   identity,
			"documents":  documents,
			"education":  education,
			"experience": experience,
			"addresses":  addresses,
		},
	}
}
