package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidateSchemaShape(t *testing.T) {
	schema := BuildCandidateJSONSchema()
	identity := schema["properties"].(map[string]any)["identity"].(map[string]any)
	props := identity["properties"].(map[string]any)

	_, present := props["candidate_id"]
	assert.False(t, present, "the id is derived locally, the model never supplies one")
	assert.Contains(t, props, "name")
	assert.Contains(t, props, "dob")
	assert.Equal(t, false, identity["additionalProperties"])
}

func TestValidateCandidateJSON(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{"empty object is valid", `{}`, false},
		{"sparse identity is valid", `{"identity": {"name": "Asha Rao"}}`, false},
		{
			"full shape is valid",
			`{
				"identity": {"name": "Asha Rao", "email": "asha@x.com", "dob": "1990-05-12"},
				"documents": {"pan_number": "ABCDE1234F"},
				"education": [{"institution": "NIT Trichy", "degree": "B.Tech", "year": "2012"}],
				"experience": [{"employer": "Acme Corp", "title": "Engineer", "start_date": "2016", "end_date": "2020"}],
				"addresses": {"current": "12 MG Road, Bengaluru"}
			}`,
			false,
		},
		{"unknown identity key rejected", `{"identity": {"nickname": "ash"}}`, true},
		{"volunteered candidate_id rejected", `{"identity": {"candidate_id": "DEADBEEF"}}`, true},
		{"unknown section rejected", `{"skills": []}`, true},
		{"wrong scalar type rejected", `{"identity": {"name": 5}}`, true},
		{"education must be a list", `{"education": {"degree": "MBA"}}`, true},
		{"unknown entry key rejected", `{"experience": [{"employer": "Acme", "description": "things"}]}`, true},
		{"not json at all", `nonsense`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCandidateJSON([]byte(tt.doc))
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
