package candidate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestID(t *testing.T) {
	const fileHash = "3a7bd3e2360a3d29eea436fcfb7e44c735d117c42d1c1835420b6b9942dd4f1b"

	tests := []struct {
		name     string
		candName string
		phone    string
		check    func(t *testing.T, id string)
	}{
		{
			name:     "derived from name and phone when name present",
			candName: "Asha Rao",
			phone:    "+91 98765-43210",
			check: func(t *testing.T, id string) {
				// separators and case must not change the ID
				assert.Equal(t, id, ID("  asha rao ", "919876543210", fileHash))
			},
		},
		{
			name:     "falls back to file hash when name absent",
			candName: "",
			phone:    "9876543210",
			check: func(t *testing.T, id string) {
				// phone is ignored on the fallback path
				assert.Equal(t, id, ID("", "", fileHash))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := ID(tt.candName, tt.phone, fileHash)
			assert.Len(t, id, 8)
			assert.Equal(t, id, ID(tt.candName, tt.phone, fileHash), "same inputs must yield the same ID")
			tt.check(t, id)
		})
	}
}

func TestIDDistinguishesCandidates(t *testing.T) {
	const fileHash = "3a7bd3e2360a3d29eea436fcfb7e44c735d117c42d1c1835420b6b9942dd4f1b"

	a := ID("Asha Rao", "9876543210", fileHash)
	b := ID("Vikram Nair", "9876543210", fileHash)
	assert.NotEqual(t, a, b)

	samePersonOtherFile := ID("Asha Rao", "9876543210", "deadbeef00000000000000000000000000000000000000000000000000000000")
	assert.Equal(t, a, samePersonOtherFile, "ID tracks the person, not the file, when a name matched")
}
