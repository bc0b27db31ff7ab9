package sink

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svtalent/candidate-intake/internal/candidate"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleRecord() candidate.Record {
	return candidate.Record{
		Identity: candidate.Identity{
			CandidateID: "5f0c54f1-9a2b-5c3d-8e4f-6a7b8c9d0e1f",
			Name:        "Asha Verma",
			Designation: "Senior Engineer",
			Email:       "asha.verma@example.com",
			Phone:       "+919876543210",
			DateOfBirth: "1990-05-12",
			Gender:      "Female",
			Nationality: "Indian",
		},
		Documents: candidate.Documents{
			PANNumber:      "ABCDE1234F",
			UANNumber:      "100200300400",
			PassportNumber: "N1234567",
			ValidFrom:      "2015-02-01",
			ValidTo:        "2025-01-31",
		},
		Education: []candidate.EducationEntry{
			{Institution: "IIT Delhi", Degree: "B.Tech", Year: "2012"},
		},
		Experience: []candidate.ExperienceEntry{
			{Employer: "Acme Corp", Title: "Engineer", StartDate: "2016-10", EndDate: "2019-03"},
		},
		Addresses: candidate.Addresses{
			Current:   "12 MG Road, Bengaluru",
			Permanent: "4 Lake View, Pune",
		},
	}
}

func TestHeaders(t *testing.T) {
	assert.Len(t, Headers, 17)
	assert.Equal(t, "Candidate ID", Headers[0])
	assert.Equal(t, "Passport Number", Headers[10])
	assert.Equal(t, "Education", Headers[13])
	assert.Equal(t, "Experience", Headers[14])
	assert.Equal(t, "Permanent Address", Headers[16])
}

func TestFlattenFullRecord(t *testing.T) {
	rec := sampleRecord()
	row := Flatten(rec)
	require.Len(t, row, len(Headers))

	assert.Equal(t, rec.Identity.CandidateID, row[0])
	assert.Equal(t, "Asha Verma", row[1])
	assert.Equal(t, "Senior Engineer", row[2])
	assert.Equal(t, "asha.verma@example.com", row[3])
	assert.Equal(t, "+919876543210", row[4])
	assert.Equal(t, "1990-05-12", row[5])
	assert.Equal(t, "Female", row[6])
	assert.Equal(t, "Indian", row[7])
	assert.Equal(t, "ABCDE1234F", row[8])
	assert.Equal(t, "100200300400", row[9])
	assert.Equal(t, "N1234567", row[10])
	assert.Equal(t, "2015-02-01", row[11])
	assert.Equal(t, "2025-01-31", row[12])
	assert.Equal(t, "12 MG Road, Bengaluru", row[15])
	assert.Equal(t, "4 Lake View, Pune", row[16])

	var edu []candidate.EducationEntry
	require.NoError(t, json.Unmarshal([]byte(row[13].(string)), &edu))
	assert.Equal(t, rec.Education, edu)

	var exp []candidate.ExperienceEntry
	require.NoError(t, json.Unmarshal([]byte(row[14].(string)), &exp))
	assert.Equal(t, rec.Experience, exp)
}

func TestFlattenEmptyListsAreEmptyCells(t *testing.T) {
	rec := sampleRecord()
	rec.Education = nil
	rec.Experience = nil

	row := Flatten(rec)
	assert.Equal(t, "", row[13])
	assert.Equal(t, "", row[14])
}

func TestFlattenSparseRecord(t *testing.T) {
	rec := candidate.Record{}
	rec.Identity.CandidateID = "cid-1"

	row := Flatten(rec)
	require.Len(t, row, len(Headers))
	assert.Equal(t, "cid-1", row[0])
	for i, cell := range row[1:] {
		assert.Equal(t, "", cell, "column %d should be empty", i+1)
	}
}
