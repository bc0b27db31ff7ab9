package candidate

// Merge reconciles the deterministic and generative extraction results into
// one Record. It cannot fail: a failed or absent result simply contributes
// nothing.
//
// Policy (a design contract, asserted exactly by tests, not an accuracy
// heuristic):
//   - scalar fields: deterministic non-empty wins; otherwise the generative
//     value; otherwise absent. Pattern matches are higher-precision for the
//     strictly formatted fields (PAN/UAN/passport), so they take precedence
//     everywhere for consistency.
//   - list fields (education, experience): wholesale, never entry-by-entry.
//     The deterministic list when non-empty, else the generative list.
func Merge(det, gen ExtractionResult) Record {
	d := det.Record
	g := gen.Record
	if !det.OK() {
		d = Record{}
	}
	if !gen.OK() {
		g = Record{}
	}

	out := Record{
		Identity: Identity{
			CandidateID: pick(d.Identity.CandidateID, g.Identity.CandidateID),
			Name:        pick(d.Identity.Name, g.Identity.Name),
			Designation: pick(d.Identity.Designation, g.Identity.Designation),
			Email:       pick(d.Identity.Email, g.Identity.Email),
			Phone:       pick(d.Identity.Phone, g.Identity.Phone),
			DateOfBirth: pick(d.Identity.DateOfBirth, g.Identity.DateOfBirth),
			Gender:      pick(d.Identity.Gender, g.Identity.Gender),
			Nationality: pick(d.Identity.Nationality, g.Identity.Nationality),
		},
		Documents: Documents{
			PANNumber:      pick(d.Documents.PANNumber, g.Documents.PANNumber),
			UANNumber:      pick(d.Documents.UANNumber, g.Documents.UANNumber),
			PassportNumber: pick(d.Documents.PassportNumber, g.Documents.PassportNumber),
			ValidFrom:      pick(d.Documents.ValidFrom, g.Documents.ValidFrom),
			ValidTo:        pick(d.Documents.ValidTo, g.Documents.ValidTo),
		},
		Addresses: Addresses{
			Current:   pick(d.Addresses.Current, g.Addresses.Current),
			Permanent: pick(d.Addresses.Permanent, g.Addresses.Permanent),
		},
	}

	if len(d.Education) > 0 {
		out.Education = d.Education
	} else {
		out.Education = g.Education
	}
	if len(d.Experience) > 0 {
		out.Experience = d.Experience
	} else {
		out.Experience = g.Experience
	}

	return out
}

func pick(det, gen string) string {
	if det != "" {
		return det
	}
	return gen
}
