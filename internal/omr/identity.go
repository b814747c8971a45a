package omr

import "strings"

// Identity carries the student-identity fields of a sheet. nil means absent;
// the resolver never produces an empty or whitespace-only string.
type Identity struct {
	StudentName *string
	RollNumber  *string
	ExamDate    *string
}

// ResolveIdentity reconciles identity fields from caller-supplied values and
// AI-extracted values. Per field, the explicit value wins when it is non-empty
// after trimming, then the extracted value under the same test, then absent.
func ResolveIdentity(explicit, extracted Identity) Identity {
	return Identity{
		StudentName: pickField(explicit.StudentName, extracted.StudentName),
		RollNumber:  pickField(explicit.RollNumber, extracted.RollNumber),
		ExamDate:    pickField(explicit.ExamDate, extracted.ExamDate),
	}
}

func pickField(explicit, extracted *string) *string {
	if v, ok := trimmed(explicit); ok {
		return &v
	}
	if v, ok := trimmed(extracted); ok {
		return &v
	}
	return nil
}

func trimmed(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	v := strings.TrimSpace(*s)
	return v, v != ""
}
