package models

import (
	"sort"
	"strconv"
	"strings"
)

// Default sentinels keeping composite assignment ids non-degenerate.
const (
	DefaultAcademicYear = "Unspecified AY"
	DefaultSemester     = "Unspecified Semester"
	DefaultBlock        = "Unassigned"
)

// TeachingAssignment is one derived "who teaches what, when" record. The ID is
// a deterministic composite key, not a surrogate, so re-deriving the same
// snapshot always reproduces the same ids.
type TeachingAssignment struct {
	ID                 string `json:"id"`
	AcademicYear       string `json:"academic_year"`
	Semester           string `json:"semester"`
	Block              string `json:"block"`
	SubjectCode        string `json:"subject_code"`
	SubjectDescription string `json:"subject_description,omitempty"`
	InstructorID       *int64 `json:"instructor_id,omitempty"`
	InstructorName     string `json:"instructor_name"`
	InstructorEmail    string `json:"instructor_email,omitempty"`
}

// AssignmentID builds the composite key year|semester|block|subjectCode|index.
func AssignmentID(academicYear, semester, block, subjectCode string, index int) string {
	return strings.Join([]string{academicYear, semester, block, subjectCode, strconv.Itoa(index)}, "|")
}

// OrDefault substitutes the sentinel when a term field is blank.
func OrDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// SortAssignments orders records by academic year descending, then semester,
// block and subject code ascending. The order is part of the signature
// contract, so it must stay stable across recomputations.
func SortAssignments(records []TeachingAssignment) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.AcademicYear != b.AcademicYear {
			return a.AcademicYear > b.AcademicYear
		}
		if a.Semester != b.Semester {
			return a.Semester < b.Semester
		}
		if a.Block != b.Block {
			return a.Block < b.Block
		}
		return a.SubjectCode < b.SubjectCode
	})
}

// AssignmentSignature fingerprints an ordered record set by its composite ids.
func AssignmentSignature(records []TeachingAssignment) string {
	ids := make([]string, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
	}
	return strings.Join(ids, ";")
}

// MergeAssignments combines two generations keyed by composite id. Records
// from the second list overwrite same-id records from the first; list order is
// the only conflict resolution because ids derive from content.
func MergeAssignments(first, second []TeachingAssignment) []TeachingAssignment {
	byID := make(map[string]TeachingAssignment, len(first)+len(second))
	order := make([]string, 0, len(first)+len(second))
	for _, rec := range first {
		if _, seen := byID[rec.ID]; !seen {
			order = append(order, rec.ID)
		}
		byID[rec.ID] = rec
	}
	for _, rec := range second {
		if _, seen := byID[rec.ID]; !seen {
			order = append(order, rec.ID)
		}
		byID[rec.ID] = rec
	}
	merged := make([]TeachingAssignment, 0, len(order))
	for _, id := range order {
		merged = append(merged, byID[id])
	}
	return merged
}
