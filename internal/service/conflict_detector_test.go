package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-suite/scheduling-api/internal/models"
)

func int64p(v int64) *int64 { return &v }

func entryACT1A() models.ScheduleEntry {
	return models.ScheduleEntry{
		ID:             "entry-1",
		BlockID:        "block-a",
		BlockName:      "ACT 1-A",
		SubjectCode:    "IT 101",
		Day:            "MONDAY",
		StartTime:      "09:00",
		EndTime:        "10:30",
		InstructorName: "Dr. Alan Turing",
		Room:           "Lab 1",
	}
}

func TestDetectInstructorConflictAcrossBlocks(t *testing.T) {
	detector := NewConflictDetector()
	candidate := models.ScheduleEntry{
		BlockID:        "block-b",
		BlockName:      "ACT 1-B",
		SubjectCode:    "IT 201",
		Day:            "MONDAY",
		StartTime:      "09:30",
		EndTime:        "11:00",
		InstructorName: "Dr. Alan Turing",
	}

	conflict, err := detector.Detect(candidate, []models.ScheduleEntry{entryACT1A()}, "")
	require.NoError(t, err)
	require.NotNil(t, conflict)
	assert.Equal(t, models.ConflictInstructor, conflict.Kind)
	assert.Equal(t, "entry-1", conflict.Conflict.EntryID)
	assert.Contains(t, conflict.Message, "Dr. Alan Turing")
	assert.Contains(t, conflict.Message, "ACT 1-A")
}

func TestDetectTBAInstructorNeverConflicts(t *testing.T) {
	detector := NewConflictDetector()
	candidate := models.ScheduleEntry{
		BlockID:        "block-b",
		BlockName:      "ACT 1-B",
		SubjectCode:    "IT 201",
		Day:            "MONDAY",
		StartTime:      "09:30",
		EndTime:        "11:00",
		InstructorName: "TBA",
	}

	conflict, err := detector.Detect(candidate, []models.ScheduleEntry{entryACT1A()}, "")
	require.NoError(t, err)
	assert.Nil(t, conflict)
}

func TestDetectBlockConflict(t *testing.T) {
	detector := NewConflictDetector()
	// 10:00-11:00 overlaps [09:00,10:30) even though the instructor is TBA.
	candidate := models.ScheduleEntry{
		BlockID:        "block-a",
		BlockName:      "ACT 1-A",
		SubjectCode:    "IT 102",
		Day:            "MONDAY",
		StartTime:      "10:00",
		EndTime:        "11:00",
		InstructorName: "TBA",
	}

	existing := entryACT1A()
	existing.Room = ""

	conflict, err := detector.Detect(candidate, []models.ScheduleEntry{existing}, "")
	require.NoError(t, err)
	require.NotNil(t, conflict)
	assert.Equal(t, models.ConflictBlock, conflict.Kind)
}

func TestDetectBoundaryTouchPasses(t *testing.T) {
	detector := NewConflictDetector()
	candidate := models.ScheduleEntry{
		BlockID:        "block-a",
		BlockName:      "ACT 1-A",
		SubjectCode:    "IT 102",
		Day:            "MONDAY",
		StartTime:      "10:30",
		EndTime:        "11:30",
		InstructorName: "Dr. Alan Turing",
		Room:           "Lab 1",
	}

	conflict, err := detector.Detect(candidate, []models.ScheduleEntry{entryACT1A()}, "")
	require.NoError(t, err)
	assert.Nil(t, conflict)
}

func TestDetectRoomConflict(t *testing.T) {
	detector := NewConflictDetector()
	candidate := models.ScheduleEntry{
		BlockID:        "block-b",
		BlockName:      "ACT 1-B",
		SubjectCode:    "IT 201",
		Day:            "MONDAY",
		StartTime:      "10:00",
		EndTime:        "11:00",
		InstructorName: "Prof. Grace Hopper",
		Room:           "lab 1",
	}

	conflict, err := detector.Detect(candidate, []models.ScheduleEntry{entryACT1A()}, "")
	require.NoError(t, err)
	require.NotNil(t, conflict)
	assert.Equal(t, models.ConflictRoom, conflict.Kind)
}

func TestDetectExcludeIDSkipsSelf(t *testing.T) {
	detector := NewConflictDetector()
	existing := entryACT1A()

	// Editing the entry in place against a snapshot that still holds the
	// pre-edit copy must not report a self-conflict.
	edited := existing
	edited.EndTime = "10:00"

	conflict, err := detector.Detect(edited, []models.ScheduleEntry{existing}, existing.ID)
	require.NoError(t, err)
	assert.Nil(t, conflict)
}

func TestDetectMatchesInstructorByID(t *testing.T) {
	detector := NewConflictDetector()
	existing := entryACT1A()
	existing.InstructorID = int64p(7)
	existing.InstructorName = "Dr. Alan Turing"
	existing.Room = ""

	candidate := models.ScheduleEntry{
		BlockID:      "block-b",
		BlockName:    "ACT 1-B",
		SubjectCode:  "IT 201",
		Day:          "MONDAY",
		StartTime:    "10:00",
		EndTime:      "11:00",
		InstructorID: int64p(7),
	}

	conflict, err := detector.Detect(candidate, []models.ScheduleEntry{existing}, "")
	require.NoError(t, err)
	require.NotNil(t, conflict)
	assert.Equal(t, models.ConflictInstructor, conflict.Kind)
}

func TestDetectIsSymmetric(t *testing.T) {
	detector := NewConflictDetector()
	a := entryACT1A()
	b := models.ScheduleEntry{
		ID:             "entry-2",
		BlockID:        "block-b",
		BlockName:      "ACT 1-B",
		SubjectCode:    "IT 201",
		Day:            "MONDAY",
		StartTime:      "09:30",
		EndTime:        "11:00",
		InstructorName: "Dr. Alan Turing",
	}

	conflictAB, err := detector.Detect(a, []models.ScheduleEntry{b}, "")
	require.NoError(t, err)
	conflictBA, err := detector.Detect(b, []models.ScheduleEntry{a}, "")
	require.NoError(t, err)

	require.NotNil(t, conflictAB)
	require.NotNil(t, conflictBA)
	assert.Equal(t, models.ConflictInstructor, conflictAB.Kind)
	assert.Equal(t, models.ConflictInstructor, conflictBA.Kind)
}

func TestDetectRejectsMalformedCandidateTimes(t *testing.T) {
	detector := NewConflictDetector()
	candidate := entryACT1A()
	candidate.StartTime = "late"

	_, err := detector.Detect(candidate, nil, "")
	assert.Error(t, err)
}
