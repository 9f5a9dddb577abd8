package service

import (
	"fmt"

	"github.com/campus-suite/scheduling-api/internal/models"
)

// ConflictDetector validates a candidate schedule entry against a full
// cross-block snapshot. It is a pure function over its arguments: no I/O, no
// retained state.
type ConflictDetector struct{}

// NewConflictDetector constructs a detector.
func NewConflictDetector() *ConflictDetector {
	return &ConflictDetector{}
}

// Detect returns the first conflict between the candidate and the snapshot,
// or nil when the placement is valid. excludeID removes the entry being
// edited from comparison so it cannot conflict with itself. Existing entries
// with unparsable times are skipped rather than treated as collisions.
func (d *ConflictDetector) Detect(candidate models.ScheduleEntry, all []models.ScheduleEntry, excludeID string) (*models.ScheduleConflictError, error) {
	candidateInterval, err := candidate.Interval()
	if err != nil {
		return nil, err
	}
	candidateRef := candidate.Instructor()

	for _, existing := range all {
		if excludeID != "" && existing.ID == excludeID {
			continue
		}
		interval, err := existing.Interval()
		if err != nil {
			continue
		}
		if !candidateInterval.Overlaps(interval) {
			continue
		}

		if candidateRef.Matches(existing.Instructor()) {
			return conflictOf(existing, models.ConflictInstructor, fmt.Sprintf(
				"%s is already teaching %s for block %s on %s %s-%s",
				existing.Instructor().Label(), existing.SubjectCode, blockLabel(existing),
				existing.Day, existing.StartTime, existing.EndTime)), nil
		}

		if candidate.HasRoom() && models.SameRoom(candidate.Room, existing.Room) {
			return conflictOf(existing, models.ConflictRoom, fmt.Sprintf(
				"room %s is already booked for %s (block %s) on %s %s-%s",
				models.NormalizeRoom(existing.Room), existing.SubjectCode, blockLabel(existing),
				existing.Day, existing.StartTime, existing.EndTime)), nil
		}

		if existing.BlockID == candidate.BlockID {
			return conflictOf(existing, models.ConflictBlock, fmt.Sprintf(
				"block %s already has %s on %s %s-%s",
				blockLabel(existing), existing.SubjectCode,
				existing.Day, existing.StartTime, existing.EndTime)), nil
		}
	}

	return nil, nil
}

func conflictOf(existing models.ScheduleEntry, kind, message string) *models.ScheduleConflictError {
	return &models.ScheduleConflictError{
		Kind:    kind,
		Message: message,
		Conflict: models.ScheduleConflict{
			EntryID:        existing.ID,
			BlockID:        existing.BlockID,
			BlockName:      existing.BlockName,
			SubjectCode:    existing.SubjectCode,
			Day:            existing.Day,
			StartTime:      existing.StartTime,
			EndTime:        existing.EndTime,
			InstructorName: existing.InstructorName,
			Room:           existing.Room,
			Kind:           kind,
		},
	}
}

func blockLabel(entry models.ScheduleEntry) string {
	if entry.BlockName != "" {
		return entry.BlockName
	}
	return entry.BlockID
}
