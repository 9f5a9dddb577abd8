package models

import (
	"sort"
	"time"
)

// TBA is the sentinel for an unassigned instructor or room. Unassigned
// resources never participate in conflict checks.
const TBA = "TBA"

// ScheduleEntry is one timetable slot owned by a block.
type ScheduleEntry struct {
	ID             string    `db:"id" json:"id"`
	BlockID        string    `db:"block_id" json:"block_id"`
	BlockName      string    `db:"block_name" json:"block_name,omitempty"`
	SubjectCode    string    `db:"subject_code" json:"subject_code"`
	Description    string    `db:"description" json:"description"`
	Day            string    `db:"day_of_week" json:"day_of_week"`
	StartTime      string    `db:"start_time" json:"start_time"`
	EndTime        string    `db:"end_time" json:"end_time"`
	InstructorID   *int64    `db:"instructor_id" json:"instructor_id,omitempty"`
	InstructorName string    `db:"instructor_name" json:"instructor_name,omitempty"`
	Room           string    `db:"room" json:"room,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Interval parses the entry's day and clock range.
func (e ScheduleEntry) Interval() (TimeInterval, error) {
	return NewTimeInterval(e.Day, e.StartTime, e.EndTime)
}

// Instructor resolves the entry's instructor reference once at the boundary.
func (e ScheduleEntry) Instructor() InstructorRef {
	return ResolveInstructorRef(e.InstructorID, e.InstructorName)
}

// HasRoom reports whether the entry occupies a concrete room.
func (e ScheduleEntry) HasRoom() bool {
	return NormalizeRoom(e.Room) != ""
}

// SortTimetable orders a block's entries for display: weekday, then start
// time, then subject code for entries sharing a slot.
func SortTimetable(entries []ScheduleEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		di, dj := Day(entries[i].Day).Order(), Day(entries[j].Day).Order()
		if di != dj {
			return di < dj
		}
		si, _ := ParseClock(entries[i].StartTime)
		sj, _ := ParseClock(entries[j].StartTime)
		if si != sj {
			return si < sj
		}
		return entries[i].SubjectCode < entries[j].SubjectCode
	})
}

// ScheduleFilter describes query params for listing schedule entries.
type ScheduleFilter struct {
	BlockID      string
	InstructorID string
	Day          string
	Room         string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// Conflict kinds reported by the detector.
const (
	ConflictInstructor = "INSTRUCTOR"
	ConflictRoom       = "ROOM"
	ConflictBlock      = "BLOCK"
)

// ScheduleConflict describes the existing entry that blocks a candidate.
type ScheduleConflict struct {
	EntryID        string `json:"entry_id"`
	BlockID        string `json:"block_id"`
	BlockName      string `json:"block_name,omitempty"`
	SubjectCode    string `json:"subject_code"`
	Day            string `json:"day_of_week"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	InstructorName string `json:"instructor_name,omitempty"`
	Room           string `json:"room,omitempty"`
	Kind           string `json:"kind"`
}

// ScheduleConflictError is returned when a candidate collides with an existing entry.
type ScheduleConflictError struct {
	Kind     string           `json:"kind"`
	Message  string           `json:"message"`
	Conflict ScheduleConflict `json:"conflict"`
}

// Error implements the error interface for conflict errors.
func (e *ScheduleConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
