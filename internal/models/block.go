package models

import "time"

// Block is a fixed cohort of students sharing one timetable (e.g. "ACT 1-A").
type Block struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Year      string    `db:"year" json:"year"`
	Capacity  int       `db:"capacity" json:"capacity"`
	Enrolled  int       `db:"enrolled" json:"enrolled"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// BlockFilter defines filter criteria for listing blocks.
type BlockFilter struct {
	Year      string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// BlockSchedules pairs a block name with its entries in snapshot order.
type BlockSchedules struct {
	Block   string
	Entries []ScheduleEntry
}
