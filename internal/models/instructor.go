package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
)

// Instructor represents a teaching staff record.
type Instructor struct {
	ID        int64          `db:"id" json:"id"`
	Name      string         `db:"name" json:"name"`
	Email     string         `db:"email" json:"email"`
	Subjects  pq.StringArray `db:"subjects" json:"subjects"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// InstructorFilter captures filtering options for listing instructors.
type InstructorFilter struct {
	Search    string
	Subject   string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

type refKind int

const (
	refUnassigned refKind = iota
	refNamedOnly
	refKnown
)

// InstructorRef identifies the instructor of a schedule entry. It is resolved
// once when an entry enters the system: either a known directory id, a bare
// name, or unassigned (TBA).
type InstructorRef struct {
	kind refKind
	id   int64
	name string
}

// KnownInstructor builds a reference backed by a directory id.
func KnownInstructor(id int64, name string) InstructorRef {
	return InstructorRef{kind: refKnown, id: id, name: strings.TrimSpace(name)}
}

// NamedInstructor builds a reference identified only by name.
func NamedInstructor(name string) InstructorRef {
	return InstructorRef{kind: refNamedOnly, name: strings.TrimSpace(name)}
}

// UnassignedInstructor is the TBA reference.
func UnassignedInstructor() InstructorRef {
	return InstructorRef{kind: refUnassigned}
}

// ResolveInstructorRef classifies a raw id/name pair. A nil or non-positive
// id with a blank or TBA name yields the unassigned reference.
func ResolveInstructorRef(id *int64, name string) InstructorRef {
	trimmed := strings.TrimSpace(name)
	if id != nil && *id > 0 {
		return KnownInstructor(*id, trimmed)
	}
	if trimmed == "" || strings.EqualFold(trimmed, TBA) {
		return UnassignedInstructor()
	}
	return NamedInstructor(trimmed)
}

// Assigned reports whether the reference points at an actual instructor.
func (r InstructorRef) Assigned() bool {
	return r.kind != refUnassigned
}

// Matches reports whether two references identify the same instructor.
// Known references compare by id; otherwise names compare case-insensitively.
// Unassigned references never match anything.
func (r InstructorRef) Matches(other InstructorRef) bool {
	if !r.Assigned() || !other.Assigned() {
		return false
	}
	if r.kind == refKnown && other.kind == refKnown {
		return r.id == other.id
	}
	return r.name != "" && strings.EqualFold(r.name, other.name)
}

// Label returns a display name for conflict messages.
func (r InstructorRef) Label() string {
	if !r.Assigned() {
		return TBA
	}
	if r.name != "" {
		return r.name
	}
	return "instructor #" + strconv.FormatInt(r.id, 10)
}

// NormalizeRoom trims a room label and maps the TBA sentinel to empty.
func NormalizeRoom(room string) string {
	trimmed := strings.TrimSpace(room)
	if trimmed == "" || strings.EqualFold(trimmed, TBA) {
		return ""
	}
	return trimmed
}

// SameRoom compares two normalized room labels case-insensitively. Empty
// (unassigned) rooms never collide.
func SameRoom(a, b string) bool {
	na, nb := NormalizeRoom(a), NormalizeRoom(b)
	if na == "" || nb == "" {
		return false
	}
	return strings.EqualFold(na, nb)
}
