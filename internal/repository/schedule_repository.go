package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campus-suite/scheduling-api/internal/models"
)

// ScheduleRepository provides persistence for schedule entries.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

const entryColumns = `e.id, e.block_id, b.name AS block_name, e.subject_code, e.description, e.day_of_week, e.start_time, e.end_time, e.instructor_id, e.instructor_name, e.room, e.created_at, e.updated_at`

// List returns schedule entries with optional filtering and pagination.
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, int, error) {
	base := "FROM schedule_entries e JOIN blocks b ON b.id = e.block_id WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.BlockID != "" {
		conditions = append(conditions, fmt.Sprintf("e.block_id = $%d", len(args)+1))
		args = append(args, filter.BlockID)
	}
	if filter.InstructorID != "" {
		conditions = append(conditions, fmt.Sprintf("e.instructor_id = $%d", len(args)+1))
		args = append(args, filter.InstructorID)
	}
	if filter.Day != "" {
		conditions = append(conditions, fmt.Sprintf("e.day_of_week = $%d", len(args)+1))
		args = append(args, strings.ToUpper(filter.Day))
	}
	if filter.Room != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(e.room) = LOWER($%d)", len(args)+1))
		args = append(args, filter.Room)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"day":        "e.day_of_week",
		"start_time": "e.start_time",
		"room":       "e.room",
		"created_at": "e.created_at",
		"block":      "b.name",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "e.day_of_week"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, e.start_time ASC LIMIT %d OFFSET %d", entryColumns, base, column, order, size, offset)
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list schedule entries: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count schedule entries: %w", err)
	}

	return entries, total, nil
}

// FindByID loads a single schedule entry.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.ScheduleEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedule_entries e JOIN blocks b ON b.id = e.block_id WHERE e.id = $1`, entryColumns)
	var entry models.ScheduleEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Snapshot returns every schedule entry across all blocks, ordered by block
// name then creation time. Entry position within its block is stable, which
// keeps derived assignment ids reproducible.
func (r *ScheduleRepository) Snapshot(ctx context.Context) ([]models.ScheduleEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedule_entries e JOIN blocks b ON b.id = e.block_id ORDER BY b.name ASC, e.created_at ASC, e.id ASC`, entryColumns)
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("snapshot schedule entries: %w", err)
	}
	return entries, nil
}

// ListByBlock returns a block's timetable ordered by day/time.
func (r *ScheduleRepository) ListByBlock(ctx context.Context, blockID string) ([]models.ScheduleEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedule_entries e JOIN blocks b ON b.id = e.block_id WHERE e.block_id = $1 ORDER BY e.day_of_week ASC, e.start_time ASC`, entryColumns)
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, blockID); err != nil {
		return nil, fmt.Errorf("list schedule entries by block: %w", err)
	}
	return entries, nil
}

// ListByInstructor returns every entry taught by an instructor.
func (r *ScheduleRepository) ListByInstructor(ctx context.Context, instructorID int64) ([]models.ScheduleEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedule_entries e JOIN blocks b ON b.id = e.block_id WHERE e.instructor_id = $1 ORDER BY e.day_of_week ASC, e.start_time ASC`, entryColumns)
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, instructorID); err != nil {
		return nil, fmt.Errorf("list schedule entries by instructor: %w", err)
	}
	return entries, nil
}

// Create stores a new schedule entry.
func (r *ScheduleRepository) Create(ctx context.Context, entry *models.ScheduleEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	const query = `INSERT INTO schedule_entries (id, block_id, subject_code, description, day_of_week, start_time, end_time, instructor_id, instructor_name, room, created_at, updated_at) VALUES (:id, :block_id, :subject_code, :description, :day_of_week, :start_time, :end_time, :instructor_id, :instructor_name, :room, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create schedule entry: %w", err)
	}
	return nil
}

// Update rewrites an existing schedule entry.
func (r *ScheduleRepository) Update(ctx context.Context, entry *models.ScheduleEntry) error {
	entry.UpdatedAt = time.Now().UTC()

	const query = `UPDATE schedule_entries SET subject_code = :subject_code, description = :description, day_of_week = :day_of_week, start_time = :start_time, end_time = :end_time, instructor_id = :instructor_id, instructor_name = :instructor_name, room = :room, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, entry)
	if err != nil {
		return fmt.Errorf("update schedule entry: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update schedule entry %s: no rows affected", entry.ID)
	}
	return nil
}

// Delete removes a schedule entry.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM schedule_entries WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete schedule entry: %w", err)
	}
	return nil
}
