package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campus-suite/scheduling-api/internal/models"
	appErrors "github.com/campus-suite/scheduling-api/pkg/errors"
)

type scheduleRepository interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, int, error)
	ListByBlock(ctx context.Context, blockID string) ([]models.ScheduleEntry, error)
	ListByInstructor(ctx context.Context, instructorID int64) ([]models.ScheduleEntry, error)
	FindByID(ctx context.Context, id string) (*models.ScheduleEntry, error)
	Snapshot(ctx context.Context) ([]models.ScheduleEntry, error)
	Create(ctx context.Context, entry *models.ScheduleEntry) error
	Update(ctx context.Context, entry *models.ScheduleEntry) error
	Delete(ctx context.Context, id string) error
}

type blockReader interface {
	FindByID(ctx context.Context, id string) (*models.Block, error)
}

// assignmentRefresher re-derives teaching assignments after a committed
// mutation. Implementations must not block the mutation response.
type assignmentRefresher interface {
	RefreshAsync()
}

// CreateScheduleRequest describes payload for creating a schedule entry.
type CreateScheduleRequest struct {
	BlockID        string `json:"block_id" validate:"required"`
	SubjectCode    string `json:"subject_code" validate:"required"`
	Description    string `json:"description"`
	Day            string `json:"day_of_week" validate:"required"`
	StartTime      string `json:"start_time" validate:"required"`
	EndTime        string `json:"end_time" validate:"required"`
	InstructorID   *int64 `json:"instructor_id"`
	InstructorName string `json:"instructor_name"`
	Room           string `json:"room"`
}

// UpdateScheduleRequest updates an existing schedule entry.
type UpdateScheduleRequest struct {
	SubjectCode    string `json:"subject_code" validate:"required"`
	Description    string `json:"description"`
	Day            string `json:"day_of_week" validate:"required"`
	StartTime      string `json:"start_time" validate:"required"`
	EndTime        string `json:"end_time" validate:"required"`
	InstructorID   *int64 `json:"instructor_id"`
	InstructorName string `json:"instructor_name"`
	Room           string `json:"room"`
}

// ValidateScheduleRequest is a dry-run conflict check without a commit.
type ValidateScheduleRequest struct {
	CreateScheduleRequest
	ExcludeID string `json:"exclude_id"`
}

// ValidationResult reports the outcome of a dry-run check.
type ValidationResult struct {
	OK       bool                          `json:"ok"`
	Conflict *models.ScheduleConflictError `json:"conflict,omitempty"`
}

// ScheduleService coordinates schedule mutations. All mutations run the
// read-snapshot, detect, commit sequence under a single mutex: two concurrent
// writers can never both pass validation against the same stale snapshot.
type ScheduleService struct {
	repo      scheduleRepository
	blocks    blockReader
	detector  *ConflictDetector
	refresher assignmentRefresher
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService

	mu sync.Mutex
}

// NewScheduleService instantiates ScheduleService.
func NewScheduleService(repo scheduleRepository, blocks blockReader, detector *ConflictDetector, refresher assignmentRefresher, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if detector == nil {
		detector = NewConflictDetector()
	}
	return &ScheduleService{
		repo:      repo,
		blocks:    blocks,
		detector:  detector,
		refresher: refresher,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
	}
}

// List returns schedule entries with pagination metadata.
func (s *ScheduleService) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, *models.Pagination, error) {
	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule entries")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return entries, pagination, nil
}

// ListByBlock returns a block's timetable.
func (s *ScheduleService) ListByBlock(ctx context.Context, blockID string) ([]models.ScheduleEntry, error) {
	if _, err := s.blocks.FindByID(ctx, blockID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "block not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load block")
	}
	entries, err := s.repo.ListByBlock(ctx, blockID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list block schedule")
	}
	models.SortTimetable(entries)
	return entries, nil
}

// ListByInstructor returns every entry taught by an instructor.
func (s *ScheduleService) ListByInstructor(ctx context.Context, instructorID int64) ([]models.ScheduleEntry, error) {
	entries, err := s.repo.ListByInstructor(ctx, instructorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list instructor schedule")
	}
	return entries, nil
}

// Create inserts a new schedule entry after conflict detection.
func (s *ScheduleService) Create(ctx context.Context, req CreateScheduleRequest) (*models.ScheduleEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	entry, err := s.buildEntry(req)
	if err != nil {
		return nil, err
	}

	block, err := s.blocks.FindByID(ctx, req.BlockID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "block not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load block")
	}
	entry.BlockName = block.Name

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkConflicts(ctx, entry, ""); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, &entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule entry")
	}

	s.requestRefresh()
	return &entry, nil
}

// Update modifies an existing schedule entry. The pre-edit copy is excluded
// from conflict comparison so an entry never collides with itself.
func (s *ScheduleService) Update(ctx context.Context, id string, req UpdateScheduleRequest) (*models.ScheduleEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule entry")
	}

	updated, err := s.buildEntry(CreateScheduleRequest{
		BlockID:        existing.BlockID,
		SubjectCode:    req.SubjectCode,
		Description:    req.Description,
		Day:            req.Day,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		InstructorID:   req.InstructorID,
		InstructorName: req.InstructorName,
		Room:           req.Room,
	})
	if err != nil {
		return nil, err
	}
	updated.ID = existing.ID
	updated.BlockName = existing.BlockName
	updated.CreatedAt = existing.CreatedAt

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkConflicts(ctx, updated, existing.ID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule entry")
	}

	s.requestRefresh()
	return &updated, nil
}

// Delete removes a schedule entry.
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule entry not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule entry")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule entry")
	}

	s.requestRefresh()
	return nil
}

// Validate performs a dry-run conflict check without committing anything.
func (s *ScheduleService) Validate(ctx context.Context, req ValidateScheduleRequest) (*ValidationResult, error) {
	if err := s.validator.Struct(req.CreateScheduleRequest); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	candidate, err := s.buildEntry(req.CreateScheduleRequest)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.repo.Snapshot(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule snapshot")
	}

	conflict, err := s.detector.Detect(candidate, snapshot, req.ExcludeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule times")
	}
	if conflict != nil {
		s.observeConflict(conflict.Kind)
		return &ValidationResult{OK: false, Conflict: conflict}, nil
	}
	return &ValidationResult{OK: true}, nil
}

func (s *ScheduleService) buildEntry(req CreateScheduleRequest) (models.ScheduleEntry, error) {
	day, err := models.ParseDay(req.Day)
	if err != nil {
		return models.ScheduleEntry{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid day of week")
	}
	if _, err := models.NewTimeInterval(req.Day, req.StartTime, req.EndTime); err != nil {
		return models.ScheduleEntry{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid time range")
	}

	return models.ScheduleEntry{
		BlockID:        req.BlockID,
		SubjectCode:    req.SubjectCode,
		Description:    req.Description,
		Day:            string(day),
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		InstructorID:   req.InstructorID,
		InstructorName: req.InstructorName,
		Room:           req.Room,
	}, nil
}

// checkConflicts loads the latest snapshot and runs the detector. Callers
// must hold s.mu so the snapshot cannot go stale before the commit.
func (s *ScheduleService) checkConflicts(ctx context.Context, candidate models.ScheduleEntry, excludeID string) error {
	snapshot, err := s.repo.Snapshot(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule snapshot")
	}

	conflict, err := s.detector.Detect(candidate, snapshot, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule times")
	}
	if conflict != nil {
		s.observeConflict(conflict.Kind)
		return appErrors.Wrap(conflict, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, fmt.Sprintf("schedule conflict: %s", conflict.Message))
	}
	return nil
}

func (s *ScheduleService) requestRefresh() {
	if s.refresher != nil {
		s.refresher.RefreshAsync()
	}
}

func (s *ScheduleService) observeConflict(kind string) {
	if s.metrics != nil {
		s.metrics.ObserveConflict(kind)
	}
}
