package service

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/campus-suite/scheduling-api/internal/models"
	"github.com/campus-suite/scheduling-api/pkg/config"
	appErrors "github.com/campus-suite/scheduling-api/pkg/errors"
	"github.com/campus-suite/scheduling-api/pkg/jobs"
)

type scheduleSnapshotReader interface {
	Snapshot(ctx context.Context) ([]models.ScheduleEntry, error)
}

type instructorDirectory interface {
	ListAll(ctx context.Context) ([]models.Instructor, error)
}

type assignmentHistoryStore interface {
	Load(ctx context.Context) ([]models.TeachingAssignment, error)
	Save(ctx context.Context, records []models.TeachingAssignment) error
}

const jobTypeRefresh = "assignments.refresh"

// DeriveAssignments flattens a per-block schedule snapshot into teaching
// assignment records for one term. It is deterministic: the same snapshot in
// the same block order always yields the same composite ids.
func DeriveAssignments(blocks []models.BlockSchedules, academicYear, semester string, instructors []models.Instructor) []models.TeachingAssignment {
	academicYear = models.OrDefault(academicYear, models.DefaultAcademicYear)
	semester = models.OrDefault(semester, models.DefaultSemester)

	byID := make(map[int64]models.Instructor, len(instructors))
	byName := make(map[string]models.Instructor, len(instructors))
	for _, inst := range instructors {
		byID[inst.ID] = inst
		byName[strings.ToLower(strings.TrimSpace(inst.Name))] = inst
	}

	var out []models.TeachingAssignment
	for _, block := range blocks {
		blockName := models.OrDefault(block.Block, models.DefaultBlock)
		for i, entry := range block.Entries {
			rec := models.TeachingAssignment{
				ID:                 models.AssignmentID(academicYear, semester, blockName, entry.SubjectCode, i),
				AcademicYear:       academicYear,
				Semester:           semester,
				Block:              blockName,
				SubjectCode:        entry.SubjectCode,
				SubjectDescription: entry.Description,
				InstructorName:     models.TBA,
			}

			if inst, ok := resolveInstructor(entry, byID, byName); ok {
				id := inst.ID
				rec.InstructorID = &id
				rec.InstructorName = inst.Name
				rec.InstructorEmail = inst.Email
			}

			out = append(out, rec)
		}
	}
	return out
}

func resolveInstructor(entry models.ScheduleEntry, byID map[int64]models.Instructor, byName map[string]models.Instructor) (models.Instructor, bool) {
	if entry.InstructorID != nil {
		if inst, ok := byID[*entry.InstructorID]; ok {
			return inst, true
		}
	}
	name := strings.ToLower(strings.TrimSpace(entry.InstructorName))
	if name == "" || strings.EqualFold(name, models.TBA) {
		return models.Instructor{}, false
	}
	inst, ok := byName[name]
	return inst, ok
}

// ReconcileResult is the outcome of merging assignment generations.
type ReconcileResult struct {
	Merged    []models.TeachingAssignment
	Signature string
	Changed   bool
}

// ReconcileAssignments merges the previous and incoming generations, then
// folds the result over the cumulative history. Ids are derived from content,
// so the current generation always overwrites a same-id history record. The
// merged set is sorted and fingerprinted; Changed reports whether the
// signature moved away from lastSignature.
func ReconcileAssignments(previous, incoming, history []models.TeachingAssignment, lastSignature string) ReconcileResult {
	current := models.MergeAssignments(previous, incoming)
	merged := models.MergeAssignments(history, current)
	models.SortAssignments(merged)

	signature := models.AssignmentSignature(merged)
	return ReconcileResult{
		Merged:    merged,
		Signature: signature,
		Changed:   signature != lastSignature,
	}
}

// AssignmentService keeps the cumulative "who teaches what, when" record in
// sync with the schedule snapshot. Refreshes run on a background queue so a
// schedule mutation never waits on history persistence; a failed save is
// retried and, failing that, picked up by the next reconciliation.
type AssignmentService struct {
	schedules   scheduleSnapshotReader
	instructors instructorDirectory
	store       assignmentHistoryStore
	queue       *jobs.Queue
	logger      *zap.Logger
	metrics     *MetricsService
	term        config.TermConfig

	mu             sync.Mutex
	previous       []models.TeachingAssignment
	cumulative     []models.TeachingAssignment
	savedSignature string
}

// NewAssignmentService constructs the service and its backing queue.
func NewAssignmentService(schedules scheduleSnapshotReader, instructors instructorDirectory, store assignmentHistoryStore, term config.TermConfig, cfg config.AssignmentsConfig, logger *zap.Logger, metrics *MetricsService) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AssignmentService{
		schedules:   schedules,
		instructors: instructors,
		store:       store,
		logger:      logger,
		metrics:     metrics,
		term:        term,
	}
	s.queue = jobs.NewQueue("assignments", s.handleJob, jobs.QueueConfig{
		Workers:    1,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start loads the persisted history and primes the in-memory state, then
// begins queue consumption. A corrupt or missing history never blocks startup.
func (s *AssignmentService) Start(ctx context.Context) error {
	records, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Warn("failed to load assignment history, starting empty", zap.Error(err))
		records = nil
	}
	models.SortAssignments(records)

	s.mu.Lock()
	s.cumulative = records
	s.savedSignature = models.AssignmentSignature(records)
	s.mu.Unlock()

	s.queue.Start(ctx)

	if err := s.Refresh(ctx); err != nil {
		s.logger.Warn("initial assignment refresh failed", zap.Error(err))
	}
	return nil
}

// Stop drains the background queue.
func (s *AssignmentService) Stop() {
	s.queue.Stop()
}

// RefreshAsync schedules a refresh on the background queue.
func (s *AssignmentService) RefreshAsync() {
	if err := s.queue.Enqueue(jobs.Job{Type: jobTypeRefresh}); err != nil {
		s.logger.Warn("failed to enqueue assignment refresh", zap.Error(err))
	}
}

// List returns the current reconciled assignment set.
func (s *AssignmentService) List(ctx context.Context) ([]models.TeachingAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.TeachingAssignment, len(s.cumulative))
	copy(out, s.cumulative)
	return out, nil
}

// Rebuild forces a synchronous re-derivation, optionally for an explicit term.
func (s *AssignmentService) Rebuild(ctx context.Context, academicYear, semester string) ([]models.TeachingAssignment, error) {
	term := s.term
	if strings.TrimSpace(academicYear) != "" {
		term.AcademicYear = academicYear
	}
	if strings.TrimSpace(semester) != "" {
		term.Semester = semester
	}
	if err := s.refresh(ctx, term); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to rebuild assignments")
	}
	return s.List(ctx)
}

// Refresh re-derives assignments from the latest snapshot and persists the
// merged history when its signature changed.
func (s *AssignmentService) Refresh(ctx context.Context) error {
	return s.refresh(ctx, s.term)
}

func (s *AssignmentService) refresh(ctx context.Context, term config.TermConfig) error {
	snapshot, err := s.schedules.Snapshot(ctx)
	if err != nil {
		return err
	}
	instructors, err := s.instructors.ListAll(ctx)
	if err != nil {
		return err
	}

	incoming := DeriveAssignments(groupByBlock(snapshot), term.AcademicYear, term.Semester, instructors)

	// Reconcile, save and record the signature under one lock: a rebuild
	// racing a queued refresh must not persist an older merged set after
	// a newer save, nor record the older set's signature as current.
	s.mu.Lock()
	defer s.mu.Unlock()

	result := ReconcileAssignments(s.previous, incoming, s.cumulative, s.savedSignature)
	s.previous = incoming
	s.cumulative = result.Merged

	if s.metrics != nil {
		s.metrics.ObserveReconciliation(result.Changed, len(result.Merged))
	}
	if !result.Changed {
		return nil
	}

	if err := s.store.Save(ctx, result.Merged); err != nil {
		// In-memory state stays authoritative for the session; the stale
		// savedSignature makes the next reconciliation retry the write.
		s.logger.Warn("failed to persist assignment history", zap.Error(err))
		if s.metrics != nil {
			s.metrics.ObserveHistorySaveFailure()
		}
		return err
	}

	s.savedSignature = result.Signature

	s.logger.Info("assignment history persisted",
		zap.Int("records", len(result.Merged)),
		zap.String("academic_year", models.OrDefault(term.AcademicYear, models.DefaultAcademicYear)),
		zap.String("semester", models.OrDefault(term.Semester, models.DefaultSemester)))
	return nil
}

func (s *AssignmentService) handleJob(ctx context.Context, job jobs.Job) error {
	switch job.Type {
	case jobTypeRefresh:
		return s.Refresh(ctx)
	default:
		s.logger.Warn("unknown assignment job", zap.String("type", job.Type))
		return nil
	}
}

// groupByBlock folds a snapshot (already ordered by block name, then entry
// creation) into per-block lists, preserving entry positions.
func groupByBlock(snapshot []models.ScheduleEntry) []models.BlockSchedules {
	var blocks []models.BlockSchedules
	index := make(map[string]int)
	for _, entry := range snapshot {
		name := entry.BlockName
		if name == "" {
			name = entry.BlockID
		}
		i, ok := index[name]
		if !ok {
			i = len(blocks)
			index[name] = i
			blocks = append(blocks, models.BlockSchedules{Block: name})
		}
		blocks[i].Entries = append(blocks[i].Entries, entry)
	}
	return blocks
}
