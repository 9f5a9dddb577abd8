package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campus-suite/scheduling-api/internal/models"
	"github.com/campus-suite/scheduling-api/pkg/config"
)

type snapshotStub struct {
	entries []models.ScheduleEntry
	err     error
}

func (s *snapshotStub) Snapshot(ctx context.Context) ([]models.ScheduleEntry, error) {
	return s.entries, s.err
}

type instructorsStub struct {
	items []models.Instructor
}

func (s *instructorsStub) ListAll(ctx context.Context) ([]models.Instructor, error) {
	return s.items, nil
}

type historyStub struct {
	mu      sync.Mutex
	records []models.TeachingAssignment
	saveErr error
	saves   [][]models.TeachingAssignment
}

func (s *historyStub) Load(ctx context.Context) ([]models.TeachingAssignment, error) {
	return s.records, nil
}

func (s *historyStub) Save(ctx context.Context, records []models.TeachingAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	cp := make([]models.TeachingAssignment, len(records))
	copy(cp, records)
	s.saves = append(s.saves, cp)
	return nil
}

func (s *historyStub) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saves)
}

func (s *historyStub) lastSave() []models.TeachingAssignment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.saves) == 0 {
		return nil
	}
	return s.saves[len(s.saves)-1]
}

func turingDirectory() []models.Instructor {
	return []models.Instructor{
		{ID: 7, Name: "Dr. Alan Turing", Email: "turing@campus.edu", Subjects: []string{"IT 101", "IT 201"}},
		{ID: 8, Name: "Prof. Grace Hopper", Email: "hopper@campus.edu", Subjects: []string{"IT 102"}},
	}
}

func sampleSnapshot() []models.ScheduleEntry {
	return []models.ScheduleEntry{
		{ID: "e1", BlockID: "block-a", BlockName: "ACT 1-A", SubjectCode: "IT 101", Description: "Intro to Computing", Day: "MONDAY", StartTime: "09:00", EndTime: "10:30", InstructorID: int64p(7)},
		{ID: "e2", BlockID: "block-a", BlockName: "ACT 1-A", SubjectCode: "IT 102", Day: "TUESDAY", StartTime: "09:00", EndTime: "10:30", InstructorName: "prof. grace hopper"},
		{ID: "e3", BlockID: "block-b", BlockName: "ACT 1-B", SubjectCode: "IT 101", Day: "WEDNESDAY", StartTime: "13:00", EndTime: "14:30", InstructorName: "Unknown Person"},
	}
}

func TestDeriveAssignmentsDeterministic(t *testing.T) {
	blocks := []models.BlockSchedules{
		{Block: "ACT 1-A", Entries: sampleSnapshot()[:2]},
		{Block: "ACT 1-B", Entries: sampleSnapshot()[2:]},
	}

	first := DeriveAssignments(blocks, "2025-2026", "1st Semester", turingDirectory())
	second := DeriveAssignments(blocks, "2025-2026", "1st Semester", turingDirectory())

	require.Equal(t, first, second)
	require.Len(t, first, 3)
	assert.Equal(t, "2025-2026|1st Semester|ACT 1-A|IT 101|0", first[0].ID)
	assert.Equal(t, "2025-2026|1st Semester|ACT 1-A|IT 102|1", first[1].ID)
	assert.Equal(t, "2025-2026|1st Semester|ACT 1-B|IT 101|0", first[2].ID)
}

func TestDeriveAssignmentsInstructorResolution(t *testing.T) {
	blocks := []models.BlockSchedules{
		{Block: "ACT 1-A", Entries: sampleSnapshot()[:2]},
		{Block: "ACT 1-B", Entries: sampleSnapshot()[2:]},
	}

	records := DeriveAssignments(blocks, "2025-2026", "1st Semester", turingDirectory())
	require.Len(t, records, 3)

	// Resolved by id.
	require.NotNil(t, records[0].InstructorID)
	assert.Equal(t, int64(7), *records[0].InstructorID)
	assert.Equal(t, "Dr. Alan Turing", records[0].InstructorName)
	assert.Equal(t, "turing@campus.edu", records[0].InstructorEmail)

	// Resolved by case-insensitive name.
	require.NotNil(t, records[1].InstructorID)
	assert.Equal(t, int64(8), *records[1].InstructorID)
	assert.Equal(t, "Prof. Grace Hopper", records[1].InstructorName)

	// Unknown name falls back to TBA.
	assert.Nil(t, records[2].InstructorID)
	assert.Equal(t, models.TBA, records[2].InstructorName)
	assert.Empty(t, records[2].InstructorEmail)
}

func TestDeriveAssignmentsDefaultsBlankTerm(t *testing.T) {
	blocks := []models.BlockSchedules{
		{Block: "ACT 1-A", Entries: sampleSnapshot()[:1]},
	}

	records := DeriveAssignments(blocks, "", "  ", nil)
	require.Len(t, records, 1)
	assert.Equal(t, models.DefaultAcademicYear, records[0].AcademicYear)
	assert.Equal(t, models.DefaultSemester, records[0].Semester)
	assert.Equal(t, models.DefaultAcademicYear+"|"+models.DefaultSemester+"|ACT 1-A|IT 101|0", records[0].ID)
}

func TestReconcileAssignmentsCurrentGenerationWins(t *testing.T) {
	history := []models.TeachingAssignment{
		{ID: "2025|1st|ACT 1-A|IT 101|0", AcademicYear: "2025", Semester: "1st", Block: "ACT 1-A", SubjectCode: "IT 101", InstructorName: "Old Name"},
		{ID: "2024|1st|ACT 1-A|IT 100|0", AcademicYear: "2024", Semester: "1st", Block: "ACT 1-A", SubjectCode: "IT 100", InstructorName: "Retired"},
	}
	incoming := []models.TeachingAssignment{
		{ID: "2025|1st|ACT 1-A|IT 101|0", AcademicYear: "2025", Semester: "1st", Block: "ACT 1-A", SubjectCode: "IT 101", InstructorName: "New Name"},
	}

	result := ReconcileAssignments(nil, incoming, history, "")
	require.Len(t, result.Merged, 2)
	assert.True(t, result.Changed)

	byID := make(map[string]models.TeachingAssignment)
	for _, rec := range result.Merged {
		byID[rec.ID] = rec
	}
	assert.Equal(t, "New Name", byID["2025|1st|ACT 1-A|IT 101|0"].InstructorName)
	assert.Equal(t, "Retired", byID["2024|1st|ACT 1-A|IT 100|0"].InstructorName)
}

func TestReconcileAssignmentsIdempotent(t *testing.T) {
	generation := []models.TeachingAssignment{
		{ID: "2025|1st|ACT 1-A|IT 101|0", AcademicYear: "2025", Semester: "1st", Block: "ACT 1-A", SubjectCode: "IT 101"},
		{ID: "2025|1st|ACT 1-B|IT 201|0", AcademicYear: "2025", Semester: "1st", Block: "ACT 1-B", SubjectCode: "IT 201"},
	}

	first := ReconcileAssignments(generation, nil, nil, "")
	assert.True(t, first.Changed)

	second := ReconcileAssignments(first.Merged, nil, first.Merged, first.Signature)
	assert.False(t, second.Changed)
	assert.Equal(t, first.Merged, second.Merged)
	assert.Equal(t, first.Signature, second.Signature)
}

func newTestAssignmentService(snapshot *snapshotStub, store *historyStub) *AssignmentService {
	return NewAssignmentService(
		snapshot,
		&instructorsStub{items: turingDirectory()},
		store,
		config.TermConfig{AcademicYear: "2025-2026", Semester: "1st Semester"},
		config.AssignmentsConfig{Workers: 1, MaxRetries: 1},
		zap.NewNop(),
		nil,
	)
}

func TestAssignmentServiceRefreshPersistsOnce(t *testing.T) {
	store := &historyStub{}
	svc := newTestAssignmentService(&snapshotStub{entries: sampleSnapshot()}, store)

	require.NoError(t, svc.Refresh(context.Background()))
	assert.Equal(t, 1, store.saveCount())

	// Same snapshot derives the same signature, so nothing is rewritten.
	require.NoError(t, svc.Refresh(context.Background()))
	assert.Equal(t, 1, store.saveCount())

	records, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestAssignmentServiceRetainsStateOnSaveFailure(t *testing.T) {
	store := &historyStub{saveErr: errors.New("redis down")}
	svc := newTestAssignmentService(&snapshotStub{entries: sampleSnapshot()}, store)

	err := svc.Refresh(context.Background())
	assert.Error(t, err)

	// In-memory state stays authoritative despite the failed write.
	records, listErr := svc.List(context.Background())
	require.NoError(t, listErr)
	assert.Len(t, records, 3)

	// Once the store recovers, the next refresh retries the write.
	store.saveErr = nil
	require.NoError(t, svc.Refresh(context.Background()))
	assert.Equal(t, 1, store.saveCount())
}

func TestAssignmentServiceRebuildOverridesTerm(t *testing.T) {
	store := &historyStub{}
	svc := newTestAssignmentService(&snapshotStub{entries: sampleSnapshot()[:1]}, store)

	records, err := svc.Rebuild(context.Background(), "2026-2027", "Summer")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "2026-2027|Summer|ACT 1-A|IT 101|0", records[0].ID)
}

func TestAssignmentServiceConcurrentRefreshKeepsSignatureCurrent(t *testing.T) {
	store := &historyStub{}
	svc := newTestAssignmentService(&snapshotStub{entries: sampleSnapshot()}, store)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_ = svc.Refresh(context.Background())
			} else {
				_, _ = svc.Rebuild(context.Background(), "2026-2027", "Summer")
			}
		}(i)
	}
	wg.Wait()

	// Whichever refresh ran last both wrote the final payload and recorded
	// its signature, so the persisted state and the in-memory fingerprint
	// can never disagree once the dust settles.
	last := store.lastSave()
	require.NotNil(t, last)

	svc.mu.Lock()
	saved := svc.savedSignature
	cumulative := make([]models.TeachingAssignment, len(svc.cumulative))
	copy(cumulative, svc.cumulative)
	svc.mu.Unlock()

	assert.Equal(t, models.AssignmentSignature(last), saved)
	assert.Equal(t, last, cumulative)
}

func TestAssignmentServiceStartLoadsHistory(t *testing.T) {
	store := &historyStub{records: []models.TeachingAssignment{
		{ID: "2024-2025|2nd Semester|ACT 1-A|IT 100|0", AcademicYear: "2024-2025", Semester: "2nd Semester", Block: "ACT 1-A", SubjectCode: "IT 100", InstructorName: "Dr. Ada Lovelace"},
	}}
	svc := newTestAssignmentService(&snapshotStub{entries: sampleSnapshot()}, store)

	require.NoError(t, svc.Start(context.Background()))
	defer svc.Stop()

	records, err := svc.List(context.Background())
	require.NoError(t, err)
	// History survives the refresh alongside the freshly derived generation.
	assert.Len(t, records, 4)

	ids := make(map[string]bool)
	for _, rec := range records {
		ids[rec.ID] = true
	}
	assert.True(t, ids["2024-2025|2nd Semester|ACT 1-A|IT 100|0"])
	assert.True(t, ids["2025-2026|1st Semester|ACT 1-A|IT 101|0"])
}
