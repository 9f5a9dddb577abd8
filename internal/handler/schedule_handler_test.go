package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-suite/scheduling-api/internal/models"
	"github.com/campus-suite/scheduling-api/internal/service"
	"github.com/campus-suite/scheduling-api/pkg/response"
)

type scheduleRepoStub struct {
	entries []models.ScheduleEntry
	created []*models.ScheduleEntry
}

func (s *scheduleRepoStub) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, int, error) {
	return s.entries, len(s.entries), nil
}

func (s *scheduleRepoStub) ListByBlock(ctx context.Context, blockID string) ([]models.ScheduleEntry, error) {
	return s.entries, nil
}

func (s *scheduleRepoStub) ListByInstructor(ctx context.Context, instructorID int64) ([]models.ScheduleEntry, error) {
	return s.entries, nil
}

func (s *scheduleRepoStub) FindByID(ctx context.Context, id string) (*models.ScheduleEntry, error) {
	for i := range s.entries {
		if s.entries[i].ID == id {
			cp := s.entries[i]
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *scheduleRepoStub) Snapshot(ctx context.Context) ([]models.ScheduleEntry, error) {
	return s.entries, nil
}

func (s *scheduleRepoStub) Create(ctx context.Context, entry *models.ScheduleEntry) error {
	entry.ID = "new-entry"
	s.created = append(s.created, entry)
	return nil
}

func (s *scheduleRepoStub) Update(ctx context.Context, entry *models.ScheduleEntry) error { return nil }
func (s *scheduleRepoStub) Delete(ctx context.Context, id string) error                   { return nil }

type blockReaderStub struct{}

func (blockReaderStub) FindByID(ctx context.Context, id string) (*models.Block, error) {
	return &models.Block{ID: id, Name: "ACT 1-B"}, nil
}

type refresherStub struct {
	calls int
}

func (r *refresherStub) RefreshAsync() { r.calls++ }

func occupiedSnapshot() []models.ScheduleEntry {
	return []models.ScheduleEntry{{
		ID:             "entry-1",
		BlockID:        "block-a",
		BlockName:      "ACT 1-A",
		SubjectCode:    "IT 101",
		Day:            "MONDAY",
		StartTime:      "09:00",
		EndTime:        "10:30",
		InstructorName: "Dr. Alan Turing",
	}}
}

func newScheduleHandlerTest(repo *scheduleRepoStub, refresher *refresherStub) *ScheduleHandler {
	svc := service.NewScheduleService(repo, blockReaderStub{}, service.NewConflictDetector(), refresher, nil, nil, nil)
	return NewScheduleHandler(svc)
}

func performJSON(t *testing.T, handler gin.HandlerFunc, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(method, path, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler(c)
	return w
}

func TestScheduleHandlerCreateConflict(t *testing.T) {
	repo := &scheduleRepoStub{entries: occupiedSnapshot()}
	refresher := &refresherStub{}
	handler := newScheduleHandlerTest(repo, refresher)

	payload := service.CreateScheduleRequest{
		BlockID:        "block-b",
		SubjectCode:    "IT 201",
		Day:            "MONDAY",
		StartTime:      "09:30",
		EndTime:        "11:00",
		InstructorName: "Dr. Alan Turing",
	}

	w := performJSON(t, handler.Create, http.MethodPost, "/schedules", payload)
	assert.Equal(t, http.StatusConflict, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "CONFLICT", envelope.Error.Code)
	assert.Empty(t, repo.created)
	assert.Zero(t, refresher.calls)
}

func TestScheduleHandlerCreateTBAPasses(t *testing.T) {
	repo := &scheduleRepoStub{entries: occupiedSnapshot()}
	refresher := &refresherStub{}
	handler := newScheduleHandlerTest(repo, refresher)

	payload := service.CreateScheduleRequest{
		BlockID:        "block-b",
		SubjectCode:    "IT 201",
		Day:            "MONDAY",
		StartTime:      "09:30",
		EndTime:        "11:00",
		InstructorName: "TBA",
	}

	w := performJSON(t, handler.Create, http.MethodPost, "/schedules", payload)
	assert.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, repo.created, 1)
	assert.Equal(t, 1, refresher.calls)
}

func TestScheduleHandlerCreateInvalidPayload(t *testing.T) {
	repo := &scheduleRepoStub{}
	handler := newScheduleHandlerTest(repo, &refresherStub{})

	payload := service.CreateScheduleRequest{
		BlockID:     "block-b",
		SubjectCode: "IT 201",
		Day:         "MONDAY",
		StartTime:   "25:00",
		EndTime:     "11:00",
	}

	w := performJSON(t, handler.Create, http.MethodPost, "/schedules", payload)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleHandlerValidateDryRun(t *testing.T) {
	repo := &scheduleRepoStub{entries: occupiedSnapshot()}
	refresher := &refresherStub{}
	handler := newScheduleHandlerTest(repo, refresher)

	payload := service.ValidateScheduleRequest{
		CreateScheduleRequest: service.CreateScheduleRequest{
			BlockID:        "block-a",
			SubjectCode:    "IT 102",
			Day:            "MONDAY",
			StartTime:      "10:00",
			EndTime:        "11:00",
			InstructorName: "TBA",
		},
	}

	w := performJSON(t, handler.Validate, http.MethodPost, "/schedules/validate", payload)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data service.ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.False(t, envelope.Data.OK)
	require.NotNil(t, envelope.Data.Conflict)
	assert.Equal(t, models.ConflictBlock, envelope.Data.Conflict.Kind)
	// A dry run never commits or triggers a refresh.
	assert.Empty(t, repo.created)
	assert.Zero(t, refresher.calls)
}
