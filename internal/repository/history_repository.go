package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/campus-suite/scheduling-api/internal/models"
)

// HistoryKey is the durable slot holding the cumulative assignment history.
const HistoryKey = "teaching_assignments_history_v1"

// HistoryRepository persists the cumulative teaching-assignment history in a
// Redis key-value slot. Loads are defensive: a corrupt payload degrades to an
// empty history instead of blocking the rest of the system.
type HistoryRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewHistoryRepository constructs a HistoryRepository.
func NewHistoryRepository(client *redis.Client, logger *zap.Logger) *HistoryRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryRepository{client: client, logger: logger}
}

// Load reads and sanitizes the stored history. Missing or malformed payloads
// yield an empty slice, never an error.
func (r *HistoryRepository) Load(ctx context.Context) ([]models.TeachingAssignment, error) {
	if r.client == nil {
		return nil, nil
	}

	raw, err := r.client.Get(ctx, HistoryKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get %s: %w", HistoryKey, err)
	}

	records, dropped := DecodeHistory(raw)
	if dropped > 0 {
		r.logger.Warn("dropped invalid assignment history records",
			zap.Int("dropped", dropped), zap.Int("kept", len(records)))
	}
	return records, nil
}

// Save overwrites the history slot with the provided record set.
func (r *HistoryRepository) Save(ctx context.Context, records []models.TeachingAssignment) error {
	if r.client == nil {
		return nil
	}

	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal assignment history: %w", err)
	}
	if err := r.client.Set(ctx, HistoryKey, payload, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", HistoryKey, err)
	}
	return nil
}

// DecodeHistory parses a stored history payload, sanitizing each record and
// counting the ones it had to drop. A payload that is not a JSON array yields
// an empty result.
func DecodeHistory(raw []byte) ([]models.TeachingAssignment, int) {
	var parsed []models.TeachingAssignment
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, 0
	}

	records := make([]models.TeachingAssignment, 0, len(parsed))
	dropped := 0
	for _, rec := range parsed {
		sanitized, ok := SanitizeAssignment(rec)
		if !ok {
			dropped++
			continue
		}
		records = append(records, sanitized)
	}
	return records, dropped
}

// SanitizeAssignment repairs a persisted record. Records without a subject
// code are unusable and reported as dropped; every other field falls back to
// a sentinel. A blank id is recomputed from the available fields with the
// instructor email or name as the uniqueness tie-breaker.
func SanitizeAssignment(rec models.TeachingAssignment) (models.TeachingAssignment, bool) {
	rec.SubjectCode = strings.TrimSpace(rec.SubjectCode)
	if rec.SubjectCode == "" {
		return models.TeachingAssignment{}, false
	}

	rec.AcademicYear = models.OrDefault(rec.AcademicYear, models.DefaultAcademicYear)
	rec.Semester = models.OrDefault(rec.Semester, models.DefaultSemester)
	rec.Block = models.OrDefault(rec.Block, models.DefaultBlock)
	rec.InstructorName = models.OrDefault(rec.InstructorName, models.TBA)

	if strings.TrimSpace(rec.ID) == "" {
		tieBreaker := rec.InstructorEmail
		if strings.TrimSpace(tieBreaker) == "" {
			tieBreaker = rec.InstructorName
		}
		rec.ID = strings.Join([]string{rec.AcademicYear, rec.Semester, rec.Block, rec.SubjectCode, tieBreaker}, "|")
	}
	return rec, true
}
