// Package history records operation usage and aggregates per-operation
// statistics over the persisted records.
package history

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/zacpr/api-explorer/internal/models"
	"github.com/zacpr/api-explorer/internal/storage"
)

// Service wraps usage persistence with id/timestamp assignment and
// aggregation queries
type Service struct {
	store storage.Storage
}

// NewService creates a history service over the given storage
func NewService(store storage.Storage) *Service {
	return &Service{store: store}
}

// RecordUsage appends one usage record with a generated id and the
// current timestamp. Records are append-only.
func (s *Service) RecordUsage(rec *models.UsageRecord) (*models.UsageRecord, error) {
	rec.ID = uuid.New().String()
	rec.Timestamp = time.Now()

	if err := s.store.AppendUsage(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// RecordExecution derives a usage record from an execution result
func (s *Service) RecordExecution(instanceID string, op *models.Operation, bookmarkID string, result *models.ExecutionResult) (*models.UsageRecord, error) {
	rec := &models.UsageRecord{
		BookmarkID:  bookmarkID,
		InstanceID:  instanceID,
		OperationID: op.OperationID,
		Method:      op.Method,
		Path:        op.Path,
		Success:     result.Success,
	}
	if result.Response != nil {
		rec.StatusCode = result.Response.StatusCode
		rec.ResponseTimeMs = result.Response.DurationMs
	}
	return s.RecordUsage(rec)
}

// GetUsageHistory returns one filtered, paginated page of records,
// newest first
func (s *Service) GetUsageHistory(q models.UsageQuery) (*models.UsageHistory, error) {
	return s.store.QueryUsage(q)
}

// GetOperationStats groups the successful records by operation, reporting
// count, integer-rounded average response time, and the most recent
// timestamp. Operations with no successful record are absent.
func (s *Service) GetOperationStats() ([]*models.OperationStats, error) {
	history, err := s.store.QueryUsage(models.UsageQuery{})
	if err != nil {
		return nil, err
	}

	type agg struct {
		count    int64
		totalMs  int64
		lastUsed time.Time
	}
	byOp := make(map[string]*agg)

	for _, rec := range history.Records {
		if !rec.Success {
			continue
		}
		a, ok := byOp[rec.OperationID]
		if !ok {
			a = &agg{}
			byOp[rec.OperationID] = a
		}
		a.count++
		a.totalMs += rec.ResponseTimeMs
		if rec.Timestamp.After(a.lastUsed) {
			a.lastUsed = rec.Timestamp
		}
	}

	stats := make([]*models.OperationStats, 0, len(byOp))
	for opID, a := range byOp {
		stats = append(stats, &models.OperationStats{
			OperationID:       opID,
			Count:             a.count,
			AvgResponseTimeMs: (a.totalMs + a.count/2) / a.count,
			LastUsedAt:        a.lastUsed,
		})
	}

	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Count > stats[j].Count
	})

	return stats, nil
}
