// Package events keeps a bounded log of recent executions and broadcasts
// them to live subscribers.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zacpr/api-explorer/internal/models"
)

// Service manages the recent-execution ring and its subscribers
type Service struct {
	mu          sync.RWMutex
	events      []*models.ExecutionEvent
	maxEvents   int
	subscribers map[string]chan *models.ExecutionEvent
}

// NewService creates a new event service
func NewService(maxEvents int) *Service {
	if maxEvents <= 0 {
		maxEvents = 500
	}

	return &Service{
		events:      make([]*models.ExecutionEvent, 0),
		maxEvents:   maxEvents,
		subscribers: make(map[string]chan *models.ExecutionEvent),
	}
}

// Record adds an event to the ring and notifies subscribers
func (s *Service) Record(event *models.ExecutionEvent) {
	s.mu.Lock()

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	s.events = append(s.events, event)
	if len(s.events) > s.maxEvents {
		s.events = s.events[len(s.events)-s.maxEvents:]
	}

	subscribers := make([]chan *models.ExecutionEvent, 0, len(s.subscribers))
	for _, ch := range s.subscribers {
		subscribers = append(subscribers, ch)
	}

	s.mu.Unlock()

	// Notify subscribers (non-blocking)
	for _, ch := range subscribers {
		select {
		case ch <- event:
		default:
			// Channel full, skip
		}
	}
}

// RecordResult derives an event from an execution result
func (s *Service) RecordResult(operationID, method, url string, result *models.ExecutionResult) {
	event := &models.ExecutionEvent{
		OperationID: operationID,
		Method:      method,
		URL:         url,
		Success:     result.Success,
		Error:       result.Error,
	}
	if result.Response != nil {
		event.StatusCode = result.Response.StatusCode
		event.DurationMs = result.Response.DurationMs
	}
	s.Record(event)
}

// Recent returns up to limit events, newest first
func (s *Service) Recent(limit int) []*models.ExecutionEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.ExecutionEvent, 0)
	for i := len(s.events) - 1; i >= 0; i-- {
		result = append(result, s.events[i])
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result
}

// Clear removes all recorded events
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = make([]*models.ExecutionEvent, 0)
}

// Subscribe creates a subscription for live events
func (s *Service) Subscribe() (string, chan *models.ExecutionEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	ch := make(chan *models.ExecutionEvent, 100)
	s.subscribers[id] = ch

	return id, ch
}

// Unsubscribe removes a subscription
func (s *Service) Unsubscribe(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch, ok := s.subscribers[id]; ok {
		close(ch)
		delete(s.subscribers, id)
	}
}
