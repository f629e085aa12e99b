// Package schema holds the currently loaded API schema and coordinates
// schema loads so a superseded load can never overwrite a newer one.
package schema

import (
	"context"
	"errors"
	"sync"

	"github.com/zacpr/api-explorer/internal/models"
	"github.com/zacpr/api-explorer/internal/parser"
)

// ErrSuperseded is returned to a load that was replaced by a newer load
// before it finished. The newer result wins; the prior schema is untouched
// by the superseded call.
var ErrSuperseded = errors.New("schema load superseded by a newer load")

// Service owns the current ParsedSchema. A failed or superseded load
// leaves the previously loaded schema intact and selectable.
type Service struct {
	parser *parser.Parser

	mu         sync.Mutex
	current    *models.ParsedSchema
	generation uint64
	cancelPrev context.CancelFunc
}

// NewService creates a schema service
func NewService() *Service {
	return &Service{parser: parser.NewParser()}
}

// Load parses the given content and, on success, replaces the current
// schema wholesale. Starting a new load cancels any in-flight prior load;
// a load that finishes after being superseded reports ErrSuperseded and
// does not commit its result.
func (s *Service) Load(ctx context.Context, input models.SchemaInput) (*models.ParsedSchema, error) {
	s.mu.Lock()
	if s.cancelPrev != nil {
		s.cancelPrev()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancelPrev = cancel
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	parsed, err := s.parser.Parse(input.Content)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return nil, ErrSuperseded
	}
	if err := ctx.Err(); err != nil {
		return nil, ErrSuperseded
	}
	if err != nil {
		// Prior schema stays loaded
		return nil, err
	}

	if input.BaseURL != "" {
		parsed.BaseURL = input.BaseURL
	}

	s.current = parsed
	return parsed, nil
}

// Current returns the currently loaded schema, or nil when none is loaded
func (s *Service) Current() *models.ParsedSchema {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Operations returns the operations of the current schema, optionally
// narrowed by a search query, tag, and method
func (s *Service) Operations(query, tag, method string) []*models.Operation {
	s.mu.Lock()
	current := s.current
	s.mu.Unlock()

	if current == nil {
		return nil
	}

	ops := current.Operations
	ops = parser.SearchOperations(ops, query)
	if tag != "" {
		ops = parser.FilterByTag(ops, tag)
	}
	if method != "" {
		ops = parser.FilterByMethod(ops, method)
	}
	return ops
}

// FindOperation looks up one operation of the current schema by its ID.
// A nil result means not found; that is not an error.
func (s *Service) FindOperation(operationID string) *models.Operation {
	s.mu.Lock()
	current := s.current
	s.mu.Unlock()

	if current == nil {
		return nil
	}
	for _, op := range current.Operations {
		if op.OperationID == operationID {
			return op
		}
	}
	return nil
}
