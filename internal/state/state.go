// Package state holds the shared UI-facing application state: a plain
// struct behind accessors with subscriber notification on mutation.
package state

import "sync"

// Snapshot is one immutable view of the application state
type Snapshot struct {
	SchemaTitle        string `json:"schemaTitle,omitempty"`
	SelectedOperation  string `json:"selectedOperation,omitempty"`
	ActiveCredentialID string `json:"activeCredentialId,omitempty"`
}

// Store is the single shared mutable state holder. Mutations go through
// the setters so subscribers always observe a consistent snapshot.
type Store struct {
	mu          sync.Mutex
	current     Snapshot
	subscribers []func(Snapshot)
}

// NewStore creates an empty state store
func NewStore() *Store {
	return &Store{}
}

// Get returns the current snapshot
func (s *Store) Get() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Subscribe registers a callback invoked after every mutation
func (s *Store) Subscribe(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// SetSchemaTitle records the loaded schema and clears the selection,
// which belongs to the previous schema
func (s *Store) SetSchemaTitle(title string) {
	s.mutate(func(snap *Snapshot) {
		snap.SchemaTitle = title
		snap.SelectedOperation = ""
	})
}

// SetSelectedOperation records the operation the user is inspecting
func (s *Store) SetSelectedOperation(operationID string) {
	s.mutate(func(snap *Snapshot) {
		snap.SelectedOperation = operationID
	})
}

// SetActiveCredential records the credential applied to executions
func (s *Store) SetActiveCredential(id string) {
	s.mutate(func(snap *Snapshot) {
		snap.ActiveCredentialID = id
	})
}

func (s *Store) mutate(apply func(*Snapshot)) {
	s.mu.Lock()
	apply(&s.current)
	snap := s.current
	subscribers := make([]func(Snapshot), len(s.subscribers))
	copy(subscribers, s.subscribers)
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(snap)
	}
}
