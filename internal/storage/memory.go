package storage

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/zacpr/api-explorer/internal/models"
)

// MemoryStorage implements Storage with in-memory maps
type MemoryStorage struct {
	mu          sync.RWMutex
	metadata    map[string]*models.CredentialMetadata
	credentials map[string]*models.EncryptedCredential
	bookmarks   map[string]*models.Bookmark
	usage       []*models.UsageRecord
}

// NewMemoryStorage creates a new in-memory storage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		metadata:    make(map[string]*models.CredentialMetadata),
		credentials: make(map[string]*models.EncryptedCredential),
		bookmarks:   make(map[string]*models.Bookmark),
		usage:       make([]*models.UsageRecord, 0),
	}
}

// PutCredentialMetadata creates or replaces a metadata record
func (m *MemoryStorage) PutCredentialMetadata(meta *models.CredentialMetadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.metadata[meta.ID] = meta
	return nil
}

// GetCredentialMetadata retrieves a metadata record, nil when absent
func (m *MemoryStorage) GetCredentialMetadata(id string) (*models.CredentialMetadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.metadata[id], nil
}

// DeleteCredentialMetadata removes a metadata record; idempotent
func (m *MemoryStorage) DeleteCredentialMetadata(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.metadata, id)
	return nil
}

// ListCredentialMetadata retrieves all metadata records sorted by name
func (m *MemoryStorage) ListCredentialMetadata() ([]*models.CredentialMetadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]*models.CredentialMetadata, 0, len(m.metadata))
	for _, meta := range m.metadata {
		records = append(records, meta)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Name < records[j].Name
	})

	return records, nil
}

// PutEncryptedCredential creates or replaces an encrypted record
func (m *MemoryStorage) PutEncryptedCredential(rec *models.EncryptedCredential) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.credentials[rec.ID] = rec
	return nil
}

// GetEncryptedCredential retrieves an encrypted record, nil when absent
func (m *MemoryStorage) GetEncryptedCredential(id string) (*models.EncryptedCredential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.credentials[id], nil
}

// DeleteEncryptedCredential removes an encrypted record; idempotent
func (m *MemoryStorage) DeleteEncryptedCredential(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.credentials, id)
	return nil
}

// ListEncryptedCredentials retrieves all encrypted records sorted by name
func (m *MemoryStorage) ListEncryptedCredentials() ([]*models.EncryptedCredential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]*models.EncryptedCredential, 0, len(m.credentials))
	for _, rec := range m.credentials {
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Name < records[j].Name
	})

	return records, nil
}

// CreateBookmark creates a new bookmark
func (m *MemoryStorage) CreateBookmark(b *models.Bookmark) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.bookmarks[b.ID]; exists {
		return fmt.Errorf("bookmark with ID %s already exists", b.ID)
	}

	m.bookmarks[b.ID] = b
	return nil
}

// GetBookmark retrieves a bookmark by ID, nil when absent
func (m *MemoryStorage) GetBookmark(id string) (*models.Bookmark, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.bookmarks[id], nil
}

// UpdateBookmark replaces an existing bookmark
func (m *MemoryStorage) UpdateBookmark(b *models.Bookmark) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.bookmarks[b.ID]; !exists {
		return fmt.Errorf("bookmark not found: %s", b.ID)
	}

	m.bookmarks[b.ID] = b
	return nil
}

// DeleteBookmark removes a bookmark; idempotent
func (m *MemoryStorage) DeleteBookmark(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.bookmarks, id)
	return nil
}

// ListBookmarks retrieves all bookmarks ordered by last use, newest first.
// Bookmarks that were never used sort after all used ones.
func (m *MemoryStorage) ListBookmarks() ([]*models.Bookmark, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	bookmarks := make([]*models.Bookmark, 0, len(m.bookmarks))
	for _, b := range m.bookmarks {
		bookmarks = append(bookmarks, b)
	}

	sort.Slice(bookmarks, func(i, j int) bool {
		li, lj := bookmarks[i].LastUsedAt, bookmarks[j].LastUsedAt
		switch {
		case li != nil && lj != nil:
			return li.After(*lj)
		case li != nil:
			return true
		case lj != nil:
			return false
		default:
			return bookmarks[i].Name < bookmarks[j].Name
		}
	})

	return bookmarks, nil
}

// RecordBookmarkUsage increments useCount and stamps lastUsedAt as one
// atomic update. A missing id is a no-op.
func (m *MemoryStorage) RecordBookmarkUsage(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, exists := m.bookmarks[id]
	if !exists {
		return nil
	}

	now := time.Now()
	b.UseCount++
	b.LastUsedAt = &now
	b.UpdatedAt = now
	return nil
}

// AppendUsage appends a usage record; records are never mutated afterwards
func (m *MemoryStorage) AppendUsage(rec *models.UsageRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.usage = append(m.usage, rec)
	return nil
}

// QueryUsage returns one page of usage records, newest first. Total counts
// the filtered set before pagination. Limit <= 0 means no limit; an offset
// past the end yields an empty page, not an error.
func (m *MemoryStorage) QueryUsage(q models.UsageQuery) (*models.UsageHistory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	filtered := make([]*models.UsageRecord, 0, len(m.usage))
	for _, rec := range m.usage {
		if q.InstanceID != "" && rec.InstanceID != q.InstanceID {
			continue
		}
		if q.OperationID != "" && rec.OperationID != q.OperationID {
			continue
		}
		filtered = append(filtered, rec)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Timestamp.After(filtered[j].Timestamp)
	})

	total := len(filtered)

	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	page := filtered[offset:]
	if q.Limit > 0 && len(page) > q.Limit {
		page = page[:q.Limit]
	}

	return &models.UsageHistory{Records: page, Total: total}, nil
}

// Close closes the storage (no-op for memory storage)
func (m *MemoryStorage) Close() error {
	return nil
}
