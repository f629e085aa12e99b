package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/zacpr/api-explorer/internal/models"
)

// FileStorage implements Storage with file-based persistence: one JSON
// file per record, mirrored in memory for reads
type FileStorage struct {
	mu       sync.Mutex
	basePath string
	memory   *MemoryStorage
}

// NewFileStorage creates a new file-based storage rooted at basePath
func NewFileStorage(basePath string) (*FileStorage, error) {
	dirs := []string{
		basePath,
		filepath.Join(basePath, "credentials"),
		filepath.Join(basePath, "vault"),
		filepath.Join(basePath, "bookmarks"),
		filepath.Join(basePath, "usage"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fs := &FileStorage{
		basePath: basePath,
		memory:   NewMemoryStorage(),
	}

	if err := fs.loadAll(); err != nil {
		return nil, err
	}

	return fs, nil
}

// loadAll loads all data from disk
func (f *FileStorage) loadAll() error {
	if err := loadDir(filepath.Join(f.basePath, "credentials"), func(data []byte) {
		var meta models.CredentialMetadata
		if json.Unmarshal(data, &meta) == nil && meta.ID != "" {
			f.memory.metadata[meta.ID] = &meta
		}
	}); err != nil {
		return err
	}

	if err := loadDir(filepath.Join(f.basePath, "vault"), func(data []byte) {
		var rec models.EncryptedCredential
		if json.Unmarshal(data, &rec) == nil && rec.ID != "" {
			f.memory.credentials[rec.ID] = &rec
		}
	}); err != nil {
		return err
	}

	if err := loadDir(filepath.Join(f.basePath, "bookmarks"), func(data []byte) {
		var b models.Bookmark
		if json.Unmarshal(data, &b) == nil && b.ID != "" {
			f.memory.bookmarks[b.ID] = &b
		}
	}); err != nil {
		return err
	}

	return loadDir(filepath.Join(f.basePath, "usage"), func(data []byte) {
		var rec models.UsageRecord
		if json.Unmarshal(data, &rec) == nil && rec.ID != "" {
			f.memory.usage = append(f.memory.usage, &rec)
		}
	})
}

// loadDir reads every JSON file in dir, skipping unreadable entries
func loadDir(dir string, apply func(data []byte)) error {
	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		apply(data)
	}

	return nil
}

// saveRecord writes one record as an indented JSON file
func (f *FileStorage) saveRecord(subdir, id string, record interface{}) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}

	path := filepath.Join(f.basePath, subdir, id+".json")
	return os.WriteFile(path, data, 0644)
}

// deleteRecord removes one record file; a missing file is not an error
func (f *FileStorage) deleteRecord(subdir, id string) error {
	path := filepath.Join(f.basePath, subdir, id+".json")
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// PutCredentialMetadata creates or replaces a metadata record
func (f *FileStorage) PutCredentialMetadata(meta *models.CredentialMetadata) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.memory.PutCredentialMetadata(meta); err != nil {
		return err
	}
	return f.saveRecord("credentials", meta.ID, meta)
}

// GetCredentialMetadata retrieves a metadata record, nil when absent
func (f *FileStorage) GetCredentialMetadata(id string) (*models.CredentialMetadata, error) {
	return f.memory.GetCredentialMetadata(id)
}

// DeleteCredentialMetadata removes a metadata record; idempotent
func (f *FileStorage) DeleteCredentialMetadata(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.memory.DeleteCredentialMetadata(id); err != nil {
		return err
	}
	return f.deleteRecord("credentials", id)
}

// ListCredentialMetadata retrieves all metadata records
func (f *FileStorage) ListCredentialMetadata() ([]*models.CredentialMetadata, error) {
	return f.memory.ListCredentialMetadata()
}

// PutEncryptedCredential creates or replaces an encrypted record
func (f *FileStorage) PutEncryptedCredential(rec *models.EncryptedCredential) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.memory.PutEncryptedCredential(rec); err != nil {
		return err
	}
	return f.saveRecord("vault", rec.ID, rec)
}

// GetEncryptedCredential retrieves an encrypted record, nil when absent
func (f *FileStorage) GetEncryptedCredential(id string) (*models.EncryptedCredential, error) {
	return f.memory.GetEncryptedCredential(id)
}

// DeleteEncryptedCredential removes an encrypted record; idempotent
func (f *FileStorage) DeleteEncryptedCredential(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.memory.DeleteEncryptedCredential(id); err != nil {
		return err
	}
	return f.deleteRecord("vault", id)
}

// ListEncryptedCredentials retrieves all encrypted records
func (f *FileStorage) ListEncryptedCredentials() ([]*models.EncryptedCredential, error) {
	return f.memory.ListEncryptedCredentials()
}

// CreateBookmark creates a new bookmark
func (f *FileStorage) CreateBookmark(b *models.Bookmark) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.memory.CreateBookmark(b); err != nil {
		return err
	}
	return f.saveRecord("bookmarks", b.ID, b)
}

// GetBookmark retrieves a bookmark by ID, nil when absent
func (f *FileStorage) GetBookmark(id string) (*models.Bookmark, error) {
	return f.memory.GetBookmark(id)
}

// UpdateBookmark replaces an existing bookmark
func (f *FileStorage) UpdateBookmark(b *models.Bookmark) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.memory.UpdateBookmark(b); err != nil {
		return err
	}
	return f.saveRecord("bookmarks", b.ID, b)
}

// DeleteBookmark removes a bookmark; idempotent
func (f *FileStorage) DeleteBookmark(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.memory.DeleteBookmark(id); err != nil {
		return err
	}
	return f.deleteRecord("bookmarks", id)
}

// ListBookmarks retrieves all bookmarks ordered by last use
func (f *FileStorage) ListBookmarks() ([]*models.Bookmark, error) {
	return f.memory.ListBookmarks()
}

// RecordBookmarkUsage increments useCount and stamps lastUsedAt.
// A missing id is a no-op.
func (f *FileStorage) RecordBookmarkUsage(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.memory.RecordBookmarkUsage(id); err != nil {
		return err
	}

	b, err := f.memory.GetBookmark(id)
	if err != nil || b == nil {
		return err
	}
	return f.saveRecord("bookmarks", id, b)
}

// AppendUsage appends a usage record
func (f *FileStorage) AppendUsage(rec *models.UsageRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.memory.AppendUsage(rec); err != nil {
		return err
	}
	return f.saveRecord("usage", rec.ID, rec)
}

// QueryUsage returns one page of usage records, newest first
func (f *FileStorage) QueryUsage(q models.UsageQuery) (*models.UsageHistory, error) {
	return f.memory.QueryUsage(q)
}

// Close closes the storage
func (f *FileStorage) Close() error {
	return nil
}
