package storage

import (
	"github.com/zacpr/api-explorer/internal/models"
)

// Storage defines the interface for data persistence. Lookups return
// (nil, nil) when a record is absent; absence is a valid state, not an
// error. Deletes are idempotent.
type Storage interface {
	// Credential metadata (the non-secret half; secrets live in the vault)
	PutCredentialMetadata(meta *models.CredentialMetadata) error
	GetCredentialMetadata(id string) (*models.CredentialMetadata, error)
	DeleteCredentialMetadata(id string) error
	ListCredentialMetadata() ([]*models.CredentialMetadata, error)

	// Encrypted credential records (the vault's persistence half)
	PutEncryptedCredential(rec *models.EncryptedCredential) error
	GetEncryptedCredential(id string) (*models.EncryptedCredential, error)
	DeleteEncryptedCredential(id string) error
	ListEncryptedCredentials() ([]*models.EncryptedCredential, error)

	// Bookmarks
	CreateBookmark(b *models.Bookmark) error
	GetBookmark(id string) (*models.Bookmark, error)
	UpdateBookmark(b *models.Bookmark) error
	DeleteBookmark(id string) error
	ListBookmarks() ([]*models.Bookmark, error)
	RecordBookmarkUsage(id string) error

	// Usage history (append-only)
	AppendUsage(rec *models.UsageRecord) error
	QueryUsage(q models.UsageQuery) (*models.UsageHistory, error)

	// Utility
	Close() error
}
