// Package vault stores credentials encrypted at rest under a key derived
// from a user-supplied master password. The password itself is never
// stored; plaintext secrets live only in the session cache.
package vault

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zacpr/api-explorer/internal/models"
)

// Store is the persistence interface the vault needs. Get returns
// (nil, nil) when no record exists; absence is a valid state, not an
// error. Delete is idempotent.
type Store interface {
	GetEncryptedCredential(id string) (*models.EncryptedCredential, error)
	PutEncryptedCredential(rec *models.EncryptedCredential) error
	DeleteEncryptedCredential(id string) error
	ListEncryptedCredentials() ([]*models.EncryptedCredential, error)
}

// Vault encrypts, persists, and serves credentials. Successful decrypts
// are cached in memory for the session; the cache is dropped on restart
// or explicit delete, never by TTL.
type Vault struct {
	store Store

	mu    sync.Mutex
	cache map[string]*models.DecryptedCredential
}

// New creates a vault over the given store
func New(store Store) *Vault {
	return &Vault{
		store: store,
		cache: make(map[string]*models.DecryptedCredential),
	}
}

// StoreInput is the plaintext form of a credential to store
type StoreInput struct {
	SchemaTitle string          `json:"schemaTitle"`
	Name        string          `json:"name"`
	BaseURL     string          `json:"baseUrl"`
	AuthType    models.AuthType `json:"authType"`
	APIKey      string          `json:"apiKey,omitempty"`
	Username    string          `json:"username,omitempty"`
	Password    string          `json:"password,omitempty"`
}

// StoreCredential encrypts the sensitive fields, persists the record under
// a fresh id, and primes the session cache so the immediately following
// read needs no password prompt.
func (v *Vault) StoreCredential(input StoreInput, password string) (*models.DecryptedCredential, error) {
	payload, err := Encrypt(SensitiveFields{
		APIKey:   input.APIKey,
		Username: input.Username,
		Password: input.Password,
	}, password)
	if err != nil {
		return nil, err
	}

	rec := &models.EncryptedCredential{
		ID:          uuid.New().String(),
		SchemaTitle: input.SchemaTitle,
		Name:        input.Name,
		BaseURL:     input.BaseURL,
		AuthType:    input.AuthType,
		Payload:     payload,
		CreatedAt:   time.Now(),
	}
	if err := v.store.PutEncryptedCredential(rec); err != nil {
		return nil, err
	}

	decrypted := &models.DecryptedCredential{
		CredentialInfo: rec.Info(),
		APIKey:         input.APIKey,
		Username:       input.Username,
		Password:       input.Password,
	}

	v.mu.Lock()
	v.cache[rec.ID] = decrypted
	v.mu.Unlock()

	return decrypted, nil
}

// GetCredential returns the decrypted credential for id. A cached
// plaintext is served without the password. A nil result with nil error
// means no record exists. A wrong password surfaces ErrInvalidPassword
// and leaves the stored ciphertext untouched.
func (v *Vault) GetCredential(id, password string) (*models.DecryptedCredential, error) {
	v.mu.Lock()
	if cached, ok := v.cache[id]; ok {
		v.mu.Unlock()
		return cached, nil
	}
	v.mu.Unlock()

	rec, err := v.store.GetEncryptedCredential(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}

	fields, err := Decrypt(rec.Payload, password)
	if err != nil {
		return nil, err
	}

	decrypted := &models.DecryptedCredential{
		CredentialInfo: rec.Info(),
		APIKey:         fields.APIKey,
		Username:       fields.Username,
		Password:       fields.Password,
	}

	v.mu.Lock()
	v.cache[id] = decrypted
	v.mu.Unlock()

	return decrypted, nil
}

// ListCredentials returns the non-sensitive fields of all stored
// credentials, optionally filtered to one schema title
func (v *Vault) ListCredentials(schemaTitle string) ([]models.CredentialInfo, error) {
	records, err := v.store.ListEncryptedCredentials()
	if err != nil {
		return nil, err
	}

	infos := make([]models.CredentialInfo, 0, len(records))
	for _, rec := range records {
		if schemaTitle != "" && rec.SchemaTitle != schemaTitle {
			continue
		}
		infos = append(infos, rec.Info())
	}
	return infos, nil
}

// DeleteCredential removes both the cached plaintext and the persisted
// record. Deleting a non-existent id is not an error.
func (v *Vault) DeleteCredential(id string) error {
	v.mu.Lock()
	delete(v.cache, id)
	v.mu.Unlock()

	return v.store.DeleteEncryptedCredential(id)
}
