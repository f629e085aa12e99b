package models

import "time"

// AuthType identifies how a stored credential is applied to requests
type AuthType string

const (
	AuthNone   AuthType = "none"
	AuthAPIKey AuthType = "apiKey"
	AuthBasic  AuthType = "basic"
)

// CredentialType classifies credential metadata records
type CredentialType string

const (
	CredentialAPIKey CredentialType = "api_key"
	CredentialBearer CredentialType = "bearer"
	CredentialBasic  CredentialType = "basic"
	CredentialOAuth2 CredentialType = "oauth2"
)

// CredentialMetadata is the non-secret half of a credential. The secret
// lives in the vault keyed by the same ID and is never embedded here.
type CredentialMetadata struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Type CredentialType `json:"type"`
}

// EncryptedPayload is the opaque at-rest form of sensitive fields
type EncryptedPayload struct {
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// EncryptedCredential is a vault record persisted at rest. Only the
// payload holds secret material, and only in encrypted form.
type EncryptedCredential struct {
	ID          string           `json:"id"`
	SchemaTitle string           `json:"schemaTitle"`
	Name        string           `json:"name"`
	BaseURL     string           `json:"baseUrl"`
	AuthType    AuthType         `json:"authType"`
	Payload     EncryptedPayload `json:"encryptedPayload"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// CredentialInfo is the listing form of a vault record, without the payload
type CredentialInfo struct {
	ID          string    `json:"id"`
	SchemaTitle string    `json:"schemaTitle"`
	Name        string    `json:"name"`
	BaseURL     string    `json:"baseUrl"`
	AuthType    AuthType  `json:"authType"`
	CreatedAt   time.Time `json:"createdAt"`
}

// DecryptedCredential is the in-memory plaintext form. Never persisted.
type DecryptedCredential struct {
	CredentialInfo
	APIKey   string `json:"apiKey,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// Info returns the non-sensitive fields of an encrypted record
func (c *EncryptedCredential) Info() CredentialInfo {
	return CredentialInfo{
		ID:          c.ID,
		SchemaTitle: c.SchemaTitle,
		Name:        c.Name,
		BaseURL:     c.BaseURL,
		AuthType:    c.AuthType,
		CreatedAt:   c.CreatedAt,
	}
}
