package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"github.com/zacpr/api-explorer/internal/models"
)

const (
	keyIterations = 100000
	keyLength     = 32 // AES-256
	saltLength    = 16
	nonceLength   = 12
)

// ErrInvalidPassword is returned whenever authenticated decryption fails.
// Wrong password and corrupted ciphertext are deliberately not
// distinguishable.
var ErrInvalidPassword = errors.New("invalid master password")

// SensitiveFields are the secret credential fields that only ever persist
// in encrypted form
type SensitiveFields struct {
	APIKey   string `json:"apiKey,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// DeriveKey derives a 256-bit key from the master password and salt
func DeriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, keyIterations, keyLength, sha256.New)
}

// Encrypt serializes the non-empty sensitive fields and seals them with
// AES-256-GCM under a key derived from the password. Salt and nonce are
// freshly random per call, never reused.
func Encrypt(fields SensitiveFields, password string) (models.EncryptedPayload, error) {
	plaintext, err := json.Marshal(fields)
	if err != nil {
		return models.EncryptedPayload{}, err
	}

	salt := make([]byte, saltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return models.EncryptedPayload{}, fmt.Errorf("failed to generate salt: %w", err)
	}
	nonce := make([]byte, nonceLength)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return models.EncryptedPayload{}, fmt.Errorf("failed to generate nonce: %w", err)
	}

	block, err := aes.NewCipher(DeriveKey(password, salt))
	if err != nil {
		return models.EncryptedPayload{}, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return models.EncryptedPayload{}, err
	}

	return models.EncryptedPayload{
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: aesgcm.Seal(nil, nonce, plaintext, nil),
	}, nil
}

// Decrypt opens the payload with a key derived from the password. Any
// authentication failure surfaces as ErrInvalidPassword.
func Decrypt(payload models.EncryptedPayload, password string) (SensitiveFields, error) {
	block, err := aes.NewCipher(DeriveKey(password, payload.Salt))
	if err != nil {
		return SensitiveFields{}, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return SensitiveFields{}, err
	}
	if len(payload.Nonce) != aesgcm.NonceSize() {
		return SensitiveFields{}, ErrInvalidPassword
	}

	plaintext, err := aesgcm.Open(nil, payload.Nonce, payload.Ciphertext, nil)
	if err != nil {
		return SensitiveFields{}, ErrInvalidPassword
	}

	var fields SensitiveFields
	if err := json.Unmarshal(plaintext, &fields); err != nil {
		return SensitiveFields{}, ErrInvalidPassword
	}
	return fields, nil
}
