package models

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// Keyfile schema and KDF versions.
const (
	KeyfileSchemaVersion = 1

	// KDFVersionPBKDF2 derives the key-encryption key with
	// PBKDF2-SHA512. Kept for vaults created before the Argon2 switch.
	KDFVersionPBKDF2 = 1

	// KDFVersionArgon2id is the current scheme.
	KDFVersionArgon2id = 2
)

// Keyfile is the on-disk envelope for the vault master key. The master
// key itself is random; it is wrapped with a key-encryption key derived
// from the passphrase, so a passphrase change only rewraps the envelope.
type Keyfile struct {
	SchemaVersion int       `json:"schema_version"`
	KDFVersion    int       `json:"kdf_version"`
	Salt          string    `json:"salt"`        // base64
	WrappedKey    string    `json:"wrapped_key"` // base64, AES-GCM envelope
	CreatedAt     time.Time `json:"created_at"`
}

// Validate validates the keyfile structure.
func (k *Keyfile) Validate() error {
	if k.SchemaVersion < 1 {
		return fmt.Errorf("keyfile schema version must be >= 1")
	}

	switch k.KDFVersion {
	case KDFVersionPBKDF2, KDFVersionArgon2id:
		// Supported versions
	default:
		return fmt.Errorf("unsupported KDF version: %d", k.KDFVersion)
	}

	if strings.TrimSpace(k.Salt) == "" {
		return fmt.Errorf("salt is required")
	}

	if _, err := base64.StdEncoding.DecodeString(k.Salt); err != nil {
		return fmt.Errorf("invalid salt encoding: must be valid base64")
	}

	if strings.TrimSpace(k.WrappedKey) == "" {
		return fmt.Errorf("wrapped key is required")
	}

	if _, err := base64.StdEncoding.DecodeString(k.WrappedKey); err != nil {
		return fmt.Errorf("invalid wrapped key encoding: must be valid base64")
	}

	return nil
}
