package crypto

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"

	"github.com/sr093906/photok/internal/models"
)

const (
	// Key sizes
	KeySize  = 32 // AES-256
	SaltSize = 32

	// GCM envelope (keyfile wrapping)
	NonceSize = 12 // GCM standard
	TagSize   = 16 // GCM tag

	// PBKDF2 parameters (KDF version 1)
	DefaultIterations = 600000

	// Argon2id parameters (KDF version 2)
	Argon2Time    = 1
	Argon2Memory  = 64 * 1024 // KiB
	Argon2Threads = 4
)

// Subkey derivation labels. Changing these breaks every stored blob.
const (
	streamEncryptionLabel = "photok-stream-encryption-v1"
	streamMACLabel        = "photok-stream-mac-v1"
)

// Errors
var (
	ErrInvalidCiphertext = errors.New("invalid ciphertext format")
	ErrInvalidKey        = errors.New("invalid key size")
	ErrDecryptionFailed  = errors.New("decryption failed")
)

// CryptoProvider handles key derivation and envelope operations.
type CryptoProvider struct {
	iterations int
}

// NewProvider creates a crypto provider.
func NewProvider() Provider {
	return &CryptoProvider{
		iterations: DefaultIterations,
	}
}

// DeriveKEK derives the key-encryption key from a passphrase and salt.
// The KDF version comes from the keyfile, so vaults created under an
// older scheme keep unlocking after upgrades.
func (p *CryptoProvider) DeriveKEK(passphrase string, salt []byte, kdfVersion int) ([]byte, error) {
	if len(salt) < SaltSize {
		return nil, fmt.Errorf("salt too short: %d bytes", len(salt))
	}

	switch kdfVersion {
	case models.KDFVersionPBKDF2:
		return pbkdf2.Key([]byte(passphrase), salt, p.iterations, KeySize, sha512.New), nil

	case models.KDFVersionArgon2id:
		return argon2.IDKey([]byte(passphrase), salt, Argon2Time, Argon2Memory, Argon2Threads, KeySize), nil

	default:
		return nil, fmt.Errorf("unsupported KDF version: %d", kdfVersion)
	}
}

// StreamKeys derives the per-purpose stream subkeys from the master
// key. The master key itself never touches blob data; the cipher and
// MAC keys are domain-separated via HMAC labels.
func (p *CryptoProvider) StreamKeys(masterKey []byte) (*StreamKey, error) {
	if len(masterKey) != KeySize {
		return nil, ErrInvalidKey
	}

	return &StreamKey{
		enc: deriveSubkey(masterKey, streamEncryptionLabel),
		mac: deriveSubkey(masterKey, streamMACLabel),
	}, nil
}

func deriveSubkey(masterKey []byte, label string) []byte {
	h := hmac.New(sha256.New, masterKey)
	h.Write([]byte(label))
	return h.Sum(nil)
}

// NewSalt generates a random KDF salt.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// NewMasterKey generates a random vault master key.
func NewMasterKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate master key: %w", err)
	}
	return key, nil
}

// Wipe overwrites key material before release. Two passes, then zero,
// so the bytes are gone even if the slice lingers in a pool.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0xFF
	}
	for i := range b {
		b[i] = 0x00
	}
}
