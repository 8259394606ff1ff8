package session

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sr093906/photok/internal/crypto"
	"github.com/sr093906/photok/internal/events"
	"github.com/sr093906/photok/internal/models"
)

// Service owns the vault session: it creates and unlocks the keyfile,
// holds the derived stream keys while the vault is open, and wipes
// them on lock. An idle timer locks the vault automatically; any
// entry activity resets it.
type Service struct {
	provider    crypto.Provider
	keyfilePath string
	logger      *events.Logger

	mu          sync.Mutex
	keys        *crypto.StreamKey
	lockTimeout time.Duration
	timer       *time.Timer
	onLock      func()
}

// NewService creates a session service.
func NewService(provider crypto.Provider, keyfilePath string, logger *events.Logger) *Service {
	return &Service{
		provider:    provider,
		keyfilePath: keyfilePath,
		logger:      logger.WithField("service", "session"),
	}
}

// SetLockTimeout configures the idle auto-lock. Zero disables it.
// Takes effect on the next Unlock.
func (s *Service) SetLockTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lockTimeout = d
}

// SetOnLock registers a callback fired whenever the vault locks,
// including auto-lock. The callback runs outside the session lock.
func (s *Service) SetOnLock(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLock = fn
}

// Initialize creates a new keyfile. The master key is random and
// wrapped under a key derived from the passphrase, so changing the
// passphrase later only rewraps it.
func (s *Service) Initialize(passphrase string) error {
	if passphrase == "" {
		return fmt.Errorf("empty passphrase")
	}

	if _, err := os.Stat(s.keyfilePath); err == nil {
		return models.ErrVaultExists
	}

	salt, err := crypto.NewSalt()
	if err != nil {
		return fmt.Errorf("generate salt: %w", err)
	}

	master, err := crypto.NewMasterKey()
	if err != nil {
		return fmt.Errorf("generate master key: %w", err)
	}
	defer crypto.Wipe(master)

	kek, err := s.provider.DeriveKEK(passphrase, salt, models.KDFVersionArgon2id)
	if err != nil {
		return fmt.Errorf("derive key: %w", err)
	}
	defer crypto.Wipe(kek)

	wrapped, err := s.provider.EncryptData(master, kek)
	if err != nil {
		return fmt.Errorf("wrap master key: %w", err)
	}

	keyfile := &models.Keyfile{
		SchemaVersion: models.KeyfileSchemaVersion,
		KDFVersion:    models.KDFVersionArgon2id,
		Salt:          base64.StdEncoding.EncodeToString(salt),
		WrappedKey:    base64.StdEncoding.EncodeToString(wrapped),
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.writeKeyfile(keyfile); err != nil {
		return err
	}

	s.logger.WithField("kdf_version", keyfile.KDFVersion).Info("Vault initialized")
	return nil
}

// Unlock derives the key-encryption key from the passphrase and
// unwraps the master key. A failed unwrap means the passphrase is
// wrong; there is no separate verifier to leak.
func (s *Service) Unlock(passphrase string) error {
	keyfile, err := s.loadKeyfile()
	if err != nil {
		return err
	}

	salt, err := base64.StdEncoding.DecodeString(keyfile.Salt)
	if err != nil {
		return fmt.Errorf("decode salt: %w", err)
	}
	wrapped, err := base64.StdEncoding.DecodeString(keyfile.WrappedKey)
	if err != nil {
		return fmt.Errorf("decode wrapped key: %w", err)
	}

	kek, err := s.provider.DeriveKEK(passphrase, salt, keyfile.KDFVersion)
	if err != nil {
		return fmt.Errorf("derive key: %w", err)
	}
	defer crypto.Wipe(kek)

	master, err := s.provider.DecryptData(wrapped, kek)
	if err != nil {
		if errors.Is(err, crypto.ErrDecryptionFailed) {
			s.logger.Warn("Unlock failed: wrong passphrase")
			return models.ErrWrongPassphrase
		}
		return fmt.Errorf("unwrap master key: %w", err)
	}
	defer crypto.Wipe(master)

	keys, err := s.provider.StreamKeys(master)
	if err != nil {
		return fmt.Errorf("derive stream keys: %w", err)
	}

	s.mu.Lock()
	if s.keys != nil {
		s.keys.Wipe()
	}
	s.keys = keys
	s.resetTimerLocked()
	s.mu.Unlock()

	s.logger.WithField("kdf_version", keyfile.KDFVersion).Info("Vault unlocked")
	return nil
}

// Lock wipes the stream keys and stops the idle timer. Streams
// already open keep their own cipher state; new operations fail with
// ErrVaultLocked.
func (s *Service) Lock() {
	s.mu.Lock()
	if s.keys == nil {
		s.mu.Unlock()
		return
	}

	s.keys.Wipe()
	s.keys = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	fn := s.onLock
	s.mu.Unlock()

	s.logger.Info("Vault locked")
	if fn != nil {
		fn()
	}
}

// Unlocked reports whether stream keys are present.
func (s *Service) Unlocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys != nil
}

// Keys returns the stream keys, or ErrVaultLocked.
func (s *Service) Keys() (*crypto.StreamKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.keys == nil {
		return nil, models.ErrVaultLocked
	}
	return s.keys, nil
}

// Activity pushes the idle auto-lock out. Entry reads and writes
// call this through their activity callbacks.
func (s *Service) Activity() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.keys == nil {
		return
	}
	s.resetTimerLocked()
}

// ChangePassphrase rewraps the master key under a new passphrase.
// The keyfile is upgraded to the current KDF version in the process;
// blobs are untouched because the master key does not change.
func (s *Service) ChangePassphrase(oldPassphrase, newPassphrase string) error {
	if newPassphrase == "" {
		return fmt.Errorf("empty passphrase")
	}

	keyfile, err := s.loadKeyfile()
	if err != nil {
		return err
	}

	salt, err := base64.StdEncoding.DecodeString(keyfile.Salt)
	if err != nil {
		return fmt.Errorf("decode salt: %w", err)
	}
	wrapped, err := base64.StdEncoding.DecodeString(keyfile.WrappedKey)
	if err != nil {
		return fmt.Errorf("decode wrapped key: %w", err)
	}

	oldKEK, err := s.provider.DeriveKEK(oldPassphrase, salt, keyfile.KDFVersion)
	if err != nil {
		return fmt.Errorf("derive key: %w", err)
	}
	defer crypto.Wipe(oldKEK)

	master, err := s.provider.DecryptData(wrapped, oldKEK)
	if err != nil {
		if errors.Is(err, crypto.ErrDecryptionFailed) {
			return models.ErrWrongPassphrase
		}
		return fmt.Errorf("unwrap master key: %w", err)
	}
	defer crypto.Wipe(master)

	newSalt, err := crypto.NewSalt()
	if err != nil {
		return fmt.Errorf("generate salt: %w", err)
	}

	newKEK, err := s.provider.DeriveKEK(newPassphrase, newSalt, models.KDFVersionArgon2id)
	if err != nil {
		return fmt.Errorf("derive key: %w", err)
	}
	defer crypto.Wipe(newKEK)

	newWrapped, err := s.provider.EncryptData(master, newKEK)
	if err != nil {
		return fmt.Errorf("wrap master key: %w", err)
	}

	keyfile.KDFVersion = models.KDFVersionArgon2id
	keyfile.Salt = base64.StdEncoding.EncodeToString(newSalt)
	keyfile.WrappedKey = base64.StdEncoding.EncodeToString(newWrapped)

	if err := s.writeKeyfile(keyfile); err != nil {
		return err
	}

	s.logger.Info("Passphrase changed")
	return nil
}

// Status describes the vault without touching key material.
type Status struct {
	Initialized bool      `json:"initialized"`
	Unlocked    bool      `json:"unlocked"`
	KDFVersion  int       `json:"kdf_version,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// Status reports keyfile and session state.
func (s *Service) Status() Status {
	status := Status{Unlocked: s.Unlocked()}

	keyfile, err := s.loadKeyfile()
	if err != nil {
		return status
	}

	status.Initialized = true
	status.KDFVersion = keyfile.KDFVersion
	status.CreatedAt = keyfile.CreatedAt
	return status
}

// resetTimerLocked arms or rearms the idle timer. Callers hold mu.
func (s *Service) resetTimerLocked() {
	if s.lockTimeout <= 0 {
		return
	}

	if s.timer != nil {
		s.timer.Reset(s.lockTimeout)
		return
	}

	s.timer = time.AfterFunc(s.lockTimeout, func() {
		s.logger.Info("Idle timeout, locking vault")
		s.Lock()
	})
}

// Keyfile persistence

func (s *Service) loadKeyfile() (*models.Keyfile, error) {
	data, err := os.ReadFile(s.keyfilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, models.ErrVaultNotInitialized
		}
		return nil, fmt.Errorf("read keyfile: %w", err)
	}

	var keyfile models.Keyfile
	if err := json.Unmarshal(data, &keyfile); err != nil {
		return nil, fmt.Errorf("parse keyfile: %w", err)
	}

	if err := keyfile.Validate(); err != nil {
		return nil, fmt.Errorf("invalid keyfile: %w", err)
	}

	return &keyfile, nil
}

// writeKeyfile persists the keyfile atomically. Losing this file
// loses the vault, so the previous version must survive a crash
// mid-write.
func (s *Service) writeKeyfile(keyfile *models.Keyfile) error {
	data, err := json.MarshalIndent(keyfile, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal keyfile: %w", err)
	}

	tmpPath := s.keyfilePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("write keyfile: %w", err)
	}

	if f, err := os.Open(tmpPath); err == nil {
		_ = f.Sync()
		f.Close()
	}

	if err := os.Rename(tmpPath, s.keyfilePath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename keyfile: %w", err)
	}

	return nil
}
