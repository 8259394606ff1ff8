package models

import (
	"errors"
	"fmt"
)

// Error codes for structured error handling.
const (
	ErrCodeLocked     = "VAULT_LOCKED"
	ErrCodePassphrase = "WRONG_PASSPHRASE"
	ErrCodeCryptoIO   = "CRYPTO_IO_ERROR"
	ErrCodeAuthTag    = "AUTHENTICATION_FAILED"
	ErrCodeOffset     = "INVALID_OFFSET"
	ErrCodeStorage    = "STORAGE_ERROR"
	ErrCodeIndex      = "INDEX_ERROR"
	ErrCodeConfig     = "CONFIG_ERROR"
)

// Sentinel errors
var (
	ErrVaultLocked          = errors.New("vault is locked")
	ErrVaultNotInitialized  = errors.New("vault not initialized")
	ErrVaultExists          = errors.New("vault already initialized")
	ErrWrongPassphrase      = errors.New("wrong passphrase")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrInvalidOffset        = errors.New("invalid offset")
	ErrInvalidConfig        = errors.New("invalid configuration")
	ErrHandleClosed         = errors.New("stream handle closed")
)

// CryptoIOError reports an underlying read/write failure during an
// encrypt or decrypt stream operation.
type CryptoIOError struct {
	Op   string
	Path string
	Err  error
}

func (e *CryptoIOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("crypto %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("crypto %s: %v", e.Op, e.Err)
}

func (e *CryptoIOError) Unwrap() error {
	return e.Err
}

// AuthenticationError represents a stream tag mismatch. The blob is
// corrupted or tampered with; retrying will not help.
type AuthenticationError struct {
	Location string
}

func (e *AuthenticationError) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("authentication failed for %s: tag mismatch", e.Location)
	}
	return "authentication failed: tag mismatch"
}

func (e *AuthenticationError) Unwrap() error {
	return ErrAuthenticationFailed
}

// InvalidOffsetError reports a requested start offset beyond the
// plaintext length of an entry.
type InvalidOffsetError struct {
	Requested int64
	Size      int64
}

func (e *InvalidOffsetError) Error() string {
	return fmt.Sprintf("invalid offset %d: plaintext is %d bytes", e.Requested, e.Size)
}

func (e *InvalidOffsetError) Unwrap() error {
	return ErrInvalidOffset
}

// StoreError provides detailed index store failure information.
type StoreError struct {
	Code    string
	Op      string
	EntryID string
	Err     error
}

func (e *StoreError) Error() string {
	if e.EntryID != "" {
		return fmt.Sprintf("store %s [%s]: entry %s: %v", e.Op, e.Code, e.EntryID, e.Err)
	}
	return fmt.Sprintf("store %s [%s]: %v", e.Op, e.Code, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
