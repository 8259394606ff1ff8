package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Vault location and key file
	Vault VaultConfig `json:"vault" mapstructure:"vault"`

	// Storage paths and index backend
	Storage StorageConfig `json:"storage" mapstructure:"storage"`

	// Security behavior
	Security SecurityConfig `json:"security" mapstructure:"security"`

	// Logging
	Log LogConfig `json:"log" mapstructure:"log"`
}

// VaultConfig locates the vault on disk.
type VaultConfig struct {
	// Path is the vault root directory. Blobs, the entry index and the
	// keyfile all live under it.
	Path string `json:"path" mapstructure:"path"`

	// KeyFile overrides the default <path>/vault.key location.
	KeyFile string `json:"key_file,omitempty" mapstructure:"key_file"`
}

// StorageConfig for blob and index storage.
type StorageConfig struct {
	DataDir   string `json:"data_dir" mapstructure:"data_dir"`     // Ciphertext blob directory
	IndexType string `json:"index_type" mapstructure:"index_type"` // sqlite or json
	IndexPath string `json:"index_path" mapstructure:"index_path"` // Index file location
}

// SecurityConfig for session behavior.
type SecurityConfig struct {
	// LockTimeout auto-locks the session after this much inactivity.
	// Zero disables the idle timer.
	LockTimeout time.Duration `json:"lock_timeout" mapstructure:"lock_timeout"`

	// CloseWorkers and CloseQueue size the deferred-close pool.
	CloseWorkers int `json:"close_workers" mapstructure:"close_workers"`
	CloseQueue   int `json:"close_queue" mapstructure:"close_queue"`
}

// LogConfig for logging behavior.
type LogConfig struct {
	Level  string `json:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `json:"format" mapstructure:"format"` // text, json
	File   string `json:"file" mapstructure:"file"`     // Log file path (empty = stderr)
	Color  bool   `json:"color" mapstructure:"color"`   // Enable colored output
}

// DefaultConfig returns config with sensible defaults.
func DefaultConfig() *Config {
	vaultDir := ".photok"

	return &Config{
		Vault: VaultConfig{
			Path: vaultDir,
		},
		Storage: StorageConfig{
			DataDir:   filepath.Join(vaultDir, "blobs"),
			IndexType: "sqlite",
			IndexPath: filepath.Join(vaultDir, "index.db"),
		},
		Security: SecurityConfig{
			LockTimeout:  5 * time.Minute,
			CloseWorkers: 4,
			CloseQueue:   64,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			File:   "",
			Color:  true,
		},
	}
}

// KeyFilePath resolves the keyfile location.
func (c *Config) KeyFilePath() string {
	if c.Vault.KeyFile != "" {
		return c.Vault.KeyFile
	}
	return filepath.Join(c.Vault.Path, "vault.key")
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.Vault.Path == "" {
		return errors.New("vault.path is required")
	}

	if c.Storage.DataDir == "" {
		return errors.New("storage.data_dir is required")
	}

	switch c.Storage.IndexType {
	case "sqlite", "json":
		// Supported backends
	default:
		return fmt.Errorf("invalid index type: %s", c.Storage.IndexType)
	}

	if c.Storage.IndexPath == "" {
		return errors.New("storage.index_path is required")
	}

	if c.Security.LockTimeout < 0 {
		return errors.New("security.lock_timeout cannot be negative")
	}

	if c.Security.CloseWorkers <= 0 {
		return errors.New("security.close_workers must be positive")
	}

	if c.Security.CloseQueue <= 0 {
		return errors.New("security.close_queue must be positive")
	}

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}

	return nil
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Vault.Path,
		c.Storage.DataDir,
		filepath.Dir(c.Storage.IndexPath),
	}

	if c.Log.File != "" {
		dirs = append(dirs, filepath.Dir(c.Log.File))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}
