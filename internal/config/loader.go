package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading from multiple sources.
type Loader struct {
	configPath string
	envPrefix  string
}

// NewLoader creates a config loader.
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
		envPrefix:  "PHOTOK",
	}
}

// Load reads configuration from defaults, file, and environment, in
// increasing precedence.
func (l *Loader) Load() (*Config, error) {
	v := viper.New()
	l.setDefaults(v)

	if l.configPath != "" {
		v.SetConfigFile(l.configPath)
	} else {
		v.SetConfigName("photok")
		v.SetConfigType("json")
		v.AddConfigPath(".")
		if homeDir, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".config", "photok"))
			v.AddConfigPath(filepath.Join(homeDir, ".photok"))
		}
	}

	v.SetEnvPrefix(l.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if l.configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
		// No config file found in the default locations; defaults and
		// environment still apply.
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Storage paths default to locations inside the vault directory.
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = filepath.Join(cfg.Vault.Path, "blobs")
	}
	if cfg.Storage.IndexPath == "" {
		cfg.Storage.IndexPath = filepath.Join(cfg.Vault.Path, "index.db")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers defaults for every key so environment-only
// overrides are picked up by Unmarshal. Storage paths are left empty
// here and derived from vault.path after unmarshalling.
func (l *Loader) setDefaults(v *viper.Viper) {
	def := DefaultConfig()

	v.SetDefault("vault.path", def.Vault.Path)
	v.SetDefault("vault.key_file", "")
	v.SetDefault("storage.data_dir", "")
	v.SetDefault("storage.index_type", def.Storage.IndexType)
	v.SetDefault("storage.index_path", "")
	v.SetDefault("security.lock_timeout", def.Security.LockTimeout)
	v.SetDefault("security.close_workers", def.Security.CloseWorkers)
	v.SetDefault("security.close_queue", def.Security.CloseQueue)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
	v.SetDefault("log.file", def.Log.File)
	v.SetDefault("log.color", def.Log.Color)
}

// SaveExample writes an example config file.
func SaveExample(path string) error {
	cfg := DefaultConfig()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	return nil
}
