package client

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/sr093906/photok/internal/config"
	"github.com/sr093906/photok/internal/crypto"
	"github.com/sr093906/photok/internal/events"
	"github.com/sr093906/photok/internal/services/entries"
	"github.com/sr093906/photok/internal/services/session"
	"github.com/sr093906/photok/internal/state"
	"github.com/sr093906/photok/internal/storage"
	"github.com/sr093906/photok/internal/streams"
)

// Client is the composition root for the vault. It owns every
// component's lifecycle: the session holding key material, the blob
// and index stores, and the deferred-close pool. Nothing here is a
// process-wide singleton; callers construct a Client, pass it around,
// and Close it on shutdown.
type Client struct {
	Session *session.Service
	Entries *entries.Service

	config *config.Config
	logger *events.Logger
	blobs  storage.BlobStore
	index  state.Store
	closer *streams.CloserPool
}

// New creates a vault client from configuration. The closer pool is
// started here; Close drains it.
func New(cfg *config.Config, logger *events.Logger) (*Client, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("prepare vault directories: %w", err)
	}

	provider := crypto.NewProvider()

	blobStore, err := storage.NewLocalStore(cfg.Storage.DataDir, logger)
	if err != nil {
		return nil, fmt.Errorf("create blob store: %w", err)
	}

	index, err := newIndexStore(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create entry index: %w", err)
	}

	sessionService := session.NewService(provider, cfg.KeyFilePath(), logger)
	sessionService.SetLockTimeout(cfg.Security.LockTimeout)

	closer := streams.NewCloserPool(cfg.Security.CloseWorkers, cfg.Security.CloseQueue, logger)
	closer.Start()

	entriesService := entries.NewService(sessionService, blobStore, index, closer, logger)

	return &Client{
		Session: sessionService,
		Entries: entriesService,
		config:  cfg,
		logger:  logger.WithField("component", "client"),
		blobs:   blobStore,
		index:   index,
		closer:  closer,
	}, nil
}

// newIndexStore selects the configured index backend.
func newIndexStore(cfg *config.Config, logger *events.Logger) (state.Store, error) {
	switch cfg.Storage.IndexType {
	case "json":
		return state.NewJSONStore(cfg.Storage.IndexPath, logger)
	default:
		return state.NewSQLiteStore(cfg.Storage.IndexPath, logger)
	}
}

// Close drains the deferred-close pool, closes the entry index and
// locks the session. Every step runs even if an earlier one fails;
// the first error is returned.
func (c *Client) Close(ctx context.Context) error {
	var firstErr error

	if err := c.closer.Stop(ctx); err != nil {
		c.logger.WithError(err).Warn("Closer pool did not drain cleanly")
		firstErr = err
	}

	if err := c.index.Close(); err != nil {
		c.logger.WithError(err).Warn("Failed to close entry index")
		if firstErr == nil {
			firstErr = err
		}
	}

	c.Session.Lock()
	return firstErr
}

// MigrateIndex copies every entry into a fresh index of the target
// backend, written next to the current index file. The current index
// stays active; the caller switches storage.index_type in the config
// to adopt the new one. Entries already present in the target are
// skipped, so an interrupted migration can be re-run.
func (c *Client) MigrateIndex(targetType string) (int, string, error) {
	if targetType == c.config.Storage.IndexType {
		return 0, "", fmt.Errorf("index is already %s", targetType)
	}

	dir := filepath.Dir(c.config.Storage.IndexPath)

	var (
		targetPath string
		target     state.Store
		err        error
	)
	switch targetType {
	case "json":
		targetPath = filepath.Join(dir, "index.json")
		target, err = state.NewJSONStore(targetPath, c.logger)
	case "sqlite":
		targetPath = filepath.Join(dir, "index.db")
		target, err = state.NewSQLiteStore(targetPath, c.logger)
	default:
		return 0, "", fmt.Errorf("invalid index type: %s", targetType)
	}
	if err != nil {
		return 0, "", fmt.Errorf("open target index: %w", err)
	}

	migrated, err := state.Migrate(c.index, target)
	if cerr := target.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return migrated, targetPath, fmt.Errorf("migrate entries: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"migrated": migrated,
		"target":   targetPath,
	}).Info("Entry index migrated")
	return migrated, targetPath, nil
}

// CloserStats reports the deferred-close pool counters.
func (c *Client) CloserStats() map[string]int64 {
	return c.closer.Stats()
}

// Config returns the configuration the client was built with.
func (c *Client) Config() *config.Config {
	return c.config
}
