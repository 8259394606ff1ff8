package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sr093906/photok/internal/events"
)

const (
	maxNameLength = 255
	tempInfix     = ".tmp."

	dirMode  = os.FileMode(0700)
	fileMode = os.FileMode(0600)
)

// LocalStore keeps blobs as flat files in a single directory. Writes
// are staged in a temp file and published by rename, so a committed
// blob is always complete and a crashed import leaves nothing behind
// but a temp file the next startup sweeps away.
type LocalStore struct {
	baseDir     string
	logger      *events.Logger
	maxBlobSize int64 // 0 means unlimited
}

// NewLocalStore creates the blob directory if needed and removes
// partial blobs left by a previous crash.
func NewLocalStore(baseDir string, logger *events.Logger) (*LocalStore, error) {
	absPath, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve blob directory: %w", err)
	}

	if err := os.MkdirAll(absPath, dirMode); err != nil {
		return nil, fmt.Errorf("create blob directory: %w", err)
	}

	s := &LocalStore{
		baseDir: absPath,
		logger:  logger.WithField("component", "blob_store"),
	}
	s.sweepTempFiles()

	return s, nil
}

// SetMaxBlobSize caps the size of staged blobs. Zero disables the
// limit.
func (s *LocalStore) SetMaxBlobSize(size int64) {
	s.maxBlobSize = size
}

// OpenWrite stages a new blob under name.
func (s *LocalStore) OpenWrite(name string) (BlobWriter, error) {
	finalPath, err := s.resolve(name)
	if err != nil {
		return nil, err
	}

	if _, err := os.Lstat(finalPath); err == nil {
		return nil, fmt.Errorf("stage blob %s: %w", name, ErrBlobExists)
	}

	tempPath := fmt.Sprintf("%s%s%d", finalPath, tempInfix, time.Now().UnixNano())
	f, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, fileMode)
	if err != nil {
		return nil, fmt.Errorf("create temp blob: %w", err)
	}

	s.logger.WithField("blob", name).Debug("Staging blob")

	return &localWriter{
		store:     s,
		f:         f,
		name:      name,
		tempPath:  tempPath,
		finalPath: finalPath,
	}, nil
}

// Open returns a reader over a committed blob.
func (s *LocalStore) Open(name string) (io.ReadCloser, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}

	// Symlinks in the blob directory are never legitimate
	if stat, err := os.Lstat(path); err == nil && stat.Mode()&os.ModeSymlink != 0 {
		return nil, fmt.Errorf("blob %s is a symlink", name)
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("open blob %s: %w", name, ErrBlobNotFound)
		}
		return nil, fmt.Errorf("open blob %s: %w", name, err)
	}
	return f, nil
}

// Delete removes a blob. A missing blob is not an error.
func (s *LocalStore) Delete(name string) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}

	s.logger.WithField("blob", name).Debug("Deleting blob")

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete blob %s: %w", name, err)
	}
	return nil
}

// Exists reports whether a committed blob is present.
func (s *LocalStore) Exists(name string) (bool, error) {
	path, err := s.resolve(name)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Stat returns blob metadata.
func (s *LocalStore) Stat(name string) (BlobInfo, error) {
	path, err := s.resolve(name)
	if err != nil {
		return BlobInfo{}, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return BlobInfo{}, fmt.Errorf("stat blob %s: %w", name, ErrBlobNotFound)
		}
		return BlobInfo{}, fmt.Errorf("stat blob %s: %w", name, err)
	}

	return BlobInfo{
		Name:    name,
		Size:    stat.Size(),
		ModTime: stat.ModTime(),
	}, nil
}

// List enumerates committed blobs. Staged temp files are skipped.
func (s *LocalStore) List() ([]BlobInfo, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read blob directory: %w", err)
	}

	var blobs []BlobInfo
	for _, entry := range entries {
		if entry.IsDir() || strings.Contains(entry.Name(), tempInfix) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		blobs = append(blobs, BlobInfo{
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	return blobs, nil
}

// resolve validates a blob name and maps it into the base directory.
// Names are flat: anything that could traverse out is rejected.
func (s *LocalStore) resolve(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty blob name")
	}
	if len(name) > maxNameLength {
		return "", fmt.Errorf("blob name too long: %d characters", len(name))
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return "", fmt.Errorf("invalid blob name: %q", name)
	}
	if name == "." || name == ".." || strings.Contains(name, tempInfix) {
		return "", fmt.Errorf("invalid blob name: %q", name)
	}

	path := filepath.Join(s.baseDir, name)
	if filepath.Dir(path) != s.baseDir {
		return "", fmt.Errorf("blob name escapes store: %q", name)
	}
	return path, nil
}

// sweepTempFiles removes staged blobs from interrupted imports.
func (s *LocalStore) sweepTempFiles() {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.Contains(entry.Name(), tempInfix) {
			continue
		}

		path := filepath.Join(s.baseDir, entry.Name())
		if err := os.Remove(path); err != nil {
			s.logger.WithField("path", path).WithError(err).
				Warn("Failed to remove stale temp blob")
			continue
		}
		s.logger.WithField("path", path).Debug("Removed stale temp blob")
	}
}

// localWriter stages a blob in a temp file until Commit renames it
// into place.
type localWriter struct {
	store     *LocalStore
	f         *os.File
	name      string
	tempPath  string
	finalPath string
	written   int64
	done      bool
}

func (w *localWriter) Write(p []byte) (int, error) {
	if w.done {
		return 0, ErrWriterDone
	}

	if max := w.store.maxBlobSize; max > 0 && w.written+int64(len(p)) > max {
		return 0, fmt.Errorf("blob too large: exceeds %d bytes", max)
	}

	n, err := w.f.Write(p)
	w.written += int64(n)
	if err != nil {
		return n, fmt.Errorf("write blob: %w", err)
	}
	return n, nil
}

// Commit flushes the staged data and publishes the blob.
func (w *localWriter) Commit() error {
	if w.done {
		return ErrWriterDone
	}
	w.done = true

	if err := w.f.Sync(); err != nil {
		w.discard()
		return fmt.Errorf("sync blob: %w", err)
	}
	if err := w.f.Close(); err != nil {
		_ = os.Remove(w.tempPath)
		return fmt.Errorf("close temp blob: %w", err)
	}
	if err := os.Rename(w.tempPath, w.finalPath); err != nil {
		_ = os.Remove(w.tempPath)
		return fmt.Errorf("publish blob: %w", err)
	}

	w.store.logger.WithFields(map[string]interface{}{
		"blob": w.name,
		"size": w.written,
	}).Debug("Blob committed")

	return nil
}

// Abort discards the staged data. Calling it after Commit, or more
// than once, is a no-op.
func (w *localWriter) Abort() error {
	if w.done {
		return nil
	}
	w.done = true
	w.discard()

	w.store.logger.WithField("blob", w.name).Debug("Blob staging aborted")
	return nil
}

func (w *localWriter) discard() {
	_ = w.f.Close()
	_ = os.Remove(w.tempPath)
}
