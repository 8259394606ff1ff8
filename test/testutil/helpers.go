package testutil

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sr093906/photok/internal/config"
)

// LogEntry represents a captured log entry for testing.
type LogEntry struct {
	Level   string
	Message string
	Time    time.Time
	Fields  map[string]interface{}
}

// TestHelpers provides common test helper functions.
type TestHelpers struct {
	t       *testing.T
	tempDir string
	cleanup []func()
}

// NewTestHelpers creates test helpers.
func NewTestHelpers(t *testing.T) *TestHelpers {
	tempDir := t.TempDir()
	return &TestHelpers{
		t:       t,
		tempDir: tempDir,
	}
}

// TempDir returns the temporary directory for this test.
func (h *TestHelpers) TempDir() string {
	return h.tempDir
}

// CreateTempFile creates a temporary file with content.
func (h *TestHelpers) CreateTempFile(name, content string) string {
	return h.CreateTempBinaryFile(name, []byte(content))
}

// CreateTempBinaryFile creates a temporary binary file.
func (h *TestHelpers) CreateTempBinaryFile(name string, content []byte) string {
	path := filepath.Join(h.tempDir, name)
	dir := filepath.Dir(path)

	err := os.MkdirAll(dir, 0755)
	require.NoError(h.t, err)

	err = os.WriteFile(path, content, 0644)
	require.NoError(h.t, err)

	return path
}

// AssertFileExists checks that a file exists.
func (h *TestHelpers) AssertFileExists(path string) {
	_, err := os.Stat(path)
	assert.NoError(h.t, err, "File should exist: %s", path)
}

// AssertFileContent checks file content matches expected.
func (h *TestHelpers) AssertFileContent(path, expectedContent string) {
	content, err := os.ReadFile(path)
	require.NoError(h.t, err)
	assert.Equal(h.t, expectedContent, string(content))
}

// AssertFileNotExists checks that a file does not exist.
func (h *TestHelpers) AssertFileNotExists(path string) {
	_, err := os.Stat(path)
	assert.True(h.t, os.IsNotExist(err), "File should not exist: %s", path)
}

// AddCleanup adds a cleanup function to be called at test end.
func (h *TestHelpers) AddCleanup(fn func()) {
	h.cleanup = append(h.cleanup, fn)
}

// Cleanup runs all cleanup functions.
func (h *TestHelpers) Cleanup() {
	for i := len(h.cleanup) - 1; i >= 0; i-- {
		h.cleanup[i]()
	}
}

// TestTimeout provides timeout context for tests.
func TestTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

// TestContext creates a test context with reasonable timeout.
func TestContext() (context.Context, context.CancelFunc) {
	return TestTimeout(30 * time.Second)
}

// TestConfigWithDir creates a vault configuration rooted at dataDir.
// The sqlite index and short close queue keep tests self-contained.
func TestConfigWithDir(dataDir string) *config.Config {
	return &config.Config{
		Vault: config.VaultConfig{
			Path: dataDir,
		},
		Storage: config.StorageConfig{
			DataDir:   filepath.Join(dataDir, "blobs"),
			IndexType: "sqlite",
			IndexPath: filepath.Join(dataDir, "index.db"),
		},
		Security: config.SecurityConfig{
			LockTimeout:  0, // Tests lock explicitly
			CloseWorkers: 2,
			CloseQueue:   8,
		},
		Log: config.LogConfig{
			Level:  "debug",
			Format: "json",
			Color:  false,
		},
	}
}

// WaitForCondition waits for a condition to be true with timeout.
func WaitForCondition(t *testing.T, condition func() bool, timeout time.Duration, message string) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			t.Fatalf("Timeout waiting for condition: %s", message)
		case <-ticker.C:
			if condition() {
				return
			}
		}
	}
}

// CompareFiles compares two files for equality.
func CompareFiles(t *testing.T, path1, path2 string) {
	content1, err := os.ReadFile(path1)
	require.NoError(t, err, "Failed to read %s", path1)

	content2, err := os.ReadFile(path2)
	require.NoError(t, err, "Failed to read %s", path2)

	assert.Equal(t, content1, content2, "Files should be identical")
}

// LogOutput captures JSON log output for testing.
type LogOutput struct {
	mu      sync.RWMutex
	entries []LogEntry
}

// NewLogOutput creates a new log output capturer.
func NewLogOutput() *LogOutput {
	return &LogOutput{}
}

// Write implements io.Writer to capture log output. Logrus emits one
// JSON object per line with level, msg and time at the top level and
// structured fields beside them.
func (lo *LogOutput) Write(p []byte) (n int, err error) {
	scanner := bufio.NewScanner(bytes.NewReader(p))
	for scanner.Scan() {
		var raw map[string]interface{}
		if err := json.Unmarshal(scanner.Bytes(), &raw); err != nil {
			continue
		}

		entry := LogEntry{Fields: make(map[string]interface{})}
		for key, value := range raw {
			switch key {
			case "level":
				entry.Level, _ = value.(string)
			case "msg":
				entry.Message, _ = value.(string)
			case "time":
				if s, ok := value.(string); ok {
					entry.Time, _ = time.Parse(time.RFC3339, s)
				}
			default:
				entry.Fields[key] = value
			}
		}

		lo.mu.Lock()
		lo.entries = append(lo.entries, entry)
		lo.mu.Unlock()
	}
	return len(p), nil
}

// Entries returns captured log entries.
func (lo *LogOutput) Entries() []LogEntry {
	lo.mu.RLock()
	defer lo.mu.RUnlock()

	entries := make([]LogEntry, len(lo.entries))
	copy(entries, lo.entries)
	return entries
}

// HasLevel checks if any log entry has the specified level.
func (lo *LogOutput) HasLevel(level string) bool {
	lo.mu.RLock()
	defer lo.mu.RUnlock()

	for _, entry := range lo.entries {
		if entry.Level == level {
			return true
		}
	}
	return false
}

// HasMessage checks if any log entry contains the message.
func (lo *LogOutput) HasMessage(message string) bool {
	lo.mu.RLock()
	defer lo.mu.RUnlock()

	for _, entry := range lo.entries {
		if strings.Contains(entry.Message, message) {
			return true
		}
	}
	return false
}

// Clear clears all captured entries.
func (lo *LogOutput) Clear() {
	lo.mu.Lock()
	defer lo.mu.Unlock()
	lo.entries = nil
}

// SkipIfShort skips test if testing.Short() is true.
func SkipIfShort(t *testing.T, reason string) {
	if testing.Short() {
		t.Skipf("Skipping test in short mode: %s", reason)
	}
}
