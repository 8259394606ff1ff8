//go:build integration
// +build integration

package integration_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sr093906/photok/internal/client"
	"github.com/sr093906/photok/internal/config"
	"github.com/sr093906/photok/internal/models"
	"github.com/sr093906/photok/test/testutil"
)

const testPassphrase = "integration test passphrase"

// newVault builds a client over a fresh vault directory and unlocks it.
func newVault(t *testing.T, dir string) (*client.Client, *config.Config) {
	t.Helper()

	cfg := testutil.TestConfigWithDir(dir)
	c, err := client.New(cfg, testutil.NewTestLogger())
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = c.Close(ctx)
	})

	require.NoError(t, c.Session.Initialize(testPassphrase))
	require.NoError(t, c.Session.Unlock(testPassphrase))
	return c, cfg
}

func TestVaultEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	helpers := testutil.NewTestHelpers(t)
	defer helpers.Cleanup()

	c, cfg := newVault(t, helpers.TempDir())

	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Import one sample per supported media container plus a plain
	// byte sequence.
	fixtures := testutil.MediaFixtures()
	for _, fixture := range fixtures {
		entry, err := c.Entries.Import(ctx, bytes.NewReader(fixture.Data), fixture.Name)
		require.NoError(t, err)
		assert.Equal(t, fixture.Kind, entry.Kind, "wrong kind for %s", fixture.Name)
		assert.Equal(t, int64(len(fixture.Data)), entry.PlaintextSize)
	}

	digits, err := c.Entries.Import(ctx, bytes.NewReader([]byte("0123456789")), "digits.bin")
	require.NoError(t, err)

	// Everything is listed.
	count, err := c.Entries.Count()
	require.NoError(t, err)
	assert.Equal(t, len(fixtures)+1, count)

	list, err := c.Entries.List()
	require.NoError(t, err)
	kinds := make(map[string]models.MediaKind, len(list))
	for _, entry := range list {
		kinds[entry.Name] = entry.Kind
	}
	for _, fixture := range fixtures {
		assert.Equal(t, fixture.Kind, kinds[fixture.Name])
	}

	// Reading from an offset skips exactly that many plaintext bytes.
	handle, err := c.Entries.Open(ctx, digits.ID, 5)
	require.NoError(t, err)
	tail, err := io.ReadAll(handle)
	require.NoError(t, err)
	require.NoError(t, handle.Close())
	assert.Equal(t, "56789", string(tail))

	// Export round-trips the original bytes.
	original := helpers.CreateTempBinaryFile("original.jpg", fixtures[0].Data)
	exported := filepath.Join(helpers.TempDir(), "exported.jpg")

	out, err := os.Create(exported)
	require.NoError(t, err)
	var exportedID string
	for _, entry := range list {
		if entry.Name == fixtures[0].Name {
			exportedID = entry.ID
		}
	}
	n, err := c.Entries.Export(ctx, exportedID, out, 0)
	require.NoError(t, err)
	require.NoError(t, out.Close())
	assert.Equal(t, int64(len(fixtures[0].Data)), n)
	testutil.CompareFiles(t, original, exported)

	// Every stored blob authenticates.
	for _, entry := range list {
		assert.NoError(t, c.Entries.Verify(ctx, entry.ID), "verify %s", entry.Name)
	}

	// Shutdown locks the session.
	require.NoError(t, c.Close(ctx))
	assert.False(t, c.Session.Unlocked())

	// A fresh client over the same directory sees the same vault.
	reopened, err := client.New(cfg, testutil.NewTestLogger())
	require.NoError(t, err)
	defer reopened.Close(ctx)

	require.NoError(t, reopened.Session.Unlock(testPassphrase))

	count, err = reopened.Entries.Count()
	require.NoError(t, err)
	assert.Equal(t, len(fixtures)+1, count)

	handle, err = reopened.Entries.Open(ctx, digits.ID, 0)
	require.NoError(t, err)
	data, err := io.ReadAll(handle)
	require.NoError(t, err)
	require.NoError(t, handle.Close())
	assert.Equal(t, "0123456789", string(data))
}

func TestSeekMatchesPlaintext(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	helpers := testutil.NewTestHelpers(t)
	defer helpers.Cleanup()

	c, _ := newVault(t, helpers.TempDir())

	ctx, cancel := testutil.TestContext()
	defer cancel()

	plaintext := testutil.RandomPlaintext(64 * 1024)
	entry, err := c.Entries.Import(ctx, bytes.NewReader(plaintext), "random.bin")
	require.NoError(t, err)

	size := int64(len(plaintext))
	offsets := []int64{0, 1, 4095, 4096, 32768, size - 1, size}

	for _, offset := range offsets {
		handle, err := c.Entries.Open(ctx, entry.ID, offset)
		require.NoError(t, err, "open at %d", offset)

		data, err := io.ReadAll(handle)
		require.NoError(t, err, "read from %d", offset)
		require.NoError(t, handle.Close())

		assert.Equal(t, plaintext[offset:], data, "mismatch from offset %d", offset)
	}
}

func TestTamperedBlobFailsAuthentication(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	helpers := testutil.NewTestHelpers(t)
	defer helpers.Cleanup()

	c, cfg := newVault(t, helpers.TempDir())

	ctx, cancel := testutil.TestContext()
	defer cancel()

	plaintext := testutil.RandomPlaintext(8 * 1024)
	entry, err := c.Entries.Import(ctx, bytes.NewReader(plaintext), "victim.bin")
	require.NoError(t, err)

	blobPath := filepath.Join(cfg.Storage.DataDir, entry.BlobName)
	pristine, err := os.ReadFile(blobPath)
	require.NoError(t, err)

	tests := []struct {
		name   string
		tamper func(blob []byte) []byte
	}{
		{"flipped ciphertext byte", func(blob []byte) []byte {
			blob[len(blob)/2] ^= 0x01
			return blob
		}},
		{"flipped IV byte", func(blob []byte) []byte {
			blob[0] ^= 0x01
			return blob
		}},
		{"flipped tag byte", func(blob []byte) []byte {
			blob[len(blob)-1] ^= 0x01
			return blob
		}},
		{"truncated blob", func(blob []byte) []byte {
			return blob[:len(blob)-7]
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob := make([]byte, len(pristine))
			copy(blob, pristine)
			require.NoError(t, os.WriteFile(blobPath, tt.tamper(blob), 0600))

			handle, err := c.Entries.Open(ctx, entry.ID, 0)
			require.NoError(t, err, "tampering is only detectable while reading")

			_, err = io.ReadAll(handle)
			require.NoError(t, handle.Close())
			assert.ErrorIs(t, err, models.ErrAuthenticationFailed)

			assert.ErrorIs(t, c.Entries.Verify(ctx, entry.ID), models.ErrAuthenticationFailed)
		})
	}

	// The pristine blob still reads cleanly.
	require.NoError(t, os.WriteFile(blobPath, pristine, 0600))
	assert.NoError(t, c.Entries.Verify(ctx, entry.ID))
}

func TestFailedImportLeavesNoResidue(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	helpers := testutil.NewTestHelpers(t)
	defer helpers.Cleanup()

	c, cfg := newVault(t, helpers.TempDir())

	ctx, cancel := testutil.TestContext()
	defer cancel()

	src := io.MultiReader(
		bytes.NewReader(testutil.RandomPlaintext(4096)),
		failingReader{},
	)
	_, err := c.Entries.Import(ctx, src, "doomed.bin")
	require.Error(t, err)

	// No blob, no temp file, no index record.
	files, err := os.ReadDir(cfg.Storage.DataDir)
	require.NoError(t, err)
	assert.Empty(t, files, "blob directory must be clean after a failed import")

	count, err := c.Entries.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestLockFencesOperations(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	helpers := testutil.NewTestHelpers(t)
	defer helpers.Cleanup()

	c, _ := newVault(t, helpers.TempDir())

	ctx, cancel := testutil.TestContext()
	defer cancel()

	plaintext := testutil.RandomPlaintext(16 * 1024)
	entry, err := c.Entries.Import(ctx, bytes.NewReader(plaintext), "held.bin")
	require.NoError(t, err)

	// Open before locking.
	handle, err := c.Entries.Open(ctx, entry.ID, 0)
	require.NoError(t, err)

	c.Session.Lock()

	// New operations are fenced.
	_, err = c.Entries.Import(ctx, bytes.NewReader([]byte("data")), "late.bin")
	assert.ErrorIs(t, err, models.ErrVaultLocked)

	_, err = c.Entries.Open(ctx, entry.ID, 0)
	assert.ErrorIs(t, err, models.ErrVaultLocked)

	// The stream opened before the lock keeps its cipher state and
	// reads through to a verified EOF.
	data, err := io.ReadAll(handle)
	require.NoError(t, err)
	require.NoError(t, handle.Close())
	assert.Equal(t, plaintext, data)

	// Wrong passphrase does not unlock.
	assert.ErrorIs(t, c.Session.Unlock("wrong passphrase"), models.ErrWrongPassphrase)
	assert.False(t, c.Session.Unlocked())

	require.NoError(t, c.Session.Unlock(testPassphrase))
	assert.True(t, c.Session.Unlocked())
}

func TestDeleteRemovesCiphertext(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	helpers := testutil.NewTestHelpers(t)
	defer helpers.Cleanup()

	c, cfg := newVault(t, helpers.TempDir())

	ctx, cancel := testutil.TestContext()
	defer cancel()

	entry, err := c.Entries.Import(ctx, bytes.NewReader(testutil.RandomPlaintext(1024)), "victim.bin")
	require.NoError(t, err)

	blobPath := filepath.Join(cfg.Storage.DataDir, entry.BlobName)
	helpers.AssertFileExists(blobPath)

	require.NoError(t, c.Entries.Delete(ctx, entry.ID))

	helpers.AssertFileNotExists(blobPath)
	count, err := c.Entries.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestConcurrentReaders(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	helpers := testutil.NewTestHelpers(t)
	defer helpers.Cleanup()

	c, _ := newVault(t, helpers.TempDir())

	ctx, cancel := testutil.TestContext()
	defer cancel()

	plaintext := testutil.RandomPlaintext(128 * 1024)
	entry, err := c.Entries.Import(ctx, bytes.NewReader(plaintext), "shared.bin")
	require.NoError(t, err)

	const readers = 8
	size := int64(len(plaintext))

	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []error

	for i := 0; i < readers; i++ {
		offset := size * int64(i) / readers

		wg.Add(1)
		go func() {
			defer wg.Done()

			handle, err := c.Entries.Open(ctx, entry.ID, offset)
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return
			}
			defer handle.Close()

			data, err := io.ReadAll(handle)
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return
			}

			if !bytes.Equal(plaintext[offset:], data) {
				mu.Lock()
				errs = append(errs, io.ErrUnexpectedEOF)
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	require.Empty(t, errs, "concurrent reads should succeed")
}

func TestCloseDrainsReleasedHandles(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	helpers := testutil.NewTestHelpers(t)
	defer helpers.Cleanup()

	c, _ := newVault(t, helpers.TempDir())

	ctx, cancel := testutil.TestContext()
	defer cancel()

	entry, err := c.Entries.Import(ctx, bytes.NewReader(testutil.RandomPlaintext(1024)), "held.bin")
	require.NoError(t, err)

	const handles = 5
	for i := 0; i < handles; i++ {
		handle, err := c.Entries.Open(ctx, entry.ID, 0)
		require.NoError(t, err)
		handle.Release()
	}

	require.NoError(t, c.Close(ctx))

	stats := c.CloserStats()
	assert.GreaterOrEqual(t, stats["closed"], int64(handles), "all released handles must be closed on shutdown")
	assert.Zero(t, stats["queued"])
}

// failingReader fails every read, standing in for a ripped-out device.
type failingReader struct{}

func (failingReader) Read(p []byte) (int, error) {
	return 0, os.ErrClosed
}
