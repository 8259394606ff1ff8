package crypto_test

import (
	"bytes"
	"crypto/rand"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sr093906/photok/internal/crypto"
	"github.com/sr093906/photok/internal/models"
)

func newStreamKey(t *testing.T) *crypto.StreamKey {
	t.Helper()

	master := make([]byte, crypto.KeySize)
	_, err := rand.Read(master)
	require.NoError(t, err)

	keys, err := crypto.NewProvider().StreamKeys(master)
	require.NoError(t, err)
	return keys
}

func encryptStream(t *testing.T, key *crypto.StreamKey, plaintext []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	w, err := crypto.NewEncryptingWriter(&buf, key)
	require.NoError(t, err)

	_, err = w.Write(plaintext)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return buf.Bytes()
}

// failingWriter fails every write after the first n bytes.
type failingWriter struct {
	limit   int
	written int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.written+len(p) > w.limit {
		n := w.limit - w.written
		if n < 0 {
			n = 0
		}
		w.written = w.limit
		return n, errors.New("disk full")
	}
	w.written += len(p)
	return len(p), nil
}

// failingReader returns an error once its source is exhausted,
// instead of io.EOF.
type failingReader struct {
	src io.Reader
	err error
}

func (r *failingReader) Read(p []byte) (int, error) {
	n, err := r.src.Read(p)
	if err == io.EOF {
		return n, r.err
	}
	return n, err
}

func TestStreamRoundTrip(t *testing.T) {
	key := newStreamKey(t)

	tests := []struct {
		name string
		size int
	}{
		{"empty", 0},
		{"single byte", 1},
		{"below tag size", crypto.StreamTagSize - 1},
		{"exactly tag size", crypto.StreamTagSize},
		{"above tag size", crypto.StreamTagSize + 1},
		{"one chunk minus one", 32*1024 - 1},
		{"one chunk", 32 * 1024},
		{"one chunk plus one", 32*1024 + 1},
		{"several chunks", 100 * 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plaintext := make([]byte, tt.size)
			_, err := rand.Read(plaintext)
			require.NoError(t, err)

			blob := encryptStream(t, key, plaintext)
			assert.Len(t, blob, tt.size+crypto.StreamOverhead)

			r, err := crypto.NewDecryptingReader(bytes.NewReader(blob), key)
			require.NoError(t, err)

			decrypted, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, plaintext, decrypted)
		})
	}
}

func TestStreamIncrementalWrites(t *testing.T) {
	key := newStreamKey(t)

	plaintext := []byte("0123456789")

	var buf bytes.Buffer
	w, err := crypto.NewEncryptingWriter(&buf, key)
	require.NoError(t, err)

	// Write a byte at a time
	for _, b := range plaintext {
		n, err := w.Write([]byte{b})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	}
	require.NoError(t, w.Close())

	r, err := crypto.NewDecryptingReader(bytes.NewReader(buf.Bytes()), key)
	require.NoError(t, err)

	decrypted, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestStreamSmallReads(t *testing.T) {
	key := newStreamKey(t)

	plaintext := make([]byte, 1000)
	_, err := rand.Read(plaintext)
	require.NoError(t, err)

	blob := encryptStream(t, key, plaintext)

	r, err := crypto.NewDecryptingReader(bytes.NewReader(blob), key)
	require.NoError(t, err)

	// Drain one byte at a time
	var decrypted []byte
	one := make([]byte, 1)
	for {
		n, err := r.Read(one)
		if n > 0 {
			decrypted = append(decrypted, one[0])
		}
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}

	assert.Equal(t, plaintext, decrypted)
}

func TestStreamCiphertextVaries(t *testing.T) {
	key := newStreamKey(t)
	plaintext := []byte("same message")

	blob1 := encryptStream(t, key, plaintext)
	blob2 := encryptStream(t, key, plaintext)

	// Random IV makes every blob unique
	assert.NotEqual(t, blob1, blob2)
}

func TestStreamTamperDetection(t *testing.T) {
	key := newStreamKey(t)

	plaintext := make([]byte, 256)
	_, err := rand.Read(plaintext)
	require.NoError(t, err)

	blob := encryptStream(t, key, plaintext)

	tests := []struct {
		name   string
		offset int
	}{
		{"IV byte", 0},
		{"last IV byte", crypto.StreamIVSize - 1},
		{"first ciphertext byte", crypto.StreamIVSize},
		{"last ciphertext byte", len(blob) - crypto.StreamTagSize - 1},
		{"first tag byte", len(blob) - crypto.StreamTagSize},
		{"last tag byte", len(blob) - 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tampered := make([]byte, len(blob))
			copy(tampered, blob)
			tampered[tt.offset] ^= 0xFF

			r, err := crypto.NewDecryptingReader(bytes.NewReader(tampered), key)
			require.NoError(t, err)

			_, err = io.ReadAll(r)
			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrAuthenticationFailed)

			var authErr *models.AuthenticationError
			assert.ErrorAs(t, err, &authErr)
		})
	}
}

func TestStreamTruncation(t *testing.T) {
	key := newStreamKey(t)

	plaintext := []byte("truncation target data")
	blob := encryptStream(t, key, plaintext)

	tests := []struct {
		name string
		keep int
	}{
		{"missing last byte", len(blob) - 1},
		{"missing tag", len(blob) - crypto.StreamTagSize},
		{"only IV and partial tag", crypto.StreamIVSize + 10},
		{"only IV", crypto.StreamIVSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := crypto.NewDecryptingReader(bytes.NewReader(blob[:tt.keep]), key)
			require.NoError(t, err)

			_, err = io.ReadAll(r)
			assert.ErrorIs(t, err, models.ErrAuthenticationFailed)
		})
	}

	t.Run("shorter than IV", func(t *testing.T) {
		_, err := crypto.NewDecryptingReader(bytes.NewReader(blob[:8]), key)
		assert.ErrorIs(t, err, models.ErrAuthenticationFailed)
	})

	t.Run("empty source", func(t *testing.T) {
		_, err := crypto.NewDecryptingReader(bytes.NewReader(nil), key)
		assert.ErrorIs(t, err, models.ErrAuthenticationFailed)
	})
}

func TestStreamUnfinalizedWriter(t *testing.T) {
	key := newStreamKey(t)

	var buf bytes.Buffer
	w, err := crypto.NewEncryptingWriter(&buf, key)
	require.NoError(t, err)

	_, err = w.Write([]byte("never finalized"))
	require.NoError(t, err)

	// No Close: the blob has no tag and must not authenticate.
	r, err := crypto.NewDecryptingReader(bytes.NewReader(buf.Bytes()), key)
	require.NoError(t, err)

	_, err = io.ReadAll(r)
	assert.ErrorIs(t, err, models.ErrAuthenticationFailed)
}

func TestStreamWrongKey(t *testing.T) {
	key := newStreamKey(t)
	other := newStreamKey(t)

	blob := encryptStream(t, key, []byte("secret payload"))

	r, err := crypto.NewDecryptingReader(bytes.NewReader(blob), other)
	require.NoError(t, err)

	_, err = io.ReadAll(r)
	assert.ErrorIs(t, err, models.ErrAuthenticationFailed)
}

func TestStreamWriteAfterClose(t *testing.T) {
	key := newStreamKey(t)

	var buf bytes.Buffer
	w, err := crypto.NewEncryptingWriter(&buf, key)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = w.Write([]byte("late"))
	assert.ErrorIs(t, err, models.ErrHandleClosed)

	// Close is idempotent
	assert.NoError(t, w.Close())
}

func TestStreamWriteFailure(t *testing.T) {
	key := newStreamKey(t)

	t.Run("failure during write poisons the writer", func(t *testing.T) {
		dst := &failingWriter{limit: crypto.StreamIVSize + 4}
		w, err := crypto.NewEncryptingWriter(dst, key)
		require.NoError(t, err)

		_, err = w.Write(make([]byte, 64))
		require.Error(t, err)

		var ioErr *models.CryptoIOError
		assert.ErrorAs(t, err, &ioErr)

		// Sticky: later writes return the same failure
		_, err2 := w.Write([]byte("more"))
		assert.Equal(t, err, err2)
		assert.Error(t, w.Close())
	})

	t.Run("failure writing IV", func(t *testing.T) {
		dst := &failingWriter{limit: 0}
		_, err := crypto.NewEncryptingWriter(dst, key)

		var ioErr *models.CryptoIOError
		assert.ErrorAs(t, err, &ioErr)
	})

	t.Run("failure writing tag", func(t *testing.T) {
		dst := &failingWriter{limit: crypto.StreamIVSize + 8}
		w, err := crypto.NewEncryptingWriter(dst, key)
		require.NoError(t, err)

		_, err = w.Write(make([]byte, 8))
		require.NoError(t, err)

		var ioErr *models.CryptoIOError
		err = w.Close()
		assert.ErrorAs(t, err, &ioErr)
	})
}

func TestStreamReadFailure(t *testing.T) {
	key := newStreamKey(t)

	blob := encryptStream(t, key, []byte("payload"))

	src := &failingReader{
		src: bytes.NewReader(blob),
		err: errors.New("device error"),
	}

	r, err := crypto.NewDecryptingReader(src, key)
	require.NoError(t, err)

	_, err = io.ReadAll(r)
	require.Error(t, err)

	var ioErr *models.CryptoIOError
	assert.ErrorAs(t, err, &ioErr)
	assert.NotErrorIs(t, err, models.ErrAuthenticationFailed)
}

func TestStreamRejectsBadKey(t *testing.T) {
	var buf bytes.Buffer

	_, err := crypto.NewEncryptingWriter(&buf, nil)
	assert.ErrorIs(t, err, crypto.ErrInvalidKey)

	_, err = crypto.NewDecryptingReader(&buf, nil)
	assert.ErrorIs(t, err, crypto.ErrInvalidKey)
}
