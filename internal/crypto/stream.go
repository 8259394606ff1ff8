package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"hash"
	"io"

	"github.com/sr093906/photok/internal/models"
)

// Stream blob layout: IV || ciphertext || tag. The tag is a single
// HMAC-SHA256 over IV and the whole ciphertext, appended when the
// writer is closed and verified when the reader hits end of stream.
const (
	StreamIVSize  = aes.BlockSize // 16
	StreamTagSize = sha256.Size   // 32

	// StreamOverhead is the on-disk size added to every plaintext.
	StreamOverhead = StreamIVSize + StreamTagSize
)

const streamChunkSize = 32 * 1024

// StreamKey holds the derived subkeys for the stream codec. The
// cipher and MAC keys are separate so neither doubles for the other.
type StreamKey struct {
	enc []byte
	mac []byte
}

// Wipe zeroes both subkeys.
func (k *StreamKey) Wipe() {
	Wipe(k.enc)
	Wipe(k.mac)
}

// EncryptingWriter encrypts everything written to it with AES-256-CTR
// and appends an HMAC-SHA256 tag over IV and ciphertext on Close. The
// ciphertext is unusable until Close succeeds: without the tag no
// reader will authenticate it.
type EncryptingWriter struct {
	dst    io.Writer
	stream cipher.Stream
	mac    hash.Hash
	buf    []byte
	closed bool
	err    error
}

// NewEncryptingWriter generates a random IV, writes it to dst and
// returns a writer producing the authenticated stream format.
func NewEncryptingWriter(dst io.Writer, key *StreamKey) (*EncryptingWriter, error) {
	if key == nil || len(key.enc) != KeySize || len(key.mac) != KeySize {
		return nil, ErrInvalidKey
	}

	block, err := aes.NewCipher(key.enc)
	if err != nil {
		return nil, ErrInvalidKey
	}

	iv := make([]byte, StreamIVSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, &models.CryptoIOError{Op: "generate IV", Err: err}
	}

	mac := hmac.New(sha256.New, key.mac)
	mac.Write(iv)

	if _, err := dst.Write(iv); err != nil {
		return nil, &models.CryptoIOError{Op: "write IV", Err: err}
	}

	return &EncryptingWriter{
		dst:    dst,
		stream: cipher.NewCTR(block, iv),
		mac:    mac,
	}, nil
}

// Write encrypts p and forwards the ciphertext. Once an underlying
// write fails the writer is poisoned and every later call returns the
// same error.
func (w *EncryptingWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, models.ErrHandleClosed
	}
	if w.err != nil {
		return 0, w.err
	}
	if len(p) == 0 {
		return 0, nil
	}

	if cap(w.buf) < len(p) {
		w.buf = make([]byte, len(p))
	}
	ct := w.buf[:len(p)]
	w.stream.XORKeyStream(ct, p)
	w.mac.Write(ct)

	n, err := w.dst.Write(ct)
	if err != nil {
		w.err = &models.CryptoIOError{Op: "write", Err: err}
		return n, w.err
	}
	return len(p), nil
}

// Close finalizes the stream by appending the authentication tag. It
// does not close the underlying writer.
func (w *EncryptingWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	Wipe(w.buf)

	if w.err != nil {
		return w.err
	}

	tag := w.mac.Sum(nil)
	if _, err := w.dst.Write(tag); err != nil {
		return &models.CryptoIOError{Op: "write tag", Err: err}
	}
	return nil
}

// DecryptingReader decrypts an authenticated stream. It holds back
// the last StreamTagSize bytes of the source so the trailing tag is
// never released as plaintext, and verifies the tag when the source
// is exhausted. Read returns plaintext until EOF; a tag mismatch or a
// truncated stream surfaces as an AuthenticationError instead of EOF.
type DecryptingReader struct {
	src    io.Reader
	stream cipher.Stream
	mac    hash.Hash

	tail    [StreamTagSize]byte
	have    int
	chunk   []byte
	pending []byte
	out     []byte
	done    bool
	err     error
}

// NewDecryptingReader consumes the IV from src and returns a reader
// yielding the decrypted plaintext.
func NewDecryptingReader(src io.Reader, key *StreamKey) (*DecryptingReader, error) {
	if key == nil || len(key.enc) != KeySize || len(key.mac) != KeySize {
		return nil, ErrInvalidKey
	}

	block, err := aes.NewCipher(key.enc)
	if err != nil {
		return nil, ErrInvalidKey
	}

	iv := make([]byte, StreamIVSize)
	if _, err := io.ReadFull(src, iv); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, &models.AuthenticationError{Location: "stream header"}
		}
		return nil, &models.CryptoIOError{Op: "read IV", Err: err}
	}

	mac := hmac.New(sha256.New, key.mac)
	mac.Write(iv)

	return &DecryptingReader{
		src:     src,
		stream:  cipher.NewCTR(block, iv),
		mac:     mac,
		chunk:   make([]byte, streamChunkSize),
		pending: make([]byte, 0, streamChunkSize+StreamTagSize),
	}, nil
}

// Read yields decrypted plaintext. After the final plaintext byte the
// tag is verified; only then does Read return io.EOF.
func (r *DecryptingReader) Read(p []byte) (int, error) {
	if len(r.out) > 0 {
		n := copy(p, r.out)
		r.out = r.out[n:]
		return n, nil
	}
	if r.err != nil {
		return 0, r.err
	}
	if len(p) == 0 {
		return 0, nil
	}

	for {
		n, rerr := r.src.Read(r.chunk)
		if n > 0 {
			r.absorb(r.chunk[:n])
		}

		if rerr != nil {
			if rerr == io.EOF {
				if verr := r.verify(); verr != nil {
					r.err = verr
					return 0, r.err
				}
				r.err = io.EOF
			} else {
				r.err = &models.CryptoIOError{Op: "read", Err: rerr}
			}
		}

		if len(r.out) > 0 {
			n := copy(p, r.out)
			r.out = r.out[n:]
			return n, nil
		}
		if r.err != nil {
			return 0, r.err
		}
	}
}

// absorb appends newly read ciphertext to the holdback window and
// releases everything except the trailing StreamTagSize bytes as
// decrypted plaintext.
func (r *DecryptingReader) absorb(ct []byte) {
	r.pending = r.pending[:0]
	r.pending = append(r.pending, r.tail[:r.have]...)
	r.pending = append(r.pending, ct...)

	release := len(r.pending) - StreamTagSize
	if release <= 0 {
		r.have = copy(r.tail[:], r.pending)
		return
	}

	body := r.pending[:release]
	r.mac.Write(body)
	r.stream.XORKeyStream(body, body)
	r.out = body

	r.have = copy(r.tail[:], r.pending[release:])
}

// verify checks the held-back tag against the computed MAC.
func (r *DecryptingReader) verify() error {
	if r.done {
		return nil
	}
	r.done = true

	if r.have < StreamTagSize {
		return &models.AuthenticationError{Location: "truncated stream"}
	}

	expected := r.mac.Sum(nil)
	if !hmac.Equal(r.tail[:StreamTagSize], expected) {
		return &models.AuthenticationError{Location: "stream tag"}
	}
	return nil
}
