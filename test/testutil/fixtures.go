package testutil

import (
	"crypto/rand"
	"fmt"
	"io"
	"time"

	"github.com/sr093906/photok/internal/crypto"
	"github.com/sr093906/photok/internal/events"
	"github.com/sr093906/photok/internal/models"
)

// NewTestLogger creates a logger for testing.
func NewTestLogger() *events.Logger {
	return events.NewTestLogger(io.Discard)
}

// NewCapturedLogger creates a logger whose JSON output is captured for
// assertions.
func NewCapturedLogger() (*events.Logger, *LogOutput) {
	output := NewLogOutput()
	return events.NewTestLogger(output), output
}

// TestMasterKey returns a fixed master key so derived stream keys are
// stable across test runs.
func TestMasterKey() []byte {
	key := make([]byte, crypto.KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

// TestStreamKeys derives stream keys from the fixed test master key.
func TestStreamKeys() *crypto.StreamKey {
	keys, err := crypto.NewProvider().StreamKeys(TestMasterKey())
	if err != nil {
		panic(err)
	}
	return keys
}

// RandomPlaintext returns size random bytes.
func RandomPlaintext(size int) []byte {
	data := make([]byte, size)
	if _, err := rand.Read(data); err != nil {
		panic(err)
	}
	return data
}

// MediaFixture is a named media sample with its expected classification.
type MediaFixture struct {
	Name string
	Data []byte
	Kind models.MediaKind
}

// Media container signatures. Each is long enough for the sniff window.
var (
	JPEGHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01, 0x01, 0x00, 0x00, 0x01}
	PNGHeader  = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 'I', 'H', 'D', 'R'}
	GIFHeader  = []byte("GIF89a\x10\x00\x10\x00\x80\x00\x00\x00\x00")
	WebPHeader = []byte("RIFF\x24\x00\x00\x00WEBPVP8 ")
	HEICHeader = []byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'h', 'e', 'i', 'c', 0x00, 0x00, 0x00, 0x00}
	MP4Header  = []byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm', 0x00, 0x00, 0x02, 0x00}
	WebMHeader = []byte{0x1A, 0x45, 0xDF, 0xA3, 0x9F, 0x42, 0x86, 0x81, 0x01, 0x42, 0xF7, 0x81, 0x01, 0x42, 0xF2, 0x81}
	AVIHeader  = []byte("RIFF\x24\x00\x00\x00AVI LIST")
)

// MediaFixtures enumerates one sample per supported container plus an
// unclassifiable blob.
func MediaFixtures() []MediaFixture {
	return []MediaFixture{
		{"photo.jpg", SampleMedia(JPEGHeader, 512), models.MediaPhoto},
		{"photo.png", SampleMedia(PNGHeader, 512), models.MediaPhoto},
		{"photo.gif", SampleMedia(GIFHeader, 256), models.MediaPhoto},
		{"photo.webp", SampleMedia(WebPHeader, 256), models.MediaPhoto},
		{"photo.heic", SampleMedia(HEICHeader, 1024), models.MediaPhoto},
		{"video.mp4", SampleMedia(MP4Header, 2048), models.MediaVideo},
		{"video.webm", SampleMedia(WebMHeader, 2048), models.MediaVideo},
		{"video.avi", SampleMedia(AVIHeader, 1024), models.MediaVideo},
		{"document.txt", []byte("not a media file at all"), models.MediaOther},
	}
}

// SampleMedia builds a blob with the given container signature followed
// by bodySize deterministic filler bytes.
func SampleMedia(header []byte, bodySize int) []byte {
	data := make([]byte, 0, len(header)+bodySize)
	data = append(data, header...)
	for i := 0; i < bodySize; i++ {
		data = append(data, byte(i%251))
	}
	return data
}

// SampleEntry provides a test entry record.
func SampleEntry() *models.Entry {
	return &models.Entry{
		ID:            "entry-123",
		Name:          "holiday.jpg",
		BlobName:      "3f2a9c81-entry-blob",
		PlaintextSize: 1234,
		Kind:          models.MediaPhoto,
		CreatedAt:     time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
	}
}

// SampleEntries provides count sequential test entries.
func SampleEntries(count int) []*models.Entry {
	entries := make([]*models.Entry, 0, count)
	for i := 0; i < count; i++ {
		entries = append(entries, &models.Entry{
			ID:            fmt.Sprintf("entry-%03d", i),
			Name:          fmt.Sprintf("photo-%03d.jpg", i),
			BlobName:      fmt.Sprintf("blob-%03d", i),
			PlaintextSize: int64(1000 + i),
			Kind:          models.MediaPhoto,
			CreatedAt:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Hour),
		})
	}
	return entries
}
