package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sr093906/photok/internal/models"
)

func TestDetectMediaKind(t *testing.T) {
	tests := []struct {
		name string
		head []byte
		want models.MediaKind
	}{
		{
			name: "jpeg",
			head: []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'},
			want: models.MediaPhoto,
		},
		{
			name: "png",
			head: []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0},
			want: models.MediaPhoto,
		},
		{
			name: "gif",
			head: []byte("GIF89a______"),
			want: models.MediaPhoto,
		},
		{
			name: "bmp",
			head: []byte{'B', 'M', 0x36, 0x10, 0x0E, 0, 0, 0, 0, 0, 0x36, 0, 0, 0},
			want: models.MediaPhoto,
		},
		{
			name: "webp",
			head: []byte("RIFF\x24\x00\x00\x00WEBPVP8 "),
			want: models.MediaPhoto,
		},
		{
			name: "heic",
			head: []byte{0, 0, 0, 0x18, 'f', 't', 'y', 'p', 'h', 'e', 'i', 'c'},
			want: models.MediaPhoto,
		},
		{
			name: "mp4",
			head: []byte{0, 0, 0, 0x20, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm'},
			want: models.MediaVideo,
		},
		{
			name: "quicktime",
			head: []byte{0, 0, 0, 0x14, 'f', 't', 'y', 'p', 'q', 't', ' ', ' '},
			want: models.MediaVideo,
		},
		{
			name: "webm",
			head: []byte{0x1A, 0x45, 0xDF, 0xA3, 0x9F, 0x42, 0x86, 0x81},
			want: models.MediaVideo,
		},
		{
			name: "avi",
			head: []byte("RIFF\x00\x00\x00\x00AVI LIST"),
			want: models.MediaVideo,
		},
		{
			name: "plain text",
			head: []byte("hello world, not media at all"),
			want: models.MediaOther,
		},
		{
			name: "riff but unknown form",
			head: []byte("RIFF\x00\x00\x00\x00WAVEfmt "),
			want: models.MediaOther,
		},
		{
			name: "empty",
			head: nil,
			want: models.MediaOther,
		},
		{
			name: "too short for container check",
			head: []byte{0xFF},
			want: models.MediaOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := models.DetectMediaKind(tt.head)
			assert.Equal(t, tt.want, got)
		})
	}
}
