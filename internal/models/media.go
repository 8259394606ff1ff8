package models

import "bytes"

// SniffLen is the number of leading plaintext bytes needed for media
// kind detection.
const SniffLen = 16

// HEIC/HEIF brand codes inside an ISO-BMFF ftyp box.
var heifBrands = map[string]bool{
	"heic": true, "heix": true, "hevc": true, "hevx": true,
	"mif1": true, "msf1": true, "avif": true,
}

// DetectMediaKind classifies content by its leading bytes. Anything
// that is not a recognized image or video container is MediaOther.
func DetectMediaKind(head []byte) MediaKind {
	if len(head) >= 3 && bytes.HasPrefix(head, []byte{0xFF, 0xD8, 0xFF}) {
		return MediaPhoto // JPEG
	}
	if bytes.HasPrefix(head, []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}) {
		return MediaPhoto
	}
	if bytes.HasPrefix(head, []byte("GIF8")) {
		return MediaPhoto
	}
	if bytes.HasPrefix(head, []byte("BM")) && len(head) >= 14 {
		return MediaPhoto
	}

	// RIFF containers: WebP images, AVI video.
	if bytes.HasPrefix(head, []byte("RIFF")) && len(head) >= 12 {
		switch string(head[8:12]) {
		case "WEBP":
			return MediaPhoto
		case "AVI ":
			return MediaVideo
		}
		return MediaOther
	}

	// ISO base media (MP4, MOV, HEIC) carries an ftyp box at offset 4;
	// the brand at offset 8 separates still images from video.
	if len(head) >= 12 && string(head[4:8]) == "ftyp" {
		if heifBrands[string(head[8:12])] {
			return MediaPhoto
		}
		return MediaVideo
	}

	// Matroska / WebM EBML header.
	if bytes.HasPrefix(head, []byte{0x1A, 0x45, 0xDF, 0xA3}) {
		return MediaVideo
	}

	return MediaOther
}
