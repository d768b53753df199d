// Package payload normalizes media payloads before they are sent to a
// provider: data-URI prefixes are stripped, image MIME types are sniffed
// from magic bytes, and size limits are enforced.
package payload

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"regexp"
)

// MaxEncodedSize is the largest accepted base64 payload (5 MB encoded).
// Oversized payloads are rejected before any provider call.
const MaxEncodedSize = 5 * 1024 * 1024

const defaultImageMIME = "image/jpeg"

var dataURIPattern = regexp.MustCompile(`^data:([a-zA-Z0-9][a-zA-Z0-9.+/-]*);base64,(.*)$`)

// Magic-byte prefixes for the image formats we accept. WEBP needs a
// second check for the "WEBP" marker after the RIFF header.
var imageSignatures = []struct {
	mime   string
	prefix []byte
}{
	{"image/jpeg", []byte{0xFF, 0xD8}},
	{"image/png", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}},
	{"image/gif", []byte{0x47, 0x49, 0x46, 0x38}},
	{"image/webp", []byte{0x52, 0x49, 0x46, 0x46}},
}

// NormalizeImage splits a data-URI image payload into its declared MIME type
// and base64 data. Payloads without a data-URI prefix are sniffed against
// known magic bytes, defaulting to image/jpeg. It never fails: worst case
// the input passes through unchanged with a MIME guess.
func NormalizeImage(raw string) (mimeType string, data string) {
	if m := dataURIPattern.FindStringSubmatch(raw); m != nil {
		return m[1], m[2]
	}
	return sniffMIME(raw), raw
}

// sniffMIME decodes the first bytes of a base64 string and matches them
// against known image signatures.
func sniffMIME(data string) string {
	// 24 base64 chars decode to 18 bytes, enough for every signature
	// including the WEBP marker at offset 8.
	head := data
	if len(head) > 24 {
		head = head[:24]
	}
	decoded, err := base64.StdEncoding.WithPadding(base64.NoPadding).DecodeString(head)
	if err != nil {
		// Try again allowing padding in case the payload is tiny.
		decoded, err = base64.StdEncoding.DecodeString(head)
		if err != nil {
			return defaultImageMIME
		}
	}
	for _, sig := range imageSignatures {
		if !bytes.HasPrefix(decoded, sig.prefix) {
			continue
		}
		if sig.mime == "image/webp" {
			if len(decoded) < 12 || !bytes.Equal(decoded[8:12], []byte("WEBP")) {
				continue
			}
		}
		return sig.mime
	}
	return defaultImageMIME
}

// ValidateImage checks an encoded image payload against the size cap.
func ValidateImage(raw string) error {
	if raw == "" {
		return fmt.Errorf("no image provided")
	}
	if len(raw) > MaxEncodedSize {
		return fmt.Errorf("image payload too large: %d bytes (max %d)", len(raw), MaxEncodedSize)
	}
	return nil
}

// ValidateAudio checks an encoded audio payload. Audio formats are not
// sniffed here; the MIME type must be supplied by the caller.
func ValidateAudio(raw, mimeType string) error {
	if raw == "" {
		return fmt.Errorf("no audio provided")
	}
	if mimeType == "" {
		return fmt.Errorf("audio MIME type is required")
	}
	if len(raw) > MaxEncodedSize {
		return fmt.Errorf("audio payload too large: %d bytes (max %d)", len(raw), MaxEncodedSize)
	}
	return nil
}

// Decode decodes a base64 payload into raw bytes.
func Decode(data string) ([]byte, error) {
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 payload: %w", err)
	}
	return decoded, nil
}
