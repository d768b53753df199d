package payload

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func b64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

func TestNormalizeImageDataURI(t *testing.T) {
	data := b64([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 1, 2, 3})

	mime, out := NormalizeImage("data:image/png;base64," + data)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, data, out)

	// Declared MIME wins even when it disagrees with the bytes.
	mime, out = NormalizeImage("data:image/webp;base64," + data)
	assert.Equal(t, "image/webp", mime)
	assert.Equal(t, data, out)
}

func TestNormalizeImageSniffing(t *testing.T) {
	tests := []struct {
		name  string
		bytes []byte
		want  string
	}{
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 1, 2, 3, 4, 5, 6, 7}, "image/jpeg"},
		{"png", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 1, 2, 3, 4}, "image/png"},
		{"gif", []byte("GIF89a______"), "image/gif"},
		{"webp", []byte("RIFF\x10\x00\x00\x00WEBPVP8 "), "image/webp"},
		{"riff but not webp", []byte("RIFF\x10\x00\x00\x00WAVEfmt "), "image/jpeg"},
		{"unknown defaults to jpeg", []byte("hello world!"), "image/jpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := b64(tt.bytes)
			mime, out := NormalizeImage(data)
			assert.Equal(t, tt.want, mime)
			assert.Equal(t, data, out)
		})
	}
}

func TestNormalizeImageMalformedInput(t *testing.T) {
	// Not valid base64 at all: passes through with the default guess.
	mime, out := NormalizeImage("!!not-base64!!")
	assert.Equal(t, "image/jpeg", mime)
	assert.Equal(t, "!!not-base64!!", out)
}

func TestValidateImage(t *testing.T) {
	assert.Error(t, ValidateImage(""))
	assert.NoError(t, ValidateImage(b64([]byte{0xFF, 0xD8})))
	assert.Error(t, ValidateImage(strings.Repeat("A", MaxEncodedSize+1)))
}

func TestValidateAudio(t *testing.T) {
	assert.Error(t, ValidateAudio("", "audio/m4a"))
	assert.Error(t, ValidateAudio("QUJD", ""))
	assert.NoError(t, ValidateAudio("QUJD", "audio/m4a"))
	assert.Error(t, ValidateAudio(strings.Repeat("A", MaxEncodedSize+1), "audio/m4a"))
}

func TestDecode(t *testing.T) {
	out, err := Decode(b64([]byte("abc")))
	assert.NoError(t, err)
	assert.Equal(t, []byte("abc"), out)

	_, err = Decode("!!!")
	assert.Error(t, err)
}
