package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectMediaKind(t *testing.T) {
	tests := []struct {
		filename string
		data     []byte
		expected MediaKind
	}{
		{"report.pdf", []byte("%PDF-1.4"), MediaPDF},
		{"statement.TXT", []byte("hello"), MediaText},
		{"page.html", []byte("<html></html>"), MediaHTML},
		{"scene.jpg", []byte{0xFF, 0xD8, 0xFF}, MediaImage},
		{"call.mp3", []byte("ID3"), MediaAudio},
		{"dashcam.mov", []byte{}, MediaVideo},
		{"brief.docx", []byte("PK"), MediaWord},
		{"noext", []byte("%PDF-1.7\n"), MediaPDF},
		{"noext", []byte("<!DOCTYPE html><html><body>x</body></html>"), MediaHTML},
		{"noext", []byte("plain words"), MediaText},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectMediaKind(tt.filename, tt.data))
		})
	}
}

func TestDocument_MIMEType(t *testing.T) {
	assert.Equal(t, "application/pdf", NewDocument("a.pdf", []byte("%PDF")).MIMEType())
	assert.Equal(t, "image/png", NewDocument("a.PNG", []byte{}).MIMEType())
	assert.Equal(t, "text/plain", NewDocument("noext", []byte("words")).MIMEType())
}

func TestDocument_IsTextual(t *testing.T) {
	assert.True(t, NewDocument("a.txt", []byte("x")).IsTextual())
	assert.True(t, NewDocument("a.html", []byte("x")).IsTextual())
	assert.False(t, NewDocument("a.pdf", []byte("x")).IsTextual())
}
