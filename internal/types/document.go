package types

import (
	"net/http"
	"path/filepath"
	"strings"
)

// MediaKind classifies an uploaded document
type MediaKind string

// Supported media kinds
const (
	MediaText  MediaKind = "text"
	MediaHTML  MediaKind = "html"
	MediaPDF   MediaKind = "pdf"
	MediaImage MediaKind = "image"
	MediaAudio MediaKind = "audio"
	MediaVideo MediaKind = "video"
	MediaWord  MediaKind = "word"
)

var extensionKinds = map[string]MediaKind{
	".txt":  MediaText,
	".md":   MediaText,
	".csv":  MediaText,
	".json": MediaText,
	".html": MediaHTML,
	".htm":  MediaHTML,
	".pdf":  MediaPDF,
	".png":  MediaImage,
	".jpg":  MediaImage,
	".jpeg": MediaImage,
	".gif":  MediaImage,
	".webp": MediaImage,
	".bmp":  MediaImage,
	".mp3":  MediaAudio,
	".wav":  MediaAudio,
	".m4a":  MediaAudio,
	".ogg":  MediaAudio,
	".mp4":  MediaVideo,
	".mov":  MediaVideo,
	".avi":  MediaVideo,
	".doc":  MediaWord,
	".docx": MediaWord,
}

var extensionMIME = map[string]string{
	".txt":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".json": "application/json",
	".html": "text/html",
	".htm":  "text/html",
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
	".ogg":  "audio/ogg",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// Document is one uploaded piece of case material
type Document struct {
	Filename string    `json:"filename" validate:"required"`
	Data     []byte    `json:"-" validate:"min=1"`
	Kind     MediaKind `json:"media_kind" validate:"required,oneof=text html pdf image audio video word"`
}

// NewDocument builds a Document, detecting its kind from the extension and content
func NewDocument(filename string, data []byte) Document {
	return Document{
		Filename: filename,
		Data:     data,
		Kind:     DetectMediaKind(filename, data),
	}
}

// DetectMediaKind classifies a document by extension, falling back to content sniffing
func DetectMediaKind(filename string, data []byte) MediaKind {
	ext := strings.ToLower(filepath.Ext(filename))
	if kind, ok := extensionKinds[ext]; ok {
		return kind
	}
	return kindFromMIME(http.DetectContentType(data))
}

// MIMEType returns the content type sent to the model alongside the document bytes
func (d Document) MIMEType() string {
	ext := strings.ToLower(filepath.Ext(d.Filename))
	if mime, ok := extensionMIME[ext]; ok {
		return mime
	}
	mime := http.DetectContentType(d.Data)
	if idx := strings.Index(mime, ";"); idx >= 0 {
		mime = mime[:idx]
	}
	return mime
}

// IsTextual reports whether the document can be inlined as text
func (d Document) IsTextual() bool {
	return d.Kind == MediaText || d.Kind == MediaHTML
}

func kindFromMIME(mime string) MediaKind {
	switch {
	case strings.HasPrefix(mime, "text/html"):
		return MediaHTML
	case strings.HasPrefix(mime, "text/"):
		return MediaText
	case mime == "application/pdf":
		return MediaPDF
	case strings.HasPrefix(mime, "image/"):
		return MediaImage
	case strings.HasPrefix(mime, "audio/"):
		return MediaAudio
	case strings.HasPrefix(mime, "video/"):
		return MediaVideo
	case mime == "application/zip":
		// .docx files are zip containers
		return MediaWord
	}
	return MediaText
}
