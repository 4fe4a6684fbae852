package ingestion

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/jonathan/courtroom-viz/internal/types"
)

// Method records how a document's text was obtained
type Method string

// Ingestion methods
const (
	MethodInline   Method = "inline"
	MethodHTML     Method = "html"
	MethodModel    Method = "model"
	MethodFallback Method = "fallback"
	MethodSkipped  Method = "skipped"
)

// SourceInfo describes one ingested document
type SourceInfo struct {
	Filename string          `json:"filename"`
	Kind     types.MediaKind `json:"media_kind"`
	Hash     string          `json:"hash"` // SHA256 hex digest of the raw bytes
	Method   Method          `json:"method"`
	Chars    int             `json:"chars"`
	Error    string          `json:"error,omitempty"`
}

func newSourceInfo(doc types.Document) SourceInfo {
	return SourceInfo{
		Filename: doc.Filename,
		Kind:     doc.Kind,
		Hash:     computeHash(doc.Data),
	}
}

// computeHash computes SHA256 hash of content and returns hex string
func computeHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}
