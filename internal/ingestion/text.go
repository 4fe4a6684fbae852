// Package ingestion turns uploaded case documents into the plain-text material
// the forensic analyst reads.
package ingestion

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jonathan/courtroom-viz/internal/types"
)

var (
	whitespaceRun   = regexp.MustCompile(`\s+`)
	blankLineRun    = regexp.MustCompile(`\n\n\n+`)
	bulletPrefixes  = []string{"- ", "* ", "• ", "· "}
	maxDocumentSize = int64(50 << 20)
)

// CleanText cleans and normalizes text content while preserving structure
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	// Normalize line endings (CRLF → LF)
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	cleanedLines := make([]string, 0, len(lines))
	for _, line := range lines {
		cleanedLines = append(cleanedLines, cleanLine(line))
	}

	result := strings.Join(cleanedLines, "\n")
	result = removeExcessiveBlankLines(result)
	return strings.TrimSpace(result)
}

// cleanLine cleans a single line while preserving structure
func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t")
	if strings.TrimSpace(line) == "" {
		return ""
	}

	// Keep markdown headings as-is, normalize leading spaces to 0
	trimmed := strings.TrimLeft(line, " \t")
	if strings.HasPrefix(trimmed, "#") {
		return trimmed
	}

	// Numbered paragraphs and bullets in statements keep their indentation
	if isBulletLine(line) {
		indent := len(line) - len(trimmed)
		return strings.Repeat(" ", indent) + trimmed
	}

	leadingSpace := len(line) - len(trimmed)
	content := whitespaceRun.ReplaceAllString(strings.TrimSpace(line), " ")
	return strings.Repeat(" ", leadingSpace) + content
}

// isBulletLine checks if a line is a bullet list item
func isBulletLine(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	for _, prefix := range bulletPrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}

// removeExcessiveBlankLines reduces consecutive blank lines to max 2
func removeExcessiveBlankLines(content string) string {
	return blankLineRun.ReplaceAllString(content, "\n\n")
}

// ReadDocumentFile loads a case document from disk and classifies it
func ReadDocumentFile(path string) (types.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return types.Document{}, fmt.Errorf("file not found: %w", err)
		}
		return types.Document{}, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.Size() > maxDocumentSize {
		return types.Document{}, fmt.Errorf("file %s exceeds %d bytes", path, maxDocumentSize)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return types.Document{}, fmt.Errorf("failed to read file: %w", err)
	}

	return types.NewDocument(filepath.Base(path), content), nil
}
