package ingestion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/courtroom-viz/internal/types"
)

func TestCleanText_PreserveMarkdownHeadings(t *testing.T) {
	input := "# Title\n## Subtitle\nContent here"
	result := CleanText(input)

	assert.Contains(t, result, "# Title")
	assert.Contains(t, result, "## Subtitle")
	assert.Contains(t, result, "Content here")
}

func TestCleanText_PreserveBulletLists(t *testing.T) {
	input := "- Item 1\n- Item 2\n* Item 3"
	result := CleanText(input)

	assert.Contains(t, result, "- Item 1")
	assert.Contains(t, result, "- Item 2")
	assert.Contains(t, result, "* Item 3")
}

func TestCleanText_NormalizeWhitespace(t *testing.T) {
	input := "Line    with    multiple    spaces"
	result := CleanText(input)

	assert.Contains(t, result, "Line with multiple spaces")
	assert.NotContains(t, result, "    ") // Should not have 4 spaces
}

func TestCleanText_RemoveExcessiveBlankLines(t *testing.T) {
	input := "Line 1\n\n\n\n\nLine 2"
	result := CleanText(input)

	// Should have max 2 consecutive newlines
	assert.NotContains(t, result, "\n\n\n\n")
	// But should preserve up to 2
	assert.Contains(t, result, "\n\n")
}

func TestCleanText_NormalizeLineEndings(t *testing.T) {
	input := "Line 1\r\nLine 2\rLine 3\nLine 4"
	result := CleanText(input)

	// All should be normalized to LF
	assert.NotContains(t, result, "\r\n")
	assert.NotContains(t, result, "\r")
	assert.Contains(t, result, "\n")
}

func TestCleanText_DeterministicOutput(t *testing.T) {
	input := "Test content   with   spaces\n\n\nMultiple   blank   lines"
	result1 := CleanText(input)
	result2 := CleanText(input)

	// Same input should produce identical output
	assert.Equal(t, result1, result2)
}

func TestCleanText_EmptyInput(t *testing.T) {
	result := CleanText("")
	assert.Empty(t, result)
}

func TestCleanText_OnlyWhitespace(t *testing.T) {
	result := CleanText("   \n  \n  ")
	assert.Empty(t, result)
}

func TestCleanText_SpecialCharacters(t *testing.T) {
	input := "Test with émojis 🚀 and spéciàl chàracters"
	result := CleanText(input)

	assert.Contains(t, result, "émojis")
	assert.Contains(t, result, "🚀")
	assert.Contains(t, result, "spéciàl chàracters")
}

func TestCleanText_PreserveIndentation(t *testing.T) {
	input := "    Indented line\n  Less indented"
	result := CleanText(input)

	// Should preserve relative indentation
	assert.Contains(t, result, "Indented")
	assert.Contains(t, result, "Less indented")
}

func TestCleanText_ComplexFormatting(t *testing.T) {
	// Read test fixture
	testFile := filepath.Join("testdata", "accident_report.txt")
	content, err := os.ReadFile(testFile)
	require.NoError(t, err)

	result := CleanText(string(content))

	// Should preserve headings
	assert.Contains(t, result, "# Collision Report")
	assert.Contains(t, result, "## Witnesses")

	// Should preserve bullets
	assert.Contains(t, result, "- Weather: light rain")
	assert.Contains(t, result, "* Road surface: wet asphalt")

	assert.Contains(t, result, "Location: Elm St and 4th Ave")
	assert.Contains(t, result, "    Mary Chen, pedestrian, northeast corner")
	assert.NotContains(t, result, "\r")
	assert.NotContains(t, result, "\n\n\n")
}

func TestCleanText_WitnessStatementBullets(t *testing.T) {
	input := "Statement of J. Doe\n  • Heard   tyres screech\n  • Saw the sedan   hit the post"
	result := CleanText(input)

	assert.Contains(t, result, "  • Heard   tyres screech", "bullet lines keep their spacing")
	assert.Contains(t, result, "Statement of J. Doe")
}

func TestReadDocumentFile_Success(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "police_report.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 report"), 0o600))

	doc, err := ReadDocumentFile(path)
	require.NoError(t, err)
	assert.Equal(t, "police_report.pdf", doc.Filename)
	assert.Equal(t, types.MediaPDF, doc.Kind)
	assert.Equal(t, "%PDF-1.4 report", string(doc.Data))
}

func TestReadDocumentFile_FileNotFound(t *testing.T) {
	_, err := ReadDocumentFile(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")
}
