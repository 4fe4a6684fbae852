package llm

import (
	"errors"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestFirstInlineImage(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "Here is your image"},
				{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}},
			}},
		}},
	}

	img, err := firstInlineImage(resp)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, img.Data)
}

func TestFirstInlineImage_TextOnly(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: "I cannot draw that."}}},
		}},
	}

	_, err := firstInlineImage(resp)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoImage))
	assert.Contains(t, err.Error(), "I cannot draw that.")
}

func TestFirstInlineImage_Empty(t *testing.T) {
	_, err := firstInlineImage(&genai.GenerateContentResponse{})
	assert.ErrorIs(t, err, ErrNoImage)

	_, err = firstInlineImage(nil)
	assert.ErrorIs(t, err, ErrNoImage)
}

func TestParseFigureCount(t *testing.T) {
	n, err := parseFigureCount("```json\n{\"people\": 2}\n```")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = parseFigureCount(`{"vehicles": 1}`)
	assert.Error(t, err)

	_, err = parseFigureCount("two people")
	assert.Error(t, err)
}

func TestNewGenAIImageClient_Validation(t *testing.T) {
	_, err := NewGenAIImageClient(t.Context(), nil, "")
	assert.Error(t, err)

	cfg := &Config{Provider: ProviderGemini, Models: map[ModelTier]string{TierStandard: "text-only"}}
	_, err = NewGenAIImageClient(t.Context(), cfg, "key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "image")
}

func TestTruncate_RuneSafe(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc...", truncate("abcdef", 3))

	got := truncate("Zeugenaussage über Größe", 15)
	assert.Equal(t, "Zeugenaussage ü...", got)
	assert.True(t, utf8.ValidString(got))

	got = truncate("事故現場の再現画像", 4)
	assert.Equal(t, "事故現場...", got)
	assert.True(t, utf8.ValidString(got))
}
