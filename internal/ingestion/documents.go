package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jonathan/courtroom-viz/internal/llm"
	"github.com/jonathan/courtroom-viz/internal/prompts"
	"github.com/jonathan/courtroom-viz/internal/types"
)

// Material is the combined text of a case's documents and free-text description
type Material struct {
	Text    string       `json:"text"`
	Sources []SourceInfo `json:"sources"`
}

// IsEmpty reports whether no usable text was collected
func (m *Material) IsEmpty() bool {
	return strings.TrimSpace(m.Text) == ""
}

// Compose collects the text of every document plus the free text. Text and HTML
// documents are inlined; other media are read by the model through reader. A
// binary document the model cannot read is skipped with a warning. reader may be
// nil, in which case binary documents are skipped.
func Compose(ctx context.Context, reader llm.DocumentReader, input *types.CaseInput, logger *slog.Logger) (*Material, error) {
	if logger == nil {
		logger = slog.Default()
	}

	material := &Material{Sources: make([]SourceInfo, 0, len(input.Documents))}
	var sections []string

	for _, doc := range input.Documents {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		info := newSourceInfo(doc)
		text, method, err := documentText(ctx, reader, doc)
		info.Method = method
		if err != nil {
			info.Error = err.Error()
			logger.Warn("skipping document", "filename", doc.Filename, "media_kind", doc.Kind, "error", err)
		}
		info.Chars = len(text)
		material.Sources = append(material.Sources, info)

		if text != "" {
			sections = append(sections, fmt.Sprintf("=== Document: %s ===\n%s", doc.Filename, text))
		}
	}

	if free := CleanText(input.FreeText); free != "" {
		sections = append(sections, fmt.Sprintf("=== Case description ===\n%s", free))
	}

	material.Text = strings.Join(sections, "\n\n")
	return material, nil
}

func documentText(ctx context.Context, reader llm.DocumentReader, doc types.Document) (string, Method, error) {
	switch doc.Kind {
	case types.MediaText:
		return CleanText(string(doc.Data)), MethodInline, nil
	case types.MediaHTML:
		text, err := ExtractHTMLText(string(doc.Data))
		if err != nil {
			return CleanText(string(doc.Data)), MethodFallback, nil
		}
		return text, MethodHTML, nil
	}

	if reader == nil {
		return "", MethodSkipped, fmt.Errorf("no document reader configured for %s", doc.Kind)
	}

	prompt, err := prompts.Render("ingestion.json", "extract-document", map[string]string{"Filename": doc.Filename})
	if err != nil {
		return "", MethodSkipped, err
	}

	text, err := reader.ExtractDocument(ctx, prompt, doc.MIMEType(), doc.Data)
	if err != nil {
		return "", MethodSkipped, fmt.Errorf("extraction failed: %w", err)
	}
	text = CleanText(text)
	if text == "" {
		return "", MethodSkipped, fmt.Errorf("extraction returned no text")
	}
	return text, MethodModel, nil
}
