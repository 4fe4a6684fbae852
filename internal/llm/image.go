package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"google.golang.org/genai"
)

// ImageRequest is a single image generation call. ReferenceDescriptors carry the
// fixed character descriptions that must appear identically in every shot.
type ImageRequest struct {
	Prompt               string
	ReferenceDescriptors []string
}

// Image is raw image data returned by the image model
type Image struct {
	Data     []byte
	MIMEType string
}

// ImageGenerator produces an image for a prompt
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req ImageRequest) (*Image, error)
}

// ImageInspector answers questions about a generated image
type ImageInspector interface {
	CountFigures(ctx context.Context, img *Image) (int, error)
}

// GenAIImageClient implements ImageGenerator and ImageInspector on the genai SDK,
// which supports image response modalities.
type GenAIImageClient struct {
	client      *genai.Client
	imageModel  string
	visionModel string
}

// NewGenAIImageClient creates an image client using the image and lite tiers of config
func NewGenAIImageClient(ctx context.Context, config *Config, apiKey string) (*GenAIImageClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if config == nil {
		config = DefaultConfig()
	}

	imageModel := config.GetModel(TierImage)
	if imageModel == "" {
		return nil, fmt.Errorf("no model configured for tier %s", TierImage)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GenAIImageClient{
		client:      client,
		imageModel:  imageModel,
		visionModel: config.GetModel(TierLite),
	}, nil
}

// GenerateImage requests an image and returns the first inline image part
func (c *GenAIImageClient) GenerateImage(ctx context.Context, req ImageRequest) (*Image, error) {
	parts := []*genai.Part{{Text: req.Prompt}}
	for _, descriptor := range req.ReferenceDescriptors {
		parts = append(parts, &genai.Part{Text: "Character reference: " + descriptor})
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.imageModel,
		[]*genai.Content{{Role: "user", Parts: parts}},
		&genai.GenerateContentConfig{ResponseModalities: []string{"IMAGE", "TEXT"}},
	)
	if err != nil {
		return nil, &APICallError{Message: "image generation failed", Cause: err}
	}

	return firstInlineImage(resp)
}

// CountFigures asks the vision model how many distinct people are visible
func (c *GenAIImageClient) CountFigures(ctx context.Context, img *Image) (int, error) {
	if img == nil || len(img.Data) == 0 {
		return 0, ErrNoImage
	}

	prompt := `Count the distinct people visible in this image. Respond with JSON only: {"people": <integer>}`
	resp, err := c.client.Models.GenerateContent(ctx, c.visionModel,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: img.MIMEType, Data: img.Data}},
			{Text: prompt},
		}}},
		&genai.GenerateContentConfig{ResponseMIMEType: "application/json"},
	)
	if err != nil {
		return 0, &APICallError{Message: "image inspection failed", Cause: err}
	}

	text := responseText(resp)
	if text == "" {
		return 0, &EmptyResponseError{Message: "no text in inspection response"}
	}
	return parseFigureCount(text)
}

// Close is a no-op; the genai client holds no resources that need releasing
func (c *GenAIImageClient) Close() error {
	return nil
}

func firstInlineImage(resp *genai.GenerateContentResponse) (*Image, error) {
	if resp == nil {
		return nil, ErrNoImage
	}
	var text []string
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return &Image{Data: part.InlineData.Data, MIMEType: part.InlineData.MIMEType}, nil
			}
			if part.Text != "" {
				text = append(text, part.Text)
			}
		}
	}
	if len(text) > 0 {
		return nil, fmt.Errorf("%w: model replied with text: %s", ErrNoImage, truncate(strings.Join(text, " "), 200))
	}
	return nil, ErrNoImage
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part != nil {
				sb.WriteString(part.Text)
			}
		}
		break
	}
	return sb.String()
}

func parseFigureCount(text string) (int, error) {
	var out struct {
		People *int `json:"people"`
	}
	if err := json.Unmarshal([]byte(CleanJSONBlock(text)), &out); err != nil {
		return 0, fmt.Errorf("failed to parse figure count: %w", err)
	}
	if out.People == nil {
		return 0, fmt.Errorf("figure count missing from response")
	}
	return *out.People, nil
}

// truncate shortens s to at most n runes
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "..."
}
