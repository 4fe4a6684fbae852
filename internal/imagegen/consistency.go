package imagegen

import (
	"bytes"
	"context"
	"fmt"
	"image"
	// Decoders for the formats the image model returns
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/jonathan/courtroom-viz/internal/llm"
	"github.com/jonathan/courtroom-viz/internal/types"
)

// Candidate is a decoded image awaiting the consistency check
type Candidate struct {
	Image  *llm.Image
	Config image.Config
	Format string
}

// ConsistencyChecker decides whether a generated image is acceptable for a shot
type ConsistencyChecker interface {
	Check(ctx context.Context, shot types.ShotSpec, c Candidate) error
}

// decode verifies that img carries a fully decodable image. The whole body is
// decoded so a valid header over truncated pixel data is rejected.
func decode(img *llm.Image) (Candidate, error) {
	if img == nil || len(img.Data) == 0 {
		return Candidate{}, ErrEmptyImage
	}
	decoded, format, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return Candidate{}, fmt.Errorf("undecodable image: %w", err)
	}
	bounds := decoded.Bounds()
	cfg := image.Config{ColorModel: decoded.ColorModel(), Width: bounds.Dx(), Height: bounds.Dy()}
	if img.MIMEType == "" {
		img = &llm.Image{Data: img.Data, MIMEType: "image/" + format}
	}
	return Candidate{Image: img, Config: cfg, Format: format}, nil
}

// MinResolution rejects images smaller than the given dimensions
type MinResolution struct {
	Width  int
	Height int
}

// Check implements ConsistencyChecker
func (m MinResolution) Check(_ context.Context, _ types.ShotSpec, c Candidate) error {
	if c.Config.Width < m.Width || c.Config.Height < m.Height {
		return fmt.Errorf("%w: image is %dx%d, want at least %dx%d",
			ErrInconsistent, c.Config.Width, c.Config.Height, m.Width, m.Height)
	}
	return nil
}

// FigureCount asks an inspector how many people are visible and requires at
// least one per character the shot includes.
type FigureCount struct {
	Inspector llm.ImageInspector
}

// Check implements ConsistencyChecker
func (f FigureCount) Check(ctx context.Context, shot types.ShotSpec, c Candidate) error {
	want := len(shot.IncludedCharacterIDs)
	if want == 0 || f.Inspector == nil {
		return nil
	}
	got, err := f.Inspector.CountFigures(ctx, c.Image)
	if err != nil {
		return fmt.Errorf("figure count: %w", err)
	}
	if got < want {
		return fmt.Errorf("%w: %d of %d characters visible", ErrInconsistent, got, want)
	}
	return nil
}

// Chain runs checkers in order and stops at the first failure
type Chain []ConsistencyChecker

// Check implements ConsistencyChecker
func (ch Chain) Check(ctx context.Context, shot types.ShotSpec, c Candidate) error {
	for _, checker := range ch {
		if checker == nil {
			continue
		}
		if err := checker.Check(ctx, shot, c); err != nil {
			return err
		}
	}
	return nil
}
