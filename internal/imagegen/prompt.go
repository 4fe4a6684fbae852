package imagegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/courtroom-viz/internal/prompts"
	"github.com/jonathan/courtroom-viz/internal/types"
)

const variantPrefix = "variant-"

// promptVariants returns the attempt wrappers declared in imaging.json, in key order
func promptVariants() ([]string, error) {
	keys, err := prompts.Keys("imaging.json")
	if err != nil {
		return nil, err
	}
	var variants []string
	for _, key := range keys {
		if strings.HasPrefix(key, variantPrefix) {
			variants = append(variants, key)
		}
	}
	if len(variants) == 0 {
		return nil, fmt.Errorf("imaging.json declares no %s* prompts", variantPrefix)
	}
	return variants, nil
}

// BuildPrompt renders the request text for one attempt at a shot. Each attempt
// uses a different wrapper; the shot content is the same in all of them.
func BuildPrompt(shot types.ShotSpec, objects map[string]string, quality, attempt int) (string, error) {
	stylePrompt, err := prompts.Get("imaging.json", "style-"+string(shot.Style))
	if err != nil {
		stylePrompt, err = prompts.Get("imaging.json", "style-"+string(types.StyleProfessional))
		if err != nil {
			return "", err
		}
	}

	note, err := characterNote(len(shot.IncludedCharacterIDs))
	if err != nil {
		return "", err
	}

	variants, err := promptVariants()
	if err != nil {
		return "", err
	}
	if attempt < 1 {
		attempt = 1
	}
	variant := variants[(attempt-1)%len(variants)]
	return prompts.Render("imaging.json", variant, map[string]string{
		"StylePrompt":   stylePrompt,
		"Title":         orDefault(shot.Title, shot.ID),
		"Purpose":       orDefault(shot.Purpose, "document the scene"),
		"CameraAngle":   shot.CameraAngle,
		"Composition":   shot.CompositionNotes,
		"Lighting":      orDefault(shot.LightingNotes, "as described in the scene"),
		"Scene":         orDefault(shot.SceneReference, "the reconstructed scene"),
		"Objects":       describeObjects(shot.IncludedObjectRefs, objects),
		"CharacterNote": note,
		"Quality":       strconv.Itoa(quality),
	})
}

func characterNote(count int) (string, error) {
	if count == 0 {
		return prompts.Get("imaging.json", "no-characters-note")
	}
	return prompts.Render("imaging.json", "character-note", map[string]string{"Count": strconv.Itoa(count)})
}

func describeObjects(refs []string, objects map[string]string) string {
	if len(refs) == 0 {
		return "none specified"
	}
	parts := make([]string, 0, len(refs))
	for _, ref := range refs {
		if desc, ok := objects[ref]; ok {
			parts = append(parts, fmt.Sprintf("%s (%s)", ref, desc))
		} else {
			parts = append(parts, ref)
		}
	}
	return strings.Join(parts, "; ")
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
