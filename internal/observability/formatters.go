// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jonathan/courtroom-viz/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// writeMore notes how many list items were not shown
func writeMore(sb *strings.Builder, total int) {
	if total > maxItemsToShow {
		fmt.Fprintf(sb, "  ... and %d more\n", total-maxItemsToShow)
	}
}

// PrintStageOutput prints whichever stage output it is given
func (p *Printer) PrintStageOutput(stage string, output any) {
	switch v := output.(type) {
	case *types.EvidenceAnalysis:
		p.PrintEvidence(v)
	case *types.SceneReconstruction:
		p.PrintReconstruction(v)
	case *types.CharacterRoster:
		p.PrintCharacters(v)
	case *types.ImageGenerationPlan:
		p.PrintPlan(v)
	default:
		p.printBox(strings.ToUpper(stage), fmt.Sprintf("%v", output))
	}
}

// PrintEvidence outputs a summary of the forensic evidence analysis.
func (p *Printer) PrintEvidence(analysis *types.EvidenceAnalysis) {
	if analysis == nil {
		return
	}

	var sb strings.Builder
	if analysis.CaseSummary != "" {
		sb.WriteString(analysis.CaseSummary + "\n\n")
	}

	counts := make(map[types.EvidenceCategory]int)
	for _, rec := range analysis.Evidence {
		counts[rec.Category]++
	}
	categories := make([]string, 0, len(counts))
	for c := range counts {
		categories = append(categories, string(c))
	}
	sort.Strings(categories)
	sb.WriteString("By category: ")
	for i, c := range categories {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s %d", c, counts[types.EvidenceCategory(c)])
	}
	sb.WriteString("\n\n")

	count := min(len(analysis.Evidence), maxItemsToShow)
	for i := 0; i < count; i++ {
		rec := analysis.Evidence[i]
		fmt.Fprintf(&sb, "  • [%s] %s (%s)\n", rec.ID, rec.Description, rec.Category)
		if specs := rec.SpecSummary(); specs != "" {
			fmt.Fprintf(&sb, "      %s\n", specs)
		}
	}
	writeMore(&sb, len(analysis.Evidence))

	p.printBox(fmt.Sprintf("EVIDENCE ANALYSIS (%d records)", len(analysis.Evidence)), sb.String())
}

// PrintReconstruction outputs the spatial layout and timeline of the scene.
func (p *Printer) PrintReconstruction(scene *types.SceneReconstruction) {
	if scene == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString("Layout:\n")
	count := min(len(scene.SpatialLayout), maxItemsToShow)
	for i := 0; i < count; i++ {
		e := scene.SpatialLayout[i]
		fmt.Fprintf(&sb, "  • %s: %s\n", e.Name, e.Position)
	}
	writeMore(&sb, len(scene.SpatialLayout))

	if len(scene.Timeline) > 0 {
		sb.WriteString("\nTimeline:\n")
		count = min(len(scene.Timeline), maxItemsToShow)
		for i := 0; i < count; i++ {
			ev := scene.Timeline[i]
			fmt.Fprintf(&sb, "  %d. %s\n", ev.Sequence, ev.Description)
		}
		writeMore(&sb, len(scene.Timeline))
	}

	if scene.LightingConditions != "" {
		fmt.Fprintf(&sb, "\nLighting: %s\n", scene.LightingConditions)
	}

	p.printBox("SCENE RECONSTRUCTION", sb.String())
}

// PrintCharacters outputs each character with its consistency tag.
func (p *Printer) PrintCharacters(roster *types.CharacterRoster) {
	if roster == nil {
		return
	}

	var sb strings.Builder
	for _, c := range roster.Characters {
		fmt.Fprintf(&sb, "%s %s (%s)\n", c.ConsistencyTag, c.ID, c.RoleInScene)
		fmt.Fprintf(&sb, "    %s\n", c.VisualDescriptor.String())
	}
	if len(roster.Objects) > 0 {
		fmt.Fprintf(&sb, "\nObjects: %d\n", len(roster.Objects))
	}

	p.printBox(fmt.Sprintf("CHARACTERS (%d)", len(roster.Characters)), sb.String())
}

// PrintPlan outputs the planned shots.
func (p *Printer) PrintPlan(plan *types.ImageGenerationPlan) {
	if plan == nil {
		return
	}

	var sb strings.Builder
	if plan.NarrativeFlow != "" {
		sb.WriteString(plan.NarrativeFlow + "\n\n")
	}
	for i, shot := range plan.Shots {
		fmt.Fprintf(&sb, "%d. %s: %s\n", i+1, shot.ID, shot.Title)
		fmt.Fprintf(&sb, "    camera: %s, characters: %d\n", shot.CameraAngle, len(shot.IncludedCharacterIDs))
	}

	p.printBox(fmt.Sprintf("IMAGE PLAN (%d shots)", len(plan.Shots)), sb.String())
}

// PrintResultSet outputs the per-shot outcome of a run.
func (p *Printer) PrintResultSet(rs *types.ResultSet) {
	if rs == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Run: %s\n", rs.RunID)
	fmt.Fprintf(&sb, "Succeeded: %d  Failed: %d\n\n", rs.Succeeded(), rs.Failed())
	for _, a := range rs.Artifacts {
		if a.Status == types.ArtifactSuccess {
			fmt.Fprintf(&sb, "  ✓ %s (%d attempt(s))\n", a.ShotID, a.AttemptCount)
			if a.StorageURI != "" {
				fmt.Fprintf(&sb, "    %s\n", a.StorageURI)
			}
		} else {
			fmt.Fprintf(&sb, "  ✗ %s: %s\n", a.ShotID, a.LastError)
		}
	}

	p.printBox("GENERATED IMAGES", sb.String())
}
