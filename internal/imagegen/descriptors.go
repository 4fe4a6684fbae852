package imagegen

import (
	"fmt"

	"github.com/jonathan/courtroom-viz/internal/types"
)

// DescriptorIndex maps character ids to the exact descriptor text sent with every
// shot that includes them. It is built once per run and never modified.
type DescriptorIndex struct {
	byID map[string]string
}

// NewDescriptorIndex renders one descriptor per character in roster
func NewDescriptorIndex(roster types.CharacterRoster) *DescriptorIndex {
	idx := &DescriptorIndex{byID: make(map[string]string, len(roster.Characters))}
	for _, c := range roster.Characters {
		idx.byID[c.ID] = renderDescriptor(c)
	}
	return idx
}

func renderDescriptor(c types.CharacterProfile) string {
	name := c.Name
	if name == "" {
		name = c.ID
	}
	return fmt.Sprintf("[%s] %s, %s. %s", c.ConsistencyTag, name, c.RoleInScene, c.VisualDescriptor.String())
}

// Lookup returns the descriptors for ids in order, plus any ids not in the index
func (d *DescriptorIndex) Lookup(ids []string) ([]string, []string) {
	descriptors := make([]string, 0, len(ids))
	var missing []string
	for _, id := range ids {
		if text, ok := d.byID[id]; ok {
			descriptors = append(descriptors, text)
		} else {
			missing = append(missing, id)
		}
	}
	return descriptors, missing
}

// Len returns the number of indexed characters
func (d *DescriptorIndex) Len() int {
	return len(d.byID)
}
