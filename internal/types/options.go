package types

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseOptions turns "name" or "name=bool" entries into an options map. Entries
// may also be comma separated.
func ParseOptions(entries []string) (map[string]bool, error) {
	opts := make(map[string]bool)
	for _, entry := range entries {
		for _, part := range strings.Split(entry, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			name, value, hasValue := strings.Cut(part, "=")
			name = normalizeEnum(name)
			if !hasValue {
				opts[name] = true
				continue
			}
			b, err := strconv.ParseBool(strings.TrimSpace(value))
			if err != nil {
				return nil, fmt.Errorf("option %s: %q is not a boolean", name, value)
			}
			opts[name] = b
		}
	}
	return opts, nil
}

// SplitList splits comma separated values, dropping blanks
func SplitList(entries ...string) []string {
	var out []string
	for _, entry := range entries {
		for _, part := range strings.Split(entry, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
