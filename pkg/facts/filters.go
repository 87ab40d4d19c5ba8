// pkg/facts/filters.go

package facts

import (
	"slices"
	"strings"
)

// Filters holds the line filters declared for filterable specs. When a
// filterable spec has at least one filter, only lines containing one of the
// filter strings survive collection.
type Filters map[Name][]string

// Add registers patterns for a spec, ignoring duplicates
func (f Filters) Add(name Name, patterns ...string) {
	for _, p := range patterns {
		if p == "" || slices.Contains(f[name], p) {
			continue
		}
		f[name] = append(f[name], p)
	}
}

// Merge adds every filter in other
func (f Filters) Merge(other Filters) {
	for name, patterns := range other {
		f.Add(name, patterns...)
	}
}

// Apply returns the lines of spec that survive its filters
func (f Filters) Apply(spec Spec, lines []string) []string {
	patterns := f[spec.Name]
	if !spec.Filterable || len(patterns) == 0 {
		return lines
	}

	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		for _, p := range patterns {
			if strings.Contains(line, p) {
				kept = append(kept, line)
				break
			}
		}
	}
	return kept
}
