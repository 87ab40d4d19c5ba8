// pkg/rules/registry.go

package rules

import (
	"fmt"
	"strings"
)

// All returns the built-in rules in evaluation order
func All() []Rule {
	return []Rule{
		BashBug{},
		IsFedora{},
		SSHDSecure{},
	}
}

// Select filters rules by name. When include is non-empty only those rules
// run; otherwise every rule except those in skip runs. Names are matched
// case-insensitively and unknown names are an error.
func Select(all []Rule, include, skip []string) ([]Rule, error) {
	known := make(map[string]bool, len(all))
	for _, r := range all {
		known[strings.ToLower(r.Info().Name)] = true
	}
	for _, name := range append(append([]string{}, include...), skip...) {
		if !known[strings.ToLower(name)] {
			return nil, fmt.Errorf("unknown rule %q", name)
		}
	}

	var selected []Rule
	for _, r := range all {
		name := r.Info().Name
		if len(include) > 0 {
			if contains(include, name) {
				selected = append(selected, r)
			}
			continue
		}
		if !contains(skip, name) {
			selected = append(selected, r)
		}
	}
	return selected, nil
}

// contains checks if a string is present in a slice of strings, ignoring case
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if strings.EqualFold(s, item) {
			return true
		}
	}
	return false
}
