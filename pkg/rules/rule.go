// pkg/rules/rule.go

package rules

import (
	"gitlab.consulting.redhat.com/ksa/health-check-rules/pkg/facts"
)

// Info describes a rule for listings and reports
type Info struct {
	Name        string
	Title       string
	Description string
	// Category names the report section, e.g. "Security"
	Category       string
	Recommendation string
	References     []string
}

// Rule evaluates parsed facts into a response. Implementations are pure
// functions of the facts they declare in Requires.
type Rule interface {
	Info() Info
	Requires() []facts.Name
	// Content maps response keys to text/template message templates
	Content() map[string]string
	Evaluate(f *Facts) (*Response, error)
}

// Filterer is implemented by rules that only need some lines of a
// filterable fact
type Filterer interface {
	Filters() facts.Filters
}

// FiltersFor returns the union of the filters declared by rules
func FiltersFor(rs []Rule) facts.Filters {
	filters := facts.Filters{}
	for _, r := range rs {
		if f, ok := r.(Filterer); ok {
			filters.Merge(f.Filters())
		}
	}
	return filters
}

// RequiredFacts returns the union of the facts rules depend on, in
// declaration order
func RequiredFacts(rs []Rule) []facts.Name {
	seen := make(map[facts.Name]bool)
	var names []facts.Name
	for _, r := range rs {
		for _, n := range r.Requires() {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	return names
}
