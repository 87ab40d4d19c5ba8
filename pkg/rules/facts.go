// pkg/rules/facts.go

package rules

import (
	"errors"
	"fmt"

	"gitlab.consulting.redhat.com/ksa/health-check-rules/pkg/facts"
	"gitlab.consulting.redhat.com/ksa/health-check-rules/pkg/parsers"
)

// Facts hands parsed facts to rules. A fact that was not collected, or
// whose content has nothing to parse, results in a skip.
type Facts struct {
	contents map[facts.Name]*facts.Content
}

// NewFacts wraps collected fact contents
func NewFacts(contents map[facts.Name]*facts.Content) *Facts {
	return &Facts{contents: contents}
}

// Has reports whether the named fact was collected
func (f *Facts) Has(name facts.Name) bool {
	_, ok := f.contents[name]
	return ok
}

// Missing returns the names among required that were not collected
func (f *Facts) Missing(required []facts.Name) []facts.Name {
	var missing []facts.Name
	for _, n := range required {
		if !f.Has(n) {
			missing = append(missing, n)
		}
	}
	return missing
}

func (f *Facts) lines(name facts.Name) ([]string, error) {
	c, ok := f.contents[name]
	if !ok {
		return nil, Skip("missing fact %s", name)
	}
	return c.Lines, nil
}

// parsed converts parser errors into skips: content that cannot be parsed
// means the rule cannot judge the system.
func parsed[T any](name facts.Name, v T, err error) (T, error) {
	if err != nil {
		var zero T
		if errors.Is(err, parsers.ErrNoData) {
			return zero, Skip("empty fact %s", name)
		}
		return zero, fmt.Errorf("%w: parse %s: %v", ErrSkip, name, err)
	}
	return v, nil
}

// InstalledRpms returns the parsed installed package list
func (f *Facts) InstalledRpms() (*parsers.InstalledRpms, error) {
	lines, err := f.lines(facts.InstalledRPMs)
	if err != nil {
		return nil, err
	}
	v, err := parsers.ParseInstalledRpms(lines)
	return parsed(facts.InstalledRPMs, v, err)
}

// RedhatRelease returns the parsed release file
func (f *Facts) RedhatRelease() (*parsers.RedhatRelease, error) {
	lines, err := f.lines(facts.RedhatRelease)
	if err != nil {
		return nil, err
	}
	v, err := parsers.ParseRedhatRelease(lines)
	return parsed(facts.RedhatRelease, v, err)
}

// Hostname returns the parsed host name
func (f *Facts) Hostname() (*parsers.Hostname, error) {
	lines, err := f.lines(facts.Hostname)
	if err != nil {
		return nil, err
	}
	v, err := parsers.ParseHostname(lines)
	return parsed(facts.Hostname, v, err)
}

// SSHDConfig returns the parsed SSH daemon configuration
func (f *Facts) SSHDConfig() (*parsers.SSHDConfig, error) {
	lines, err := f.lines(facts.SSHDConfig)
	if err != nil {
		return nil, err
	}
	v, err := parsers.ParseSSHDConfig(lines)
	return parsed(facts.SSHDConfig, v, err)
}
