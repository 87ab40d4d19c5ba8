// pkg/ruletest/ruletest.go

// Package ruletest runs rules end to end against literal fact content:
// the content is collected and filtered exactly as on a real host, parsed,
// and handed to the rule.
package ruletest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"gitlab.consulting.redhat.com/ksa/health-check-rules/pkg/engine"
	"gitlab.consulting.redhat.com/ksa/health-check-rules/pkg/facts"
	"gitlab.consulting.redhat.com/ksa/health-check-rules/pkg/rules"
)

// Run evaluates rule against input and returns its result
func Run(rule rules.Rule, input *facts.InputData) (engine.Result, error) {
	run, err := engine.New([]rules.Rule{rule}).Run(context.Background(), input)
	if err != nil {
		return engine.Result{}, err
	}
	if len(run.Results) != 1 {
		return engine.Result{}, fmt.Errorf("expected one result, got %d", len(run.Results))
	}
	return run.Results[0], nil
}

// Fixture is one recorded input and the response it must produce. Fixture
// files are YAML documents:
//
//	name: is_bash_bug
//	rule: bash_bug
//	facts:
//	  installed_rpms: bash-4.4.14-1.any
//	expected:
//	  type: fail
//	  key: BASH_BUG
//	  details:
//	    bash: bash-4.4.14-1.any
//	    found: "Bash bug found! Version: "
//
// Details and Message are only compared when set.
type Fixture struct {
	Name     string                `yaml:"name"`
	Rule     string                `yaml:"rule"`
	Facts    map[facts.Name]string `yaml:"facts"`
	Expected Expected              `yaml:"expected"`
	Message  string                `yaml:"message,omitempty"`

	Path string `yaml:"-"`
}

// Expected is the response a fixture must produce
type Expected struct {
	Type    string         `yaml:"type"`
	Key     string         `yaml:"key,omitempty"`
	Details map[string]any `yaml:"details,omitempty"`
}

// Input builds the in-memory context for the fixture
func (f Fixture) Input() *facts.InputData {
	input := facts.NewInputData(f.Name)
	names := make([]string, 0, len(f.Facts))
	for name := range f.Facts {
		names = append(names, string(name))
	}
	sort.Strings(names)
	for _, name := range names {
		input.Add(facts.Name(name), f.Facts[facts.Name(name)])
	}
	return input
}

// LoadFixtures reads every *.yaml fixture in dir, sorted by file name
func LoadFixtures(dir string) ([]Fixture, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list fixtures: %w", err)
	}
	sort.Strings(paths)

	fixtures := make([]Fixture, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read fixture: %w", err)
		}

		var f Fixture
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse fixture %s: %w", path, err)
		}
		if f.Name == "" {
			f.Name = filepath.Base(path)
		}
		f.Path = path
		fixtures = append(fixtures, f)
	}
	return fixtures, nil
}

// Normalize converts response details into the plain shapes YAML decodes
// to, so they compare equal to fixture expectations.
func Normalize(details rules.Details) map[string]any {
	if details == nil {
		return nil
	}
	out := make(map[string]any, len(details))
	for k, v := range details {
		switch vv := v.(type) {
		case map[string]string:
			m := make(map[string]any, len(vv))
			for mk, mv := range vv {
				m[mk] = mv
			}
			out[k] = m
		default:
			out[k] = v
		}
	}
	return out
}
