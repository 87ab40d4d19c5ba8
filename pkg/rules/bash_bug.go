// pkg/rules/bash_bug.go

package rules

import (
	"gitlab.consulting.redhat.com/ksa/health-check-rules/pkg/facts"
	"gitlab.consulting.redhat.com/ksa/health-check-rules/pkg/parsers"
)

const (
	BashBugKey = "BASH_BUG"

	BashBugFound    = "Bash bug found! Version: "
	BashBugNotFound = "Bash bug not found: "
)

var (
	bashBugVersion = parsers.MustParsePackage("bash-4.4.14-1.any")
	bashFixVersion = parsers.MustParsePackage("bash-4.4.18-1.any")
)

// BashBug fails when the newest installed bash lies in the affected range
// [bash-4.4.14-1, bash-4.4.18-1).
type BashBug struct{}

func (BashBug) Info() Info {
	return Info{
		Name:           "bash_bug",
		Title:          "Bash Bug",
		Description:    "Checks whether the installed bash build is affected by a known bug.",
		Category:       "Updates",
		Recommendation: "Update bash to " + bashFixVersion.NVR() + " or later: 'yum update bash'",
	}
}

func (BashBug) Requires() []facts.Name {
	return []facts.Name{facts.InstalledRPMs}
}

func (BashBug) Content() map[string]string {
	return map[string]string{
		BashBugKey: "{{.found}}{{.bash}}",
	}
}

func (BashBug) Evaluate(f *Facts) (*Response, error) {
	rpms, err := f.InstalledRpms()
	if err != nil {
		return nil, err
	}

	current, ok := rpms.Max("bash")
	if !ok {
		return nil, Skip("bash is not installed")
	}

	if !current.Less(bashBugVersion) && current.Less(bashFixVersion) {
		return MakeFail(BashBugKey, Details{"bash": current.NVR(), "found": BashBugFound}), nil
	}
	return MakePass(BashBugKey, Details{"bash": current.NVR(), "found": BashBugNotFound}), nil
}
