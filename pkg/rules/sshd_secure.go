// pkg/rules/sshd_secure.go

package rules

import (
	"strings"

	"gitlab.consulting.redhat.com/ksa/health-check-rules/pkg/facts"
	"gitlab.consulting.redhat.com/ksa/health-check-rules/pkg/parsers"
)

const (
	SSHDSecureKey = "SSHD_SECURE"

	// DefaultValue records a directive left at its built-in default
	DefaultValue = "default"
)

// sshdDirective is one hardened directive. Directives whose built-in
// default is already secure are only checked when declared.
type sshdDirective struct {
	keyword       string
	expected      string
	secureDefault bool
}

var sshdDirectives = []sshdDirective{
	{keyword: "AuthenticationMethods", expected: "publickey"},
	{keyword: "LogLevel", expected: "verbose"},
	{keyword: "PermitRootLogin", expected: "no"},
	{keyword: "Protocol", expected: "2", secureDefault: true},
}

// SSHDSecure fails when the SSH daemon is not hardened
type SSHDSecure struct{}

func (SSHDSecure) Info() Info {
	return Info{
		Name:           "sshd_secure",
		Title:          "SSH Daemon Hardening",
		Description:    "Checks AuthenticationMethods, LogLevel, PermitRootLogin and Protocol in sshd_config.",
		Category:       "Security",
		Recommendation: "Set 'AuthenticationMethods publickey', 'LogLevel VERBOSE' and 'PermitRootLogin no' in /etc/ssh/sshd_config and restart sshd",
		References: []string{
			"https://access.redhat.com/documentation/en-us/red_hat_enterprise_linux/8/html/securing_networks/assembly_using-secure-communications-between-two-systems-with-openssh_securing-networks",
		},
	}
}

func (SSHDSecure) Requires() []facts.Name {
	return []facts.Name{facts.InstalledRPMs, facts.SSHDConfig}
}

func (SSHDSecure) Filters() facts.Filters {
	filters := facts.Filters{}
	for _, d := range sshdDirectives {
		filters.Add(facts.SSHDConfig, d.keyword)
	}
	return filters
}

func (SSHDSecure) Content() map[string]string {
	return map[string]string{
		SSHDSecureKey: SSHDSecureKey + `:{
{{range $key, $value := .errors}}    {{$key}}: {{$value}}
{{end}}}
OPEN_SSH_PACKAGE: {{.openssh}}`,
	}
}

func (SSHDSecure) Evaluate(f *Facts) (*Response, error) {
	cfg, err := f.SSHDConfig()
	if err != nil {
		return nil, err
	}
	rpms, err := f.InstalledRpms()
	if err != nil {
		return nil, err
	}

	errs := CheckSSHDConfig(cfg)

	openssh := ""
	if pkg, ok := rpms.Max("openssh"); ok {
		openssh = pkg.Package()
	}

	if len(errs) > 0 {
		return MakeFail(SSHDSecureKey, Details{"errors": errs, "openssh": openssh}), nil
	}
	return MakePass(SSHDSecureKey, Details{"errors": errs, "openssh": openssh}), nil
}

// CheckSSHDConfig returns the offending value of every hardened directive
// that is not compliant, keyed by directive. An absent directive is recorded
// as DefaultValue unless its default is already secure. A directive declared
// without a value counts as absent.
func CheckSSHDConfig(cfg *parsers.SSHDConfig) map[string]string {
	errs := make(map[string]string)
	for _, d := range sshdDirectives {
		value, _ := cfg.Last(d.keyword)
		ok := value != ""
		switch {
		case !ok && d.secureDefault:
		case !ok:
			errs[d.keyword] = DefaultValue
		case strings.ToLower(value) != d.expected:
			errs[d.keyword] = value
		}
	}
	return errs
}
