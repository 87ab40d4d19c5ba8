// pkg/facts/specs.go

package facts

import "slices"

// Name is the logical identifier of a fact
type Name string

const (
	InstalledRPMs Name = "installed_rpms"
	RedhatRelease Name = "redhat_release"
	Hostname      Name = "hostname"
	SSHDConfig    Name = "sshd_config"
)

// Source describes where a fact lives in one kind of context. Paths are
// tried in order and may be glob patterns inside archives; the first match
// wins. Command is only used on a live host.
type Source struct {
	Paths   []string
	Command []string
}

// Spec maps a fact name to its sources
type Spec struct {
	Name        Name
	Description string

	// Filterable specs keep only the lines matching registered filters
	Filterable bool

	Host     Source
	Sos      Source
	Insights Source
}

// Source returns the source for the given context kind
func (s Spec) Source(kind Kind) Source {
	switch kind {
	case KindSosReport:
		return s.Sos
	case KindInsightsArchive:
		return s.Insights
	default:
		return s.Host
	}
}

var defaultSpecs = []Spec{
	{
		Name:        InstalledRPMs,
		Description: "Installed RPM packages",
		Host: Source{
			Command: []string{"rpm", "-qa", "--nosignature", "--nodigest"},
		},
		Sos: Source{
			Paths: []string{
				"installed-rpms",
				"sos_commands/rpm/sh_-c_rpm_--nodigest_-qa_--qf_*",
				"sos_commands/rpm/package-data",
			},
		},
		Insights: Source{
			Paths: []string{
				"insights_commands/rpm_-qa*",
				"data/insights_commands/rpm_-qa*",
			},
		},
	},
	{
		Name:        RedhatRelease,
		Description: "Release identifier from /etc/redhat-release",
		Host:        Source{Paths: []string{"/etc/redhat-release"}},
		Sos:         Source{Paths: []string{"etc/redhat-release"}},
		Insights: Source{
			Paths: []string{"etc/redhat-release", "data/etc/redhat-release"},
		},
	},
	{
		Name:        Hostname,
		Description: "Fully qualified host name",
		Host:        Source{Command: []string{"hostname", "-f"}},
		Sos: Source{
			Paths: []string{"sos_commands/general/hostname_-f", "sos_commands/host/hostname_-f", "hostname"},
		},
		Insights: Source{
			Paths: []string{
				"insights_commands/hostname_-f",
				"data/insights_commands/hostname_-f",
				"insights_commands/hostname",
				"data/insights_commands/hostname",
			},
		},
	},
	{
		Name:        SSHDConfig,
		Description: "SSH daemon configuration",
		Filterable:  true,
		Host:        Source{Paths: []string{"/etc/ssh/sshd_config"}},
		Sos:         Source{Paths: []string{"etc/ssh/sshd_config"}},
		Insights: Source{
			Paths: []string{"etc/ssh/sshd_config", "data/etc/ssh/sshd_config"},
		},
	},
}

// Specs returns the built-in fact specs in a stable order
func Specs() []Spec {
	return slices.Clone(defaultSpecs)
}

// Lookup returns the spec registered for name
func Lookup(name Name) (Spec, bool) {
	for _, s := range defaultSpecs {
		if s.Name == name {
			return s, true
		}
	}
	return Spec{}, false
}
