// pkg/parsers/installed_rpms.go

package parsers

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
)

// ErrNoData is returned when a parser receives no usable content
var ErrNoData = errors.New("no data")

var knownArches = []string{
	"x86_64", "i386", "i486", "i586", "i686", "noarch", "src",
	"aarch64", "armv7hl", "armv7l", "ppc", "ppc64", "ppc64le", "s390", "s390x",
}

// InstalledRpm is one installed package
type InstalledRpm struct {
	Name    string
	Epoch   string
	Version string
	Release string
	Arch    string
}

// ParsePackage parses a package string of the form
// name-[epoch:]version-release[.arch]. Anything after the first whitespace
// is ignored.
func ParsePackage(s string) (InstalledRpm, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return InstalledRpm{}, fmt.Errorf("empty package string")
	}
	pkg := strings.TrimSuffix(fields[0], ".rpm")

	var rpm InstalledRpm
	if i := strings.LastIndex(pkg, "."); i > 0 && slices.Contains(knownArches, pkg[i+1:]) {
		rpm.Arch = pkg[i+1:]
		pkg = pkg[:i]
	}

	relIdx := strings.LastIndex(pkg, "-")
	if relIdx <= 0 {
		return InstalledRpm{}, fmt.Errorf("invalid package string %q: missing release", s)
	}
	verIdx := strings.LastIndex(pkg[:relIdx], "-")
	if verIdx <= 0 {
		return InstalledRpm{}, fmt.Errorf("invalid package string %q: missing version", s)
	}

	rpm.Name = pkg[:verIdx]
	rpm.Version = pkg[verIdx+1 : relIdx]
	rpm.Release = pkg[relIdx+1:]

	// yum prints the epoch in front of the name, rpm in front of the version
	if i := strings.Index(rpm.Name, ":"); i >= 0 {
		rpm.Epoch, rpm.Name = rpm.Name[:i], rpm.Name[i+1:]
	}
	if i := strings.Index(rpm.Version, ":"); i >= 0 {
		rpm.Epoch, rpm.Version = rpm.Version[:i], rpm.Version[i+1:]
	}

	if rpm.Name == "" || rpm.Version == "" || rpm.Release == "" {
		return InstalledRpm{}, fmt.Errorf("invalid package string %q", s)
	}

	return rpm, nil
}

// MustParsePackage is ParsePackage for literals known to be valid
func MustParsePackage(s string) InstalledRpm {
	rpm, err := ParsePackage(s)
	if err != nil {
		panic(err)
	}
	return rpm
}

// NVR returns name-version-release
func (r InstalledRpm) NVR() string {
	return fmt.Sprintf("%s-%s-%s", r.Name, r.Version, r.Release)
}

// Package returns the package string without epoch or arch
func (r InstalledRpm) Package() string {
	return r.NVR()
}

// NVRA returns name-version-release.arch, or NVR when the arch is unknown
func (r InstalledRpm) NVRA() string {
	if r.Arch == "" {
		return r.NVR()
	}
	return r.NVR() + "." + r.Arch
}

func (r InstalledRpm) String() string {
	return r.NVRA()
}

// Compare orders two packages by epoch, version and release. Names are
// not compared; callers compare builds of the same package.
func (r InstalledRpm) Compare(other InstalledRpm) int {
	return r.evr().Compare(other.evr())
}

// Less reports whether r is older than other
func (r InstalledRpm) Less(other InstalledRpm) bool {
	return r.Compare(other) < 0
}

// InstalledRpms is the parsed list of installed packages, grouped by name
type InstalledRpms struct {
	Packages map[string][]InstalledRpm
	// Unparsed holds lines that did not look like packages
	Unparsed []string
}

// jsonRpm is one line of the JSON rpm listing found in Insights archives
type jsonRpm struct {
	Name    string          `json:"name"`
	Epoch   json.RawMessage `json:"epoch"`
	Version string          `json:"version"`
	Release string          `json:"release"`
	Arch    string          `json:"arch"`
}

// parseJSONPackage parses a line such as
// {"name": "bash", "epoch": "(none)", "version": "4.4.19", "release": "7.el8", "arch": "x86_64"}
func parseJSONPackage(line string) (InstalledRpm, error) {
	var j jsonRpm
	if err := json.Unmarshal([]byte(line), &j); err != nil {
		return InstalledRpm{}, fmt.Errorf("invalid package json: %w", err)
	}
	if j.Name == "" || j.Version == "" || j.Release == "" {
		return InstalledRpm{}, fmt.Errorf("invalid package json %q", line)
	}

	epoch := strings.Trim(string(j.Epoch), `"`)
	if epoch == "(none)" || epoch == "null" || epoch == "0" {
		epoch = ""
	}

	return InstalledRpm{
		Name:    j.Name,
		Epoch:   epoch,
		Version: j.Version,
		Release: j.Release,
		Arch:    j.Arch,
	}, nil
}

// ParseInstalledRpms parses `rpm -qa` style output, one package per line.
// Lines starting with '{' are read as the JSON listing of Insights archives.
func ParseInstalledRpms(lines []string) (*InstalledRpms, error) {
	rpms := &InstalledRpms{Packages: make(map[string][]InstalledRpm)}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "error:") || strings.HasPrefix(line, "warning:") {
			continue
		}
		parse := ParsePackage
		if strings.HasPrefix(line, "{") {
			parse = parseJSONPackage
		}
		rpm, err := parse(line)
		if err != nil {
			rpms.Unparsed = append(rpms.Unparsed, line)
			continue
		}
		rpms.Packages[rpm.Name] = append(rpms.Packages[rpm.Name], rpm)
	}

	if len(rpms.Packages) == 0 {
		return nil, fmt.Errorf("installed rpms: %w", ErrNoData)
	}

	return rpms, nil
}

// Contains reports whether any build of name is installed
func (r *InstalledRpms) Contains(name string) bool {
	return len(r.Packages[name]) > 0
}

// Max returns the newest installed build of name
func (r *InstalledRpms) Max(name string) (InstalledRpm, bool) {
	pkgs := r.Packages[name]
	if len(pkgs) == 0 {
		return InstalledRpm{}, false
	}
	newest := pkgs[0]
	for _, p := range pkgs[1:] {
		if newest.Less(p) {
			newest = p
		}
	}
	return newest, true
}

// Min returns the oldest installed build of name
func (r *InstalledRpms) Min(name string) (InstalledRpm, bool) {
	pkgs := r.Packages[name]
	if len(pkgs) == 0 {
		return InstalledRpm{}, false
	}
	oldest := pkgs[0]
	for _, p := range pkgs[1:] {
		if p.Less(oldest) {
			oldest = p
		}
	}
	return oldest, true
}

// Names returns the installed package names, sorted
func (r *InstalledRpms) Names() []string {
	names := make([]string, 0, len(r.Packages))
	for name := range r.Packages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
