// pkg/parsers/redhat_release.go

package parsers

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var releasePattern = regexp.MustCompile(`^(.+?)\s+release\s+(\S+)(?:\s+\(([^)]*)\))?`)

// RedhatRelease is the parsed content of /etc/redhat-release
type RedhatRelease struct {
	Raw      string
	Product  string
	Version  string
	CodeName string
	Major    int
	Minor    int
}

// ParseRedhatRelease parses the first non-empty line of the release file,
// e.g. "Red Hat Enterprise Linux Server release 7.4 (Maipo)". A line without
// the release token is kept whole as the product.
func ParseRedhatRelease(lines []string) (*RedhatRelease, error) {
	line := firstLine(lines)
	if line == "" {
		return nil, fmt.Errorf("redhat release: %w", ErrNoData)
	}

	m := releasePattern.FindStringSubmatch(line)
	if m == nil {
		return &RedhatRelease{Raw: line, Product: line}, nil
	}

	rel := &RedhatRelease{
		Raw:      line,
		Product:  strings.TrimSpace(m[1]),
		Version:  m[2],
		CodeName: m[3],
	}

	parts := strings.SplitN(rel.Version, ".", 3)
	rel.Major, _ = strconv.Atoi(parts[0])
	if len(parts) > 1 {
		rel.Minor, _ = strconv.Atoi(parts[1])
	}

	return rel, nil
}

// IsFedora reports whether the product is Fedora
func (r *RedhatRelease) IsFedora() bool {
	return strings.Contains(r.Product, "Fedora")
}

// IsRHEL reports whether the product is Red Hat Enterprise Linux
func (r *RedhatRelease) IsRHEL() bool {
	return strings.HasPrefix(r.Product, "Red Hat Enterprise Linux")
}

// IsCentOS reports whether the product is CentOS
func (r *RedhatRelease) IsCentOS() bool {
	return strings.HasPrefix(r.Product, "CentOS")
}

func firstLine(lines []string) string {
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			return l
		}
	}
	return ""
}
