// pkg/parsers/hostname.go

package parsers

import (
	"fmt"
	"strings"
)

// Hostname is the parsed output of `hostname -f`
type Hostname struct {
	FQDN   string
	Short  string
	Domain string
}

// ParseHostname parses the first non-empty line as a host name
func ParseHostname(lines []string) (*Hostname, error) {
	fqdn := firstLine(lines)
	if fqdn == "" {
		return nil, fmt.Errorf("hostname: %w", ErrNoData)
	}
	if strings.ContainsAny(fqdn, " \t") {
		return nil, fmt.Errorf("hostname: unrecognized content %q", fqdn)
	}

	short, domain, _ := strings.Cut(fqdn, ".")
	return &Hostname{FQDN: fqdn, Short: short, Domain: domain}, nil
}
