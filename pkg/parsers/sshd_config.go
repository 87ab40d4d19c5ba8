// pkg/parsers/sshd_config.go

package parsers

import (
	"strings"
)

// SSHDLine is one directive in sshd_config
type SSHDLine struct {
	Keyword string
	Value   string
	Line    int
	// Match holds the criteria of the enclosing Match block, if any
	Match string
}

// SSHDConfig is the parsed SSH daemon configuration. Keyword lookups are
// case-insensitive, as they are for sshd.
type SSHDConfig struct {
	Lines []SSHDLine
}

// ParseSSHDConfig parses directive lines. Comments and blank lines are
// skipped. Both "Keyword value" and "Keyword=value" forms are accepted.
//
// Content filtered down to nothing still parses: an empty configuration
// means every directive has its default.
func ParseSSHDConfig(lines []string) (*SSHDConfig, error) {
	cfg := &SSHDConfig{Lines: []SSHDLine{}}
	match := ""

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		keyword, value := splitDirective(line)
		if keyword == "" {
			continue
		}

		if strings.EqualFold(keyword, "Match") {
			match = value
			if strings.EqualFold(value, "all") {
				match = ""
			}
			continue
		}

		cfg.Lines = append(cfg.Lines, SSHDLine{
			Keyword: keyword,
			Value:   value,
			Line:    i + 1,
			Match:   match,
		})
	}

	return cfg, nil
}

func splitDirective(line string) (string, string) {
	end := strings.IndexAny(line, " \t=")
	if end < 0 {
		return line, ""
	}
	keyword := line[:end]
	rest := strings.TrimLeft(line[end:], " \t")
	rest = strings.TrimPrefix(rest, "=")
	return keyword, strings.TrimSpace(rest)
}

// Last returns the value of the last occurrence of keyword
func (c *SSHDConfig) Last(keyword string) (string, bool) {
	for i := len(c.Lines) - 1; i >= 0; i-- {
		if strings.EqualFold(c.Lines[i].Keyword, keyword) {
			return c.Lines[i].Value, true
		}
	}
	return "", false
}

// All returns every value declared for keyword, in file order
func (c *SSHDConfig) All(keyword string) []string {
	var values []string
	for _, l := range c.Lines {
		if strings.EqualFold(l.Keyword, keyword) {
			values = append(values, l.Value)
		}
	}
	return values
}

// Has reports whether keyword is declared anywhere
func (c *SSHDConfig) Has(keyword string) bool {
	_, ok := c.Last(keyword)
	return ok
}
