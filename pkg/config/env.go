// pkg/config/env.go

package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ErrReportPassword is returned when compression is requested without a password
var ErrReportPassword = errors.New("REPORT_PASSWORD is required when COMPRESS_REPORT is set")

// Settings are read from the environment. Command-line flags override the
// logging settings.
type Settings struct {
	CompressReport     bool   `env:"COMPRESS_REPORT"`
	ReportPassword     string `env:"REPORT_PASSWORD"`
	RemoveUncompressed bool   `env:"REMOVE_UNCOMPRESSED"`
	LogLevel           string `env:"HEALTH_CHECK_LOG_LEVEL"  envDefault:"info"`
	LogFormat          string `env:"HEALTH_CHECK_LOG_FORMAT" envDefault:"text"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadSettings returns the environment settings
func LoadSettings() (Settings, error) {
	var s Settings
	if err := ParseEnv(&s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// CompressionPassword returns the password for compressed reports
func (s Settings) CompressionPassword() (string, error) {
	if s.ReportPassword == "" {
		return "", ErrReportPassword
	}
	return s.ReportPassword, nil
}
