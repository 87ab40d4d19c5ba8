package config_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.consulting.redhat.com/ksa/health-check-rules/pkg/config"
	"gitlab.consulting.redhat.com/ksa/health-check-rules/pkg/log"
)

const hostsINI = `# inventory
[defaults]
user = "admin"
ssh_timeout = 10
parallel = 8
become = yes
become_pass = 'secret'

[web_hosts]
web01.example.com
web02.example.com port=2222 user=ops become=false
ansible_var=ignored

[db]
db01.example.com ssh_key=/keys/db become_user=postgres
`

func writeHosts(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hosts.ini")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	t.Parallel()

	hc := config.NewHostsConfig()
	require.NoError(t, hc.LoadFromFile(context.Background(), writeHosts(t, hostsINI)))

	assert.Equal(t, "admin", hc.Defaults.User)
	assert.Equal(t, 8, hc.Defaults.ParallelConnections)
	assert.Equal(t, 10*time.Second, hc.Timeout())
	assert.True(t, hc.Defaults.Become)

	require.Len(t, hc.GetAllHosts(), 3)
	assert.Len(t, hc.GetHostsByGroup("web_hosts"), 2)
	assert.Len(t, hc.GetHostsByGroup("db"), 1)

	web01, ok := hc.GetHost("web01.example.com")
	require.True(t, ok)
	assert.Equal(t, "admin", web01.User)
	assert.Equal(t, "22", web01.Port)
	assert.True(t, web01.Become)
	assert.Equal(t, "secret", web01.BecomePass)
	assert.Equal(t, "root", web01.BecomeUser)

	web02, ok := hc.GetHost("web02.example.com")
	require.True(t, ok)
	assert.Equal(t, "ops", web02.User)
	assert.Equal(t, "2222", web02.Port)

	db01, ok := hc.GetHost("db01.example.com")
	require.True(t, ok)
	assert.Equal(t, "/keys/db", db01.SSHKeyFile)
	assert.Equal(t, "postgres", db01.BecomeUser)

	_, ok = hc.GetHost("missing.example.com")
	assert.False(t, ok)
}

func TestLoadFromFileLogsSkippedLines(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := log.NewContext(context.Background(), logger)

	hc := config.NewHostsConfig()
	require.NoError(t, hc.LoadFromFile(ctx, writeHosts(t, "[defaults]\nuser = ops\nnot a setting\n\n[web]\nweb01\n")))

	assert.Equal(t, "ops", hc.Defaults.User)
	assert.Len(t, hc.GetAllHosts(), 1)
	assert.Contains(t, buf.String(), "skipping default setting")
	assert.Contains(t, buf.String(), "line=3")
}

func TestHostSSHConfig(t *testing.T) {
	t.Parallel()

	host := config.HostEntry{
		Hostname:     "web01.example.com",
		Port:         "2222",
		User:         "ops",
		SSHKeyFile:   "/keys/id",
		Become:       true,
		BecomeMethod: "sudo",
		BecomeUser:   "root",
	}
	cfg := host.SSHConfig(5 * time.Second)

	assert.Equal(t, "web01.example.com", cfg.Host)
	assert.Equal(t, "2222", cfg.Port)
	assert.Equal(t, "ops", cfg.User)
	assert.Equal(t, "/keys/id", cfg.KeyFile)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.True(t, cfg.Become)
	assert.Equal(t, "root", cfg.BecomeUser)
}

func TestLoadFromFileErrors(t *testing.T) {
	t.Parallel()

	err := config.NewHostsConfig().LoadFromFile(context.Background(), filepath.Join(t.TempDir(), "absent.ini"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	err = config.NewHostsConfig().LoadFromFile(context.Background(), writeHosts(t, "[defaults]\nuser=root\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no hosts found")
}

func TestLoadSettings(t *testing.T) {
	t.Setenv("COMPRESS_REPORT", "true")
	t.Setenv("REPORT_PASSWORD", "pw")
	t.Setenv("HEALTH_CHECK_LOG_LEVEL", "debug")

	s, err := config.LoadSettings()
	require.NoError(t, err)
	assert.True(t, s.CompressReport)
	assert.Equal(t, "pw", s.ReportPassword)
	assert.False(t, s.RemoveUncompressed)
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, "text", s.LogFormat)
}

func TestLoadSettingsErrors(t *testing.T) {
	t.Setenv("COMPRESS_REPORT", "maybe")
	_, err := config.LoadSettings()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env")
}

func TestCompressionPassword(t *testing.T) {
	t.Setenv("COMPRESS_REPORT", "1")
	t.Setenv("REPORT_PASSWORD", "")

	s, err := config.LoadSettings()
	require.NoError(t, err)
	assert.True(t, s.CompressReport)

	_, err = s.CompressionPassword()
	require.ErrorIs(t, err, config.ErrReportPassword)

	s.ReportPassword = "pw"
	password, err := s.CompressionPassword()
	require.NoError(t, err)
	assert.Equal(t, "pw", password)
}
