package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gopkg.in/yaml.v3"

	"gitlab.consulting.redhat.com/ksa/health-check-rules/pkg/config"
	"gitlab.consulting.redhat.com/ksa/health-check-rules/pkg/engine"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// writeSosreport lays out a minimal extracted sosreport
func writeSosreport(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "sosreport-web01")

	files := map[string]string{
		"installed-rpms":                   "bash-4.4.16-1.el8.x86_64     Mon Jan  1 00:00:00 2024\nopenssh-8.0p1-5.el8.x86_64   Mon Jan  1 00:00:00 2024\n",
		"etc/redhat-release":               "Red Hat Enterprise Linux release 8.1 (Ootpa)\n",
		"sos_commands/general/hostname_-f": "web01.example.com\n",
		"etc/ssh/sshd_config":              "#Protocol 2\nAuthenticationMethods publickey\nLogLevel VERBOSE\nPermitRootLogin no\n",
	}
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

type jsonRun struct {
	Hostname string `json:"hostname"`
	Context  string `json:"context"`
	Results  []struct {
		Rule     string `json:"rule"`
		Message  string `json:"message"`
		Response struct {
			Type string `json:"type"`
			Key  string `json:"key"`
		} `json:"response"`
	} `json:"results"`
}

func TestRunArchiveJSON(t *testing.T) {
	stdout, _, err := execute(t, "run", "--archive", writeSosreport(t), "--format", "json", "--log-level", "error")
	require.NoError(t, err)

	var run jsonRun
	require.NoError(t, json.Unmarshal([]byte(stdout), &run))

	assert.Equal(t, "web01.example.com", run.Hostname)
	assert.Equal(t, "sosreport", run.Context)
	require.Len(t, run.Results, 3)

	got := map[string]string{}
	for _, r := range run.Results {
		got[r.Rule] = r.Response.Type
	}
	assert.Equal(t, map[string]string{
		"bash_bug":    "fail",
		"is_fedora":   "fail",
		"sshd_secure": "pass",
	}, got)
	assert.Equal(t, "Bash bug found! Version: bash-4.4.16-1.el8", run.Results[0].Message)
}

func TestRunInsightsArchiveJSON(t *testing.T) {
	root := filepath.Join(t.TempDir(), "insights-db01")
	files := map[string]string{
		"data/insights_commands/rpm_-qa_--qf_name": `{"name": "bash", "epoch": "(none)", "version": "4.4.14", "release": "1.el8", "arch": "x86_64"}` + "\n",
		"data/insights_commands/hostname_-f":       "db01.example.com\n",
		"data/etc/redhat-release":                  "Fedora release 28 (Twenty Eight)\n",
	}
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}

	stdout, _, err := execute(t, "run", "--archive", root, "--format", "json", "--include", "bash_bug,is_fedora", "--log-level", "error")
	require.NoError(t, err)

	var run jsonRun
	require.NoError(t, json.Unmarshal([]byte(stdout), &run))
	assert.Equal(t, "insights-archive", run.Context)
	require.Len(t, run.Results, 2)
	assert.Equal(t, "fail", run.Results[0].Response.Type)
	assert.Equal(t, "Bash bug found! Version: bash-4.4.14-1.el8", run.Results[0].Message)
	assert.Equal(t, "pass", run.Results[1].Response.Type)
}

func TestRunArchiveYAMLWithReport(t *testing.T) {
	t.Setenv("COMPRESS_REPORT", "true")
	t.Setenv("REPORT_PASSWORD", "s3cret")
	t.Setenv("REMOVE_UNCOMPRESSED", "true")

	out := filepath.Join(t.TempDir(), "web01.adoc")
	stdout, stderr, err := execute(t,
		"run", "--archive", writeSosreport(t), "--format", "yaml",
		"--include", "sshd_secure", "--output", out, "--log-level", "error")
	require.NoError(t, err)

	var run engine.Run
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &run))
	require.Len(t, run.Results, 1)
	assert.Equal(t, "sshd_secure", run.Results[0].RuleName)

	assert.FileExists(t, out+".zip")
	assert.NoFileExists(t, out)
	assert.FileExists(t, filepath.Join(filepath.Dir(out), ".data", "web01.adoc.json"))
	assert.Contains(t, stderr, "Report compressed to "+out+".zip")
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown format", []string{"run", "--archive", ".", "--format", "xml"}, `unknown format "xml"`},
		{"unknown rule", []string{"run", "--include", "nope", "--format", "json"}, `unknown rule "nope"`},
		{"not an archive", []string{"run", "--archive", t.TempDir(), "--format", "json"}, "unrecognized archive layout"},
		{"bad log level", []string{"list", "--log-level", "loud"}, "unknown log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCompressRequiresPassword(t *testing.T) {
	t.Setenv("COMPRESS_REPORT", "true")
	t.Setenv("REPORT_PASSWORD", "")

	stdout, _, err := execute(t, "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "sshd_secure")

	out := filepath.Join(t.TempDir(), "web01.adoc")
	_, _, err = execute(t, "run", "--archive", writeSosreport(t), "--format", "json",
		"--output", out, "--log-level", "error")
	require.ErrorIs(t, err, config.ErrReportPassword)
	assert.NoFileExists(t, out)

	_, _, err = execute(t, "run", "--archive", writeSosreport(t), "--format", "json", "--log-level", "error")
	require.NoError(t, err)
}

func TestList(t *testing.T) {
	stdout, _, err := execute(t, "list")
	require.NoError(t, err)

	assert.Contains(t, stdout, "bash_bug")
	assert.Contains(t, stdout, "facts: installed_rpms, sshd_config")
	assert.Contains(t, stdout, "/etc/ssh/sshd_config (filtered)")
	assert.Contains(t, stdout, "rpm -qa --nosignature --nodigest")
}

func TestCheckHosts(t *testing.T) {
	hosts := make([]config.HostEntry, 10)
	for i := range hosts {
		hosts[i] = config.HostEntry{Hostname: fmt.Sprintf("host-%d", i)}
	}

	var inFlight, maxInFlight, done atomic.Int32
	check := func(_ context.Context, host config.HostEntry) (*engine.Run, error) {
		n := inFlight.Add(1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)

		if host.Hostname == "host-3" {
			return nil, errors.New("connection refused")
		}
		return &engine.Run{Hostname: host.Hostname}, nil
	}

	results := checkHosts(context.Background(), hosts, 3, check, func(hostResult) { done.Add(1) })

	require.Len(t, results, len(hosts))
	assert.LessOrEqual(t, maxInFlight.Load(), int32(3))
	assert.Equal(t, int32(len(hosts)), done.Load())
	for i, res := range results {
		assert.Equal(t, hosts[i].Hostname, res.hostname)
		if i == 3 {
			assert.EqualError(t, res.err, "connection refused")
			continue
		}
		require.NoError(t, res.err)
		assert.Equal(t, hosts[i].Hostname, res.run.Hostname)
	}
}

func TestCheckHostsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := atomic.Bool{}
	results := checkHosts(ctx, []config.HostEntry{{Hostname: "a"}, {Hostname: "b"}}, 0,
		func(context.Context, config.HostEntry) (*engine.Run, error) {
			called.Store(true)
			return nil, nil
		}, nil)

	assert.False(t, called.Load())
	for _, res := range results {
		assert.ErrorIs(t, res.err, context.Canceled)
	}
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "web01.example.com", sanitizeFilename("web01.example.com"))
	assert.Equal(t, "a-b-c_d", sanitizeFilename("a/b:c d"))
}
