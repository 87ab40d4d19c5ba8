package utils

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/alexmullins/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShellQuote(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":                     "''",
		"/etc/ssh/sshd_config": "/etc/ssh/sshd_config",
		"--qf=%{NAME}":         "'--qf=%{NAME}'",
		"two words":            "'two words'",
		"it's":                 `'it'\''s'`,
	}

	for in, want := range tests {
		assert.Equal(t, want, ShellQuote(in), "input %q", in)
	}
}

func TestBuildCommandLine(t *testing.T) {
	t.Parallel()

	got := BuildCommandLine("rpm", "-qa", "--qf", "%{NAME} %{VERSION}\n")
	assert.Equal(t, "rpm -qa --qf '%{NAME} %{VERSION}\n'", got)
}

func TestWrapBecome(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		config    SSHConfig
		want      string
		wantStdin string
		wantErr   string
	}{
		"no become": {
			config: SSHConfig{},
			want:   "cat /etc/ssh/sshd_config",
		},
		"sudo without password": {
			config: SSHConfig{Become: true},
			want:   "sudo -n -u root sh -c 'cat /etc/ssh/sshd_config'",
		},
		"sudo with password": {
			config:    SSHConfig{Become: true, BecomeMethod: "sudo", BecomeUser: "admin", BecomePass: "secret"},
			want:      "sudo -S -p '' -u admin sh -c 'cat /etc/ssh/sshd_config'",
			wantStdin: "secret\n",
		},
		"sudo with flags": {
			config: SSHConfig{Become: true, BecomeFlags: "-H"},
			want:   "sudo -n -u root -H sh -c 'cat /etc/ssh/sshd_config'",
		},
		"su to root": {
			config: SSHConfig{Become: true, BecomeMethod: "su"},
			want:   "su root -c 'cat /etc/ssh/sshd_config'",
		},
		"su to user with flags": {
			config: SSHConfig{Become: true, BecomeMethod: "su", BecomeUser: "admin", BecomeFlags: "-", BecomePass: "secret"},
			want:   "su - admin -c 'cat /etc/ssh/sshd_config'",
		},
		"unsupported method": {
			config:  SSHConfig{Become: true, BecomeMethod: "pbrun"},
			wantErr: `unsupported become method "pbrun"`,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			conn := NewSSHConnection(&tc.config)
			line, stdin, err := conn.wrapBecome("cat /etc/ssh/sshd_config")
			if tc.wantErr != "" {
				require.EqualError(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, line)
			assert.Equal(t, tc.wantStdin, stdin)
		})
	}
}

func TestLocalExecutor(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	exec := &LocalExecutor{hostname: "testhost"}

	out, err := exec.RunCommand(ctx, "sh", "-c", "echo facts")
	require.NoError(t, err)
	assert.Equal(t, "facts\n", out)

	_, err = exec.RunCommand(ctx, "sh", "-c", "echo broken >&2; exit 3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")

	dir := t.TempDir()
	path := filepath.Join(dir, "redhat-release")
	require.NoError(t, os.WriteFile(path, []byte("Fedora release 28 (Twenty Eight)\n"), 0o644))

	data, err := exec.ReadFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "Fedora release 28 (Twenty Eight)\n", string(data))

	_, err = exec.ReadFile(ctx, filepath.Join(dir, "missing"))
	require.ErrorIs(t, err, os.ErrNotExist)

	assert.True(t, exec.IsLocal())
	assert.Equal(t, "testhost", exec.GetHostname())
}

func TestCompressWithPassword(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "report.adoc")
	require.NoError(t, os.WriteFile(src, []byte("= Report\n"), 0o644))

	zipPath, err := CompressWithPassword(src, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, src+".zip", zipPath)

	zr, err := zip.OpenReader(zipPath)
	require.NoError(t, err)
	defer zr.Close()

	require.Len(t, zr.File, 1)
	f := zr.File[0]
	assert.Equal(t, "report.adoc", f.Name)
	assert.True(t, f.IsEncrypted())

	f.SetPassword("hunter2")
	rc, err := f.Open()
	require.NoError(t, err)
	defer rc.Close()

	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "= Report\n", string(content))

	_, err = CompressWithPassword(filepath.Join(dir, "missing.adoc"), "x")
	require.Error(t, err)
}
