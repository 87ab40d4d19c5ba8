// pkg/utils/command_executor.go

package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/crypto/ssh"
)

// CommandExecutor interface defines how facts are read from a live host
type CommandExecutor interface {
	RunCommand(ctx context.Context, name string, args ...string) (string, error)
	ReadFile(ctx context.Context, path string) ([]byte, error)
	GetHostname() string
	IsLocal() bool
}

// LocalExecutor executes commands locally
type LocalExecutor struct {
	hostname string
}

// RemoteExecutor executes commands via SSH
type RemoteExecutor struct {
	hostname   string
	connection *SSHConnection
}

// missingFileStatus is the exit status used by the remote file probe when
// the file does not exist or is not readable.
const missingFileStatus = 44

// NewLocalExecutor creates a new local executor
func NewLocalExecutor(ctx context.Context) *LocalExecutor {
	e := &LocalExecutor{hostname: "localhost"}
	if hostname, err := e.RunCommand(ctx, "hostname", "-f"); err == nil && strings.TrimSpace(hostname) != "" {
		e.hostname = strings.TrimSpace(hostname)
	} else if hostname, err := os.Hostname(); err == nil {
		e.hostname = hostname
	}
	return e
}

// NewRemoteExecutor connects to the host described by config
func NewRemoteExecutor(ctx context.Context, config *SSHConfig) (*RemoteExecutor, error) {
	conn := NewSSHConnection(config)
	if err := conn.Connect(); err != nil {
		return nil, err
	}

	e := &RemoteExecutor{hostname: config.Host, connection: conn}

	// Remote hostname is only a label for the report
	if hostname, err := e.RunCommand(ctx, "hostname", "-f"); err == nil && strings.TrimSpace(hostname) != "" {
		e.hostname = strings.TrimSpace(hostname)
	}

	return e, nil
}

// RunCommand executes a command locally and returns its standard output
func (e *LocalExecutor) RunCommand(ctx context.Context, name string, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return stdout.String(), fmt.Errorf("command '%s %s' interrupted: %w", name, strings.Join(args, " "), ctx.Err())
		}
		return stdout.String(), fmt.Errorf("command '%s %s' failed: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// ReadFile reads a local file
func (e *LocalExecutor) ReadFile(_ context.Context, path string) ([]byte, error) {
	return os.ReadFile(path)
}

// GetHostname returns the hostname
func (e *LocalExecutor) GetHostname() string {
	return e.hostname
}

// IsLocal returns true for local executor
func (e *LocalExecutor) IsLocal() bool {
	return true
}

// RunCommand executes a command remotely
func (e *RemoteExecutor) RunCommand(ctx context.Context, name string, args ...string) (string, error) {
	if e.connection == nil || e.connection.Client == nil {
		return "", fmt.Errorf("remote connection is not established")
	}

	return e.connection.RunCommand(ctx, BuildCommandLine(name, args...))
}

// ReadFile reads a file on the remote host. A missing or unreadable file is
// reported as fs.ErrNotExist.
func (e *RemoteExecutor) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if e.connection == nil || e.connection.Client == nil {
		return nil, fmt.Errorf("remote connection is not established")
	}

	quoted := ShellQuote(path)
	probe := fmt.Sprintf("test -r %s || exit %d; cat %s", quoted, missingFileStatus, quoted)

	output, err := e.connection.RunCommand(ctx, "sh -c "+ShellQuote(probe))
	if err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitStatus() == missingFileStatus {
			return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
		}
		return nil, err
	}
	return []byte(output), nil
}

// GetHostname returns the remote hostname
func (e *RemoteExecutor) GetHostname() string {
	return e.hostname
}

// IsLocal returns false for remote executor
func (e *RemoteExecutor) IsLocal() bool {
	return false
}

// Close closes the remote connection
func (e *RemoteExecutor) Close() error {
	if e.connection != nil {
		return e.connection.Close()
	}
	return nil
}

// BuildCommandLine joins a command and its arguments into a single shell
// command line, quoting arguments that need it.
func BuildCommandLine(name string, args ...string) string {
	var sb strings.Builder
	sb.WriteString(name)
	for _, arg := range args {
		sb.WriteString(" ")
		sb.WriteString(ShellQuote(arg))
	}
	return sb.String()
}

// ShellQuote quotes s for a POSIX shell when it contains anything beyond
// plain word characters.
func ShellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("-_./=:,%+@", r)) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
