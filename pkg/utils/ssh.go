// pkg/utils/ssh.go

package utils

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
)

// SSHConfig holds SSH connection configuration
type SSHConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	KeyFile  string
	Timeout  time.Duration

	// Privilege escalation for commands that read root-only facts
	Become       bool
	BecomeMethod string
	BecomeUser   string
	BecomePass   string
	BecomeFlags  string
}

// SSHConnection represents an SSH connection to a remote host
type SSHConnection struct {
	Config *SSHConfig
	Client *ssh.Client
}

// NewSSHConnection creates a new, not yet connected, SSH connection
func NewSSHConnection(config *SSHConfig) *SSHConnection {
	return &SSHConnection{Config: config}
}

// Connect establishes the SSH connection
func (s *SSHConnection) Connect() error {
	var authMethods []ssh.AuthMethod

	switch {
	case s.Config.Password != "":
		authMethods = append(authMethods, ssh.Password(s.Config.Password))
	case s.Config.KeyFile != "":
		keyAuth, err := s.getKeyAuth()
		if err != nil {
			return fmt.Errorf("failed to load SSH key from %s: %w", s.Config.KeyFile, err)
		}
		authMethods = append(authMethods, keyAuth)
	default:
		defaultKeyPath := filepath.Join(os.Getenv("HOME"), ".ssh", "id_rsa")
		if !fileExists(defaultKeyPath) {
			return fmt.Errorf("no authentication method available - no password provided and no SSH key found")
		}
		s.Config.KeyFile = defaultKeyPath
		keyAuth, err := s.getKeyAuth()
		if err != nil {
			return fmt.Errorf("no authentication method available - please provide either SSH key or password")
		}
		authMethods = append(authMethods, keyAuth)
	}

	sshConfig := &ssh.ClientConfig{
		User:            s.Config.User,
		Auth:            authMethods,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), // TODO: verify against known_hosts once the hosts file can name one
		Timeout:         s.Config.Timeout,
		HostKeyAlgorithms: []string{
			ssh.KeyAlgoRSA,
			ssh.KeyAlgoED25519,
			ssh.KeyAlgoECDSA256,
			ssh.KeyAlgoECDSA384,
			ssh.KeyAlgoECDSA521,
		},
	}

	if s.Client != nil {
		s.Client.Close()
		s.Client = nil
	}

	address := net.JoinHostPort(s.Config.Host, s.Config.Port)

	client, err := ssh.Dial("tcp", address, sshConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", address, err)
	}

	s.Client = client
	return nil
}

// getKeyAuth returns SSH key authentication method
func (s *SSHConnection) getKeyAuth() (ssh.AuthMethod, error) {
	key, err := os.ReadFile(s.Config.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read private key: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("unable to parse private key (it may be passphrase-protected): %w", err)
	}

	return ssh.PublicKeys(signer), nil
}

// RunCommand executes a shell command line on the remote host and returns
// its standard output. A non-zero exit status is returned as *ssh.ExitError.
func (s *SSHConnection) RunCommand(ctx context.Context, commandLine string) (string, error) {
	commandLine, stdin, err := s.wrapBecome(commandLine)
	if err != nil {
		return "", err
	}

	if s.Client == nil {
		if err := s.Connect(); err != nil {
			return "", fmt.Errorf("SSH client not connected and reconnection failed: %w", err)
		}
	}

	session, err := s.Client.NewSession()
	if err != nil {
		// The connection may have dropped; reconnect once
		if err := s.Connect(); err != nil {
			return "", fmt.Errorf("failed to create session and reconnection failed: %w", err)
		}

		session, err = s.Client.NewSession()
		if err != nil {
			return "", fmt.Errorf("failed to create session after reconnection: %w", err)
		}
	}
	defer session.Close()

	var stdoutBuf, stderrBuf bytes.Buffer
	session.Stdout = &stdoutBuf
	session.Stderr = &stderrBuf

	if stdin != "" {
		session.Stdin = strings.NewReader(stdin)
	}

	done := make(chan error, 1)
	go func() {
		done <- session.Run(commandLine)
	}()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		_ = session.Close()
		return stdoutBuf.String(), fmt.Errorf("remote command interrupted: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return stdoutBuf.String(), fmt.Errorf("remote command failed: %w: %s", err, strings.TrimSpace(stderrBuf.String()))
		}
	}

	return stdoutBuf.String(), nil
}

// wrapBecome prefixes the command line with the configured privilege
// escalation method. The returned stdin carries the become password; su
// reads its password from a terminal, so only sudo gets one.
func (s *SSHConnection) wrapBecome(commandLine string) (string, string, error) {
	if !s.Config.Become {
		return commandLine, "", nil
	}

	user := s.Config.BecomeUser
	if user == "" {
		user = "root"
	}

	var parts []string
	stdin := ""
	switch method := s.Config.BecomeMethod; method {
	case "", "sudo":
		parts = []string{"sudo"}
		if s.Config.BecomePass != "" {
			parts = append(parts, "-S", "-p", "''")
			stdin = s.Config.BecomePass + "\n"
		} else {
			parts = append(parts, "-n")
		}
		parts = append(parts, "-u", ShellQuote(user))
		if s.Config.BecomeFlags != "" {
			parts = append(parts, s.Config.BecomeFlags)
		}
		parts = append(parts, "sh", "-c", ShellQuote(commandLine))
	case "su":
		parts = []string{"su"}
		if s.Config.BecomeFlags != "" {
			parts = append(parts, s.Config.BecomeFlags)
		}
		parts = append(parts, ShellQuote(user), "-c", ShellQuote(commandLine))
	default:
		return "", "", fmt.Errorf("unsupported become method %q", method)
	}

	return strings.Join(parts, " "), stdin, nil
}

// Close closes the SSH connection
func (s *SSHConnection) Close() error {
	if s.Client != nil {
		return s.Client.Close()
	}
	return nil
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
