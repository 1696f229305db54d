// Package ssh runs client commands on a remote host over an SSH session.
package ssh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/giantswarm/kubedriver/internal/logging"
)

// Client is a single SSH connection. Each Run opens a new session on it.
type Client struct {
	config *Config
	logger *slog.Logger

	mu     sync.Mutex
	client *ssh.Client
}

// NewClient validates config and returns an unconnected Client.
func NewClient(config *Config, logger *slog.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ssh config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{config: config, logger: logger}, nil
}

// Connect dials the remote host. Calling Connect on a connected client is a
// no-op.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return nil
	}

	clientConfig, err := c.config.BuildClientConfig()
	if err != nil {
		return &TransportError{Op: "connect", Err: err, IsAuthError: true}
	}

	address := c.config.Address()
	c.logger.Debug("establishing SSH connection", logging.Host(address))

	dialer := net.Dialer{Timeout: c.config.ConnectionTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return &TransportError{Op: "connect", Err: err, IsTemporary: true}
	}

	// The handshake has no context of its own.
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, address, clientConfig)
	if err != nil {
		_ = conn.Close()
		return &TransportError{Op: "handshake", Err: err, IsAuthError: isAuthFailure(err)}
	}
	_ = conn.SetDeadline(time.Time{})

	c.client = ssh.NewClient(sshConn, chans, reqs)
	c.logger.Info("SSH connection established", logging.Host(address))
	return nil
}

// Run executes cmd in a new session and returns its output and exit status.
// A non-zero exit status is not an error. When ctx ends first the remote
// process is signalled and the error wraps ctx.Err().
func (c *Client) Run(ctx context.Context, cmd string, stdin []byte) (stdout, stderr string, status int, err error) {
	c.mu.Lock()
	client := c.client
	c.mu.Unlock()
	if client == nil {
		return "", "", 0, &TransportError{Op: "run", Err: ErrNotConnected}
	}

	session, err := client.NewSession()
	if err != nil {
		return "", "", 0, &TransportError{Op: "run", Err: fmt.Errorf("failed to create session: %w", err), IsTemporary: true}
	}
	defer session.Close()

	var stdoutBuf, stderrBuf bytes.Buffer
	session.Stdout = &stdoutBuf
	session.Stderr = &stderrBuf
	if stdin != nil {
		session.Stdin = bytes.NewReader(stdin)
	}

	done := make(chan error, 1)
	go func() {
		done <- session.Run(cmd)
	}()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGTERM)
		_ = session.Signal(ssh.SIGKILL)
		_ = session.Close()
		<-done
		return stdoutBuf.String(), stderrBuf.String(), 0, &TransportError{Op: "run", Err: ctx.Err()}
	case err = <-done:
	}

	if err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			return stdoutBuf.String(), stderrBuf.String(), exitErr.ExitStatus(), nil
		}
		return stdoutBuf.String(), stderrBuf.String(), 0, &TransportError{Op: "run", Err: err, IsTemporary: true}
	}
	return stdoutBuf.String(), stderrBuf.String(), 0, nil
}

// Close tears down the connection. It is safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	c.logger.Debug("SSH connection closed", logging.Host(c.config.Address()))
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return &TransportError{Op: "close", Err: err}
	}
	return nil
}

// Connected reports whether the client holds an open connection.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.client != nil
}

func isAuthFailure(err error) bool {
	return strings.Contains(err.Error(), "unable to authenticate")
}
