package scope

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	"github.com/giantswarm/kubedriver/internal/action"
	"github.com/giantswarm/kubedriver/internal/instrumentation"
	"github.com/giantswarm/kubedriver/internal/logging"
	"github.com/giantswarm/kubedriver/internal/transport/ssh"
)

// DefaultWaitDelay bounds how long a killed local process may keep its
// output pipes open.
const DefaultWaitDelay = 5 * time.Second

// Request is one command line to run.
type Request struct {
	Argv  []string
	Stdin []byte
}

// Response is what a finished command produced. TimedOut responses carry
// action.StatusTimeout and whatever output was captured before the kill.
type Response struct {
	Stdout   string
	Stderr   string
	Status   int
	TimedOut bool
}

// Executor runs a command line. The deadline of ctx is the invocation
// deadline: an Executor reports its expiry as a TimedOut Response, not as an
// error. Errors are reserved for commands that could not be run at all.
type Executor interface {
	Execute(ctx context.Context, req Request) (Response, error)
}

// Shell runs a command string on a remote host. *ssh.Client implements it.
type Shell interface {
	Run(ctx context.Context, cmd string, stdin []byte) (stdout, stderr string, status int, err error)
}

// LocalExecutor runs the client as a subprocess. On expiry the whole process
// group is killed where the platform supports it.
type LocalExecutor struct {
	WaitDelay time.Duration
}

// Execute implements Executor.
func (e LocalExecutor) Execute(ctx context.Context, req Request) (Response, error) {
	if len(req.Argv) == 0 {
		return Response{}, fmt.Errorf("empty command line")
	}

	cmd := exec.CommandContext(ctx, req.Argv[0], req.Argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if req.Stdin != nil {
		cmd.Stdin = bytes.NewReader(req.Stdin)
	}
	configureProcessGroup(cmd)
	cmd.WaitDelay = e.WaitDelay
	if cmd.WaitDelay == 0 {
		cmd.WaitDelay = DefaultWaitDelay
	}

	err := cmd.Run()
	resp := Response{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return resp, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			resp.Status = action.StatusTimeout
			resp.TimedOut = true
			return resp, nil
		}
		return resp, ctxErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		resp.Status = exitErr.ExitCode()
		return resp, nil
	}
	return resp, fmt.Errorf("failed to run %s: %w", req.Argv[0], err)
}

// ShellExecutor runs the client through a remote Shell. Arguments are
// quoted for a POSIX shell.
type ShellExecutor struct {
	Shell Shell
}

// Execute implements Executor.
func (e ShellExecutor) Execute(ctx context.Context, req Request) (Response, error) {
	if len(req.Argv) == 0 {
		return Response{}, fmt.Errorf("empty command line")
	}

	stdout, stderr, status, err := e.Shell.Run(ctx, ssh.JoinArgs(req.Argv), req.Stdin)
	resp := Response{Stdout: stdout, Stderr: stderr, Status: status}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			resp.Status = action.StatusTimeout
			resp.TimedOut = true
			return resp, nil
		}
		return resp, err
	}
	return resp, nil
}

func transportOf(e Executor) string {
	if _, ok := e.(ShellExecutor); ok {
		return instrumentation.TransportRemote
	}
	return instrumentation.TransportLocal
}

// sshSession is a Shell owned by the Scope that configured it. It dials on
// first use and is closed with its Scope.
type sshSession struct {
	config  *ssh.Config
	logger  *slog.Logger
	metrics *instrumentation.Metrics

	mu     sync.Mutex
	client *ssh.Client
	closed bool
}

func (s *sshSession) Run(ctx context.Context, cmd string, stdin []byte) (string, string, int, error) {
	client, err := s.connect(ctx)
	if err != nil {
		return "", "", 0, err
	}
	return client.Run(ctx, cmd, stdin)
}

func (s *sshSession) connect(ctx context.Context) (*ssh.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrScopeClosed
	}
	if s.client != nil {
		return s.client, nil
	}

	client, err := ssh.NewClient(s.config, s.logger)
	if err != nil {
		return nil, err
	}
	if err := client.Connect(ctx); err != nil {
		return nil, err
	}
	s.client = client
	s.metrics.IncrementRemoteSessions(ctx)
	return client, nil
}

func (s *sshSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	s.metrics.DecrementRemoteSessions(context.Background())
	if err != nil {
		s.logger.Warn("failed to close remote session", logging.Host(s.config.Address()), logging.Err(err))
	}
	return err
}
