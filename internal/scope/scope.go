package scope

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/giantswarm/kubedriver/internal/action"
	"github.com/giantswarm/kubedriver/internal/instrumentation"
	"github.com/giantswarm/kubedriver/internal/transport/ssh"
)

// Scope is one level of settings. Fields left unset fall through to the
// parent. A Scope is configured once by New and then only read, except for
// Close and the tracking Result.
type Scope struct {
	parent *Scope

	clientPath    string
	server        string
	kubeconfig    string
	namespace     string
	token         string
	tokenSource   oauth2.TokenSource
	logLevel      int
	allNamespaces *bool
	deadline      time.Time
	tracking      *action.Result

	shell    Shell
	session  *sshSession
	executor Executor
	logger   *slog.Logger
	metrics  *instrumentation.Metrics

	mu     sync.Mutex
	closed bool
}

// Option configures a Scope.
type Option func(*Scope)

// WithClientPath sets the client binary, e.g. "kubectl" or "/usr/bin/oc".
func WithClientPath(path string) Option {
	return func(s *Scope) { s.clientPath = path }
}

// WithServer sets the API server URL. An insecure:// URL is contacted over
// https without certificate verification. A Scope that sets a server without
// a namespace does not inherit its parent's namespace.
func WithServer(server string) Option {
	return func(s *Scope) { s.server = server }
}

// WithKubeconfig sets the kubeconfig path.
func WithKubeconfig(path string) Option {
	return func(s *Scope) { s.kubeconfig = path }
}

// WithNamespace sets the namespace.
func WithNamespace(namespace string) Option {
	return func(s *Scope) { s.namespace = namespace }
}

// WithToken sets a static bearer token.
func WithToken(token string) Option {
	return func(s *Scope) { s.token = token }
}

// WithTokenSource sets a source that is asked for a token on every
// invocation. It takes precedence over a token set on the same Scope.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(s *Scope) { s.tokenSource = ts }
}

// WithLogLevel sets the client's --loglevel. Zero leaves the flag off.
func WithLogLevel(level int) Option {
	return func(s *Scope) { s.logLevel = level }
}

// WithAllNamespaces makes dynamic selectors created below query every
// namespace.
func WithAllNamespaces(all bool) Option {
	return func(s *Scope) { s.allNamespaces = &all }
}

// WithTimeout sets a deadline d from now.
func WithTimeout(d time.Duration) Option {
	return func(s *Scope) { s.deadline = time.Now().Add(d) }
}

// WithDeadline sets an absolute deadline.
func WithDeadline(deadline time.Time) Option {
	return func(s *Scope) { s.deadline = deadline }
}

// WithTracking records every Action invoked below this Scope in a Result
// retaining at most limit actions. A limit of zero keeps everything.
func WithTracking(limit int) Option {
	return func(s *Scope) {
		s.tracking = action.NewResult("tracking", action.WithLimit(limit))
	}
}

// WithShell runs invocations through an existing remote shell. The caller
// keeps ownership of sh.
func WithShell(sh Shell) Option {
	return func(s *Scope) { s.shell = sh }
}

// WithSSH runs invocations on a remote host. The connection is dialed on
// first use and closed with the Scope.
func WithSSH(config *ssh.Config) Option {
	return func(s *Scope) {
		if config == nil {
			return
		}
		s.session = &sshSession{config: config}
		s.shell = s.session
	}
}

// WithExecutor replaces the way command lines are run. It takes precedence
// over any shell on the same Scope.
func WithExecutor(e Executor) Option {
	return func(s *Scope) { s.executor = e }
}

// WithLogger sets the logger for invocations below this Scope.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scope) { s.logger = logger }
}

// WithMetrics records invocation metrics below this Scope. A nil Metrics
// records nothing.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(s *Scope) { s.metrics = m }
}

type ctxKey struct{}

var (
	baseOnce sync.Once
	base     *Scope
)

// Base returns the process-wide root Scope built from DefaultsFromEnv on
// first use.
func Base() *Scope {
	baseOnce.Do(func() {
		base = newRoot(DefaultsFromEnv())
	})
	return base
}

// NewRoot starts a chain that does not fall back to Base. The returned Scope
// is the floor for everything created from the returned context.
func NewRoot(ctx context.Context, d Defaults, opts ...Option) (context.Context, *Scope) {
	s := newRoot(d)
	for _, opt := range opts {
		opt(s)
	}
	if s.session != nil {
		s.session.logger = s.Logger()
		s.session.metrics = s.Metrics()
	}
	return context.WithValue(ctx, ctxKey{}, s), s
}

func newRoot(d Defaults) *Scope {
	s := &Scope{
		clientPath: d.ClientPath,
		server:     d.Server,
		kubeconfig: d.Kubeconfig,
		namespace:  d.Namespace,
		token:      d.Token,
		logLevel:   d.LogLevel,
	}
	if s.clientPath == "" {
		s.clientPath = DefaultClientPath
	}
	if d.Timeout > 0 {
		s.deadline = time.Now().Add(d.Timeout)
	}
	WithSSH(d.SSH)(s)
	if s.session != nil {
		s.session.logger = slog.Default()
	}
	return s
}

// New pushes a child of the Scope in ctx and returns a context carrying it.
// Callers should defer Close on the returned Scope.
func New(ctx context.Context, opts ...Option) (context.Context, *Scope) {
	s := &Scope{parent: From(ctx)}
	for _, opt := range opts {
		opt(s)
	}
	if s.session != nil {
		s.session.logger = s.Logger()
		s.session.metrics = s.Metrics()
	}
	return context.WithValue(ctx, ctxKey{}, s), s
}

// From returns the Scope carried by ctx, or Base when there is none. It
// never returns nil.
func From(ctx context.Context) *Scope {
	if ctx != nil {
		if s, ok := ctx.Value(ctxKey{}).(*Scope); ok && s != nil {
			return s
		}
	}
	return Base()
}

// Parent returns the enclosing Scope, nil for a root.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// Close releases the remote session owned by this Scope, if any. Invoking
// through a closed Scope fails with ErrScopeClosed. Close is idempotent.
func (s *Scope) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	if s.session != nil {
		if err := s.session.Close(); err != nil {
			return fmt.Errorf("failed to close remote session: %w", err)
		}
	}
	return nil
}

// Active reports whether the Scope has not been closed.
func (s *Scope) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

// ClientPath returns the client binary.
func (s *Scope) ClientPath() string {
	for c := s; c != nil; c = c.parent {
		if c.clientPath != "" {
			return c.clientPath
		}
	}
	return ""
}

// Server returns the API server URL, "" to use the kubeconfig's.
func (s *Scope) Server() string {
	for c := s; c != nil; c = c.parent {
		if c.server != "" {
			return c.server
		}
	}
	return ""
}

// Kubeconfig returns the kubeconfig path, "" for the client's default.
func (s *Scope) Kubeconfig() string {
	for c := s; c != nil; c = c.parent {
		if c.kubeconfig != "" {
			return c.kubeconfig
		}
	}
	return ""
}

// Namespace returns the namespace. The walk stops at the first Scope that
// sets a server: a namespace never carries over to a different server.
func (s *Scope) Namespace() string {
	for c := s; c != nil; c = c.parent {
		if c.namespace != "" {
			return c.namespace
		}
		if c.server != "" {
			return ""
		}
	}
	return ""
}

// Token returns the bearer token, asking a token source if the nearest
// credential is one.
func (s *Scope) Token() (string, error) {
	token, ts := s.credentials()
	if ts == nil {
		return token, nil
	}
	return tokenFrom(ts)
}

func (s *Scope) credentials() (string, oauth2.TokenSource) {
	for c := s; c != nil; c = c.parent {
		if c.tokenSource != nil {
			return "", c.tokenSource
		}
		if c.token != "" {
			return c.token, nil
		}
	}
	return "", nil
}

func tokenFrom(ts oauth2.TokenSource) (string, error) {
	tok, err := ts.Token()
	if err != nil {
		return "", fmt.Errorf("failed to obtain token: %w", err)
	}
	return tok.AccessToken, nil
}

// LogLevel returns the client --loglevel, 0 when unset.
func (s *Scope) LogLevel() int {
	for c := s; c != nil; c = c.parent {
		if c.logLevel != 0 {
			return c.logLevel
		}
	}
	return 0
}

// AllNamespaces reports whether dynamic selectors should span namespaces.
func (s *Scope) AllNamespaces() bool {
	for c := s; c != nil; c = c.parent {
		if c.allNamespaces != nil {
			return *c.allNamespaces
		}
	}
	return false
}

// Shell returns the remote shell invocations go through, nil for local
// execution.
func (s *Scope) Shell() Shell {
	for c := s; c != nil; c = c.parent {
		if c.executor != nil {
			return nil
		}
		if c.shell != nil {
			return c.shell
		}
	}
	return nil
}

// Executor returns what runs command lines for this Scope.
func (s *Scope) Executor() Executor {
	for c := s; c != nil; c = c.parent {
		if c.executor != nil {
			return c.executor
		}
		if c.shell != nil {
			return ShellExecutor{Shell: c.shell}
		}
	}
	return LocalExecutor{}
}

// Logger returns the logger for this Scope, slog.Default when none is set.
func (s *Scope) Logger() *slog.Logger {
	for c := s; c != nil; c = c.parent {
		if c.logger != nil {
			return c.logger
		}
	}
	return slog.Default()
}

// Metrics returns the invocation metrics, nil when none are set.
func (s *Scope) Metrics() *instrumentation.Metrics {
	for c := s; c != nil; c = c.parent {
		if c.metrics != nil {
			return c.metrics
		}
	}
	return nil
}

// Deadline returns the earliest deadline on the chain.
func (s *Scope) Deadline() (time.Time, bool) {
	var earliest time.Time
	for c := s; c != nil; c = c.parent {
		if c.deadline.IsZero() {
			continue
		}
		if earliest.IsZero() || c.deadline.Before(earliest) {
			earliest = c.deadline
		}
	}
	return earliest, !earliest.IsZero()
}

// IsOutOfTime reports whether any deadline on the chain has passed.
func (s *Scope) IsOutOfTime() bool {
	deadline, ok := s.Deadline()
	return ok && !time.Now().Before(deadline)
}

// MinRemaining returns the time left until the earliest deadline on the
// chain, never less than one second. ok is false when no Scope has a
// deadline.
func (s *Scope) MinRemaining() (remaining time.Duration, ok bool) {
	deadline, ok := s.Deadline()
	if !ok {
		return 0, false
	}
	remaining = time.Until(deadline)
	if remaining < time.Second {
		remaining = time.Second
	}
	return remaining, true
}

// MinRemainingSeconds is MinRemaining in whole seconds, -1 without a
// deadline.
func (s *Scope) MinRemainingSeconds() int {
	remaining, ok := s.MinRemaining()
	if !ok {
		return -1
	}
	return int(remaining / time.Second)
}

// Tracked returns the Result this Scope records into, nil when tracking is
// not enabled on this Scope itself.
func (s *Scope) Tracked() *action.Result {
	return s.tracking
}

// Register records a into every tracking Result on the chain.
func (s *Scope) Register(a *action.Action) {
	for c := s; c != nil; c = c.parent {
		if c.tracking != nil {
			c.tracking.Add(a)
		}
	}
}

// Target is a snapshot of the resolved connection settings. Operations that
// run against a Target are not affected by later changes of the chain.
type Target struct {
	ClientPath  string
	Server      string
	Kubeconfig  string
	Namespace   string
	Token       string
	TokenSource oauth2.TokenSource
	LogLevel    int
	Executor    Executor
}

// Target snapshots the settings resolved from s.
func (s *Scope) Target() Target {
	token, ts := s.credentials()
	return Target{
		ClientPath:  s.ClientPath(),
		Server:      s.Server(),
		Kubeconfig:  s.Kubeconfig(),
		Namespace:   s.Namespace(),
		Token:       token,
		TokenSource: ts,
		LogLevel:    s.LogLevel(),
		Executor:    s.Executor(),
	}
}
