package scope

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/giantswarm/kubedriver/internal/action"
	"github.com/giantswarm/kubedriver/internal/instrumentation"
	"github.com/giantswarm/kubedriver/internal/logging"
)

const insecureScheme = "insecure://"

// InvokeOption configures a single invocation.
type InvokeOption func(*invokeOptions)

type invokeOptions struct {
	stdin       []byte
	noNamespace bool
	internal    bool
	notLast     bool
	references  map[string]any
	target      *Target
	namespace   *string
}

// Stdin feeds data to the client's standard input.
func Stdin(data []byte) InvokeOption {
	return func(o *invokeOptions) { o.stdin = data }
}

// NoNamespace omits --namespace, for cluster scoped verbs.
func NoNamespace() InvokeOption {
	return func(o *invokeOptions) { o.noNamespace = true }
}

// Internal marks the Action as bookkeeping that user facing logs skip.
func Internal() InvokeOption {
	return func(o *invokeOptions) { o.internal = true }
}

// References attaches metadata to the Action.
func References(refs map[string]any) InvokeOption {
	return func(o *invokeOptions) { o.references = refs }
}

// NotLastAttempt marks the Action as a retry that will be followed by
// another attempt, so that its status does not count towards a Result.
func NotLastAttempt() InvokeOption {
	return func(o *invokeOptions) { o.notLast = true }
}

// OnTarget sends the invocation to t instead of the settings resolved from
// the Scope. Deadlines and tracking still come from the Scope.
func OnTarget(t Target) InvokeOption {
	return func(o *invokeOptions) { o.target = &t }
}

// InNamespace overrides the namespace for this invocation only.
func InNamespace(namespace string) InvokeOption {
	return func(o *invokeOptions) { o.namespace = &namespace }
}

// Invoke runs verb through the Scope carried by ctx.
func Invoke(ctx context.Context, verb string, args []string, opts ...InvokeOption) (*action.Action, error) {
	return From(ctx).Invoke(ctx, verb, args, opts...)
}

// Invoke runs the client with verb and args and returns the recorded Action.
//
// The command is bounded by the earliest deadline on the chain and by ctx.
// A non-zero exit status is reported in the Action, not as an error, and so
// is an expired deadline. Errors mean the client could not be run at all or
// ctx was cancelled.
func (s *Scope) Invoke(ctx context.Context, verb string, args []string, opts ...InvokeOption) (*action.Action, error) {
	if !s.Active() {
		return nil, ErrScopeClosed
	}

	o := invokeOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	target := s.Target()
	if o.target != nil {
		target = *o.target
	}
	if o.namespace != nil {
		target.Namespace = *o.namespace
	}
	if o.noNamespace {
		target.Namespace = ""
	}
	if target.ClientPath == "" {
		return nil, ErrNoClient
	}
	if target.Executor == nil {
		target.Executor = LocalExecutor{}
	}

	argv, err := target.Command(verb, args)
	if err != nil {
		return nil, err
	}

	if remaining, ok := s.MinRemaining(); ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, remaining)
		defer cancel()
	}

	transport := transportOf(target.Executor)
	logger := logging.WithVerb(s.Logger(), verb)
	metrics := s.Metrics()

	ctx, span := instrumentation.StartInvocationSpan(ctx, verb, transport, target.Namespace)
	defer span.End()

	a := &action.Action{
		Verb:        verb,
		Cmd:         argv,
		In:          o.stdin,
		LastAttempt: !o.notLast,
		Internal:    o.internal,
		References:  o.references,
		ExecTime:    time.Now(),
	}

	if !a.Internal {
		attrs := []any{logging.Namespace(target.Namespace), logging.Argv(action.RedactArgs(argv))}
		if target.Server != "" {
			attrs = append(attrs, logging.Server(target.Server))
		}
		logger.Debug("invoking client", attrs...)
	}

	resp, err := target.Executor.Execute(ctx, Request{Argv: argv, Stdin: o.stdin})
	a.Elapsed = time.Since(a.ExecTime)
	if err != nil {
		logger.Warn("client invocation failed",
			logging.Duration(a.Elapsed),
			logging.SanitizedErr(err))
		metrics.RecordInvocation(ctx, verb, transport, target.Namespace, instrumentation.StatusError, a.Elapsed)
		instrumentation.SetSpanError(span, err)
		return nil, fmt.Errorf("failed to invoke %s: %w", verb, err)
	}

	a.Out = resp.Stdout
	a.Err = resp.Stderr
	a.Status = resp.Status
	a.TimedOut = resp.TimedOut
	s.Register(a)

	instrumentation.SetInvocationOutcome(span, a.Status, a.TimedOut)

	switch {
	case a.TimedOut:
		logger.Warn("client invocation timed out",
			logging.Duration(a.Elapsed),
			logging.Status(logging.StatusTimeout))
		metrics.RecordInvocation(ctx, verb, transport, target.Namespace, instrumentation.StatusTimeout, a.Elapsed)
		metrics.RecordTimeout(ctx, verb)
		instrumentation.AddSpanEvent(span, "deadline exceeded",
			attribute.Int64("elapsed_ms", a.Elapsed.Milliseconds()))
		instrumentation.SetSpanError(span, fmt.Errorf("%s timed out after %s", verb, a.Elapsed.Round(time.Millisecond)))
	case a.Status != 0:
		if !a.Internal {
			logger.Debug("client exited with non-zero status",
				logging.ExitStatus(a.Status),
				logging.Duration(a.Elapsed))
		}
		metrics.RecordInvocation(ctx, verb, transport, target.Namespace, instrumentation.StatusError, a.Elapsed)
		instrumentation.SetSpanError(span, fmt.Errorf("%s exited with status %d", verb, a.Status))
	default:
		if !a.Internal {
			logger.Debug("client invocation succeeded",
				logging.Duration(a.Elapsed),
				logging.Status(logging.StatusSuccess))
		}
		metrics.RecordInvocation(ctx, verb, transport, target.Namespace, instrumentation.StatusSuccess, a.Elapsed)
		instrumentation.SetSpanSuccess(span)
	}

	return a, nil
}

// Command builds the full argv for verb and args: the client binary, the
// connection flags of t, then verb and args.
func (t Target) Command(verb string, args []string) ([]string, error) {
	argv := []string{t.ClientPath}

	if server := t.Server; server != "" {
		if strings.HasPrefix(server, insecureScheme) {
			argv = append(argv, "--insecure-skip-tls-verify")
			server = "https://" + strings.TrimPrefix(server, insecureScheme)
		}
		argv = append(argv, "--server="+server)
	}
	if t.Kubeconfig != "" {
		argv = append(argv, "--kubeconfig="+t.Kubeconfig)
	}
	if t.Namespace != "" {
		argv = append(argv, "--namespace="+t.Namespace)
	}

	token := t.Token
	if t.TokenSource != nil {
		var err error
		if token, err = tokenFrom(t.TokenSource); err != nil {
			return nil, err
		}
	}
	if token != "" {
		argv = append(argv, "--token="+token)
	}
	if t.LogLevel != 0 {
		argv = append(argv, "--loglevel="+strconv.Itoa(t.LogLevel))
	}

	argv = append(argv, verb)
	return append(argv, args...), nil
}

// WhoAmI returns the user the client authenticates as.
func WhoAmI(ctx context.Context) (string, error) {
	res := action.NewResult("whoami")
	a, err := Invoke(ctx, "whoami", nil, NoNamespace())
	if err != nil {
		return "", err
	}
	res.Add(a)
	if err := res.FailIf("unable to determine current user"); err != nil {
		return "", err
	}
	user := res.Out()
	From(ctx).Logger().Debug("resolved client user", logging.UserHash(user))
	return user, nil
}

// ServerVersion returns the git version reported by the API server.
func ServerVersion(ctx context.Context) (string, error) {
	res := action.NewResult("version")
	a, err := Invoke(ctx, "version", []string{"-o=json"}, NoNamespace())
	if err != nil {
		return "", err
	}
	res.Add(a)
	if err := res.FailIf("unable to determine server version"); err != nil {
		return "", err
	}

	var version struct {
		ServerVersion struct {
			GitVersion string `json:"gitVersion"`
		} `json:"serverVersion"`
	}
	if err := json.Unmarshal([]byte(res.Out()), &version); err != nil {
		return "", fmt.Errorf("failed to parse version output: %w", err)
	}
	return version.ServerVersion.GitVersion, nil
}
