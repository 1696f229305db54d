// Package scopetest provides a scripted Executor for tests of code that
// invokes the client.
package scopetest

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/giantswarm/kubedriver/internal/scope"
)

// HandlerFunc answers one request.
type HandlerFunc func(ctx context.Context, req scope.Request) (scope.Response, error)

type route struct {
	prefix  string
	handler HandlerFunc
}

// Executor answers requests from routes keyed by the command line without
// the binary and connection flags, e.g. "get pod/a -o=json". The first route
// whose prefix matches wins. Unmatched requests exit with status 1.
type Executor struct {
	mu       sync.Mutex
	routes   []route
	requests []scope.Request
}

// NewExecutor returns an Executor without routes.
func NewExecutor() *Executor {
	return &Executor{}
}

// On answers requests starting with prefix with resp.
func (e *Executor) On(prefix string, resp scope.Response) *Executor {
	return e.OnFunc(prefix, func(context.Context, scope.Request) (scope.Response, error) {
		return resp, nil
	})
}

// OnJSON answers requests starting with prefix with v encoded as JSON.
func (e *Executor) OnJSON(prefix string, v any) *Executor {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return e.On(prefix, scope.Response{Stdout: string(data)})
}

// OnFunc answers requests starting with prefix with fn.
func (e *Executor) OnFunc(prefix string, fn HandlerFunc) *Executor {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.routes = append(e.routes, route{prefix: prefix, handler: fn})
	return e
}

// Execute implements scope.Executor.
func (e *Executor) Execute(ctx context.Context, req scope.Request) (scope.Response, error) {
	line := strings.Join(Args(req.Argv), " ")

	e.mu.Lock()
	e.requests = append(e.requests, req)
	var handler HandlerFunc
	for _, r := range e.routes {
		if strings.HasPrefix(line, r.prefix) {
			handler = r.handler
			break
		}
	}
	e.mu.Unlock()

	if handler == nil {
		return scope.Response{Status: 1, Stderr: "unexpected command: " + line}, nil
	}
	return handler(ctx, req)
}

// Requests returns every request received so far.
func (e *Executor) Requests() []scope.Request {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]scope.Request(nil), e.requests...)
}

// Lines returns the command line of every request, as matched by routes.
func (e *Executor) Lines() []string {
	requests := e.Requests()
	lines := make([]string, len(requests))
	for i, req := range requests {
		lines[i] = strings.Join(Args(req.Argv), " ")
	}
	return lines
}

// Args strips the binary and the leading connection flags from argv.
func Args(argv []string) []string {
	if len(argv) == 0 {
		return nil
	}
	rest := argv[1:]
	for len(rest) > 0 && strings.HasPrefix(rest[0], "--") {
		rest = rest[1:]
	}
	return rest
}

// Context returns a context carrying a root Scope that runs everything
// through e and ignores the environment.
func Context(t testing.TB, e *Executor, opts ...scope.Option) context.Context {
	t.Helper()
	opts = append([]scope.Option{scope.WithExecutor(e)}, opts...)
	ctx, s := scope.NewRoot(context.Background(), scope.Defaults{ClientPath: "oc"}, opts...)
	t.Cleanup(func() { _ = s.Close() })
	return ctx
}
