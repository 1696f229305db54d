// Package scope resolves where and how the client binary is invoked.
//
// A Scope is one level of a parent-linked chain. Each level may override the
// client path, API server, kubeconfig, namespace, credentials, log level,
// remote shell and deadline; everything it leaves unset is resolved from its
// ancestors and finally from the process-wide Base built from the
// environment.
//
// The current Scope travels inside a context.Context. A goroutine that wants
// its own settings pushes a child with New and closes it when done:
//
//	ctx, s := scope.New(ctx,
//	    scope.WithNamespace("openshift-monitoring"),
//	    scope.WithTimeout(2*time.Minute))
//	defer s.Close()
//
//	a, err := scope.Invoke(ctx, "get", []string{"pods", "-o=json"})
//
// Invoke never turns a non-zero exit status into an error. Callers that
// require success wrap the Action in an action.Result and call FailIf.
//
// Deadlines nest: an invocation is bounded by the earliest deadline of every
// Scope on the chain, not only the nearest one. An invocation that runs out
// of time is reported with action.StatusTimeout.
//
// Tracking is additive. Every Scope that enabled WithTracking records every
// Action invoked below it.
package scope
