package resource

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/giantswarm/kubedriver/internal/action"
	"github.com/giantswarm/kubedriver/internal/scope"
)

// LogOptions tunes Logs.
type LogOptions struct {
	// Containers limits the containers read. Empty means every container,
	// init containers first.
	Containers []string
	Previous   bool
	Timestamps bool
	Since      time.Duration
	// TailLines is the number of trailing lines to read. Zero reads all.
	TailLines int
}

func (o LogOptions) args() []string {
	var args []string
	if o.Previous {
		args = append(args, "--previous")
	}
	if o.Timestamps {
		args = append(args, "--timestamps")
	}
	if o.Since > 0 {
		args = append(args, "--since="+o.Since.String())
	}
	if o.TailLines > 0 {
		args = append(args, "--tail="+strconv.Itoa(o.TailLines))
	}
	return args
}

// Logs reads container logs of a pod, keyed by container name. A container
// whose logs could not be read maps to the client's error text; its Action
// carries the non-zero status.
func (r *Resource) Logs(ctx context.Context, opts LogOptions) (map[string]string, *action.Result, error) {
	res := action.NewResult("logs")
	if !r.IsKind("pod") {
		return nil, res, fmt.Errorf("logs are only available for pods, not %s", r)
	}

	containers := opts.Containers
	if len(containers) == 0 {
		containers = r.ContainerNames()
	}

	logs := make(map[string]string, len(containers))
	for _, container := range containers {
		args := append([]string{r.QName().KindName(), "-c", container}, opts.args()...)
		a, err := r.invoke(ctx, res, "logs", args, scope.References(map[string]any{
			"qname":     r.String(),
			"container": container,
		}))
		if err != nil {
			return logs, res, err
		}
		if a.Succeeded() {
			logs[container] = a.Out
		} else {
			logs[container] = a.Err
		}
	}
	return logs, res, nil
}

// ContainerNames returns the init container and container names of a pod
// document, in that order.
func (r *Resource) ContainerNames() []string {
	var names []string
	for _, field := range []string{"initContainers", "containers"} {
		for _, c := range r.doc.Get("spec", field).List() {
			if name := c.Get("name").Str(""); name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}

// ExecOptions tunes Execute.
type ExecOptions struct {
	// Container defaults to the pod's default container.
	Container string
	Stdin     []byte
}

// Execute runs cmd in a pod container. The command's output and exit status
// are those of the Action.
func (r *Resource) Execute(ctx context.Context, cmd []string, opts ExecOptions) (*action.Result, error) {
	res := action.NewResult("exec")
	if !r.IsKind("pod") {
		return res, fmt.Errorf("exec is only available for pods, not %s", r)
	}
	if len(cmd) == 0 {
		return res, fmt.Errorf("no command to execute in %s", r)
	}

	args := []string{r.QName().KindName()}
	if opts.Container != "" {
		args = append(args, "-c", opts.Container)
	}
	var invokeOpts []scope.InvokeOption
	if opts.Stdin != nil {
		args = append(args, "-i")
		invokeOpts = append(invokeOpts, scope.Stdin(opts.Stdin))
	}
	args = append(append(args, "--"), cmd...)

	_, err := r.invoke(ctx, res, "exec", args, invokeOpts...)
	return res, err
}
