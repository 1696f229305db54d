package resource

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"k8s.io/apimachinery/pkg/types"

	"github.com/giantswarm/kubedriver/internal/action"
	"github.com/giantswarm/kubedriver/internal/instrumentation"
	"github.com/giantswarm/kubedriver/internal/logging"
	"github.com/giantswarm/kubedriver/internal/model"
	"github.com/giantswarm/kubedriver/internal/scope"
)

// invoke runs verb against the target of r and adds the Action to res.
func (r *Resource) invoke(ctx context.Context, res *action.Result, verb string, args []string, opts ...scope.InvokeOption) (*action.Action, error) {
	base := []scope.InvokeOption{
		scope.OnTarget(r.target),
		scope.References(map[string]any{"qname": r.String()}),
	}
	if r.namespace != "" {
		base = append(base, scope.InNamespace(r.namespace))
	} else {
		base = append(base, scope.NoNamespace())
	}

	a, err := scope.Invoke(ctx, verb, args, append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	res.Add(a)
	return a, nil
}

// Label sets or removes labels on the live object. A nil value removes the
// key. On success the local document is updated to match.
func (r *Resource) Label(ctx context.Context, labels map[string]*string, overwrite bool) (*action.Result, error) {
	return r.setMetadataMap(ctx, "label", "labels", labels, overwrite)
}

// Annotate is Label for annotations.
func (r *Resource) Annotate(ctx context.Context, annotations map[string]*string, overwrite bool) (*action.Result, error) {
	return r.setMetadataMap(ctx, "annotate", "annotations", annotations, overwrite)
}

func (r *Resource) setMetadataMap(ctx context.Context, verb, field string, values map[string]*string, overwrite bool) (*action.Result, error) {
	res := action.NewResult(verb)

	args := append([]string{r.QName().KindName()}, KeyValueArgs(values)...)
	if overwrite {
		args = append(args, "--overwrite")
	}

	a, err := r.invoke(ctx, res, verb, args)
	if err != nil {
		return res, err
	}
	if !a.Succeeded() {
		return res, nil
	}

	metadata, err := r.doc.Ensure("metadata")
	if err != nil {
		return res, err
	}
	m, err := metadata.Ensure(field)
	if err != nil {
		return res, err
	}
	for k, v := range values {
		if v == nil {
			err = m.Delete(k)
		} else {
			err = m.Set(k, *v)
		}
		if err != nil {
			return res, err
		}
	}
	return res, nil
}

// KeyValueArgs encodes values for the label and annotate verbs in key order:
// "k=v" to set and "k-" to remove.
func KeyValueArgs(values map[string]*string) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]string, 0, len(keys))
	for _, k := range keys {
		if v := values[k]; v == nil {
			args = append(args, k+"-")
		} else {
			args = append(args, k+"="+*v)
		}
	}
	return args
}

// Patch applies patch, marshaled to JSON, to the live object and replaces
// the local document with the patched object.
func (r *Resource) Patch(ctx context.Context, patch any, patchType types.PatchType) (*action.Result, error) {
	res := action.NewResult("patch")

	var flag string
	switch patchType {
	case types.MergePatchType:
		flag = "merge"
	case types.JSONPatchType:
		flag = "json"
	case types.StrategicMergePatchType:
		flag = "strategic"
	default:
		return res, fmt.Errorf("unsupported patch type %q", patchType)
	}

	data, err := json.Marshal(patch)
	if err != nil {
		return res, fmt.Errorf("failed to marshal patch: %w", err)
	}

	a, err := r.invoke(ctx, res, "patch", []string{r.QName().KindName(), "--type=" + flag, "-p", string(data), "-o=json"})
	if err != nil {
		return res, err
	}
	if a.Succeeded() {
		if err := r.replaceDocument(a.Out); err != nil {
			return res, err
		}
	}
	return res, nil
}

// Apply sends the document to the apply verb.
func (r *Resource) Apply(ctx context.Context) (*action.Result, error) {
	return r.submit(ctx, "apply", nil)
}

// Create sends the document to the create verb.
func (r *Resource) Create(ctx context.Context) (*action.Result, error) {
	return r.submit(ctx, "create", nil)
}

// Replace sends the document to the replace verb. With force the live object
// is deleted and recreated.
func (r *Resource) Replace(ctx context.Context, force bool) (*action.Result, error) {
	var extra []string
	if force {
		extra = []string{"--force"}
	}
	return r.submit(ctx, "replace", extra)
}

func (r *Resource) submit(ctx context.Context, verb string, extra []string, opts ...scope.InvokeOption) (*action.Result, error) {
	res := action.NewResult(verb)
	if _, err := r.submitTo(ctx, res, verb, extra, opts...); err != nil {
		return res, err
	}
	return res, nil
}

func (r *Resource) submitTo(ctx context.Context, res *action.Result, verb string, extra []string, opts ...scope.InvokeOption) (*action.Action, error) {
	data, err := r.AsJSON()
	if err != nil {
		return nil, err
	}
	args := append([]string{"-f", "-", "-o=name"}, extra...)
	return r.invoke(ctx, res, verb, args, append([]scope.InvokeOption{scope.Stdin(data)}, opts...)...)
}

// Delete deletes the live object. Extra args are passed through, e.g.
// "--wait=false".
func (r *Resource) Delete(ctx context.Context, ignoreNotFound bool, args ...string) (*action.Result, error) {
	res := action.NewResult("delete")

	argv := []string{r.QName().KindName(), "-o=name"}
	if ignoreNotFound {
		argv = append(argv, "--ignore-not-found")
	}
	argv = append(argv, args...)

	_, err := r.invoke(ctx, res, "delete", argv)
	return res, err
}

// Refresh replaces the local document with the live object. A missing
// object is an error.
func (r *Resource) Refresh(ctx context.Context) (*action.Result, error) {
	res := action.NewResult("refresh")
	return res, r.refreshTo(ctx, res)
}

func (r *Resource) refreshTo(ctx context.Context, res *action.Result) error {
	a, err := r.invoke(ctx, res, "get", []string{r.QName().KindName(), "-o=json"}, scope.Internal())
	if err != nil {
		return err
	}
	if !a.Succeeded() {
		return res.FailIf(fmt.Sprintf("unable to refresh %s", r))
	}
	return r.replaceDocument(a.Out)
}

// Exists reports whether the live object exists.
func (r *Resource) Exists(ctx context.Context) (bool, *action.Result, error) {
	res := action.NewResult("exists")
	a, err := r.invoke(ctx, res, "get", []string{r.QName().KindName(), "-o=name", "--ignore-not-found"}, scope.Internal())
	if err != nil {
		return false, res, err
	}
	if err := res.FailIf(fmt.Sprintf("unable to check whether %s exists", r)); err != nil {
		return false, res, err
	}
	return strings.TrimSpace(a.Out) != "", res, nil
}

// Describe runs the describe verb. The text is in the Result's output.
func (r *Resource) Describe(ctx context.Context) (*action.Result, error) {
	res := action.NewResult("describe")
	_, err := r.invoke(ctx, res, "describe", []string{r.QName().KindName()})
	return res, err
}

// Modifier changes r in place and reports whether it changed anything.
type Modifier func(r *Resource) (bool, error)

// ModifyAndApply calls fn on a copy of r and applies the copy. When the
// apply fails it refreshes r from the cluster and tries again, up to retries
// more times. It stops without applying as soon as fn reports no change.
// Failed attempts followed by a retry do not count towards the Result's
// status.
func (r *Resource) ModifyAndApply(ctx context.Context, fn Modifier, retries int) (*action.Result, error) {
	res := action.NewResult("modify_and_apply")
	logger := logging.WithOperation(scope.From(ctx).Logger(), "modify_and_apply")

	ctx, span := instrumentation.StartSpan(ctx, "resource.modify_and_apply",
		attribute.String("resource.qname", r.String()))
	defer span.End()

	for attempt := 0; ; attempt++ {
		candidate := r.DeepCopy()
		changed, err := fn(candidate)
		if err != nil {
			return res, err
		}
		if !changed {
			return res, nil
		}

		last := attempt >= retries
		var opts []scope.InvokeOption
		if !last {
			opts = append(opts, scope.NotLastAttempt())
		}
		a, err := candidate.submitTo(ctx, res, "apply", nil, opts...)
		if err != nil {
			return res, err
		}
		if a.Succeeded() {
			r.doc = candidate.doc
			return res, nil
		}
		if last {
			return res, nil
		}

		logger.Debug("apply failed, retrying with fresh content",
			logging.QName(r.String()),
			logging.Iteration(attempt+1),
			logging.ExitStatus(a.Status))
		instrumentation.AddSpanEvent(span, "retry",
			attribute.Int("attempt", attempt+1),
			attribute.Int("exit_status", a.Status))
		if err := r.refreshTo(ctx, res); err != nil {
			return res, err
		}
	}
}

// replaceDocument swaps in a document printed by the client.
func (r *Resource) replaceDocument(out string) error {
	doc, err := model.Decode([]byte(out))
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", r, err)
	}
	if doc.Kind() != model.KindMap {
		return fmt.Errorf("unexpected %s document for %s", doc.Kind(), r)
	}
	r.doc = doc
	return nil
}
