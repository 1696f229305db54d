package selector

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"k8s.io/apimachinery/pkg/runtime"

	"github.com/giantswarm/kubedriver/internal/action"
	"github.com/giantswarm/kubedriver/internal/catalog"
	"github.com/giantswarm/kubedriver/internal/model"
	"github.com/giantswarm/kubedriver/internal/resource"
	"github.com/giantswarm/kubedriver/internal/scope"
)

// each runs verb once per namespace of a static selector, or once for a
// dynamic one. The selected resources go first, then extra. An empty static
// selector runs nothing.
func (s *Selector) each(ctx context.Context, verb string, needsAll bool, extra ...string) (*action.Result, error) {
	res := action.NewResult(verb)

	if !s.static {
		args, err := s.dynamicArgs(ctx, needsAll)
		if err != nil {
			return res, err
		}
		_, err = s.invoke(ctx, res, verb, append(args, extra...), "")
		return res, err
	}

	for _, b := range s.batches() {
		args := append(append([]string(nil), b.names...), extra...)
		if _, err := s.invoke(ctx, res, verb, args, b.namespace); err != nil {
			return res, err
		}
	}
	return res, nil
}

// Label sets or removes labels on every selected resource. A nil value
// removes the key. A dynamic selector without label constraints labels
// every resource of its kinds.
func (s *Selector) Label(ctx context.Context, labels map[string]*string, overwrite bool) (*action.Result, error) {
	args := resource.KeyValueArgs(labels)
	if overwrite {
		args = append(args, "--overwrite")
	}
	return s.each(ctx, "label", true, args...)
}

// Annotate is Label for annotations.
func (s *Selector) Annotate(ctx context.Context, annotations map[string]*string, overwrite bool) (*action.Result, error) {
	args := resource.KeyValueArgs(annotations)
	if overwrite {
		args = append(args, "--overwrite")
	}
	return s.each(ctx, "annotate", true, args...)
}

// Delete deletes every selected resource. Extra args are passed through.
func (s *Selector) Delete(ctx context.Context, ignoreNotFound bool, args ...string) (*action.Result, error) {
	extra := []string{"-o=name"}
	if ignoreNotFound {
		extra = append(extra, "--ignore-not-found")
	}
	return s.each(ctx, "delete", true, append(extra, args...)...)
}

// Describe runs the describe verb over the selection. The text is in the
// Result's output.
func (s *Selector) Describe(ctx context.Context) (*action.Result, error) {
	return s.each(ctx, "describe", false)
}

// Scale sets the replica count of every selected workload.
func (s *Selector) Scale(ctx context.Context, replicas int) (*action.Result, error) {
	return s.each(ctx, "scale", true, "--replicas="+strconv.Itoa(replicas))
}

// ForEach calls fn for every selected resource, stopping at the first error.
func (s *Selector) ForEach(ctx context.Context, fn func(context.Context, *resource.Resource) error) error {
	objs, err := s.Objects(ctx)
	if err != nil {
		return err
	}
	for _, obj := range objs {
		if err := fn(ctx, obj); err != nil {
			return err
		}
	}
	return nil
}

// Logs reads the logs of every selected pod, and of the pods related to
// every other selected resource, keyed by pod then container.
func (s *Selector) Logs(ctx context.Context, opts resource.LogOptions) (map[string]map[string]string, *action.Result, error) {
	res := action.NewResult("logs")
	objs, err := s.Objects(ctx)
	if err != nil {
		return nil, res, err
	}

	var pods []*resource.Resource
	for _, obj := range objs {
		if obj.IsKind("pod") {
			pods = append(pods, obj)
			continue
		}
		related, err := Related(obj, "pod")
		if err != nil {
			continue
		}
		owned, err := related.Objects(ctx)
		res.Merge(related.Result())
		if err != nil {
			return nil, res, err
		}
		pods = append(pods, owned...)
	}

	out := make(map[string]map[string]string, len(pods))
	for _, pod := range pods {
		logs, podRes, err := pod.Logs(ctx, opts)
		res.Merge(podRes)
		if err != nil {
			return out, res, err
		}
		out[pod.String()] = logs
	}
	return out, res, nil
}

// Related returns a dynamic selector over the resources of kind owned by r,
// in the namespace of r. See resource.Resource.RelatedLabels.
func Related(r *resource.Resource, kind string, opts ...Option) (*Selector, error) {
	labels, ok := r.RelatedLabels(kind)
	if !ok {
		return nil, fmt.Errorf("no known relation from %s to %s", r, kind)
	}

	constraints := make(map[string]any, len(labels))
	for k, v := range labels {
		constraints[k] = v
	}
	target := r.Target()
	target.Namespace = r.Namespace()

	opts = append([]Option{WithTarget(target)}, opts...)
	return Kind(kind, append(opts, Labels(constraints))...), nil
}

// Related returns Related for the only resource s selects.
func (s *Selector) Related(ctx context.Context, kind string) (*Selector, error) {
	obj, err := s.Object(ctx)
	if err != nil {
		return nil, err
	}
	return Related(obj, kind, WithCatalog(s.catalog))
}

// Create creates docs and returns a static selector over what the client
// reports as created. The selector's Result holds the create invocation.
func Create(ctx context.Context, docs ...any) (*Selector, error) {
	return submit(ctx, "create", nil, docs)
}

// Apply is Create for the apply verb.
func Apply(ctx context.Context, docs ...any) (*Selector, error) {
	return submit(ctx, "apply", nil, docs)
}

// Replace is Create for the replace verb. With force, live objects are
// deleted and recreated.
func Replace(ctx context.Context, force bool, docs ...any) (*Selector, error) {
	var extra []string
	if force {
		extra = []string{"--force"}
	}
	return submit(ctx, "replace", extra, docs)
}

// submit pipes docs as one List to verb and selects the names it prints.
// Docs may be *resource.Resource, *model.Value, runtime.Object or plain maps.
func submit(ctx context.Context, verb string, extra []string, docs []any) (*Selector, error) {
	cat := catalog.Default()
	items := make([]any, 0, len(docs))
	var known []catalog.QName
	for _, doc := range docs {
		item, err := toMap(doc)
		if err != nil {
			return nil, err
		}
		items = append(items, item)

		if r, ok := doc.(*resource.Resource); ok {
			known = append(known, r.QName())
		}
	}

	data, err := json.Marshal(map[string]any{"apiVersion": "v1", "kind": "List", "items": items})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal documents: %w", err)
	}

	sel := FromQNames(nil)
	a, err := sel.invoke(ctx, sel.res, verb, append([]string{"-f", "-", "-o=name"}, extra...), "", scope.Stdin(data))
	if err != nil {
		return nil, err
	}

	qnames, err := parseNames(a.Out, cat)
	if err != nil {
		return nil, err
	}
	// The client prints names without namespaces. Resources passed in know
	// where they live.
	for i, q := range qnames {
		for _, k := range known {
			if k.Matches(q) {
				qnames[i].Namespace = k.Namespace
				break
			}
		}
	}
	sel.qnames = qnames
	return sel, nil
}

func toMap(doc any) (map[string]any, error) {
	switch d := doc.(type) {
	case *resource.Resource:
		return d.AsMap(), nil
	case *model.Value:
		if m, ok := d.ToPrimitive().(map[string]any); ok {
			return m, nil
		}
		return nil, fmt.Errorf("document must be a map, got %s", d.Kind())
	case map[string]any:
		return d, nil
	case runtime.Object:
		return runtime.DefaultUnstructuredConverter.ToUnstructured(d)
	}
	return nil, fmt.Errorf("unsupported document type %T", doc)
}
