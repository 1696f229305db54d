package selector

import (
	"context"
	"fmt"
	"strings"

	"github.com/giantswarm/kubedriver/internal/action"
	"github.com/giantswarm/kubedriver/internal/catalog"
	"github.com/giantswarm/kubedriver/internal/model"
	"github.com/giantswarm/kubedriver/internal/resource"
	"github.com/giantswarm/kubedriver/internal/scope"
)

// batch is a group of static names living in the same namespace. An empty
// namespace means the one of the target.
type batch struct {
	namespace string
	names     []string
}

// batches groups static names by namespace, in first seen order.
func (s *Selector) batches() []batch {
	var out []batch
	index := map[string]int{}
	for _, q := range s.qnames {
		i, ok := index[q.Namespace]
		if !ok {
			i = len(out)
			index[q.Namespace] = i
			out = append(out, batch{namespace: q.Namespace})
		}
		out[i].names = append(out[i].names, q.KindName())
	}
	return out
}

// spansNamespaces reports whether a dynamic selector queries every
// namespace, either by itself or because the scope asks for it.
func (s *Selector) spansNamespaces(ctx context.Context) bool {
	if s.static {
		return false
	}
	return s.allNamespaces || scope.From(ctx).AllNamespaces()
}

// dynamicArgs is Args with the all-namespaces setting of the scope applied.
func (s *Selector) dynamicArgs(ctx context.Context, needsAll bool) ([]string, error) {
	args, err := s.Args(needsAll)
	if err != nil {
		return nil, err
	}
	if !s.allNamespaces && s.spansNamespaces(ctx) {
		args = append(args, "--all-namespaces")
	}
	return args, nil
}

// invoke runs one command for the selector and records it in res and in the
// selector's own Result.
func (s *Selector) invoke(ctx context.Context, res *action.Result, verb string, args []string, namespace string, opts ...scope.InvokeOption) (*action.Action, error) {
	var base []scope.InvokeOption
	if s.target != nil {
		base = append(base, scope.OnTarget(*s.target))
	}
	switch {
	case s.spansNamespaces(ctx):
		base = append(base, scope.NoNamespace())
	case namespace != "":
		base = append(base, scope.InNamespace(namespace))
	}

	a, err := scope.Invoke(ctx, verb, args, append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	res.Add(a)
	if res != s.res {
		s.res.Add(a)
	}
	return a, nil
}

// QNames returns the qualified names of the selected resources. Names carry
// a namespace prefix when the selector spans namespaces or was built from
// namespaced names.
func (s *Selector) QNames(ctx context.Context) ([]string, error) {
	qnames, err := s.qnameValues(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(qnames))
	for i, q := range qnames {
		out[i] = q.String()
	}
	return out, nil
}

func (s *Selector) qnameValues(ctx context.Context) ([]catalog.QName, error) {
	if s.static {
		return append([]catalog.QName(nil), s.qnames...), nil
	}

	if s.spansNamespaces(ctx) {
		objs, err := s.Objects(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]catalog.QName, len(objs))
		for i, obj := range objs {
			out[i] = obj.QName()
		}
		return out, nil
	}

	args, err := s.dynamicArgs(ctx, false)
	if err != nil {
		return nil, err
	}
	res := action.NewResult("qnames")
	a, err := s.invoke(ctx, res, "get", append(args, "-o=name"), "")
	if err != nil {
		return nil, err
	}
	if !a.Succeeded() {
		if isNotFound(a.Err) {
			return nil, nil
		}
		return nil, res.FailIf(fmt.Sprintf("unable to resolve names of %s", s))
	}
	return parseNames(a.Out, s.catalog)
}

// Count returns the number of selected resources.
func (s *Selector) Count(ctx context.Context) (int, error) {
	qnames, err := s.qnameValues(ctx)
	return len(qnames), err
}

// Objects fetches the selected resources with one query per namespace. A
// static selector fails when a name does not exist unless it was built with
// IgnoreNotFound.
func (s *Selector) Objects(ctx context.Context) ([]*resource.Resource, error) {
	target := scope.From(ctx).Target()
	if s.target != nil {
		target = *s.target
	}

	if s.static {
		var objs []*resource.Resource
		for _, b := range s.batches() {
			args := append(append([]string(nil), b.names...), "-o=json")
			if s.ignoreNotFound {
				args = append(args, "--ignore-not-found")
			}
			res := action.NewResult("objects")
			a, err := s.invoke(ctx, res, "get", args, b.namespace)
			if err != nil {
				return nil, err
			}
			if err := res.FailIf(fmt.Sprintf("unable to get %s", strings.Join(b.names, ","))); err != nil {
				return nil, err
			}
			if s.ignoreNotFound && strings.TrimSpace(a.Out) == "" {
				continue
			}
			found, err := s.decodeObjects(ctx, a.Out, target)
			if err != nil {
				return nil, err
			}
			objs = append(objs, found...)
		}
		return objs, nil
	}

	args, err := s.dynamicArgs(ctx, false)
	if err != nil {
		return nil, err
	}
	res := action.NewResult("objects")
	a, err := s.invoke(ctx, res, "get", append(args, "-o=json"), "")
	if err != nil {
		return nil, err
	}
	if !a.Succeeded() {
		if isNotFound(a.Err) {
			return nil, nil
		}
		return nil, res.FailIf(fmt.Sprintf("unable to get %s", s))
	}
	return s.decodeObjects(ctx, a.Out, target)
}

// decodeObjects wraps the items of a List document, or a single document.
// Empty output and a List without items are empty sets.
func (s *Selector) decodeObjects(ctx context.Context, out string, target scope.Target) ([]*resource.Resource, error) {
	doc, err := model.Decode([]byte(out))
	if err != nil {
		return nil, fmt.Errorf("failed to decode objects of %s: %w", s, err)
	}

	var docs []*model.Value
	switch {
	case doc.IsAbsent():
		return nil, nil
	case doc.Get("items").Kind() == model.KindList:
		docs = doc.Get("items").List()
	case resource.IsEmptyList(doc):
		return nil, nil
	case doc.Kind() == model.KindMap:
		docs = []*model.Value{doc}
	default:
		return nil, fmt.Errorf("unexpected %s document for %s", doc.Kind(), s)
	}

	objs := make([]*resource.Resource, 0, len(docs))
	for _, d := range docs {
		obj, err := resource.New(ctx, d, resource.WithTarget(target), resource.WithCatalog(s.catalog))
		if err != nil {
			return nil, err
		}
		objs = append(objs, obj)
	}
	return objs, nil
}

// Object returns the only selected resource. Anything but exactly one
// resource is an ErrNotSingle.
func (s *Selector) Object(ctx context.Context) (*resource.Resource, error) {
	objs, err := s.Objects(ctx)
	if err != nil {
		return nil, err
	}
	if len(objs) != 1 {
		return nil, fmt.Errorf("%w: %s selected %d", ErrNotSingle, s, len(objs))
	}
	return objs[0], nil
}

// ObjectOrNil is Object but returns nil when nothing is selected.
func (s *Selector) ObjectOrNil(ctx context.Context) (*resource.Resource, error) {
	objs, err := s.Objects(ctx)
	if err != nil {
		return nil, err
	}
	switch len(objs) {
	case 0:
		return nil, nil
	case 1:
		return objs[0], nil
	}
	return nil, fmt.Errorf("%w: %s selected %d", ErrNotSingle, s, len(objs))
}

// ObjectsAs resolves s and builds a T from every resource with fn.
func ObjectsAs[T any](ctx context.Context, s *Selector, fn func(*resource.Resource) (T, error)) ([]T, error) {
	objs, err := s.Objects(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(objs))
	for _, obj := range objs {
		v, err := fn(obj)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// ObjectsInto resolves s and converts every resource into a typed API
// object, e.g. ObjectsInto[corev1.Pod].
func ObjectsInto[T any](ctx context.Context, s *Selector) ([]*T, error) {
	return ObjectsAs(ctx, s, resource.As[T])
}

// Freeze returns a static selector over the resources currently selected.
// Selectors spanning namespaces cannot be frozen.
func (s *Selector) Freeze(ctx context.Context) (*Selector, error) {
	if s.spansNamespaces(ctx) {
		return nil, ErrAllNamespacesFreeze
	}
	qnames, err := s.qnameValues(ctx)
	if err != nil {
		return nil, err
	}
	frozen := s.derive()
	frozen.qnames = qnames
	return frozen, nil
}

// parseNames parses the output of -o=name, one kind/name per line.
func parseNames(out string, cat *catalog.Catalog) ([]catalog.QName, error) {
	var qnames []catalog.QName
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		q, err := catalog.ParseQName(line)
		if err != nil {
			return nil, err
		}
		qnames = append(qnames, cat.NormalizeQName(q))
	}
	return qnames, nil
}

func isNotFound(stderr string) bool {
	lower := strings.ToLower(stderr)
	return strings.Contains(lower, "not found") || strings.Contains(lower, "notfound")
}
