// Package resource wraps a single resource document together with the
// connection settings it was obtained with.
//
// A Resource snapshots the scope.Target of the context it was created in.
// Operations on it go to that target even if the caller later enters a scope
// pointing elsewhere. Every operation returns the *action.Result of the
// invocations it made; a non-zero status is only turned into an error where
// the operation cannot return anything meaningful otherwise (Refresh,
// Exists, Process).
package resource

import (
	"context"
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/giantswarm/kubedriver/internal/catalog"
	"github.com/giantswarm/kubedriver/internal/model"
	"github.com/giantswarm/kubedriver/internal/scope"
)

// Resource is one resource document.
type Resource struct {
	doc       *model.Value
	target    scope.Target
	namespace string
	catalog   *catalog.Catalog

	hasTarget bool
}

// Option configures New.
type Option func(*Resource)

// WithCatalog sets the catalog used to normalize kinds.
func WithCatalog(c *catalog.Catalog) Option {
	return func(r *Resource) {
		if c != nil {
			r.catalog = c
		}
	}
}

// WithTarget sends operations to t instead of the target resolved from ctx.
func WithTarget(t scope.Target) Option {
	return func(r *Resource) {
		r.target = t
		r.hasTarget = true
	}
}

// New wraps doc, which must be a map node. The target namespace is forced
// now: the document's own namespace, else the scope's, else for namespaced
// kinds the kubeconfig's current namespace. Cluster scoped kinds never get a
// namespace.
func New(ctx context.Context, doc *model.Value, opts ...Option) (*Resource, error) {
	if doc.Kind() != model.KindMap {
		return nil, fmt.Errorf("resource document must be a map, got %s", doc.Kind())
	}

	r := &Resource{doc: doc, catalog: catalog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	if !r.hasTarget {
		r.target = scope.From(ctx).Target()
	}

	namespaced, known := r.catalog.IsNamespaced(r.qualifiedKind())
	r.namespace = doc.Get("metadata", "namespace").Str("")
	if r.namespace == "" && (namespaced || !known) {
		r.namespace = r.target.Namespace
		if r.namespace == "" && namespaced {
			r.namespace = scope.KubeconfigNamespace(r.target.Kubeconfig)
		}
	}
	if known && !namespaced {
		r.namespace = ""
	}

	if r.namespace != "" && doc.Get("metadata", "namespace").IsAbsent() {
		metadata, err := doc.Ensure("metadata")
		if err != nil {
			return nil, err
		}
		if err := metadata.Set("namespace", r.namespace); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Decode parses a JSON or YAML document and wraps it with New.
func Decode(ctx context.Context, data []byte, opts ...Option) (*Resource, error) {
	doc, err := model.Decode(data)
	if err != nil {
		return nil, err
	}
	return New(ctx, doc, opts...)
}

// FromMap wraps plain data with New.
func FromMap(ctx context.Context, obj map[string]any, opts ...Option) (*Resource, error) {
	return New(ctx, model.FromPrimitive(obj), opts...)
}

// Model returns the underlying document. Changes to it are visible through
// the Resource.
func (r *Resource) Model() *model.Value {
	return r.doc
}

// Target returns the connection snapshot operations are sent to.
func (r *Resource) Target() scope.Target {
	return r.target
}

// Kind returns the document's kind, e.g. "Deployment".
func (r *Resource) Kind() string {
	return r.doc.Get("kind").Str("")
}

// APIVersion returns the document's apiVersion.
func (r *Resource) APIVersion() string {
	return r.doc.Get("apiVersion").Str("")
}

// Group returns the API group, "" for the core group.
func (r *Resource) Group() string {
	gv, err := schema.ParseGroupVersion(r.APIVersion())
	if err != nil {
		return ""
	}
	return gv.Group
}

// Name returns metadata.name.
func (r *Resource) Name() string {
	return r.doc.Get("metadata", "name").Str("")
}

// Namespace returns the namespace forced at construction, "" for cluster
// scoped resources.
func (r *Resource) Namespace() string {
	return r.namespace
}

// UID returns metadata.uid.
func (r *Resource) UID() string {
	return r.doc.Get("metadata", "uid").Str("")
}

// ResourceVersion returns metadata.resourceVersion.
func (r *Resource) ResourceVersion() string {
	return r.doc.Get("metadata", "resourceVersion").Str("")
}

// Labels returns metadata.labels.
func (r *Resource) Labels() map[string]string {
	return r.doc.Get("metadata", "labels").StringMap()
}

// Annotations returns metadata.annotations.
func (r *Resource) Annotations() map[string]string {
	return r.doc.Get("metadata", "annotations").StringMap()
}

// LabelValue returns one label value, "" when unset.
func (r *Resource) LabelValue(key string) string {
	return r.doc.Get("metadata", "labels", key).Str("")
}

// AnnotationValue returns one annotation value, "" when unset.
func (r *Resource) AnnotationValue(key string) string {
	return r.doc.Get("metadata", "annotations", key).Str("")
}

// QName returns the qualified name with the canonical kind, e.g.
// "team-a:deployment.apps/web".
func (r *Resource) QName() catalog.QName {
	return catalog.QName{
		Namespace: r.namespace,
		Kind:      r.catalog.Normalize(r.qualifiedKind()),
		Name:      r.Name(),
	}
}

// IsKind reports whether the resource is of kind, in any spelling the
// catalog knows.
func (r *Resource) IsKind(kind string) bool {
	return catalog.KindMatches(r.catalog.Normalize(kind), r.QName().Kind)
}

// CanMatch reports whether the document contains pattern. See
// model.Value.CanMatch.
func (r *Resource) CanMatch(pattern any, opts ...model.MatchOption) bool {
	return r.doc.CanMatch(pattern, opts...)
}

// AsMap returns a deep copy of the document.
func (r *Resource) AsMap() map[string]any {
	m, _ := r.doc.ToPrimitive().(map[string]any)
	return m
}

// AsJSON returns the document as JSON.
func (r *Resource) AsJSON() ([]byte, error) {
	return r.doc.JSON()
}

// AsYAML returns the document as YAML.
func (r *Resource) AsYAML() ([]byte, error) {
	return r.doc.YAML()
}

// IsList reports whether the document is a List. A List kind counts even
// when its items are null or missing.
func (r *Resource) IsList() bool {
	return r.doc.Get("items").Kind() == model.KindList || IsEmptyList(r.doc)
}

// IsEmptyList reports whether doc is a nameless List or typed list, such as
// PodList, whose items are null or missing.
func IsEmptyList(doc *model.Value) bool {
	if doc.Get("items").Kind() == model.KindList {
		return false
	}
	return strings.HasSuffix(doc.Get("kind").Str(""), "List") && doc.Get("metadata", "name").IsAbsent()
}

// Elements wraps the items of a List document. They share the target and
// catalog of r.
func (r *Resource) Elements() ([]*Resource, error) {
	items := r.doc.Get("items").List()
	out := make([]*Resource, 0, len(items))
	for _, item := range items {
		e, err := r.derive(item)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// DeepCopy returns an independent copy with the same target.
func (r *Resource) DeepCopy() *Resource {
	c := *r
	c.doc = r.doc.DeepCopy()
	return &c
}

func (r *Resource) String() string {
	return r.QName().String()
}

// derive wraps doc with the target and catalog of r.
func (r *Resource) derive(doc *model.Value) (*Resource, error) {
	return New(context.Background(), doc, WithTarget(r.target), WithCatalog(r.catalog))
}

// qualifiedKind returns kind.group so that kinds served by several groups
// resolve to the right catalog entry.
func (r *Resource) qualifiedKind() string {
	kind := r.Kind()
	if group := r.Group(); group != "" {
		return kind + "." + group
	}
	return kind
}
