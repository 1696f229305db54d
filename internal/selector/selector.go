// Package selector describes sets of resources and resolves them against the
// cluster.
//
// A Selector is either static, a fixed list of qualified names, or dynamic, a
// set of kinds narrowed by label and field constraints. Dynamic selectors
// are queried again every time they are resolved. Static selectors ignore
// label and field constraints.
//
// Every query a Selector makes is recorded in its own Result, which is
// available through Result for inspection after the fact:
//
//	pods := selector.Kind("pod", selector.Labels(map[string]any{"app": "web"}))
//	objs, err := pods.Objects(ctx)
//	if err != nil {
//		return err
//	}
//	fmt.Println(pods.Result().AsMap())
package selector

import (
	"fmt"
	"strings"

	"github.com/giantswarm/kubedriver/internal/action"
	"github.com/giantswarm/kubedriver/internal/catalog"
	"github.com/giantswarm/kubedriver/internal/resource"
	"github.com/giantswarm/kubedriver/internal/scope"
)

// Selector is a static or dynamic description of a set of resources.
type Selector struct {
	static bool
	qnames []catalog.QName

	kinds         []string
	labels        map[string]any
	fields        map[string]any
	allNamespaces bool

	ignoreNotFound bool
	catalog        *catalog.Catalog
	target         *scope.Target
	res            *action.Result
}

// Option configures a Selector.
type Option func(*Selector)

// Labels constrains a dynamic selector by labels. A key prefixed with "!"
// negates its requirement. Values are matched as follows:
//
//	"web"                  app=web
//	[]string{"a", "b"}     app in (a,b)
//	nil                    app exists
func Labels(labels map[string]any) Option {
	return func(s *Selector) {
		s.labels = labels
	}
}

// Fields constrains a dynamic selector by fields. A key prefixed with "!"
// negates its requirement.
func Fields(fields map[string]any) Option {
	return func(s *Selector) {
		s.fields = fields
	}
}

// AllNamespaces makes a dynamic selector span every namespace.
func AllNamespaces() Option {
	return func(s *Selector) {
		s.allNamespaces = true
	}
}

// IgnoreNotFound makes static lookups skip names that do not exist instead
// of failing.
func IgnoreNotFound() Option {
	return func(s *Selector) {
		s.ignoreNotFound = true
	}
}

// WithCatalog sets the catalog used to normalize kinds.
func WithCatalog(c *catalog.Catalog) Option {
	return func(s *Selector) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithTarget sends queries to t instead of the settings of the scope in the
// context.
func WithTarget(t scope.Target) Option {
	return func(s *Selector) {
		s.target = &t
	}
}

func newSelector(static bool, opts []Option) *Selector {
	s := &Selector{static: static, catalog: catalog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	if static {
		s.labels, s.fields, s.allNamespaces = nil, nil, false
	}
	s.res = action.NewResult("selector")
	return s
}

// Static selects a fixed list of resources by qualified name, e.g. "pod/a"
// or "team-a:deployment/web".
func Static(qnames ...string) (*Selector, error) {
	parsed := make([]catalog.QName, 0, len(qnames))
	for _, name := range qnames {
		q, err := catalog.ParseQName(name)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, q)
	}
	return FromQNames(parsed), nil
}

// FromQNames is Static for names that are already parsed.
func FromQNames(qnames []catalog.QName, opts ...Option) *Selector {
	s := newSelector(true, opts)
	s.qnames = make([]catalog.QName, len(qnames))
	for i, q := range qnames {
		s.qnames[i] = s.catalog.NormalizeQName(q)
	}
	return s
}

// FromObjects is a static selector over objs. Queries go to the target of
// the first object.
func FromObjects(objs ...*resource.Resource) *Selector {
	qnames := make([]catalog.QName, len(objs))
	for i, obj := range objs {
		qnames[i] = obj.QName()
	}
	var opts []Option
	if len(objs) > 0 {
		opts = append(opts, WithTarget(objs[0].Target()))
	}
	return FromQNames(qnames, opts...)
}

// Dynamic selects every resource of kinds that satisfies the label and field
// constraints in opts.
func Dynamic(kinds []string, opts ...Option) *Selector {
	s := newSelector(false, opts)
	s.kinds = make([]string, len(kinds))
	for i, kind := range kinds {
		s.kinds[i] = s.catalog.Normalize(kind)
	}
	return s
}

// Kind is Dynamic for a single kind.
func Kind(kind string, opts ...Option) *Selector {
	return Dynamic([]string{kind}, opts...)
}

// Parse builds a selector from command line style arguments: qualified names
// make a static selector, bare kinds a dynamic one. Mixing both is an error.
func Parse(items []string, opts ...Option) (*Selector, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("nothing to select")
	}

	var names []catalog.QName
	var kinds []string
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part == "" {
				continue
			}
			if !strings.Contains(part, "/") {
				kinds = append(kinds, part)
				continue
			}
			q, err := catalog.ParseQName(part)
			if err != nil {
				return nil, err
			}
			names = append(names, q)
		}
	}

	switch {
	case len(names) > 0 && len(kinds) > 0:
		return nil, fmt.Errorf("cannot mix kinds %v with qualified names", kinds)
	case len(names) > 0:
		return FromQNames(names, opts...), nil
	case len(kinds) > 0:
		return Dynamic(kinds, opts...), nil
	}
	return nil, fmt.Errorf("nothing to select")
}

// IsStatic reports whether the selector has a fixed list of names.
func (s *Selector) IsStatic() bool {
	return s.static
}

// Result returns the log of queries made to resolve the selector.
func (s *Selector) Result() *action.Result {
	return s.res
}

// kindList returns the distinct kinds s selects, comma separated.
func (s *Selector) kindList() string {
	if !s.static {
		return strings.Join(s.kinds, ",")
	}
	seen := make(map[string]bool, len(s.qnames))
	var kinds []string
	for _, q := range s.qnames {
		if !seen[q.Kind] {
			seen[q.Kind] = true
			kinds = append(kinds, q.Kind)
		}
	}
	return strings.Join(kinds, ",")
}

// derive returns an empty static selector sharing the settings of s.
func (s *Selector) derive() *Selector {
	d := &Selector{
		static:         true,
		ignoreNotFound: s.ignoreNotFound,
		catalog:        s.catalog,
		target:         s.target,
		res:            action.NewResult("selector"),
	}
	return d
}

func (s *Selector) String() string {
	if s.static {
		names := make([]string, len(s.qnames))
		for i, q := range s.qnames {
			names[i] = q.String()
		}
		return strings.Join(names, ",")
	}

	args, err := s.Args(false)
	if err != nil {
		return strings.Join(s.kinds, ",")
	}
	return strings.Join(args, " ")
}
