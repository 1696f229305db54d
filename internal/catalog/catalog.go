// Package catalog maps the many spellings of a resource kind (plural,
// singular, short name, Kind, group qualified) to one canonical name.
//
// A Catalog is immutable. Default is seeded from a builtin table; a cluster
// specific catalog is derived from it with Refreshed or Fetch.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/giantswarm/kubedriver/internal/action"
	"github.com/giantswarm/kubedriver/internal/scope"
)

// Entry describes one API resource.
type Entry struct {
	Name       string // plural resource name, e.g. "deployments"
	Singular   string
	ShortNames []string
	Kind       string
	Group      string
	Version    string
	Namespaced bool
	Verbs      []string
}

// Canonical returns the name the client prints in -o=name output:
// singular[.group], lowercased.
func (e Entry) Canonical() string {
	singular := e.Singular
	if singular == "" {
		singular = e.Kind
	}
	singular = strings.ToLower(singular)
	if e.Group == "" {
		return singular
	}
	return singular + "." + e.Group
}

// GroupVersionResource returns the entry's GVR.
func (e Entry) GroupVersionResource() schema.GroupVersionResource {
	return schema.GroupVersionResource{Group: e.Group, Version: e.Version, Resource: e.Name}
}

// GroupVersionKind returns the entry's GVK.
func (e Entry) GroupVersionKind() schema.GroupVersionKind {
	return schema.GroupVersionKind{Group: e.Group, Version: e.Version, Kind: e.Kind}
}

func (e Entry) key() string {
	return e.Name + "." + e.Group
}

// Catalog is an immutable set of entries indexed by every spelling.
type Catalog struct {
	entries []Entry
	index   map[string]int
}

// New builds a Catalog. When two entries claim the same spelling the earlier
// one wins.
func New(entries []Entry) *Catalog {
	c := &Catalog{
		entries: append([]Entry(nil), entries...),
		index:   make(map[string]int, len(entries)*6),
	}
	for i, e := range c.entries {
		names := []string{e.Name, e.Singular, e.Kind}
		names = append(names, e.ShortNames...)
		for _, name := range names {
			if name == "" {
				continue
			}
			name = strings.ToLower(name)
			c.add(name, i)
			if e.Group != "" {
				c.add(name+"."+e.Group, i)
				c.add(name+"."+e.Version+"."+e.Group, i)
			}
		}
	}
	return c
}

func (c *Catalog) add(key string, i int) {
	if _, taken := c.index[key]; !taken {
		c.index[key] = i
	}
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the builtin catalog.
func Default() *Catalog {
	defaultOnce.Do(func() {
		defaultCatalog = New(builtinEntries())
	})
	return defaultCatalog
}

// Entries returns a copy of all entries in lookup priority order.
func (c *Catalog) Entries() []Entry {
	if c == nil {
		return nil
	}
	return append([]Entry(nil), c.entries...)
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Lookup finds the entry for any spelling of a kind: "deploy", "Deployment",
// "deployments.apps", "deployment.v1.apps".
func (c *Catalog) Lookup(kind string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	i, ok := c.index[strings.ToLower(strings.TrimSpace(kind))]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Normalize returns the canonical name of kind. Unknown kinds are returned
// lowercased.
func (c *Catalog) Normalize(kind string) string {
	if e, ok := c.Lookup(kind); ok {
		return e.Canonical()
	}
	return strings.ToLower(strings.TrimSpace(kind))
}

// IsNamespaced reports whether kind is namespaced. known is false for kinds
// the catalog does not contain.
func (c *Catalog) IsNamespaced(kind string) (namespaced, known bool) {
	e, ok := c.Lookup(kind)
	if !ok {
		return false, false
	}
	return e.Namespaced, true
}

// Groups returns the sorted API groups present in the catalog, "" for core.
func (c *Catalog) Groups() []string {
	groups := sets.New[string]()
	for _, e := range c.entries {
		groups.Insert(e.Group)
	}
	return sets.List(groups)
}

// Refreshed returns a new Catalog in which newData takes precedence over the
// entries of c. Entries of c for resources that newData does not mention are
// kept. c is not modified.
func Refreshed(c *Catalog, newData []Entry) *Catalog {
	seen := sets.New[string]()
	merged := make([]Entry, 0, len(newData)+c.Len())
	for _, e := range newData {
		if seen.Has(e.key()) {
			continue
		}
		seen.Insert(e.key())
		merged = append(merged, e)
	}
	if c != nil {
		for _, e := range c.entries {
			if !seen.Has(e.key()) {
				merged = append(merged, e)
			}
		}
	}
	return New(merged)
}

// FromDiscovery converts discovery documents into entries. Subresources are
// skipped.
func FromDiscovery(lists []*metav1.APIResourceList) ([]Entry, error) {
	var entries []Entry
	for _, list := range lists {
		if list == nil {
			continue
		}
		gv, err := schema.ParseGroupVersion(list.GroupVersion)
		if err != nil {
			return nil, fmt.Errorf("failed to parse group version %q: %w", list.GroupVersion, err)
		}
		for _, r := range list.APIResources {
			if strings.Contains(r.Name, "/") {
				continue
			}
			entries = append(entries, Entry{
				Name:       r.Name,
				Singular:   r.SingularName,
				ShortNames: append([]string(nil), r.ShortNames...),
				Kind:       r.Kind,
				Group:      gv.Group,
				Version:    gv.Version,
				Namespaced: r.Namespaced,
				Verbs:      append([]string(nil), r.Verbs...),
			})
		}
	}
	return entries, nil
}

// Fetch asks the cluster for its resources and returns base refreshed with
// them.
func Fetch(ctx context.Context, base *Catalog) (*Catalog, error) {
	res := action.NewResult("api-resources")
	a, err := scope.Invoke(ctx, "api-resources", []string{"-o=wide"}, scope.NoNamespace(), scope.Internal())
	if err != nil {
		return nil, err
	}
	res.Add(a)
	if err := res.FailIf("unable to list api resources"); err != nil {
		return nil, err
	}

	entries, err := ParseAPIResources(res.Stdout())
	if err != nil {
		return nil, err
	}
	return Refreshed(base, entries), nil
}
