package catalog

import (
	"fmt"
	"strings"
)

// QName identifies a resource without its content: kind/name, optionally
// prefixed with "namespace:".
type QName struct {
	Namespace string
	Kind      string
	Name      string
}

// ParseQName parses "kind/name" or "namespace:kind/name".
func ParseQName(s string) (QName, error) {
	var q QName
	rest := strings.TrimSpace(s)
	if ns, after, ok := strings.Cut(rest, ":"); ok && !strings.Contains(ns, "/") {
		q.Namespace, rest = ns, after
	}
	kind, name, ok := strings.Cut(rest, "/")
	if !ok || kind == "" || name == "" {
		return QName{}, fmt.Errorf("invalid qualified name %q: expected kind/name", s)
	}
	q.Kind = strings.ToLower(kind)
	q.Name = name
	return q, nil
}

// String renders the qualified name, with the namespace prefix if set.
func (q QName) String() string {
	if q.Namespace == "" {
		return q.KindName()
	}
	return q.Namespace + ":" + q.KindName()
}

// KindName renders kind/name without the namespace.
func (q QName) KindName() string {
	return q.Kind + "/" + q.Name
}

// Matches reports whether q and other name the same resource. Kinds compare
// with KindMatches. Namespaces only have to agree when both are set.
func (q QName) Matches(other QName) bool {
	if q.Name != other.Name || !KindMatches(q.Kind, other.Kind) {
		return false
	}
	return q.Namespace == "" || other.Namespace == "" || q.Namespace == other.Namespace
}

// KindMatches reports whether two kind strings denote the same kind: equal,
// or one is a group qualified form of the other ("template" and
// "template.template.openshift.io").
func KindMatches(a, b string) bool {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == b {
		return true
	}
	return strings.HasPrefix(a, b+".") || strings.HasPrefix(b, a+".")
}

// NormalizeQName returns q with its kind normalized by c.
func (c *Catalog) NormalizeQName(q QName) QName {
	q.Kind = c.Normalize(q.Kind)
	return q
}
