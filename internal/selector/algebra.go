package selector

import (
	"context"

	"github.com/giantswarm/kubedriver/internal/catalog"
	"github.com/giantswarm/kubedriver/internal/resource"
)

// contains compares with catalog.QName.Matches, so "template/t" and
// "template.template.openshift.io/t" are the same resource.
func contains(qnames []catalog.QName, q catalog.QName) bool {
	for _, e := range qnames {
		if e.Matches(q) {
			return true
		}
	}
	return false
}

func (s *Selector) resolveAll(ctx context.Context, others []*Selector) ([]catalog.QName, [][]catalog.QName, error) {
	own, err := s.qnameValues(ctx)
	if err != nil {
		return nil, nil, err
	}
	resolved := make([][]catalog.QName, len(others))
	for i, o := range others {
		if resolved[i], err = o.qnameValues(ctx); err != nil {
			return nil, nil, err
		}
	}
	return own, resolved, nil
}

// Union returns a static selector over the names of s followed by those of
// others, in first seen order without duplicates.
func (s *Selector) Union(ctx context.Context, others ...*Selector) (*Selector, error) {
	own, resolved, err := s.resolveAll(ctx, others)
	if err != nil {
		return nil, err
	}

	var out []catalog.QName
	for _, list := range append([][]catalog.QName{own}, resolved...) {
		for _, q := range list {
			if !contains(out, q) {
				out = append(out, q)
			}
		}
	}
	return s.withNames(out), nil
}

// Intersect returns a static selector over the names of s that every one of
// others selects too, in the order of s.
func (s *Selector) Intersect(ctx context.Context, others ...*Selector) (*Selector, error) {
	own, resolved, err := s.resolveAll(ctx, others)
	if err != nil {
		return nil, err
	}

	var out []catalog.QName
	for _, q := range own {
		keep := !contains(out, q)
		for _, list := range resolved {
			keep = keep && contains(list, q)
		}
		if keep {
			out = append(out, q)
		}
	}
	return s.withNames(out), nil
}

// Subtract returns a static selector over the names of s that other does
// not select, in the order of s.
func (s *Selector) Subtract(ctx context.Context, other *Selector) (*Selector, error) {
	own, resolved, err := s.resolveAll(ctx, []*Selector{other})
	if err != nil {
		return nil, err
	}

	var out []catalog.QName
	for _, q := range own {
		if !contains(resolved[0], q) {
			out = append(out, q)
		}
	}
	return s.withNames(out), nil
}

// Narrow returns a static selector over the names of s whose kind is kind.
// It filters names only; static selectors do not query.
func (s *Selector) Narrow(ctx context.Context, kind string) (*Selector, error) {
	qnames, err := s.qnameValues(ctx)
	if err != nil {
		return nil, err
	}
	kind = s.catalog.Normalize(kind)

	var out []catalog.QName
	for _, q := range qnames {
		if catalog.KindMatches(kind, q.Kind) {
			out = append(out, q)
		}
	}
	return s.withNames(out), nil
}

// NarrowFunc returns a static selector over the resources of s that keep
// accepts. Unlike Narrow it fetches every resource.
func (s *Selector) NarrowFunc(ctx context.Context, keep func(*resource.Resource) bool) (*Selector, error) {
	objs, err := s.Objects(ctx)
	if err != nil {
		return nil, err
	}

	var out []catalog.QName
	for _, obj := range objs {
		if keep(obj) {
			out = append(out, s.qnameOf(ctx, obj))
		}
	}
	return s.withNames(out), nil
}

// withNames returns a static selector over qnames with the settings of s.
func (s *Selector) withNames(qnames []catalog.QName) *Selector {
	d := s.derive()
	d.qnames = qnames
	return d
}

// qnameOf returns the name of obj as QNames would list it.
func (s *Selector) qnameOf(ctx context.Context, obj *resource.Resource) catalog.QName {
	q := obj.QName()
	if !s.static && !s.spansNamespaces(ctx) {
		q.Namespace = ""
	}
	return q
}
