package selector

import (
	"fmt"
	"sort"
	"strings"

	"k8s.io/apimachinery/pkg/fields"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/selection"
)

// Args returns the query arguments of a dynamic selector: the kinds, then
// the label and field selectors. needsAll adds --all when there is no label
// selector, for verbs that refuse to act on a bare kind. Static selectors
// return their qualified names without namespaces.
func (s *Selector) Args(needsAll bool) ([]string, error) {
	if s.static {
		args := make([]string, len(s.qnames))
		for i, q := range s.qnames {
			args[i] = q.KindName()
		}
		return args, nil
	}
	if len(s.kinds) == 0 {
		return nil, fmt.Errorf("dynamic selector has no kinds")
	}

	args := []string{strings.Join(s.kinds, ",")}

	labelSelector, err := LabelSelector(s.labels)
	if err != nil {
		return nil, err
	}
	if labelSelector != "" {
		args = append(args, "--selector="+labelSelector)
	} else if needsAll {
		args = append(args, "--all")
	}

	fieldSelector, err := FieldSelector(s.fields)
	if err != nil {
		return nil, err
	}
	if fieldSelector != "" {
		args = append(args, "--field-selector="+fieldSelector)
	}

	if s.allNamespaces {
		args = append(args, "--all-namespaces")
	}
	return args, nil
}

// LabelSelector renders constraints as a label selector expression.
func LabelSelector(constraints map[string]any) (string, error) {
	if len(constraints) == 0 {
		return "", nil
	}

	sel := labels.NewSelector()
	for _, key := range sortedKeys(constraints) {
		name, negated := strings.CutPrefix(key, "!")
		value := constraints[key]

		var op selection.Operator
		var values []string
		switch v := value.(type) {
		case nil:
			op = pick(negated, selection.DoesNotExist, selection.Exists)
		case []string:
			op, values = pick(negated, selection.NotIn, selection.In), v
		case []any:
			op = pick(negated, selection.NotIn, selection.In)
			for _, e := range v {
				values = append(values, scalar(e))
			}
		default:
			op, values = pick(negated, selection.NotEquals, selection.Equals), []string{scalar(v)}
		}

		req, err := labels.NewRequirement(name, op, values)
		if err != nil {
			return "", fmt.Errorf("invalid label constraint %q: %w", key, err)
		}
		sel = sel.Add(*req)
	}
	return sel.String(), nil
}

// FieldSelector renders constraints as a field selector expression. Only
// equality and its negation are supported.
func FieldSelector(constraints map[string]any) (string, error) {
	if len(constraints) == 0 {
		return "", nil
	}

	terms := make([]fields.Selector, 0, len(constraints))
	for _, key := range sortedKeys(constraints) {
		name, negated := strings.CutPrefix(key, "!")
		switch value := constraints[key].(type) {
		case nil, []string, []any:
			return "", fmt.Errorf("invalid field constraint %q: only single values are supported", key)
		default:
			if negated {
				terms = append(terms, fields.OneTermNotEqualSelector(name, scalar(value)))
			} else {
				terms = append(terms, fields.OneTermEqualSelector(name, scalar(value)))
			}
		}
	}
	return fields.AndSelectors(terms...).String(), nil
}

func pick(negated bool, ifNegated, otherwise selection.Operator) selection.Operator {
	if negated {
		return ifNegated
	}
	return otherwise
}

// scalar renders a constraint value. Booleans are lower case.
func scalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	}
	return fmt.Sprint(v)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
