package model

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"sigs.k8s.io/yaml"
)

// Kind identifies which variant of the tagged union a Value holds.
type Kind int

const (
	KindAbsent Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
)

// String returns a readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	}
	return "unknown"
}

// Value wraps one node of a decoded document.
//
// Map and list nodes share their backing storage with the document they were
// navigated from, so Set on a child is visible through the parent.
type Value struct {
	raw    any
	absent bool
}

var absent = &Value{absent: true}

// Absent returns the singleton used for every unresolved path.
func Absent() *Value {
	return absent
}

// FromPrimitive wraps plain Go data. Typed containers such as
// map[string]string or []string are converted to their generic form.
func FromPrimitive(data any) *Value {
	if v, ok := data.(*Value); ok {
		if v == nil {
			return absent
		}
		return v
	}
	return &Value{raw: normalize(data)}
}

// NewMap returns an empty map node.
func NewMap() *Value {
	return &Value{raw: map[string]any{}}
}

// Kind reports the variant held by v.
func (v *Value) Kind() Kind {
	if v == nil || v.absent {
		return KindAbsent
	}
	switch v.raw.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case string:
		return KindString
	case []any:
		return KindList
	case map[string]any:
		return KindMap
	}
	if _, ok := toFloat(v.raw); ok {
		return KindNumber
	}
	return KindString
}

// IsAbsent reports whether v was reached through a missing path.
func (v *Value) IsAbsent() bool {
	return v == nil || v.absent
}

// IsNull reports whether v is present and holds nil.
func (v *Value) IsNull() bool {
	return !v.IsAbsent() && v.raw == nil
}

// Raw returns the underlying data without copying. Absent returns nil.
func (v *Value) Raw() any {
	if v.IsAbsent() {
		return nil
	}
	return v.raw
}

// Get navigates the path and returns the node found there, or Absent.
// List nodes are addressed with decimal indexes.
func (v *Value) Get(path ...string) *Value {
	cur := v
	for _, p := range path {
		if cur.IsAbsent() {
			return absent
		}
		switch t := cur.raw.(type) {
		case map[string]any:
			child, ok := t[p]
			if !ok {
				return absent
			}
			cur = &Value{raw: child}
		case []any:
			i, err := strconv.Atoi(p)
			if err != nil || i < 0 || i >= len(t) {
				return absent
			}
			cur = &Value{raw: t[i]}
		default:
			return absent
		}
	}
	if cur == nil {
		return absent
	}
	return cur
}

// GetPath is Get with a dotted path such as "metadata.labels".
func (v *Value) GetPath(path string) *Value {
	if path == "" {
		return v
	}
	return v.Get(strings.Split(path, ".")...)
}

// Index returns the i-th element of a list node, or Absent.
func (v *Value) Index(i int) *Value {
	return v.Get(strconv.Itoa(i))
}

// Set stores value under key in a map node.
func (v *Value) Set(key string, value any) error {
	if v.IsAbsent() {
		return &ModelError{Op: "set", Key: key, Err: ErrAbsentMutation}
	}
	m, ok := v.raw.(map[string]any)
	if !ok || m == nil {
		return &ModelError{Op: "set", Key: key, Err: ErrNotContainer}
	}
	m[key] = unwrap(value)
	return nil
}

// SetIndex replaces the i-th element of a list node.
func (v *Value) SetIndex(i int, value any) error {
	if v.IsAbsent() {
		return &ModelError{Op: "set", Key: strconv.Itoa(i), Err: ErrAbsentMutation}
	}
	l, ok := v.raw.([]any)
	if !ok || i < 0 || i >= len(l) {
		return &ModelError{Op: "set", Key: strconv.Itoa(i), Err: ErrNotContainer}
	}
	l[i] = unwrap(value)
	return nil
}

// Delete removes key from a map node. Removing a missing key is not an error.
func (v *Value) Delete(key string) error {
	if v.IsAbsent() {
		return &ModelError{Op: "delete", Key: key, Err: ErrAbsentMutation}
	}
	m, ok := v.raw.(map[string]any)
	if !ok {
		return &ModelError{Op: "delete", Key: key, Err: ErrNotContainer}
	}
	delete(m, key)
	return nil
}

// Ensure returns the map child under key, creating it when missing.
func (v *Value) Ensure(key string) (*Value, error) {
	child := v.Get(key)
	if child.Kind() == KindMap {
		return child, nil
	}
	m := map[string]any{}
	if err := v.Set(key, m); err != nil {
		return nil, err
	}
	return &Value{raw: m}, nil
}

// Truthy reports whether v is present and non-empty.
func (v *Value) Truthy() bool {
	switch v.Kind() {
	case KindAbsent, KindNull:
		return false
	case KindBool:
		return v.raw.(bool)
	case KindNumber:
		f, _ := toFloat(v.raw)
		return f != 0
	}
	return v.Len() > 0
}

// Len returns the number of elements of a list or map node, or the length of
// a string. Every other kind, Absent included, has length zero.
func (v *Value) Len() int {
	switch t := v.Raw().(type) {
	case string:
		return len(t)
	case []any:
		return len(t)
	case map[string]any:
		return len(t)
	}
	return 0
}

// Equal compares v with other. Absent is equal only to Absent.
func (v *Value) Equal(other any) bool {
	if o, ok := other.(*Value); ok {
		if v.IsAbsent() || o.IsAbsent() {
			return v.IsAbsent() && o.IsAbsent()
		}
		return equalPrimitive(v.raw, o.raw)
	}
	if v.IsAbsent() {
		return false
	}
	return equalPrimitive(v.raw, normalize(other))
}

// Str returns the string held by v, or def when v is not a string.
func (v *Value) Str(def string) string {
	if s, ok := v.Raw().(string); ok {
		return s
	}
	return def
}

// String implements fmt.Stringer. Strings are returned verbatim, other present
// values as JSON and Absent as the empty string.
func (v *Value) String() string {
	if v.IsAbsent() {
		return ""
	}
	if s, ok := v.raw.(string); ok {
		return s
	}
	b, err := json.Marshal(v.raw)
	if err != nil {
		return ""
	}
	return string(b)
}

// Int returns v as an integer, or def when it cannot be coerced.
func (v *Value) Int(def int64) int64 {
	switch t := v.Raw().(type) {
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64); err == nil {
			return n
		}
		return def
	case int64:
		return t
	case int:
		return int64(t)
	}
	if f, ok := toFloat(v.Raw()); ok && f == math.Trunc(f) {
		return int64(f)
	}
	return def
}

// Float returns v as a float, or def when it cannot be coerced.
func (v *Value) Float(def float64) float64 {
	if s, ok := v.Raw().(string); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
		return def
	}
	if f, ok := toFloat(v.Raw()); ok {
		return f
	}
	return def
}

// Bool returns v as a boolean, or def when it cannot be coerced.
func (v *Value) Bool(def bool) bool {
	switch t := v.Raw().(type) {
	case bool:
		return t
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(t)); err == nil {
			return b
		}
	}
	return def
}

// List returns the elements of a list node. Other kinds return nil.
func (v *Value) List() []*Value {
	l, ok := v.Raw().([]any)
	if !ok {
		return nil
	}
	out := make([]*Value, len(l))
	for i, e := range l {
		out[i] = &Value{raw: e}
	}
	return out
}

// Map returns the entries of a map node. Other kinds return nil.
func (v *Value) Map() map[string]*Value {
	m, ok := v.Raw().(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]*Value, len(m))
	for k, e := range m {
		out[k] = &Value{raw: e}
	}
	return out
}

// StringMap returns a map node flattened to strings. Non-string values are
// rendered with String.
func (v *Value) StringMap() map[string]string {
	entries := v.Map()
	out := make(map[string]string, len(entries))
	for k, e := range entries {
		out[k] = e.String()
	}
	return out
}

// Keys returns the sorted keys of a map node.
func (v *Value) Keys() []string {
	m, ok := v.Raw().(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ToPrimitive returns a deep copy of the underlying data. Absent returns nil.
func (v *Value) ToPrimitive() any {
	if v.IsAbsent() {
		return nil
	}
	return deepCopy(v.raw)
}

// DeepCopy returns an independent copy of v.
func (v *Value) DeepCopy() *Value {
	if v.IsAbsent() {
		return absent
	}
	return &Value{raw: deepCopy(v.raw)}
}

// MarshalJSON implements json.Marshaler. Absent encodes as null.
func (v *Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Raw())
}

// JSON returns the compact JSON encoding of v.
func (v *Value) JSON() ([]byte, error) {
	return json.Marshal(v.Raw())
}

// YAML returns the YAML encoding of v.
func (v *Value) YAML() ([]byte, error) {
	return yaml.Marshal(v.Raw())
}

func unwrap(value any) any {
	if v, ok := value.(*Value); ok {
		return v.Raw()
	}
	return normalize(value)
}

// normalize converts typed containers to the generic forms used by decoded
// documents. Generic containers are returned as-is.
func normalize(data any) any {
	switch t := data.(type) {
	case *Value:
		return t.Raw()
	case map[string]string:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = e
		}
		return m
	case map[string]*string:
		m := make(map[string]any, len(t))
		for k, e := range t {
			if e == nil {
				m[k] = nil
			} else {
				m[k] = *e
			}
		}
		return m
	case []string:
		l := make([]any, len(t))
		for i, e := range t {
			l[i] = e
		}
		return l
	case []map[string]any:
		l := make([]any, len(t))
		for i, e := range t {
			l[i] = e
		}
		return l
	case map[string]any:
		for k, e := range t {
			if n := normalize(e); !sameContainer(n, e) {
				t[k] = n
			}
		}
		return t
	case []any:
		for i, e := range t {
			if n := normalize(e); !sameContainer(n, e) {
				t[i] = n
			}
		}
		return t
	}
	return data
}

// sameContainer reports whether normalize left e untouched. Only typed
// containers are rewritten so a type switch is enough.
func sameContainer(n, e any) bool {
	switch e.(type) {
	case map[string]string, map[string]*string, []string, []map[string]any, *Value:
		return false
	}
	return true
}

func deepCopy(data any) any {
	switch t := data.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = deepCopy(e)
		}
		return m
	case []any:
		l := make([]any, len(t))
		for i, e := range t {
			l[i] = deepCopy(e)
		}
		return l
	}
	return data
}

func toFloat(data any) (float64, bool) {
	switch t := data.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	}
	return 0, false
}

func equalPrimitive(a, b any) bool {
	switch at := a.(type) {
	case map[string]any:
		bt, ok := b.(map[string]any)
		if !ok || len(at) != len(bt) {
			return false
		}
		for k, av := range at {
			bv, ok := bt[k]
			if !ok || !equalPrimitive(av, bv) {
				return false
			}
		}
		return true
	case []any:
		bt, ok := b.([]any)
		if !ok || len(at) != len(bt) {
			return false
		}
		for i := range at {
			if !equalPrimitive(at[i], bt[i]) {
				return false
			}
		}
		return true
	case nil:
		return b == nil
	}
	af, aNum := toFloat(a)
	bf, bNum := toFloat(b)
	if aNum || bNum {
		return aNum && bNum && af == bf
	}
	return a == b
}
