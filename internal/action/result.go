package action

import (
	"encoding/json"
	"strings"
	"sync"
)

// Result is an ordered list of Actions making up one logical operation.
//
// A Result may be shared by goroutines that each own a scope chain ending in
// the same tracking ancestor, so its methods are safe for concurrent use.
type Result struct {
	name  string
	limit int

	mu      sync.Mutex
	actions []*Action
}

// ResultOption configures a Result.
type ResultOption func(*Result)

// WithLimit bounds retention to the n most recent actions. Zero or less means
// unbounded.
func WithLimit(n int) ResultOption {
	return func(r *Result) {
		r.limit = n
	}
}

// NewResult returns an empty Result.
func NewResult(name string, opts ...ResultOption) *Result {
	r := &Result{name: name}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name returns the label given at construction.
func (r *Result) Name() string {
	return r.name
}

// Add appends a. When a retention limit is set the oldest actions are dropped.
func (r *Result) Add(a *Action) {
	if a == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.actions = append(r.actions, a)
	if r.limit > 0 && len(r.actions) > r.limit {
		drop := len(r.actions) - r.limit
		kept := make([]*Action, r.limit)
		copy(kept, r.actions[drop:])
		r.actions = kept
	}
}

// Merge appends every action of other, in order.
func (r *Result) Merge(other *Result) {
	if other == nil || other == r {
		return
	}
	for _, a := range other.Actions() {
		r.Add(a)
	}
}

// Actions returns a snapshot of the retained actions.
func (r *Result) Actions() []*Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Action, len(r.actions))
	copy(out, r.actions)
	return out
}

// Len returns the number of retained actions.
func (r *Result) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.actions)
}

// Status is the bitwise OR of the statuses of last-attempt actions.
func (r *Result) Status() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	status := 0
	for _, a := range r.actions {
		if a.LastAttempt {
			status |= a.Status
		}
	}
	return status
}

// Succeeded reports whether Status is zero.
func (r *Result) Succeeded() bool {
	return r.Status() == 0
}

// Stdout concatenates the stdout of every action.
func (r *Result) Stdout() string {
	var b strings.Builder
	for _, a := range r.Actions() {
		b.WriteString(a.Out)
	}
	return b.String()
}

// Stderr concatenates the stderr of every action.
func (r *Result) Stderr() string {
	var b strings.Builder
	for _, a := range r.Actions() {
		b.WriteString(a.Err)
	}
	return b.String()
}

// Out returns the trimmed stdout of the last action, which is what callers
// parse after a single invocation.
func (r *Result) Out() string {
	actions := r.Actions()
	if len(actions) == 0 {
		return ""
	}
	return strings.TrimSpace(actions[len(actions)-1].Out)
}

// Err returns the trimmed stderr of the last action.
func (r *Result) Err() string {
	actions := r.Actions()
	if len(actions) == 0 {
		return ""
	}
	return strings.TrimSpace(actions[len(actions)-1].Err)
}

// TimedOut reports whether any last-attempt action timed out.
func (r *Result) TimedOut() bool {
	for _, a := range r.Actions() {
		if a.LastAttempt && a.TimedOut {
			return true
		}
	}
	return false
}

// FailIf returns an *OperationError when Status is non-zero, nil otherwise.
func (r *Result) FailIf(message string) error {
	if r.Status() == 0 {
		return nil
	}
	return &OperationError{Message: message, Result: r}
}

// failing returns the most recent last-attempt action with a non-zero status.
func (r *Result) failing() *Action {
	actions := r.Actions()
	for i := len(actions) - 1; i >= 0; i-- {
		if actions[i].LastAttempt && actions[i].Status != 0 {
			return actions[i]
		}
	}
	return nil
}

// AsMap returns the serialized form of the Result.
func (r *Result) AsMap(opts ...SerializeOption) map[string]any {
	actions := r.Actions()
	serialized := make([]map[string]any, len(actions))
	for i, a := range actions {
		serialized[i] = a.AsMap(opts...)
	}
	return map[string]any{
		"name":    r.name,
		"status":  r.Status(),
		"actions": serialized,
	}
}

// MarshalJSON implements json.Marshaler with redaction applied.
func (r *Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.AsMap())
}

// String returns the redacted Result as indented JSON.
func (r *Result) String() string {
	b, err := json.MarshalIndent(r.AsMap(TruncateOutput(4096)), "", "  ")
	if err != nil {
		return r.name
	}
	return string(b)
}
