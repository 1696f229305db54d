// Package action records invocations of the client binary.
//
// An Action is one invocation: the argv that was run, what it printed and
// how it exited. A Result groups the Actions of one logical operation and
// turns a non-zero aggregate status into an *OperationError when the caller
// asks for it with FailIf. Nothing in this package raises errors on its own.
package action

import (
	"encoding/json"
	"strings"
	"time"
)

// StatusTimeout is the status of an Action whose deadline expired before the
// process finished. It never collides with a real exit code.
const StatusTimeout = -1

// Action is the record of one invocation. It is not modified after the
// invocation returns.
type Action struct {
	Verb   string
	Cmd    []string
	Out    string
	Err    string
	Status int
	In     []byte

	// LastAttempt is false for retries that were followed by another attempt.
	// Only last attempts contribute to Result.Status.
	LastAttempt bool
	// Internal actions are omitted from user facing logs.
	Internal bool
	TimedOut bool

	References map[string]any
	ExecTime   time.Time
	Elapsed    time.Duration
}

// Succeeded reports whether the invocation exited with status zero.
func (a *Action) Succeeded() bool {
	return a.Status == 0
}

// SerializeOption tunes AsMap.
type SerializeOption func(*serializeConfig)

type serializeConfig struct {
	unredacted bool
	truncate   int
}

// Unredacted disables redaction. Use only for local debugging.
func Unredacted() SerializeOption {
	return func(c *serializeConfig) {
		c.unredacted = true
	}
}

// TruncateOutput limits the raw out field to n bytes.
func TruncateOutput(n int) SerializeOption {
	return func(c *serializeConfig) {
		c.truncate = n
	}
}

const truncatedMarker = "...<truncated>"

// Redacted returns a copy with credentials and secret content masked.
func (a *Action) Redacted() *Action {
	cp := *a
	cp.Cmd = RedactArgs(a.Cmd)
	cp.Out = RedactContent(a.Out)
	cp.Err = RedactContent(a.Err)
	if a.In != nil {
		cp.In = []byte(RedactContent(string(a.In)))
	}
	cp.References = redactReferences(a.References)
	return &cp
}

// AsMap returns the serialized form of the Action. Output beginning with '{'
// that decodes as JSON is exposed as out_obj in place of out.
func (a *Action) AsMap(opts ...SerializeOption) map[string]any {
	var cfg serializeConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	src := a
	if !cfg.unredacted {
		src = a.Redacted()
	}

	m := map[string]any{
		"timestamp":    src.ExecTime.Unix(),
		"elapsed_time": src.Elapsed.Seconds(),
		"success":      src.Succeeded(),
		"status":       src.Status,
		"verb":         src.Verb,
		"cmd":          src.Cmd,
		"err":          src.Err,
		"in":           string(src.In),
		"references":   src.References,
		"timeout":      src.TimedOut,
		"last_attempt": src.LastAttempt,
		"internal":     src.Internal,
	}
	if src.In == nil {
		m["in"] = nil
	}
	if src.References == nil {
		m["references"] = map[string]any{}
	}

	if obj, ok := decodeObject(src.Out); ok {
		m["out_obj"] = obj
	} else {
		out := src.Out
		if cfg.truncate > 0 && len(out) > cfg.truncate {
			out = out[:cfg.truncate] + truncatedMarker
		}
		m["out"] = out
	}
	return m
}

// MarshalJSON implements json.Marshaler with redaction applied.
func (a *Action) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.AsMap())
}

func decodeObject(out string) (map[string]any, bool) {
	if !strings.HasPrefix(out, "{") {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(out), &obj); err != nil {
		return nil, false
	}
	return obj, true
}
