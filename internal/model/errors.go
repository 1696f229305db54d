package model

import (
	"errors"
	"fmt"
)

// ErrAbsentMutation is matched by every *ModelError raised for a write through
// an absent path.
var ErrAbsentMutation = errors.New("cannot mutate an absent value")

// ErrNotContainer indicates a write against a scalar or null node.
var ErrNotContainer = errors.New("value is not a container")

// ModelError describes an invalid mutation of a Value.
type ModelError struct {
	Op  string
	Key string
	Err error
}

// Error implements the error interface.
func (e *ModelError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("model %s %q: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("model %s: %v", e.Op, e.Err)
}

// Unwrap returns the sentinel error for use with errors.Is().
func (e *ModelError) Unwrap() error {
	return e.Err
}
