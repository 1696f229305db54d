package action

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrOperationFailed is matched by every *OperationError.
var ErrOperationFailed = errors.New("operation failed")

// OperationError is returned by Result.FailIf. It carries the full Result for
// postmortem inspection.
type OperationError struct {
	Message string
	Result  *Result
}

// Error implements the error interface.
func (e *OperationError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Result == nil {
		return b.String()
	}
	fmt.Fprintf(&b, " (result %q, status %d)", e.Result.Name(), e.Result.Status())
	if a := e.Result.failing(); a != nil {
		if a.TimedOut {
			fmt.Fprintf(&b, ": timed out after %s running %q", a.Elapsed.Round(time.Millisecond), a.Verb)
		} else if msg := strings.TrimSpace(a.Err); msg != "" {
			fmt.Fprintf(&b, ": %s", msg)
		}
	}
	return b.String()
}

// Unwrap returns the sentinel error for use with errors.Is().
func (e *OperationError) Unwrap() error {
	return ErrOperationFailed
}

// IsTimeout reports whether the failing action ran out of time.
func (e *OperationError) IsTimeout() bool {
	if e.Result == nil {
		return false
	}
	a := e.Result.failing()
	return a != nil && a.TimedOut
}

// Check returns err when set, otherwise res.FailIf(msg). It lets call sites
// opt into failure with one check:
//
//	res, err := obj.Label(ctx, labels, true)
//	if err := action.Check(res, err, "labeling"); err != nil {
func Check(res *Result, err error, msg string) error {
	if err != nil {
		return err
	}
	if res == nil {
		return nil
	}
	return res.FailIf(msg)
}
