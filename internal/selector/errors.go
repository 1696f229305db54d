package selector

import "errors"

var (
	// ErrAllNamespacesFreeze is returned by Freeze for selectors that span
	// namespaces. Names alone do not address resources across namespaces.
	ErrAllNamespacesFreeze = errors.New("cannot freeze a selector spanning all namespaces")

	// ErrNotSingle is returned by Object unless exactly one resource is
	// selected, and by ObjectOrNil when more than one is.
	ErrNotSingle = errors.New("selector does not select exactly one resource")

	// ErrPollDeadline is returned by the until loops when the deadline of the
	// scope passes before the condition is decided.
	ErrPollDeadline = errors.New("deadline passed while waiting for selector condition")
)
