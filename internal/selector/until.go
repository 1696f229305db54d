package selector

import (
	"context"
	"log/slog"
	"time"

	"github.com/giantswarm/kubedriver/internal/instrumentation"
	"github.com/giantswarm/kubedriver/internal/logging"
	"github.com/giantswarm/kubedriver/internal/resource"
	"github.com/giantswarm/kubedriver/internal/scope"
)

// Poll schedule of the until loops: the wait grows by pollStep after every
// iteration up to maxPollInterval.
var (
	initialPollInterval = time.Second
	pollStep            = time.Second
	maxPollInterval     = 15 * time.Second
)

// Predicate classifies a resource.
type Predicate func(*resource.Resource) bool

// UntilAnyOptions configures UntilAny.
type UntilAnyOptions struct {
	// MinToSatisfy is the number of resources Success must accept. Nil means
	// one. Zero is satisfied by the first query, even when it selects
	// nothing.
	MinToSatisfy *int
	// Success defaults to accepting every resource.
	Success Predicate
	// TolerateFailures is the number of resources Failure may accept before
	// the loop gives up.
	TolerateFailures int
	Failure          Predicate
}

// UntilAllOptions configures UntilAll.
type UntilAllOptions struct {
	// MinExist is the number of resources that must be selected before
	// anything is evaluated. Nil means one. With zero an empty selection
	// satisfies the loop.
	MinExist *int
	// Success defaults to accepting every resource.
	Success          Predicate
	TolerateFailures int
	Failure          Predicate
}

// Outcome is the final state of an until loop.
type Outcome struct {
	// Satisfied is true when the condition was met and false when failures
	// exceeded the tolerance.
	Satisfied  bool
	Objects    []*resource.Resource
	Successes  []*resource.Resource
	Failures   []*resource.Resource
	Iterations int
}

// UntilAny polls s until at least MinToSatisfy resources satisfy Success.
// It gives up as soon as more than TolerateFailures resources satisfy
// Failure, even if enough successes would follow later.
//
// Query errors end the loop. So does the scope deadline, with
// ErrPollDeadline, and cancellation of ctx.
func (s *Selector) UntilAny(ctx context.Context, opts UntilAnyOptions) (Outcome, error) {
	minToSatisfy := atLeast(opts.MinToSatisfy)

	return s.until(ctx, instrumentation.PollAny, opts.Success, opts.Failure, func(o *Outcome) (bool, bool) {
		if len(o.Failures) > opts.TolerateFailures {
			return true, false
		}
		if len(o.Successes) >= minToSatisfy {
			return true, true
		}
		return false, false
	})
}

// UntilAll polls s until at least MinExist resources are selected and all
// selected resources satisfy Success. It gives up as soon as more than
// TolerateFailures resources satisfy Failure. Nothing is evaluated while
// fewer than MinExist resources exist.
//
// Query errors end the loop. So does the scope deadline, with
// ErrPollDeadline, and cancellation of ctx.
func (s *Selector) UntilAll(ctx context.Context, opts UntilAllOptions) (Outcome, error) {
	minExist := atLeast(opts.MinExist)

	return s.until(ctx, instrumentation.PollAll, opts.Success, opts.Failure, func(o *Outcome) (bool, bool) {
		if len(o.Objects) < minExist {
			return false, false
		}
		if len(o.Failures) > opts.TolerateFailures {
			return true, false
		}
		if len(o.Successes) == len(o.Objects) {
			return true, true
		}
		return false, false
	})
}

// atLeast returns the minimum count set in n, one when unset. Negative
// counts mean zero.
func atLeast(n *int) int {
	if n == nil {
		return 1
	}
	return max(*n, 0)
}

// until runs the poll loop. decide returns whether the loop is done and, if
// so, whether the condition was satisfied.
func (s *Selector) until(ctx context.Context, mode string, success, failure Predicate, decide func(*Outcome) (done, satisfied bool)) (Outcome, error) {
	sc := scope.From(ctx)
	logger := sc.Logger().With(logging.Operation("until_"+mode), logging.Kind(s.kindList()))
	metrics := sc.Metrics()

	ctx, span := instrumentation.StartPollSpan(ctx, mode, s.String())
	defer span.End()

	interval := initialPollInterval
	for iteration := 1; ; iteration++ {
		metrics.RecordPollIteration(ctx, mode)

		objs, err := s.Objects(ctx)
		if err != nil {
			instrumentation.SetSpanError(span, err)
			return Outcome{Iterations: iteration}, err
		}

		o := Outcome{Objects: objs, Iterations: iteration}
		for _, obj := range objs {
			if success == nil || success(obj) {
				o.Successes = append(o.Successes, obj)
			}
			if failure != nil && failure(obj) {
				o.Failures = append(o.Failures, obj)
			}
		}

		done, satisfied := decide(&o)
		logger.Debug("polled selector",
			logging.Iteration(iteration),
			slog.Int("objects", len(o.Objects)),
			slog.Int("successes", len(o.Successes)),
			slog.Int("failures", len(o.Failures)))
		if done {
			o.Satisfied = satisfied
			instrumentation.SetSpanSuccess(span)
			return o, nil
		}

		if err := wait(ctx, sc, interval); err != nil {
			logger.Warn("stopped waiting for selector", logging.Iteration(iteration), logging.Err(err))
			instrumentation.SetSpanError(span, err)
			return o, err
		}
		interval = min(interval+pollStep, maxPollInterval)
	}
}

// wait sleeps for interval, or less when the scope deadline comes first.
func wait(ctx context.Context, sc *scope.Scope, interval time.Duration) error {
	if deadline, ok := sc.Deadline(); ok {
		left := time.Until(deadline)
		if left <= 0 {
			return ErrPollDeadline
		}
		interval = min(interval, left)
	}

	timer := time.NewTimer(interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	if sc.IsOutOfTime() {
		return ErrPollDeadline
	}
	return nil
}
