package engine

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultTimeout is the hard limit for a single evaluation.
const DefaultTimeout = 5 * time.Second

var (
	// ErrTimeout is returned when evaluation runs past the engine timeout.
	ErrTimeout = errors.New("evaluation timed out")
	// ErrSuperseded is returned to a caller whose evaluation finished after
	// a newer one had started in the same session.
	ErrSuperseded = errors.New("evaluation superseded by newer request")
)

// evalResult passes evaluation output through channels.
type evalResult struct {
	result *EvalResult
	err    error
}

// waitWithTimeout waits for a result from ch, but returns ErrTimeout if the
// evaluation exceeds timeout and the context error if ctx ends first. When
// stale is non-nil and reports true once the result arrives, the result is
// discarded with ErrSuperseded.
//
// On timeout, the goroutine may still be running; its result is dropped
// into the buffered channel when it eventually completes.
func waitWithTimeout(
	ctx context.Context,
	ch <-chan evalResult,
	timeout time.Duration,
	stale func() bool,
) (*EvalResult, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if stale != nil && stale() {
			return nil, ErrSuperseded
		}
		return res.result, res.err

	case <-timer.C:
		return nil, fmt.Errorf("%w after %s", ErrTimeout, timeout)

	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
