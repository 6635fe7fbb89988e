// Package pool dispatches batches of input vectors across interchangeable
// execution backends. All backends honor the same contract: result[i]
// corresponds to xs[i] regardless of completion order, and identical
// inputs produce identical results whichever backend runs them.
package pool

import (
	"context"

	"github.com/jschueller/otwrapy/internal/vector"
)

// Evaluator is the single-point capability a backend fans out over.
type Evaluator interface {
	Evaluate(ctx context.Context, x vector.Point) (vector.Point, error)
}

// Backend executes an ordered batch. On per-job failure the returned
// sample holds nil at the failed positions and the error is a *BatchError
// describing them; successful positions are always populated. This is the
// partial-results-with-markers policy, applied uniformly: one bad point in
// a large design of experiments does not discard the rest. Cancellation is
// the exception: a cancelled batch returns no results at all.
type Backend interface {
	Name() string
	EvaluateBatch(ctx context.Context, xs vector.Sample) (vector.Sample, error)
}
