package pool

import (
	"context"

	"github.com/jschueller/otwrapy/internal/vector"
)

// Sequential evaluates each point in order on the caller's goroutine.
type Sequential struct {
	eval Evaluator
}

func NewSequential(eval Evaluator) *Sequential {
	return &Sequential{eval: eval}
}

func (s *Sequential) Name() string { return "sequential" }

func (s *Sequential) EvaluateBatch(ctx context.Context, xs vector.Sample) (vector.Sample, error) {
	ys := make(vector.Sample, len(xs))
	errs := make([]error, len(xs))
	for i, x := range xs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ys[i], errs[i] = s.eval.Evaluate(ctx, x)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ys, collectFailures(errs)
}
