package pool

import (
	"context"
	"runtime"
	"sync"

	"github.com/jschueller/otwrapy/internal/vector"
)

// Local fans a batch out over a fixed pool of worker goroutines. Each job
// runs the evaluator independently, so each gets its own work directory;
// results land in an index-addressed slice so input order is preserved no
// matter which worker finishes first.
type Local struct {
	eval    Evaluator
	workers int
}

func NewLocal(eval Evaluator, workers int) *Local {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Local{eval: eval, workers: workers}
}

func (l *Local) Name() string { return "local" }

func (l *Local) Workers() int { return l.workers }

func (l *Local) EvaluateBatch(ctx context.Context, xs vector.Sample) (vector.Sample, error) {
	return dispatch(ctx, xs, l.workers, l.eval.Evaluate)
}

// dispatch runs fn once per point on n workers, preserving input order.
// On cancellation the remaining jobs are abandoned, in-flight ones finish,
// and no partial batch is returned.
func dispatch(ctx context.Context, xs vector.Sample, n int,
	fn func(context.Context, vector.Point) (vector.Point, error)) (vector.Sample, error) {

	ys := make(vector.Sample, len(xs))
	errs := make([]error, len(xs))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < n; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				ys[i], errs[i] = fn(ctx, xs[i])
			}
		}()
	}

feed:
	for i := range xs {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ys, collectFailures(errs)
}
