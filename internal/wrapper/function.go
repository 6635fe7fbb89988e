// Package wrapper composes a single-point model, a memoizing cache and a
// batch dispatch backend into one callable function.
package wrapper

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jschueller/otwrapy/internal/cache"
	"github.com/jschueller/otwrapy/internal/model"
	"github.com/jschueller/otwrapy/internal/pool"
	"github.com/jschueller/otwrapy/internal/remote"
	"github.com/jschueller/otwrapy/internal/vector"
)

// Function is the public entry point: a vector-valued function backed by
// an external executable, with transparent memoization and batch dispatch.
type Function struct {
	model   model.Model
	eval    *model.Evaluator
	cache   *cache.Cache
	backend pool.Backend
	logger  *zap.Logger
}

type Option func(*options)

type options struct {
	evalOpts []model.Option
	logger   *zap.Logger
	backend  pool.Backend
	client   pool.RemoteClient
}

// WithEvaluatorOptions forwards options to the underlying evaluator
// (work dir base, injected delay, keep-workdir and so on).
func WithEvaluatorOptions(opts ...model.Option) Option {
	return func(o *options) { o.evalOpts = append(o.evalOpts, opts...) }
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithBackend overrides the backend built from Config. Used in tests.
func WithBackend(b pool.Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithRemoteClient overrides the HTTP client of the remote backend.
func WithRemoteClient(c pool.RemoteClient) Option {
	return func(o *options) { o.client = c }
}

// New validates the model's declared dimensions against its labels and
// assembles the function. Configuration errors surface here, immediately,
// and are never retried.
func New(m model.Model, cfg Config, opts ...Option) (*Function, error) {
	o := &options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}

	if m.InputDimension() <= 0 || m.OutputDimension() <= 0 {
		return nil, fmt.Errorf("model dimensions must be positive, got %d -> %d",
			m.InputDimension(), m.OutputDimension())
	}
	if labels := m.InputDescription(); len(labels) != 0 && len(labels) != m.InputDimension() {
		return nil, fmt.Errorf("%d input labels for input dimension %d", len(labels), m.InputDimension())
	}
	if labels := m.OutputDescription(); len(labels) != 0 && len(labels) != m.OutputDimension() {
		return nil, fmt.Errorf("%d output labels for output dimension %d", len(labels), m.OutputDimension())
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	evalOpts := append([]model.Option{model.WithLogger(o.logger)}, o.evalOpts...)
	eval := model.NewEvaluator(m, evalOpts...)

	backend := o.backend
	if backend == nil {
		var err error
		backend, err = buildBackend(eval, cfg, o.client)
		if err != nil {
			return nil, err
		}
	}

	f := &Function{
		model:   m,
		eval:    eval,
		backend: backend,
		logger:  o.logger,
	}
	if !cfg.DisableCache {
		f.cache = cache.New(cfg.CacheCapacity, cache.WithLogger(o.logger))
	}
	return f, nil
}

func buildBackend(eval *model.Evaluator, cfg Config, client pool.RemoteClient) (pool.Backend, error) {
	switch cfg.Mode {
	case ModeSequential:
		return pool.NewSequential(eval), nil
	case ModeLocal:
		return pool.NewLocal(eval, cfg.Workers), nil
	case ModeRemote:
		if client == nil {
			client = remote.NewClient(cfg.Timeout)
		}
		return pool.NewRemote(client, cfg.WorkerURLs, cfg.Retries)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Mode)
	}
}

func (f *Function) InputDimension() int         { return f.model.InputDimension() }
func (f *Function) OutputDimension() int        { return f.model.OutputDimension() }
func (f *Function) InputDescription() []string  { return f.model.InputDescription() }
func (f *Function) OutputDescription() []string { return f.model.OutputDescription() }
func (f *Function) BackendName() string         { return f.backend.Name() }

// Call evaluates a single point, consulting the cache first.
func (f *Function) Call(ctx context.Context, x vector.Point) (vector.Point, error) {
	if f.cache == nil {
		return f.eval.Evaluate(ctx, x)
	}
	return f.cache.GetOrCompute(x, func() (vector.Point, error) {
		return f.eval.Evaluate(ctx, x)
	})
}

// CallBatch evaluates an ordered batch. Cache hits are resolved locally
// without consuming a worker slot; only misses are dispatched. Results
// come back in input order; failed positions hold nil and are described
// by the returned *pool.BatchError.
func (f *Function) CallBatch(ctx context.Context, xs vector.Sample) (vector.Sample, error) {
	if len(xs) == 0 {
		return vector.Sample{}, nil
	}
	if f.cache == nil {
		return f.backend.EvaluateBatch(ctx, xs)
	}

	ys := make(vector.Sample, len(xs))
	var missIdx []int
	for i, x := range xs {
		if y, ok := f.cache.Get(x); ok {
			ys[i] = y
		} else {
			missIdx = append(missIdx, i)
		}
	}
	f.logger.Debug("batch cache pass",
		zap.Int("size", len(xs)), zap.Int("misses", len(missIdx)))
	if len(missIdx) == 0 {
		return ys, nil
	}

	misses := make(vector.Sample, len(missIdx))
	for k, i := range missIdx {
		misses[k] = xs[i]
	}

	outs, err := f.backend.EvaluateBatch(ctx, misses)
	if err != nil {
		var batchErr *pool.BatchError
		if !errors.As(err, &batchErr) {
			// Cancellation or another whole-batch failure: no partial batch.
			return nil, err
		}
		// Remap failure positions from the dispatched subset back to the
		// caller's batch.
		remapped := &pool.BatchError{Total: len(xs)}
		for _, fail := range batchErr.Failures {
			remapped.Failures = append(remapped.Failures, pool.PositionError{
				Position: missIdx[fail.Position],
				Err:      fail.Err,
			})
		}
		err = remapped
	}

	for k, i := range missIdx {
		if outs[k] != nil {
			ys[i] = outs[k]
			f.cache.Put(xs[i], outs[k])
		}
	}
	return ys, err
}

// CacheLen reports the number of memoized entries, zero when caching is
// disabled.
func (f *Function) CacheLen() int {
	if f.cache == nil {
		return 0
	}
	return f.cache.Len()
}
