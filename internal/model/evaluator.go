package model

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jschueller/otwrapy/internal/vector"
	"github.com/jschueller/otwrapy/internal/workdir"
)

// Evaluator runs a Model one point at a time, giving every call its own
// scoped work directory. It is safe for concurrent use.
type Evaluator struct {
	model   Model
	baseDir string
	prefix  string
	cleanup bool
	delay   time.Duration
	seeds   []string
	logger  *zap.Logger
}

type Option func(*Evaluator)

// WithBaseDir places work directories under dir instead of the system
// temp directory.
func WithBaseDir(dir string) Option {
	return func(e *Evaluator) { e.baseDir = dir }
}

// WithPrefix overrides the work directory name prefix.
func WithPrefix(prefix string) Option {
	return func(e *Evaluator) { e.prefix = prefix }
}

// WithKeepWorkDir leaves work directories behind for inspection.
func WithKeepWorkDir() Option {
	return func(e *Evaluator) { e.cleanup = false }
}

// WithDelay injects a fixed pause before each execution, to emulate
// expensive evaluations when measuring parallel speedup. The delay holds
// no lock.
func WithDelay(d time.Duration) Option {
	return func(e *Evaluator) { e.delay = d }
}

// WithSeedFiles copies the named files into every work directory before
// the input artifact is materialized.
func WithSeedFiles(paths ...string) Option {
	return func(e *Evaluator) { e.seeds = paths }
}

func WithLogger(logger *zap.Logger) Option {
	return func(e *Evaluator) { e.logger = logger }
}

func NewEvaluator(m Model, opts ...Option) *Evaluator {
	e := &Evaluator{
		model:   m,
		prefix:  "otwrapy-",
		cleanup: true,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Evaluator) Model() Model { return e.model }

// Evaluate runs one point through create-input, invoke and parse-output
// inside a fresh work directory. The directory is released on every exit
// path. Failures carry the input vector and the failing stage.
func (e *Evaluator) Evaluate(ctx context.Context, x vector.Point) (vector.Point, error) {
	if len(x) != e.model.InputDimension() {
		return nil, &EvalError{Stage: StageInput, Input: x,
			Err: fmt.Errorf("input dimension %d, model expects %d", len(x), e.model.InputDimension())}
	}

	if e.delay > 0 {
		select {
		case <-time.After(e.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	dir, err := workdir.AcquireSeeded(e.baseDir, e.prefix, e.cleanup, e.seeds...)
	if err != nil {
		return nil, &EvalError{Stage: StageWorkDir, Input: x, Err: err}
	}
	defer func() {
		if err := dir.Release(); err != nil {
			e.logger.Warn("failed to release work dir",
				zap.String("path", dir.Path()), zap.Error(err))
		}
	}()

	if err := e.model.CreateInput(dir.Path(), x); err != nil {
		return nil, &EvalError{Stage: StageInput, Input: x, Err: err}
	}

	runtime, err := e.model.Invoke(ctx, dir.Path())
	if err != nil {
		return nil, &EvalError{Stage: StageInvoke, Input: x, Err: err}
	}

	y, err := e.model.ParseOutput(dir.Path())
	if err != nil {
		return nil, &EvalError{Stage: StageParse, Input: x, Err: err}
	}
	if len(y) != e.model.OutputDimension() {
		return nil, &EvalError{Stage: StageParse, Input: x,
			Err: fmt.Errorf("output dimension %d, model declares %d", len(y), e.model.OutputDimension())}
	}

	e.logger.Debug("evaluated point",
		zap.String("x", x.String()),
		zap.Duration("runtime", runtime),
	)
	return y, nil
}
