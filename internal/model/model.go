package model

import (
	"context"
	"time"

	"github.com/jschueller/otwrapy/internal/vector"
)

// Model is the pluggable single-point capability set: it knows how to
// materialize an input artifact for one point, run the external code, and
// read the result back. The evaluator treats all three steps as opaque.
type Model interface {
	InputDimension() int
	OutputDimension() int
	InputDescription() []string
	OutputDescription() []string

	// CreateInput materializes the input artifact(s) for x inside dir.
	CreateInput(dir string, x vector.Point) error
	// Invoke runs the external executable with dir as its working
	// directory and reports the wall-clock runtime.
	Invoke(ctx context.Context, dir string) (time.Duration, error)
	// ParseOutput reads the output artifact(s) produced in dir.
	ParseOutput(dir string) (vector.Point, error)
}
