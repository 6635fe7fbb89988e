package model

import (
	"fmt"

	"github.com/jschueller/otwrapy/internal/vector"
)

// Stage identifies which step of an evaluation failed.
type Stage string

const (
	StageWorkDir Stage = "workdir"
	StageInput   Stage = "input"
	StageInvoke  Stage = "invoke"
	StageParse   Stage = "parse"
)

// EvalError tags an evaluation failure with the offending input vector and
// the stage that produced it, so a single failing point can be reproduced
// in isolation.
type EvalError struct {
	Stage Stage
	Input vector.Point
	Err   error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluate %s: %s stage: %v", e.Input, e.Stage, e.Err)
}

func (e *EvalError) Unwrap() error { return e.Err }
