package pool

import "fmt"

// PositionError ties a job failure to its index in the original batch.
type PositionError struct {
	Position int
	Err      error
}

func (e PositionError) Error() string {
	return fmt.Sprintf("position %d: %v", e.Position, e.Err)
}

func (e PositionError) Unwrap() error { return e.Err }

// BatchError aggregates the failed positions of a batch. The dispatcher
// still returns every successful result alongside it.
type BatchError struct {
	Total    int
	Failures []PositionError
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch: %d of %d evaluations failed, first: %v",
		len(e.Failures), e.Total, e.Failures[0])
}

// collectFailures builds a BatchError from an index-aligned error slice,
// or returns nil when every job succeeded.
func collectFailures(errs []error) error {
	var failures []PositionError
	for i, err := range errs {
		if err != nil {
			failures = append(failures, PositionError{Position: i, Err: err})
		}
	}
	if len(failures) == 0 {
		return nil
	}
	return &BatchError{Total: len(errs), Failures: failures}
}
