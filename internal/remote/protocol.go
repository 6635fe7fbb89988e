package remote

import "fmt"

// EvaluateRequest is the wire form of one evaluation job.
type EvaluateRequest struct {
	X []float64 `json:"x"`
}

// EvaluateResponse carries the output vector and the worker-side runtime.
type EvaluateResponse struct {
	Y         []float64 `json:"y"`
	RuntimeMS float64   `json:"runtime_ms"`
}

// ErrorResponse reports a worker-side evaluation failure.
type ErrorResponse struct {
	Error string `json:"error"`
	Stage string `json:"stage,omitempty"`
}

// TransportError marks a failure to reach or be served by a worker, as
// opposed to the model itself failing. Transport errors are retryable on
// another worker; model errors are not.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("worker %s unreachable: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
