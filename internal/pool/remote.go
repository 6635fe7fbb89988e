package pool

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/jschueller/otwrapy/internal/remote"
	"github.com/jschueller/otwrapy/internal/vector"
)

// RemoteClient is the transport the remote backend talks through.
type RemoteClient interface {
	Evaluate(ctx context.Context, baseURL string, x vector.Point) (vector.Point, error)
}

// Remote dispatches jobs to a pool of HTTP workers. Transport failures are
// retried on the next worker up to retries extra attempts; model failures
// are presumed deterministic and never retried.
type Remote struct {
	client  RemoteClient
	workers []string
	retries int
	next    atomic.Uint64
}

func NewRemote(client RemoteClient, workers []string, retries int) (*Remote, error) {
	if len(workers) == 0 {
		return nil, fmt.Errorf("remote backend needs at least one worker URL")
	}
	if retries < 0 {
		retries = 0
	}
	return &Remote{client: client, workers: workers, retries: retries}, nil
}

func (r *Remote) Name() string { return "remote" }

func (r *Remote) EvaluateBatch(ctx context.Context, xs vector.Sample) (vector.Sample, error) {
	return dispatch(ctx, xs, len(r.workers), r.evaluate)
}

func (r *Remote) evaluate(ctx context.Context, x vector.Point) (vector.Point, error) {
	start := int(r.next.Add(1) % uint64(len(r.workers)))
	var lastErr error
	for attempt := 0; attempt <= r.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		url := r.workers[(start+attempt)%len(r.workers)]
		y, err := r.client.Evaluate(ctx, url, x)
		if err == nil {
			return y, nil
		}
		var transport *remote.TransportError
		if !errors.As(err, &transport) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("gave up after %d attempts: %w", r.retries+1, lastErr)
}
