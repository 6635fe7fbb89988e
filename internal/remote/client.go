package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jschueller/otwrapy/internal/vector"
)

const defaultCallTimeout = 10 * time.Minute

// Client evaluates points on remote workers over HTTP.
type Client struct {
	http *http.Client
}

// NewClient builds a client whose calls time out after timeout. Zero means
// the default call timeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &Client{http: &http.Client{Timeout: timeout}}
}

// Evaluate posts x to the worker at baseURL. Network failures, timeouts
// and unexpected statuses surface as *TransportError; a worker-reported
// evaluation failure surfaces as a plain error and must not be retried.
func (c *Client) Evaluate(ctx context.Context, baseURL string, x vector.Point) (vector.Point, error) {
	body, err := json.Marshal(EvaluateRequest{X: x})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/evaluate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{URL: baseURL, Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var out EvaluateResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, &TransportError{URL: baseURL, Err: fmt.Errorf("decode response: %w", err)}
		}
		return vector.Point(out.Y), nil
	case http.StatusUnprocessableEntity:
		var failure ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&failure); err != nil {
			return nil, &TransportError{URL: baseURL, Err: fmt.Errorf("decode error response: %w", err)}
		}
		return nil, fmt.Errorf("worker %s: %s stage: %s", baseURL, failure.Stage, failure.Error)
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &TransportError{URL: baseURL,
			Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))}
	}
}
