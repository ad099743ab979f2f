package tmdb

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/kailas-cloud/moviemaster/internal/metrics"
)

type endpointKey struct{}

func withEndpoint(ctx context.Context, endpoint string) context.Context {
	return context.WithValue(ctx, endpointKey{}, endpoint)
}

func endpointFrom(ctx context.Context) string {
	if e, ok := ctx.Value(endpointKey{}).(string); ok {
		return e
	}
	return "unknown"
}

// retryTransport retries replayable requests a bounded number of times.
// Only GET/HEAD without a body qualify.
type retryTransport struct {
	base     http.RoundTripper
	retryMax int
	backoff  time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}

	canRetry := (req.Method == http.MethodGet || req.Method == http.MethodHead) &&
		(req.Body == nil || req.Body == http.NoBody)
	maxRetries := max(t.retryMax, 0)
	if !canRetry {
		maxRetries = 0
	}

	var (
		resp *http.Response
		err  error
	)
	for attempt := 0; ; attempt++ {
		resp, err = t.base.RoundTrip(req.Clone(req.Context()))
		if attempt >= maxRetries || !retryable(resp, err) || req.Context().Err() != nil {
			return resp, err //nolint:wrapcheck // RoundTripper contract
		}
		if resp != nil {
			_ = resp.Body.Close()
		}
		metrics.UpstreamRetriesTotal.WithLabelValues(endpointFrom(req.Context())).Inc()

		if t.backoff > 0 {
			timer := time.NewTimer(t.backoff << attempt)
			select {
			case <-req.Context().Done():
				timer.Stop()
				return nil, req.Context().Err()
			case <-timer.C:
			}
		}
	}
}

func retryable(resp *http.Response, err error) bool {
	if err != nil {
		return true
	}
	switch resp.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
