package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/moviemaster/internal/domain"
	"github.com/kailas-cloud/moviemaster/internal/metrics"
)

const (
	// DefaultBaseURL is the public TMDB v3 API.
	DefaultBaseURL = "https://api.themoviedb.org/3"

	breakerName = "tmdb"
	maxBodySize = 4 << 20
)

// Config holds the upstream client settings.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	// RatePerSecond limits outbound requests. Zero disables limiting.
	RatePerSecond float64
	Burst         int
	// RetryMax is the number of extra attempts for GET requests that failed
	// at the network level or with 502/503/504.
	RetryMax     int
	RetryBackoff time.Duration
	Breaker      BreakerConfig
	Logger       *zap.Logger
}

// BreakerConfig tunes the circuit breaker.
type BreakerConfig struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	MinRequests  uint32
	FailureRatio float64
}

// Client calls the TMDB v3 REST API.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[[]byte]
	logger  *zap.Logger
}

// NewClient creates a TMDB client.
func NewClient(cfg *Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}

	return &Client{
		http: &http.Client{
			Transport: &retryTransport{
				base:     http.DefaultTransport,
				retryMax: cfg.RetryMax,
				backoff:  cfg.RetryBackoff,
			},
			Timeout: cfg.Timeout,
		},
		baseURL: base,
		apiKey:  cfg.APIKey,
		limiter: limiter,
		cb:      newBreaker(cfg.Breaker, logger),
		logger:  logger,
	}
}

func newBreaker(cfg BreakerConfig, logger *zap.Logger) *gobreaker.CircuitBreaker[[]byte] {
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 3
	}
	if cfg.Interval == 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MinRequests == 0 {
		cfg.MinRequests = 10
	}
	if cfg.FailureRatio == 0 {
		cfg.FailureRatio = 0.6
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		// Client errors and caller cancellation say nothing about upstream health.
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			var se *domain.UpstreamStatusError
			if errors.As(err, &se) {
				return se.StatusCode < 500 && se.StatusCode != http.StatusTooManyRequests
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state change",
				zap.String("name", name), zap.String("from", from.String()), zap.String("to", to.String()))
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// get issues a GET for path and decodes the JSON body into out.
// endpoint is a low-cardinality label for metrics and logs.
func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("tmdb %s: wait for rate limiter: %w", endpoint, err)
	}

	start := time.Now()
	body, err := c.cb.Execute(func() ([]byte, error) {
		return c.do(ctx, endpoint, path, query)
	})
	metrics.UpstreamRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.logger.Warn("tmdb request rejected by circuit breaker", zap.String("endpoint", endpoint))
			return fmt.Errorf("tmdb %s: %w: %w", endpoint, domain.ErrUpstreamUnavailable, err)
		}
		return fmt.Errorf("tmdb %s: %w", endpoint, err)
	}
	metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, "success").Inc()

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("tmdb %s: decode response: %w: %w", endpoint, domain.ErrUpstream, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, endpoint, path string, query url.Values) ([]byte, error) {
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	q.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(withEndpoint(ctx, endpoint), http.MethodGet,
		c.baseURL+path+"?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrUpstream, redact(err.Error(), c.apiKey))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w: %w", domain.ErrUpstream, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, domain.NewUpstreamStatus(resp.StatusCode, extractStatusMessage(body))
	}
	return body, nil
}

// extractStatusMessage reads TMDB's {"status_code":..,"status_message":".."} error body.
func extractStatusMessage(body []byte) string {
	var parsed struct {
		StatusMessage string `json:"status_message"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		return parsed.StatusMessage
	}
	return ""
}

// redact keeps the API key out of error messages that echo the request URL.
func redact(msg, key string) string {
	if key == "" {
		return msg
	}
	return strings.ReplaceAll(msg, key, "REDACTED")
}
