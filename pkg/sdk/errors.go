package moviemaster

import (
	"errors"

	"github.com/kailas-cloud/moviemaster/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound            = domain.ErrNotFound
	ErrInvalidInput        = domain.ErrInvalidInput
	ErrRateLimited         = domain.ErrRateLimited
	ErrUpstream            = domain.ErrUpstream
	ErrUpstreamUnavailable = domain.ErrUpstreamUnavailable
)

// ErrNotConfigured is returned by Recommendations when WithTMDB was not given.
var ErrNotConfigured = errors.New("moviemaster: movie provider not configured (use WithTMDB)")
