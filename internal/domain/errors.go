package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists signals a duplicate resource.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidInput signals a request that failed validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized signals missing or bad credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRateLimited signals a rate limit hit (inbound or upstream).
	ErrRateLimited = errors.New("rate limited")
	// ErrUpstream signals a failed call to the movie metadata provider.
	ErrUpstream = errors.New("upstream error")
	// ErrUpstreamUnavailable signals that calls to the provider are short-circuited.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// UpstreamStatusError carries the HTTP status returned by the movie metadata provider.
type UpstreamStatusError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamStatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", ErrUpstream.Error(), e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", ErrUpstream.Error(), e.StatusCode, e.Message)
}

// Unwrap maps provider 404s onto ErrNotFound and 429s onto ErrRateLimited,
// everything else onto ErrUpstream.
func (e *UpstreamStatusError) Unwrap() error {
	switch e.StatusCode {
	case 404:
		return ErrNotFound
	case 429:
		return ErrRateLimited
	default:
		return ErrUpstream
	}
}

// NewUpstreamStatus creates an upstream status error.
func NewUpstreamStatus(statusCode int, message string) error {
	return &UpstreamStatusError{StatusCode: statusCode, Message: message}
}
