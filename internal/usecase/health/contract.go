package health

import "context"

// Pinger checks availability of a storage backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// UpstreamChecker checks movie metadata provider availability.
type UpstreamChecker interface {
	HealthCheck(ctx context.Context) error
}
