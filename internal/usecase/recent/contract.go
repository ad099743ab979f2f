package recent

import (
	"context"

	domrecent "github.com/kailas-cloud/moviemaster/internal/domain/recent"
)

// Repository defines the persistence contract for recent-search lists.
type Repository interface {
	Load(ctx context.Context, owner string) (domrecent.List, error)
	Save(ctx context.Context, owner string, list domrecent.List) error
}

// Observer is notified after every committed mutation. It runs on the mutating
// goroutine while the owner's lock stripe is held, so it must not call back into the Service.
type Observer func(domrecent.Snapshot)
