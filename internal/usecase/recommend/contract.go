package recommend

import (
	"context"
	"time"

	"github.com/kailas-cloud/moviemaster/internal/domain/movie"
	domrecent "github.com/kailas-cloud/moviemaster/internal/domain/recent"
)

// SearchFunc returns the first page of text-search results for term.
type SearchFunc func(ctx context.Context, term string) (movie.Page, error)

// RecommendFunc returns the first page of recommendations for a movie id.
type RecommendFunc func(ctx context.Context, id int64) (movie.Page, error)

// Catalog is the upstream movie API as seen by the feed.
type Catalog interface {
	SearchMovies(ctx context.Context, query string, page int) (movie.Page, error)
	Recommendations(ctx context.Context, id int64, page int) (movie.Page, error)
}

// Source supplies the current recent-search snapshot for an owner.
type Source interface {
	Snapshot(ctx context.Context, owner string) (domrecent.Snapshot, error)
}

// Recorder receives aggregation metrics. Nil disables recording.
type Recorder interface {
	AggregationCompleted(d time.Duration, partial bool)
	AggregationSuperseded()
}
