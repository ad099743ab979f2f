package catalog

import (
	"context"

	"github.com/kailas-cloud/moviemaster/internal/domain/movie"
)

// Upstream defines the movie metadata provider contract.
type Upstream interface {
	SearchMovies(ctx context.Context, query string, page int) (movie.Page, error)
	Discover(ctx context.Context, withGenres string, page int) (movie.Page, error)
	Genres(ctx context.Context) (movie.GenreList, error)
	Details(ctx context.Context, id int64) (movie.Details, error)
	Credits(ctx context.Context, id int64) (movie.Credits, error)
	Recommendations(ctx context.Context, id int64, page int) (movie.Page, error)
	Trending(ctx context.Context) (movie.Page, error)
}
