package moviemaster

import "github.com/kailas-cloud/moviemaster/internal/domain/movie"

// Movie is a recommended movie.
type Movie struct {
	ID          int64
	Title       string
	Overview    string
	PosterPath  string
	ReleaseDate string
	VoteAverage float64
	Popularity  float64
}

// Recommendations is the feed derived from an owner's recent searches.
type Recommendations struct {
	Movies []Movie
	// Partial is true when some upstream calls failed and their
	// contributions are missing.
	Partial bool
	// Version is the recent-list version the movies were computed from.
	Version uint64
}

func movieFromDomain(m movie.Movie) Movie {
	return Movie{
		ID:          m.ID,
		Title:       m.Title,
		Overview:    m.Overview,
		PosterPath:  m.PosterPath,
		ReleaseDate: m.ReleaseDate,
		VoteAverage: m.VoteAverage,
		Popularity:  m.Popularity,
	}
}
