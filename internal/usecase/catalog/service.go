package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/moviemaster/internal/domain"
	"github.com/kailas-cloud/moviemaster/internal/domain/movie"
)

// Service answers public movie lookups.
type Service struct {
	upstream Upstream
}

// New creates a catalog service.
func New(upstream Upstream) *Service {
	return &Service{upstream: upstream}
}

// SearchParams selects between text search and genre discovery.
type SearchParams struct {
	Query      string
	WithGenres string
	Page       int
}

// Search runs a text search, or a popularity-sorted discovery when WithGenres is set.
func (s *Service) Search(ctx context.Context, p SearchParams) (movie.Page, error) {
	query := strings.TrimSpace(p.Query)
	genres := strings.TrimSpace(p.WithGenres)
	if query == "" && genres == "" {
		return movie.Page{}, fmt.Errorf("query parameter or genre filter is required: %w", domain.ErrInvalidInput)
	}

	if genres != "" {
		page, err := s.upstream.Discover(ctx, genres, normalizePage(p.Page))
		if err != nil {
			return movie.Page{}, fmt.Errorf("discover movies: %w", err)
		}
		return page, nil
	}

	page, err := s.upstream.SearchMovies(ctx, query, normalizePage(p.Page))
	if err != nil {
		return movie.Page{}, fmt.Errorf("search movies: %w", err)
	}
	return page, nil
}

// Genres returns the genre catalogue.
func (s *Service) Genres(ctx context.Context) (movie.GenreList, error) {
	g, err := s.upstream.Genres(ctx)
	if err != nil {
		return movie.GenreList{}, fmt.Errorf("list genres: %w", err)
	}
	return g, nil
}

// Discover lists the most popular movies of one genre.
func (s *Service) Discover(ctx context.Context, genreID, page int) (movie.Page, error) {
	if genreID <= 0 {
		return movie.Page{}, fmt.Errorf("genre id must be positive: %w", domain.ErrInvalidInput)
	}
	p, err := s.upstream.Discover(ctx, strconv.Itoa(genreID), normalizePage(page))
	if err != nil {
		return movie.Page{}, fmt.Errorf("discover genre %d: %w", genreID, err)
	}
	return p, nil
}

// Details returns a movie with its top-billed cast. Details and credits are fetched concurrently.
func (s *Service) Details(ctx context.Context, id int64) (movie.Details, error) {
	if id <= 0 {
		return movie.Details{}, fmt.Errorf("movie id must be positive: %w", domain.ErrInvalidInput)
	}

	var (
		details movie.Details
		credits movie.Credits
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		details, err = s.upstream.Details(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		credits, err = s.upstream.Credits(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return movie.Details{}, fmt.Errorf("movie %d: %w", id, err)
	}

	details.Cast = movie.TopCast(credits.Cast, movie.MaxCast)
	return details, nil
}

// Recommendations returns movies recommended for id.
func (s *Service) Recommendations(ctx context.Context, id int64, page int) (movie.Page, error) {
	if id <= 0 {
		return movie.Page{}, fmt.Errorf("movie id must be positive: %w", domain.ErrInvalidInput)
	}
	p, err := s.upstream.Recommendations(ctx, id, normalizePage(page))
	if err != nil {
		return movie.Page{}, fmt.Errorf("recommendations for %d: %w", id, err)
	}
	return p, nil
}

// Trending returns today's trending movies.
func (s *Service) Trending(ctx context.Context) (movie.Page, error) {
	p, err := s.upstream.Trending(ctx)
	if err != nil {
		return movie.Page{}, fmt.Errorf("trending movies: %w", err)
	}
	return p, nil
}

// Suggestions returns up to movie.MaxSuggestions titles for an autocomplete query.
func (s *Service) Suggestions(ctx context.Context, query string) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query parameter is required: %w", domain.ErrInvalidInput)
	}
	p, err := s.upstream.SearchMovies(ctx, query, 1)
	if err != nil {
		return nil, fmt.Errorf("suggestions: %w", err)
	}
	return movie.Titles(p.Results, movie.MaxSuggestions), nil
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}
