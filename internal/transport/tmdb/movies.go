package tmdb

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/kailas-cloud/moviemaster/internal/domain/movie"
)

func pageQuery(page int) url.Values {
	if page < 1 {
		page = 1
	}
	return url.Values{"page": {strconv.Itoa(page)}}
}

// SearchMovies runs a free-text movie search.
func (c *Client) SearchMovies(ctx context.Context, query string, page int) (movie.Page, error) {
	q := pageQuery(page)
	q.Set("query", query)

	var out movie.Page
	if err := c.get(ctx, "search", "/search/movie", q, &out); err != nil {
		return movie.Page{}, err
	}
	return out, nil
}

// Discover lists movies matching withGenres (TMDB's comma/pipe syntax), most popular first.
func (c *Client) Discover(ctx context.Context, withGenres string, page int) (movie.Page, error) {
	q := pageQuery(page)
	q.Set("with_genres", withGenres)
	q.Set("sort_by", "popularity.desc")

	var out movie.Page
	if err := c.get(ctx, "discover", "/discover/movie", q, &out); err != nil {
		return movie.Page{}, err
	}
	return out, nil
}

// Genres returns the movie genre catalogue.
func (c *Client) Genres(ctx context.Context) (movie.GenreList, error) {
	var out movie.GenreList
	if err := c.get(ctx, "genres", "/genre/movie/list", nil, &out); err != nil {
		return movie.GenreList{}, err
	}
	return out, nil
}

// Details returns the movie record without cast.
func (c *Client) Details(ctx context.Context, id int64) (movie.Details, error) {
	var out movie.Details
	if err := c.get(ctx, "details", fmt.Sprintf("/movie/%d", id), nil, &out); err != nil {
		return movie.Details{}, err
	}
	return out, nil
}

// Credits returns the full cast of a movie.
func (c *Client) Credits(ctx context.Context, id int64) (movie.Credits, error) {
	var out movie.Credits
	if err := c.get(ctx, "credits", fmt.Sprintf("/movie/%d/credits", id), nil, &out); err != nil {
		return movie.Credits{}, err
	}
	return out, nil
}

// Recommendations returns movies recommended for id.
func (c *Client) Recommendations(ctx context.Context, id int64, page int) (movie.Page, error) {
	var out movie.Page
	if err := c.get(ctx, "recommendations", fmt.Sprintf("/movie/%d/recommendations", id), pageQuery(page), &out); err != nil {
		return movie.Page{}, err
	}
	return out, nil
}

// Trending returns today's trending movies.
func (c *Client) Trending(ctx context.Context) (movie.Page, error) {
	var out movie.Page
	if err := c.get(ctx, "trending", "/trending/movie/day", nil, &out); err != nil {
		return movie.Page{}, err
	}
	return out, nil
}

// HealthCheck verifies API availability via the configuration endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	var out struct {
		Images struct {
			BaseURL string `json:"base_url"`
		} `json:"images"`
	}
	if err := c.get(ctx, "configuration", "/configuration", nil, &out); err != nil {
		return fmt.Errorf("tmdb configuration: %w", err)
	}
	return nil
}
