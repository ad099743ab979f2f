package respcache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/moviemaster/internal/domain/movie"
)

const (
	// DefaultTTL matches the public API's response cache lifetime.
	DefaultTTL = time.Hour
	// DefaultGenresTTL applies to the genre catalogue, which rarely changes.
	DefaultGenresTTL = 24 * time.Hour
	// DefaultSize bounds the number of cached responses.
	DefaultSize = 2048
	// DefaultFetchTimeout bounds a shared upstream call once it is detached from its callers.
	DefaultFetchTimeout = 30 * time.Second
)

// upstream is the movie API being decorated (ISP).
type upstream interface {
	SearchMovies(ctx context.Context, query string, page int) (movie.Page, error)
	Discover(ctx context.Context, withGenres string, page int) (movie.Page, error)
	Genres(ctx context.Context) (movie.GenreList, error)
	Details(ctx context.Context, id int64) (movie.Details, error)
	Credits(ctx context.Context, id int64) (movie.Credits, error)
	Recommendations(ctx context.Context, id int64, page int) (movie.Page, error)
	Trending(ctx context.Context) (movie.Page, error)
	HealthCheck(ctx context.Context) error
}

// Config sizes the cache. Zero values fall back to the defaults.
type Config struct {
	Size         int
	TTL          time.Duration
	GenresTTL    time.Duration
	FetchTimeout time.Duration
}

// Catalog caches successful upstream responses in memory.
// Errors are never cached. Concurrent misses for one key share a single upstream call.
type Catalog struct {
	inner        upstream
	responses    *expirable.LRU[string, any]
	genres       *expirable.LRU[string, any]
	group        singleflight.Group
	fetchTimeout time.Duration
	cacheTotal   *prometheus.CounterVec
	logger       *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(inner upstream, cfg Config, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Catalog {
	if cfg.Size <= 0 {
		cfg.Size = DefaultSize
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.GenresTTL <= 0 {
		cfg.GenresTTL = DefaultGenresTTL
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	return &Catalog{
		inner:        inner,
		responses:    expirable.NewLRU[string, any](cfg.Size, nil, cfg.TTL),
		genres:       expirable.NewLRU[string, any](1, nil, cfg.GenresTTL),
		fetchTimeout: cfg.FetchTimeout,
		cacheTotal:   cacheTotal,
		logger:       logger,
	}
}

// SearchMovies returns a cached search page.
func (c *Catalog) SearchMovies(ctx context.Context, query string, page int) (movie.Page, error) {
	key := "search:" + strconv.Itoa(page) + ":" + query
	return load(ctx, c, c.responses, key, func(ctx context.Context) (movie.Page, error) {
		return c.inner.SearchMovies(ctx, query, page)
	})
}

// Discover returns a cached discover page.
func (c *Catalog) Discover(ctx context.Context, withGenres string, page int) (movie.Page, error) {
	key := "discover:" + strconv.Itoa(page) + ":" + withGenres
	return load(ctx, c, c.responses, key, func(ctx context.Context) (movie.Page, error) {
		return c.inner.Discover(ctx, withGenres, page)
	})
}

// Genres returns the cached genre catalogue.
func (c *Catalog) Genres(ctx context.Context) (movie.GenreList, error) {
	return load(ctx, c, c.genres, "genres", c.inner.Genres)
}

// Details returns cached movie details.
func (c *Catalog) Details(ctx context.Context, id int64) (movie.Details, error) {
	return load(ctx, c, c.responses, "details:"+strconv.FormatInt(id, 10), func(ctx context.Context) (movie.Details, error) {
		return c.inner.Details(ctx, id)
	})
}

// Credits returns cached movie credits.
func (c *Catalog) Credits(ctx context.Context, id int64) (movie.Credits, error) {
	return load(ctx, c, c.responses, "credits:"+strconv.FormatInt(id, 10), func(ctx context.Context) (movie.Credits, error) {
		return c.inner.Credits(ctx, id)
	})
}

// Recommendations returns a cached recommendations page.
func (c *Catalog) Recommendations(ctx context.Context, id int64, page int) (movie.Page, error) {
	key := "recommendations:" + strconv.FormatInt(id, 10) + ":" + strconv.Itoa(page)
	return load(ctx, c, c.responses, key, func(ctx context.Context) (movie.Page, error) {
		return c.inner.Recommendations(ctx, id, page)
	})
}

// Trending returns the cached trending page.
func (c *Catalog) Trending(ctx context.Context) (movie.Page, error) {
	return load(ctx, c, c.responses, "trending", c.inner.Trending)
}

// HealthCheck is never cached.
func (c *Catalog) HealthCheck(ctx context.Context) error {
	return c.inner.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
}

func load[T any](
	ctx context.Context,
	c *Catalog,
	lru *expirable.LRU[string, any],
	key string,
	fetch func(context.Context) (T, error),
) (T, error) {
	if v, ok := lru.Get(key); ok {
		if t, ok := v.(T); ok {
			c.incCache("hit")
			return t, nil
		}
	}
	c.incCache("miss")

	// The shared call outlives any single caller: one caller giving up must not fail the others.
	ch := c.group.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()

		res, err := fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		lru.Add(key, res)
		return res, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, fmt.Errorf("%s: %w", key, ctx.Err())
	case r := <-ch:
		if r.Err != nil {
			return zero, fmt.Errorf("%s: %w", key, r.Err)
		}
		if r.Shared {
			c.logger.Debug("response cache shared upstream call", zap.String("key", key))
		}
		return r.Val.(T), nil
	}
}

func (c *Catalog) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}
