package moviemaster

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/moviemaster/internal/db"
	"github.com/kailas-cloud/moviemaster/internal/db/driver"
	domrecent "github.com/kailas-cloud/moviemaster/internal/domain/recent"
	"github.com/kailas-cloud/moviemaster/internal/metrics"
	recentrepo "github.com/kailas-cloud/moviemaster/internal/repository/recent"
	"github.com/kailas-cloud/moviemaster/internal/repository/respcache"
	"github.com/kailas-cloud/moviemaster/internal/transport/tmdb"
	healthuc "github.com/kailas-cloud/moviemaster/internal/usecase/health"
	recentuc "github.com/kailas-cloud/moviemaster/internal/usecase/recent"
	recommenduc "github.com/kailas-cloud/moviemaster/internal/usecase/recommend"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultUpstreamTimeout  = 10 * time.Second
)

// Internal interfaces, substituted in tests.
type recentUseCase interface {
	List(ctx context.Context, owner string) ([]string, error)
	Add(ctx context.Context, owner, term string) (domrecent.Snapshot, error)
	Clear(ctx context.Context, owner string) (domrecent.Snapshot, error)
}

type feedUseCase interface {
	Get(ctx context.Context, owner string) (recommenduc.View, error)
}

// Client is the moviemaster SDK entry point.
type Client struct {
	store     db.Store
	recentSvc recentUseCase
	feed      feedUseCase
	healthSvc healthUseCase
	closers   []func()
	obs       *observer
}

// New creates a Client and connects to the storage backend.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.driver == "" {
		return nil, errors.New("moviemaster: storage required (use WithValkey, WithRedis, WithBadger or WithBolt)")
	}
	if (cfg.driver == db.DriverRedis || cfg.driver == db.DriverValkey) && (len(cfg.addrs) == 0 || cfg.addrs[0] == "") {
		return nil, fmt.Errorf("moviemaster: %s address required", cfg.driver)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := driver.Open(driver.Config{
		Driver:   cfg.driver,
		Addrs:    cfg.addrs,
		Password: cfg.password,
		Path:     cfg.path,
	})
	if err != nil {
		return nil, fmt.Errorf("moviemaster: %w", err)
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("moviemaster: database not ready: %w", err)
	}

	return wireClient(store, cfg, obs), nil
}

func wireClient(store db.Store, cfg *clientConfig, obs *observer) *Client {
	// Internal packages log through zap; SDK callers get slog via the observer.
	nop := zap.NewNop()

	recentSvc := recentuc.New(recentrepo.New(store, cfg.keyPrefix, nop))
	c := &Client{
		store:     store,
		recentSvc: recentSvc,
		obs:       obs,
	}

	// Pass a nil interface (not a typed nil pointer) when TMDB is not configured.
	var upstream healthuc.UpstreamChecker
	if cfg.tmdbAPIKey != "" {
		client := tmdb.NewClient(&tmdb.Config{
			APIKey:       cfg.tmdbAPIKey,
			BaseURL:      cfg.tmdbBaseURL,
			Timeout:      defaultUpstreamTimeout,
			RetryMax:     2,
			RetryBackoff: 200 * time.Millisecond,
			Logger:       nop,
		})
		cached := respcache.New(client, respcache.Config{}, metrics.ResponseCacheTotal, nop)
		feed := recommenduc.NewFeed(recentSvc, cached, recommenduc.FeedConfig{
			Options: recommenduc.Options{
				MaxConcurrency: cfg.maxConcurrency,
				CallTimeout:    cfg.callTimeout,
			},
		}, nop, obs)
		recentSvc.Subscribe(feed.OnChange)

		c.feed = feed
		c.closers = append(c.closers, feed.Close)
		upstream = cached
	}

	c.healthSvc = healthuc.New(store, nil, upstream)
	return c
}

// Close releases all resources.
func (c *Client) Close() {
	for _, fn := range c.closers {
		fn()
	}
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks storage connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Recent returns the recent search list of owner.
func (c *Client) Recent(owner string) *RecentService {
	return &RecentService{owner: owner, svc: c.recentSvc, obs: c.obs}
}

// Recommendations returns the feed for owner's current recent searches.
// Concurrent calls share one computation; a computation started for an older
// list is never returned.
func (c *Client) Recommendations(ctx context.Context, owner string) (recs Recommendations, err error) {
	start := time.Now()
	defer func() { c.obs.observe("recommendations", start, err) }()

	if c.feed == nil {
		return Recommendations{}, ErrNotConfigured
	}
	view, err := c.feed.Get(ctx, owner)
	if err != nil {
		return Recommendations{}, fmt.Errorf("recommendations: %w", err)
	}

	movies := make([]Movie, len(view.Movies))
	for i, m := range view.Movies {
		movies[i] = movieFromDomain(m)
	}
	return Recommendations{Movies: movies, Partial: view.Partial, Version: view.Version}, nil
}
