package recommend

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/moviemaster/internal/domain/movie"
	domrecent "github.com/kailas-cloud/moviemaster/internal/domain/recent"
)

// View is an applied aggregation for one owner.
type View struct {
	Movies  []movie.Movie
	Partial bool
	// Version is the recent-list version the movies were computed from.
	Version uint64
}

// DefaultMaxOwners bounds how many owners' views a Feed keeps.
const DefaultMaxOwners = 10000

// FeedConfig configures a Feed.
type FeedConfig struct {
	Options
	// Prefetch starts a computation as soon as the recent list changes
	// instead of waiting for the next read.
	Prefetch bool
	// MaxOwners bounds the per-owner state kept in memory. Zero means DefaultMaxOwners.
	MaxOwners int
}

// Feed keeps the latest recommendation view per owner.
//
// A computation is keyed by the recent-list version it reads. Requesting a newer
// version cancels the older computation, and a result is applied only while its
// version is still the latest requested one, so a stale list never overwrites a
// newer view.
type Feed struct {
	source   Source
	catalog  Catalog
	cfg      FeedConfig
	logger   *zap.Logger
	recorder Recorder

	base   context.Context
	cancel context.CancelFunc

	// mu guards owners and every feedState. Evictions run inside owners.Add, under mu.
	mu     sync.Mutex
	owners *lru.Cache[string, *feedState]
}

type feedState struct {
	latest   uint64
	applied  *View
	inflight *computation
	evicted  bool
}

type computation struct {
	owner   string
	version uint64
	terms   []string
	cancel  context.CancelFunc
	done    chan struct{}
	// Closed when a newer version replaces this computation.
	stale   chan struct{}

	// Set before done is closed.
	view       View
	err        error
	applied    bool
	superseded bool
}

// NewFeed creates a Feed. recorder may be nil.
func NewFeed(source Source, catalog Catalog, cfg FeedConfig, logger *zap.Logger, recorder Recorder) *Feed {
	if cfg.MaxOwners <= 0 {
		cfg.MaxOwners = DefaultMaxOwners
	}
	base, cancel := context.WithCancel(context.Background())
	f := &Feed{
		source:   source,
		catalog:  catalog,
		cfg:      cfg,
		logger:   logger,
		recorder: recorder,
		base:     base,
		cancel:   cancel,
	}
	f.owners, _ = lru.NewWithEvict(cfg.MaxOwners, f.evictLocked) // fails only for a non-positive size
	return f
}

// Close cancels every running computation.
func (f *Feed) Close() {
	f.cancel()
}

// OnChange reacts to a committed recent-list mutation.
// Its signature matches the recent service's Observer.
func (f *Feed) OnChange(snap domrecent.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()

	st := f.state(snap.Owner)
	if snap.Version <= st.latest {
		return
	}
	if f.cfg.Prefetch {
		f.startLocked(st, snap)
		return
	}
	st.latest = snap.Version
	if st.inflight != nil {
		st.inflight.supersede()
		st.inflight = nil
	}
}

// Get returns the view for the owner's current recent list, computing it if needed.
// If the list changes while waiting, Get follows the newer version.
func (f *Feed) Get(ctx context.Context, owner string) (View, error) {
	for {
		if err := ctx.Err(); err != nil {
			return View{}, err
		}
		snap, err := f.source.Snapshot(ctx, owner)
		if err != nil {
			return View{}, fmt.Errorf("recommendations: %w", err)
		}

		view, c := f.acquire(snap)
		if view != nil {
			return *view, nil
		}
		if c == nil {
			continue
		}

		select {
		case <-ctx.Done():
			return View{}, ctx.Err()
		case <-c.stale:
			continue
		case <-c.done:
		}

		switch {
		case c.applied:
			return copyView(c.view), nil
		case c.superseded:
			continue
		default:
			return View{}, fmt.Errorf("recommendations: %w", c.err)
		}
	}
}

// acquire returns either an applied view that is at least as new as snap,
// or the computation to wait for. Both nil means snap is stale and nothing
// newer is running; the caller should re-read the snapshot.
func (f *Feed) acquire(snap domrecent.Snapshot) (*View, *computation) {
	f.mu.Lock()
	defer f.mu.Unlock()

	st := f.state(snap.Owner)
	if st.applied != nil && st.applied.Version >= snap.Version {
		v := copyView(*st.applied)
		return &v, nil
	}
	switch {
	case snap.Version > st.latest, snap.Version == st.latest && st.inflight == nil:
		return nil, f.startLocked(st, snap)
	case st.inflight != nil:
		return nil, st.inflight
	default:
		return nil, nil
	}
}

func (f *Feed) startLocked(st *feedState, snap domrecent.Snapshot) *computation {
	if st.inflight != nil {
		st.inflight.supersede()
		st.inflight = nil
	}
	st.latest = snap.Version
	if snap.List.IsEmpty() {
		return applyEmptyLocked(st, snap)
	}

	ctx, cancel := context.WithCancel(f.base)
	c := &computation{
		owner:   snap.Owner,
		version: snap.Version,
		terms:   snap.List.Terms(),
		cancel:  cancel,
		done:    make(chan struct{}),
		stale:   make(chan struct{}),
	}
	st.inflight = c
	go f.run(ctx, st, c)
	return c
}

// applyEmptyLocked applies an empty view without aggregating and returns an
// already finished computation for it.
func applyEmptyLocked(st *feedState, snap domrecent.Snapshot) *computation {
	v := View{Movies: []movie.Movie{}, Version: snap.Version}
	st.applied = &v
	c := &computation{
		owner:   snap.Owner,
		version: snap.Version,
		cancel:  func() {},
		done:    make(chan struct{}),
		stale:   make(chan struct{}),
		view:    v,
		applied: true,
	}
	close(c.done)
	return c
}

func (f *Feed) run(ctx context.Context, st *feedState, c *computation) {
	defer c.cancel()
	start := time.Now()

	res, err := Aggregate(ctx, c.terms, f.search, f.recommend, f.cfg.Options)

	f.mu.Lock()
	switch {
	case st.evicted, st.latest != c.version:
		c.superseded = true
	case err != nil:
		c.err = err
	default:
		c.view = View{Movies: res.Movies, Partial: res.Partial, Version: c.version}
		c.applied = true
		v := c.view
		st.applied = &v
	}
	if st.inflight == c {
		st.inflight = nil
	}
	f.mu.Unlock()
	close(c.done)

	switch {
	case c.superseded:
		f.logger.Debug("recommendations superseded",
			zap.String("owner", c.owner), zap.Uint64("version", c.version))
		if f.recorder != nil {
			f.recorder.AggregationSuperseded()
		}
	case c.err != nil:
		f.logger.Warn("recommendations failed",
			zap.String("owner", c.owner), zap.Uint64("version", c.version), zap.Error(c.err))
	default:
		if res.Partial {
			f.logger.Warn("recommendations partial",
				zap.String("owner", c.owner), zap.Uint64("version", c.version), zap.Int("movies", len(res.Movies)))
		}
		if f.recorder != nil {
			f.recorder.AggregationCompleted(time.Since(start), res.Partial)
		}
	}
}

// supersede must be called at most once, with Feed.mu held.
func (c *computation) supersede() {
	c.cancel()
	close(c.stale)
}

func (f *Feed) search(ctx context.Context, term string) (movie.Page, error) {
	return f.catalog.SearchMovies(ctx, term, 1)
}

func (f *Feed) recommend(ctx context.Context, id int64) (movie.Page, error) {
	return f.catalog.Recommendations(ctx, id, 1)
}

func (f *Feed) state(owner string) *feedState {
	st, ok := f.owners.Get(owner)
	if !ok {
		st = &feedState{}
		f.owners.Add(owner, st)
	}
	return st
}

// evictLocked drops an owner's state. A running computation is superseded so
// its waiters move on to a fresh state.
func (f *Feed) evictLocked(_ string, st *feedState) {
	st.evicted = true
	if st.inflight != nil {
		st.inflight.supersede()
		st.inflight = nil
	}
}

func copyView(v View) View {
	v.Movies = append([]movie.Movie(nil), v.Movies...)
	if v.Movies == nil {
		v.Movies = []movie.Movie{}
	}
	return v
}
