package respcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/moviemaster/internal/domain"
	"github.com/kailas-cloud/moviemaster/internal/domain/movie"
)

type mockUpstream struct {
	calls  atomic.Int32
	err    error
	delay  time.Duration
	health int

	// started is signalled when a page call begins; release unblocks it.
	started chan struct{}
	release chan struct{}
}

func (m *mockUpstream) page(ctx context.Context, id int64) (movie.Page, error) {
	m.calls.Add(1)
	if m.started != nil {
		m.started <- struct{}{}
	}
	if m.release != nil {
		select {
		case <-m.release:
		case <-ctx.Done():
			return movie.Page{}, ctx.Err()
		}
	}
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if m.err != nil {
		return movie.Page{}, m.err
	}
	return movie.Page{Page: 1, Results: []movie.Movie{{ID: id}}}, nil
}

func (m *mockUpstream) SearchMovies(ctx context.Context, _ string, page int) (movie.Page, error) {
	return m.page(ctx, int64(page))
}

func (m *mockUpstream) Discover(ctx context.Context, _ string, page int) (movie.Page, error) {
	return m.page(ctx, int64(100+page))
}

func (m *mockUpstream) Genres(context.Context) (movie.GenreList, error) {
	m.calls.Add(1)
	return movie.GenreList{Genres: []movie.Genre{{ID: 28, Name: "Action"}}}, m.err
}

func (m *mockUpstream) Details(_ context.Context, id int64) (movie.Details, error) {
	m.calls.Add(1)
	return movie.Details{ID: id}, m.err
}

func (m *mockUpstream) Credits(context.Context, int64) (movie.Credits, error) {
	m.calls.Add(1)
	return movie.Credits{}, m.err
}

func (m *mockUpstream) Recommendations(ctx context.Context, id int64, _ int) (movie.Page, error) {
	return m.page(ctx, id)
}

func (m *mockUpstream) Trending(ctx context.Context) (movie.Page, error) {
	return m.page(ctx, 7)
}

func (m *mockUpstream) HealthCheck(context.Context) error {
	m.health++
	return nil
}

func newTestCatalog(inner *mockUpstream, cfg Config) (*Catalog, *prometheus.CounterVec) {
	cv := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_cache_total"}, []string{"result"})
	return New(inner, cfg, cv, zap.NewNop()), cv
}

func TestCatalog_HitAfterMiss(t *testing.T) {
	inner := &mockUpstream{}
	c, cv := newTestCatalog(inner, Config{})
	ctx := context.Background()

	for range 3 {
		p, err := c.SearchMovies(ctx, "dune", 1)
		if err != nil {
			t.Fatalf("SearchMovies: %v", err)
		}
		if p.Results[0].ID != 1 {
			t.Fatalf("unexpected page: %+v", p)
		}
	}
	if inner.calls.Load() != 1 {
		t.Errorf("upstream calls = %d, want 1", inner.calls.Load())
	}
	if got := testutil.ToFloat64(cv.WithLabelValues("hit")); got != 2 {
		t.Errorf("hits = %f, want 2", got)
	}
	if got := testutil.ToFloat64(cv.WithLabelValues("miss")); got != 1 {
		t.Errorf("misses = %f, want 1", got)
	}
}

func TestCatalog_KeysIncludeArguments(t *testing.T) {
	inner := &mockUpstream{}
	c, _ := newTestCatalog(inner, Config{})
	ctx := context.Background()

	_, _ = c.SearchMovies(ctx, "dune", 1)
	_, _ = c.SearchMovies(ctx, "dune", 2)
	_, _ = c.SearchMovies(ctx, "matrix", 1)
	_, _ = c.Recommendations(ctx, 101, 1)
	_, _ = c.Recommendations(ctx, 202, 1)

	if inner.calls.Load() != 5 {
		t.Errorf("upstream calls = %d, want 5", inner.calls.Load())
	}
}

func TestCatalog_ErrorsAreNotCached(t *testing.T) {
	inner := &mockUpstream{err: domain.ErrUpstream}
	c, _ := newTestCatalog(inner, Config{})
	ctx := context.Background()

	if _, err := c.Trending(ctx); !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	inner.err = nil
	if _, err := c.Trending(ctx); err != nil {
		t.Fatalf("Trending: %v", err)
	}
	if inner.calls.Load() != 2 {
		t.Errorf("upstream calls = %d, want 2", inner.calls.Load())
	}
}

func TestCatalog_EntriesExpire(t *testing.T) {
	inner := &mockUpstream{}
	c, _ := newTestCatalog(inner, Config{TTL: 20 * time.Millisecond})
	ctx := context.Background()

	_, _ = c.Details(ctx, 603)
	time.Sleep(60 * time.Millisecond)
	_, _ = c.Details(ctx, 603)

	if inner.calls.Load() != 2 {
		t.Errorf("upstream calls = %d, want 2", inner.calls.Load())
	}
}

func TestCatalog_GenresUseOwnTTL(t *testing.T) {
	inner := &mockUpstream{}
	c, _ := newTestCatalog(inner, Config{TTL: 10 * time.Millisecond, GenresTTL: time.Hour})
	ctx := context.Background()

	_, _ = c.Genres(ctx)
	time.Sleep(30 * time.Millisecond)
	g, err := c.Genres(ctx)
	if err != nil {
		t.Fatalf("Genres: %v", err)
	}
	if len(g.Genres) != 1 || inner.calls.Load() != 1 {
		t.Errorf("genres=%v calls=%d", g.Genres, inner.calls.Load())
	}
}

func TestCatalog_ConcurrentMissesShareCall(t *testing.T) {
	inner := &mockUpstream{delay: 30 * time.Millisecond}
	c, _ := newTestCatalog(inner, Config{})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Recommendations(context.Background(), 101, 1)
		}()
	}
	wg.Wait()

	if n := inner.calls.Load(); n != 1 {
		t.Errorf("upstream calls = %d, want 1", n)
	}
}

func TestCatalog_HealthCheckNotCached(t *testing.T) {
	inner := &mockUpstream{}
	c, _ := newTestCatalog(inner, Config{})

	_ = c.HealthCheck(context.Background())
	_ = c.HealthCheck(context.Background())
	if inner.health != 2 {
		t.Errorf("health calls = %d, want 2", inner.health)
	}
}

func TestCatalog_CancelledCallerDoesNotFailJoinedCaller(t *testing.T) {
	inner := &mockUpstream{started: make(chan struct{}, 1), release: make(chan struct{})}
	c, _ := newTestCatalog(inner, Config{})

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := c.SearchMovies(ctxA, "dune", 1)
		errA <- err
	}()
	<-inner.started

	type result struct {
		page movie.Page
		err  error
	}
	resB := make(chan result, 1)
	go func() {
		p, err := c.SearchMovies(context.Background(), "dune", 1)
		resB <- result{p, err}
	}()

	// Give B time to join the in-flight call before A goes away.
	time.Sleep(20 * time.Millisecond)
	cancelA()

	select {
	case err := <-errA:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("cancelled caller: expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(inner.release)
	select {
	case r := <-resB:
		if r.err != nil {
			t.Fatalf("joined caller failed: %v", r.err)
		}
		if len(r.page.Results) != 1 || r.page.Results[0].ID != 1 {
			t.Errorf("unexpected page: %+v", r.page)
		}
	case <-time.After(time.Second):
		t.Fatal("joined caller did not return")
	}
	if n := inner.calls.Load(); n != 1 {
		t.Errorf("upstream calls = %d, want 1", n)
	}

	// The detached fetch still filled the cache.
	if _, err := c.SearchMovies(context.Background(), "dune", 1); err != nil {
		t.Fatalf("SearchMovies after fill: %v", err)
	}
	if n := inner.calls.Load(); n != 1 {
		t.Errorf("upstream calls after fill = %d, want 1", n)
	}
}

func TestCatalog_SharedFetchIsBounded(t *testing.T) {
	inner := &mockUpstream{release: make(chan struct{})}
	c, _ := newTestCatalog(inner, Config{FetchTimeout: 20 * time.Millisecond})

	_, err := c.Trending(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
}
