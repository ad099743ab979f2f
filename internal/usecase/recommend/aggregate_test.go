package recommend

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kailas-cloud/moviemaster/internal/domain/movie"
)

// --- Fakes ---

type fakeAPI struct {
	mu        sync.Mutex
	searches  map[string][]int64
	recs      map[int64][]movie.Movie
	searchErr map[string]error
	recErr    map[int64]error
	calls     atomic.Int32
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		searches:  map[string][]int64{},
		recs:      map[int64][]movie.Movie{},
		searchErr: map[string]error{},
		recErr:    map[int64]error{},
	}
}

func (f *fakeAPI) search(_ context.Context, term string) (movie.Page, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.searchErr[term]; err != nil {
		return movie.Page{}, err
	}
	var results []movie.Movie
	for _, id := range f.searches[term] {
		results = append(results, movie.Movie{ID: id})
	}
	return movie.Page{Page: 1, Results: results}, nil
}

func (f *fakeAPI) recommend(_ context.Context, id int64) (movie.Page, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.recErr[id]; err != nil {
		return movie.Page{}, err
	}
	return movie.Page{Page: 1, Results: f.recs[id]}, nil
}

func ids(movies []movie.Movie) []int64 {
	out := make([]int64, len(movies))
	for i, m := range movies {
		out[i] = m.ID
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// --- Tests ---

func TestAggregate_EmptyInputMakesNoCalls(t *testing.T) {
	api := newFakeAPI()
	res, err := Aggregate(context.Background(), nil, api.search, api.recommend, Options{})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(res.Movies) != 0 || res.Partial {
		t.Errorf("expected empty non-partial result, got %+v", res)
	}
	if res.Movies == nil {
		t.Error("expected non-nil empty slice")
	}
	if n := api.calls.Load(); n != 0 {
		t.Errorf("calls = %d, want 0", n)
	}
}

func TestAggregate_DuneMatrix(t *testing.T) {
	api := newFakeAPI()
	api.searches["dune"] = []int64{101, 999}
	api.searches["matrix"] = []int64{202}
	api.recs[101] = []movie.Movie{{ID: 1}, {ID: 2}}
	api.recs[202] = []movie.Movie{{ID: 2}, {ID: 3}}

	res, err := Aggregate(context.Background(), []string{"dune", "matrix"}, api.search, api.recommend, Options{})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if got := ids(res.Movies); !equalIDs(got, []int64{1, 2, 3}) {
		t.Errorf("ids = %v, want [1 2 3]", got)
	}
	if res.Partial {
		t.Error("unexpected partial")
	}
	// 2 searches + 2 recommendation calls; 999 is never used.
	if n := api.calls.Load(); n != 4 {
		t.Errorf("calls = %d, want 4", n)
	}
}

func TestAggregate_FlattensInTermOrder(t *testing.T) {
	api := newFakeAPI()
	api.searches["a"] = []int64{10}
	api.searches["b"] = []int64{20}
	api.recs[10] = []movie.Movie{{ID: 1}}
	api.recs[20] = []movie.Movie{{ID: 2}}

	// Make the first term's recommendations complete last.
	slow := func(ctx context.Context, id int64) (movie.Page, error) {
		if id == 10 {
			time.Sleep(20 * time.Millisecond)
		}
		return api.recommend(ctx, id)
	}

	res, err := Aggregate(context.Background(), []string{"a", "b"}, api.search, slow, Options{})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if got := ids(res.Movies); !equalIDs(got, []int64{1, 2}) {
		t.Errorf("ids = %v, want [1 2]", got)
	}
}

func TestAggregate_TieBreakFirstPositionLastPayload(t *testing.T) {
	api := newFakeAPI()
	api.searches["a"] = []int64{10}
	api.searches["b"] = []int64{20}
	api.recs[10] = []movie.Movie{{ID: 1, Title: "old"}, {ID: 2}}
	api.recs[20] = []movie.Movie{{ID: 3}, {ID: 1, Title: "new"}}

	res, err := Aggregate(context.Background(), []string{"a", "b"}, api.search, api.recommend, Options{})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if got := ids(res.Movies); !equalIDs(got, []int64{1, 2, 3}) {
		t.Fatalf("ids = %v, want [1 2 3]", got)
	}
	if res.Movies[0].Title != "new" {
		t.Errorf("payload = %q, want last occurrence %q", res.Movies[0].Title, "new")
	}
}

func TestAggregate_KeepsLast36(t *testing.T) {
	api := newFakeAPI()
	api.searches["a"] = []int64{10}
	api.searches["b"] = []int64{20}
	for i := int64(1); i <= 20; i++ {
		api.recs[10] = append(api.recs[10], movie.Movie{ID: i})
	}
	for i := int64(21); i <= 40; i++ {
		api.recs[20] = append(api.recs[20], movie.Movie{ID: i})
	}

	res, err := Aggregate(context.Background(), []string{"a", "b"}, api.search, api.recommend, Options{})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(res.Movies) != MaxResults {
		t.Fatalf("len = %d, want %d", len(res.Movies), MaxResults)
	}
	if res.Movies[0].ID != 5 || res.Movies[MaxResults-1].ID != 40 {
		t.Errorf("range = %d..%d, want 5..40", res.Movies[0].ID, res.Movies[MaxResults-1].ID)
	}
	for _, m := range res.Movies {
		if m.ID <= 4 {
			t.Errorf("movie %d should have been dropped", m.ID)
		}
	}
}

func TestAggregate_NoResultsIsSkippedSilently(t *testing.T) {
	api := newFakeAPI()
	api.searches["a"] = []int64{10}
	api.recs[10] = []movie.Movie{{ID: 1}}

	res, err := Aggregate(context.Background(), []string{"zzz", "a"}, api.search, api.recommend, Options{})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if res.Partial {
		t.Error("empty search result must not mark partial")
	}
	if got := ids(res.Movies); !equalIDs(got, []int64{1}) {
		t.Errorf("ids = %v", got)
	}
	// 2 searches + 1 recommendation call.
	if n := api.calls.Load(); n != 3 {
		t.Errorf("calls = %d, want 3", n)
	}
}

func TestAggregate_FailuresArePartial(t *testing.T) {
	api := newFakeAPI()
	api.searches["a"] = []int64{10}
	api.searches["b"] = []int64{20}
	api.searchErr["c"] = errors.New("upstream 500")
	api.recs[10] = []movie.Movie{{ID: 1}}
	api.recErr[20] = errors.New("timeout")

	res, err := Aggregate(context.Background(), []string{"a", "b", "c"}, api.search, api.recommend, Options{})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if !res.Partial {
		t.Error("expected partial")
	}
	if got := ids(res.Movies); !equalIDs(got, []int64{1}) {
		t.Errorf("ids = %v, want [1]", got)
	}
}

func TestAggregate_CallTimeoutIsPartial(t *testing.T) {
	api := newFakeAPI()
	api.searches["a"] = []int64{10}
	api.searches["b"] = []int64{20}
	api.recs[20] = []movie.Movie{{ID: 2}}

	hang := func(ctx context.Context, id int64) (movie.Page, error) {
		if id == 10 {
			<-ctx.Done()
			return movie.Page{}, ctx.Err()
		}
		return api.recommend(ctx, id)
	}

	res, err := Aggregate(context.Background(), []string{"a", "b"}, api.search, hang,
		Options{CallTimeout: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if !res.Partial {
		t.Error("expected partial")
	}
	if got := ids(res.Movies); !equalIDs(got, []int64{2}) {
		t.Errorf("ids = %v, want [2]", got)
	}
}

func TestAggregate_ParentCancelAborts(t *testing.T) {
	api := newFakeAPI()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Aggregate(ctx, []string{"a"}, api.search, api.recommend, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if n := api.calls.Load(); n != 0 {
		t.Errorf("calls = %d, want 0", n)
	}
}

func TestAggregate_RespectsConcurrencyLimit(t *testing.T) {
	var inflight, peak atomic.Int32
	search := func(_ context.Context, _ string) (movie.Page, error) {
		n := inflight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inflight.Add(-1)
		return movie.Page{}, nil
	}
	recommend := func(context.Context, int64) (movie.Page, error) { return movie.Page{}, nil }

	terms := []string{"a", "b", "c", "d", "e"}
	if _, err := Aggregate(context.Background(), terms, search, recommend, Options{MaxConcurrency: 2}); err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if p := peak.Load(); p > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", p)
	}
}
