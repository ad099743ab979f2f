package recommend

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/moviemaster/internal/domain/movie"
)

// MaxResults caps the aggregated list.
const MaxResults = 36

const defaultConcurrency = 8

// Options tunes an aggregation run.
type Options struct {
	// MaxConcurrency bounds in-flight upstream calls per step. Zero means 8.
	MaxConcurrency int
	// CallTimeout bounds every single upstream call. Zero means no per-call timeout.
	CallTimeout time.Duration
}

// Result is the output of one aggregation.
type Result struct {
	Movies []movie.Movie
	// Partial is set when at least one upstream call failed and its share is missing.
	Partial bool
}

// Aggregate turns recent search terms into a deduplicated recommendation list.
//
// Every term is searched and the first hit becomes its representative movie.
// Recommendations for all representatives are flattened in term order and
// deduplicated by id: a movie keeps the position of its first appearance and the
// payload of its last. The last MaxResults movies are returned.
//
// Failed calls contribute nothing and mark the result partial. Only cancellation
// of ctx aborts the run.
func Aggregate(ctx context.Context, terms []string, search SearchFunc, recommend RecommendFunc, opts Options) (Result, error) {
	if len(terms) == 0 {
		return Result{Movies: []movie.Movie{}}, nil
	}

	// Step 1: representative per term.
	reps := make([]int64, len(terms))
	hasRep := make([]bool, len(terms))
	failed := make([]bool, len(terms))

	g := newGroup(opts)
	for i, term := range terms {
		g.Go(func() error {
			page, err := call(ctx, opts, func(cctx context.Context) (movie.Page, error) {
				return search(cctx, term)
			})
			if err != nil {
				failed[i] = true
				return nil
			}
			if first, ok := page.First(); ok {
				reps[i], hasRep[i] = first.ID, true
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	// Step 2: recommendations per representative, indexed like terms.
	pages := make([][]movie.Movie, len(terms))
	g = newGroup(opts)
	for i := range terms {
		if !hasRep[i] {
			continue
		}
		g.Go(func() error {
			page, err := call(ctx, opts, func(cctx context.Context) (movie.Page, error) {
				return recommend(cctx, reps[i])
			})
			if err != nil {
				failed[i] = true
				return nil
			}
			pages[i] = page.Results
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	partial := false
	for _, f := range failed {
		partial = partial || f
	}
	return Result{Movies: merge(pages, MaxResults), Partial: partial}, nil
}

// merge flattens pages in order, dedups by id and keeps the last limit entries.
func merge(pages [][]movie.Movie, limit int) []movie.Movie {
	var out []movie.Movie
	pos := make(map[int64]int)
	for _, page := range pages {
		for _, m := range page {
			if i, ok := pos[m.ID]; ok {
				out[i] = m
				continue
			}
			pos[m.ID] = len(out)
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return append(make([]movie.Movie, 0, len(out)), out...)
}

func newGroup(opts Options) *errgroup.Group {
	g := new(errgroup.Group)
	n := opts.MaxConcurrency
	if n <= 0 {
		n = defaultConcurrency
	}
	g.SetLimit(n)
	return g
}

func call(ctx context.Context, opts Options, fn func(context.Context) (movie.Page, error)) (movie.Page, error) {
	if err := ctx.Err(); err != nil {
		return movie.Page{}, err
	}
	if opts.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.CallTimeout)
		defer cancel()
	}
	return fn(ctx)
}
