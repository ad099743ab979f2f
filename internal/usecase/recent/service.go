package recent

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kailas-cloud/moviemaster/internal/domain"
	domrecent "github.com/kailas-cloud/moviemaster/internal/domain/recent"
)

// DefaultMaxOwners bounds how many owners' lists stay loaded in memory.
const DefaultMaxOwners = 10000

// lockStripes is the number of mutexes owners are hashed onto.
const lockStripes = 64

// Service owns the per-owner recent-search lists.
// Lists are loaded lazily into a bounded LRU, mutated under the owner's lock
// stripe and committed in memory only after the repository write succeeds.
// An evicted owner is reloaded from the repository on next use.
type Service struct {
	repo   Repository
	locks  [lockStripes]sync.Mutex
	owners *lru.Cache[string, ownerState]

	// seq hands out versions. It is shared by all owners so that an owner
	// reloaded after eviction never sees its version go backwards.
	seq atomic.Uint64

	obsMu     sync.RWMutex
	observers []Observer
}

type ownerState struct {
	list    domrecent.List
	version uint64
}

type options struct {
	maxOwners int
}

// Option configures a Service.
type Option func(*options)

// WithMaxOwners bounds the number of owners kept in memory.
func WithMaxOwners(n int) Option {
	return func(o *options) { o.maxOwners = n }
}

// New creates a recent-search service.
func New(repo Repository, opts ...Option) *Service {
	o := options{maxOwners: DefaultMaxOwners}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxOwners <= 0 {
		o.maxOwners = DefaultMaxOwners
	}
	owners, _ := lru.New[string, ownerState](o.maxOwners) // fails only for a non-positive size
	return &Service{repo: repo, owners: owners}
}

// Subscribe registers an observer for committed mutations.
func (s *Service) Subscribe(o Observer) {
	s.obsMu.Lock()
	s.observers = append(s.observers, o)
	s.obsMu.Unlock()
}

// Snapshot returns the owner's current list and version.
func (s *Service) Snapshot(ctx context.Context, owner string) (domrecent.Snapshot, error) {
	mu := s.lock(owner)
	mu.Lock()
	defer mu.Unlock()

	st, err := s.load(ctx, owner)
	if err != nil {
		return domrecent.Snapshot{}, err
	}
	return domrecent.Snapshot{Owner: owner, Version: st.version, List: st.list}, nil
}

// List returns a copy of the owner's terms, most recent first.
func (s *Service) List(ctx context.Context, owner string) ([]string, error) {
	snap, err := s.Snapshot(ctx, owner)
	if err != nil {
		return nil, err
	}
	return snap.List.Terms(), nil
}

// Add records a search term for owner. Empty or blank terms are rejected.
func (s *Service) Add(ctx context.Context, owner, term string) (domrecent.Snapshot, error) {
	norm, err := domrecent.NormalizeTerm(term)
	if err != nil {
		return domrecent.Snapshot{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	return s.mutate(ctx, owner, func(l domrecent.List) domrecent.List {
		return l.InsertOrPromote(norm)
	})
}

// Clear empties the owner's list.
func (s *Service) Clear(ctx context.Context, owner string) (domrecent.Snapshot, error) {
	return s.mutate(ctx, owner, domrecent.List.Clear)
}

func (s *Service) mutate(ctx context.Context, owner string, fn func(domrecent.List) domrecent.List) (domrecent.Snapshot, error) {
	mu := s.lock(owner)
	mu.Lock()
	defer mu.Unlock()

	st, err := s.load(ctx, owner)
	if err != nil {
		return domrecent.Snapshot{}, err
	}

	next := fn(st.list)
	if err := s.repo.Save(ctx, owner, next); err != nil {
		return domrecent.Snapshot{}, fmt.Errorf("save recent searches: %w", err)
	}
	st = ownerState{list: next, version: s.seq.Add(1)}
	s.owners.Add(owner, st)

	snap := domrecent.Snapshot{Owner: owner, Version: st.version, List: next}
	s.notify(snap)
	return snap, nil
}

// load must be called with the owner's lock held.
func (s *Service) load(ctx context.Context, owner string) (ownerState, error) {
	if st, ok := s.owners.Get(owner); ok {
		return st, nil
	}
	list, err := s.repo.Load(ctx, owner)
	if err != nil {
		return ownerState{}, fmt.Errorf("load recent searches: %w", err)
	}
	// The current sequence value is at least any version this owner held before eviction.
	st := ownerState{list: list, version: s.seq.Load()}
	s.owners.Add(owner, st)
	return st, nil
}

func (s *Service) lock(owner string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(owner))
	return &s.locks[h.Sum32()%lockStripes]
}

func (s *Service) notify(snap domrecent.Snapshot) {
	s.obsMu.RLock()
	defer s.obsMu.RUnlock()
	for _, o := range s.observers {
		o(snap)
	}
}
