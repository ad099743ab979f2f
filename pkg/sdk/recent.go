package moviemaster

import (
	"context"
	"fmt"
	"time"
)

// RecentService manages the recent search list of one owner.
type RecentService struct {
	owner string
	svc   recentUseCase
	obs   *observer
}

// List returns the owner's recent searches, newest first.
func (s *RecentService) List(ctx context.Context) (terms []string, err error) {
	start := time.Now()
	defer func() { s.obs.observe("recent.list", start, err) }()

	terms, err = s.svc.List(ctx, s.owner)
	if err != nil {
		return nil, fmt.Errorf("list recent searches: %w", err)
	}
	return terms, nil
}

// Add records term as the most recent search and returns the updated list.
// A term already in the list moves to the front.
func (s *RecentService) Add(ctx context.Context, term string) (terms []string, err error) {
	start := time.Now()
	defer func() { s.obs.observe("recent.add", start, err) }()

	snap, err := s.svc.Add(ctx, s.owner, term)
	if err != nil {
		return nil, fmt.Errorf("add recent search: %w", err)
	}
	return snap.List.Terms(), nil
}

// Clear removes every recent search of the owner.
func (s *RecentService) Clear(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("recent.clear", start, err) }()

	if _, err = s.svc.Clear(ctx, s.owner); err != nil {
		return fmt.Errorf("clear recent searches: %w", err)
	}
	return nil
}
