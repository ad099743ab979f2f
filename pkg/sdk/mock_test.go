package moviemaster

import (
	"context"

	domrecent "github.com/kailas-cloud/moviemaster/internal/domain/recent"
	healthuc "github.com/kailas-cloud/moviemaster/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/moviemaster/internal/usecase/recommend"
)

// --- recentUseCase mock ---

type mockRecentUC struct {
	listFn  func(ctx context.Context, owner string) ([]string, error)
	addFn   func(ctx context.Context, owner, term string) (domrecent.Snapshot, error)
	clearFn func(ctx context.Context, owner string) (domrecent.Snapshot, error)
}

func (m *mockRecentUC) List(ctx context.Context, owner string) ([]string, error) {
	return m.listFn(ctx, owner)
}

func (m *mockRecentUC) Add(ctx context.Context, owner, term string) (domrecent.Snapshot, error) {
	return m.addFn(ctx, owner, term)
}

func (m *mockRecentUC) Clear(ctx context.Context, owner string) (domrecent.Snapshot, error) {
	return m.clearFn(ctx, owner)
}

// --- feedUseCase mock ---

type mockFeedUC struct {
	getFn func(ctx context.Context, owner string) (recommenduc.View, error)
}

func (m *mockFeedUC) Get(ctx context.Context, owner string) (recommenduc.View, error) {
	return m.getFn(ctx, owner)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report { return m.report }
