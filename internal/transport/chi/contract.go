package chi

import (
	"context"

	"github.com/kailas-cloud/moviemaster/internal/domain/movie"
	domrecent "github.com/kailas-cloud/moviemaster/internal/domain/recent"
	domuser "github.com/kailas-cloud/moviemaster/internal/domain/user"
	authuc "github.com/kailas-cloud/moviemaster/internal/usecase/auth"
	cataloguc "github.com/kailas-cloud/moviemaster/internal/usecase/catalog"
	healthuc "github.com/kailas-cloud/moviemaster/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/moviemaster/internal/usecase/recommend"
)

// Catalog serves the public movie endpoints.
type Catalog interface {
	Search(ctx context.Context, p cataloguc.SearchParams) (movie.Page, error)
	Genres(ctx context.Context) (movie.GenreList, error)
	Discover(ctx context.Context, genreID, page int) (movie.Page, error)
	Details(ctx context.Context, id int64) (movie.Details, error)
	Recommendations(ctx context.Context, id int64, page int) (movie.Page, error)
	Trending(ctx context.Context) (movie.Page, error)
	Suggestions(ctx context.Context, query string) ([]string, error)
}

// RecentSearches is the per-user recent search list.
type RecentSearches interface {
	List(ctx context.Context, owner string) ([]string, error)
	Add(ctx context.Context, owner, term string) (domrecent.Snapshot, error)
	Clear(ctx context.Context, owner string) (domrecent.Snapshot, error)
}

// Feed returns the recommendation feed built from a user's recent searches.
type Feed interface {
	Get(ctx context.Context, owner string) (recommenduc.View, error)
}

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(token string) (domuser.Identity, error)
}

// Accounts handles registration and sign-in.
type Accounts interface {
	TokenVerifier
	Register(ctx context.Context, in authuc.RegisterInput) (domuser.User, error)
	Login(ctx context.Context, in authuc.LoginInput) (authuc.Token, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
