package recent

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/kailas-cloud/moviemaster/internal/db"
	"github.com/kailas-cloud/moviemaster/internal/domain"
	domrecent "github.com/kailas-cloud/moviemaster/internal/domain/recent"
)

// stateVersion is written into every envelope; bump it when the payload shape changes.
const stateVersion = 0

// store is the consumer interface for recent-search persistence (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// envelope mirrors the persisted-state layout of the browser client:
// {"state":{"recentSearches":[...]},"version":0}.
type envelope struct {
	State struct {
		RecentSearches []string `json:"recentSearches"`
	} `json:"state"`
	Version int `json:"version"`
}

// Repo stores one recent-search list per owner under prefix+owner.
type Repo struct {
	store  store
	prefix string
	logger *zap.Logger
}

// New creates a recent-search repository. An empty prefix falls back to domain.KeyPrefix.
func New(s store, prefix string, logger *zap.Logger) *Repo {
	if prefix == "" {
		prefix = domain.KeyPrefix
	}
	return &Repo{store: s, prefix: prefix, logger: logger}
}

// Load returns the persisted list for owner.
// A missing key yields an empty list. A payload that does not decode as a list of strings
// is discarded with a warning and also yields an empty list. Store failures are returned
// as errors so a transient outage is never mistaken for "no history".
func (r *Repo) Load(ctx context.Context, owner string) (domrecent.List, error) {
	key := r.key(owner)
	data, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domrecent.Empty(), nil
		}
		return domrecent.List{}, fmt.Errorf("load recent searches %s: %w", key, err)
	}

	terms, err := decode(data)
	if err != nil {
		r.logger.Warn("Discarding malformed recent searches",
			zap.String("key", key),
			zap.Int("bytes", len(data)),
			zap.Error(err),
		)
		return domrecent.Empty(), nil
	}
	return domrecent.Reconstruct(terms), nil
}

// Save writes the whole list for owner.
func (r *Repo) Save(ctx context.Context, owner string, list domrecent.List) error {
	var env envelope
	env.State.RecentSearches = list.Terms()
	env.Version = stateVersion

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal recent searches: %w", err)
	}
	key := r.key(owner)
	if err := r.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("save recent searches %s: %w", key, err)
	}
	return nil
}

func (r *Repo) key(owner string) string {
	return r.prefix + "recent:" + owner
}

// decode accepts the envelope and, for hand-written data, a bare JSON array of strings.
func decode(data []byte) ([]string, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err == nil {
		if env.State.RecentSearches == nil {
			return nil, errors.New("missing state.recentSearches")
		}
		return env.State.RecentSearches, nil
	}

	var terms []string
	if err := json.Unmarshal(data, &terms); err != nil {
		return nil, fmt.Errorf("decode recent searches: %w", err)
	}
	return terms, nil
}
