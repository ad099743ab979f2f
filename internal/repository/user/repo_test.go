package user

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/kailas-cloud/moviemaster/internal/domain"
	domuser "github.com/kailas-cloud/moviemaster/internal/domain/user"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	r, err := Open(context.Background(), filepath.Join(t.TempDir(), "users.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func mustUser(t *testing.T, id, email string) domuser.User {
	t.Helper()
	u, err := domuser.New(id, email, "Neo", []byte("$2a$hash"), time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("domuser.New: %v", err)
	}
	return u
}

func TestCreateAndGet(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	if err := r.Create(ctx, mustUser(t, "u1", "neo@example.com")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := r.GetByEmail(ctx, " NEO@example.com ")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.ID() != "u1" || got.Name() != "Neo" || string(got.PasswordHash()) != "$2a$hash" {
		t.Errorf("unexpected user: id=%s name=%s hash=%s", got.ID(), got.Name(), got.PasswordHash())
	}
	if !got.CreatedAt().Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("CreatedAt = %v", got.CreatedAt())
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	if err := r.Create(ctx, mustUser(t, "u1", "neo@example.com")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := r.Create(ctx, mustUser(t, "u2", "neo@example.com"))
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestGetByEmail_NotFound(t *testing.T) {
	r := newTestRepo(t)
	_, err := r.GetByEmail(context.Background(), "nobody@example.com")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOpen_MigrationIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.db")
	ctx := context.Background()

	r, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = r.Create(ctx, mustUser(t, "u1", "neo@example.com"))
	_ = r.Close()

	r2, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = r2.Close() }()

	if _, err := r2.GetByEmail(ctx, "neo@example.com"); err != nil {
		t.Fatalf("GetByEmail after reopen: %v", err)
	}
	if err := r2.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestOpen_RequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), ""); err == nil {
		t.Fatal("expected error")
	}
}
