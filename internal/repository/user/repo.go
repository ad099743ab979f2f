package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/kailas-cloud/moviemaster/internal/domain"
	domuser "github.com/kailas-cloud/moviemaster/internal/domain/user"
)

// Repo stores user accounts in SQLite.
type Repo struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path and migrates it.
// ":memory:" keeps everything in process memory.
func Open(ctx context.Context, path string) (*Repo, error) {
	if path == "" {
		return nil, errors.New("sqlite path required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := migrate(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return &Repo{db: sqlDB}, nil
}

// Close closes the database.
func (r *Repo) Close() error {
	return r.db.Close()
}

// Ping checks the database connection.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping users db: %w", err)
	}
	return nil
}

// Create inserts a new user. Returns domain.ErrAlreadyExists when the email is taken.
func (r *Repo) Create(ctx context.Context, u domuser.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users(id, email, name, password_hash, created_at) VALUES(?, ?, ?, ?, ?)`,
		u.ID(), u.Email(), u.Name(), u.PasswordHash(), u.CreatedAt().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %s: %w", u.Email(), domain.ErrAlreadyExists)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByEmail returns the user registered with email. Returns domain.ErrNotFound if absent.
func (r *Repo) GetByEmail(ctx context.Context, email string) (domuser.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, created_at FROM users WHERE email = ?`,
		domuser.NormalizeEmail(email),
	)

	var (
		id, em, name, created string
		hash                  []byte
	)
	if err := row.Scan(&id, &em, &name, &hash, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domuser.User{}, fmt.Errorf("user %s: %w", email, domain.ErrNotFound)
		}
		return domuser.User{}, fmt.Errorf("select user: %w", err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return domuser.User{}, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	return domuser.Reconstruct(id, em, name, hash, createdAt), nil
}

// isUniqueViolation matches SQLite's constraint error text; the driver exposes no stable code type.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
