package user

import (
	"context"
	"database/sql"
	"fmt"
)

const latestVersion = 1

// migrate brings the schema to latestVersion. Each step runs once and is recorded in schema_migrations.
func migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER NOT NULL);`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	var cnt int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(1) FROM schema_migrations`).Scan(&cnt); err != nil {
		return fmt.Errorf("count schema_migrations: %w", err)
	}
	if cnt == 0 {
		if _, err := db.ExecContext(ctx, `INSERT INTO schema_migrations(version) VALUES(0)`); err != nil {
			return fmt.Errorf("init schema_migrations: %w", err)
		}
	}

	var cur int
	if err := db.QueryRowContext(ctx, `SELECT version FROM schema_migrations`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for v := cur + 1; v <= latestVersion; v++ {
		if err := up(ctx, db, v); err != nil {
			return fmt.Errorf("migrate up to v%d: %w", v, err)
		}
		if _, err := db.ExecContext(ctx, `UPDATE schema_migrations SET version=?`, v); err != nil {
			return fmt.Errorf("record schema v%d: %w", v, err)
		}
	}
	return nil
}

func up(ctx context.Context, db *sql.DB, v int) error {
	var stmts []string
	switch v {
	case 1:
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS users (
            id TEXT PRIMARY KEY,
            email TEXT NOT NULL,
            name TEXT NOT NULL DEFAULT '',
            password_hash BLOB NOT NULL,
            created_at TEXT NOT NULL
        );`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(email);`,
		}
	default:
		return fmt.Errorf("unknown schema version %d", v)
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
