// Package postgres provides the production Postgres-backed storage.Store
// implementation on top of a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/js24626/flexypay/internal/models"
	"github.com/js24626/flexypay/internal/storage"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

// Store provides Postgres-backed persistence for all collections.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a new Store and runs migrations.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL,
			full_name TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'user',
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS users_email_unique_idx ON users (LOWER(email));`,
		`CREATE TABLE IF NOT EXISTS agents (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			email TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS agents_username_unique_idx ON agents (LOWER(username));`,
		`CREATE UNIQUE INDEX IF NOT EXISTS agents_email_unique_idx ON agents (LOWER(email));`,
		`CREATE TABLE IF NOT EXISTS installments (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			amount DOUBLE PRECISION NOT NULL,
			date TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending',
			owner_id TEXT NOT NULL,
			agent_name TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE INDEX IF NOT EXISTS installments_owner_idx ON installments (owner_id);`,
		`CREATE TABLE IF NOT EXISTS admin_amounts (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL DEFAULT '',
			created_by TEXT NOT NULL,
			amount DOUBLE PRECISION NOT NULL,
			wasool_amount DOUBLE PRECISION NOT NULL,
			bakaya_amount DOUBLE PRECISION NOT NULL,
			date TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS agent_amounts (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL DEFAULT '',
			created_by TEXT NOT NULL,
			amount DOUBLE PRECISION NOT NULL,
			wasool_amount DOUBLE PRECISION NOT NULL,
			bakaya_amount DOUBLE PRECISION NOT NULL,
			date TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE INDEX IF NOT EXISTS admin_amounts_created_by_idx ON admin_amounts (created_by);`,
		`CREATE INDEX IF NOT EXISTS agent_amounts_created_by_idx ON agent_amounts (created_by);`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

// amountTable maps a ledger to its table name.
func amountTable(ledger models.Ledger) (string, error) {
	switch ledger {
	case models.AdminLedger:
		return "admin_amounts", nil
	case models.AgentLedger:
		return "agent_amounts", nil
	default:
		return "", fmt.Errorf("unknown ledger %q", ledger)
	}
}

// uniqueViolation reports whether err is a Postgres unique-constraint error.
func uniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
