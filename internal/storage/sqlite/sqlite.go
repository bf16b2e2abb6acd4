// Package sqlite provides a SQLite-backed implementation of storage.Store,
// used as the zero-setup development backend.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/js24626/flexypay/internal/models"
	"github.com/js24626/flexypay/internal/storage"
)

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// Store implements storage.Store using a local SQLite file.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath, creating parent directories
// and running migrations.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// amountTable maps a ledger to its table name. Only the two known ledgers
// exist; anything else is a programming error.
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
