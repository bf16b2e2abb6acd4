package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/js24626/flexypay/internal/models"
	"github.com/js24626/flexypay/internal/storage"
)

const amountColumns = `id, username, created_by, amount, wasool_amount, bakaya_amount, date, created_at, updated_at`

// CreateAmount inserts a new ledger entry. The caller derives the bakaya
// column before calling.
func (s *Store) CreateAmount(ctx context.Context, ledger models.Ledger, entry models.AmountEntry) (models.AmountEntry, error) {
	table, err := amountTable(ledger)
	if err != nil {
		return models.AmountEntry{}, err
	}
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	query := `
		INSERT INTO ` + table + ` (` + amountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + amountColumns + `;`
	row := s.pool.QueryRow(ctx, query,
		entry.ID, entry.Username, entry.CreatedBy, entry.Amount, entry.WasoolAmount, entry.BakayaAmount, entry.Date,
		entry.CreatedAt, entry.UpdatedAt)
	return scanAmount(row)
}

// GetAmount fetches a ledger entry by id.
func (s *Store) GetAmount(ctx context.Context, ledger models.Ledger, id string) (models.AmountEntry, error) {
	table, err := amountTable(ledger)
	if err != nil {
		return models.AmountEntry{}, err
	}
	query := `SELECT ` + amountColumns + ` FROM ` + table + ` WHERE id = $1;`
	return scanAmount(s.pool.QueryRow(ctx, query, id))
}

// ListAmounts returns every entry in the ledger, newest first.
func (s *Store) ListAmounts(ctx context.Context, ledger models.Ledger) ([]models.AmountEntry, error) {
	table, err := amountTable(ledger)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + amountColumns + ` FROM ` + table + ` ORDER BY created_at DESC;`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list amounts: %w", err)
	}
	defer rows.Close()
	return collectAmounts(rows)
}

// ListAmountsByCreator returns entries stamped with createdBy, newest first.
func (s *Store) ListAmountsByCreator(ctx context.Context, ledger models.Ledger, createdBy string) ([]models.AmountEntry, error) {
	table, err := amountTable(ledger)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + amountColumns + ` FROM ` + table + ` WHERE created_by = $1 ORDER BY created_at DESC;`
	rows, err := s.pool.Query(ctx, query, createdBy)
	if err != nil {
		return nil, fmt.Errorf("list amounts by creator: %w", err)
	}
	defer rows.Close()
	return collectAmounts(rows)
}

// UpdateAmount overwrites a ledger entry's mutable fields.
func (s *Store) UpdateAmount(ctx context.Context, ledger models.Ledger, entry models.AmountEntry) (models.AmountEntry, error) {
	table, err := amountTable(ledger)
	if err != nil {
		return models.AmountEntry{}, err
	}
	entry.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE ` + table + `
		SET username = $2, created_by = $3, amount = $4, wasool_amount = $5, bakaya_amount = $6, date = $7, updated_at = $8
		WHERE id = $1
		RETURNING ` + amountColumns + `;`
	row := s.pool.QueryRow(ctx, query,
		entry.ID, entry.Username, entry.CreatedBy, entry.Amount, entry.WasoolAmount, entry.BakayaAmount, entry.Date, entry.UpdatedAt)
	return scanAmount(row)
}

// DeleteAmount removes a ledger entry by id.
func (s *Store) DeleteAmount(ctx context.Context, ledger models.Ledger, id string) error {
	table, err := amountTable(ledger)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete amount: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func collectAmounts(rows pgx.Rows) ([]models.AmountEntry, error) {
	entries := []models.AmountEntry{}
	for rows.Next() {
		entry, err := scanAmount(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate amounts: %w", err)
	}
	return entries, nil
}

func scanAmount(row pgx.Row) (models.AmountEntry, error) {
	var entry models.AmountEntry
	err := row.Scan(&entry.ID, &entry.Username, &entry.CreatedBy, &entry.Amount, &entry.WasoolAmount,
		&entry.BakayaAmount, &entry.Date, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.AmountEntry{}, storage.ErrNotFound
		}
		return models.AmountEntry{}, err
	}
	return entry, nil
}
