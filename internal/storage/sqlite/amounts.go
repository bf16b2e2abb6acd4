package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/js24626/flexypay/internal/models"
	"github.com/js24626/flexypay/internal/storage"
)

// CreateAmount inserts a new ledger entry, generating the ID and timestamps
// if unset. The caller is responsible for deriving the bakaya column.
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

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO `+table+` (id, username, created_by, amount, wasool_amount, bakaya_amount, date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Username, entry.CreatedBy, entry.Amount, entry.WasoolAmount, entry.BakayaAmount, entry.Date,
		entry.CreatedAt.Unix(), entry.UpdatedAt.Unix(),
	)
	if err != nil {
		return models.AmountEntry{}, fmt.Errorf("insert amount: %w", err)
	}
	return entry, nil
}

// GetAmount fetches a ledger entry by id.
func (s *Store) GetAmount(ctx context.Context, ledger models.Ledger, id string) (models.AmountEntry, error) {
	table, err := amountTable(ledger)
	if err != nil {
		return models.AmountEntry{}, err
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, created_by, amount, wasool_amount, bakaya_amount, date, created_at, updated_at
		 FROM `+table+` WHERE id = ?`, id)
	return scanAmount(row)
}

// ListAmounts returns every entry in the ledger, newest first.
func (s *Store) ListAmounts(ctx context.Context, ledger models.Ledger) ([]models.AmountEntry, error) {
	table, err := amountTable(ledger)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, created_by, amount, wasool_amount, bakaya_amount, date, created_at, updated_at
		 FROM `+table+` ORDER BY created_at DESC`)
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
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, created_by, amount, wasool_amount, bakaya_amount, date, created_at, updated_at
		 FROM `+table+` WHERE created_by = ? ORDER BY created_at DESC`, createdBy)
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
	res, err := s.db.ExecContext(ctx,
		`UPDATE `+table+`
		 SET username = ?, created_by = ?, amount = ?, wasool_amount = ?, bakaya_amount = ?, date = ?, updated_at = ?
		 WHERE id = ?`,
		entry.Username, entry.CreatedBy, entry.Amount, entry.WasoolAmount, entry.BakayaAmount, entry.Date,
		entry.UpdatedAt.Unix(), entry.ID,
	)
	if err != nil {
		return models.AmountEntry{}, fmt.Errorf("update amount: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.AmountEntry{}, fmt.Errorf("update amount: %w", err)
	}
	if affected == 0 {
		return models.AmountEntry{}, storage.ErrNotFound
	}
	return s.GetAmount(ctx, ledger, entry.ID)
}

// DeleteAmount removes a ledger entry by id.
func (s *Store) DeleteAmount(ctx context.Context, ledger models.Ledger, id string) error {
	table, err := amountTable(ledger)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete amount: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete amount: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func collectAmounts(rows *sql.Rows) ([]models.AmountEntry, error) {
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

func scanAmount(row rowScanner) (models.AmountEntry, error) {
	var entry models.AmountEntry
	var createdAt, updatedAt int64
	err := row.Scan(&entry.ID, &entry.Username, &entry.CreatedBy, &entry.Amount, &entry.WasoolAmount,
		&entry.BakayaAmount, &entry.Date, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.AmountEntry{}, storage.ErrNotFound
	}
	if err != nil {
		return models.AmountEntry{}, fmt.Errorf("scan amount: %w", err)
	}
	entry.CreatedAt = time.Unix(createdAt, 0).UTC()
	entry.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return entry, nil
}
