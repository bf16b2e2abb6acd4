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

// CreateInstallment inserts a new installment, generating the ID and
// timestamps if unset.
func (s *Store) CreateInstallment(ctx context.Context, inst models.Installment) (models.Installment, error) {
	if inst.ID == "" {
		inst.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if inst.CreatedAt.IsZero() {
		inst.CreatedAt = now
	}
	inst.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO installments (id, title, amount, date, status, owner_id, agent_name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inst.ID, inst.Title, inst.Amount, inst.Date, inst.Status, inst.OwnerID, inst.AgentName,
		inst.CreatedAt.Unix(), inst.UpdatedAt.Unix(),
	)
	if err != nil {
		return models.Installment{}, fmt.Errorf("insert installment: %w", err)
	}
	return inst, nil
}

// GetInstallment fetches an installment by id.
func (s *Store) GetInstallment(ctx context.Context, id string) (models.Installment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, amount, date, status, owner_id, agent_name, created_at, updated_at
		 FROM installments WHERE id = ?`, id)
	return scanInstallment(row)
}

// ListInstallments returns every installment, newest first.
func (s *Store) ListInstallments(ctx context.Context) ([]models.Installment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, amount, date, status, owner_id, agent_name, created_at, updated_at
		 FROM installments ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list installments: %w", err)
	}
	defer rows.Close()
	return collectInstallments(rows)
}

// ListInstallmentsByOwner returns installments owned by ownerID, newest first.
func (s *Store) ListInstallmentsByOwner(ctx context.Context, ownerID string) ([]models.Installment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, amount, date, status, owner_id, agent_name, created_at, updated_at
		 FROM installments WHERE owner_id = ? ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list installments by owner: %w", err)
	}
	defer rows.Close()
	return collectInstallments(rows)
}

// UpdateInstallment overwrites an installment's mutable fields.
func (s *Store) UpdateInstallment(ctx context.Context, inst models.Installment) (models.Installment, error) {
	inst.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE installments
		 SET title = ?, amount = ?, date = ?, status = ?, owner_id = ?, agent_name = ?, updated_at = ?
		 WHERE id = ?`,
		inst.Title, inst.Amount, inst.Date, inst.Status, inst.OwnerID, inst.AgentName,
		inst.UpdatedAt.Unix(), inst.ID,
	)
	if err != nil {
		return models.Installment{}, fmt.Errorf("update installment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Installment{}, fmt.Errorf("update installment: %w", err)
	}
	if affected == 0 {
		return models.Installment{}, storage.ErrNotFound
	}
	return s.GetInstallment(ctx, inst.ID)
}

// DeleteInstallment removes an installment by id.
func (s *Store) DeleteInstallment(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM installments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete installment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete installment: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func collectInstallments(rows *sql.Rows) ([]models.Installment, error) {
	installments := []models.Installment{}
	for rows.Next() {
		inst, err := scanInstallment(rows)
		if err != nil {
			return nil, err
		}
		installments = append(installments, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate installments: %w", err)
	}
	return installments, nil
}

func scanInstallment(row rowScanner) (models.Installment, error) {
	var inst models.Installment
	var createdAt, updatedAt int64
	err := row.Scan(&inst.ID, &inst.Title, &inst.Amount, &inst.Date, &inst.Status,
		&inst.OwnerID, &inst.AgentName, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Installment{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Installment{}, fmt.Errorf("scan installment: %w", err)
	}
	inst.CreatedAt = time.Unix(createdAt, 0).UTC()
	inst.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return inst, nil
}
