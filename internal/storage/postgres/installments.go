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

const installmentColumns = `id, title, amount, date, status, owner_id, agent_name, created_at, updated_at`

// CreateInstallment inserts a new installment row.
func (s *Store) CreateInstallment(ctx context.Context, inst models.Installment) (models.Installment, error) {
	if inst.ID == "" {
		inst.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if inst.CreatedAt.IsZero() {
		inst.CreatedAt = now
	}
	inst.UpdatedAt = now

	query := `
		INSERT INTO installments (` + installmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + installmentColumns + `;`
	row := s.pool.QueryRow(ctx, query,
		inst.ID, inst.Title, inst.Amount, inst.Date, inst.Status, inst.OwnerID, inst.AgentName,
		inst.CreatedAt, inst.UpdatedAt)
	return scanInstallment(row)
}

// GetInstallment fetches an installment by id.
func (s *Store) GetInstallment(ctx context.Context, id string) (models.Installment, error) {
	query := `SELECT ` + installmentColumns + ` FROM installments WHERE id = $1;`
	return scanInstallment(s.pool.QueryRow(ctx, query, id))
}

// ListInstallments returns every installment, newest first.
func (s *Store) ListInstallments(ctx context.Context) ([]models.Installment, error) {
	query := `SELECT ` + installmentColumns + ` FROM installments ORDER BY created_at DESC;`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list installments: %w", err)
	}
	defer rows.Close()
	return collectInstallments(rows)
}

// ListInstallmentsByOwner returns installments owned by ownerID, newest first.
func (s *Store) ListInstallmentsByOwner(ctx context.Context, ownerID string) ([]models.Installment, error) {
	query := `SELECT ` + installmentColumns + ` FROM installments WHERE owner_id = $1 ORDER BY created_at DESC;`
	rows, err := s.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list installments by owner: %w", err)
	}
	defer rows.Close()
	return collectInstallments(rows)
}

// UpdateInstallment overwrites an installment's mutable fields.
func (s *Store) UpdateInstallment(ctx context.Context, inst models.Installment) (models.Installment, error) {
	inst.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE installments
		SET title = $2, amount = $3, date = $4, status = $5, owner_id = $6, agent_name = $7, updated_at = $8
		WHERE id = $1
		RETURNING ` + installmentColumns + `;`
	row := s.pool.QueryRow(ctx, query,
		inst.ID, inst.Title, inst.Amount, inst.Date, inst.Status, inst.OwnerID, inst.AgentName, inst.UpdatedAt)
	return scanInstallment(row)
}

// DeleteInstallment removes an installment by id.
func (s *Store) DeleteInstallment(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM installments WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete installment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func collectInstallments(rows pgx.Rows) ([]models.Installment, error) {
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

func scanInstallment(row pgx.Row) (models.Installment, error) {
	var inst models.Installment
	err := row.Scan(&inst.ID, &inst.Title, &inst.Amount, &inst.Date, &inst.Status,
		&inst.OwnerID, &inst.AgentName, &inst.CreatedAt, &inst.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Installment{}, storage.ErrNotFound
		}
		return models.Installment{}, err
	}
	return inst, nil
}
