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

// CreateAgent inserts a new agent row. The case-insensitive unique indexes on
// username and email turn duplicates into ErrAlreadyExists.
func (s *Store) CreateAgent(ctx context.Context, agent models.Agent) (models.Agent, error) {
	if agent.ID == "" {
		agent.ID = uuid.New().String()
	}
	if agent.CreatedAt.IsZero() {
		agent.CreatedAt = time.Now().UTC()
	}

	const query = `
		INSERT INTO agents (id, username, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, username, email, password_hash, created_at;
	`
	row := s.pool.QueryRow(ctx, query, agent.ID, agent.Username, agent.Email, agent.PasswordHash, agent.CreatedAt)
	created, err := scanAgent(row)
	if err != nil {
		if uniqueViolation(err) {
			return models.Agent{}, storage.ErrAlreadyExists
		}
		return models.Agent{}, err
	}
	return created, nil
}

// FindAgentByUsername fetches an agent by username, case-insensitively.
func (s *Store) FindAgentByUsername(ctx context.Context, username string) (models.Agent, error) {
	const query = `
		SELECT id, username, email, password_hash, created_at
		FROM agents WHERE LOWER(username) = LOWER($1);
	`
	return scanAgent(s.pool.QueryRow(ctx, query, username))
}

// FindAgentByID fetches an agent by id.
func (s *Store) FindAgentByID(ctx context.Context, id string) (models.Agent, error) {
	const query = `
		SELECT id, username, email, password_hash, created_at
		FROM agents WHERE id = $1;
	`
	return scanAgent(s.pool.QueryRow(ctx, query, id))
}

// ListAgents returns every agent, newest first.
func (s *Store) ListAgents(ctx context.Context) ([]models.Agent, error) {
	const query = `
		SELECT id, username, email, password_hash, created_at
		FROM agents ORDER BY created_at DESC;
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	agents := []models.Agent{}
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, agent)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate agents: %w", err)
	}
	return agents, nil
}

// DeleteAgent removes an agent by id.
func (s *Store) DeleteAgent(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM agents WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete agent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanAgent(row pgx.Row) (models.Agent, error) {
	var agent models.Agent
	err := row.Scan(&agent.ID, &agent.Username, &agent.Email, &agent.PasswordHash, &agent.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Agent{}, storage.ErrNotFound
		}
		return models.Agent{}, err
	}
	return agent, nil
}
