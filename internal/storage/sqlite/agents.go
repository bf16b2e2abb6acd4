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

// CreateAgent inserts a new agent. Username and email uniqueness is checked
// case-insensitively before the write.
func (s *Store) CreateAgent(ctx context.Context, agent models.Agent) (models.Agent, error) {
	if agent.ID == "" {
		agent.ID = uuid.New().String()
	}
	if agent.CreatedAt.IsZero() {
		agent.CreatedAt = time.Now().UTC()
	}

	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM agents WHERE LOWER(username) = LOWER(?) OR LOWER(email) = LOWER(?)`,
		agent.Username, agent.Email,
	).Scan(&exists)
	if err != nil {
		return models.Agent{}, fmt.Errorf("check agent uniqueness: %w", err)
	}
	if exists > 0 {
		return models.Agent{}, storage.ErrAlreadyExists
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO agents (id, username, email, password_hash, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		agent.ID, agent.Username, agent.Email, agent.PasswordHash, agent.CreatedAt.Unix(),
	)
	if err != nil {
		return models.Agent{}, fmt.Errorf("insert agent: %w", err)
	}
	return agent, nil
}

// FindAgentByUsername fetches an agent by username, case-insensitively.
func (s *Store) FindAgentByUsername(ctx context.Context, username string) (models.Agent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, created_at
		 FROM agents WHERE LOWER(username) = LOWER(?)`, username)
	return scanAgent(row)
}

// FindAgentByID fetches an agent by id.
func (s *Store) FindAgentByID(ctx context.Context, id string) (models.Agent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, created_at
		 FROM agents WHERE id = ?`, id)
	return scanAgent(row)
}

// ListAgents returns every agent, newest first.
func (s *Store) ListAgents(ctx context.Context) ([]models.Agent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, email, password_hash, created_at
		 FROM agents ORDER BY created_at DESC`)
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

// DeleteAgent removes an agent by id. Deleting a nonexistent id is an error.
func (s *Store) DeleteAgent(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM agents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete agent: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete agent: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanAgent(row rowScanner) (models.Agent, error) {
	var agent models.Agent
	var createdAt int64
	err := row.Scan(&agent.ID, &agent.Username, &agent.Email, &agent.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Agent{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Agent{}, fmt.Errorf("scan agent: %w", err)
	}
	agent.CreatedAt = time.Unix(createdAt, 0).UTC()
	return agent, nil
}
