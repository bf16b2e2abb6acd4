// Package storage defines the persistence contract shared by the Postgres
// and SQLite backends. Handlers depend only on the Store interface.
package storage

import (
	"context"
	"errors"

	"github.com/js24626/flexypay/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// Store captures persistence operations needed by handlers. Each collection
// is exclusively owned by the store; relationships are denormalized string
// ids resolved by lookup, not by joins the callers see.
type Store interface {
	// Users
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	FindUserByID(ctx context.Context, id string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)

	// Agents. Username and email lookups are case-insensitive.
	CreateAgent(ctx context.Context, agent models.Agent) (models.Agent, error)
	FindAgentByUsername(ctx context.Context, username string) (models.Agent, error)
	FindAgentByID(ctx context.Context, id string) (models.Agent, error)
	ListAgents(ctx context.Context) ([]models.Agent, error)
	DeleteAgent(ctx context.Context, id string) error

	// Installments
	CreateInstallment(ctx context.Context, inst models.Installment) (models.Installment, error)
	GetInstallment(ctx context.Context, id string) (models.Installment, error)
	ListInstallments(ctx context.Context) ([]models.Installment, error)
	ListInstallmentsByOwner(ctx context.Context, ownerID string) ([]models.Installment, error)
	UpdateInstallment(ctx context.Context, inst models.Installment) (models.Installment, error)
	DeleteInstallment(ctx context.Context, id string) error

	// Amount ledgers. The ledger argument selects the admin or agent collection.
	CreateAmount(ctx context.Context, ledger models.Ledger, entry models.AmountEntry) (models.AmountEntry, error)
	GetAmount(ctx context.Context, ledger models.Ledger, id string) (models.AmountEntry, error)
	ListAmounts(ctx context.Context, ledger models.Ledger) ([]models.AmountEntry, error)
	ListAmountsByCreator(ctx context.Context, ledger models.Ledger, createdBy string) ([]models.AmountEntry, error)
	UpdateAmount(ctx context.Context, ledger models.Ledger, entry models.AmountEntry) (models.AmountEntry, error)
	DeleteAmount(ctx context.Context, ledger models.Ledger, id string) error

	// Close releases any resources held by the store.
	Close() error
}
