package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/js24626/flexypay/internal/models"
	"github.com/js24626/flexypay/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "flexypay-test-*")
	if err != nil {
		t.Fatalf("create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestUserStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.CreateUser(ctx, models.User{
		Email:        "admin@flexypay.local",
		FullName:     "Admin",
		Role:         models.RoleAdmin,
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if created.ID == "" {
		t.Error("expected generated user ID")
	}
	if created.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	t.Run("find by email is case-insensitive", func(t *testing.T) {
		found, err := store.FindUserByEmail(ctx, "ADMIN@FLEXYPAY.LOCAL")
		if err != nil {
			t.Fatalf("FindUserByEmail failed: %v", err)
		}
		if found.ID != created.ID {
			t.Errorf("found user %s, want %s", found.ID, created.ID)
		}
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		_, err := store.CreateUser(ctx, models.User{
			Email:        "Admin@Flexypay.Local",
			FullName:     "Someone Else",
			Role:         models.RoleUser,
			PasswordHash: "hash2",
		})
		if !errors.Is(err, storage.ErrAlreadyExists) {
			t.Errorf("error = %v, want ErrAlreadyExists", err)
		}
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		if _, err := store.FindUserByID(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestAgentStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	agent, err := store.CreateAgent(ctx, models.Agent{
		Username:     "Ali",
		Email:        "ali@example.com",
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("CreateAgent failed: %v", err)
	}

	t.Run("username lookup is case-insensitive", func(t *testing.T) {
		found, err := store.FindAgentByUsername(ctx, "ali")
		if err != nil {
			t.Fatalf("FindAgentByUsername failed: %v", err)
		}
		if found.ID != agent.ID {
			t.Errorf("found agent %s, want %s", found.ID, agent.ID)
		}
	})

	t.Run("duplicate username differing in case is a conflict", func(t *testing.T) {
		_, err := store.CreateAgent(ctx, models.Agent{
			Username:     "ALI",
			Email:        "other@example.com",
			PasswordHash: "hash",
		})
		if !errors.Is(err, storage.ErrAlreadyExists) {
			t.Errorf("error = %v, want ErrAlreadyExists", err)
		}
	})

	t.Run("delete removes the agent", func(t *testing.T) {
		if err := store.DeleteAgent(ctx, agent.ID); err != nil {
			t.Fatalf("DeleteAgent failed: %v", err)
		}
		if _, err := store.FindAgentByID(ctx, agent.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound after delete", err)
		}
	})

	t.Run("delete of nonexistent id is not found", func(t *testing.T) {
		if err := store.DeleteAgent(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestInstallmentStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.CreateInstallment(ctx, models.Installment{
		Title:   "Jan",
		Amount:  1000,
		Date:    "2024-01-05",
		Status:  models.StatusPending,
		OwnerID: "agent-1",
	})
	if err != nil {
		t.Fatalf("CreateInstallment failed: %v", err)
	}
	if _, err := store.CreateInstallment(ctx, models.Installment{
		Title:   "Feb",
		Amount:  500,
		Status:  models.StatusPending,
		OwnerID: "agent-2",
	}); err != nil {
		t.Fatalf("CreateInstallment failed: %v", err)
	}

	t.Run("owner filter returns only owned rows", func(t *testing.T) {
		mine, err := store.ListInstallmentsByOwner(ctx, "agent-1")
		if err != nil {
			t.Fatalf("ListInstallmentsByOwner failed: %v", err)
		}
		if len(mine) != 1 || mine[0].ID != first.ID {
			t.Errorf("owner filter = %+v, want only %s", mine, first.ID)
		}
	})

	t.Run("full list returns all rows", func(t *testing.T) {
		all, err := store.ListInstallments(ctx)
		if err != nil {
			t.Fatalf("ListInstallments failed: %v", err)
		}
		if len(all) != 2 {
			t.Errorf("len(all) = %d, want 2", len(all))
		}
	})

	t.Run("update persists status transition", func(t *testing.T) {
		first.Status = models.StatusApproved
		updated, err := store.UpdateInstallment(ctx, first)
		if err != nil {
			t.Fatalf("UpdateInstallment failed: %v", err)
		}
		if updated.Status != models.StatusApproved {
			t.Errorf("status = %s, want approved", updated.Status)
		}
	})

	t.Run("delete of nonexistent id is not found", func(t *testing.T) {
		if err := store.DeleteInstallment(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestAmountStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entry, err := store.CreateAmount(ctx, models.AgentLedger, models.AmountEntry{
		Username:     "ali",
		CreatedBy:    "ali",
		Amount:       500,
		WasoolAmount: 200,
		BakayaAmount: 300,
		Date:         "2024-01-01",
	})
	if err != nil {
		t.Fatalf("CreateAmount failed: %v", err)
	}

	t.Run("round trip by id", func(t *testing.T) {
		got, err := store.GetAmount(ctx, models.AgentLedger, entry.ID)
		if err != nil {
			t.Fatalf("GetAmount failed: %v", err)
		}
		if got.Amount != 500 || got.WasoolAmount != 200 || got.BakayaAmount != 300 || got.Date != "2024-01-01" {
			t.Errorf("round trip mismatch: %+v", got)
		}
		if got.CreatedBy != "ali" {
			t.Errorf("createdBy = %q, want %q", got.CreatedBy, "ali")
		}
	})

	t.Run("ledgers are separate collections", func(t *testing.T) {
		if _, err := store.GetAmount(ctx, models.AdminLedger, entry.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound in the other ledger", err)
		}
	})

	t.Run("creator filter", func(t *testing.T) {
		if _, err := store.CreateAmount(ctx, models.AgentLedger, models.AmountEntry{
			Username: "sara", CreatedBy: "sara", Amount: 100, WasoolAmount: 100,
		}); err != nil {
			t.Fatalf("CreateAmount failed: %v", err)
		}
		mine, err := store.ListAmountsByCreator(ctx, models.AgentLedger, "ali")
		if err != nil {
			t.Fatalf("ListAmountsByCreator failed: %v", err)
		}
		if len(mine) != 1 || mine[0].ID != entry.ID {
			t.Errorf("creator filter = %+v, want only %s", mine, entry.ID)
		}
	})

	t.Run("update overwrites fields", func(t *testing.T) {
		entry.WasoolAmount = 350
		entry.BakayaAmount = 150
		updated, err := store.UpdateAmount(ctx, models.AgentLedger, entry)
		if err != nil {
			t.Fatalf("UpdateAmount failed: %v", err)
		}
		if updated.WasoolAmount != 350 || updated.BakayaAmount != 150 {
			t.Errorf("update mismatch: %+v", updated)
		}
	})

	t.Run("delete of nonexistent id is not found", func(t *testing.T) {
		if err := store.DeleteAmount(ctx, models.AdminLedger, "missing"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}
