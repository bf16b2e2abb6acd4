package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/js24626/flexypay/internal/auth"
	"github.com/js24626/flexypay/internal/http/respond"
	"github.com/js24626/flexypay/internal/ledger"
	"github.com/js24626/flexypay/internal/middleware"
	"github.com/js24626/flexypay/internal/models"
	"github.com/js24626/flexypay/internal/models/dto"
	"github.com/js24626/flexypay/internal/storage"
)

// adminCreator is stamped on every admin-ledger entry.
const adminCreator = "Admin"

// AmountHandler owns one amount ledger's endpoints. The admin and agent
// ledgers share all behavior except who may create entries and what gets
// stamped into createdBy, so the same handler is registered twice.
type AmountHandler struct {
	store  storage.Store
	ledger models.Ledger
}

// NewAmountHandler constructs a handler for the given ledger.
func NewAmountHandler(store storage.Store, l models.Ledger) *AmountHandler {
	return &AmountHandler{store: store, ledger: l}
}

// Register attaches the ledger's routes to the mux. Listing, updates, and
// deletes are admin-only on both ledgers; creation is admin-only on the admin
// ledger and agent-only (self-stamped) on the agent ledger, which also has a
// self-scoped listing.
func (h *AmountHandler) Register(mux *http.ServeMux, tokens *auth.TokenManager) {
	authed := func(fn http.HandlerFunc) http.Handler {
		return middleware.RequireAuth(tokens, fn)
	}
	admin := func(fn http.HandlerFunc) http.Handler {
		return middleware.RequireAuth(tokens, middleware.RequireAdmin(fn))
	}

	prefix := "/admin-amounts"
	if h.ledger == models.AgentLedger {
		prefix = "/agent-amounts"
	}

	mux.Handle("GET "+prefix, admin(h.list))
	mux.Handle("PUT "+prefix+"/{id}", admin(h.update))
	mux.Handle("DELETE "+prefix+"/{id}", admin(h.delete))
	if h.ledger == models.AgentLedger {
		mux.Handle("POST "+prefix, authed(h.createAsAgent))
		mux.Handle("GET "+prefix+"/my-amounts", authed(h.listMine))
	} else {
		mux.Handle("POST "+prefix, admin(h.createAsAdmin))
	}
}

func (h *AmountHandler) list(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.ListAmounts(r.Context(), h.ledger)
	if err != nil {
		slog.Error("list amounts failed", "ledger", h.ledger, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to list amounts")
		return
	}
	respond.JSON(w, http.StatusOK, entries)
}

// listMine returns only the calling agent's own entries.
func (h *AmountHandler) listMine(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Identity(r.Context())
	if claims.Role != models.RoleAgent {
		respond.Error(w, http.StatusForbidden, "Forbidden")
		return
	}
	agent, err := h.store.FindAgentByID(r.Context(), claims.ID)
	if err != nil {
		slog.Error("resolve caller agent failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to resolve agent")
		return
	}

	entries, err := h.store.ListAmountsByCreator(r.Context(), h.ledger, agent.Username)
	if err != nil {
		slog.Error("list own amounts failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to list amounts")
		return
	}
	respond.JSON(w, http.StatusOK, entries)
}

func (h *AmountHandler) createAsAdmin(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	entry, ok := h.buildEntry(w, req)
	if !ok {
		return
	}
	entry.Username = strings.TrimSpace(req.Username)
	entry.CreatedBy = adminCreator

	created, err := h.store.CreateAmount(r.Context(), h.ledger, entry)
	if err != nil {
		slog.Error("create amount failed", "ledger", h.ledger, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to create amount")
		return
	}
	respond.JSON(w, http.StatusCreated, created)
}

func (h *AmountHandler) createAsAgent(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Identity(r.Context())
	if claims.Role != models.RoleAgent {
		respond.Error(w, http.StatusForbidden, "Forbidden")
		return
	}

	var req dto.CreateAmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	entry, ok := h.buildEntry(w, req)
	if !ok {
		return
	}

	// createdBy comes from the authenticated identity, never the client.
	agent, err := h.store.FindAgentByID(r.Context(), claims.ID)
	if err != nil {
		slog.Error("resolve caller agent failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to resolve agent")
		return
	}
	entry.Username = agent.Username
	entry.CreatedBy = agent.Username

	created, err := h.store.CreateAmount(r.Context(), h.ledger, entry)
	if err != nil {
		slog.Error("create amount failed", "ledger", h.ledger, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to create amount")
		return
	}
	respond.JSON(w, http.StatusCreated, created)
}

// buildEntry validates the amount pair and derives bakaya. Any client-sent
// bakaya value is ignored. Reports success via the bool; on failure the error
// response has already been written.
func (h *AmountHandler) buildEntry(w http.ResponseWriter, req dto.CreateAmountRequest) (models.AmountEntry, bool) {
	if req.Amount == nil || req.WasoolAmount == nil {
		respond.Error(w, http.StatusBadRequest, ledger.ErrMissingAmount.Error())
		return models.AmountEntry{}, false
	}
	bakaya, err := ledger.Derive(*req.Amount, *req.WasoolAmount)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return models.AmountEntry{}, false
	}
	return models.AmountEntry{
		Amount:       *req.Amount,
		WasoolAmount: *req.WasoolAmount,
		BakayaAmount: bakaya,
		Date:         req.Date,
	}, true
}

func (h *AmountHandler) update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateAmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	entry, err := h.store.GetAmount(r.Context(), h.ledger, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "Not found")
			return
		}
		slog.Error("get amount failed", "ledger", h.ledger, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to fetch amount")
		return
	}

	if req.Username != nil {
		entry.Username = strings.TrimSpace(*req.Username)
	}
	if req.Amount != nil {
		entry.Amount = *req.Amount
	}
	if req.WasoolAmount != nil {
		entry.WasoolAmount = *req.WasoolAmount
	}
	if req.Date != nil {
		entry.Date = *req.Date
	}

	// Re-derive from the resulting pair; the stored bakaya is never trusted
	// to survive an edit.
	bakaya, err := ledger.Derive(entry.Amount, entry.WasoolAmount)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	entry.BakayaAmount = bakaya

	updated, err := h.store.UpdateAmount(r.Context(), h.ledger, entry)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "Not found")
			return
		}
		slog.Error("update amount failed", "ledger", h.ledger, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to update amount")
		return
	}
	respond.JSON(w, http.StatusOK, updated)
}

func (h *AmountHandler) delete(w http.ResponseWriter, r *http.Request) {
	err := h.store.DeleteAmount(r.Context(), h.ledger, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "Not found")
			return
		}
		slog.Error("delete amount failed", "ledger", h.ledger, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to delete amount")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]bool{"success": true})
}
