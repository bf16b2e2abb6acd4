package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/js24626/flexypay/internal/auth"
	"github.com/js24626/flexypay/internal/http/respond"
	"github.com/js24626/flexypay/internal/middleware"
	"github.com/js24626/flexypay/internal/models"
	"github.com/js24626/flexypay/internal/models/dto"
	"github.com/js24626/flexypay/internal/storage"
)

// InstallmentHandler owns the installment CRUD endpoints. Reads are
// role-filtered inside the handler; mutations are admin-gated at the route.
type InstallmentHandler struct {
	store storage.Store
}

// NewInstallmentHandler constructs the handler.
func NewInstallmentHandler(store storage.Store) *InstallmentHandler {
	return &InstallmentHandler{store: store}
}

// Register attaches installment routes to the mux.
func (h *InstallmentHandler) Register(mux *http.ServeMux, tokens *auth.TokenManager) {
	authed := func(fn http.HandlerFunc) http.Handler {
		return middleware.RequireAuth(tokens, fn)
	}
	admin := func(fn http.HandlerFunc) http.Handler {
		return middleware.RequireAuth(tokens, middleware.RequireAdmin(fn))
	}
	mux.Handle("GET /installments", authed(h.list))
	mux.Handle("GET /installments/{id}", authed(h.get))
	mux.Handle("POST /installments", authed(h.create))
	mux.Handle("PUT /installments/{id}", admin(h.update))
	mux.Handle("DELETE /installments/{id}", admin(h.delete))
}

func (h *InstallmentHandler) list(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Identity(r.Context())

	var (
		installments []models.Installment
		err          error
	)
	if claims.Role == models.RoleAdmin {
		installments, err = h.store.ListInstallments(r.Context())
	} else {
		installments, err = h.store.ListInstallmentsByOwner(r.Context(), claims.ID)
	}
	if err != nil {
		slog.Error("list installments failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to list installments")
		return
	}
	respond.JSON(w, http.StatusOK, installments)
}

func (h *InstallmentHandler) get(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Identity(r.Context())

	inst, err := h.store.GetInstallment(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "Not found")
			return
		}
		slog.Error("get installment failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to fetch installment")
		return
	}
	if claims.Role != models.RoleAdmin && inst.OwnerID != claims.ID {
		respond.Error(w, http.StatusForbidden, "Forbidden")
		return
	}
	respond.JSON(w, http.StatusOK, inst)
}

func (h *InstallmentHandler) create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Identity(r.Context())

	var req dto.CreateInstallmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.Amount < 0 {
		respond.Error(w, http.StatusBadRequest, "amount must be non-negative")
		return
	}

	inst := models.Installment{
		Title:  strings.TrimSpace(req.Title),
		Amount: req.Amount,
		Date:   req.Date,
		Status: models.StatusPending,
	}
	if inst.Title == "" {
		inst.Title = "Untitled"
	}

	switch claims.Role {
	case models.RoleAdmin:
		// Admin assigns to an agent by name; the agent must exist.
		agent, err := h.store.FindAgentByUsername(r.Context(), strings.TrimSpace(req.AgentName))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				respond.Error(w, http.StatusBadRequest, "Agent not found")
				return
			}
			slog.Error("resolve agent failed", "error", err)
			respond.Error(w, http.StatusInternalServerError, "failed to resolve agent")
			return
		}
		inst.OwnerID = agent.ID
		inst.AgentName = agent.Username
	case models.RoleAgent:
		// Owner comes from the verified token, never from the body.
		agent, err := h.store.FindAgentByID(r.Context(), claims.ID)
		if err != nil {
			slog.Error("resolve caller agent failed", "error", err)
			respond.Error(w, http.StatusInternalServerError, "failed to resolve agent")
			return
		}
		inst.OwnerID = agent.ID
		inst.AgentName = agent.Username
	default:
		inst.OwnerID = claims.ID
	}

	created, err := h.store.CreateInstallment(r.Context(), inst)
	if err != nil {
		slog.Error("create installment failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to create installment")
		return
	}
	respond.JSON(w, http.StatusCreated, created)
}

func (h *InstallmentHandler) update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateInstallmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	inst, err := h.store.GetInstallment(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "Not found")
			return
		}
		slog.Error("get installment failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to fetch installment")
		return
	}

	if req.Title != nil {
		inst.Title = strings.TrimSpace(*req.Title)
	}
	if req.Amount != nil {
		if *req.Amount < 0 {
			respond.Error(w, http.StatusBadRequest, "amount must be non-negative")
			return
		}
		inst.Amount = *req.Amount
	}
	if req.Date != nil {
		inst.Date = *req.Date
	}
	if req.Status != nil {
		if !models.ValidStatus(*req.Status) {
			respond.Error(w, http.StatusBadRequest, "invalid status")
			return
		}
		// Approval is one-way; approved records never return to pending.
		if inst.Status == models.StatusApproved && *req.Status == models.StatusPending {
			respond.Error(w, http.StatusBadRequest, "approved installments cannot move back to pending")
			return
		}
		inst.Status = *req.Status
	}
	if req.AgentName != nil {
		agent, err := h.store.FindAgentByUsername(r.Context(), strings.TrimSpace(*req.AgentName))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				respond.Error(w, http.StatusBadRequest, "Agent not found")
				return
			}
			slog.Error("resolve agent failed", "error", err)
			respond.Error(w, http.StatusInternalServerError, "failed to resolve agent")
			return
		}
		inst.OwnerID = agent.ID
		inst.AgentName = agent.Username
	}

	updated, err := h.store.UpdateInstallment(r.Context(), inst)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "Not found")
			return
		}
		slog.Error("update installment failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to update installment")
		return
	}
	respond.JSON(w, http.StatusOK, updated)
}

func (h *InstallmentHandler) delete(w http.ResponseWriter, r *http.Request) {
	err := h.store.DeleteInstallment(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "Not found")
			return
		}
		slog.Error("delete installment failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to delete installment")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]bool{"success": true})
}
