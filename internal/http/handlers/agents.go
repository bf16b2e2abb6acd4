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

// AgentHandler owns the admin-only agent CRUD endpoints.
type AgentHandler struct {
	store storage.Store
}

// NewAgentHandler constructs the handler.
func NewAgentHandler(store storage.Store) *AgentHandler {
	return &AgentHandler{store: store}
}

// Register attaches agent routes to the mux. Every route is admin-gated.
func (h *AgentHandler) Register(mux *http.ServeMux, tokens *auth.TokenManager) {
	admin := func(fn http.HandlerFunc) http.Handler {
		return middleware.RequireAuth(tokens, middleware.RequireAdmin(fn))
	}
	mux.Handle("GET /agents", admin(h.list))
	mux.Handle("POST /agents", admin(h.create))
	mux.Handle("DELETE /agents/{id}", admin(h.delete))
}

func (h *AgentHandler) list(w http.ResponseWriter, r *http.Request) {
	agents, err := h.store.ListAgents(r.Context())
	if err != nil {
		slog.Error("list agents failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to list agents")
		return
	}
	respond.JSON(w, http.StatusOK, agents)
}

func (h *AgentHandler) create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	if username == "" || email == "" || req.Password == "" {
		respond.Error(w, http.StatusBadRequest, "Username, email and password required")
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	agent, err := h.store.CreateAgent(r.Context(), models.Agent{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			respond.Error(w, http.StatusConflict, "Username or email already exists")
			return
		}
		slog.Error("create agent failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to create agent")
		return
	}

	// The credential is never echoed back, even for one-time display.
	respond.JSON(w, http.StatusCreated, agent)
}

func (h *AgentHandler) delete(w http.ResponseWriter, r *http.Request) {
	err := h.store.DeleteAgent(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "Agent not found")
			return
		}
		slog.Error("delete agent failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to delete agent")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]bool{"success": true})
}
