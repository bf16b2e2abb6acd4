package handlers

import (
	"log/slog"
	"net/http"

	"github.com/js24626/flexypay/internal/auth"
	"github.com/js24626/flexypay/internal/http/respond"
	"github.com/js24626/flexypay/internal/middleware"
	"github.com/js24626/flexypay/internal/storage"
)

// UserHandler owns the admin-only user listing.
type UserHandler struct {
	store storage.Store
}

// NewUserHandler constructs the handler.
func NewUserHandler(store storage.Store) *UserHandler {
	return &UserHandler{store: store}
}

// Register attaches user routes to the mux.
func (h *UserHandler) Register(mux *http.ServeMux, tokens *auth.TokenManager) {
	mux.Handle("GET /users", middleware.RequireAuth(tokens, middleware.RequireAdmin(http.HandlerFunc(h.list))))
}

func (h *UserHandler) list(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		slog.Error("list users failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	respond.JSON(w, http.StatusOK, users)
}
