package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"github.com/js24626/flexypay/internal/auth"
	"github.com/js24626/flexypay/internal/http/respond"
	"github.com/js24626/flexypay/internal/models"
	"github.com/js24626/flexypay/internal/models/dto"
	"github.com/js24626/flexypay/internal/storage"
)

// AuthHandler owns the login, agent-login, and signup endpoints.
type AuthHandler struct {
	store         storage.Store
	tokens        *auth.TokenManager
	signupEnabled bool
}

// NewAuthHandler constructs the handler. Signup is only routed when enabled;
// otherwise the path falls through to 404 like any unknown route.
func NewAuthHandler(store storage.Store, tokens *auth.TokenManager, signupEnabled bool) *AuthHandler {
	return &AuthHandler{store: store, tokens: tokens, signupEnabled: signupEnabled}
}

// Register attaches auth routes to the mux.
func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/login", h.handleLogin)
	mux.HandleFunc("POST /auth/agent-login", h.handleAgentLogin)
	if h.signupEnabled {
		mux.HandleFunc("POST /auth/signup", h.handleSignup)
	}
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		respond.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.store.FindUserByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		slog.Error("login: fetch user failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		respond.Error(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.tokens.Generate(user.ID, user.Role, user.Email)
	if err != nil {
		slog.Error("login: token generation failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	respond.JSON(w, http.StatusOK, dto.LoginResponse{
		Token: token,
		User: dto.AuthUser{
			ID:       user.ID,
			Email:    user.Email,
			Role:     user.Role,
			FullName: user.FullName,
		},
	})
}

func (h *AuthHandler) handleAgentLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.AgentLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		respond.Error(w, http.StatusBadRequest, "username and password are required")
		return
	}

	agent, err := h.store.FindAgentByUsername(r.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		slog.Error("agent-login: fetch agent failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to fetch agent")
		return
	}
	if err := auth.CheckPassword(agent.PasswordHash, req.Password); err != nil {
		respond.Error(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.tokens.Generate(agent.ID, models.RoleAgent, agent.Email)
	if err != nil {
		slog.Error("agent-login: token generation failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	respond.JSON(w, http.StatusOK, dto.LoginResponse{
		Token: token,
		User: dto.AuthUser{
			ID:       agent.ID,
			Email:    agent.Email,
			Role:     models.RoleAgent,
			Username: agent.Username,
		},
	})
}

func (h *AuthHandler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req dto.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	email := strings.TrimSpace(req.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		respond.Error(w, http.StatusBadRequest, "a valid email is required")
		return
	}
	if len(req.Password) < 6 {
		respond.Error(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user, err := h.store.CreateUser(r.Context(), models.User{
		Email:        email,
		FullName:     strings.TrimSpace(req.FullName),
		Role:         models.RoleUser,
		PasswordHash: passwordHash,
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			respond.Error(w, http.StatusConflict, "User already exists")
			return
		}
		slog.Error("signup: create user failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	token, err := h.tokens.Generate(user.ID, user.Role, user.Email)
	if err != nil {
		slog.Error("signup: token generation failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	respond.JSON(w, http.StatusOK, dto.LoginResponse{
		Token: token,
		User: dto.AuthUser{
			ID:       user.ID,
			Email:    user.Email,
			Role:     user.Role,
			FullName: user.FullName,
		},
	})
}
