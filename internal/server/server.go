package server

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/js24626/flexypay/internal/auth"
	"github.com/js24626/flexypay/internal/config"
	"github.com/js24626/flexypay/internal/http/handlers"
	"github.com/js24626/flexypay/internal/middleware"
	"github.com/js24626/flexypay/internal/models"
	"github.com/js24626/flexypay/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, store storage.Store) *Server {
	mux := http.NewServeMux()

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)

	handlers.NewHealthHandler(time.Now()).Register(mux)
	handlers.NewAuthHandler(store, tokens, cfg.SignupEnabled).Register(mux)
	handlers.NewAgentHandler(store).Register(mux, tokens)
	handlers.NewUserHandler(store).Register(mux, tokens)
	handlers.NewInstallmentHandler(store).Register(mux, tokens)
	handlers.NewAmountHandler(store, models.AdminLedger).Register(mux, tokens)
	handlers.NewAmountHandler(store, models.AgentLedger).Register(mux, tokens)

	mux.Handle("GET /metrics", promhttp.Handler())

	handler := middleware.CORS(cfg.CORSOrigins,
		middleware.Logging(
			middleware.Metrics(mux, mux)))

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer}
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
