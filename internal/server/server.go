package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"ledgerd/internal/config"
	"ledgerd/internal/handler"
	"ledgerd/internal/middleware"
)

// Handlers bundles everything the router mounts. Idempotency is passed in
// ready-built so the server does not need to know about its storage.
type Handlers struct {
	Accounts     *handler.AccountHandler
	Transactions *handler.TransactionHandler
	Health       *handler.HealthHandler
	Docs         *handler.DocsHandler
	Idempotency  mux.MiddlewareFunc
}

type Server struct {
	router *mux.Router
	server *http.Server
	port   string
	cfg    *config.Config
}

func New(cfg *config.Config, h Handlers) *Server {
	router := mux.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logging)
	router.Use(middleware.Recovery)

	router.HandleFunc("/health/live", h.Health.Liveness).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", h.Health.Readiness).Methods(http.MethodGet)

	if h.Docs != nil {
		router.HandleFunc("/docs", h.Docs.UI).Methods(http.MethodGet)
		router.HandleFunc("/docs/openapi.yaml", h.Docs.Spec).Methods(http.MethodGet)
	}

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/accounts", h.Accounts.Create).Methods(http.MethodPost)
	api.HandleFunc("/accounts/{id}/balance", h.Accounts.GetBalance).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{id}/ledger", h.Accounts.ListLedger).Methods(http.MethodGet)

	transactions := api.PathPrefix("/transactions").Subrouter()
	if h.Idempotency != nil {
		transactions.Use(h.Idempotency)
	}
	transactions.HandleFunc("/deposit", h.Transactions.Deposit).Methods(http.MethodPost)
	transactions.HandleFunc("/withdraw", h.Transactions.Withdraw).Methods(http.MethodPost)
	transactions.HandleFunc("/transfer", h.Transactions.Transfer).Methods(http.MethodPost)
	transactions.HandleFunc("/{id}", h.Transactions.Get).Methods(http.MethodGet)

	return &Server{router: router, cfg: cfg}
}

// Start binds the listener and serves in the background, returning the bound
// port. Configuring port 0 picks a free one, which tests rely on.
func (s *Server) Start() (string, error) {
	listener, err := net.Listen("tcp", ":"+strconv.Itoa(s.cfg.Port))
	if err != nil {
		return "", err
	}

	addr := listener.Addr().(*net.TCPAddr)
	s.port = strconv.Itoa(addr.Port)

	s.server = &http.Server{
		Handler:           s.router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	slog.Info("server started", "port", s.port)
	return s.port, nil
}

// Stop drains in-flight requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) Port() string {
	return s.port
}

// Router exposes the configured routes for in-process tests.
func (s *Server) Router() *mux.Router {
	return s.router
}
