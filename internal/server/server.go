package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/IlyaFonichev/BlogArticlesAPI/internal/store"
)

const (
	ServiceName = "Blog Articles API"
	Version     = "1.0.0"
)

type Options struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Server struct {
	store  store.Store
	logger *zap.Logger
	router *mux.Router
	server *http.Server
	opts   Options
}

func NewServer(st store.Store, logger *zap.Logger, opts Options) *Server {
	s := &Server{
		store:  st,
		logger: logger,
		router: mux.NewRouter(),
		opts:   opts,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(requestID, s.accessLog, metricsMiddleware)

	s.router.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	s.router.HandleFunc("/articles/", s.handleList).Methods(http.MethodGet)
	s.router.HandleFunc("/articles/", s.handleCreate).Methods(http.MethodPost)
	s.router.HandleFunc("/articles/{id}", s.handleGet).Methods(http.MethodGet)
	s.router.HandleFunc("/articles/{id}", s.handleUpdate).Methods(http.MethodPut)
	s.router.HandleFunc("/articles/{id}", s.handleDelete).Methods(http.MethodDelete)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not Found"})
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"detail": "Method Not Allowed"})
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start launches the HTTP server and blocks until it stops. A graceful Stop
// makes Start return nil.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	s.logger.Info("Web server listening", zap.String("addr", addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": ServiceName,
		"version": Version,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
