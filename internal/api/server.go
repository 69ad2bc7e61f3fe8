package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"predigt/internal/history"
	"predigt/internal/logging"
)

const maxRequestBody = 1 << 20

// Server owns the router and the current configuration snapshot.
type Server struct {
	snapshot atomic.Pointer[Snapshot]
	history  *history.Store
	factory  Factory
	logger   *slog.Logger
	started  time.Time
	router   chi.Router

	listener net.Listener
	server   *http.Server
}

// New builds the server around snap. hist may be nil when the ledger is off.
func New(snap *Snapshot, hist *history.Store, factory Factory, logger *slog.Logger) *Server {
	s := &Server{
		history: hist,
		factory: factory,
		logger:  logging.NewComponentLogger(logger, "api"),
		started: time.Now(),
	}
	s.snapshot.Store(snap)
	s.router = s.routes()
	return s
}

// Reload swaps in a new snapshot. Requests already running keep the old one.
func (s *Server) Reload(snap *Snapshot) {
	if snap == nil {
		return
	}
	s.snapshot.Store(snap)
	s.logger.Info("configuration reloaded",
		logging.String(logging.FieldEventType, "config_reloaded"),
	)
}

// Snapshot returns the current configuration generation.
func (s *Server) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(recovery(s.logger))
	r.Use(requestLogger(s.logger))
	r.Use(cors)
	r.Use(maxBodySize(maxRequestBody))

	r.Get("/status", s.handleStatus)
	r.Get("/config", s.handleConfig)
	r.Get("/youtube/livestreams", s.handleLivestreams)
	r.Route("/audio", func(r chi.Router) {
		r.Post("/process", s.handleProcess)
		r.Post("/publish", s.handlePublish)
	})
	r.Get("/server/files", s.handleFiles)
	r.Get("/website/themes", s.handleThemes)
	r.Route("/history", func(r chi.Router) {
		r.Get("/", s.handleHistory)
		r.Get("/{id}", s.handleHistoryItem)
	})
	return r
}

// Start listens on bind and serves until ctx ends or Stop is called.
func (s *Server) Start(ctx context.Context, bind string) error {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return fmt.Errorf("api listen: empty bind address")
	}
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener
	// WriteTimeout is left unset; /audio/process streams for the length of a
	// download plus an encode.
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the bound address once Start succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down, waiting briefly for open requests.
func (s *Server) Stop() {
	if s.server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

func writeJSON(logger *slog.Logger, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil && logger != nil {
		logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	writeJSON(s.logger, w, status, payload)
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: message})
}
