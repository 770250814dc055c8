// Package httpapi exposes the scan engine over HTTP for the mobile and web
// clients.
package httpapi

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Veraticus/binwise/internal/engine"
	"github.com/Veraticus/binwise/internal/model"
)

const (
	// DefaultMaxImageBytes bounds a decoded upload.
	DefaultMaxImageBytes = 8 << 20
	defaultNearestLimit  = 5
	shutdownTimeout      = 10 * time.Second
)

// BankLister supplies the waste bank directory.
type BankLister interface {
	GetWasteBanks(ctx context.Context) ([]model.WasteBank, error)
}

// Server serves the JSON API.
type Server struct {
	engine        *engine.Engine
	banks         BankLister
	logger        *slog.Logger
	tlsCert       *tls.Certificate
	maxImageBytes int
}

// Option customizes a Server.
type Option func(*Server)

// WithLogger sets the logger used for request and error logs.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxImageBytes caps decoded image size.
func WithMaxImageBytes(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxImageBytes = n
		}
	}
}

// WithTLS serves HTTPS with the given certificate.
func WithTLS(cert tls.Certificate) Option {
	return func(s *Server) {
		s.tlsCert = &cert
	}
}

// New creates a server over an engine and a bank directory.
func New(eng *engine.Engine, banks BankLister, opts ...Option) *Server {
	s := &Server{
		engine:        eng,
		banks:         banks,
		logger:        slog.Default(),
		maxImageBytes: DefaultMaxImageBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes builds the router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/users", s.handleCreateUser)
		r.Get("/banks/nearest", s.handleNearestBanks)

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/profile", s.handleProfile)
			r.Get("/ledger", s.handleLedger)
			r.Get("/history", s.handleHistory)
			r.Post("/scans", s.handleCreateScan)

			r.Route("/history/{entryID}", func(r chi.Router) {
				r.Get("/", s.handleGetEntry)
				r.Patch("/", s.handleUpdateEntry)
				r.Delete("/", s.handleDeleteEntry)
				r.Post("/enrich", s.handleEnrichEntry)
			})
		})
	})

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	if s.tlsCert != nil {
		srv.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{*s.tlsCert},
			MinVersion:   tls.VersionTLS12,
		}
		go func() { errCh <- srv.ListenAndServeTLS("", "") }()
	} else {
		go func() { errCh <- srv.ListenAndServe() }()
	}
	s.logger.Info("HTTP server listening", "addr", addr, "tls", s.tlsCert != nil)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		s.logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		return nil
	}
}
