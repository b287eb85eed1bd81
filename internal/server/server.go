// Package server provides the HTTP API for campaign copy generation.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"reflect"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jonathan/campaign-copy/internal/compliance"
	"github.com/jonathan/campaign-copy/internal/db"
	"github.com/jonathan/campaign-copy/internal/pipeline"
	"github.com/jonathan/campaign-copy/internal/reference"
	"github.com/jonathan/campaign-copy/internal/server/ratelimit"
	"github.com/jonathan/campaign-copy/internal/types"
)

// RunStore persists runs and reads them back. *db.DB satisfies it.
type RunStore interface {
	pipeline.Recorder
	GetRun(ctx context.Context, runID uuid.UUID) (*types.Run, error)
	GetRunResults(ctx context.Context, runID uuid.UUID) ([]types.ChannelResult, error)
	ListRuns(ctx context.Context, filters db.RunFilters) ([]types.Run, error)
	DeleteRun(ctx context.Context, runID uuid.UUID) error
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	handler     http.Handler
	runner      *pipeline.Runner
	library     *reference.Library
	evaluator   *compliance.Evaluator
	store       RunStore
	rateLimiter *ratelimit.Limiter
	validate    *validator.Validate
	logger      zerolog.Logger
	cfg         Config
}

// Config holds server configuration
type Config struct {
	Port            int
	DefaultVariants int           // used when a request omits variants
	Model           string        // empty uses the client default
	MaxOutputTokens int           // zero uses the client default
	CallTimeout     time.Duration // bound on each generation call
}

// Deps are the collaborators a Server drives
type Deps struct {
	Runner    *pipeline.Runner
	Library   *reference.Library
	Evaluator *compliance.Evaluator
	Store     RunStore           // optional; run endpoints answer 503 without it
	Limiter   *ratelimit.Limiter // optional; nothing is limited without it
	Logger    zerolog.Logger
}

// New creates a new server instance
func New(cfg Config, deps Deps) *Server {
	if cfg.DefaultVariants <= 0 {
		cfg.DefaultVariants = 2
	}

	s := &Server{
		runner:      deps.Runner,
		library:     deps.Library,
		evaluator:   deps.Evaluator,
		store:       deps.Store,
		rateLimiter: deps.Limiter,
		validate:    newValidator(),
		logger:      deps.Logger.With().Str("component", "server").Logger(),
		cfg:         cfg,
	}
	if s.store != nil {
		s.runner = s.runner.WithRecorder(s.store)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /products", s.handleProducts)
	mux.HandleFunc("GET /channels", s.handleChannels)
	mux.HandleFunc("GET /tones", s.handleTones)
	mux.HandleFunc("POST /compliance/check", s.handleComplianceCheck)
	mux.HandleFunc("POST /generate", s.handleGenerate)
	mux.HandleFunc("POST /generate/stream", s.handleGenerateStream)
	mux.HandleFunc("GET /runs", s.handleListRuns)
	mux.HandleFunc("GET /runs/{id}", s.handleGetRun)
	mux.HandleFunc("DELETE /runs/{id}", s.handleDeleteRun)
	mux.HandleFunc("GET /runs/{id}/export", s.handleExportRun)

	var handler http.Handler = s.withCORS(mux)
	if s.rateLimiter != nil {
		handler = ratelimit.Middleware(s.rateLimiter, s.logger)(handler)
	}
	s.handler = s.withLogging(handler)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: writeTimeout(cfg.CallTimeout, channelCount(deps.Library)),
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// writeSlack covers the work around the generation calls of one run
const writeSlack = 30 * time.Second

// writeTimeout bounds a response by the longest accepted run, one generation
// call per distinct channel. Unbounded calls leave writes unbounded too.
func writeTimeout(callTimeout time.Duration, channels int) time.Duration {
	if callTimeout <= 0 || channels <= 0 {
		return 0
	}
	return callTimeout*time.Duration(channels) + writeSlack
}

func channelCount(library *reference.Library) int {
	if library == nil {
		return 0
	}
	return len(library.Channels())
}

// Handler returns the fully wrapped router
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens until SIGINT or SIGTERM, then shuts down gracefully
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.httpServer.Addr).Msg("server starting")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-stop:
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
	s.logger.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}

	s.logger.Info().Msg("server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// captureWriter records status and bytes for the access log
type captureWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	n, err := cw.ResponseWriter.Write(b)
	if n > 0 {
		cw.bytes += n
	}
	return n, err
}

// Flush keeps SSE streaming working through the wrapper
func (cw *captureWriter) Flush() {
	if f, ok := cw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// withLogging logs method, path, status, elapsed and bytes written
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cw := &captureWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(cw, r)

		evt := s.logger.Info()
		if cw.status >= http.StatusInternalServerError {
			evt = s.logger.Warn()
		}
		evt.Int("status", cw.status).
			Dur("elapsed", time.Since(start)).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("bytes", cw.bytes).
			Msg("request done")
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, ErrorResponse{Error: message, Kind: kindForStatus(status)})
}

// failure writes err with the status its kind maps to
func (s *Server) failure(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Int("status", status).Msg("request failed")
	}
	s.jsonResponse(w, status, NewErrorResponse(err))
}

// newValidator reports request fields by their JSON names
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
