package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"subtitler/internal/config"
	"subtitler/internal/jobs"
	"subtitler/internal/logging"
	"subtitler/internal/pipeline"
	"subtitler/internal/services"
)

// Server serves the upload, status, and download API.
type Server struct {
	cfg      *config.Config
	manager  *pipeline.Manager
	table    *jobs.Table
	logger   *slog.Logger
	started  time.Time
	maxBytes int64

	listener net.Listener
	server   *http.Server
}

// New builds the HTTP server. Start binds the listener.
func New(cfg *config.Config, manager *pipeline.Manager, logger *slog.Logger) (*Server, error) {
	if cfg == nil || manager == nil {
		return nil, errors.New("server: config and pipeline required")
	}
	maxMB := cfg.Limits.MaxUploadMB
	if maxMB <= 0 {
		maxMB = 500
	}
	s := &Server{
		cfg:      cfg,
		manager:  manager,
		table:    manager.Table(),
		logger:   logging.NewComponentLogger(logger, "api-server"),
		started:  time.Now(),
		maxBytes: int64(maxMB) << 20,
	}

	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		// Large uploads and downloads stream through these.
		ReadTimeout:  30 * time.Minute,
		WriteTimeout: 30 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Handler returns the routed handler with auth and request logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/upload", s.handleUpload)
	mux.HandleFunc("/status/", s.handleStatus)
	mux.HandleFunc("/download/", s.handleDownload)
	mux.HandleFunc("/api/jobs", s.handleJobs)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/languages", s.handleLanguages)
	return s.withRequestID(authMiddleware(s.cfg.Server.APIToken, mux))
}

// Start listens on the configured bind address and serves until ctx ends.
func (s *Server) Start(ctx context.Context) error {
	bind := strings.TrimSpace(s.cfg.Server.Bind)
	if bind == "" {
		return services.Wrap(services.ErrConfiguration, "server", "listen", "bind address is empty", nil)
	}
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening",
		logging.String(logging.FieldEventType, "server_listening"),
		logging.String("address", listener.Addr().String()),
		logging.Bool("auth", s.cfg.Server.APIToken != ""),
	)
	return nil
}

// Addr returns the bound address once Start succeeded.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the HTTP server down, allowing in-flight requests five seconds.
func (s *Server) Stop() {
	if s == nil || s.server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := services.WithRequestID(r.Context(), id)
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))
		logging.WithContext(ctx, s.logger).Debug("request handled",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", rec.status),
			logging.Duration("elapsed", time.Since(start)),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
