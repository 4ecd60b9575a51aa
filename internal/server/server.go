// Package server exposes plan analysis over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/jacobarthurs/plangraph/internal/analyzer"
	"github.com/jacobarthurs/plangraph/internal/output"
	"github.com/jacobarthurs/plangraph/internal/plan"
)

const DefaultMaxBodyBytes = 8 << 20

type Config struct {
	Addr            string
	MaxBodyBytes    int64
	ShutdownTimeout time.Duration
	Analyzer        analyzer.Options
}

type Server struct {
	cfg     Config
	logger  zerolog.Logger
	metrics *metrics
	handler http.Handler
}

func New(cfg Config, logger zerolog.Logger) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	reg := prometheus.NewRegistry()
	s := &Server{
		cfg:     cfg,
		logger:  logger,
		metrics: newMetrics(reg),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/analyze", s.handleAnalyzeBody)
	mux.HandleFunc("GET /api/analyze", s.handleAnalyzeQuery)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	s.handler = withRequestID(logger, withAccessLog(withRecovery(mux)))
	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("address", s.cfg.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Dur("timeout", s.cfg.ShutdownTimeout).Msg("Starting graceful shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}

func (s *Server) handleAnalyzeBody(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.metrics.analyses.WithLabelValues("resource_limit").Inc()
			writeError(w, r, http.StatusRequestEntityTooLarge, "resource_limit",
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, r, http.StatusBadRequest, "request", "reading request body: "+err.Error())
		return
	}

	s.analyze(w, r, data)
}

// handleAnalyzeQuery serves share links carrying the plan in ?plan=.
func (s *Server) handleAnalyzeQuery(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("plan")
	if raw == "" {
		writeError(w, r, http.StatusBadRequest, "request", `missing "plan" query parameter`)
		return
	}
	if int64(len(raw)) > s.cfg.MaxBodyBytes {
		s.metrics.analyses.WithLabelValues("resource_limit").Inc()
		writeError(w, r, http.StatusRequestEntityTooLarge, "resource_limit",
			fmt.Sprintf("plan parameter exceeds %d bytes", s.cfg.MaxBodyBytes))
		return
	}

	s.analyze(w, r, []byte(raw))
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request, data []byte) {
	start := time.Now()
	result, err := analyzer.AnalyzeJSON(data, s.cfg.Analyzer)
	s.metrics.duration.Observe(time.Since(start).Seconds())

	if err != nil {
		status, kind := classify(err)
		s.metrics.analyses.WithLabelValues(kind).Inc()
		zerolog.Ctx(r.Context()).Debug().Err(err).Str("kind", kind).Msg("Analysis rejected")
		writeError(w, r, status, kind, err.Error())
		return
	}

	s.metrics.analyses.WithLabelValues("ok").Inc()
	s.metrics.planNodes.Observe(float64(len(result.Nodes)))

	w.Header().Set("Content-Type", "application/json")
	if err := output.RenderJSON(w, output.NewReport(result)); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("Writing response failed")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, `{"status":"ok"}`+"\n")
}

// classify maps an analysis error to its HTTP status and metric label.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, plan.ErrParse):
		return http.StatusBadRequest, "parse"
	case errors.Is(err, plan.ErrStructural):
		return http.StatusBadRequest, "structural"
	case errors.Is(err, plan.ErrValidation):
		return http.StatusUnprocessableEntity, "validation"
	case errors.Is(err, plan.ErrResourceLimit):
		return http.StatusRequestEntityTooLarge, "resource_limit"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

type errorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	RequestID string `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, kind, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error:     msg,
		Kind:      kind,
		RequestID: requestID(r.Context()),
	})
}
