// Package api serves trip classification and stored clustering runs over HTTP.
package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/banshee-data/drivestyle/internal/behavior"
	"github.com/banshee-data/drivestyle/internal/cluster"
	"github.com/banshee-data/drivestyle/internal/config"
	"github.com/banshee-data/drivestyle/internal/db"
	"github.com/banshee-data/drivestyle/internal/httputil"
	"github.com/banshee-data/drivestyle/internal/monitoring"
	"github.com/banshee-data/drivestyle/internal/telemetry"
)

var logf = monitoring.Tagged("api")

// maxUploadBytes caps a classify upload; a 3 hour trip at 1 Hz is well
// under 1 MB.
const maxUploadBytes = 32 << 20

// ANSI escape codes for the request log
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	db       *db.DB
	cfg      *config.TuningConfig
	pipeline *behavior.Pipeline
	extract  *telemetry.Extractor
}

// NewServer builds the default pipeline and extractor from cfg.
func NewServer(database *db.DB, cfg *config.TuningConfig) (*Server, error) {
	p, err := behavior.NewPipeline(cfg)
	if err != nil {
		return nil, err
	}
	return &Server{
		db:       database,
		cfg:      cfg,
		pipeline: p,
		extract:  telemetry.NewExtractor(cfg),
	}, nil
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/classify", s.classify)
	mux.HandleFunc("GET /api/runs", s.listRuns)
	mux.HandleFunc("POST /api/runs", s.createRun)
	mux.HandleFunc("GET /api/runs/{id}", s.getRun)
	mux.HandleFunc("GET /api/runs/{id}/chart", s.runChart)
	mux.HandleFunc("GET /api/runs/{id}/sizes.png", s.runSizes)
	mux.HandleFunc("GET /api/windows", s.listWindows)
	mux.HandleFunc("GET /api/config", s.showConfig)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// writeError maps err to a status: 400 for invalid input, 404 for an unknown
// run, 500 otherwise.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, cluster.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, db.ErrRunNotFound):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		logf("internal error: %v", err)
	}
	httputil.WriteJSONError(w, status, err.Error())
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, s.cfg.Effective())
}
