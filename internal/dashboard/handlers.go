package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/fairyhunter13/ai-cv-evaluator/internal/adapter/observability"
	"github.com/fairyhunter13/ai-cv-evaluator/internal/store"
	"github.com/fairyhunter13/ai-cv-evaluator/internal/telemetry"
)

// Server holds the dependencies the dashboard handlers read from.
type Server struct {
	Store       *store.Store
	MaxResults  int64
	CORSOrigins []string
}

// NewServer builds a dashboard Server.
func NewServer(s *store.Store, maxResults int64, corsOrigins []string) *Server {
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}
	return &Server{Store: s, MaxResults: maxResults, CORSOrigins: corsOrigins}
}

// Router builds the chi handler with middleware and routes wired in.
func (srv *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(recoverer())
	r.Use(requestID())
	r.Use(timeoutMiddleware(10 * time.Second))
	r.Use(accessLog())
	r.Use(observability.HTTPMetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: srv.CORSOrigins,
		AllowedMethods: []string{"GET"},
		MaxAge:         300,
	}))
	r.Use(httprate.LimitByIP(120, time.Minute))

	r.Get("/healthz", srv.handleHealthz)
	r.Get("/api/status", srv.handleStatus)
	r.Get("/api/results", srv.handleResults)
	r.Get("/api/logs", srv.handleLogs)
	r.Get("/api/throughput", srv.handleThroughput)
	r.Get("/api/scalability", srv.handleScalability)
	return r
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// handleHealthz reports the coordination store's reachability. The
// dashboard surfaces "disconnected" to end users whenever this fails,
// rather than failing the whole page.
func (srv *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if _, err := srv.Store.Len(ctx, store.KeyTaskQueue); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "disconnected"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (srv *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workers, err := telemetry.Workers(ctx, srv.Store)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	counters, queueLen, err := telemetry.GlobalMetrics(ctx, srv.Store)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}

	var aggregateRate float64
	for _, wk := range workers {
		aggregateRate += wk.Rate
	}
	observability.RecordFleetStatus(len(workers), aggregateRate)
	observability.QueueLength.Set(float64(queueLen))

	writeJSON(w, http.StatusOK, map[string]any{
		"workers":         workers,
		"active_workers":  len(workers),
		"aggregate_rate":  aggregateRate,
		"queue_length":    queueLen,
		"total_processed": counters.TotalProcessed,
		"total_errors":    counters.TotalErrors,
		"total_skipped":   counters.TotalSkipped,
	})
}

func (srv *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	limit := srv.MaxResults
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			limit = n
		}
	}
	results, err := telemetry.Results(r.Context(), srv.Store, limit)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (srv *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	var limit int64 = 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			limit = n
		}
	}
	logs, err := telemetry.ProducerLogs(r.Context(), srv.Store, limit)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (srv *Server) handleThroughput(w http.ResponseWriter, r *http.Request) {
	window := time.Hour
	if v := r.URL.Query().Get("window_minutes"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			window = time.Duration(n) * time.Minute
		}
	}
	hist, err := telemetry.ThroughputHistory(r.Context(), srv.Store, window)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, hist)
}

func (srv *Server) handleScalability(w http.ResponseWriter, r *http.Request) {
	report, err := telemetry.ScalabilityMetrics(r.Context(), srv.Store)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, report)
}
