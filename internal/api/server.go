// Package api provides a read-only HTTP API over the run archive.
//
//	GET /api/v1/runs                 recent runs (?limit=N, default 30)
//	GET /api/v1/runs/{id}            one run
//	GET /api/v1/runs/{id}/records    yearly records
//	GET /api/v1/runs/{id}/ratios     derived ratio series
//	GET /api/v1/runs/{id}/summary    run summary
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/talgya/mini-census/internal/engine"
	"github.com/talgya/mini-census/internal/persistence"
	"github.com/talgya/mini-census/internal/report"
)

// Server serves archived runs over HTTP.
type Server struct {
	DB          *persistence.DB
	Port        int
	CORSOrigins []string // Extra allowed origins; localhost dev servers are always allowed
}

// Handler returns the API routes wrapped in CORS handling.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/runs", s.handleRuns)
	mux.HandleFunc("/api/v1/runs/", s.handleRunRoutes)
	return corsMiddleware(s.CORSOrigins, mux)
}

// ListenAndServe serves the API until the listener fails.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// corsMiddleware adds CORS headers for allowed frontend origins.
func corsMiddleware(origins []string, next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			allowedOrigins[origin] = true
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := 30
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 1000 {
			limit = v
		}
	}

	runs, err := s.DB.ListRuns(limit)
	if err != nil {
		slog.Error("list runs failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []persistence.Run{}
	}
	writeJSON(w, runs)
}

// handleRunRoutes dispatches /api/v1/runs/{id}[/records|/ratios|/summary].
func (s *Server) handleRunRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/runs/"), "/")
	id, sub, _ := strings.Cut(path, "/")
	if id == "" {
		http.NotFound(w, r)
		return
	}

	if sub == "" {
		run, err := s.DB.GetRun(id)
		if err != nil {
			s.writeLookupError(w, err)
			return
		}
		writeJSON(w, run)
		return
	}

	records, err := s.DB.LoadRecords(id)
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	if records == nil {
		records = []engine.YearRecord{}
	}

	switch sub {
	case "records":
		writeJSON(w, records)
	case "ratios":
		writeJSON(w, report.Derive(records))
	case "summary":
		writeJSON(w, report.Summarize(records))
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, persistence.ErrRunNotFound) {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	slog.Error("run lookup failed", "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
