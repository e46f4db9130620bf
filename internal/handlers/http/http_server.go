package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/YodaWagyu/everything-switching/internal/app"
	"github.com/YodaWagyu/everything-switching/internal/app/dto"
	"github.com/YodaWagyu/everything-switching/internal/domain/model"
	"github.com/YodaWagyu/everything-switching/internal/domain/service"
	"github.com/YodaWagyu/everything-switching/internal/export"
)

// Server represents an HTTP server with all routes configured
type Server struct {
	app    *app.AppContext
	mux    *http.ServeMux
	server *http.Server
}

// NewServer creates a new HTTP server with configured routes
func NewServer(addr string, appCtx *app.AppContext) *Server {
	mux := http.NewServeMux()

	server := &Server{
		app: appCtx,
		mux: mux,
		server: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	server.registerRoutes()
	return server
}

// registerRoutes configures all HTTP routes
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /session", s.handleSession)
	s.mux.HandleFunc("POST /analyze", s.handleAnalyze)
	s.mux.HandleFunc("POST /analyze/async", s.handleAnalyzeAsync)
	s.mux.HandleFunc("GET /categories", s.handleCategories)
	s.mux.HandleFunc("GET /brands", s.handleBrands)
	s.mux.HandleFunc("POST /export/xlsx", s.handleExportExcel)
	s.mux.HandleFunc("POST /export/csv", s.handleExportCSV)
	s.mux.HandleFunc("POST /narrate", s.handleNarrate)
	s.mux.HandleFunc("GET /usage/summary", s.handleUsageSummary)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /ws", s.app.Broadcaster.Handler())
}

// handleSession opens a tracked session for a dashboard user.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if body.Role == "" {
		body.Role = "user"
	}
	sessionID := s.app.Tracker.StartSession(r.Context(), body.Role, clientIP(r))
	writeJSON(w, map[string]string{"session_id": sessionID})
}

// handleAnalyze runs one analysis synchronously and returns the result.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, reqDTO, ok := s.decodeAnalysisRequest(w, r)
	if !ok {
		return
	}

	started := time.Now()
	result, err := s.app.Analyzer.Analyze(r.Context(), req)
	if err != nil {
		s.writeAnalysisError(w, err)
		return
	}
	s.app.Tracker.LogQuery(r.Context(), reqDTO.SessionID, req, time.Since(started))

	writeJSON(w, result)
}

// handleAnalyzeAsync queues the analysis; the result reaches clients over
// the websocket stream.
func (s *Server) handleAnalyzeAsync(w http.ResponseWriter, r *http.Request) {
	req, _, ok := s.decodeAnalysisRequest(w, r)
	if !ok {
		return
	}

	job := &app.AnalysisJob{ID: uuid.New().String(), Request: req}
	select {
	case s.app.JobCh <- job:
		w.WriteHeader(http.StatusAccepted)
		writeJSON(w, map[string]string{"job_id": job.ID})
	default:
		http.Error(w, "analysis queue is full", http.StatusServiceUnavailable)
	}
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.app.Fetcher.Categories(r.Context())
	if err != nil {
		http.Error(w, "failed to list categories", http.StatusInternalServerError)
		return
	}
	writeJSON(w, categories)
}

func (s *Server) handleBrands(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		http.Error(w, "category query parameter is required", http.StatusBadRequest)
		return
	}
	brands, err := s.app.Fetcher.BrandsByCategory(r.Context(), category)
	if err != nil {
		http.Error(w, "failed to list brands", http.StatusInternalServerError)
		return
	}
	writeJSON(w, brands)
}

// handleExportExcel runs the analysis (served from cache when the same
// filters were just analyzed) and streams the workbook.
func (s *Server) handleExportExcel(w http.ResponseWriter, r *http.Request) {
	req, reqDTO, ok := s.decodeAnalysisRequest(w, r)
	if !ok {
		return
	}
	result, err := s.app.Analyzer.Analyze(r.Context(), req)
	if err != nil {
		s.writeAnalysisError(w, err)
		return
	}
	s.app.Tracker.LogExport(r.Context(), reqDTO.SessionID, "xlsx")

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=switching_%s.xlsx", time.Now().Format("20060102_150405")))
	if err := export.WriteExcel(w, result); err != nil {
		log.Printf("failed to write excel export: %v", err)
	}
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	req, reqDTO, ok := s.decodeAnalysisRequest(w, r)
	if !ok {
		return
	}
	result, err := s.app.Analyzer.Analyze(r.Context(), req)
	if err != nil {
		s.writeAnalysisError(w, err)
		return
	}
	s.app.Tracker.LogExport(r.Context(), reqDTO.SessionID, "csv")

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=switching_%s_%s.csv", kind, time.Now().Format("20060102_150405")))
	if kind == "flows" {
		err = export.WriteFlowsCSV(w, result)
	} else {
		err = export.WriteSummaryCSV(w, result)
	}
	if err != nil {
		log.Printf("failed to write csv export: %v", err)
	}
}

func (s *Server) handleNarrate(w http.ResponseWriter, r *http.Request) {
	if s.app.Narrator == nil {
		http.Error(w, "narration is not configured", http.StatusServiceUnavailable)
		return
	}
	req, reqDTO, ok := s.decodeAnalysisRequest(w, r)
	if !ok {
		return
	}
	result, err := s.app.Analyzer.Analyze(r.Context(), req)
	if err != nil {
		s.writeAnalysisError(w, err)
		return
	}
	insights, err := s.app.Narrator.Narrate(r.Context(), req, result)
	if err != nil {
		log.Printf("narration failed: %v", err)
		http.Error(w, "failed to generate insights", http.StatusBadGateway)
		return
	}
	s.app.Tracker.LogNarration(r.Context(), reqDTO.SessionID, req.Query.Category)

	writeJSON(w, map[string]string{"insights": insights})
}

func (s *Server) handleUsageSummary(w http.ResponseWriter, r *http.Request) {
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -14)
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			http.Error(w, "bad from date", http.StatusBadRequest)
			return
		}
		from = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			http.Error(w, "bad to date", http.StatusBadRequest)
			return
		}
		to = t.AddDate(0, 0, 1) // inclusive end of day
	}
	summary, err := s.app.Tracker.Summary(r.Context(), from, to)
	if err != nil {
		http.Error(w, "failed to build usage summary", http.StatusInternalServerError)
		return
	}
	writeJSON(w, summary)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) decodeAnalysisRequest(w http.ResponseWriter, r *http.Request) (req model.AnalysisRequest, reqDTO dto.AnalysisRequestDTO, ok bool) {
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return req, reqDTO, false
	}
	converted, err := reqDTO.ToModel(s.app.Config.DefaultPrimaryThreshold)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return req, reqDTO, false
	}
	return converted, reqDTO, true
}

func (s *Server) writeAnalysisError(w http.ResponseWriter, err error) {
	if errors.Is(err, service.ErrInvalidInput) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	log.Printf("analysis failed: %v", err)
	http.Error(w, "analysis failed", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// clientIP extracts the caller address, preferring proxy headers.
func clientIP(r *http.Request) string {
	for _, header := range []string{"X-Forwarded-For", "X-Real-IP", "CF-Connecting-IP"} {
		if ip := r.Header.Get(header); ip != "" {
			if i := strings.Index(ip, ","); i >= 0 {
				ip = ip[:i]
			}
			return strings.TrimSpace(ip)
		}
	}
	return r.RemoteAddr
}

// ServeHTTP dispatches through the server's route table.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
