package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"TriadNews/internal/domain"
	"TriadNews/internal/infrastructure/llm"
	"TriadNews/internal/ports"
	"TriadNews/internal/usecase"
)

// Server exposes the refresh/analyze/list operations as a JSON API.
type Server struct {
	service *usecase.Service
	logger  *slog.Logger
	router  *chi.Mux
}

// New builds the router with its middleware stack.
func New(service *usecase.Service, log *slog.Logger) *Server {
	s := &Server{service: service, logger: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/refresh", s.handleRefresh)
	r.Post("/analyze", s.handleAnalyze)
	r.Get("/feeds", s.handleFeeds)
	r.Get("/health", s.handleHealth)

	s.router = r
	return s
}

// Handler returns the underlying HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.Refresh(r.Context())
	if err != nil {
		s.logger.Error("refresh failed", "error", err)
		writeError(w, http.StatusInternalServerError, "refresh failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type analyzeRequest struct {
	ArticleID string `json:"article_id"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ArticleID == "" {
		writeError(w, http.StatusBadRequest, "article_id is required")
		return
	}

	result, err := s.service.Analyze(r.Context(), req.ArticleID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, result)
	case errors.Is(err, ports.ErrNotFound):
		writeError(w, http.StatusNotFound, "article does not exist")
	case errors.Is(err, usecase.ErrRateLimited):
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":        "analysis rate limit reached, try again later",
			"rate_limited": true,
		})
	case errors.Is(err, llm.ErrMissingAPIKey):
		s.logger.Error("analyze misconfigured", "error", err)
		writeError(w, http.StatusInternalServerError, "enrichment provider is not configured")
	default:
		s.logger.Error("analyze failed", "article_id", req.ArticleID, "error", err)
		writeError(w, http.StatusInternalServerError, "analysis failed")
	}
}

func (s *Server) handleFeeds(w http.ResponseWriter, r *http.Request) {
	filter := filterFromQuery(r)

	result, err := s.service.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "listing articles failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Health(r.Context())
	if err != nil {
		s.logger.Error("health check failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"total_articles": stats.Total,
		"unanalyzed":     stats.Unanalyzed,
	})
}

func filterFromQuery(r *http.Request) domain.ListFilter {
	query := r.URL.Query()

	filter := domain.ListFilter{
		Source:   query.Get("source"),
		Category: query.Get("category"),
		Search:   query.Get("search"),
		Limit:    intParam(query.Get("limit"), 50),
		Offset:   intParam(query.Get("offset"), 0),
	}

	switch query.Get("analyzed") {
	case "true":
		analyzed := true
		filter.Analyzed = &analyzed
	case "false":
		analyzed := false
		filter.Analyzed = &analyzed
	}

	return filter
}

func intParam(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
