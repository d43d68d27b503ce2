package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"repotrack/internal/github"
	"repotrack/internal/pipeline"
)

type ingestRequest struct {
	Repo string `json:"repo"`
}

type ingestResponse struct {
	RepoPath string         `json:"repo_path"`
	Index    int            `json:"index"`
	Inserted int            `json:"inserted"`
	Enriched bool           `json:"enriched"`
	Indexed  bool           `json:"indexed"`
	Row      map[string]any `json:"row"`
}

type searchRequest struct {
	Text      string `json:"text"`
	Threshold int    `json:"threshold"`
}

type gridResponse struct {
	Visible []int            `json:"visible"`
	Rows    []map[string]any `json:"rows"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return
	}
	if req.Repo == "" {
		s.respondError(w, http.StatusBadRequest, errors.New("repo is required"))
		return
	}

	result, err := s.pipeline.Ingest(r.Context(), req.Repo)
	switch {
	case errors.Is(err, github.ErrNotFound):
		s.respondError(w, http.StatusNotFound, err)
		return
	case errors.Is(err, pipeline.ErrFetcherRequired):
		s.respondError(w, http.StatusServiceUnavailable, err)
		return
	case err != nil:
		s.logger.Error("ingest failed", "repo", req.Repo, "error", err)
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}

	s.respond(w, http.StatusOK, ingestResponse{
		RepoPath: result.Project.RepoPath,
		Index:    result.Index,
		Inserted: result.Inserted,
		Enriched: result.Enriched,
		Indexed:  result.Indexed,
		Row:      result.Project.Row(),
	})
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, gridResponse{
		Visible: s.cache.Visible(),
		Rows:    s.cache.Rows(),
	})
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	repoPath := chi.URLParam(r, "owner") + "/" + chi.URLParam(r, "name")

	idx := s.cache.FindIndexByRepoPath(repoPath)
	if idx < 0 {
		s.respondError(w, http.StatusNotFound, fmt.Errorf("project %s not loaded", repoPath))
		return
	}

	s.respond(w, http.StatusOK, map[string]any{
		"index": idx,
		"row":   s.cache.Project(idx).Row(),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return
	}

	if _, err := s.pipeline.Search(r.Context(), req.Text, req.Threshold); err != nil {
		if req.Threshold < 0 || req.Threshold > 100 {
			s.respondError(w, http.StatusBadRequest, err)
			return
		}
		s.logger.Error("search failed", "text", req.Text, "error", err)
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}

	// A search with no matches leaves the grid as it was, so the response
	// always reflects the cache's current visible set.
	s.respond(w, http.StatusOK, gridResponse{
		Visible: s.cache.Visible(),
		Rows:    s.cache.Rows(),
	})
}

func (s *Server) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("writing response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, err error) {
	s.respond(w, status, map[string]string{"error": err.Error()})
}
