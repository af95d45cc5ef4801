package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleListCategories lists the categories of the latest build.
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	build := s.orchestrator.Latest()
	if build == nil {
		jsonError(w, "no build available", http.StatusNotFound)
		return
	}

	type entry struct {
		Name  string `json:"name"`
		Posts int    `json:"posts"`
	}
	cats := make([]entry, 0, len(build.Categories))
	for _, c := range build.Categories {
		res, _ := build.Category(c)
		cats = append(cats, entry{Name: c, Posts: len(res.Posts)})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":      build.JobID,
		"finished_at": build.FinishedAt,
		"categories":  cats,
	})
}

// handleCategory returns {tree, posts} for one category of the latest build.
func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request) {
	build := s.orchestrator.Latest()
	if build == nil {
		jsonError(w, "no build available", http.StatusNotFound)
		return
	}
	category := chi.URLParam(r, "category")
	res, ok := build.Category(category)
	if !ok {
		jsonError(w, "category not found: "+category, http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}
