package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

func (s *server) registerMeta(r chi.Router) {
	r.Route("/meta/{id}", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/*", s.getPathMeta)
		r.Put("/*", s.setPathMeta)
	})
}

// metaPath extracts the wildcard remainder as the metadata path. The stored
// path is the decoded form, matching what the gate looks up during raw
// serving.
func metaPath(r *http.Request) string {
	return strings.TrimPrefix(chi.URLParam(r, "*"), "/")
}

func (s *server) getPathMeta(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	cfg, err := s.buckets.GetForOwner(chi.URLParam(r, "id"), u.ID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	p := metaPath(r)
	meta, err := s.gate.Lookup(cfg.ID, p)
	if err != nil {
		// absence means private; report the effective default instead of 404
		writeJSON(w, http.StatusOK, map[string]any{"bucketId": cfg.ID, "path": p, "isPublic": false})
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (s *server) setPathMeta(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	cfg, err := s.buckets.GetForOwner(chi.URLParam(r, "id"), u.ID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	var in struct {
		IsPublic bool   `json:"isPublic"`
		Tags     string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p := metaPath(r)
	if p == "" {
		respondError(w, http.StatusBadRequest, "path required")
		return
	}
	if err := s.gate.SetVisibility(cfg.ID, p, in.IsPublic, in.Tags); err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
