package api

import (
	"encoding/json"
	"net/http"

	"github.com/arcwave/nereus/internal/settings"

	"github.com/go-chi/chi/v5"
)

func (s *server) registerSite(r chi.Router) {
	r.Get("/site", s.getSite)
	r.With(s.requireAdmin).Put("/site", s.updateSite)
}

// getSite is unauthenticated so the login screen can render the site name
// and know whether registration is open.
func (s *server) getSite(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"siteName":      s.site.Get(settings.KeySiteName),
		"allowRegister": s.site.GetBool(settings.KeyAllowRegister),
		"defaultBucket": s.site.Get(settings.KeyDefaultBucket),
	})
}

func (s *server) updateSite(w http.ResponseWriter, r *http.Request) {
	var in map[string]string
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	allowed := map[string]string{
		"siteName":      settings.KeySiteName,
		"allowRegister": settings.KeyAllowRegister,
		"defaultBucket": settings.KeyDefaultBucket,
	}
	for field, value := range in {
		key, ok := allowed[field]
		if !ok {
			respondError(w, http.StatusBadRequest, "unknown setting: "+field)
			return
		}
		if err := s.site.Set(key, value); err != nil {
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
