package api

import (
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/arcwave/nereus/internal/pathresolve"
	"github.com/arcwave/nereus/internal/presign"
	"github.com/arcwave/nereus/internal/settings"
	"github.com/arcwave/nereus/internal/storage"

	"github.com/go-chi/chi/v5"
)

func (s *server) registerRaw(r chi.Router) {
	// no auth middleware here; visibility is decided per path by the gate
	r.Get("/raw/*", s.serveRaw)
}

// serveRaw serves one object to possibly anonymous callers. Denials and
// missing objects both answer 404 so the public namespace does not leak
// which private keys exist.
func (s *server) serveRaw(w http.ResponseWriter, r *http.Request) {
	res := s.rawResolver().Resolve(r.URL.EscapedPath(), pathresolve.NamespaceRaw)
	if res.BucketID == "" || res.ObjectKey == "" || strings.HasSuffix(res.ObjectKey, "/") {
		respondError(w, http.StatusNotFound, "not found")
		return
	}
	cfg, err := s.buckets.GetFullByID(res.BucketID)
	if err != nil {
		respondError(w, http.StatusNotFound, "not found")
		return
	}
	var requesterID uint
	if u := s.currentUser(r); u != nil {
		requesterID = u.ID
	}
	if !s.gate.CanRead(cfg.ID, res.ObjectKey, requesterID, cfg.OwnerID) {
		respondError(w, http.StatusNotFound, "not found")
		return
	}

	// a CDN base short-circuits everything else for public reads
	if cfg.CdnBaseURL != "" {
		http.Redirect(w, r, cfg.CdnBaseURL+escapeKey(res.ObjectKey), http.StatusFound)
		return
	}

	a, err := s.newAdapter(adapterConfig(cfg))
	if err != nil {
		respondAppError(w, err)
		return
	}
	if r.URL.Query().Get("presign") == "1" {
		svc := &presign.Service{Adapter: a}
		signed, err := svc.Download(r.Context(), res.ObjectKey, r.URL.Query().Get("download") == "1", "", nil)
		if err != nil {
			respondAppError(w, err)
			return
		}
		http.Redirect(w, r, signed.URL, http.StatusFound)
		return
	}
	s.streamRaw(w, r, a, res.ObjectKey)
}

// rawResolver resolves against every registered bucket; the access decision
// happens after resolution, in the gate.
func (s *server) rawResolver() *pathresolve.Resolver {
	return &pathresolve.Resolver{
		Known: func(id string) bool {
			_, err := s.buckets.GetFullByID(id)
			return err == nil
		},
		Default: func() string { return s.site.Get(settings.KeyDefaultBucket) },
	}
}

func (s *server) streamRaw(w http.ResponseWriter, r *http.Request, a storage.Adapter, key string) {
	got, err := a.Get(r.Context(), key)
	if err != nil {
		respondError(w, http.StatusNotFound, "not found")
		return
	}
	defer got.Body.Close()
	ct := got.ContentType
	if ct == "application/octet-stream" {
		if guessed := mime.TypeByExtension(path.Ext(key)); guessed != "" {
			ct = guessed
		}
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if r.URL.Query().Get("download") == "1" {
		w.Header().Set("Content-Disposition", "attachment; filename=\""+path.Base(key)+"\"")
	}
	if got.ETag != "" {
		w.Header().Set("ETag", `"`+got.ETag+`"`)
	}
	if got.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(got.Size, 10))
	}
	_, _ = io.Copy(w, got.Body)
}

// escapeKey percent-encodes each segment while keeping the separators.
func escapeKey(key string) string {
	segs := strings.Split(key, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return strings.Join(segs, "/")
}
