package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/arcwave/nereus/internal/models"
	"github.com/arcwave/nereus/internal/pathresolve"
	"github.com/arcwave/nereus/internal/presign"
	"github.com/arcwave/nereus/internal/storage"

	"github.com/go-chi/chi/v5"
)

func (s *server) registerObjects(r chi.Router) {
	r.Route("/bucket", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/*", s.browseObjects)
		r.Put("/*", s.putObject)
		r.Delete("/*", s.deleteObject)
	})
	r.With(s.requireAuth).Post("/presign/{id}", s.presignObject)
}

// resolverFor builds a path resolver scoped to the caller's buckets.
func (s *server) resolverFor(ownerID uint) *pathresolve.Resolver {
	return &pathresolve.Resolver{
		Known: func(id string) bool { return s.buckets.KnownForOwner(id, ownerID) },
		Default: func() string {
			id, ok := s.buckets.ResolveDefaultBucket(ownerID)
			if !ok {
				return ""
			}
			return id
		},
	}
}

// resolveOwned maps the raw request path to a bucket the caller owns plus an
// adapter over it. The resolver receives the escaped path so percent-decoding
// happens exactly once.
func (s *server) resolveOwned(r *http.Request, namespace string) (storage.Adapter, *models.BucketConfig, string, error) {
	u := s.currentUser(r)
	res := s.resolverFor(u.ID).Resolve(r.URL.EscapedPath(), namespace)
	if res.BucketID == "" {
		return nil, nil, "", errBucketNotFound
	}
	a, cfg, err := s.adapterForOwner(res.BucketID, u.ID)
	if err != nil {
		return nil, nil, "", err
	}
	return a, cfg, res.ObjectKey, nil
}

func (s *server) browseObjects(w http.ResponseWriter, r *http.Request) {
	a, _, key, err := s.resolveOwned(r, pathresolve.NamespaceBucket)
	if err != nil {
		respondAppError(w, err)
		return
	}
	if key == "" || strings.HasSuffix(key, "/") || r.URL.Query().Get("list") == "1" {
		s.listObjects(w, r, a, key)
		return
	}
	s.streamObject(w, r, a, key)
}

func (s *server) listObjects(w http.ResponseWriter, r *http.Request, a storage.Adapter, prefix string) {
	q := r.URL.Query()
	opts := storage.ListOptions{
		StartAfter:         q.Get("startAfter"),
		ContinuationCursor: q.Get("cursor"),
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Limit = n
		}
	}
	page, err := a.List(r.Context(), prefix, opts)
	if err != nil {
		respondAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *server) streamObject(w http.ResponseWriter, r *http.Request, a storage.Adapter, key string) {
	got, err := a.Get(r.Context(), key)
	if err != nil {
		respondAppError(w, err)
		return
	}
	defer got.Body.Close()
	ct := got.ContentType
	// the adapter already fell back to octet-stream; refine by extension at
	// the boundary when the remote store had nothing better
	if ct == "application/octet-stream" {
		if guessed := mime.TypeByExtension(path.Ext(key)); guessed != "" {
			ct = guessed
		}
	}
	w.Header().Set("Content-Type", ct)
	if got.ETag != "" {
		w.Header().Set("ETag", `"`+got.ETag+`"`)
	}
	if got.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(got.Size, 10))
	}
	_, _ = io.Copy(w, got.Body)
}

func (s *server) putObject(w http.ResponseWriter, r *http.Request) {
	a, cfg, key, err := s.resolveOwned(r, pathresolve.NamespaceBucket)
	if err != nil {
		respondAppError(w, err)
		return
	}
	if key == "" {
		respondError(w, http.StatusBadRequest, "object key required")
		return
	}
	if src := r.Header.Get("X-Amz-Copy-Source"); src != "" {
		s.renameObject(w, r, a, strings.TrimPrefix(src, "/"), key)
		return
	}
	ct := r.Header.Get("Content-Type")
	etag, err := a.Put(r.Context(), key, r.Body, r.ContentLength, storage.PutOptions{ContentType: ct})
	if err != nil {
		respondAppError(w, err)
		return
	}
	u := s.currentUser(r)
	_ = s.db.Create(&models.UploadRecord{
		UserID:      u.ID,
		BucketID:    cfg.ID,
		ObjectKey:   key,
		ObjectSize:  r.ContentLength,
		ContentType: ct,
	}).Error
	writeJSON(w, http.StatusOK, map[string]any{"key": key, "etag": etag})
}

// renameObject is copy-then-delete and not atomic. A delete-phase failure
// reports the new key as live so the client can retry just the cleanup.
func (s *server) renameObject(w http.ResponseWriter, r *http.Request, a storage.Adapter, srcKey, destKey string) {
	etag, err := storage.Rename(r.Context(), a, srcKey, destKey, storage.PutOptions{})
	if err != nil {
		var re *storage.RenameError
		if errors.As(err, &re) && re.Phase == storage.RenameDelete {
			writeJSON(w, http.StatusBadGateway, map[string]any{
				"error":  "copy succeeded but source cleanup failed; retry the delete",
				"phase":  string(re.Phase),
				"key":    destKey,
				"etag":   etag,
				"source": srcKey,
			})
			return
		}
		respondAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"key": destKey, "etag": etag, "renamedFrom": srcKey})
}

func (s *server) deleteObject(w http.ResponseWriter, r *http.Request) {
	a, _, key, err := s.resolveOwned(r, pathresolve.NamespaceBucket)
	if err != nil {
		respondAppError(w, err)
		return
	}
	if key == "" {
		respondError(w, http.StatusBadRequest, "object key required")
		return
	}
	if strings.HasSuffix(key, "/") {
		respondError(w, http.StatusBadRequest, "folder deletion is not supported")
		return
	}
	if err := a.Delete(r.Context(), key); err != nil {
		respondAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type presignRequest struct {
	Key         string `json:"key"`
	Method      string `json:"method"` // "put" or "get"
	ContentType string `json:"contentType"`
	ExpiresIn   any    `json:"expiresIn"`
	Download    bool   `json:"download"`
	FileName    string `json:"fileName"`
}

func (s *server) presignObject(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	a, cfg, err := s.adapterForOwner(chi.URLParam(r, "id"), u.ID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	var in presignRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	svc := &presign.Service{Adapter: a}
	var signed storage.Presigned
	switch in.Method {
	case "put", "PUT":
		signed, err = svc.Upload(r.Context(), in.Key, in.ContentType, in.ExpiresIn)
		if err == nil {
			_ = s.db.Create(&models.UploadRecord{
				UserID:      u.ID,
				BucketID:    cfg.ID,
				ObjectKey:   in.Key,
				ContentType: in.ContentType,
			}).Error
		}
	case "get", "GET", "":
		signed, err = svc.Download(r.Context(), in.Key, in.Download, in.FileName, in.ExpiresIn)
	default:
		respondError(w, http.StatusBadRequest, "method must be put or get")
		return
	}
	if err != nil {
		respondAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, signed)
}
