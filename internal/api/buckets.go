package api

import (
	"encoding/json"
	"net/http"

	"github.com/arcwave/nereus/internal/bucketcfg"
	"github.com/arcwave/nereus/internal/models"
	"github.com/arcwave/nereus/internal/storage"

	"github.com/go-chi/chi/v5"
)

func (s *server) registerBuckets(r chi.Router) {
	r.Route("/buckets", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/", s.listBuckets)
		r.Post("/", s.createBucket)
		r.Get("/{id}", s.getBucket)
		r.Put("/{id}", s.updateBucket)
		r.Delete("/{id}", s.deleteBucket)
		r.Post("/{id}/test", s.testBucket)
	})
	r.With(s.requireAuth).Get("/uploads", s.listUploads)
}

// adapterForOwner loads the bucket config, checks ownership, and constructs
// a per-request adapter from the stored credentials.
func (s *server) adapterForOwner(id string, ownerID uint) (storage.Adapter, *models.BucketConfig, error) {
	cfg, err := s.buckets.GetForOwner(id, ownerID)
	if err != nil {
		return nil, nil, err
	}
	a, err := s.newAdapter(adapterConfig(cfg))
	if err != nil {
		return nil, nil, err
	}
	return a, cfg, nil
}

func adapterConfig(cfg *models.BucketConfig) storage.Config {
	return storage.Config{
		EndpointURL:      cfg.EndpointURL,
		Region:           cfg.Region,
		AccessKeyID:      cfg.AccessKeyID,
		SecretAccessKey:  cfg.SecretAccessKey,
		RemoteBucketName: cfg.RemoteBucketName,
		ForcePathStyle:   cfg.ForcePathStyle,
	}
}

func (s *server) listBuckets(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	rows, err := s.buckets.ListForOwner(u.ID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"buckets": rows})
}

func (s *server) createBucket(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	var in bucketcfg.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id, err := s.buckets.Create(u.ID, in)
	if err != nil {
		respondAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (s *server) getBucket(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	cfg, err := s.buckets.GetForOwner(chi.URLParam(r, "id"), u.ID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	// credential fields carry json:"-" so they never serialize here
	writeJSON(w, http.StatusOK, cfg)
}

func (s *server) updateBucket(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	var in bucketcfg.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.buckets.Update(chi.URLParam(r, "id"), u.ID, in); err != nil {
		respondAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *server) deleteBucket(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	if err := s.buckets.Delete(chi.URLParam(r, "id"), u.ID); err != nil {
		respondAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// testBucket probes the remote endpoint with a bounded listing and reports
// latency. It never fails the HTTP call; all failure detail is in the body.
func (s *server) testBucket(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	a, _, err := s.adapterForOwner(chi.URLParam(r, "id"), u.ID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.TestConnection(r.Context()))
}

func (s *server) listUploads(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	var rows []models.UploadRecord
	if err := s.db.Where("user_id = ?", u.ID).Order("created_at desc").Limit(200).Find(&rows).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"uploads": rows})
}
