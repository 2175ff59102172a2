// Package bucketcfg persists per-user bucket configurations and enforces
// ownership on every mutating and credential-revealing call.
package bucketcfg

import (
	"crypto/rand"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/arcwave/nereus/internal/apperr"
	"github.com/arcwave/nereus/internal/models"

	"gorm.io/gorm"
)

// Store is the CRUD surface over BucketConfig rows.
type Store struct {
	db *gorm.DB
	// DefaultBucketID, when set, wins over first-registered in ResolveDefaultBucket.
	DefaultBucketID func() string
}

func NewStore(db *gorm.DB) *Store { return &Store{db: db} }

// Input carries the fields of a create or update request. On update, empty
// AccessKeyID/SecretAccessKey preserve the stored credentials so rotation is
// opt-in per call.
type Input struct {
	DisplayName      string `json:"displayName"`
	CdnBaseURL       string `json:"cdnBaseUrl"`
	EndpointURL      string `json:"endpointUrl"`
	Region           string `json:"region"`
	AccessKeyID      string `json:"accessKeyId"`
	SecretAccessKey  string `json:"secretAccessKey"`
	RemoteBucketName string `json:"remoteBucketName"`
	ForcePathStyle   bool   `json:"forcePathStyle"`
}

// normalize trims fields and applies the region default.
func (in *Input) normalize() {
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	in.EndpointURL = strings.TrimSpace(in.EndpointURL)
	in.Region = strings.TrimSpace(in.Region)
	if in.Region == "" {
		in.Region = "auto"
	}
	in.AccessKeyID = strings.TrimSpace(in.AccessKeyID)
	in.RemoteBucketName = strings.TrimSpace(in.RemoteBucketName)
	in.CdnBaseURL = normalizeBaseURL(strings.TrimSpace(in.CdnBaseURL))
}

// normalizeBaseURL guarantees a trailing slash so keys can be joined safely.
func normalizeBaseURL(v string) string {
	if v == "" {
		return ""
	}
	if strings.HasSuffix(v, "/") {
		return v
	}
	return v + "/"
}

// validate reports the first violated field.
func (in *Input) validate(requireCreds bool) error {
	if in.DisplayName == "" {
		return apperr.Validation("displayName", "displayName is required")
	}
	if in.RemoteBucketName == "" {
		return apperr.Validation("remoteBucketName", "remoteBucketName is required")
	}
	if u, err := url.Parse(in.EndpointURL); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return apperr.Validation("endpointUrl", "endpointUrl must be an absolute http(s) URL")
	}
	if in.Region == "" {
		return apperr.Validation("region", "region is required")
	}
	if requireCreds {
		if in.AccessKeyID == "" {
			return apperr.Validation("accessKeyId", "accessKeyId is required")
		}
		if in.SecretAccessKey == "" {
			return apperr.Validation("secretAccessKey", "secretAccessKey is required")
		}
	}
	return nil
}

// idAlphabet is URL-safe and unambiguous in virtual paths.
const idAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const idLength = 12

func newBucketID() string {
	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		panic(err) // crypto/rand failure is not recoverable
	}
	for i := range b {
		b[i] = idAlphabet[int(b[i])%len(idAlphabet)]
	}
	return string(b)
}

// Create validates the input and inserts a new config with a fresh short id.
func (s *Store) Create(ownerID uint, in Input) (string, error) {
	in.normalize()
	if err := in.validate(true); err != nil {
		return "", err
	}
	// Regenerate on the (unlikely) id collision rather than failing the call.
	for attempt := 0; attempt < 5; attempt++ {
		id := newBucketID()
		var count int64
		if err := s.db.Model(&models.BucketConfig{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return "", err
		}
		if count > 0 {
			continue
		}
		cfg := models.BucketConfig{
			ID:               id,
			OwnerID:          ownerID,
			DisplayName:      in.DisplayName,
			CdnBaseURL:       in.CdnBaseURL,
			EndpointURL:      in.EndpointURL,
			Region:           in.Region,
			AccessKeyID:      in.AccessKeyID,
			SecretAccessKey:  in.SecretAccessKey,
			RemoteBucketName: in.RemoteBucketName,
			ForcePathStyle:   in.ForcePathStyle,
		}
		if err := s.db.Create(&cfg).Error; err != nil {
			return "", err
		}
		return id, nil
	}
	return "", apperr.Validation("id", "could not allocate a unique bucket id")
}

// ListForOwner returns the caller's configs with credential fields cleared.
func (s *Store) ListForOwner(ownerID uint) ([]models.BucketConfig, error) {
	var rows []models.BucketConfig
	if err := s.db.Where("owner_id = ?", ownerID).Order("created_at asc, id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].AccessKeyID = ""
		rows[i].SecretAccessKey = ""
	}
	return rows, nil
}

// GetFullByID returns all fields including credentials. It carries no
// ownership check and exists only for code paths that must construct a
// storage adapter; everything user-facing goes through GetForOwner.
func (s *Store) GetFullByID(id string) (*models.BucketConfig, error) {
	var cfg models.BucketConfig
	if err := s.db.Where("id = ?", id).First(&cfg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("bucket %s not found", id)
		}
		return nil, err
	}
	return &cfg, nil
}

// GetForOwner returns the full config after verifying ownership.
func (s *Store) GetForOwner(id string, ownerID uint) (*models.BucketConfig, error) {
	cfg, err := s.GetFullByID(id)
	if err != nil {
		return nil, err
	}
	if cfg.OwnerID != ownerID {
		return nil, apperr.Forbidden("bucket %s is not owned by the caller", id)
	}
	return cfg, nil
}

// Update changes only the provided fields. Empty credential fields keep the
// stored values.
func (s *Store) Update(id string, ownerID uint, in Input) error {
	cfg, err := s.GetForOwner(id, ownerID)
	if err != nil {
		return err
	}
	in.normalize()
	if err := in.validate(false); err != nil {
		return err
	}
	cfg.DisplayName = in.DisplayName
	cfg.CdnBaseURL = in.CdnBaseURL
	cfg.EndpointURL = in.EndpointURL
	cfg.Region = in.Region
	cfg.RemoteBucketName = in.RemoteBucketName
	cfg.ForcePathStyle = in.ForcePathStyle
	if in.AccessKeyID != "" {
		cfg.AccessKeyID = in.AccessKeyID
	}
	if in.SecretAccessKey != "" {
		cfg.SecretAccessKey = in.SecretAccessKey
	}
	cfg.UpdatedAt = time.Now()
	return s.db.Save(cfg).Error
}

// Delete removes the row. Remote bucket contents are untouched.
func (s *Store) Delete(id string, ownerID uint) error {
	if _, err := s.GetForOwner(id, ownerID); err != nil {
		return err
	}
	return s.db.Delete(&models.BucketConfig{}, "id = ?", id).Error
}

// ResolveDefaultBucket picks the bucket used when a virtual path omits the
// bucket segment: the configured default id if it belongs to the owner, else
// the first-registered bucket, else none.
func (s *Store) ResolveDefaultBucket(ownerID uint) (string, bool) {
	if s.DefaultBucketID != nil {
		if id := s.DefaultBucketID(); id != "" {
			var count int64
			if err := s.db.Model(&models.BucketConfig{}).Where("id = ? AND owner_id = ?", id, ownerID).Count(&count).Error; err == nil && count > 0 {
				return id, true
			}
		}
	}
	var cfg models.BucketConfig
	if err := s.db.Where("owner_id = ?", ownerID).Order("created_at asc, id asc").First(&cfg).Error; err != nil {
		return "", false
	}
	return cfg.ID, true
}

// KnownForOwner reports whether id names a bucket the owner may enumerate.
func (s *Store) KnownForOwner(id string, ownerID uint) bool {
	var count int64
	if err := s.db.Model(&models.BucketConfig{}).Where("id = ? AND owner_id = ?", id, ownerID).Count(&count).Error; err != nil {
		return false
	}
	return count > 0
}
