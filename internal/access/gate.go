// Package access decides read visibility for the public raw-serving
// namespace. Everything else in the API requires an authenticated owner and
// never consults this gate.
package access

import (
	"errors"
	"time"

	"github.com/arcwave/nereus/internal/models"

	"gorm.io/gorm"
)

// Gate answers "may this requester read this path" for one bucket.
type Gate struct {
	db *gorm.DB
}

func NewGate(db *gorm.DB) *Gate { return &Gate{db: db} }

// CanRead allows the bucket owner unconditionally. Anyone else is allowed
// only when a PathMetadata row for (bucketID, path) exists with IsPublic set;
// no row means private. PasswordHash is deliberately not enforced here: there
// is no verification path yet, and honoring it would lock out objects that
// set it.
func (g *Gate) CanRead(bucketID, path string, requesterID, ownerID uint) bool {
	if requesterID != 0 && requesterID == ownerID {
		return true
	}
	meta, err := g.Lookup(bucketID, path)
	if err != nil {
		return false
	}
	return meta.IsPublic
}

// Lookup returns the metadata row for (bucketID, path), or
// gorm.ErrRecordNotFound.
func (g *Gate) Lookup(bucketID, path string) (*models.PathMetadata, error) {
	var meta models.PathMetadata
	err := g.db.Where("bucket_id = ? AND path = ?", bucketID, path).First(&meta).Error
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

// SetVisibility upserts the (bucketID, path) row, toggling IsPublic and
// replacing tags. Ownership is checked by the caller before this runs.
func (g *Gate) SetVisibility(bucketID, path string, isPublic bool, tags string) error {
	var meta models.PathMetadata
	err := g.db.Where("bucket_id = ? AND path = ?", bucketID, path).First(&meta).Error
	switch {
	case err == nil:
		meta.IsPublic = isPublic
		meta.Tags = tags
		meta.UpdatedAt = time.Now()
		return g.db.Save(&meta).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		return g.db.Create(&models.PathMetadata{
			BucketID: bucketID,
			Path:     path,
			IsPublic: isPublic,
			Tags:     tags,
		}).Error
	default:
		return err
	}
}
