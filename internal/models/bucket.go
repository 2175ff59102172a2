package models

import "time"

// BucketConfig is one tenant's connection to one remote S3-compatible bucket.
// ID is a short opaque identifier that also appears in virtual URLs; it is
// immutable after creation, as is OwnerID.
type BucketConfig struct {
	ID               string    `gorm:"primaryKey" json:"id"`
	OwnerID          uint      `gorm:"index;not null" json:"ownerId"`
	DisplayName      string    `gorm:"not null" json:"displayName"`
	CdnBaseURL       string    `json:"cdnBaseUrl"`
	EndpointURL      string    `gorm:"not null" json:"endpointUrl"`
	Region           string    `gorm:"not null;default:auto" json:"region"`
	AccessKeyID      string    `json:"-"`
	SecretAccessKey  string    `json:"-"`
	RemoteBucketName string    `gorm:"not null" json:"remoteBucketName"`
	ForcePathStyle   bool      `json:"forcePathStyle"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// PathMetadata overlays per-path flags on top of a remote key or prefix.
// At most one row exists per (BucketID, Path).
// PasswordHash is reserved for per-path password protection; it is stored but
// never enforced until a verification flow exists.
type PathMetadata struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	BucketID     string    `gorm:"uniqueIndex:idx_bucket_path;not null" json:"bucketId"`
	Path         string    `gorm:"uniqueIndex:idx_bucket_path;not null" json:"path"`
	IsPublic     bool      `json:"isPublic"`
	Tags         string    `json:"tags"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
