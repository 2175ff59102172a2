package models

import (
	"time"
)

type User struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	Email              string    `gorm:"uniqueIndex" json:"email"`
	Password           string    `json:"-"`
	Role               string    `json:"role"`
	MustChangePassword bool      `json:"mustChangePassword"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// Session is a durable login session. The cookie carries the random token;
// only its SHA-256 hash is stored, so a leaked table cannot be replayed.
type Session struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"userId"`
	TokenHash string    `gorm:"uniqueIndex;not null" json:"-"`
	LoginUA   string    `json:"loginUa"`
	LoginXFF  string    `json:"loginXff"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `gorm:"index" json:"expiresAt"`
}

// UploadRecord keeps a per-user history of issued uploads.
type UploadRecord struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index;not null" json:"userId"`
	BucketID    string    `gorm:"index;not null" json:"bucketId"`
	ObjectKey   string    `gorm:"not null" json:"objectKey"`
	ObjectSize  int64     `json:"objectSize"`
	ContentType string    `json:"contentType"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SiteSetting is one durable key/value override for the layered settings
// resolver (db > env > compiled default).
type SiteSetting struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}
