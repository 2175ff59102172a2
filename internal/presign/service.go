// Package presign validates object keys and expiry requests before handing
// them to the storage adapter. Keys that fail the gate never reach the remote
// endpoint.
package presign

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/arcwave/nereus/internal/apperr"
	"github.com/arcwave/nereus/internal/storage"
)

const (
	minExpires     = 60 * time.Second
	maxExpires     = time.Hour
	defaultExpires = 15 * time.Minute

	maxKeyLength = 1024
)

// Service issues presigned URLs for one resolved bucket.
type Service struct {
	Adapter storage.Adapter
}

// ClampExpires normalizes a client-supplied expiry into [60s, 1h]. The input
// is whatever the JSON decoder produced: numbers, numeric strings, or
// garbage. Anything non-finite or unparsable yields the 15 minute default;
// fractional seconds are floored.
func ClampExpires(raw any) time.Duration {
	var secs float64
	switch v := raw.(type) {
	case float64:
		secs = v
	case int:
		secs = float64(v)
	case int64:
		secs = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return defaultExpires
		}
		secs = parsed
	case nil:
		return defaultExpires
	default:
		return defaultExpires
	}
	if math.IsNaN(secs) || math.IsInf(secs, 0) {
		return defaultExpires
	}
	d := time.Duration(math.Floor(secs)) * time.Second
	if d < minExpires {
		return minExpires
	}
	if d > maxExpires {
		return maxExpires
	}
	return d
}

// ValidateKey is the gate every presign request passes. It rejects keys that
// are empty, longer than 1024 bytes, absolute (leading slash), or that embed
// a NUL byte.
func ValidateKey(key string) error {
	if key == "" {
		return apperr.InvalidKey("object key must not be empty")
	}
	if len(key) > maxKeyLength {
		return apperr.InvalidKey("object key exceeds %d bytes", maxKeyLength)
	}
	if strings.HasPrefix(key, "/") {
		return apperr.InvalidKey("object key must not start with a slash")
	}
	if strings.ContainsRune(key, '\x00') {
		return apperr.InvalidKey("object key must not contain NUL")
	}
	return nil
}

// Upload returns a presigned PUT for key. When contentType is set the
// signature binds it, so the eventual upload must send the same Content-Type
// header.
func (s *Service) Upload(ctx context.Context, key, contentType string, rawExpires any) (storage.Presigned, error) {
	if err := ValidateKey(key); err != nil {
		return storage.Presigned{}, err
	}
	return s.Adapter.PresignPut(ctx, key, storage.PresignPutOptions{
		ExpiresIn:   ClampExpires(rawExpires),
		ContentType: strings.TrimSpace(contentType),
	})
}

// Download returns a presigned GET for key. With download set, the signed URL
// forces an attachment disposition using fileName (or the key's basename).
func (s *Service) Download(ctx context.Context, key string, download bool, fileName string, rawExpires any) (storage.Presigned, error) {
	if err := ValidateKey(key); err != nil {
		return storage.Presigned{}, err
	}
	return s.Adapter.PresignGet(ctx, key, storage.PresignGetOptions{
		ExpiresIn: ClampExpires(rawExpires),
		Download:  download,
		FileName:  fileName,
	})
}
