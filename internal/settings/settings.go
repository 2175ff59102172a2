// Package settings resolves site configuration through three layers: a
// durable SiteSetting row wins over an environment variable, which wins over
// the compiled default. Resolved values are cached process-wide with a short
// TTL; writes invalidate the cache synchronously so a read that follows a
// write in the same process always sees the new value.
package settings

import (
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/arcwave/nereus/internal/models"

	"gorm.io/gorm"
)

const (
	KeySiteName      = "site_name"
	KeyAllowRegister = "allow_register"
	KeyDefaultBucket = "default_bucket"
)

// definition ties a settings key to its env fallback and compiled default.
type definition struct {
	env string
	def string
}

var definitions = map[string]definition{
	KeySiteName:      {env: "SITE_NAME", def: "Nereus"},
	KeyAllowRegister: {env: "ALLOW_REGISTER", def: "true"},
	KeyDefaultBucket: {env: "DEFAULT_BUCKET", def: ""},
}

const cacheTTL = 30 * time.Second

type cached struct {
	value   string
	expires time.Time
}

type Resolver struct {
	db *gorm.DB

	mu    sync.Mutex
	cache map[string]cached
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db, cache: make(map[string]cached)}
}

// Get resolves key through db, env, default. Unknown keys resolve to "".
func (r *Resolver) Get(key string) string {
	r.mu.Lock()
	if c, ok := r.cache[key]; ok && time.Now().Before(c.expires) {
		r.mu.Unlock()
		return c.value
	}
	r.mu.Unlock()

	v := r.resolve(key)

	r.mu.Lock()
	r.cache[key] = cached{value: v, expires: time.Now().Add(cacheTTL)}
	r.mu.Unlock()
	return v
}

func (r *Resolver) resolve(key string) string {
	var row models.SiteSetting
	if err := r.db.Where("key = ?", key).First(&row).Error; err == nil {
		return row.Value
	}
	def, ok := definitions[key]
	if !ok {
		return ""
	}
	if v, present := os.LookupEnv(def.env); present {
		return v
	}
	return def.def
}

// GetBool resolves key and interprets the value leniently; anything that is
// not a recognizable boolean falls back to the compiled default.
func (r *Resolver) GetBool(key string) bool {
	v, err := strconv.ParseBool(r.Get(key))
	if err != nil {
		d, _ := strconv.ParseBool(definitions[key].def)
		return d
	}
	return v
}

// Set writes the durable override and drops the cached entry before
// returning.
func (r *Resolver) Set(key, value string) error {
	row := models.SiteSetting{Key: key, Value: value, UpdatedAt: time.Now()}
	if err := r.db.Save(&row).Error; err != nil {
		return err
	}
	r.invalidate(key)
	return nil
}

// Clear removes the durable override so env and default apply again.
func (r *Resolver) Clear(key string) error {
	if err := r.db.Delete(&models.SiteSetting{}, "key = ?", key).Error; err != nil {
		return err
	}
	r.invalidate(key)
	return nil
}

func (r *Resolver) invalidate(key string) {
	r.mu.Lock()
	delete(r.cache, key)
	r.mu.Unlock()
}

// Snapshot resolves every known key, for the public site-config endpoint.
func (r *Resolver) Snapshot() map[string]string {
	out := make(map[string]string, len(definitions))
	for key := range definitions {
		out[key] = r.Get(key)
	}
	return out
}
