package api

import (
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/arcwave/nereus/internal/access"
	"github.com/arcwave/nereus/internal/bucketcfg"
	"github.com/arcwave/nereus/internal/config"
	"github.com/arcwave/nereus/internal/db"
	"github.com/arcwave/nereus/internal/logging"
	"github.com/arcwave/nereus/internal/settings"
	"github.com/arcwave/nereus/internal/storage"
	"github.com/arcwave/nereus/internal/version"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"gorm.io/gorm"
)

// server holds the per-process collaborators every handler needs. Adapters
// are still constructed per request from the resolved bucket config;
// newAdapter exists so tests can substitute an in-memory store.
type server struct {
	cfg        *config.Config
	logger     logging.Logger
	db         *gorm.DB
	buckets    *bucketcfg.Store
	gate       *access.Gate
	site       *settings.Resolver
	newAdapter func(storage.Config) (storage.Adapter, error)
}

func newServer(cfg *config.Config, logger logging.Logger, gdb *gorm.DB) *server {
	s := &server{
		cfg:        cfg,
		logger:     logger,
		db:         gdb,
		buckets:    bucketcfg.NewStore(gdb),
		gate:       access.NewGate(gdb),
		site:       settings.NewResolver(gdb),
		newAdapter: storage.New,
	}
	s.buckets.DefaultBucketID = func() string { return s.site.Get(settings.KeyDefaultBucket) }
	return s
}

type statusRecorder struct {
	http.ResponseWriter
	code  int
	bytes int64
}

func (sr *statusRecorder) WriteHeader(statusCode int) {
	sr.code = statusCode
	sr.ResponseWriter.WriteHeader(statusCode)
}
func (sr *statusRecorder) Write(b []byte) (int, error) {
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += int64(n)
	return n, err
}

func Router(cfg *config.Config, logger logging.Logger) http.Handler {
	return newServer(cfg, logger, db.DB).routes()
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	}))
	r.Use(s.requestLog)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })

	r.Route("/api", func(r chi.Router) {
		r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"name": "nereus", "version": version.Version})
		})
		r.Route("/v1", func(r chi.Router) {
			s.registerAuth(r)
			s.registerBuckets(r)
			s.registerObjects(r)
			s.registerRaw(r)
			s.registerMeta(r)
			s.registerSite(r)
			s.registerMetrics(r)
		})
	})

	// static SPA from disk, falling back to index.html for client routes
	fs := http.FileServer(http.Dir(s.cfg.StaticDir))
	r.Handle("/*", spaHandler(s.cfg.StaticDir, fs))
	return r
}

// requestLog emits one structured line per request and feeds the metrics
// counters.
func (s *server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddUint64(&totalRequests, 1)
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: 200}
		next.ServeHTTP(rec, r)
		dur := time.Since(start)
		atomic.AddUint64(&totalDurationNs, uint64(dur))
		if rec.bytes > 0 {
			atomic.AddUint64(&bytesOut, uint64(rec.bytes))
		}
		if rec.code >= 500 {
			atomic.AddUint64(&total5xx, 1)
		} else if rec.code >= 400 {
			atomic.AddUint64(&total4xx, 1)
		}
		s.logger.Info("http_request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.code,
			"durationMs", float64(dur)/1e6,
			"bytesOut", rec.bytes,
		)
	})
}

type spa struct {
	dir  string
	next http.Handler
}

func spaHandler(dir string, next http.Handler) http.Handler {
	return &spa{dir: dir, next: next}
}

func (s *spa) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p := filepath.Join(s.dir, r.URL.Path)
	if info, err := os.Stat(p); err == nil && !info.IsDir() {
		s.next.ServeHTTP(w, r)
		return
	}
	http.ServeFile(w, r, filepath.Join(s.dir, "index.html"))
}
