package presign

import (
	"context"
	"io"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/arcwave/nereus/internal/apperr"
	"github.com/arcwave/nereus/internal/storage"
)

// stubAdapter records the presign options it was handed.
type stubAdapter struct {
	lastPut storage.PresignPutOptions
	lastGet storage.PresignGetOptions
}

func (s *stubAdapter) List(context.Context, string, storage.ListOptions) (storage.ListingPage, error) {
	return storage.ListingPage{}, nil
}
func (s *stubAdapter) Get(context.Context, string) (*storage.GetResult, error) { return nil, nil }
func (s *stubAdapter) Put(context.Context, string, io.Reader, int64, storage.PutOptions) (string, error) {
	return "", nil
}
func (s *stubAdapter) Delete(context.Context, string) error { return nil }
func (s *stubAdapter) Copy(context.Context, string, string, storage.PutOptions) (string, error) {
	return "", nil
}
func (s *stubAdapter) PresignPut(_ context.Context, key string, opts storage.PresignPutOptions) (storage.Presigned, error) {
	s.lastPut = opts
	return storage.Presigned{Method: "PUT", URL: "https://signed.example/" + key, ExpiresIn: int(opts.ExpiresIn.Seconds())}, nil
}
func (s *stubAdapter) PresignGet(_ context.Context, key string, opts storage.PresignGetOptions) (storage.Presigned, error) {
	s.lastGet = opts
	return storage.Presigned{Method: "GET", URL: "https://signed.example/" + key, ExpiresIn: int(opts.ExpiresIn.Seconds())}, nil
}
func (s *stubAdapter) TestConnection(context.Context) storage.TestResult {
	return storage.TestResult{OK: true}
}

func TestClampExpires(t *testing.T) {
	cases := []struct {
		name string
		raw  any
		want time.Duration
	}{
		{"default when nil", nil, 15 * time.Minute},
		{"default on garbage string", "soon", 15 * time.Minute},
		{"default on NaN", math.NaN(), 15 * time.Minute},
		{"default on +Inf", math.Inf(1), 15 * time.Minute},
		{"default on wrong type", []string{"900"}, 15 * time.Minute},
		{"floor below minimum", float64(10), 60 * time.Second},
		{"cap above maximum", float64(999999), time.Hour},
		{"in range", float64(300), 300 * time.Second},
		{"fractional seconds floored", float64(90.9), 90 * time.Second},
		{"numeric string accepted", "120", 120 * time.Second},
		{"negative clamps to minimum", float64(-5), 60 * time.Second},
		{"exact bounds", float64(3600), time.Hour},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := ClampExpires(c.raw); got != c.want {
				t.Fatalf("ClampExpires(%v)=%v want %v", c.raw, got, c.want)
			}
		})
	}
}

func TestValidateKey(t *testing.T) {
	if err := ValidateKey("docs/report.pdf"); err != nil {
		t.Fatalf("valid key rejected: %v", err)
	}
	bad := []struct {
		name string
		key  string
	}{
		{"empty", ""},
		{"leading slash", "/docs/report.pdf"},
		{"embedded NUL", "docs/\x00evil"},
		{"over length", strings.Repeat("k", 1025)},
	}
	for _, c := range bad {
		t.Run(c.name, func(t *testing.T) {
			err := ValidateKey(c.key)
			if !apperr.IsInvalidKey(err) {
				t.Fatalf("expected invalid-key error, got %v", err)
			}
		})
	}
	// 1024 bytes is the inclusive maximum.
	if err := ValidateKey(strings.Repeat("k", 1024)); err != nil {
		t.Fatalf("1024-byte key rejected: %v", err)
	}
}

func TestUploadBindsContentType(t *testing.T) {
	stub := &stubAdapter{}
	svc := &Service{Adapter: stub}
	p, err := svc.Upload(context.Background(), "a/b.png", " image/png ", float64(600))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if stub.lastPut.ContentType != "image/png" {
		t.Fatalf("contentType=%q", stub.lastPut.ContentType)
	}
	if stub.lastPut.ExpiresIn != 600*time.Second {
		t.Fatalf("expires=%v", stub.lastPut.ExpiresIn)
	}
	if p.ExpiresIn != 600 {
		t.Fatalf("reported expiresIn=%d", p.ExpiresIn)
	}
}

func TestUploadRejectsBadKeyBeforeAdapter(t *testing.T) {
	stub := &stubAdapter{}
	svc := &Service{Adapter: stub}
	_, err := svc.Upload(context.Background(), "/abs.txt", "", nil)
	if !apperr.IsInvalidKey(err) {
		t.Fatalf("expected invalid-key error, got %v", err)
	}
	if stub.lastPut.ExpiresIn != 0 {
		t.Fatal("adapter was called for a rejected key")
	}
}

func TestDownloadPassesDisposition(t *testing.T) {
	stub := &stubAdapter{}
	svc := &Service{Adapter: stub}
	if _, err := svc.Download(context.Background(), "docs/q.pdf", true, "quarterly.pdf", nil); err != nil {
		t.Fatalf("download: %v", err)
	}
	if !stub.lastGet.Download || stub.lastGet.FileName != "quarterly.pdf" {
		t.Fatalf("opts=%+v", stub.lastGet)
	}
	if stub.lastGet.ExpiresIn != 15*time.Minute {
		t.Fatalf("expires=%v", stub.lastGet.ExpiresIn)
	}
}
