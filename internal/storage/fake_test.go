package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/arcwave/nereus/internal/apperr"
)

// fakeObject is one stored object in the in-memory adapter.
type fakeObject struct {
	data        []byte
	contentType string
	metadata    map[string]string
	modified    time.Time
}

// fakeAdapter is an in-memory Adapter honoring the same contract as the
// minio-backed one: idempotent delete, not-found on missing copy source,
// capped listing with delimiter grouping.
type fakeAdapter struct {
	objects map[string]fakeObject
	// failDelete simulates a crash between the copy and delete phases.
	failDelete bool
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{objects: map[string]fakeObject{}}
}

func fakeETag(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

func (f *fakeAdapter) List(ctx context.Context, prefix string, opts ListOptions) (ListingPage, error) {
	delimiter := opts.Delimiter
	if delimiter == "" {
		delimiter = "/"
	}
	limit := clampLimit(opts.Limit)

	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	page := ListingPage{Prefix: prefix}
	folders := map[string]bool{}
	count := 0
	for _, k := range keys {
		if opts.StartAfter != "" && k <= opts.StartAfter {
			continue
		}
		if opts.ContinuationCursor != "" && k <= opts.ContinuationCursor {
			continue
		}
		if count >= limit {
			page.HasMore = true
			break
		}
		rest := strings.TrimPrefix(k, prefix)
		if idx := strings.Index(rest, delimiter); idx >= 0 {
			folder := prefix + rest[:idx]
			if !folders[folder] {
				folders[folder] = true
				page.Folders = append(page.Folders, folder)
				count++
			}
			continue
		}
		obj := f.objects[k]
		page.Objects = append(page.Objects, ObjectRef{
			Key:          k,
			Size:         int64(len(obj.data)),
			LastModified: obj.modified,
			ETag:         fakeETag(obj.data),
			ContentType:  obj.contentType,
		})
		count++
	}
	if page.HasMore {
		last := ""
		if n := len(page.Objects); n > 0 {
			last = page.Objects[n-1].Key
		}
		if n := len(page.Folders); n > 0 && page.Folders[n-1] > last {
			last = page.Folders[n-1]
		}
		page.ContinuationCursor = last
	}
	return page, nil
}

func (f *fakeAdapter) Get(ctx context.Context, key string) (*GetResult, error) {
	obj, ok := f.objects[key]
	if !ok {
		return nil, apperr.NotFound("get object: no such key %s", key)
	}
	ct := obj.contentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	return &GetResult{
		Body:        io.NopCloser(bytes.NewReader(obj.data)),
		ContentType: ct,
		ETag:        fakeETag(obj.data),
		Size:        int64(len(obj.data)),
	}, nil
}

func (f *fakeAdapter) Put(ctx context.Context, key string, body io.Reader, size int64, opts PutOptions) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", apperr.RemoteStore(0, "put object", err)
	}
	f.objects[key] = fakeObject{data: data, contentType: opts.ContentType, metadata: opts.Metadata, modified: time.Now()}
	return fakeETag(data), nil
}

func (f *fakeAdapter) Delete(ctx context.Context, key string) error {
	if f.failDelete {
		return apperr.RemoteStore(500, "delete object", fmt.Errorf("injected delete failure"))
	}
	// Absent keys delete cleanly.
	delete(f.objects, key)
	return nil
}

func (f *fakeAdapter) Copy(ctx context.Context, srcKey, destKey string, opts PutOptions) (string, error) {
	src, ok := f.objects[srcKey]
	if !ok {
		return "", apperr.NotFound("copy object: no such key %s", srcKey)
	}
	dst := fakeObject{data: append([]byte(nil), src.data...), contentType: src.contentType, metadata: src.metadata, modified: time.Now()}
	if opts.ContentType != "" {
		dst.contentType = opts.ContentType
	}
	if len(opts.Metadata) > 0 {
		dst.metadata = opts.Metadata
	}
	f.objects[destKey] = dst
	return fakeETag(dst.data), nil
}

func (f *fakeAdapter) PresignPut(ctx context.Context, key string, opts PresignPutOptions) (Presigned, error) {
	headers := map[string]string{}
	if opts.ContentType != "" {
		headers["Content-Type"] = opts.ContentType
	}
	return Presigned{
		Method:    "PUT",
		URL:       "https://fake.example/" + key + "?sig=put",
		Headers:   headers,
		ExpiresIn: int(opts.ExpiresIn / time.Second),
	}, nil
}

func (f *fakeAdapter) PresignGet(ctx context.Context, key string, opts PresignGetOptions) (Presigned, error) {
	return Presigned{
		Method:    "GET",
		URL:       "https://fake.example/" + key + "?sig=get",
		Headers:   map[string]string{},
		ExpiresIn: int(opts.ExpiresIn / time.Second),
	}, nil
}

func (f *fakeAdapter) TestConnection(ctx context.Context) TestResult {
	return TestResult{OK: true, LatencyMs: 1}
}
