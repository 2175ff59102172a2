package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/arcwave/nereus/internal/apperr"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// s3Adapter implements Adapter on top of minio-go, which speaks to any
// S3-compatible endpoint (MinIO, R2, AWS, MCG, ...).
type s3Adapter struct {
	mc     *minio.Client
	core   *minio.Core
	bucket string
}

// New constructs an adapter for one bucket connection. The endpoint scheme
// decides TLS; forcePathStyle selects path-style over virtual-host addressing.
func New(cfg Config) (Adapter, error) {
	host, secure, err := normalizeEndpoint(cfg.EndpointURL)
	if err != nil {
		return nil, apperr.Validation("endpointUrl", "endpointUrl must be an absolute URL")
	}
	lookup := minio.BucketLookupAuto
	if cfg.ForcePathStyle {
		lookup = minio.BucketLookupPath
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "auto"
	}
	core, err := minio.NewCore(host, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure:       secure,
		Region:       region,
		BucketLookup: lookup,
	})
	if err != nil {
		return nil, err
	}
	return &s3Adapter{mc: core.Client, core: core, bucket: cfg.RemoteBucketName}, nil
}

// normalizeEndpoint strips the scheme for minio.New and derives TLS from it.
// A missing scheme is rejected: BucketConfig requires an absolute URL.
func normalizeEndpoint(endpoint string) (host string, secure bool, err error) {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return "", false, err
	}
	if u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", false, fmt.Errorf("endpoint %q is not an absolute http(s) URL", endpoint)
	}
	return u.Host, u.Scheme == "https", nil
}

// unquoteETag strips the quotes some backends wrap around ETags.
func unquoteETag(etag string) string {
	return strings.Trim(etag, `"`)
}

// wrapRemote maps a provider failure into the error taxonomy: a missing-object
// or missing-bucket condition becomes NotFound, everything else RemoteStoreError
// carrying the provider status code.
func wrapRemote(op string, err error) error {
	resp := minio.ToErrorResponse(err)
	switch {
	case resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" || resp.StatusCode == http.StatusNotFound:
		return apperr.NotFound("%s: %s", op, resp.Message)
	default:
		return apperr.RemoteStore(resp.StatusCode, op, err)
	}
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > maxListKeys {
		return maxListKeys
	}
	return limit
}

func (a *s3Adapter) List(ctx context.Context, prefix string, opts ListOptions) (ListingPage, error) {
	delimiter := opts.Delimiter
	if delimiter == "" {
		delimiter = "/"
	}
	res, err := a.core.ListObjectsV2(a.bucket, prefix, opts.StartAfter, opts.ContinuationCursor, delimiter, clampLimit(opts.Limit))
	if err != nil {
		return ListingPage{}, wrapRemote("list objects", err)
	}
	page := ListingPage{Prefix: prefix, HasMore: res.IsTruncated}
	for _, obj := range res.Contents {
		page.Objects = append(page.Objects, ObjectRef{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
			ETag:         unquoteETag(obj.ETag),
			ContentType:  obj.ContentType,
		})
	}
	for _, cp := range res.CommonPrefixes {
		page.Folders = append(page.Folders, strings.TrimSuffix(cp.Prefix, delimiter))
	}
	if page.HasMore {
		page.ContinuationCursor = res.NextContinuationToken
	}
	return page, nil
}

func (a *s3Adapter) Get(ctx context.Context, key string) (*GetResult, error) {
	obj, err := a.mc.GetObject(ctx, a.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, wrapRemote("get object", err)
	}
	// GetObject is lazy; Stat performs the round trip and surfaces NoSuchKey.
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, wrapRemote("get object", err)
	}
	ct := info.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	return &GetResult{Body: obj, ContentType: ct, ETag: unquoteETag(info.ETag), Size: info.Size}, nil
}

func (a *s3Adapter) Put(ctx context.Context, key string, body io.Reader, size int64, opts PutOptions) (string, error) {
	info, err := a.mc.PutObject(ctx, a.bucket, key, body, size, minio.PutObjectOptions{
		ContentType:  opts.ContentType,
		UserMetadata: opts.Metadata,
	})
	if err != nil {
		return "", wrapRemote("put object", err)
	}
	return unquoteETag(info.ETag), nil
}

func (a *s3Adapter) Delete(ctx context.Context, key string) error {
	err := a.mc.RemoveObject(ctx, a.bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		// Deleting an already-absent key is success, not an error.
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
			return nil
		}
		return wrapRemote("delete object", err)
	}
	return nil
}

func (a *s3Adapter) Copy(ctx context.Context, srcKey, destKey string, opts PutOptions) (string, error) {
	dst := minio.CopyDestOptions{Bucket: a.bucket, Object: destKey}
	if opts.ContentType != "" || len(opts.Metadata) > 0 {
		md := make(map[string]string, len(opts.Metadata)+1)
		for k, v := range opts.Metadata {
			md[k] = v
		}
		if opts.ContentType != "" {
			md["Content-Type"] = opts.ContentType
		}
		dst.UserMetadata = md
		dst.ReplaceMetadata = true
	}
	info, err := a.mc.CopyObject(ctx, dst, minio.CopySrcOptions{Bucket: a.bucket, Object: srcKey})
	if err != nil {
		return "", wrapRemote("copy object", err)
	}
	return unquoteETag(info.ETag), nil
}

func (a *s3Adapter) PresignPut(ctx context.Context, key string, opts PresignPutOptions) (Presigned, error) {
	headers := map[string]string{}
	var u *url.URL
	var err error
	if opts.ContentType != "" {
		// Bind the content type into the signature so the uploader cannot vary it.
		extra := http.Header{"Content-Type": []string{opts.ContentType}}
		u, err = a.mc.PresignHeader(ctx, http.MethodPut, a.bucket, key, opts.ExpiresIn, url.Values{}, extra)
		headers["Content-Type"] = opts.ContentType
	} else {
		u, err = a.mc.PresignedPutObject(ctx, a.bucket, key, opts.ExpiresIn)
	}
	if err != nil {
		return Presigned{}, wrapRemote("presign put", err)
	}
	return Presigned{Method: http.MethodPut, URL: u.String(), Headers: headers, ExpiresIn: int(opts.ExpiresIn / time.Second)}, nil
}

func (a *s3Adapter) PresignGet(ctx context.Context, key string, opts PresignGetOptions) (Presigned, error) {
	reqParams := url.Values{}
	if opts.Download {
		fn := opts.FileName
		if fn == "" {
			fn = path.Base(key)
		}
		reqParams.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", fn))
	}
	u, err := a.mc.PresignedGetObject(ctx, a.bucket, key, opts.ExpiresIn, reqParams)
	if err != nil {
		return Presigned{}, wrapRemote("presign get", err)
	}
	return Presigned{Method: http.MethodGet, URL: u.String(), Headers: map[string]string{}, ExpiresIn: int(opts.ExpiresIn / time.Second)}, nil
}

func (a *s3Adapter) TestConnection(ctx context.Context) TestResult {
	start := time.Now()
	_, err := a.core.ListObjectsV2(a.bucket, "", "", "", "/", 1)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		resp := minio.ToErrorResponse(err)
		res := TestResult{OK: false, LatencyMs: latency, Error: err.Error()}
		if resp.StatusCode != 0 {
			res.Status = resp.StatusCode
			res.Message = resp.Message
		}
		return res
	}
	return TestResult{OK: true, LatencyMs: latency, Message: "listing succeeded"}
}
