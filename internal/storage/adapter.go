// Package storage normalizes list/get/put/delete/copy/presign operations over
// one S3-compatible bucket into a stable internal contract, independent of
// provider quirks. Adapters are constructed per request from a resolved
// BucketConfig and hold no mutable state beyond the client handle.
package storage

import (
	"context"
	"io"
	"time"
)

// maxListKeys caps a single listing page regardless of the caller's request.
const maxListKeys = 1000

// Config carries everything needed to reach one remote bucket.
type Config struct {
	EndpointURL      string
	Region           string
	AccessKeyID      string
	SecretAccessKey  string
	RemoteBucketName string
	ForcePathStyle   bool
}

// ObjectRef is a virtual view over a single remote key. ETag is always
// unquoted at this boundary.
type ObjectRef struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
	ETag         string    `json:"etag"`
	ContentType  string    `json:"contentType,omitempty"`
}

// ListingPage is one page of a folder-style listing. HasMore=false implies
// ContinuationCursor is empty.
type ListingPage struct {
	Objects            []ObjectRef `json:"objects"`
	Folders            []string    `json:"folders"`
	Prefix             string      `json:"prefix"`
	HasMore            bool        `json:"hasMore"`
	ContinuationCursor string      `json:"continuationCursor,omitempty"`
}

type ListOptions struct {
	Delimiter          string // defaults to "/" for a folder-like view
	Limit              int    // capped at 1000
	StartAfter         string
	ContinuationCursor string // opaque token from a previous page
}

type GetResult struct {
	Body        io.ReadCloser
	ContentType string // falls back to application/octet-stream when absent
	ETag        string
	Size        int64
}

type PutOptions struct {
	ContentType string
	// Metadata is forwarded opaquely as user metadata.
	Metadata map[string]string
}

type PresignPutOptions struct {
	ExpiresIn   time.Duration
	ContentType string
}

type PresignGetOptions struct {
	ExpiresIn time.Duration
	Download  bool
	FileName  string
}

// Presigned is a time-boxed, credential-bound URL for one HTTP verb on one key.
type Presigned struct {
	Method    string            `json:"method"`
	URL       string            `json:"url"`
	Headers   map[string]string `json:"headers"`
	ExpiresIn int               `json:"expiresIn"` // seconds
}

// TestResult reports a connection probe. TestConnection never returns an
// error; all failure detail lands here.
type TestResult struct {
	OK        bool   `json:"ok"`
	LatencyMs int64  `json:"latencyMs"`
	Status    int    `json:"status,omitempty"`
	Error     string `json:"error,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Adapter is the normalized operation surface over one remote bucket.
//
// Put always replaces any existing object at key. Delete is idempotent:
// removing an absent key is not an error. Copy fails with a not-found error
// when the source key does not exist.
type Adapter interface {
	List(ctx context.Context, prefix string, opts ListOptions) (ListingPage, error)
	Get(ctx context.Context, key string) (*GetResult, error)
	Put(ctx context.Context, key string, body io.Reader, size int64, opts PutOptions) (etag string, err error)
	Delete(ctx context.Context, key string) error
	Copy(ctx context.Context, srcKey, destKey string, opts PutOptions) (etag string, err error)
	PresignPut(ctx context.Context, key string, opts PresignPutOptions) (Presigned, error)
	PresignGet(ctx context.Context, key string, opts PresignGetOptions) (Presigned, error)
	TestConnection(ctx context.Context) TestResult
}
