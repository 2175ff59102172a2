// Package pathresolve turns a raw request path plus a namespace ("bucket" for
// authenticated browsing, "raw" for public serving) into a bucket id and
// object key. The resolver only resolves; rejecting a resolved result (e.g.
// DELETE with an empty key) is the route layer's job.
package pathresolve

import (
	"net/url"
	"strings"
)

const (
	NamespaceBucket = "bucket"
	NamespaceRaw    = "raw"
)

type Resolved struct {
	BucketID  string
	ObjectKey string
}

// Resolver resolves virtual paths against the caller's visible buckets.
// Known reports whether an id names a bucket the caller may enumerate;
// Default yields the fallback bucket id ("" when the caller has none).
type Resolver struct {
	Known   func(id string) bool
	Default func() string
}

// Resolve splits rawPath on the first "/{namespace}/" segment and maps the
// remainder to {bucketId, objectKey}.
//
// A path with no namespace segment resolves to the default bucket with an
// empty key. When the first segment after the namespace is not a known bucket
// id, the whole remainder becomes the key under the default bucket. The key
// is percent-decoded exactly once; a decoding failure keeps the raw value
// rather than failing the request. A trailing slash on the request path is
// preserved on the key (folder semantics).
func (r *Resolver) Resolve(rawPath, namespace string) Resolved {
	marker := "/" + namespace + "/"
	idx := strings.Index(rawPath, marker)
	if idx < 0 {
		return Resolved{BucketID: r.defaultID()}
	}
	candidate := rawPath[idx+len(marker):]
	if candidate == "" {
		return Resolved{BucketID: r.defaultID()}
	}

	var bucketID, key string
	if slash := strings.Index(candidate, "/"); slash >= 0 {
		first, rest := candidate[:slash], candidate[slash+1:]
		if r.known(first) {
			bucketID, key = first, rest
		} else {
			bucketID, key = r.defaultID(), candidate
		}
	} else if r.known(candidate) {
		bucketID, key = candidate, ""
	} else {
		bucketID, key = r.defaultID(), candidate
	}

	key = decodeOnce(key)
	if strings.HasSuffix(rawPath, "/") && key != "" && !strings.HasSuffix(key, "/") {
		key += "/"
	}
	return Resolved{BucketID: bucketID, ObjectKey: key}
}

func (r *Resolver) known(id string) bool {
	return id != "" && r.Known != nil && r.Known(id)
}

func (r *Resolver) defaultID() string {
	if r.Default == nil {
		return ""
	}
	return r.Default()
}

// decodeOnce percent-decodes v; malformed escapes are non-fatal and leave the
// raw value untouched.
func decodeOnce(v string) string {
	decoded, err := url.PathUnescape(v)
	if err != nil {
		return v
	}
	return decoded
}
