package pathresolve

import "testing"

func testResolver(knownIDs []string, def string) *Resolver {
	known := map[string]bool{}
	for _, id := range knownIDs {
		known[id] = true
	}
	return &Resolver{
		Known:   func(id string) bool { return known[id] },
		Default: func() string { return def },
	}
}

func TestResolveTable(t *testing.T) {
	r := testResolver([]string{"B123", "docs"}, "Bdefault")
	cases := []struct {
		name      string
		path      string
		namespace string
		bucketID  string
		key       string
	}{
		{"namespace only", "/api/v1/bucket/", NamespaceBucket, "Bdefault", ""},
		{"no namespace segment", "/api/v1/something", NamespaceBucket, "Bdefault", ""},
		{"known bucket with key", "/api/v1/bucket/B123/docs/report.pdf", NamespaceBucket, "B123", "docs/report.pdf"},
		{"known bucket no key", "/api/v1/bucket/B123", NamespaceBucket, "B123", ""},
		{"unknown segment falls back", "/api/v1/bucket/unknownSegment/x.txt", NamespaceBucket, "Bdefault", "unknownSegment/x.txt"},
		{"bare unknown segment is a key", "/api/v1/bucket/orphan.txt", NamespaceBucket, "Bdefault", "orphan.txt"},
		{"raw namespace", "/api/v1/raw/B123/img/a.png", NamespaceRaw, "B123", "img/a.png"},
		{"trailing slash preserved", "/api/v1/bucket/B123/photos/", NamespaceBucket, "B123", "photos/"},
		{"trailing slash on decoded key", "/api/v1/bucket/B123/photo%20album/", NamespaceBucket, "B123", "photo album/"},
		{"percent decoding applied once", "/api/v1/bucket/B123/a%2Bb.txt", NamespaceBucket, "B123", "a+b.txt"},
		{"malformed escape kept raw", "/api/v1/bucket/B123/bad%zz.txt", NamespaceBucket, "B123", "bad%zz.txt"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := r.Resolve(c.path, c.namespace)
			if got.BucketID != c.bucketID || got.ObjectKey != c.key {
				t.Fatalf("Resolve(%q,%q)={%q,%q} want {%q,%q}",
					c.path, c.namespace, got.BucketID, got.ObjectKey, c.bucketID, c.key)
			}
		})
	}
}

func TestResolveNoDefaultBucket(t *testing.T) {
	r := testResolver(nil, "")
	got := r.Resolve("/api/v1/bucket/whatever.txt", NamespaceBucket)
	if got.BucketID != "" {
		t.Fatalf("expected empty bucket id, got %q", got.BucketID)
	}
	if got.ObjectKey != "whatever.txt" {
		t.Fatalf("key=%q", got.ObjectKey)
	}
}

// The namespace marker is matched at its first occurrence; a key containing
// the literal segment later in the path stays part of the key.
func TestResolveNamespaceInsideKey(t *testing.T) {
	r := testResolver([]string{"B1"}, "B1")
	got := r.Resolve("/api/v1/bucket/B1/backup/bucket/old.txt", NamespaceBucket)
	if got.BucketID != "B1" || got.ObjectKey != "backup/bucket/old.txt" {
		t.Fatalf("got {%q,%q}", got.BucketID, got.ObjectKey)
	}
}
