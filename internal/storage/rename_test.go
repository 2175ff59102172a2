package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/arcwave/nereus/internal/apperr"
)

func mustPut(t *testing.T, f *fakeAdapter, key, body, contentType string) {
	t.Helper()
	if _, err := f.Put(context.Background(), key, strings.NewReader(body), int64(len(body)), PutOptions{ContentType: contentType}); err != nil {
		t.Fatalf("put %s: %v", key, err)
	}
}

func TestRenameMovesObject(t *testing.T) {
	ctx := context.Background()
	f := newFakeAdapter()
	mustPut(t, f, "docs/a.txt", "hello", "text/plain")

	etag, err := Rename(ctx, f, "docs/a.txt", "docs/b.txt", PutOptions{})
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if etag == "" {
		t.Fatal("expected etag from copy phase")
	}
	got, err := f.Get(ctx, "docs/b.txt")
	if err != nil {
		t.Fatalf("get dest: %v", err)
	}
	body, _ := io.ReadAll(got.Body)
	if string(body) != "hello" {
		t.Fatalf("dest body = %q", body)
	}
	if got.ContentType != "text/plain" {
		t.Fatalf("content type not carried: %q", got.ContentType)
	}
	if _, err := f.Get(ctx, "docs/a.txt"); !apperr.IsNotFound(err) {
		t.Fatalf("source should be gone, got err=%v", err)
	}
}

func TestRenameMissingSourceFailsInCopyPhase(t *testing.T) {
	f := newFakeAdapter()
	_, err := Rename(context.Background(), f, "nope.txt", "dest.txt", PutOptions{})
	var re *RenameError
	if !errors.As(err, &re) {
		t.Fatalf("expected *RenameError, got %v", err)
	}
	if re.Phase != RenameCopy {
		t.Fatalf("phase=%s want copy", re.Phase)
	}
	if !apperr.IsNotFound(re.Err) {
		t.Fatalf("copy of missing source should be not-found, got %v", re.Err)
	}
	if _, ok := f.objects["dest.txt"]; ok {
		t.Fatal("failed copy must not create the destination")
	}
}

// A delete failure after a successful copy leaves the object at both keys:
// the documented non-atomicity window.
func TestRenameDeleteFailureLeavesBothKeys(t *testing.T) {
	ctx := context.Background()
	f := newFakeAdapter()
	mustPut(t, f, "old.bin", "payload", "")

	f.failDelete = true
	etag, err := Rename(ctx, f, "old.bin", "new.bin", PutOptions{})
	var re *RenameError
	if !errors.As(err, &re) {
		t.Fatalf("expected *RenameError, got %v", err)
	}
	if re.Phase != RenameDelete {
		t.Fatalf("phase=%s want delete", re.Phase)
	}
	if etag == "" {
		t.Fatal("copy succeeded, etag should be returned alongside the delete error")
	}
	f.failDelete = false
	if _, err := f.Get(ctx, "old.bin"); err != nil {
		t.Fatalf("old key should still exist: %v", err)
	}
	if _, err := f.Get(ctx, "new.bin"); err != nil {
		t.Fatalf("new key should exist: %v", err)
	}
	// Retrying the delete completes the rename.
	if err := f.Delete(ctx, "old.bin"); err != nil {
		t.Fatalf("retry delete: %v", err)
	}
	if _, err := f.Get(ctx, "old.bin"); !apperr.IsNotFound(err) {
		t.Fatalf("old key should be gone after retry, got %v", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFakeAdapter()
	mustPut(t, f, "x.txt", "x", "")
	if err := f.Delete(ctx, "x.txt"); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := f.Delete(ctx, "x.txt"); err != nil {
		t.Fatalf("second delete of absent key must not error: %v", err)
	}
}
