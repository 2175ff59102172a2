package storage

import (
	"context"
)

// RenamePhase identifies which half of the copy-then-delete protocol failed.
type RenamePhase string

const (
	RenameCopy   RenamePhase = "copy"
	RenameDelete RenamePhase = "delete"
)

// RenameError reports a failed rename together with the phase that failed,
// so callers can tell whether the copy completed before the error.
type RenameError struct {
	Phase RenamePhase
	Err   error
}

func (e *RenameError) Error() string { return "rename " + string(e.Phase) + ": " + e.Err.Error() }
func (e *RenameError) Unwrap() error { return e.Err }

// Rename moves an object by copying it to destKey and then deleting srcKey.
// S3-compatible APIs offer no transactional rename, so this is not atomic: if
// the delete fails or the process dies after the copy, the object exists at
// both keys until the delete is retried. Callers inspect RenameError.Phase to
// decide on cleanup.
func Rename(ctx context.Context, a Adapter, srcKey, destKey string, opts PutOptions) (string, error) {
	etag, err := a.Copy(ctx, srcKey, destKey, opts)
	if err != nil {
		return "", &RenameError{Phase: RenameCopy, Err: err}
	}
	if err := a.Delete(ctx, srcKey); err != nil {
		// The copy already succeeded; surface that distinctly.
		return etag, &RenameError{Phase: RenameDelete, Err: err}
	}
	return etag, nil
}
