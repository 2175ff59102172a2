// Package apperr defines the typed error taxonomy shared by the storage,
// bucket-config, presign and access layers. Routes translate these kinds to
// HTTP statuses; no package below the route layer writes HTTP responses.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation marks malformed input detected before any remote call.
	KindValidation
	// KindNotFound covers an unknown bucket id or a missing remote object.
	KindNotFound
	// KindForbidden marks an authenticated caller that is not the owner.
	KindForbidden
	// KindUnauthorized marks a missing or invalid session.
	KindUnauthorized
	// KindRemoteStore wraps any failure reported by the S3-compatible endpoint.
	KindRemoteStore
	// KindInvalidKey marks an object key rejected by the presign validation gate.
	KindInvalidKey
)

type Error struct {
	Kind  Kind
	Msg   string
	Field string // first violated field, for validation errors
	// Status carries the provider's HTTP status code for remote-store errors,
	// so callers can decide on retry or user-facing messaging.
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(field, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Field: field, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Msg: fmt.Sprintf(format, args...)}
}

func Unauthorized(format string, args ...any) *Error {
	return &Error{Kind: KindUnauthorized, Msg: fmt.Sprintf(format, args...)}
}

func InvalidKey(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidKey, Msg: fmt.Sprintf(format, args...)}
}

func RemoteStore(status int, msg string, err error) *Error {
	return &Error{Kind: KindRemoteStore, Status: status, Msg: msg, Err: err}
}

// KindOf returns the kind of err, or KindUnknown for untyped errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

func IsNotFound(err error) bool     { return KindOf(err) == KindNotFound }
func IsForbidden(err error) bool    { return KindOf(err) == KindForbidden }
func IsValidation(err error) bool   { return KindOf(err) == KindValidation }
func IsUnauthorized(err error) bool { return KindOf(err) == KindUnauthorized }
func IsInvalidKey(err error) bool   { return KindOf(err) == KindInvalidKey }
func IsRemoteStore(err error) bool  { return KindOf(err) == KindRemoteStore }
