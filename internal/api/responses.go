package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/arcwave/nereus/internal/apperr"
)

// errBucketNotFound covers both an unknown bucket id and a caller with no
// default bucket to fall back to.
var errBucketNotFound = apperr.NotFound("bucket not found")

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

// respondAppError maps the typed error taxonomy to HTTP statuses. Remote
// store failures surface as 502 so a client can tell our fault from the
// provider's; unknown errors stay opaque 500s.
func respondAppError(w http.ResponseWriter, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	switch ae.Kind {
	case apperr.KindValidation, apperr.KindInvalidKey:
		body := map[string]any{"error": ae.Msg}
		if ae.Field != "" {
			body["field"] = ae.Field
		}
		writeJSON(w, http.StatusBadRequest, body)
	case apperr.KindUnauthorized:
		respondError(w, http.StatusUnauthorized, ae.Msg)
	case apperr.KindForbidden:
		respondError(w, http.StatusForbidden, ae.Msg)
	case apperr.KindNotFound:
		respondError(w, http.StatusNotFound, ae.Msg)
	case apperr.KindRemoteStore:
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": ae.Msg, "remoteStatus": ae.Status})
	default:
		respondError(w, http.StatusInternalServerError, ae.Msg)
	}
}
