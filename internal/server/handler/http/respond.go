package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bzdvdn/samba-ad-api/internal/auth"
	"github.com/bzdvdn/samba-ad-api/internal/crypto"
	"github.com/bzdvdn/samba-ad-api/internal/directory"
	"github.com/bzdvdn/samba-ad-api/internal/token"
)

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondDetail(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, map[string]string{"detail": detail})
}

// respondError maps domain errors onto HTTP statuses. Token and
// credential failures are 401, duplicates and rejected operations 400,
// lookup misses 404; anything unclassified is a 500 with a generic body
// so internals never leak.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, token.ErrInvalidSignature),
		errors.Is(err, crypto.ErrCipher),
		errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrWrongTokenKind),
		directory.IsAuthenticationError(err):
		respondDetail(w, http.StatusUnauthorized, err.Error())

	case directory.IsNotFoundError(err):
		respondDetail(w, http.StatusNotFound, err.Error())

	case directory.IsConflictError(err):
		respondDetail(w, http.StatusBadRequest, err.Error())

	default:
		var opErr *directory.OperationError
		if errors.As(err, &opErr) {
			respondDetail(w, http.StatusBadRequest, opErr.Error())
			return
		}
		respondDetail(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeBody decodes a JSON request body into dst, rejecting unknown
// fields.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
