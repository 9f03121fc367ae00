package http

import (
	"net/http"

	"github.com/bzdvdn/samba-ad-api/internal/directory"
	"github.com/bzdvdn/samba-ad-api/internal/middleware"
)

// AuthHandler serves login, refresh, and identity endpoints.
type AuthHandler struct {
	Authn Authenticator
}

// LoginRequest is the JSON payload of POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshRequest is the JSON payload of POST /api/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Login verifies the credential against the directory and returns a
// token pair.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeBody(r, &req); err != nil || req.Username == "" || req.Password == "" {
		respondDetail(w, http.StatusBadRequest, "username and password are required")
		return
	}

	pair, err := h.Authn.Login(r.Context(), directory.Credential{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, pair)
}

// Refresh exchanges a refresh token for a fresh pair.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := decodeBody(r, &req); err != nil || req.RefreshToken == "" {
		respondDetail(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	pair, err := h.Authn.Refresh(req.RefreshToken)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, pair)
}

// Me reports the username of the presented access token.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	cred, ok := middleware.CredentialFromContext(r.Context())
	if !ok {
		respondDetail(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"username": cred.Username})
}
