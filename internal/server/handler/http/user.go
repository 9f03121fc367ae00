package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bzdvdn/samba-ad-api/internal/directory"
	"github.com/bzdvdn/samba-ad-api/internal/middleware"
)

// UserHandler serves the user management endpoints.
type UserHandler struct {
	Factory DirectoryFactory
}

// facade builds the request-scoped directory client from the credential
// the bearer middleware stored.
func facade(r *http.Request, factory DirectoryFactory) (Directory, bool) {
	cred, ok := middleware.CredentialFromContext(r.Context())
	if !ok {
		return nil, false
	}
	return factory(cred), true
}

// CreateUserRequest is the JSON payload of POST /api/user/.
type CreateUserRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	GivenName       string `json:"given_name,omitempty"`
	Surname         string `json:"surname,omitempty"`
	Mail            string `json:"mail,omitempty"`
	TelephoneNumber string `json:"telephone_number,omitempty"`
	UserOU          string `json:"user_ou,omitempty"`
	UAC             *int32 `json:"uac,omitempty"`
	PwdLastSet      *int64 `json:"pwd_last_set,omitempty"`
	AccountExpires  *int64 `json:"account_expires,omitempty"`
}

// UpdateUserRequest is the JSON payload of PATCH /api/user/{username}.
type UpdateUserRequest struct {
	GivenName       *string `json:"given_name,omitempty"`
	Surname         *string `json:"surname,omitempty"`
	Mail            *string `json:"mail,omitempty"`
	TelephoneNumber *string `json:"telephone_number,omitempty"`
	DisplayName     *string `json:"display_name,omitempty"`
}

// UpdatePasswordRequest is the JSON payload of PUT /api/user/password.
type UpdatePasswordRequest struct {
	Username    string `json:"username"`
	NewPassword string `json:"new_password"`
}

// MoveRequest is the JSON payload of POST /api/user/move.
type MoveRequest struct {
	FromDN string `json:"from_dn"`
	ToDN   string `json:"to_dn"`
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	dir, ok := facade(r, h.Factory)
	if !ok {
		respondDetail(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	users, err := dir.ListUsers(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	dir, ok := facade(r, h.Factory)
	if !ok {
		respondDetail(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	username := chi.URLParam(r, "username")
	user, err := dir.GetUserByUsername(r.Context(), username)
	if err != nil {
		respondError(w, err)
		return
	}
	if user == nil {
		respondDetail(w, http.StatusNotFound, "user not found")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	dir, ok := facade(r, h.Factory)
	if !ok {
		respondDetail(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req CreateUserRequest
	if err := decodeBody(r, &req); err != nil {
		respondDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := dir.CreateUser(r.Context(), &directory.CreateUserRequest{
		Username:           req.Username,
		Password:           req.Password,
		GivenName:          req.GivenName,
		Surname:            req.Surname,
		Mail:               req.Mail,
		TelephoneNumber:    req.TelephoneNumber,
		UserOU:             req.UserOU,
		UserAccountControl: req.UAC,
		PwdLastSet:         req.PwdLastSet,
		AccountExpires:     req.AccountExpires,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"status": "created", "username": req.Username})
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	dir, ok := facade(r, h.Factory)
	if !ok {
		respondDetail(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req UpdateUserRequest
	if err := decodeBody(r, &req); err != nil {
		respondDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	username := chi.URLParam(r, "username")
	err := dir.UpdateUser(r.Context(), username, &directory.UpdateUserRequest{
		GivenName:       req.GivenName,
		Surname:         req.Surname,
		Mail:            req.Mail,
		TelephoneNumber: req.TelephoneNumber,
		DisplayName:     req.DisplayName,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated", "username": username})
}

func (h *UserHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	dir, ok := facade(r, h.Factory)
	if !ok {
		respondDetail(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req UpdatePasswordRequest
	if err := decodeBody(r, &req); err != nil || req.Username == "" || req.NewPassword == "" {
		respondDetail(w, http.StatusBadRequest, "username and new_password are required")
		return
	}

	if err := dir.UpdateUserPassword(r.Context(), req.Username, req.NewPassword); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "password updated", "username": req.Username})
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	dir, ok := facade(r, h.Factory)
	if !ok {
		respondDetail(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	username := chi.URLParam(r, "username")
	if err := dir.DeleteUser(r.Context(), username); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted", "username": username})
}

func (h *UserHandler) Move(w http.ResponseWriter, r *http.Request) {
	dir, ok := facade(r, h.Factory)
	if !ok {
		respondDetail(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req MoveRequest
	if err := decodeBody(r, &req); err != nil || req.FromDN == "" || req.ToDN == "" {
		respondDetail(w, http.StatusBadRequest, "from_dn and to_dn are required")
		return
	}

	if err := dir.MoveOrgUnit(r.Context(), req.FromDN, req.ToDN); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "moved"})
}
