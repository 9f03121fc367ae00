package http

import (
	"net/http"

	"github.com/bzdvdn/samba-ad-api/internal/directory"
)

// OrgHandler serves the organizational unit endpoints.
type OrgHandler struct {
	Factory DirectoryFactory
}

// CreateOURequest is the JSON payload of POST /api/org/.
type CreateOURequest struct {
	Name        string `json:"name"`
	ParentDN    string `json:"parent_dn,omitempty"`
	Description string `json:"description,omitempty"`
}

// DeleteOURequest is the JSON payload of DELETE /api/org/.
type DeleteOURequest struct {
	DN string `json:"dn"`
}

func (h *OrgHandler) List(w http.ResponseWriter, r *http.Request) {
	dir, ok := facade(r, h.Factory)
	if !ok {
		respondDetail(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	ous, err := dir.ListOUs(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ous)
}

func (h *OrgHandler) Create(w http.ResponseWriter, r *http.Request) {
	dir, ok := facade(r, h.Factory)
	if !ok {
		respondDetail(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req CreateOURequest
	if err := decodeBody(r, &req); err != nil || req.Name == "" {
		respondDetail(w, http.StatusBadRequest, "name is required")
		return
	}

	err := dir.CreateOU(r.Context(), &directory.CreateOURequest{
		Name:        req.Name,
		ParentDN:    req.ParentDN,
		Description: req.Description,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"status": "created", "name": req.Name})
}

func (h *OrgHandler) Delete(w http.ResponseWriter, r *http.Request) {
	dir, ok := facade(r, h.Factory)
	if !ok {
		respondDetail(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req DeleteOURequest
	if err := decodeBody(r, &req); err != nil || req.DN == "" {
		respondDetail(w, http.StatusBadRequest, "dn is required")
		return
	}

	if err := dir.DeleteOU(r.Context(), req.DN); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted", "dn": req.DN})
}
