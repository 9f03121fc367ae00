package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bzdvdn/samba-ad-api/internal/directory"
)

// GroupHandler serves the group management endpoints.
type GroupHandler struct {
	Factory DirectoryFactory
}

// CreateGroupRequest is the JSON payload of POST /api/group/.
type CreateGroupRequest struct {
	Groupname   string `json:"groupname"`
	Description string `json:"description,omitempty"`
	GroupOU     string `json:"group_ou,omitempty"`
	GroupType   *int32 `json:"group_type,omitempty"`
}

// MembersRequest is the JSON payload of the membership endpoints.
type MembersRequest struct {
	Groupname string   `json:"groupname"`
	Usernames []string `json:"usernames"`
}

func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	dir, ok := facade(r, h.Factory)
	if !ok {
		respondDetail(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	groups, err := dir.ListGroups(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, groups)
}

func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	dir, ok := facade(r, h.Factory)
	if !ok {
		respondDetail(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req CreateGroupRequest
	if err := decodeBody(r, &req); err != nil {
		respondDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := dir.AddGroup(r.Context(), &directory.AddGroupRequest{
		Groupname:   req.Groupname,
		Description: req.Description,
		GroupOU:     req.GroupOU,
		GroupType:   req.GroupType,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"status": "created", "groupname": req.Groupname})
}

func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	dir, ok := facade(r, h.Factory)
	if !ok {
		respondDetail(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	groupname := chi.URLParam(r, "groupname")
	if err := dir.DeleteGroup(r.Context(), groupname); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted", "groupname": groupname})
}

func (h *GroupHandler) Members(w http.ResponseWriter, r *http.Request) {
	dir, ok := facade(r, h.Factory)
	if !ok {
		respondDetail(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	groupname := chi.URLParam(r, "groupname")
	members, err := dir.ListGroupMembers(r.Context(), groupname)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"groupname": groupname, "members": members})
}

func (h *GroupHandler) AddMembers(w http.ResponseWriter, r *http.Request) {
	h.modifyMembers(w, r, true)
}

func (h *GroupHandler) RemoveMembers(w http.ResponseWriter, r *http.Request) {
	h.modifyMembers(w, r, false)
}

func (h *GroupHandler) modifyMembers(w http.ResponseWriter, r *http.Request, add bool) {
	dir, ok := facade(r, h.Factory)
	if !ok {
		respondDetail(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req MembersRequest
	if err := decodeBody(r, &req); err != nil || req.Groupname == "" || len(req.Usernames) == 0 {
		respondDetail(w, http.StatusBadRequest, "groupname and usernames are required")
		return
	}

	var err error
	if add {
		err = dir.AddGroupMembers(r.Context(), req.Groupname, req.Usernames)
	} else {
		err = dir.RemoveGroupMembers(r.Context(), req.Groupname, req.Usernames)
	}
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "groupname": req.Groupname})
}
