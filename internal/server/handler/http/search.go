package http

import (
	"net/http"
)

// SearchHandler serves the free-form search endpoint.
type SearchHandler struct {
	Factory DirectoryFactory
}

// SearchRequest is the JSON payload of POST /api/search/. Filter is a
// raw LDAP filter expression; composing it safely is the caller's
// responsibility, the search itself is read-only.
type SearchRequest struct {
	Filter     string   `json:"filter"`
	Attributes []string `json:"attributes,omitempty"`
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	dir, ok := facade(r, h.Factory)
	if !ok {
		respondDetail(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req SearchRequest
	if err := decodeBody(r, &req); err != nil || req.Filter == "" {
		respondDetail(w, http.StatusBadRequest, "filter is required")
		return
	}

	entries, err := dir.Search(r.Context(), req.Filter, req.Attributes)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}
