package http

import (
	"net/http"
)

// GPOHandler serves the group policy listing endpoint.
type GPOHandler struct {
	Factory DirectoryFactory
}

func (h *GPOHandler) List(w http.ResponseWriter, r *http.Request) {
	dir, ok := facade(r, h.Factory)
	if !ok {
		respondDetail(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	gpos, err := dir.ListGPOs(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, gpos)
}
