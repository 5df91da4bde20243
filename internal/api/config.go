package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SyncConfig regenerates the canonical file from the folder.
// POST /api/v1/interfaces/{iface}/config/sync
func (h *Handler) SyncConfig(w http.ResponseWriter, r *http.Request) {
	res, err := h.mgr.Sync(chi.URLParam(r, "iface"))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	writeJSONData(w, res)
}

// ResetConfig rebuilds the folder from the canonical file.
// POST /api/v1/interfaces/{iface}/config/reset
func (h *Handler) ResetConfig(w http.ResponseWriter, r *http.Request) {
	res, err := h.mgr.Reset(chi.URLParam(r, "iface"))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	writeJSONData(w, res)
}

// DiffConfig compares the canonical file with the folder.
// GET /api/v1/interfaces/{iface}/config/diff
func (h *Handler) DiffConfig(w http.ResponseWriter, r *http.Request) {
	res, err := h.mgr.Diff(chi.URLParam(r, "iface"))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	writeJSONData(w, res)
}

// ApplyConfig pushes the canonical file to the running interface.
// POST /api/v1/interfaces/{iface}/config/apply
func (h *Handler) ApplyConfig(w http.ResponseWriter, r *http.Request) {
	res, err := h.mgr.Apply(r.Context(), chi.URLParam(r, "iface"))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	writeJSONData(w, res)
}
