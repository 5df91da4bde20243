package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// GetState returns the live state of an interface.
// GET /api/v1/interfaces/{iface}/state
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	res, err := h.mgr.State(r.Context(), chi.URLParam(r, "iface"))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	writeJSONData(w, res)
}

// DiffState compares the canonical file with the live state.
// GET /api/v1/interfaces/{iface}/state/diff
func (h *Handler) DiffState(w http.ResponseWriter, r *http.Request) {
	res, err := h.mgr.StateDiff(r.Context(), chi.URLParam(r, "iface"))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	writeJSONData(w, res)
}
