package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wgfold/wgfold/internal/service"
)

// ListInterfaces returns every managed interface.
// GET /api/v1/interfaces
func (h *Handler) ListInterfaces(w http.ResponseWriter, r *http.Request) {
	list, err := h.mgr.ListInterfaces()
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	writeJSONData(w, list)
}

// CreateInterface creates an interface folder and its canonical file.
// POST /api/v1/interfaces
func (h *Handler) CreateInterface(w http.ResponseWriter, r *http.Request) {
	var req service.CreateInterfaceRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteInvalidRequest(w, "Invalid JSON: "+err.Error())
		return
	}
	res, err := h.mgr.CreateInterface(r.Context(), req)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	writeCreated(w, res)
}

// GetInterface returns one interface.
// GET /api/v1/interfaces/{iface}
func (h *Handler) GetInterface(w http.ResponseWriter, r *http.Request) {
	info, err := h.mgr.GetInterface(r.Context(), chi.URLParam(r, "iface"))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	writeJSONData(w, info)
}

// UpdateInterface changes interface settings.
// PUT /api/v1/interfaces/{iface}
func (h *Handler) UpdateInterface(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateInterfaceRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteInvalidRequest(w, "Invalid JSON: "+err.Error())
		return
	}
	res, err := h.mgr.UpdateInterface(r.Context(), chi.URLParam(r, "iface"), req)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	writeJSONData(w, res)
}

// DeleteInterface removes an interface folder.
// DELETE /api/v1/interfaces/{iface}?purge=true
func (h *Handler) DeleteInterface(w http.ResponseWriter, r *http.Request) {
	purge := false
	if v := r.URL.Query().Get("purge"); v != "" {
		var err error
		if purge, err = strconv.ParseBool(v); err != nil {
			WriteInvalidRequest(w, "purge must be a boolean")
			return
		}
	}
	res, err := h.mgr.DeleteInterface(chi.URLParam(r, "iface"), purge)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	writeJSONData(w, res)
}
