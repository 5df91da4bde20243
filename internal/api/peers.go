package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wgfold/wgfold/internal/service"
)

// DeletePeerResponse is returned by DeletePeer.
type DeletePeerResponse struct {
	Name      string `json:"name"`
	SyncError string `json:"sync_error,omitempty"`
}

// ListPeers returns the peers of an interface.
// GET /api/v1/interfaces/{iface}/peers
func (h *Handler) ListPeers(w http.ResponseWriter, r *http.Request) {
	peers, err := h.mgr.ListPeers(chi.URLParam(r, "iface"))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	writeJSONData(w, peers)
}

// CreatePeer adds a peer. The private key is only part of this response.
// POST /api/v1/interfaces/{iface}/peers
func (h *Handler) CreatePeer(w http.ResponseWriter, r *http.Request) {
	var req service.CreatePeerRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteInvalidRequest(w, "Invalid JSON: "+err.Error())
		return
	}
	res, err := h.mgr.AddPeer(r.Context(), chi.URLParam(r, "iface"), req)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	writeCreated(w, res)
}

// GetPeer returns one peer.
// GET /api/v1/interfaces/{iface}/peers/{peer}
func (h *Handler) GetPeer(w http.ResponseWriter, r *http.Request) {
	peer, err := h.mgr.GetPeer(chi.URLParam(r, "iface"), chi.URLParam(r, "peer"))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	writeJSONData(w, peer)
}

// UpdatePeer changes or renames a peer.
// PUT /api/v1/interfaces/{iface}/peers/{peer}
func (h *Handler) UpdatePeer(w http.ResponseWriter, r *http.Request) {
	var req service.UpdatePeerRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteInvalidRequest(w, "Invalid JSON: "+err.Error())
		return
	}
	res, err := h.mgr.UpdatePeer(r.Context(), chi.URLParam(r, "iface"), chi.URLParam(r, "peer"), req)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	writeJSONData(w, res)
}

// DeletePeer removes a peer.
// DELETE /api/v1/interfaces/{iface}/peers/{peer}
func (h *Handler) DeletePeer(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "peer")
	syncErr, err := h.mgr.DeletePeer(chi.URLParam(r, "iface"), name)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	writeJSONData(w, DeletePeerResponse{Name: name, SyncError: syncErr})
}
