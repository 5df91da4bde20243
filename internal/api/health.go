package api

import (
	"net/http"
	"os"
)

// HealthResponse reports whether the server can reach its base directory.
type HealthResponse struct {
	Healthy bool   `json:"healthy"`
	Version string `json:"version"`
	BaseDir string `json:"base_dir"`
	Message string `json:"message,omitempty"`
}

// CheckHealth reports server health.
// GET /health
func (h *Handler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	base := h.mgr.Layout().Base
	res := HealthResponse{Healthy: true, Version: h.version, BaseDir: base}
	if fi, err := os.Stat(base); err != nil {
		res.Healthy = false
		res.Message = err.Error()
	} else if !fi.IsDir() {
		res.Healthy = false
		res.Message = base + " is not a directory"
	}

	status := http.StatusOK
	if !res.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, res)
}
