package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wgfold/wgfold/internal/config"
	"github.com/wgfold/wgfold/internal/metrics"
	"github.com/wgfold/wgfold/internal/service"
)

// RouterOptions are the dependencies of NewRouter.
type RouterOptions struct {
	Access  config.AccessConfig
	CORS    config.CORSConfig
	Metrics *metrics.Metrics
	Version string
}

// NewRouter creates a new HTTP router with all API endpoints.
func NewRouter(mgr *service.Manager, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(Recovery)
	r.Use(Logger)
	r.Use(Metrics(opts.Metrics))
	r.Use(CORS(opts.CORS))
	r.Use(NewAccessControl(opts.Access).Middleware)
	r.Use(JSONContentType)

	h := NewHandler(mgr, opts.Version)

	r.Get("/health", h.CheckHealth)
	if opts.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Metrics.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/interfaces", func(r chi.Router) {
		r.Get("/", h.ListInterfaces)
		r.Post("/", h.CreateInterface)

		r.Route("/{iface}", func(r chi.Router) {
			r.Get("/", h.GetInterface)
			r.Put("/", h.UpdateInterface)
			r.Delete("/", h.DeleteInterface)

			r.Get("/peers", h.ListPeers)
			r.Post("/peers", h.CreatePeer)
			r.Get("/peers/{peer}", h.GetPeer)
			r.Put("/peers/{peer}", h.UpdatePeer)
			r.Delete("/peers/{peer}", h.DeletePeer)

			r.Post("/config/sync", h.SyncConfig)
			r.Post("/config/reset", h.ResetConfig)
			r.Get("/config/diff", h.DiffConfig)
			r.Post("/config/apply", h.ApplyConfig)

			r.Get("/state", h.GetState)
			r.Get("/state/diff", h.DiffState)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteNotFound(w, "Route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, NewAPIError(ErrCodeInvalidRequest, "Method not allowed"))
	})

	return r
}
