package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
)

type RouterConfig struct {
	ServiceName string
	// AccessLog enables structured request logging.
	AccessLog bool
}

func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if cfg.AccessLog {
		serviceName := cfg.ServiceName
		if serviceName == "" {
			serviceName = "app-deployer"
		}
		accessLogger := httplog.NewLogger(serviceName, httplog.Options{JSON: true, Concise: true})
		r.Use(httplog.RequestLogger(accessLogger))
	}
	r.Use(middleware.Recoverer)

	r.Get("/", h.Health)
	r.Get("/health", h.Health)
	r.Post("/api/request", h.Deploy)
	r.Post("/api/evaluate", h.Evaluate)
	r.NotFound(h.NotFound)

	return r
}
