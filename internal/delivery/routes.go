package delivery

import (
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/mediashelf/internal/delivery/ws"
	"github.com/Vovarama1992/mediashelf/internal/infra"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterDeps struct {
	Media    *MediaHandler
	Hub      *ws.Hub
	Metrics  *infra.Metrics
	Gatherer prometheus.Gatherer
	Checks   map[string]Check
	Log      *logger.ZapLogger

	// UploadDir is served at /uploads/ when set (local blob backend only).
	UploadDir string
}

func RegisterRoutes(r chi.Router, hMedia *MediaHandler) {
	r.Route("/api/media", func(r chi.Router) {
		r.Get("/", hMedia.List)
		r.Get("/filter/{type}", hMedia.Filter)
		r.Get("/{id}", hMedia.Get)
		r.Post("/", hMedia.Create)
		r.Put("/{id}", hMedia.Update)
		r.Delete("/{id}", hMedia.Delete)
	})
}

func NewRouter(d RouterDeps) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Accept"},
	}))
	r.Use(Observe(d.Metrics, d.Log))

	RegisterRoutes(r, d.Media)

	if d.UploadDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(d.UploadDir))))
	}

	if d.Hub != nil {
		r.Get("/ws", ws.Handler(d.Hub, d.Log))
	}

	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}
	r.Get("/health", Health)
	r.Get("/ready", Ready(d.Checks))

	return r
}
