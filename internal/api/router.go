package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"sqlcatalog/internal/middleware"
)

// RouterConfig configures the middleware stack around a Handler.
type RouterConfig struct {
	CORSAllowedOrigins []string
	// RateLimiter is optional; nil disables rate limiting.
	RateLimiter *middleware.RateLimiter
	Logger      *slog.Logger
}

// NewRouter mounts h on a chi router.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Health)

	r.Route("/v1", func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Middleware)
		}
		r.Get("/kinds", h.Kinds)
		r.Get("/resolve/{kind}", h.Resolve)
		r.Post("/resolve/{kind}", h.ResolveBatch)
	})
	return r
}
