package routers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dishant0406/lazyweb-backend/internal/api"
	"github.com/dishant0406/lazyweb-backend/internal/metrics"
)

const serviceName = "lazyweb"

// New wires every route. Account routes are only mounted when accounts are enabled.
func New(h *api.Handlers, allowedOrigins []string, withAccounts bool) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		metrics.Middleware(serviceName),
		cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         300,
		}),
	)

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", metrics.Handler())

	// long-lived sockets stay outside the request timeout
	r.Get("/ws", h.RoomsWS)
	r.Get("/socket", h.RoomsWS)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/api/v1/healthz", h.Health)
		r.Get("/api/v1/rooms/stats", h.RoomStats)
		r.Get("/api/v1/rooms/{id}", h.GetRoom)
		r.Post("/metadata", h.Metadata)

		if withAccounts {
			r.Post("/api/auth/login", h.Login)
			r.Get("/api/auth/account", h.Account)
		}
	})

	return r
}
