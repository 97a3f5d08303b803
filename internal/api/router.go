package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
)

// NewRouter builds and returns the Chi router with all routes configured.
// Register, login and health are public; every other route requires a session.
// Rate limiting is applied globally per IP.
func NewRouter(handlers *Handlers, db dbPinger, redisClient redisPinger, requestsPerMinute int, log *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(AccessLog(log))
	r.Use(middleware.Recoverer)
	r.Use(httprate.LimitByIP(requestsPerMinute, time.Minute))

	r.Get("/healthz", HealthHandlerFunc(db, redisClient, log))
	r.Handle("/static/*", StaticHandler())

	r.Get("/register/", handlers.Register)
	r.Post("/register/", handlers.Register)
	r.Get("/login/", handlers.Login)
	r.Post("/login/", handlers.Login)

	r.Group(func(r chi.Router) {
		r.Use(handlers.RequireUser)

		r.Get("/", handlers.Home)
		r.Get("/logout/", handlers.Logout)

		r.Get("/dream_destinations/", handlers.DreamList)
		r.Get("/dream_destinations/details/", handlers.Details)
		r.Post("/dream_destinations/add_item/", handlers.AddItem)
		r.Get("/dream_destinations/remove_item/", handlers.RemoveItem)
		r.Post("/dream_destinations/remove_item/", handlers.RemoveItem)

		r.Get("/destination/", handlers.FindDestination)
		r.Get("/visit_item/", handlers.ToggleVisited)
	})

	return r
}

// Ensure chi.Mux implements http.Handler.
var _ http.Handler = (*chi.Mux)(nil)
