package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"gameops/api/logging"
)

// Router wires the console API. Everything except login, health and the
// websocket requires a bearer token.
func (h *Handler) Router(allowedOrigins []string) http.Handler {
	origins := append([]string{"http://localhost:5173", "http://localhost:3000"}, allowedOrigins...)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logging.RequestLogger(h.log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Post("/auth/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.tokens.Middleware)

			r.Put("/auth/password", h.ChangePassword)

			r.Route("/hot-update", func(r chi.Router) {
				r.Post("/detect", h.Detect)
				r.Post("/pre-check", h.PreCheck)
				r.Post("/execute", h.Execute)
				r.Get("/executions/{id}", h.GetExecution)
				r.Get("/history", h.History)
			})

			r.Get("/users", h.ListUsers)
			r.Post("/users/{id}/ban", h.BanUser)
			r.Get("/game-data/items", h.ListItems)
			r.Get("/game-data/levels", h.ListLevels)
			r.Get("/dashboard/stats", h.Dashboard)
		})
	})

	r.Get("/ws", h.ws.HandleConnect)
	return r
}
