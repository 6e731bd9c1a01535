// Package router собирает HTTP маршруты API
package router

import (
	"net/http"

	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/auth"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/httpx"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/users"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/users/handlers"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Handlers все HTTP handlers приложения
type Handlers struct {
	Auth          *handlers.AuthHandler
	Profiles      *handlers.ProfileHandler
	Hires         *handlers.HireHandler
	Notifications *handlers.NotificationHandler
}

// SetupRoutes регистрирует маршруты на r
func SetupRoutes(r chi.Router, h Handlers, authMW *auth.Middleware, allowedOrigins []string) chi.Router {
	// ---- Global Middleware ----
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(api chi.Router) {
		api.Post("/auth/login", h.Auth.Login)

		api.Group(func(pr chi.Router) {
			pr.Use(authMW.Authenticate)

			pr.Route("/profiles/{id}", func(p chi.Router) {
				p.Get("/", h.Profiles.Get)
				p.Patch("/", h.Profiles.Update)
				p.Get("/access", h.Profiles.Access)
			})

			pr.With(authMW.RequireRole(users.RoleAdmin, users.RoleHR)).Post("/hires", h.Hires.Hire)

			pr.Route("/notifications", func(n chi.Router) {
				n.Get("/", h.Notifications.Unread)
				n.Post("/{id}/read", h.Notifications.MarkRead)
			})
		})
	})

	return r
}
