package handlers

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"worklog/config"
	"worklog/ledger"
	"worklog/middleware"
	"worklog/models"
	"worklog/store"
)

// Router assembles the full route surface. Login and registration are
// public; everything else needs a valid token; user and role directory
// mutation is admin-only.
func Router(cfg *config.Config, st store.Store, l *ledger.Ledger) chi.Router {
	authHandler := NewAuthHandler(cfg, st)
	entryHandler := NewEntryHandler(l)
	projectHandler := NewProjectHandler(st)
	taskHandler := NewTaskHandler(st)
	userHandler := NewUserHandler(st)
	roleHandler := NewRoleHandler(st)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Metrics)

	// Public routes
	router.Post("/login", authHandler.Login)
	router.Post("/register", authHandler.Register)
	router.Handle("/metrics", promhttp.Handler())

	// Protected routes
	router.Group(func(r chi.Router) {
		r.Use(middleware.Auth(st))

		r.Post("/change-password", authHandler.ChangePassword)

		r.Route("/entries", func(r chi.Router) {
			r.Get("/", entryHandler.List)
			r.Post("/", entryHandler.Create)
			r.Get("/{id}", entryHandler.Get)
			r.Patch("/{id}", entryHandler.Update)
			r.Delete("/{id}", entryHandler.Delete)
		})

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", projectHandler.List)
			r.Post("/", projectHandler.Create)
			r.Get("/{code}", projectHandler.Get)
			r.Put("/{code}", projectHandler.Update)
			r.Delete("/{code}", projectHandler.Delete)
			r.Get("/{code}/tasks", projectHandler.Tasks)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.List)
			r.Post("/", taskHandler.Create)
			r.Get("/{id}", taskHandler.Get)
			r.Put("/{id}", taskHandler.Update)
			r.Delete("/{id}", taskHandler.Delete)
			r.Get("/{id}/entries", taskHandler.Entries)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", userHandler.List)
			r.Get("/{id}", userHandler.Get)

			// Admin only
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(models.PermissionAdmin))
				r.Post("/", userHandler.Create)
				r.Put("/{id}", userHandler.Update)
				r.Delete("/{id}", userHandler.Delete)
			})
		})

		r.Route("/roles", func(r chi.Router) {
			r.Get("/", roleHandler.List)
			r.Get("/{id}", roleHandler.Get)

			// Admin only
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(models.PermissionAdmin))
				r.Post("/", roleHandler.Create)
				r.Delete("/{id}", roleHandler.Delete)
				r.Put("/{id}/users/{userID}", roleHandler.AddMember)
				r.Delete("/{id}/users/{userID}", roleHandler.RemoveMember)
			})
		})
	})

	return router
}
