package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {

		// Public
		r.Post("/auth/login", s.handleLogin)

		// Authenticated
		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Get("/auth/me", s.handleMe)

			r.Route("/todotasks", func(r chi.Router) {
				r.Get("/", s.handleListTasks)
				r.Post("/", s.handleCreateTask)
				r.Get("/dashboard", s.handleDashboard)
				r.Put("/{id}", s.handleUpdateTask)
				r.Delete("/{id}", s.handleDeleteTask)
				r.Post("/{id}/attachment/upload-url", s.handleAttachmentUploadURL)
				r.Get("/{id}/attachment/download-url", s.handleAttachmentDownloadURL)
			})
		})
	})

	return r
}
