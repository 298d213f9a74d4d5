package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/darvell/inkmill/internal/api/middleware"
)

// NewRouter wires the handlers into the HTTP route tree with the standard
// middleware chain.
func NewRouter(content *ContentHandler, tasks *TaskHandler, health http.HandlerFunc) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.TraceMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Post("/content/{id}/augment", content.Augment)
		r.Get("/content/{id}/artifacts/{type}", content.GetArtifact)

		r.Post("/tasks", tasks.CreateTask)
		r.Get("/tasks/{id}", tasks.GetTask)
	})

	if health == nil {
		health = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("OK"))
		}
	}
	r.Get("/health", health)

	return r
}
