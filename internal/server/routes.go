package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Handler builds the router. Middleware runs in order: request logging, rate
// limiting, session parsing, body limit, tracing.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(s.requestLogging)
	r.Use(s.rateLimitMiddleware)
	r.Use(s.sessionMiddleware)
	r.Use(s.requestSizeLimitMiddleware)
	r.Use(s.deps.Telemetry.HTTPMiddleware())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErrorResponse(w, http.StatusNotFound, "NOT_FOUND", "no such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})

	r.Get("/health", s.healthHandler)
	if metrics := s.deps.Telemetry.MetricsHandler(); metrics != nil {
		r.Method(http.MethodGet, s.deps.Telemetry.MetricsEndpoint(), metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Reads
		r.Get("/templates", s.listTemplatesHandler)
		r.Get("/templates/{id}", s.getTemplateHandler)
		r.Get("/profile", s.getProfileHandler)
		r.Get("/activity", s.listActivityHandler)

		r.With(chiMiddleware.AllowContentType("application/json", "multipart/form-data")).
			Post("/analyze", s.analyzeHandler)

		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware.AllowContentType("application/json"))

			r.Post("/auth/signup", s.signUpHandler)
			r.Post("/auth/signin", s.signInHandler)
			r.Post("/layout/normalize", s.normalizeHandler)
			r.Post("/layout/drop", s.dropHandler)
			r.Put("/profile", s.saveProfileHandler)
			r.Post("/activity", s.appendActivityHandler)
			r.Post("/export/{format}", s.exportHandler)
		})
	})

	return r
}
