package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/davitt-io/granary/internal/http/export"
	"github.com/davitt-io/granary/internal/http/importcsv"
	"github.com/davitt-io/granary/internal/http/naming"
	"github.com/davitt-io/granary/internal/http/record"
)

func New(
	recordsV1 *record.Handler,
	importV1 *importcsv.Handler,
	namingV1 *naming.Handler,
	exportV1 *export.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/records", func(r chi.Router) {
			recordsV1.Routes(r)
		})

		r.Route("/import", importV1.Routes)

		r.Route("/naming", func(r chi.Router) {
			namingV1.Routes(r)
		})

		r.Route("/export", func(r chi.Router) {
			exportV1.Routes(r)
		})
	})

	return router
}
