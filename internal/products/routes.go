package products

import "github.com/go-chi/chi/v5"

// RegisterRoutes registra el recurso /Product en el router.
// El slash final ("/Product/{id}/") lo resuelve middleware.StripSlashes en el router raíz.
func RegisterRoutes(route chi.Router, handler *Handler) {
	route.Route("/Product", func(route chi.Router) {
		route.Get("/", handler.List)
		route.Post("/", handler.Create)
		route.Get("/{id}", handler.GetByID)
		route.Put("/{id}", handler.Update)
		route.Patch("/{id}", handler.Patch)
		route.Delete("/{id}", handler.Delete)
	})
}
