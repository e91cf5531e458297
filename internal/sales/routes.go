package sales

import "github.com/go-chi/chi/v5"

// RegisterRoutes registra /Sale y /SaleItem en el router.
func RegisterRoutes(route chi.Router, handler *Handler) {
	route.Route("/Sale", func(route chi.Router) {
		route.Get("/", handler.List)
		route.Post("/", handler.Create)
		route.Get("/{id}", handler.GetByID)
		route.Put("/{id}", handler.Update)
		route.Patch("/{id}", handler.Patch)
		route.Delete("/{id}", handler.Delete)
	})

	route.Route("/SaleItem", func(route chi.Router) {
		route.Get("/", handler.ListItems)
		route.Post("/", handler.CreateItem)
		route.Get("/{id}", handler.GetItem)
		route.Put("/{id}", handler.UpdateItem)
		route.Patch("/{id}", handler.PatchItem)
		route.Delete("/{id}", handler.DeleteItem)
	})
}
