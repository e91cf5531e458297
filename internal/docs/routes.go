package docs

import "github.com/go-chi/chi/v5"

// RegisterRoutes monta las rutas de documentación (Swagger UI + OpenAPI YAML).
// "/docs/" llega como "/docs" porque el router raíz usa middleware.StripSlashes.
func RegisterRoutes(r chi.Router) {
	r.Route("/docs", func(r chi.Router) {
		r.Get("/", SwaggerUIHandler())
		r.Get("/openapi.yaml", OpenAPIHandler())
	})
}
