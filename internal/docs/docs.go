// Package docs sirve la especificación OpenAPI embebida y una Swagger UI que la consume.
package docs

import (
	"embed"
	"net/http"
)

//go:embed openapi.yaml swagger.html
var files embed.FS

const (
	openAPIFile = "openapi.yaml"
	swaggerFile = "swagger.html"
)

// OpenAPIHandler devuelve el YAML embebido.
func OpenAPIHandler() http.HandlerFunc {
	return serveFile(openAPIFile, "application/yaml; charset=utf-8")
}

// SwaggerUIHandler devuelve la página de Swagger UI.
func SwaggerUIHandler() http.HandlerFunc {
	return serveFile(swaggerFile, "text/html; charset=utf-8")
}

func serveFile(name, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := files.ReadFile(name)
		if err != nil {
			http.Error(w, name+" not found", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(b)
	}
}
