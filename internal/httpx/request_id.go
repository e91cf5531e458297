package httpx

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// RequestIDHeader es el header que usa chi para propagar el request id.
const RequestIDHeader = "X-Request-Id"

// maxRequestIDLength corta ids de cliente demasiado largos antes de loguearlos o devolverlos.
const maxRequestIDLength = 128

// RequestIDFrom devuelve el request id de chi (middleware.RequestID lo guarda en el contexto).
// Si no está en el contexto se usa el header que mandó el cliente, sin espacios y truncado.
func RequestIDFrom(request *http.Request) string {
	if request == nil {
		return ""
	}
	if id := middleware.GetReqID(request.Context()); id != "" {
		return id
	}

	id := strings.TrimSpace(request.Header.Get(RequestIDHeader))
	if len(id) > maxRequestIDLength {
		id = id[:maxRequestIDLength]
	}
	return id
}
