package products

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Lelo88/inventory-pos-api/internal/httpx"
	"github.com/Lelo88/inventory-pos-api/internal/validate"
)

// ServiceAPI define lo que el handler necesita.
// Permite testear handlers con stubs sin tocar DB.
type ServiceAPI interface {
	Create(ctx context.Context, input CreateProductInput) (Product, error)
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id string) (Product, error)
	Update(ctx context.Context, id string, input UpdateProductInput, partial bool) (Product, error)
	Delete(ctx context.Context, id string) error
}

// Handler HTTP para /Product.
// Solo traduce HTTP <-> dominio (service).
type Handler struct {
	service ServiceAPI
	logger  *slog.Logger
}

// NewHandler crea un handler de products. Con logger nil usa slog.Default().
func NewHandler(service ServiceAPI, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// List maneja GET /Product/.
func (handler *Handler) List(writer http.ResponseWriter, request *http.Request) {
	products, err := handler.service.List(request.Context())
	if err != nil {
		handler.fail(writer, request, err)
		return
	}

	httpx.OK(writer, request, http.StatusOK, products)
}

// Create maneja POST /Product/.
func (handler *Handler) Create(writer http.ResponseWriter, request *http.Request) {
	var input CreateProductInput
	if err := httpx.DecodeJSON(writer, request, &input); err != nil {
		httpx.Fail(writer, request, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return
	}

	product, err := handler.service.Create(request.Context(), input)
	if err != nil {
		handler.fail(writer, request, err)
		return
	}

	httpx.OK(writer, request, http.StatusCreated, product)
}

// GetByID maneja GET /Product/{id}/.
func (handler *Handler) GetByID(writer http.ResponseWriter, request *http.Request) {
	id, ok := pathID(writer, request)
	if !ok {
		return
	}

	product, err := handler.service.Get(request.Context(), id)
	if err != nil {
		handler.fail(writer, request, err)
		return
	}

	httpx.OK(writer, request, http.StatusOK, product)
}

// Update maneja PUT /Product/{id}/.
func (handler *Handler) Update(writer http.ResponseWriter, request *http.Request) {
	handler.update(writer, request, false)
}

// Patch maneja PATCH /Product/{id}/.
func (handler *Handler) Patch(writer http.ResponseWriter, request *http.Request) {
	handler.update(writer, request, true)
}

func (handler *Handler) update(writer http.ResponseWriter, request *http.Request, partial bool) {
	id, ok := pathID(writer, request)
	if !ok {
		return
	}

	// Primero leemos raw para saber qué campos vinieron.
	var raw map[string]json.RawMessage
	if err := httpx.DecodeJSON(writer, request, &raw); err != nil {
		httpx.Fail(writer, request, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return
	}

	// Re-encode y decode al struct para reutilizar tags y tipos.
	body, _ := json.Marshal(raw)

	var input UpdateProductInput
	if err := json.Unmarshal(body, &input); err != nil {
		httpx.Fail(writer, request, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return
	}

	// "expiry_date": null limpia la fecha; si no vino, no se toca.
	_, input.ExpiryDatePresent = raw["expiry_date"]

	product, err := handler.service.Update(request.Context(), id, input, partial)
	if err != nil {
		handler.fail(writer, request, err)
		return
	}

	httpx.OK(writer, request, http.StatusOK, product)
}

// Delete maneja DELETE /Product/{id}/.
func (handler *Handler) Delete(writer http.ResponseWriter, request *http.Request) {
	id, ok := pathID(writer, request)
	if !ok {
		return
	}

	if err := handler.service.Delete(request.Context(), id); err != nil {
		handler.fail(writer, request, err)
		return
	}

	// 204 No Content: respuesta vacía.
	writer.WriteHeader(http.StatusNoContent)
}

// pathID valida que el id sea UUID porque en DB es uuid; esto evita errores innecesarios.
func pathID(writer http.ResponseWriter, request *http.Request) (string, bool) {
	id := chi.URLParam(request, "id")
	if _, err := uuid.Parse(id); err != nil {
		httpx.Fail(writer, request, http.StatusBadRequest, "invalid_id", "id must be a valid UUID")
		return "", false
	}
	return id, true
}

func (handler *Handler) fail(writer http.ResponseWriter, request *http.Request, err error) {
	var fieldErr *validate.FieldError
	switch {
	case errors.As(err, &fieldErr):
		httpx.FailWithDetails(writer, request, http.StatusBadRequest, "invalid_input", fieldErr.Error(), fieldErr)
	case errors.Is(err, ErrorInvalidInput):
		httpx.Fail(writer, request, http.StatusBadRequest, "invalid_input", "invalid input data")
	case errors.Is(err, ErrorNotFound):
		httpx.Fail(writer, request, http.StatusNotFound, "not_found", "product not found")
	default:
		// No filtramos detalles internos.
		handler.logger.ErrorContext(request.Context(), "product request failed",
			"method", request.Method,
			"path", request.URL.Path,
			"request_id", httpx.RequestIDFrom(request),
			"error", err,
		)
		httpx.Fail(writer, request, http.StatusInternalServerError, "internal_error", "unexpected error")
	}
}
