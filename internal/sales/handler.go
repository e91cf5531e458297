package sales

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Lelo88/inventory-pos-api/internal/httpx"
	"github.com/Lelo88/inventory-pos-api/internal/products"
	"github.com/Lelo88/inventory-pos-api/internal/validate"
)

// ServiceAPI define lo que los handlers de /Sale y /SaleItem necesitan.
type ServiceAPI interface {
	Create(ctx context.Context, input CreateSaleInput) (Sale, error)
	List(ctx context.Context) ([]Sale, error)
	Get(ctx context.Context, id string) (Sale, error)
	Update(ctx context.Context, id string, input UpdateSaleInput, partial bool) (Sale, error)
	Delete(ctx context.Context, id string) error

	AddItem(ctx context.Context, input CreateSaleItemInput) (SaleItem, error)
	ListItems(ctx context.Context) ([]SaleItem, error)
	GetItem(ctx context.Context, id string) (SaleItem, error)
	UpdateItem(ctx context.Context, id string, input UpdateSaleItemInput, partial bool) (SaleItem, error)
	DeleteItem(ctx context.Context, id string) error
}

// Handler HTTP para /Sale y /SaleItem.
type Handler struct {
	service ServiceAPI
	logger  *slog.Logger
}

// NewHandler crea un handler de sales. Con logger nil usa slog.Default().
func NewHandler(service ServiceAPI, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// List maneja GET /Sale/.
func (handler *Handler) List(writer http.ResponseWriter, request *http.Request) {
	sales, err := handler.service.List(request.Context())
	if err != nil {
		handler.fail(writer, request, err)
		return
	}

	httpx.OK(writer, request, http.StatusOK, sales)
}

// Create maneja POST /Sale/.
func (handler *Handler) Create(writer http.ResponseWriter, request *http.Request) {
	var input CreateSaleInput
	if err := httpx.DecodeJSON(writer, request, &input); err != nil {
		httpx.Fail(writer, request, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return
	}

	sale, err := handler.service.Create(request.Context(), input)
	if err != nil {
		handler.fail(writer, request, err)
		return
	}

	httpx.OK(writer, request, http.StatusCreated, sale)
}

// GetByID maneja GET /Sale/{id}/.
func (handler *Handler) GetByID(writer http.ResponseWriter, request *http.Request) {
	id, ok := pathID(writer, request)
	if !ok {
		return
	}

	sale, err := handler.service.Get(request.Context(), id)
	if err != nil {
		handler.fail(writer, request, err)
		return
	}

	httpx.OK(writer, request, http.StatusOK, sale)
}

// Update maneja PUT /Sale/{id}/.
func (handler *Handler) Update(writer http.ResponseWriter, request *http.Request) {
	handler.update(writer, request, false)
}

// Patch maneja PATCH /Sale/{id}/.
func (handler *Handler) Patch(writer http.ResponseWriter, request *http.Request) {
	handler.update(writer, request, true)
}

func (handler *Handler) update(writer http.ResponseWriter, request *http.Request, partial bool) {
	id, ok := pathID(writer, request)
	if !ok {
		return
	}

	var input UpdateSaleInput
	if err := httpx.DecodeJSON(writer, request, &input); err != nil {
		httpx.Fail(writer, request, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return
	}

	sale, err := handler.service.Update(request.Context(), id, input, partial)
	if err != nil {
		handler.fail(writer, request, err)
		return
	}

	httpx.OK(writer, request, http.StatusOK, sale)
}

// Delete maneja DELETE /Sale/{id}/.
func (handler *Handler) Delete(writer http.ResponseWriter, request *http.Request) {
	id, ok := pathID(writer, request)
	if !ok {
		return
	}

	if err := handler.service.Delete(request.Context(), id); err != nil {
		handler.fail(writer, request, err)
		return
	}

	writer.WriteHeader(http.StatusNoContent)
}

// pathID valida que el id sea UUID porque en DB es uuid.
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
	var stockErr *products.InsufficientStockError
	var productErr *ProductNotFoundError
	switch {
	case errors.As(err, &fieldErr):
		httpx.FailWithDetails(writer, request, http.StatusBadRequest, "invalid_input", fieldErr.Error(), fieldErr)
	case errors.As(err, &stockErr):
		httpx.FailWithDetails(writer, request, http.StatusBadRequest, "insufficient_stock", stockErr.Error(), stockErr)
	case errors.Is(err, ErrorInvalidInput):
		httpx.Fail(writer, request, http.StatusBadRequest, "invalid_input", "invalid input data")
	case errors.As(err, &productErr):
		httpx.FailWithDetails(writer, request, http.StatusNotFound, "product_not_found", "product not found", productErr)
	case errors.Is(err, ErrorProductNotFound):
		httpx.Fail(writer, request, http.StatusNotFound, "product_not_found", "product not found")
	case errors.Is(err, ErrorNotFound):
		httpx.Fail(writer, request, http.StatusNotFound, "not_found", "sale not found")
	case errors.Is(err, ErrorItemNotFound):
		httpx.Fail(writer, request, http.StatusNotFound, "not_found", "sale item not found")
	default:
		handler.logger.ErrorContext(request.Context(), "sale request failed",
			"method", request.Method,
			"path", request.URL.Path,
			"request_id", httpx.RequestIDFrom(request),
			"error", err,
		)
		httpx.Fail(writer, request, http.StatusInternalServerError, "internal_error", "unexpected error")
	}
}

// decodeUpdateItem distingue null de ausente: "quantity": null es inválido.
func decodeUpdateItem(writer http.ResponseWriter, request *http.Request) (UpdateSaleItemInput, error) {
	var raw map[string]json.RawMessage
	if err := httpx.DecodeJSON(writer, request, &raw); err != nil {
		return UpdateSaleItemInput{}, err
	}

	var input UpdateSaleItemInput
	for key, target := range map[string]any{"product_id": &input.ProductID, "quantity": &input.Quantity} {
		value, ok := raw[key]
		if !ok {
			continue
		}
		if string(value) == "null" {
			return UpdateSaleItemInput{}, validate.Field(key, "this field may not be null")
		}
		if err := json.Unmarshal(value, target); err != nil {
			return UpdateSaleItemInput{}, httpx.ErrInvalidJSON
		}
	}
	return input, nil
}
