package sales

import (
	"errors"
	"net/http"

	"github.com/Lelo88/inventory-pos-api/internal/httpx"
)

// ListItems maneja GET /SaleItem/.
func (handler *Handler) ListItems(writer http.ResponseWriter, request *http.Request) {
	items, err := handler.service.ListItems(request.Context())
	if err != nil {
		handler.fail(writer, request, err)
		return
	}

	httpx.OK(writer, request, http.StatusOK, items)
}

// CreateItem maneja POST /SaleItem/: descuenta stock como una venta.
func (handler *Handler) CreateItem(writer http.ResponseWriter, request *http.Request) {
	var input CreateSaleItemInput
	if err := httpx.DecodeJSON(writer, request, &input); err != nil {
		httpx.Fail(writer, request, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return
	}

	item, err := handler.service.AddItem(request.Context(), input)
	if err != nil {
		handler.fail(writer, request, err)
		return
	}

	httpx.OK(writer, request, http.StatusCreated, item)
}

// GetItem maneja GET /SaleItem/{id}/.
func (handler *Handler) GetItem(writer http.ResponseWriter, request *http.Request) {
	id, ok := pathID(writer, request)
	if !ok {
		return
	}

	item, err := handler.service.GetItem(request.Context(), id)
	if err != nil {
		handler.fail(writer, request, err)
		return
	}

	httpx.OK(writer, request, http.StatusOK, item)
}

// UpdateItem maneja PUT /SaleItem/{id}/.
func (handler *Handler) UpdateItem(writer http.ResponseWriter, request *http.Request) {
	handler.updateItem(writer, request, false)
}

// PatchItem maneja PATCH /SaleItem/{id}/.
func (handler *Handler) PatchItem(writer http.ResponseWriter, request *http.Request) {
	handler.updateItem(writer, request, true)
}

func (handler *Handler) updateItem(writer http.ResponseWriter, request *http.Request, partial bool) {
	id, ok := pathID(writer, request)
	if !ok {
		return
	}

	input, err := decodeUpdateItem(writer, request)
	if err != nil {
		if errors.Is(err, httpx.ErrInvalidJSON) {
			httpx.Fail(writer, request, http.StatusBadRequest, "invalid_json", "invalid JSON body")
			return
		}
		handler.fail(writer, request, err)
		return
	}

	item, err := handler.service.UpdateItem(request.Context(), id, input, partial)
	if err != nil {
		handler.fail(writer, request, err)
		return
	}

	httpx.OK(writer, request, http.StatusOK, item)
}

// DeleteItem maneja DELETE /SaleItem/{id}/.
func (handler *Handler) DeleteItem(writer http.ResponseWriter, request *http.Request) {
	id, ok := pathID(writer, request)
	if !ok {
		return
	}

	if err := handler.service.DeleteItem(request.Context(), id); err != nil {
		handler.fail(writer, request, err)
		return
	}

	writer.WriteHeader(http.StatusNoContent)
}
