package sales

import (
	"time"

	"github.com/Lelo88/inventory-pos-api/internal/money"
)

// ProductSummary es la vista del producto dentro de una línea de venta.
type ProductSummary struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Price money.Amount `json:"price"`
}

// SaleItem es una línea de venta.
type SaleItem struct {
	ID       string         `json:"id"`
	SaleID   string         `json:"sale_id"`
	Product  ProductSummary `json:"product"`
	Quantity int            `json:"quantity"`
}

// Subtotal es precio × cantidad.
func (item SaleItem) Subtotal() money.Amount {
	return item.Product.Price.Times(item.Quantity)
}

// Sale es la cabecera de una venta con sus líneas.
// Total no se persiste: se calcula al leer.
type Sale struct {
	ID                     string       `json:"id"`
	SaleDate               time.Time    `json:"sale_date"`
	CustomerName           string       `json:"customer_name"`
	CustomerDocumentNumber string       `json:"customer_document_number"`
	Items                  []SaleItem   `json:"items"`
	Total                  money.Amount `json:"total"`
}

func totalOf(items []SaleItem) money.Amount {
	total := money.Zero
	for _, item := range items {
		total = total.Plus(item.Subtotal())
	}
	return total
}

// ItemInput es una línea en el payload de POST /Sale/.
type ItemInput struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CreateSaleInput es el payload de POST /Sale/.
type CreateSaleInput struct {
	CustomerName           string      `json:"customer_name"`
	CustomerDocumentNumber string      `json:"customer_document_number"`
	Items                  []ItemInput `json:"items"`
}

// UpdateSaleInput es el payload de PUT/PATCH /Sale/{id}/.
// Solo la cabecera: las líneas no se tocan y el stock tampoco.
type UpdateSaleInput struct {
	CustomerName           *string `json:"customer_name"`
	CustomerDocumentNumber *string `json:"customer_document_number"`
}

func (input UpdateSaleInput) empty() bool {
	return input.CustomerName == nil && input.CustomerDocumentNumber == nil
}

// CreateSaleItemInput es el payload de POST /SaleItem/.
type CreateSaleItemInput struct {
	SaleID    string `json:"sale_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// UpdateSaleItemInput es el payload de PUT/PATCH /SaleItem/{id}/.
type UpdateSaleItemInput struct {
	ProductID *string `json:"product_id"`
	Quantity  *int    `json:"quantity"`
}

func (input UpdateSaleItemInput) empty() bool {
	return input.ProductID == nil && input.Quantity == nil
}
