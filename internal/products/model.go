package products

import (
	"fmt"

	"github.com/Lelo88/inventory-pos-api/internal/money"
)

// Product representa un registro persistido en DB.
// Las fechas viajan como "YYYY-MM-DD"; la DB las castea con ::text.
type Product struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	Description      string       `json:"description"`
	Price            money.Amount `json:"price"`
	Stock            int          `json:"stock"`
	Provider         string       `json:"provider"`
	RegistrationDate string       `json:"registration_date"`
	ExpiryDate       *string      `json:"expiry_date"`
}

// CreateProductInput es el payload de POST /Product/.
// Price y Stock son punteros para distinguir "no enviado" de cero.
// registration_date no se acepta: lo asigna la DB.
type CreateProductInput struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Price       *money.Amount `json:"price"`
	Stock       *int          `json:"stock"`
	Provider    string        `json:"provider"`
	ExpiryDate  *string       `json:"expiry_date"`
}

// UpdateProductInput es el payload de PUT/PATCH /Product/{id}/.
// ExpiryDatePresent lo completa el handler: "expiry_date": null limpia la fecha,
// y si la clave no vino no se toca.
type UpdateProductInput struct {
	Name              *string       `json:"name"`
	Description       *string       `json:"description"`
	Price             *money.Amount `json:"price"`
	Stock             *int          `json:"stock"`
	Provider          *string       `json:"provider"`
	ExpiryDate        *string       `json:"expiry_date"`
	ExpiryDatePresent bool          `json:"-"`
}

func (input UpdateProductInput) empty() bool {
	return input.Name == nil && input.Description == nil && input.Price == nil &&
		input.Stock == nil && input.Provider == nil && !input.ExpiryDatePresent
}

// StockChange es lo que queda de un producto después de descontar stock.
// Price es el precio al momento de la venta.
type StockChange struct {
	ProductID string
	Name      string
	Price     money.Amount
	Remaining int
}

// InsufficientStockError se devuelve cuando se pide más de lo disponible.
type InsufficientStockError struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product"`
	Available   int    `json:"available"`
	Requested   int    `json:"requested"`
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Not enough stock for product %s. Available: %d, Requested: %d", e.ProductName, e.Available, e.Requested)
}
