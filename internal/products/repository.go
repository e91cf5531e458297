package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Lelo88/inventory-pos-api/internal/db"
	"github.com/Lelo88/inventory-pos-api/internal/money"
)

// productColumns se castean a text donde el tipo de DB no mapea directo al modelo.
const productColumns = `id, name, description, price::text, stock, provider, registration_date::text, expiry_date::text`

// maxDecrementAttempts acota los reintentos de DecrementStock tras leer la fila bloqueada.
const maxDecrementAttempts = 2

// Repository accede a la tabla products.
// Recibe un db.Querier: el pool en el flujo normal o una pgx.Tx cuando el
// descuento de stock corre dentro de la transacción de una venta.
type Repository struct {
	database db.Querier
}

// NewRepository crea un repositorio de products.
func NewRepository(database db.Querier) *Repository {
	return &Repository{database: database}
}

func scanProduct(row pgx.Row) (Product, error) {
	var product Product
	var price string
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&price,
		&product.Stock,
		&product.Provider,
		&product.RegistrationDate,
		&product.ExpiryDate,
	)
	if err != nil {
		return Product{}, err
	}

	amount, err := decimal.NewFromString(price)
	if err != nil {
		return Product{}, fmt.Errorf("scan price %q: %w", price, err)
	}
	product.Price = money.New(amount)

	return product, nil
}

// Insert crea un producto. registration_date lo pone la DB (CURRENT_DATE).
func (repository *Repository) Insert(ctx context.Context, input CreateProductInput) (Product, error) {
	query := `
		INSERT INTO products (name, description, price, stock, provider, expiry_date)
		VALUES ($1, $2, $3::numeric, $4, $5, $6::date)
		RETURNING ` + productColumns

	return scanProduct(repository.database.QueryRow(ctx, query,
		input.Name,
		input.Description,
		input.Price.String(),
		*input.Stock,
		input.Provider,
		input.ExpiryDate,
	))
}

// List devuelve todos los productos ordenados por vencimiento (sin fecha al final).
func (repository *Repository) List(ctx context.Context) ([]Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		ORDER BY expiry_date ASC NULLS LAST, id ASC`

	rows, err := repository.database.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

// GetByID devuelve el producto o pgx.ErrNoRows; el service lo traduce.
func (repository *Repository) GetByID(ctx context.Context, id string) (Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	return scanProduct(repository.database.QueryRow(ctx, query, id))
}

// Update aplica solo los campos presentes. registration_date nunca se toca.
func (repository *Repository) Update(ctx context.Context, id string, input UpdateProductInput) (Product, error) {
	if input.empty() {
		return Product{}, ErrorInvalidInput
	}

	sets := make([]string, 0, 6)
	args := make([]any, 0, 7)
	set := func(column, cast string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d%s", column, len(args), cast))
	}

	if input.Name != nil {
		set("name", "", *input.Name)
	}
	if input.Description != nil {
		set("description", "", *input.Description)
	}
	if input.Price != nil {
		set("price", "::numeric", input.Price.String())
	}
	if input.Stock != nil {
		set("stock", "", *input.Stock)
	}
	if input.Provider != nil {
		set("provider", "", *input.Provider)
	}
	if input.ExpiryDatePresent {
		if input.ExpiryDate == nil {
			sets = append(sets, "expiry_date = NULL")
		} else {
			set("expiry_date", "::date", *input.ExpiryDate)
		}
	}

	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE products
		SET %s
		WHERE id = $%d
		RETURNING %s`, strings.Join(sets, ", "), len(args), productColumns)

	product, err := scanProduct(repository.database.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrorNotFound
		}
		return Product{}, err
	}

	return product, nil
}

// Delete borra el producto. Los sale_items que lo referencian se borran en cascada (FK).
func (repository *Repository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM products WHERE id = $1 RETURNING id`

	var deletedID string
	if err := repository.database.QueryRow(ctx, query, id).Scan(&deletedID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrorNotFound
		}
		return err
	}

	return nil
}

// DecrementStock descuenta quantity en un único UPDATE condicional.
// El WHERE stock >= $2 se reevalúa sobre la fila bloqueada, así dos ventas
// concurrentes no pueden dejar el stock en negativo aun en READ COMMITTED.
// Si no se actualizó ninguna fila, una lectura FOR UPDATE distingue
// "no existe" de "no alcanza".
func (repository *Repository) DecrementStock(ctx context.Context, id string, quantity int) (StockChange, error) {
	for attempt := 1; ; attempt++ {
		change, err := repository.decrement(ctx, id, quantity)
		if !errors.Is(err, pgx.ErrNoRows) {
			return change, err
		}

		name, available, err := repository.lockStock(ctx, id)
		if err != nil {
			return StockChange{}, err
		}
		// Un reabastecimiento entre el UPDATE y la lectura se reintenta con la fila ya bloqueada.
		if available < quantity || attempt == maxDecrementAttempts {
			return StockChange{}, &InsufficientStockError{
				ProductID:   id,
				ProductName: name,
				Available:   available,
				Requested:   quantity,
			}
		}
	}
}

func (repository *Repository) decrement(ctx context.Context, id string, quantity int) (StockChange, error) {
	const query = `
		UPDATE products
		SET stock = stock - $2
		WHERE id = $1 AND stock >= $2
		RETURNING id, name, price::text, stock`

	var change StockChange
	var price string
	if err := repository.database.QueryRow(ctx, query, id, quantity).
		Scan(&change.ProductID, &change.Name, &price, &change.Remaining); err != nil {
		return StockChange{}, err
	}

	amount, err := decimal.NewFromString(price)
	if err != nil {
		return StockChange{}, fmt.Errorf("scan price %q: %w", price, err)
	}
	change.Price = money.New(amount)
	return change, nil
}

// lockStock lee el stock vigente bloqueando la fila hasta el fin de la transacción.
func (repository *Repository) lockStock(ctx context.Context, id string) (string, int, error) {
	const query = `SELECT name, stock FROM products WHERE id = $1 FOR UPDATE`

	var name string
	var available int
	if err := repository.database.QueryRow(ctx, query, id).Scan(&name, &available); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", 0, ErrorNotFound
		}
		return "", 0, err
	}
	return name, available, nil
}
