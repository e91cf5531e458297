package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/Lelo88/inventory-pos-api/internal/db"
	"github.com/Lelo88/inventory-pos-api/internal/money"
	"github.com/Lelo88/inventory-pos-api/internal/products"
)

// foreignKeyViolation es el SQLSTATE de PostgreSQL para una FK inexistente.
const foreignKeyViolation = "23503"

const saleColumns = `id, sale_date, customer_name, customer_document_number`

// itemSelect trae cada línea con su producto. El precio es el vigente del producto.
const itemSelect = `
	SELECT si.id, si.sale_id, p.id, p.name, p.price::text, si.quantity
	FROM sale_items si
	JOIN products p ON p.id = si.product_id`

// Repository accede a sales y sale_items.
type Repository struct {
	database db.Querier
	beginner db.Beginner
}

// NewRepository crea un repositorio de sales. El pool se usa también para abrir transacciones.
func NewRepository(pool db.Pool) *Repository {
	return &Repository{database: pool, beginner: pool}
}

// WithTx corre fn en una transacción. El descuento de stock usa el repositorio
// de products sobre la misma pgx.Tx.
func (repository *Repository) WithTx(ctx context.Context, fn func(tx TxStore) error) error {
	return db.InTx(ctx, repository.beginner, func(tx db.Querier) error {
		return fn(&txRepository{database: tx, stock: products.NewRepository(tx)})
	})
}

func scanSale(row pgx.Row) (Sale, error) {
	var sale Sale
	err := row.Scan(&sale.ID, &sale.SaleDate, &sale.CustomerName, &sale.CustomerDocumentNumber)
	return sale, err
}

func scanItem(row pgx.Row) (SaleItem, error) {
	var item SaleItem
	var price string
	err := row.Scan(&item.ID, &item.SaleID, &item.Product.ID, &item.Product.Name, &price, &item.Quantity)
	if err != nil {
		return SaleItem{}, err
	}

	amount, err := decimal.NewFromString(price)
	if err != nil {
		return SaleItem{}, fmt.Errorf("scan price %q: %w", price, err)
	}
	item.Product.Price = money.New(amount)

	return item, nil
}

func collectItems(rows pgx.Rows) ([]SaleItem, error) {
	defer rows.Close()

	items := make([]SaleItem, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// itemsBySale trae en una sola query las líneas de varias ventas, en orden de carga.
func (repository *Repository) itemsBySale(ctx context.Context, saleIDs []string) (map[string][]SaleItem, error) {
	rows, err := repository.database.Query(ctx,
		itemSelect+` WHERE si.sale_id = ANY($1::uuid[]) ORDER BY si.sale_id, si.position, si.id`, saleIDs)
	if err != nil {
		return nil, err
	}

	items, err := collectItems(rows)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]SaleItem, len(saleIDs))
	for _, item := range items {
		grouped[item.SaleID] = append(grouped[item.SaleID], item)
	}
	return grouped, nil
}

func (repository *Repository) withItems(ctx context.Context, sales []Sale) error {
	if len(sales) == 0 {
		return nil
	}

	ids := make([]string, len(sales))
	for i, sale := range sales {
		ids[i] = sale.ID
	}

	grouped, err := repository.itemsBySale(ctx, ids)
	if err != nil {
		return err
	}

	for i := range sales {
		sales[i].Items = grouped[sales[i].ID]
		if sales[i].Items == nil {
			sales[i].Items = []SaleItem{}
		}
		sales[i].Total = totalOf(sales[i].Items)
	}
	return nil
}

// List devuelve las ventas con sus líneas y totales.
func (repository *Repository) List(ctx context.Context) ([]Sale, error) {
	rows, err := repository.database.Query(ctx, `SELECT `+saleColumns+` FROM sales ORDER BY sale_date, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]Sale, 0)
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if err := repository.withItems(ctx, sales); err != nil {
		return nil, err
	}
	return sales, nil
}

// GetByID trae una venta con sus líneas.
func (repository *Repository) GetByID(ctx context.Context, id string) (Sale, error) {
	sale, err := scanSale(repository.database.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Sale{}, ErrorNotFound
		}
		return Sale{}, err
	}

	sales := []Sale{sale}
	if err := repository.withItems(ctx, sales); err != nil {
		return Sale{}, err
	}
	return sales[0], nil
}

// Update modifica solo la cabecera.
func (repository *Repository) Update(ctx context.Context, id string, input UpdateSaleInput) (Sale, error) {
	setParts := make([]string, 0, 2)
	args := make([]any, 0, 3)

	if input.CustomerName != nil {
		args = append(args, *input.CustomerName)
		setParts = append(setParts, fmt.Sprintf("customer_name = $%d", len(args)))
	}
	if input.CustomerDocumentNumber != nil {
		args = append(args, *input.CustomerDocumentNumber)
		setParts = append(setParts, fmt.Sprintf("customer_document_number = $%d", len(args)))
	}
	if len(setParts) == 0 {
		return Sale{}, ErrorInvalidInput
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE sales SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setParts, ", "), len(args), saleColumns)

	sale, err := scanSale(repository.database.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Sale{}, ErrorNotFound
		}
		return Sale{}, err
	}

	sales := []Sale{sale}
	if err := repository.withItems(ctx, sales); err != nil {
		return Sale{}, err
	}
	return sales[0], nil
}

// Delete borra la venta; sus líneas caen por cascade. El stock no se repone.
func (repository *Repository) Delete(ctx context.Context, id string) error {
	var deletedID string
	err := repository.database.QueryRow(ctx, `DELETE FROM sales WHERE id = $1 RETURNING id`, id).Scan(&deletedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrorNotFound
		}
		return err
	}
	return nil
}

// ListItems devuelve todas las líneas, agrupadas por venta.
func (repository *Repository) ListItems(ctx context.Context) ([]SaleItem, error) {
	rows, err := repository.database.Query(ctx, itemSelect+` ORDER BY si.sale_id, si.position, si.id`)
	if err != nil {
		return nil, err
	}
	return collectItems(rows)
}

// GetItem trae una línea por ID.
func (repository *Repository) GetItem(ctx context.Context, id string) (SaleItem, error) {
	item, err := scanItem(repository.database.QueryRow(ctx, itemSelect+` WHERE si.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SaleItem{}, ErrorItemNotFound
		}
		return SaleItem{}, err
	}
	return item, nil
}

// UpdateItem cambia producto y/o cantidad de una línea. No recalcula stock.
func (repository *Repository) UpdateItem(ctx context.Context, id string, input UpdateSaleItemInput) (SaleItem, error) {
	setParts := make([]string, 0, 2)
	args := make([]any, 0, 3)

	if input.ProductID != nil {
		args = append(args, *input.ProductID)
		setParts = append(setParts, fmt.Sprintf("product_id = $%d", len(args)))
	}
	if input.Quantity != nil {
		args = append(args, *input.Quantity)
		setParts = append(setParts, fmt.Sprintf("quantity = $%d", len(args)))
	}
	if len(setParts) == 0 {
		return SaleItem{}, ErrorInvalidInput
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE sale_items SET %s WHERE id = $%d RETURNING id`, strings.Join(setParts, ", "), len(args))

	var updatedID string
	if err := repository.database.QueryRow(ctx, query, args...).Scan(&updatedID); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return SaleItem{}, ErrorItemNotFound
		case errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation && input.ProductID != nil:
			return SaleItem{}, &ProductNotFoundError{ProductID: *input.ProductID}
		}
		return SaleItem{}, err
	}

	return repository.GetItem(ctx, updatedID)
}

// DeleteItem borra una línea. El stock no se repone.
func (repository *Repository) DeleteItem(ctx context.Context, id string) error {
	var deletedID string
	err := repository.database.QueryRow(ctx, `DELETE FROM sale_items WHERE id = $1 RETURNING id`, id).Scan(&deletedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrorItemNotFound
		}
		return err
	}
	return nil
}

// txRepository son las operaciones de escritura que corren dentro de WithTx.
type txRepository struct {
	database db.Querier
	stock    *products.Repository
}

func (tx *txRepository) InsertSale(ctx context.Context, customerName, documentNumber string) (Sale, error) {
	query := `
		INSERT INTO sales (customer_name, customer_document_number)
		VALUES ($1, $2)
		RETURNING ` + saleColumns

	return scanSale(tx.database.QueryRow(ctx, query, customerName, documentNumber))
}

// LockSale bloquea la cabecera hasta el commit para que no se borre mientras se agrega una línea.
func (tx *txRepository) LockSale(ctx context.Context, saleID string) error {
	var id string
	err := tx.database.QueryRow(ctx, `SELECT id FROM sales WHERE id = $1 FOR UPDATE`, saleID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrorNotFound
		}
		return err
	}
	return nil
}

func (tx *txRepository) NextPosition(ctx context.Context, saleID string) (int, error) {
	var position int
	err := tx.database.QueryRow(ctx,
		`SELECT COALESCE(MAX(position), 0) + 1 FROM sale_items WHERE sale_id = $1`, saleID).Scan(&position)
	return position, err
}

func (tx *txRepository) DecrementStock(ctx context.Context, productID string, quantity int) (products.StockChange, error) {
	return tx.stock.DecrementStock(ctx, productID, quantity)
}

func (tx *txRepository) InsertItem(ctx context.Context, saleID, productID string, quantity, position int) (string, error) {
	query := `
		INSERT INTO sale_items (sale_id, product_id, quantity, position)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	var id string
	err := tx.database.QueryRow(ctx, query, saleID, productID, quantity, position).Scan(&id)
	return id, err
}
