package sales

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/Lelo88/inventory-pos-api/internal/money"
	"github.com/Lelo88/inventory-pos-api/internal/products"
)

type memProduct struct {
	name  string
	price money.Amount
	stock int
}

type memItem struct {
	saleID, productID  string
	quantity, position int
}

// memStore es un Store en memoria. WithTx guarda una copia del estado y la
// restaura si fn falla, como un rollback.
type memStore struct {
	products map[string]memProduct
	sales    map[string]Sale
	items    map[string]memItem

	seq         int
	failInsert  error
	txCount     int
	rolledBacks int
}

func newMemStore() *memStore {
	return &memStore{
		products: map[string]memProduct{},
		sales:    map[string]Sale{},
		items:    map[string]memItem{},
	}
}

func (store *memStore) addProduct(id, name, price string, stock int) {
	store.products[id] = memProduct{name: name, price: money.MustParse(price), stock: stock}
}

// nextID genera UUIDs válidos y predecibles.
func (store *memStore) nextID() string {
	store.seq++
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", store.seq)
}

func (store *memStore) WithTx(ctx context.Context, fn func(tx TxStore) error) error {
	store.txCount++
	productsSnapshot := maps.Clone(store.products)
	salesSnapshot := maps.Clone(store.sales)
	itemsSnapshot := maps.Clone(store.items)

	if err := fn(store); err != nil {
		store.products = productsSnapshot
		store.sales = salesSnapshot
		store.items = itemsSnapshot
		store.rolledBacks++
		return err
	}
	return nil
}

func (store *memStore) InsertSale(ctx context.Context, customerName, documentNumber string) (Sale, error) {
	sale := Sale{
		ID:                     store.nextID(),
		SaleDate:               time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC),
		CustomerName:           customerName,
		CustomerDocumentNumber: documentNumber,
	}
	store.sales[sale.ID] = sale
	return sale, nil
}

func (store *memStore) LockSale(ctx context.Context, saleID string) error {
	if _, ok := store.sales[saleID]; !ok {
		return ErrorNotFound
	}
	return nil
}

func (store *memStore) NextPosition(ctx context.Context, saleID string) (int, error) {
	position := 0
	for _, item := range store.items {
		if item.saleID == saleID && item.position > position {
			position = item.position
		}
	}
	return position + 1, nil
}

func (store *memStore) DecrementStock(ctx context.Context, productID string, quantity int) (products.StockChange, error) {
	product, ok := store.products[productID]
	if !ok {
		return products.StockChange{}, products.ErrorNotFound
	}
	if product.stock < quantity {
		return products.StockChange{}, &products.InsufficientStockError{
			ProductID:   productID,
			ProductName: product.name,
			Available:   product.stock,
			Requested:   quantity,
		}
	}
	product.stock -= quantity
	store.products[productID] = product
	return products.StockChange{ProductID: productID, Name: product.name, Price: product.price, Remaining: product.stock}, nil
}

func (store *memStore) InsertItem(ctx context.Context, saleID, productID string, quantity, position int) (string, error) {
	if store.failInsert != nil {
		return "", store.failInsert
	}
	id := store.nextID()
	store.items[id] = memItem{saleID: saleID, productID: productID, quantity: quantity, position: position}
	return id, nil
}

func (store *memStore) item(id string) SaleItem {
	row := store.items[id]
	product := store.products[row.productID]
	return SaleItem{
		ID:       id,
		SaleID:   row.saleID,
		Product:  ProductSummary{ID: row.productID, Name: product.name, Price: product.price},
		Quantity: row.quantity,
	}
}

func (store *memStore) List(ctx context.Context) ([]Sale, error) {
	sales := make([]Sale, 0, len(store.sales))
	for id := range store.sales {
		sale, _ := store.GetByID(ctx, id)
		sales = append(sales, sale)
	}
	return sales, nil
}

func (store *memStore) GetByID(ctx context.Context, id string) (Sale, error) {
	sale, ok := store.sales[id]
	if !ok {
		return Sale{}, ErrorNotFound
	}
	sale.Items = []SaleItem{}
	for itemID, row := range store.items {
		if row.saleID == id {
			sale.Items = append(sale.Items, store.item(itemID))
		}
	}
	sale.Total = totalOf(sale.Items)
	return sale, nil
}

func (store *memStore) Update(ctx context.Context, id string, input UpdateSaleInput) (Sale, error) {
	sale, ok := store.sales[id]
	if !ok {
		return Sale{}, ErrorNotFound
	}
	if input.CustomerName != nil {
		sale.CustomerName = *input.CustomerName
	}
	if input.CustomerDocumentNumber != nil {
		sale.CustomerDocumentNumber = *input.CustomerDocumentNumber
	}
	store.sales[id] = sale
	return store.GetByID(ctx, id)
}

func (store *memStore) Delete(ctx context.Context, id string) error {
	if _, ok := store.sales[id]; !ok {
		return ErrorNotFound
	}
	delete(store.sales, id)
	for itemID, row := range store.items {
		if row.saleID == id {
			delete(store.items, itemID)
		}
	}
	return nil
}

func (store *memStore) ListItems(ctx context.Context) ([]SaleItem, error) {
	items := make([]SaleItem, 0, len(store.items))
	for id := range store.items {
		items = append(items, store.item(id))
	}
	return items, nil
}

func (store *memStore) GetItem(ctx context.Context, id string) (SaleItem, error) {
	if _, ok := store.items[id]; !ok {
		return SaleItem{}, ErrorItemNotFound
	}
	return store.item(id), nil
}

func (store *memStore) UpdateItem(ctx context.Context, id string, input UpdateSaleItemInput) (SaleItem, error) {
	row, ok := store.items[id]
	if !ok {
		return SaleItem{}, ErrorItemNotFound
	}
	if input.ProductID != nil {
		if _, ok := store.products[*input.ProductID]; !ok {
			return SaleItem{}, ErrorProductNotFound
		}
		row.productID = *input.ProductID
	}
	if input.Quantity != nil {
		row.quantity = *input.Quantity
	}
	store.items[id] = row
	return store.item(id), nil
}

func (store *memStore) DeleteItem(ctx context.Context, id string) error {
	if _, ok := store.items[id]; !ok {
		return ErrorItemNotFound
	}
	delete(store.items, id)
	return nil
}

var errBoom = errors.New("boom")
