package sales

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Lelo88/inventory-pos-api/internal/products"
	"github.com/Lelo88/inventory-pos-api/internal/validate"
)

// Errores de dominio (no HTTP). El handler los traduce a status codes.
var (
	ErrorInvalidInput    = validate.ErrInvalid
	ErrorNotFound        = errors.New("sale not found")
	ErrorItemNotFound    = errors.New("sale item not found")
	ErrorProductNotFound = errors.New("product not found")
)

// ProductNotFoundError identifica el producto inexistente de una línea.
type ProductNotFoundError struct {
	ProductID string `json:"product_id"`
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", ErrorProductNotFound, e.ProductID)
}

// Unwrap permite errors.Is(err, ErrorProductNotFound).
func (e *ProductNotFoundError) Unwrap() error {
	return ErrorProductNotFound
}

const (
	maxCustomerNameLength   = 100
	maxDocumentNumberLength = 20

	tracerName = "github.com/Lelo88/inventory-pos-api/internal/sales"
)

// TxStore son las escrituras que tienen que ir juntas en una transacción.
type TxStore interface {
	InsertSale(ctx context.Context, customerName, documentNumber string) (Sale, error)
	LockSale(ctx context.Context, saleID string) error
	NextPosition(ctx context.Context, saleID string) (int, error)
	DecrementStock(ctx context.Context, productID string, quantity int) (products.StockChange, error)
	InsertItem(ctx context.Context, saleID, productID string, quantity, position int) (string, error)
}

// Store es lo que el service necesita de la capa de datos.
type Store interface {
	WithTx(ctx context.Context, fn func(tx TxStore) error) error

	List(ctx context.Context) ([]Sale, error)
	GetByID(ctx context.Context, id string) (Sale, error)
	Update(ctx context.Context, id string, input UpdateSaleInput) (Sale, error)
	Delete(ctx context.Context, id string) error

	ListItems(ctx context.Context) ([]SaleItem, error)
	GetItem(ctx context.Context, id string) (SaleItem, error)
	UpdateItem(ctx context.Context, id string, input UpdateSaleItemInput) (SaleItem, error)
	DeleteItem(ctx context.Context, id string) error
}

// Service contiene reglas de negocio de sales.
type Service struct {
	store  Store
	logger *slog.Logger
	tracer trace.Tracer
}

// NewService crea un service de sales. Con logger nil usa slog.Default().
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		logger: logger,
		tracer: otel.Tracer(tracerName),
	}
}

// Create registra una venta y descuenta el stock de cada línea.
// Todo corre en una transacción: si una línea falla no queda venta, ni líneas, ni
// stock descontado.
func (service *Service) Create(ctx context.Context, input CreateSaleInput) (Sale, error) {
	if err := validateCreate(&input); err != nil {
		return Sale{}, err
	}

	ctx, span := service.tracer.Start(ctx, "sales.Create", trace.WithAttributes(
		attribute.Int("sale.items", len(input.Items)),
	))
	defer span.End()

	var sale Sale
	err := service.store.WithTx(ctx, func(tx TxStore) error {
		created, err := tx.InsertSale(ctx, input.CustomerName, input.CustomerDocumentNumber)
		if err != nil {
			return fmt.Errorf("insert sale: %w", err)
		}

		created.Items = make([]SaleItem, 0, len(input.Items))
		for i, line := range input.Items {
			item, err := service.sell(ctx, tx, created.ID, line.ProductID, line.Quantity, i+1)
			if err != nil {
				return err
			}
			created.Items = append(created.Items, item)
		}

		created.Total = totalOf(created.Items)
		sale = created
		return nil
	})
	if err != nil {
		service.reject(ctx, span, err)
		return Sale{}, err
	}

	span.SetAttributes(attribute.String("sale.id", sale.ID))
	service.logger.InfoContext(ctx, "sale created",
		"sale_id", sale.ID,
		"items", len(sale.Items),
		"total", sale.Total.String(),
	)
	return sale, nil
}

// AddItem agrega una línea a una venta existente con la misma regla de stock que Create.
func (service *Service) AddItem(ctx context.Context, input CreateSaleItemInput) (SaleItem, error) {
	if err := validate.UUID("sale_id", input.SaleID); err != nil {
		return SaleItem{}, err
	}
	if err := validateLine("product_id", "quantity", input.ProductID, input.Quantity); err != nil {
		return SaleItem{}, err
	}

	ctx, span := service.tracer.Start(ctx, "sales.AddItem", trace.WithAttributes(
		attribute.String("sale.id", input.SaleID),
	))
	defer span.End()

	var item SaleItem
	err := service.store.WithTx(ctx, func(tx TxStore) error {
		if err := tx.LockSale(ctx, input.SaleID); err != nil {
			return err
		}

		position, err := tx.NextPosition(ctx, input.SaleID)
		if err != nil {
			return fmt.Errorf("next position: %w", err)
		}

		item, err = service.sell(ctx, tx, input.SaleID, input.ProductID, input.Quantity, position)
		return err
	})
	if err != nil {
		service.reject(ctx, span, err)
		return SaleItem{}, err
	}

	service.logger.InfoContext(ctx, "sale item added",
		"sale_id", item.SaleID,
		"sale_item_id", item.ID,
		"product_id", item.Product.ID,
		"quantity", item.Quantity,
	)
	return item, nil
}

// sell descuenta stock e inserta la línea. El precio es el que devolvió el descuento.
func (service *Service) sell(ctx context.Context, tx TxStore, saleID, productID string, quantity, position int) (SaleItem, error) {
	trace.SpanFromContext(ctx).AddEvent("decrement stock", trace.WithAttributes(
		attribute.String("product.id", productID),
		attribute.Int("quantity", quantity),
	))

	change, err := tx.DecrementStock(ctx, productID, quantity)
	if err != nil {
		if errors.Is(err, products.ErrorNotFound) {
			return SaleItem{}, &ProductNotFoundError{ProductID: productID}
		}
		return SaleItem{}, err
	}

	id, err := tx.InsertItem(ctx, saleID, productID, quantity, position)
	if err != nil {
		return SaleItem{}, fmt.Errorf("insert sale item: %w", err)
	}

	return SaleItem{
		ID:     id,
		SaleID: saleID,
		Product: ProductSummary{
			ID:    change.ProductID,
			Name:  change.Name,
			Price: change.Price,
		},
		Quantity: quantity,
	}, nil
}

func (service *Service) reject(ctx context.Context, span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	var stockErr *products.InsufficientStockError
	if errors.As(err, &stockErr) {
		service.logger.WarnContext(ctx, "sale rejected: insufficient stock",
			"product_id", stockErr.ProductID,
			"available", stockErr.Available,
			"requested", stockErr.Requested,
		)
	}
}

// List devuelve las ventas con líneas y totales.
func (service *Service) List(ctx context.Context) ([]Sale, error) {
	return service.store.List(ctx)
}

// Get obtiene una venta por ID.
func (service *Service) Get(ctx context.Context, id string) (Sale, error) {
	return service.store.GetByID(ctx, id)
}

// Update aplica un PUT (partial=false: ambos campos obligatorios) o un PATCH
// (partial=true: al menos uno). Nunca toca líneas ni stock.
func (service *Service) Update(ctx context.Context, id string, input UpdateSaleInput, partial bool) (Sale, error) {
	if partial {
		if input.empty() {
			return Sale{}, ErrorInvalidInput
		}
	} else {
		switch {
		case input.CustomerName == nil:
			return Sale{}, validate.Field("customer_name", "this field is required")
		case input.CustomerDocumentNumber == nil:
			return Sale{}, validate.Field("customer_document_number", "this field is required")
		}
	}

	if input.CustomerName != nil {
		name, err := validate.RequiredText("customer_name", *input.CustomerName, maxCustomerNameLength)
		if err != nil {
			return Sale{}, err
		}
		input.CustomerName = &name
	}
	if input.CustomerDocumentNumber != nil {
		number, err := validate.RequiredText("customer_document_number", *input.CustomerDocumentNumber, maxDocumentNumberLength)
		if err != nil {
			return Sale{}, err
		}
		input.CustomerDocumentNumber = &number
	}

	return service.store.Update(ctx, id, input)
}

// Delete borra la venta y sus líneas. El stock no se repone.
func (service *Service) Delete(ctx context.Context, id string) error {
	return service.store.Delete(ctx, id)
}

// ListItems devuelve todas las líneas de venta.
func (service *Service) ListItems(ctx context.Context) ([]SaleItem, error) {
	return service.store.ListItems(ctx)
}

// GetItem obtiene una línea por ID.
func (service *Service) GetItem(ctx context.Context, id string) (SaleItem, error) {
	return service.store.GetItem(ctx, id)
}

// UpdateItem edita una línea sin volver a evaluar stock, igual que la cabecera.
func (service *Service) UpdateItem(ctx context.Context, id string, input UpdateSaleItemInput, partial bool) (SaleItem, error) {
	if partial {
		if input.empty() {
			return SaleItem{}, ErrorInvalidInput
		}
	} else {
		switch {
		case input.ProductID == nil:
			return SaleItem{}, validate.Field("product_id", "this field is required")
		case input.Quantity == nil:
			return SaleItem{}, validate.Field("quantity", "this field is required")
		}
	}

	if input.ProductID != nil {
		if err := validate.UUID("product_id", *input.ProductID); err != nil {
			return SaleItem{}, err
		}
	}
	if input.Quantity != nil {
		if err := validate.Positive("quantity", *input.Quantity); err != nil {
			return SaleItem{}, err
		}
	}

	return service.store.UpdateItem(ctx, id, input)
}

// DeleteItem borra una línea. El stock no se repone.
func (service *Service) DeleteItem(ctx context.Context, id string) error {
	return service.store.DeleteItem(ctx, id)
}

func validateCreate(input *CreateSaleInput) error {
	var err error

	if input.CustomerName, err = validate.RequiredText("customer_name", input.CustomerName, maxCustomerNameLength); err != nil {
		return err
	}
	if input.CustomerDocumentNumber, err = validate.RequiredText("customer_document_number", input.CustomerDocumentNumber, maxDocumentNumberLength); err != nil {
		return err
	}
	if len(input.Items) == 0 {
		return validate.Field("items", "a sale requires at least one item")
	}

	for i, line := range input.Items {
		prefix := fmt.Sprintf("items[%d].", i)
		if err := validateLine(prefix+"product_id", prefix+"quantity", line.ProductID, line.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func validateLine(productField, quantityField, productID string, quantity int) error {
	if productID == "" {
		return validate.Field(productField, "this field is required")
	}
	if err := validate.UUID(productField, productID); err != nil {
		return err
	}
	return validate.Positive(quantityField, quantity)
}
