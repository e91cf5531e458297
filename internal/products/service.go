package products

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Lelo88/inventory-pos-api/internal/money"
	"github.com/Lelo88/inventory-pos-api/internal/validate"
)

// Errores de dominio (no HTTP). El handler los traduce a status codes.
var (
	ErrorInvalidInput = validate.ErrInvalid
	ErrorNotFound     = errors.New("product not found")
)

const (
	maxNameLength     = 100
	maxProviderLength = 100
)

// RepositoryAPI es lo que el service necesita de la capa de datos.
type RepositoryAPI interface {
	Insert(ctx context.Context, input CreateProductInput) (Product, error)
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (Product, error)
	Update(ctx context.Context, id string, input UpdateProductInput) (Product, error)
	Delete(ctx context.Context, id string) error
}

// Service contiene reglas de negocio de products.
type Service struct {
	repository RepositoryAPI
}

// NewService crea un service de products.
func NewService(repository RepositoryAPI) *Service {
	return &Service{repository: repository}
}

// Create valida y crea el producto.
func (service *Service) Create(ctx context.Context, input CreateProductInput) (Product, error) {
	var err error

	if input.Name, err = validate.RequiredText("name", input.Name, maxNameLength); err != nil {
		return Product{}, err
	}
	if input.Provider, err = validate.RequiredText("provider", input.Provider, maxProviderLength); err != nil {
		return Product{}, err
	}
	input.Description = strings.TrimSpace(input.Description)

	if input.Price == nil {
		return Product{}, validate.Field("price", "this field is required")
	}
	if err := validatePrice(*input.Price); err != nil {
		return Product{}, err
	}

	if input.Stock == nil {
		return Product{}, validate.Field("stock", "this field is required")
	}
	if err := validate.NonNegative("stock", *input.Stock); err != nil {
		return Product{}, err
	}

	if input.ExpiryDate != nil {
		date, err := validate.Date("expiry_date", *input.ExpiryDate)
		if err != nil {
			return Product{}, err
		}
		input.ExpiryDate = &date
	}

	return service.repository.Insert(ctx, input)
}

// List devuelve los productos ordenados por expiry_date ascendente.
func (service *Service) List(ctx context.Context) ([]Product, error) {
	return service.repository.List(ctx)
}

// Get obtiene un producto por ID.
func (service *Service) Get(ctx context.Context, id string) (Product, error) {
	product, err := service.repository.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrorNotFound
		}
		return Product{}, err
	}
	return product, nil
}

// Update aplica un PUT (partial=false: name, price, stock y provider obligatorios)
// o un PATCH (partial=true: al menos un campo).
func (service *Service) Update(ctx context.Context, id string, input UpdateProductInput, partial bool) (Product, error) {
	if partial {
		if input.empty() {
			return Product{}, ErrorInvalidInput
		}
	} else {
		switch {
		case input.Name == nil:
			return Product{}, validate.Field("name", "this field is required")
		case input.Price == nil:
			return Product{}, validate.Field("price", "this field is required")
		case input.Stock == nil:
			return Product{}, validate.Field("stock", "this field is required")
		case input.Provider == nil:
			return Product{}, validate.Field("provider", "this field is required")
		}
	}

	if input.Name != nil {
		name, err := validate.RequiredText("name", *input.Name, maxNameLength)
		if err != nil {
			return Product{}, err
		}
		input.Name = &name
	}
	if input.Provider != nil {
		provider, err := validate.RequiredText("provider", *input.Provider, maxProviderLength)
		if err != nil {
			return Product{}, err
		}
		input.Provider = &provider
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		input.Description = &description
	}
	if input.Price != nil {
		if err := validatePrice(*input.Price); err != nil {
			return Product{}, err
		}
	}
	if input.Stock != nil {
		if err := validate.NonNegative("stock", *input.Stock); err != nil {
			return Product{}, err
		}
	}
	if input.ExpiryDatePresent && input.ExpiryDate != nil {
		date, err := validate.Date("expiry_date", *input.ExpiryDate)
		if err != nil {
			return Product{}, err
		}
		input.ExpiryDate = &date
	}

	return service.repository.Update(ctx, id, input)
}

// Delete elimina un producto por ID.
func (service *Service) Delete(ctx context.Context, id string) error {
	return service.repository.Delete(ctx, id)
}

func validatePrice(price money.Amount) error {
	switch err := price.Validate(); {
	case errors.Is(err, money.ErrNegative):
		return validate.Field("price", "ensure this value is greater than or equal to 0")
	case errors.Is(err, money.ErrTooManyPlaces):
		return validate.Field("price", "ensure that there are no more than 2 decimal places")
	case errors.Is(err, money.ErrTooLarge):
		return validate.Field("price", "ensure that there are no more than 10 digits in total")
	case err != nil:
		return validate.Field("price", err.Error())
	}
	return nil
}
