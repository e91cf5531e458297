// Package money modela importes con dos decimales fijos (numeric(10,2) en DB).
package money

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// Places son los decimales admitidos.
	Places = 2
	// MaxDigits coincide con numeric(10,2).
	MaxDigits = 10
)

var (
	ErrNegative      = errors.New("amount must not be negative")
	ErrTooManyPlaces = errors.New("amount must have at most 2 decimal places")
	ErrTooLarge      = errors.New("amount must have at most 10 digits")

	maxAmount = decimal.New(1, MaxDigits-Places)
)

// Amount envuelve decimal.Decimal para serializarse siempre como "9.99".
// Scan y Value vienen de decimal.Decimal.
type Amount struct {
	decimal.Decimal
}

// Zero es 0.00.
var Zero = Amount{Decimal: decimal.Zero}

// New construye un Amount a partir de un decimal ya validado.
func New(value decimal.Decimal) Amount {
	return Amount{Decimal: value}
}

// MustParse es para constantes y tests.
func MustParse(value string) Amount {
	amount, err := Parse(value)
	if err != nil {
		panic(err)
	}
	return amount
}

// Parse lee un importe y aplica las reglas de un precio: no negativo,
// como mucho dos decimales y como mucho diez dígitos en total.
func Parse(value string) (Amount, error) {
	parsed, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return Amount{}, err
	}
	amount := Amount{Decimal: parsed}
	if err := amount.Validate(); err != nil {
		return Amount{}, err
	}
	return amount, nil
}

// Validate revisa las mismas reglas que Parse sobre un valor ya decodificado.
func (amount Amount) Validate() error {
	if amount.IsNegative() {
		return ErrNegative
	}
	// El exponente conserva la escala del input: "10.500" tiene tres decimales.
	if amount.Exponent() < -Places {
		return ErrTooManyPlaces
	}
	if amount.GreaterThanOrEqual(maxAmount) {
		return ErrTooLarge
	}
	return nil
}

// Times multiplica por una cantidad entera (precio × unidades).
func (amount Amount) Times(quantity int) Amount {
	return Amount{Decimal: amount.Mul(decimal.NewFromInt(int64(quantity)))}
}

// Plus suma dos importes.
func (amount Amount) Plus(other Amount) Amount {
	return Amount{Decimal: amount.Add(other.Decimal)}
}

// String devuelve el importe con dos decimales fijos.
func (amount Amount) String() string {
	return amount.StringFixed(Places)
}

// Equal compara por valor, sin importar la escala ("10" == "10.00").
func (amount Amount) Equal(other Amount) bool {
	return amount.Decimal.Equal(other.Decimal)
}

// MarshalJSON serializa como string para no perder precisión en clientes JS.
func (amount Amount) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(amount.String())), nil
}

// UnmarshalJSON acepta "9.99" o 9.99. No valida reglas de negocio: eso es Validate.
func (amount *Amount) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return errors.New("amount must not be null")
	}
	return amount.Decimal.UnmarshalJSON(data)
}
