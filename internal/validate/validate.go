// Package validate contiene los errores de validación compartidos por los recursos.
package validate

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ErrInvalid es el sentinel que los handlers traducen a 400.
var ErrInvalid = errors.New("invalid input")

// MaxInteger es el máximo de una columna integer de PostgreSQL.
const MaxInteger = math.MaxInt32

// DateLayout es el formato de las fechas (registration_date, expiry_date).
const DateLayout = "2006-01-02"

// FieldError indica qué campo falló y por qué.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap permite errors.Is(err, ErrInvalid).
func (e *FieldError) Unwrap() error {
	return ErrInvalid
}

// Field construye un *FieldError.
func Field(field, message string) error {
	return &FieldError{Field: field, Message: message}
}

// RequiredText normaliza (trim) y valida un texto obligatorio con largo máximo.
func RequiredText(field, value string, maxLength int) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", Field(field, "this field is required")
	}
	if utf8.RuneCountInString(value) > maxLength {
		return "", Field(field, fmt.Sprintf("ensure this field has no more than %d characters", maxLength))
	}
	return value, nil
}

// Date valida una fecha YYYY-MM-DD y la devuelve normalizada.
func Date(field, value string) (string, error) {
	parsed, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return "", Field(field, "date has wrong format, use YYYY-MM-DD")
	}
	return parsed.Format(DateLayout), nil
}

// UUID valida un identificador.
func UUID(field, value string) error {
	if _, err := uuid.Parse(value); err != nil {
		return Field(field, "must be a valid UUID")
	}
	return nil
}

// Positive valida un entero > 0 que entra en una columna integer (quantity).
func Positive(field string, value int) error {
	if value <= 0 {
		return Field(field, "ensure this value is greater than 0")
	}
	return maxInteger(field, value)
}

// NonNegative valida un entero >= 0 que entra en una columna integer (stock).
func NonNegative(field string, value int) error {
	if value < 0 {
		return Field(field, "ensure this value is greater than or equal to 0")
	}
	return maxInteger(field, value)
}

func maxInteger(field string, value int) error {
	if value > MaxInteger {
		return Field(field, fmt.Sprintf("ensure this value is less than or equal to %d", MaxInteger))
	}
	return nil
}
