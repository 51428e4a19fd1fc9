package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound               = errors.New("recurso no encontrado")
	ErrInvalidInput           = errors.New("entrada inválida")
	ErrDuplicate              = errors.New("recurso duplicado")
	ErrUnauthorized           = errors.New("no autorizado")
	ErrForbidden              = errors.New("acceso denegado")
	ErrConflict               = errors.New("conflicto con el estado actual")
	ErrInsufficientStock      = errors.New("stock insuficiente")
	ErrInvalidStateTransition = errors.New("transición de estado inválida")
)

// ValidationError describe un dato de entrada inválido. Si el error se refiere a una línea
// concreta del traslado, ItemID la identifica (id de la línea o de la variante en la creación).
type ValidationError struct {
	Field   string
	ItemID  string
	Message string
}

func (e *ValidationError) Error() string {
	if e.ItemID != "" {
		return fmt.Sprintf("%s (item %s): %s", e.Field, e.ItemID, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap permite errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// NewValidationError construye un ValidationError sin línea asociada.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NewItemValidationError construye un ValidationError que nombra la línea ofensora.
func NewItemValidationError(field, itemID, message string) *ValidationError {
	return &ValidationError{Field: field, ItemID: itemID, Message: message}
}

// TransitionError indica que la acción no está permitida desde el estado actual.
type TransitionError struct {
	Action string
	From   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("no se puede ejecutar %q sobre un traslado en estado %q", e.Action, e.From)
}

// Unwrap permite errors.Is(err, ErrInvalidStateTransition).
func (e *TransitionError) Unwrap() error { return ErrInvalidStateTransition }

// StockError detalla la falta de existencias de una variante en una tienda.
type StockError struct {
	StoreID   string
	VariantID string
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *StockError) Error() string {
	return fmt.Sprintf("stock insuficiente para la variante %s en la tienda %s: disponible %s, solicitado %s",
		e.VariantID, e.StoreID, e.Available.String(), e.Requested.String())
}

// Unwrap permite errors.Is(err, ErrInsufficientStock).
func (e *StockError) Unwrap() error { return ErrInsufficientStock }
