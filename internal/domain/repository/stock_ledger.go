package repository

import (
	"context"

	"github.com/shopspring/decimal"
)

// StockLedger puerto del libro de existencias por tienda+variante.
// Decrement e Increment se ejecutan dentro de la transacción del llamador para que el cambio
// de stock y el cambio de estado del traslado se confirmen o se descarten juntos.
type StockLedger interface {
	// Available devuelve la cantidad actual (0 si no hay fila). Lectura sin bloqueo.
	Available(ctx context.Context, storeID, variantID string) (decimal.Decimal, error)
	// Decrement resta quantity; falla con *domain.StockError si no alcanza.
	Decrement(ctx context.Context, storeID, variantID string, quantity decimal.Decimal) error
	// Increment suma quantity; no tiene tope.
	Increment(ctx context.Context, storeID, variantID string, quantity decimal.Decimal) error
}
