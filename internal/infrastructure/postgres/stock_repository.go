package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Traslados-api/internal/domain"
	"github.com/jhoicas/Traslados-api/internal/domain/entity"
	"github.com/jhoicas/Traslados-api/internal/domain/repository"
)

var _ repository.StockLedger = (*StockLedger)(nil)

// StockLedger existencias por tienda+variante sobre PostgreSQL (usable con pool o tx).
// Las escrituras son UPDATE/UPSERT atómicos: nunca leer-modificar-escribir desde Go.
type StockLedger struct {
	q Querier
}

// NewStockLedger construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockLedger(q Querier) *StockLedger {
	return &StockLedger{q: q}
}

// Get obtiene la fila de stock; si no existe devuelve cantidad 0.
func (r *StockLedger) Get(ctx context.Context, storeID, variantID string) (*entity.Stock, error) {
	query := `
		SELECT store_id, product_variant_id, quantity, updated_at
		FROM stock WHERE store_id = $1 AND product_variant_id = $2`
	var s entity.Stock
	err := r.q.QueryRow(ctx, query, storeID, variantID).Scan(
		&s.StoreID, &s.ProductVariantID, &s.Quantity, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.Stock{StoreID: storeID, ProductVariantID: variantID, Quantity: decimal.Zero}, nil
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return &s, nil
}

// Available cantidad actual (0 si no hay fila).
func (r *StockLedger) Available(ctx context.Context, storeID, variantID string) (decimal.Decimal, error) {
	s, err := r.Get(ctx, storeID, variantID)
	if err != nil {
		return decimal.Zero, err
	}
	return s.Quantity, nil
}

// Decrement resta solo si alcanza (UPDATE condicional). Si no se afectó ninguna fila, devuelve
// *domain.StockError con la cantidad disponible en ese momento.
func (r *StockLedger) Decrement(ctx context.Context, storeID, variantID string, quantity decimal.Decimal) error {
	query := `
		UPDATE stock SET quantity = quantity - $3, updated_at = now()
		WHERE store_id = $1 AND product_variant_id = $2 AND quantity >= $3`
	cmd, err := r.q.Exec(ctx, query, storeID, variantID, quantity)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return r.stockError(ctx, storeID, variantID, quantity)
	}
	return nil
}

// Increment suma creando la fila si no existía.
func (r *StockLedger) Increment(ctx context.Context, storeID, variantID string, quantity decimal.Decimal) error {
	query := `
		INSERT INTO stock (store_id, product_variant_id, quantity, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (store_id, product_variant_id)
		DO UPDATE SET quantity = stock.quantity + EXCLUDED.quantity, updated_at = now()`
	if _, err := r.q.Exec(ctx, query, storeID, variantID, quantity); err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}
	return nil
}

func (r *StockLedger) stockError(ctx context.Context, storeID, variantID string, requested decimal.Decimal) error {
	available, err := r.Available(ctx, storeID, variantID)
	if err != nil {
		return err
	}
	return &domain.StockError{StoreID: storeID, VariantID: variantID, Available: available, Requested: requested}
}
