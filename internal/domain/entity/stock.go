package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock existencias de una variante en una tienda (libro de stock por tienda+variante).
type Stock struct {
	StoreID          string
	ProductVariantID string
	Quantity         decimal.Decimal
	UpdatedAt        time.Time
}
