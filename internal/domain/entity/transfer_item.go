package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferItem línea de un traslado (pertenece exclusivamente a su Transfer).
// QuantitySent se fija al aprobar y QuantityReceived al recibir; antes son nulos.
type TransferItem struct {
	ID                string
	TransferID        string
	ProductVariantID  string
	QuantityRequested decimal.Decimal
	QuantitySent      decimal.NullDecimal
	QuantityReceived  decimal.NullDecimal
	Notes             string
	CreatedAt         time.Time
}

// Difference enviado − recibido (recibido nulo cuenta como 0). Nulo mientras no se haya enviado.
func (i *TransferItem) Difference() decimal.NullDecimal {
	if !i.QuantitySent.Valid {
		return decimal.NullDecimal{}
	}
	received := decimal.Zero
	if i.QuantityReceived.Valid {
		received = i.QuantityReceived.Decimal
	}
	return decimal.NewNullDecimal(i.QuantitySent.Decimal.Sub(received))
}

// IsComplete recibido == enviado.
func (i *TransferItem) IsComplete() bool {
	return i.QuantitySent.Valid && i.QuantityReceived.Valid &&
		i.QuantityReceived.Decimal.Equal(i.QuantitySent.Decimal)
}

// HasShortage recibido < enviado, incluido el caso de recepción en 0.
func (i *TransferItem) HasShortage() bool {
	return i.QuantitySent.Valid && i.QuantityReceived.Valid &&
		i.QuantityReceived.Decimal.LessThan(i.QuantitySent.Decimal)
}
