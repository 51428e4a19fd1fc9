package entity

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jhoicas/Traslados-api/internal/domain"
	"github.com/shopspring/decimal"
)

// MaxCancellationReasonLength longitud máxima (en caracteres) del motivo de cancelación.
const MaxCancellationReasonLength = 1000

// Direcciones de un traslado respecto de una tienda.
const (
	DirectionOutgoing = "outgoing"
	DirectionIncoming = "incoming"
	DirectionAll      = "all"
)

// Transfer representa un traslado de mercancía entre dos tiendas de la misma organización.
// Solo se modifica a través de Approve, Receive y Cancel; nunca retrocede de estado.
type Transfer struct {
	ID                  string
	OrganizationID      string
	TransferNumber      string
	Reference           string
	FromStoreID         string
	ToStoreID           string
	Status              TransferStatus
	Notes               string
	ReceiptNotes        string
	CancellationReason  string
	RequestedBy         string
	ApprovedBy          string
	ReceivedBy          string
	CancelledBy         string
	TransferDate        *time.Time // salida de la mercancía (aprobación)
	ExpectedArrivalDate *time.Time
	ApprovedAt          *time.Time
	ReceivedAt          *time.Time
	CancelledAt         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
	Items               []*TransferItem
}

// NewTransferItem línea solicitada al crear un traslado.
type NewTransferItem struct {
	ID               string
	ProductVariantID string
	Quantity         decimal.Decimal
	Notes            string
}

// NewTransferParams datos para construir un traslado en estado pending.
type NewTransferParams struct {
	ID                  string
	OrganizationID      string
	FromStoreID         string
	ToStoreID           string
	RequestedBy         string
	Reference           string
	Notes               string
	ExpectedArrivalDate *time.Time
	Items               []NewTransferItem
}

// NewTransfer valida los invariantes de creación y devuelve el traslado en estado pending.
// No toca existencias.
func NewTransfer(p NewTransferParams, now time.Time) (*Transfer, error) {
	if strings.TrimSpace(p.FromStoreID) == "" {
		return nil, domain.NewValidationError("from_store_id", "la tienda de origen es requerida")
	}
	if strings.TrimSpace(p.ToStoreID) == "" {
		return nil, domain.NewValidationError("to_store_id", "la tienda de destino es requerida")
	}
	if p.FromStoreID == p.ToStoreID {
		return nil, domain.NewValidationError("to_store_id", "las tiendas de origen y destino deben ser diferentes")
	}
	if len(p.Items) == 0 {
		return nil, domain.NewValidationError("items", "se requiere al menos un producto")
	}

	seen := make(map[string]struct{}, len(p.Items))
	items := make([]*TransferItem, 0, len(p.Items))
	for _, in := range p.Items {
		if in.ProductVariantID == "" {
			return nil, domain.NewValidationError("items.product_variant_id", "el producto es requerido")
		}
		if !in.Quantity.IsPositive() {
			return nil, domain.NewItemValidationError("items.quantity", in.ProductVariantID, "la cantidad debe ser mayor que cero")
		}
		if _, dup := seen[in.ProductVariantID]; dup {
			return nil, domain.NewItemValidationError("items.product_variant_id", in.ProductVariantID, "la variante está repetida")
		}
		seen[in.ProductVariantID] = struct{}{}
		items = append(items, &TransferItem{
			ID:                in.ID,
			TransferID:        p.ID,
			ProductVariantID:  in.ProductVariantID,
			QuantityRequested: in.Quantity,
			Notes:             in.Notes,
			CreatedAt:         now,
		})
	}

	return &Transfer{
		ID:                  p.ID,
		OrganizationID:      p.OrganizationID,
		Reference:           p.Reference,
		FromStoreID:         p.FromStoreID,
		ToStoreID:           p.ToStoreID,
		Status:              TransferStatusPending,
		Notes:               p.Notes,
		RequestedBy:         p.RequestedBy,
		ExpectedArrivalDate: p.ExpectedArrivalDate,
		CreatedAt:           now,
		UpdatedAt:           now,
		Items:               items,
	}, nil
}

// FormatTransferNumber arma el número visible: PREFIJO-AAAAMMDD-NNNN.
func FormatTransferNumber(prefix string, day time.Time, seq int) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, day.Format("20060102"), seq)
}

// CanApprove, CanReceive y CanCancel reflejan la tabla de transiciones.
func (t *Transfer) CanApprove() bool { return t.Status.CanTransitionTo(TransferStatusInTransit) }
func (t *Transfer) CanReceive() bool { return t.Status.CanTransitionTo(TransferStatusCompleted) }
func (t *Transfer) CanCancel() bool  { return t.Status.CanTransitionTo(TransferStatusCancelled) }

// Touches indica si la tienda es origen o destino del traslado.
func (t *Transfer) Touches(storeID string) bool {
	return t.FromStoreID == storeID || t.ToStoreID == storeID
}

// Approve pasa el traslado a in_transit. quantity_sent = quantity_requested salvo que sent
// traiga un valor para la línea (0 < enviado ≤ solicitado). Valida todo antes de mutar.
func (t *Transfer) Approve(approverID string, at time.Time, sent map[string]decimal.Decimal) error {
	if !t.CanApprove() {
		return &domain.TransitionError{Action: TransferActionApprove, From: string(t.Status)}
	}
	for id, qty := range sent {
		item := t.Item(id)
		if item == nil {
			return domain.NewItemValidationError("quantities", id, "la línea no pertenece al traslado")
		}
		if !qty.IsPositive() {
			return domain.NewItemValidationError("quantities", id, "la cantidad enviada debe ser mayor que cero")
		}
		if qty.GreaterThan(item.QuantityRequested) {
			return domain.NewItemValidationError("quantities", id, "la cantidad enviada no puede superar la solicitada")
		}
	}

	for _, item := range t.Items {
		qty := item.QuantityRequested
		if override, ok := sent[item.ID]; ok {
			qty = override
		}
		item.QuantitySent = decimal.NewNullDecimal(qty)
	}
	t.Status = TransferStatusInTransit
	t.ApprovedBy = approverID
	t.ApprovedAt = &at
	t.TransferDate = &at
	t.UpdatedAt = at
	return nil
}

// Receive registra lo recibido y completa el traslado. Una línea omitida se toma como 0
// (faltante total); los faltantes no bloquean la recepción.
func (t *Transfer) Receive(receiverID string, at time.Time, received map[string]decimal.Decimal, notes string) error {
	if !t.CanReceive() {
		return &domain.TransitionError{Action: TransferActionReceive, From: string(t.Status)}
	}
	for id, qty := range received {
		item := t.Item(id)
		if item == nil {
			return domain.NewItemValidationError("quantities", id, "la línea no pertenece al traslado")
		}
		if qty.IsNegative() {
			return domain.NewItemValidationError("quantities", id, "la cantidad recibida no puede ser negativa")
		}
		if qty.GreaterThan(item.QuantitySent.Decimal) {
			return domain.NewItemValidationError("quantities", id, "la cantidad recibida no puede superar la enviada")
		}
	}

	for _, item := range t.Items {
		qty, ok := received[item.ID]
		if !ok {
			qty = decimal.Zero
		}
		item.QuantityReceived = decimal.NewNullDecimal(qty)
	}
	t.Status = TransferStatusCompleted
	t.ReceivedBy = receiverID
	t.ReceivedAt = &at
	t.ReceiptNotes = notes
	t.UpdatedAt = at
	return nil
}

// Cancel pasa el traslado a cancelled. Devuelve true si estaba in_transit: en ese caso el
// llamador debe reponer en origen lo enviado.
func (t *Transfer) Cancel(cancellerID string, at time.Time, reason string) (bool, error) {
	if !t.CanCancel() {
		return false, &domain.TransitionError{Action: TransferActionCancel, From: string(t.Status)}
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return false, domain.NewValidationError("reason", "el motivo de la cancelación es requerido")
	}
	if utf8.RuneCountInString(reason) > MaxCancellationReasonLength {
		return false, domain.NewValidationError("reason", "el motivo de la cancelación es demasiado largo")
	}

	wasInTransit := t.Status == TransferStatusInTransit
	t.Status = TransferStatusCancelled
	t.CancelledBy = cancellerID
	t.CancelledAt = &at
	t.CancellationReason = reason
	t.UpdatedAt = at
	return wasInTransit, nil
}

// Item busca una línea por ID.
func (t *Transfer) Item(id string) *TransferItem {
	for _, item := range t.Items {
		if item.ID == id {
			return item
		}
	}
	return nil
}

// ItemsByVariant devuelve las líneas ordenadas por variante. Aplicar los movimientos de stock
// en este orden fija un orden de bloqueo estable entre transacciones concurrentes.
func (t *Transfer) ItemsByVariant() []*TransferItem {
	items := make([]*TransferItem, len(t.Items))
	copy(items, t.Items)
	sort.Slice(items, func(i, j int) bool { return items[i].ProductVariantID < items[j].ProductVariantID })
	return items
}

// TotalShortage suma los faltantes de todas las líneas recibidas.
func (t *Transfer) TotalShortage() decimal.Decimal {
	total := decimal.Zero
	for _, item := range t.Items {
		if item.HasShortage() {
			total = total.Add(item.Difference().Decimal)
		}
	}
	return total
}
