package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateTransferItemRequest línea del body de POST /api/transfers.
type CreateTransferItemRequest struct {
	ProductVariantID string          `json:"product_variant_id" validate:"required,uuid"`
	Quantity         decimal.Decimal `json:"quantity" validate:"positive_decimal"`
	Notes            string          `json:"notes" validate:"max=500"`
}

// CreateTransferRequest body de POST /api/transfers.
type CreateTransferRequest struct {
	FromStoreID         string                      `json:"from_store_id" validate:"required,uuid"`
	ToStoreID           string                      `json:"to_store_id" validate:"required,uuid,nefield=FromStoreID"`
	Reference           string                      `json:"reference" validate:"max=100"`
	ExpectedArrivalDate *time.Time                  `json:"expected_arrival_date"`
	Notes               string                      `json:"notes" validate:"max=1000"`
	Items               []CreateTransferItemRequest `json:"items" validate:"required,min=1,dive"`
}

// ApproveTransferRequest body opcional de POST /api/transfers/:id/approve.
// Quantities permite enviar menos de lo solicitado por línea (item_id → cantidad).
type ApproveTransferRequest struct {
	Quantities map[string]decimal.Decimal `json:"quantities"`
}

// ReceiveTransferRequest body de POST /api/transfers/:id/receive (item_id → cantidad recibida).
type ReceiveTransferRequest struct {
	Quantities map[string]decimal.Decimal `json:"quantities" validate:"required"`
	Notes      string                     `json:"notes" validate:"max=1000"`
}

// CancelTransferRequest body de POST /api/transfers/:id/cancel.
type CancelTransferRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

// ListTransfersRequest parámetros de GET /api/transfers.
type ListTransfersRequest struct {
	PageRequest
	Search        string     `query:"search"`
	Status        string     `query:"status" validate:"omitempty,oneof=pending in_transit completed cancelled"`
	StoreID       string     `query:"store_id" validate:"omitempty,uuid"`
	FromStoreID   string     `query:"from_store_id" validate:"omitempty,uuid"`
	ToStoreID     string     `query:"to_store_id" validate:"omitempty,uuid"`
	Direction     string     `query:"direction" validate:"omitempty,oneof=outgoing incoming all"`
	DateFrom      *time.Time `query:"-"`
	DateTo        *time.Time `query:"-"`
	SortBy        string     `query:"sort_by"`
	SortDirection string     `query:"sort_direction" validate:"omitempty,oneof=asc desc"`
}

// StoreSummary resumen de tienda en la respuesta.
type StoreSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Code    string `json:"code"`
	Address string `json:"address"`
}

// UserSummary resumen del actor (solicitante, aprobador, receptor, quien cancela).
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ProductSummary producto de una línea.
type ProductSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Reference string `json:"reference"`
}

// VariantSummary variante de una línea.
type VariantSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	SKU  string `json:"sku"`
}

// TransferItemResponse salida de una línea del traslado.
type TransferItemResponse struct {
	ID                 string              `json:"id"`
	Product            ProductSummary      `json:"product"`
	Variant            VariantSummary      `json:"variant"`
	QuantityRequested  decimal.Decimal     `json:"quantity_requested"`
	QuantitySent       decimal.NullDecimal `json:"quantity_sent"`
	QuantityReceived   decimal.NullDecimal `json:"quantity_received"`
	QuantityDifference decimal.NullDecimal `json:"quantity_difference"`
	IsComplete         bool                `json:"is_complete"`
	HasShortage        bool                `json:"has_shortage"`
	Notes              string              `json:"notes"`
}

// TransferResponse salida de un traslado (read model).
type TransferResponse struct {
	ID                  string                 `json:"id"`
	TransferNumber      string                 `json:"transfer_number"`
	Reference           string                 `json:"reference"`
	Status              string                 `json:"status"`
	StatusLabel         string                 `json:"status_label"`
	FromStore           StoreSummary           `json:"from_store"`
	ToStore             StoreSummary           `json:"to_store"`
	Items               []TransferItemResponse `json:"items"`
	ItemsCount          int                    `json:"items_count"`
	Requester           UserSummary            `json:"requester"`
	Approver            *UserSummary           `json:"approver,omitempty"`
	Receiver            *UserSummary           `json:"receiver,omitempty"`
	Canceller           *UserSummary           `json:"canceller,omitempty"`
	TransferDate        *time.Time             `json:"transfer_date"`
	ExpectedArrivalDate *time.Time             `json:"expected_arrival_date"`
	CreatedAt           time.Time              `json:"created_at"`
	ApprovedAt          *time.Time             `json:"approved_at"`
	ReceivedAt          *time.Time             `json:"received_at"`
	CancelledAt         *time.Time             `json:"cancelled_at"`
	Notes               string                 `json:"notes"`
	ReceiptNotes        string                 `json:"receipt_notes"`
	CancellationReason  string                 `json:"cancellation_reason"`
	TotalShortage       decimal.Decimal        `json:"total_shortage"`
	CanApprove          bool                   `json:"can_approve"`
	CanReceive          bool                   `json:"can_receive"`
	CanCancel           bool                   `json:"can_cancel"`
}

// TransferListResponse lista paginada de traslados.
type TransferListResponse struct {
	Data []TransferResponse `json:"data"`
	Meta PageMeta           `json:"meta"`
}

// DirectionStatistics conteos y cantidades de una dirección (salientes o entrantes).
type DirectionStatistics struct {
	Total            int             `json:"total"`
	Pending          int             `json:"pending"`
	InTransit        int             `json:"in_transit"`
	Completed        int             `json:"completed"`
	Cancelled        int             `json:"cancelled"`
	QuantitySent     decimal.Decimal `json:"quantity_sent"`     // in_transit + completed
	QuantityReceived decimal.Decimal `json:"quantity_received"` // completed
	Shortage         decimal.Decimal `json:"shortage"`          // completed: enviado − recibido
}

// TransferStatistics proyección de estadísticas de traslados para una tienda.
type TransferStatistics struct {
	StoreID         string              `json:"store_id"`
	Outgoing        DirectionStatistics `json:"outgoing"`
	Incoming        DirectionStatistics `json:"incoming"`
	PendingApproval int                 `json:"pending_approval"` // salientes en pending
	AwaitingReceipt int                 `json:"awaiting_receipt"` // entrantes en in_transit
}
