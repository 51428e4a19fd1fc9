// Package transfer contiene los casos de uso del flujo de traslados entre tiendas:
// solicitud, aprobación (salida de stock), recepción (entrada con faltantes) y cancelación
// (con reversa si la mercancía ya había salido), más las consultas de listado y estadísticas.
package transfer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/Traslados-api/internal/application/dto"
	"github.com/jhoicas/Traslados-api/internal/domain"
	"github.com/jhoicas/Traslados-api/internal/domain/entity"
	"github.com/jhoicas/Traslados-api/internal/domain/repository"
)

const tracerName = "traslados/transfer"

// Config parámetros del caso de uso.
type Config struct {
	NumberPrefix string         // prefijo del número de traslado (TRF)
	MaxPerPage   int            // tope de per_page en el listado
	Location     *time.Location // zona para el día del correlativo; nil = UTC
}

// Deps dependencias del caso de uso.
type Deps struct {
	TxRunner  TxRunner
	Transfers repository.TransferRepository
	Stores    repository.StoreRepository
	Variants  repository.ProductVariantRepository
	Users     repository.UserRepository
	Stock     repository.StockLedger
	Cache     StatsCache // opcional
	Logger    zerolog.Logger
	Now       func() time.Time // opcional; time.Now por defecto
}

// TransferUseCase orquesta el flujo de traslados. Cada transición se ejecuta en una transacción
// que bloquea primero la fila del traslado (SELECT FOR UPDATE), luego evalúa el estado, aplica
// los movimientos de stock y por último persiste el traslado.
type TransferUseCase struct {
	txRunner  TxRunner
	transfers repository.TransferRepository
	stores    repository.StoreRepository
	variants  repository.ProductVariantRepository
	users     repository.UserRepository
	stock     repository.StockLedger
	cache     StatsCache
	cfg       Config
	log       zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewTransferUseCase construye el caso de uso.
func NewTransferUseCase(deps Deps, cfg Config) *TransferUseCase {
	if cfg.NumberPrefix == "" {
		cfg.NumberPrefix = "TRF"
	}
	if cfg.MaxPerPage <= 0 {
		cfg.MaxPerPage = 50
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	cache := deps.Cache
	if cache == nil {
		cache = NoopStatsCache{}
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &TransferUseCase{
		txRunner:  deps.TxRunner,
		transfers: deps.Transfers,
		stores:    deps.Stores,
		variants:  deps.Variants,
		users:     deps.Users,
		stock:     deps.Stock,
		cache:     cache,
		cfg:       cfg,
		log:       deps.Logger.With().Str("component", "transfer").Logger(),
		tracer:    otel.Tracer(tracerName),
		now:       now,
	}
}

// ItemInput línea solicitada.
type ItemInput struct {
	ProductVariantID string
	Quantity         decimal.Decimal
	Notes            string
}

// CreateInput entrada para solicitar un traslado.
type CreateInput struct {
	OrganizationID      string
	RequestedBy         string
	FromStoreID         string
	ToStoreID           string
	Reference           string
	Notes               string
	ExpectedArrivalDate *time.Time
	Items               []ItemInput
}

// ApproveInput entrada para aprobar. QuantitiesSent es opcional (item_id → cantidad enviada).
type ApproveInput struct {
	OrganizationID string
	TransferID     string
	ApproverID     string
	QuantitiesSent map[string]decimal.Decimal
}

// ReceiveInput entrada para recibir (item_id → cantidad recibida; omitida = 0).
type ReceiveInput struct {
	OrganizationID string
	TransferID     string
	ReceiverID     string
	Quantities     map[string]decimal.Decimal
	Notes          string
}

// CancelInput entrada para cancelar.
type CancelInput struct {
	OrganizationID string
	TransferID     string
	CancellerID    string
	Reason         string
}

// Create valida la solicitud y persiste el traslado en pending. No mueve stock: la
// disponibilidad en origen solo se comprueba (lectura sin bloqueo).
func (uc *TransferUseCase) Create(ctx context.Context, in CreateInput) (_ *dto.TransferResponse, err error) {
	ctx, span := uc.startSpan(ctx, "create", in.OrganizationID, "")
	defer func() { endSpan(span, err) }()

	now := uc.now()
	params := entity.NewTransferParams{
		ID:                  uuid.New().String(),
		OrganizationID:      in.OrganizationID,
		FromStoreID:         in.FromStoreID,
		ToStoreID:           in.ToStoreID,
		RequestedBy:         in.RequestedBy,
		Reference:           in.Reference,
		Notes:               in.Notes,
		ExpectedArrivalDate: in.ExpectedArrivalDate,
	}
	for _, item := range in.Items {
		params.Items = append(params.Items, entity.NewTransferItem{
			ID:               uuid.New().String(),
			ProductVariantID: item.ProductVariantID,
			Quantity:         item.Quantity,
			Notes:            item.Notes,
		})
	}
	t, err := entity.NewTransfer(params, now)
	if err != nil {
		return nil, err
	}

	if err := uc.checkStores(ctx, t); err != nil {
		return nil, err
	}
	if err := uc.checkVariantsAndStock(ctx, t); err != nil {
		return nil, err
	}

	day := now.In(uc.cfg.Location)
	err = uc.txRunner.Run(ctx, func(transferRepo repository.TransferRepository, _ repository.StockLedger) error {
		number, err := transferRepo.NextNumber(ctx, t.OrganizationID, uc.cfg.NumberPrefix, day)
		if err != nil {
			return err
		}
		t.TransferNumber = number
		return transferRepo.Create(ctx, t)
	})
	if err != nil {
		return nil, err
	}

	uc.afterTransition(ctx, t, "create", in.RequestedBy)
	return uc.project(ctx, t)
}

// Approve pending → in_transit: fija quantity_sent y descuenta el stock en origen.
func (uc *TransferUseCase) Approve(ctx context.Context, in ApproveInput) (_ *dto.TransferResponse, err error) {
	ctx, span := uc.startSpan(ctx, entity.TransferActionApprove, in.OrganizationID, in.TransferID)
	defer func() { endSpan(span, err) }()

	var t *entity.Transfer
	err = uc.txRunner.Run(ctx, func(transferRepo repository.TransferRepository, stock repository.StockLedger) error {
		locked, err := lockTransfer(ctx, transferRepo, in.OrganizationID, in.TransferID)
		if err != nil {
			return err
		}
		if err := locked.Approve(in.ApproverID, uc.now(), in.QuantitiesSent); err != nil {
			return err
		}
		for _, item := range locked.ItemsByVariant() {
			if err := stock.Decrement(ctx, locked.FromStoreID, item.ProductVariantID, item.QuantitySent.Decimal); err != nil {
				return err
			}
		}
		if err := transferRepo.Update(ctx, locked); err != nil {
			return err
		}
		t = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.afterTransition(ctx, t, entity.TransferActionApprove, in.ApproverID)
	return uc.project(ctx, t)
}

// Receive in_transit → completed: registra lo recibido y suma el stock en destino. Lo no
// recibido (enviado − recibido) queda fuera de circulación; no vuelve al origen.
func (uc *TransferUseCase) Receive(ctx context.Context, in ReceiveInput) (_ *dto.TransferResponse, err error) {
	ctx, span := uc.startSpan(ctx, entity.TransferActionReceive, in.OrganizationID, in.TransferID)
	defer func() { endSpan(span, err) }()

	var t *entity.Transfer
	err = uc.txRunner.Run(ctx, func(transferRepo repository.TransferRepository, stock repository.StockLedger) error {
		locked, err := lockTransfer(ctx, transferRepo, in.OrganizationID, in.TransferID)
		if err != nil {
			return err
		}
		if err := locked.Receive(in.ReceiverID, uc.now(), in.Quantities, in.Notes); err != nil {
			return err
		}
		for _, item := range locked.ItemsByVariant() {
			qty := item.QuantityReceived.Decimal
			if !qty.IsPositive() {
				continue
			}
			if err := stock.Increment(ctx, locked.ToStoreID, item.ProductVariantID, qty); err != nil {
				return err
			}
		}
		if err := transferRepo.Update(ctx, locked); err != nil {
			return err
		}
		t = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	if shortage := t.TotalShortage(); shortage.IsPositive() {
		uc.log.Warn().
			Str("transfer_id", t.ID).
			Str("transfer_number", t.TransferNumber).
			Str("to_store_id", t.ToStoreID).
			Str("shortage", shortage.String()).
			Msg("traslado recibido con faltantes")
	}
	uc.afterTransition(ctx, t, entity.TransferActionReceive, in.ReceiverID)
	return uc.project(ctx, t)
}

// Cancel pending|in_transit → cancelled. Si la mercancía ya había salido, repone en origen
// exactamente lo descontado al aprobar (quantity_sent de cada línea).
func (uc *TransferUseCase) Cancel(ctx context.Context, in CancelInput) (_ *dto.TransferResponse, err error) {
	ctx, span := uc.startSpan(ctx, entity.TransferActionCancel, in.OrganizationID, in.TransferID)
	defer func() { endSpan(span, err) }()

	var t *entity.Transfer
	err = uc.txRunner.Run(ctx, func(transferRepo repository.TransferRepository, stock repository.StockLedger) error {
		locked, err := lockTransfer(ctx, transferRepo, in.OrganizationID, in.TransferID)
		if err != nil {
			return err
		}
		restock, err := locked.Cancel(in.CancellerID, uc.now(), in.Reason)
		if err != nil {
			return err
		}
		if restock {
			for _, item := range locked.ItemsByVariant() {
				if !item.QuantitySent.Valid || !item.QuantitySent.Decimal.IsPositive() {
					continue
				}
				if err := stock.Increment(ctx, locked.FromStoreID, item.ProductVariantID, item.QuantitySent.Decimal); err != nil {
					return err
				}
			}
		}
		if err := transferRepo.Update(ctx, locked); err != nil {
			return err
		}
		t = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.afterTransition(ctx, t, entity.TransferActionCancel, in.CancellerID)
	return uc.project(ctx, t)
}

// Find obtiene un traslado de la organización. Si storeScope no está vacío, el traslado debe
// tener esa tienda como origen o destino (ErrForbidden en otro caso).
func (uc *TransferUseCase) Find(ctx context.Context, organizationID, id, storeScope string) (_ *dto.TransferResponse, err error) {
	ctx, span := uc.startSpan(ctx, "find", organizationID, id)
	defer func() { endSpan(span, err) }()

	t, err := uc.transfers.GetByID(ctx, organizationID, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}
	if storeScope != "" && !t.Touches(storeScope) {
		return nil, domain.ErrForbidden
	}
	return uc.project(ctx, t)
}

// lockTransfer bloquea la fila del traslado antes de evaluar su estado.
func lockTransfer(ctx context.Context, repo repository.TransferRepository, organizationID, id string) (*entity.Transfer, error) {
	t, err := repo.GetForUpdate(ctx, organizationID, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

// checkStores verifica que ambas tiendas existan, estén activas y sean de la organización.
func (uc *TransferUseCase) checkStores(ctx context.Context, t *entity.Transfer) error {
	for _, ref := range []struct{ field, id string }{
		{"from_store_id", t.FromStoreID},
		{"to_store_id", t.ToStoreID},
	} {
		store, err := uc.stores.GetByID(ctx, ref.id)
		if err != nil {
			return err
		}
		if store == nil || store.OrganizationID != t.OrganizationID {
			return domain.ErrNotFound
		}
		if !store.IsActive {
			return domain.NewValidationError(ref.field, "la tienda no está activa")
		}
	}
	return nil
}

// checkVariantsAndStock verifica que cada variante exista en la organización y que el origen
// tenga existencias suficientes en este momento.
func (uc *TransferUseCase) checkVariantsAndStock(ctx context.Context, t *entity.Transfer) error {
	ids := make([]string, 0, len(t.Items))
	for _, item := range t.Items {
		ids = append(ids, item.ProductVariantID)
	}
	variants, err := uc.variants.GetByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, item := range t.Items {
		v, ok := variants[item.ProductVariantID]
		if !ok || v.OrganizationID != t.OrganizationID {
			return domain.ErrNotFound
		}
		available, err := uc.stock.Available(ctx, t.FromStoreID, item.ProductVariantID)
		if err != nil {
			return err
		}
		if available.LessThan(item.QuantityRequested) {
			return &domain.StockError{
				StoreID:   t.FromStoreID,
				VariantID: item.ProductVariantID,
				Available: available,
				Requested: item.QuantityRequested,
			}
		}
	}
	return nil
}

// afterTransition registra la transición e invalida las estadísticas de ambas tiendas.
func (uc *TransferUseCase) afterTransition(ctx context.Context, t *entity.Transfer, action, actorID string) {
	uc.log.Info().
		Str("transfer_id", t.ID).
		Str("transfer_number", t.TransferNumber).
		Str("from_store_id", t.FromStoreID).
		Str("to_store_id", t.ToStoreID).
		Str("status", string(t.Status)).
		Str("action", action).
		Str("actor_id", actorID).
		Msg("traslado actualizado")

	if err := uc.cache.Invalidate(ctx, t.OrganizationID, t.FromStoreID, t.ToStoreID); err != nil {
		uc.log.Warn().Err(err).Str("transfer_id", t.ID).Msg("invalidar caché de estadísticas")
	}
}

func (uc *TransferUseCase) startSpan(ctx context.Context, action, organizationID, transferID string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("transfer.action", action),
		attribute.String("organization.id", organizationID),
	}
	if transferID != "" {
		attrs = append(attrs, attribute.String("transfer.id", transferID))
	}
	return uc.tracer.Start(ctx, "transfer."+action, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
