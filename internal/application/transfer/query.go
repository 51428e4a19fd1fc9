package transfer

import (
	"context"
	"strings"

	"github.com/jhoicas/Traslados-api/internal/application/dto"
	"github.com/jhoicas/Traslados-api/internal/domain"
	"github.com/jhoicas/Traslados-api/internal/domain/entity"
	"github.com/jhoicas/Traslados-api/internal/domain/repository"
)

// sortableColumns columnas permitidas en sort_by.
var sortableColumns = map[string]struct{}{
	"created_at":      {},
	"updated_at":      {},
	"transfer_number": {},
	"status":          {},
	"approved_at":     {},
	"received_at":     {},
	"cancelled_at":    {},
	"transfer_date":   {},
}

const defaultSortColumn = "created_at"

// List lista traslados de la organización con filtros, orden y paginación.
// direction solo aplica si hay tienda activa (actingStoreID); sin ella se ignora.
func (uc *TransferUseCase) List(ctx context.Context, organizationID, actingStoreID string, req dto.ListTransfersRequest) (_ *dto.TransferListResponse, err error) {
	ctx, span := uc.startSpan(ctx, "list", organizationID, "")
	defer func() { endSpan(span, err) }()

	filter, err := uc.buildFilter(organizationID, actingStoreID, &req)
	if err != nil {
		return nil, err
	}

	transfers, total, err := uc.transfers.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data, err := uc.projectMany(ctx, transfers)
	if err != nil {
		return nil, err
	}
	return &dto.TransferListResponse{
		Data: data,
		Meta: dto.NewPageMeta(req.PageRequest, total, len(data)),
	}, nil
}

func (uc *TransferUseCase) buildFilter(organizationID, actingStoreID string, req *dto.ListTransfersRequest) (repository.TransferFilter, error) {
	req.DefaultPage(uc.cfg.MaxPerPage)

	status := entity.TransferStatus(strings.TrimSpace(req.Status))
	if status != "" && !status.IsValid() {
		return repository.TransferFilter{}, domain.NewValidationError("status", "estado no válido")
	}

	direction := strings.TrimSpace(req.Direction)
	switch direction {
	case "", entity.DirectionAll, entity.DirectionOutgoing, entity.DirectionIncoming:
	default:
		return repository.TransferFilter{}, domain.NewValidationError("direction", "dirección no válida")
	}
	if actingStoreID == "" {
		direction = ""
	}

	sortBy := strings.TrimSpace(req.SortBy)
	if sortBy == "" {
		sortBy = defaultSortColumn
	}
	if _, ok := sortableColumns[sortBy]; !ok {
		return repository.TransferFilter{}, domain.NewValidationError("sort_by", "columna de orden no permitida")
	}
	sortDesc := true
	switch strings.ToLower(strings.TrimSpace(req.SortDirection)) {
	case "", "desc":
	case "asc":
		sortDesc = false
	default:
		return repository.TransferFilter{}, domain.NewValidationError("sort_direction", "debe ser asc o desc")
	}

	if req.DateFrom != nil && req.DateTo != nil && req.DateTo.Before(*req.DateFrom) {
		return repository.TransferFilter{}, domain.NewValidationError("date_to", "la fecha final es anterior a la inicial")
	}

	return repository.TransferFilter{
		OrganizationID: organizationID,
		Search:         strings.TrimSpace(req.Search),
		Status:         status,
		StoreID:        req.StoreID,
		FromStoreID:    req.FromStoreID,
		ToStoreID:      req.ToStoreID,
		Direction:      direction,
		ActingStoreID:  actingStoreID,
		DateFrom:       req.DateFrom,
		DateTo:         req.DateTo,
		SortBy:         sortBy,
		SortDesc:       sortDesc,
		Limit:          req.PerPage,
		Offset:         req.Offset(),
	}, nil
}

// Statistics proyección de conteos y cantidades de traslados de una tienda. Usa la caché
// cuando hay entrada; un fallo de la caché se registra y se calcula contra la BD.
func (uc *TransferUseCase) Statistics(ctx context.Context, organizationID, storeID string) (_ *dto.TransferStatistics, err error) {
	ctx, span := uc.startSpan(ctx, "statistics", organizationID, "")
	defer func() { endSpan(span, err) }()

	if storeID == "" {
		return nil, domain.NewValidationError("store_id", "se requiere una tienda activa")
	}

	cached, version, ok, cacheErr := uc.cache.Get(ctx, organizationID, storeID)
	if cacheErr != nil {
		uc.log.Warn().Err(cacheErr).Str("store_id", storeID).Msg("leer caché de estadísticas")
	} else if ok {
		return cached, nil
	}

	rows, err := uc.transfers.Statistics(ctx, organizationID, storeID)
	if err != nil {
		return nil, err
	}
	stats := AggregateStatistics(storeID, rows)

	// Sin versión conocida no se guarda.
	if cacheErr == nil {
		if err := uc.cache.Set(ctx, organizationID, storeID, version, stats); err != nil {
			uc.log.Warn().Err(err).Str("store_id", storeID).Msg("guardar caché de estadísticas")
		}
	}
	return stats, nil
}

// AggregateStatistics agrega las filas (dirección, estado) en la proyección de la tienda.
func AggregateStatistics(storeID string, rows []repository.TransferStatsRow) *dto.TransferStatistics {
	stats := &dto.TransferStatistics{StoreID: storeID}
	for _, row := range rows {
		var dir *dto.DirectionStatistics
		switch row.Direction {
		case entity.DirectionOutgoing:
			dir = &stats.Outgoing
		case entity.DirectionIncoming:
			dir = &stats.Incoming
		default:
			continue
		}

		dir.Total += row.Count
		switch row.Status {
		case entity.TransferStatusPending:
			dir.Pending += row.Count
		case entity.TransferStatusInTransit:
			dir.InTransit += row.Count
			dir.QuantitySent = dir.QuantitySent.Add(row.QuantitySent)
		case entity.TransferStatusCompleted:
			dir.Completed += row.Count
			dir.QuantitySent = dir.QuantitySent.Add(row.QuantitySent)
			dir.QuantityReceived = dir.QuantityReceived.Add(row.QuantityReceived)
			dir.Shortage = dir.Shortage.Add(row.QuantitySent.Sub(row.QuantityReceived))
		case entity.TransferStatusCancelled:
			dir.Cancelled += row.Count
		}
	}
	stats.PendingApproval = stats.Outgoing.Pending
	stats.AwaitingReceipt = stats.Incoming.InTransit
	return stats
}
