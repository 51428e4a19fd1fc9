package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Traslados-api/internal/domain"
	"github.com/jhoicas/Traslados-api/internal/domain/entity"
	"github.com/jhoicas/Traslados-api/internal/domain/repository"
)

var _ repository.TransferRepository = (*TransferRepo)(nil)

// TransferRepo persistencia del agregado Transfer (cabecera + líneas). Usable con pool o tx.
type TransferRepo struct {
	q Querier
}

// NewTransferRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransferRepository(q Querier) *TransferRepo {
	return &TransferRepo{q: q}
}

const transferColumns = `
	t.id, t.organization_id, t.transfer_number, t.reference, t.from_store_id, t.to_store_id, t.status,
	t.notes, t.receipt_notes, t.cancellation_reason,
	t.requested_by, t.approved_by, t.received_by, t.cancelled_by,
	t.transfer_date, t.expected_arrival_date, t.approved_at, t.received_at, t.cancelled_at,
	t.created_at, t.updated_at`

// sortColumns columnas ordenables → expresión SQL. El caso de uso ya filtra sort_by; aquí se
// vuelve a mapear para que nunca llegue texto del cliente al ORDER BY.
var sortColumns = map[string]string{
	"created_at":      "t.created_at",
	"updated_at":      "t.updated_at",
	"transfer_number": "t.transfer_number",
	"status":          "t.status",
	"approved_at":     "t.approved_at",
	"received_at":     "t.received_at",
	"cancelled_at":    "t.cancelled_at",
	"transfer_date":   "t.transfer_date",
}

// NextNumber reserva el correlativo del día en transfer_sequences. Dentro de la transacción
// de creación la fila del contador queda bloqueada hasta el commit, así dos altas concurrentes
// nunca obtienen el mismo número.
func (r *TransferRepo) NextNumber(ctx context.Context, organizationID, prefix string, day time.Time) (string, error) {
	query := `
		INSERT INTO transfer_sequences (organization_id, day, last_value)
		VALUES ($1, $2, 1)
		ON CONFLICT (organization_id, day)
		DO UPDATE SET last_value = transfer_sequences.last_value + 1
		RETURNING last_value`
	var seq int
	dayOnly := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	if err := r.q.QueryRow(ctx, query, organizationID, dayOnly).Scan(&seq); err != nil {
		return "", fmt.Errorf("next transfer number: %w", err)
	}
	return entity.FormatTransferNumber(prefix, day, seq), nil
}

// Create persiste cabecera y líneas.
func (r *TransferRepo) Create(ctx context.Context, t *entity.Transfer) error {
	query := `
		INSERT INTO transfers (id, organization_id, transfer_number, reference, from_store_id, to_store_id, status,
			notes, requested_by, expected_arrival_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.OrganizationID, t.TransferNumber, t.Reference, t.FromStoreID, t.ToStoreID, string(t.Status),
		t.Notes, t.RequestedBy, t.ExpectedArrivalDate, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("transfer number %s: %w", t.TransferNumber, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert transfer: %w", err)
	}

	batch := &pgx.Batch{}
	for _, item := range t.Items {
		batch.Queue(`
			INSERT INTO transfer_items (id, transfer_id, product_variant_id, quantity_requested, notes, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			item.ID, t.ID, item.ProductVariantID, item.QuantityRequested, item.Notes, item.CreatedAt,
		)
	}
	if err := r.q.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert transfer items: %w", err)
	}
	return nil
}

// GetByID obtiene el traslado con sus líneas (nil, nil si no existe en la organización).
func (r *TransferRepo) GetByID(ctx context.Context, organizationID, id string) (*entity.Transfer, error) {
	return r.get(ctx, organizationID, id, false)
}

// GetForUpdate igual que GetByID pero bloquea la fila de la cabecera (SELECT FOR UPDATE).
func (r *TransferRepo) GetForUpdate(ctx context.Context, organizationID, id string) (*entity.Transfer, error) {
	return r.get(ctx, organizationID, id, true)
}

func (r *TransferRepo) get(ctx context.Context, organizationID, id string, forUpdate bool) (*entity.Transfer, error) {
	// Un id que no es UUID no puede existir; evita el error de cast de PostgreSQL.
	if !isUUID(id) {
		return nil, nil
	}
	query := `SELECT ` + transferColumns + ` FROM transfers t WHERE t.id = $1 AND t.organization_id = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	t, err := scanTransfer(r.q.QueryRow(ctx, query, id, organizationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transfer: %w", err)
	}
	if err := r.loadItems(ctx, []*entity.Transfer{t}); err != nil {
		return nil, err
	}
	return t, nil
}

// Update persiste estado, actores, fechas, notas y las cantidades enviadas/recibidas.
func (r *TransferRepo) Update(ctx context.Context, t *entity.Transfer) error {
	query := `
		UPDATE transfers
		SET status = $2,
		    receipt_notes = $3,
		    cancellation_reason = $4,
		    approved_by = $5,
		    received_by = $6,
		    cancelled_by = $7,
		    transfer_date = $8,
		    approved_at = $9,
		    received_at = $10,
		    cancelled_at = $11,
		    updated_at = $12
		WHERE id = $1 AND organization_id = $13`
	cmd, err := r.q.Exec(ctx, query,
		t.ID, string(t.Status), t.ReceiptNotes, t.CancellationReason,
		nullIfEmpty(t.ApprovedBy), nullIfEmpty(t.ReceivedBy), nullIfEmpty(t.CancelledBy),
		t.TransferDate, t.ApprovedAt, t.ReceivedAt, t.CancelledAt, t.UpdatedAt,
		t.OrganizationID,
	)
	if err != nil {
		return fmt.Errorf("update transfer: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	batch := &pgx.Batch{}
	for _, item := range t.Items {
		batch.Queue(`
			UPDATE transfer_items SET quantity_sent = $2, quantity_received = $3
			WHERE id = $1`,
			item.ID, item.QuantitySent, item.QuantityReceived,
		)
	}
	if err := r.q.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("update transfer items: %w", err)
	}
	return nil
}

// List filtra, ordena y pagina; devuelve también el total sin paginar.
func (r *TransferRepo) List(ctx context.Context, f repository.TransferFilter) ([]*entity.Transfer, int, error) {
	where, args := buildTransferWhere(f)

	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM transfers t WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transfers: %w", err)
	}
	if total == 0 {
		return nil, 0, nil
	}

	orderBy, ok := sortColumns[f.SortBy]
	if !ok {
		orderBy = "t.created_at"
	}
	dir := "ASC"
	if f.SortDesc {
		dir = "DESC"
	}
	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`SELECT %s FROM transfers t WHERE %s ORDER BY %s %s NULLS LAST, t.id %s LIMIT $%d OFFSET $%d`,
		transferColumns, where, orderBy, dir, dir, len(args)-1, len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transfers: %w", err)
	}
	var list []*entity.Transfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			rows.Close()
			return nil, 0, fmt.Errorf("scan transfer: %w", err)
		}
		list = append(list, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list transfers: %w", err)
	}

	if err := r.loadItems(ctx, list); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func buildTransferWhere(f repository.TransferFilter) (string, []any) {
	conds := []string{"t.organization_id = $1"}
	args := []any{f.OrganizationID}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Search != "" {
		p := arg("%" + f.Search + "%")
		conds = append(conds, fmt.Sprintf("(t.transfer_number ILIKE %s OR t.reference ILIKE %s)", p, p))
	}
	if f.Status != "" {
		conds = append(conds, "t.status = "+arg(string(f.Status)))
	}
	if f.StoreID != "" {
		p := arg(f.StoreID)
		conds = append(conds, fmt.Sprintf("(t.from_store_id = %s OR t.to_store_id = %s)", p, p))
	}
	if f.FromStoreID != "" {
		conds = append(conds, "t.from_store_id = "+arg(f.FromStoreID))
	}
	if f.ToStoreID != "" {
		conds = append(conds, "t.to_store_id = "+arg(f.ToStoreID))
	}
	if f.ActingStoreID != "" {
		switch f.Direction {
		case entity.DirectionOutgoing:
			conds = append(conds, "t.from_store_id = "+arg(f.ActingStoreID))
		case entity.DirectionIncoming:
			conds = append(conds, "t.to_store_id = "+arg(f.ActingStoreID))
		case entity.DirectionAll:
			p := arg(f.ActingStoreID)
			conds = append(conds, fmt.Sprintf("(t.from_store_id = %s OR t.to_store_id = %s)", p, p))
		}
	}
	if f.DateFrom != nil {
		conds = append(conds, "t.created_at >= "+arg(*f.DateFrom))
	}
	if f.DateTo != nil {
		conds = append(conds, "t.created_at < "+arg(f.DateTo.AddDate(0, 0, 1)))
	}
	return strings.Join(conds, " AND "), args
}

// Statistics una fila por (dirección, estado) para la tienda, con las sumas de cantidades
// enviadas y recibidas de sus líneas.
func (r *TransferRepo) Statistics(ctx context.Context, organizationID, storeID string) ([]repository.TransferStatsRow, error) {
	query := `
		WITH scoped AS (
			SELECT t.id, t.status,
			       CASE WHEN t.from_store_id = $2 THEN 'outgoing' ELSE 'incoming' END AS direction
			FROM transfers t
			WHERE t.organization_id = $1 AND (t.from_store_id = $2 OR t.to_store_id = $2)
		), totals AS (
			SELECT transfer_id,
			       COALESCE(SUM(quantity_sent), 0)     AS sent,
			       COALESCE(SUM(quantity_received), 0) AS received
			FROM transfer_items
			WHERE transfer_id IN (SELECT id FROM scoped)
			GROUP BY transfer_id
		)
		SELECT s.direction, s.status, count(*),
		       COALESCE(SUM(tt.sent), 0), COALESCE(SUM(tt.received), 0)
		FROM scoped s
		LEFT JOIN totals tt ON tt.transfer_id = s.id
		GROUP BY s.direction, s.status`
	rows, err := r.q.Query(ctx, query, organizationID, storeID)
	if err != nil {
		return nil, fmt.Errorf("transfer statistics: %w", err)
	}
	defer rows.Close()

	var out []repository.TransferStatsRow
	for rows.Next() {
		var row repository.TransferStatsRow
		var status string
		if err := rows.Scan(&row.Direction, &status, &row.Count, &row.QuantitySent, &row.QuantityReceived); err != nil {
			return nil, fmt.Errorf("scan transfer statistics: %w", err)
		}
		row.Status = entity.TransferStatus(status)
		out = append(out, row)
	}
	return out, rows.Err()
}

// loadItems carga las líneas de varios traslados en una sola consulta.
func (r *TransferRepo) loadItems(ctx context.Context, transfers []*entity.Transfer) error {
	if len(transfers) == 0 {
		return nil
	}
	byID := make(map[string]*entity.Transfer, len(transfers))
	ids := make([]string, 0, len(transfers))
	for _, t := range transfers {
		byID[t.ID] = t
		ids = append(ids, t.ID)
	}

	query := `
		SELECT id, transfer_id, product_variant_id, quantity_requested, quantity_sent, quantity_received, notes, created_at
		FROM transfer_items
		WHERE transfer_id = ANY($1::uuid[])
		ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("list transfer items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var item entity.TransferItem
		if err := rows.Scan(
			&item.ID, &item.TransferID, &item.ProductVariantID, &item.QuantityRequested,
			&item.QuantitySent, &item.QuantityReceived, &item.Notes, &item.CreatedAt,
		); err != nil {
			return fmt.Errorf("scan transfer item: %w", err)
		}
		if t, ok := byID[item.TransferID]; ok {
			t.Items = append(t.Items, &item)
		}
	}
	return rows.Err()
}

func scanTransfer(row pgx.Row) (*entity.Transfer, error) {
	var (
		t                                   entity.Transfer
		status                              string
		approvedBy, receivedBy, cancelledBy *string
	)
	err := row.Scan(
		&t.ID, &t.OrganizationID, &t.TransferNumber, &t.Reference, &t.FromStoreID, &t.ToStoreID, &status,
		&t.Notes, &t.ReceiptNotes, &t.CancellationReason,
		&t.RequestedBy, &approvedBy, &receivedBy, &cancelledBy,
		&t.TransferDate, &t.ExpectedArrivalDate, &t.ApprovedAt, &t.ReceivedAt, &t.CancelledAt,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Status = entity.TransferStatus(status)
	t.ApprovedBy = derefString(approvedBy)
	t.ReceivedBy = derefString(receivedBy)
	t.CancelledBy = derefString(cancelledBy)
	return &t, nil
}
