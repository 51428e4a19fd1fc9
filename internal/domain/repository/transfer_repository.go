package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Traslados-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// TransferFilter criterios de búsqueda para el listado de traslados.
// SortBy debe venir ya validado contra las columnas permitidas.
type TransferFilter struct {
	OrganizationID string
	Search         string
	Status         entity.TransferStatus
	StoreID        string // origen o destino
	FromStoreID    string
	ToStoreID      string
	Direction      string // outgoing | incoming | all (origen o destino), relativo a ActingStoreID
	ActingStoreID  string
	DateFrom       *time.Time
	DateTo         *time.Time
	SortBy         string
	SortDesc       bool
	Limit          int
	Offset         int
}

// TransferStatsRow fila cruda de estadísticas: una por (dirección, estado).
// Lo produce la DB; el caso de uso lo agrega en el DTO.
type TransferStatsRow struct {
	Direction        string // outgoing | incoming
	Status           entity.TransferStatus
	Count            int
	QuantitySent     decimal.Decimal
	QuantityReceived decimal.Decimal
}

// TransferRepository puerto de persistencia del agregado Transfer (cabecera + líneas).
type TransferRepository interface {
	// NextNumber reserva el siguiente número correlativo del día para la organización.
	NextNumber(ctx context.Context, organizationID, prefix string, day time.Time) (string, error)
	Create(ctx context.Context, transfer *entity.Transfer) error
	// GetByID devuelve nil, nil si no existe en la organización.
	GetByID(ctx context.Context, organizationID, id string) (*entity.Transfer, error)
	// GetForUpdate igual que GetByID pero bloquea la fila (SELECT ... FOR UPDATE).
	// Solo tiene sentido dentro de una transacción.
	GetForUpdate(ctx context.Context, organizationID, id string) (*entity.Transfer, error)
	// Update persiste estado, actores, fechas, notas y cantidades de las líneas.
	Update(ctx context.Context, transfer *entity.Transfer) error
	List(ctx context.Context, filter TransferFilter) ([]*entity.Transfer, int, error)
	Statistics(ctx context.Context, organizationID, storeID string) ([]TransferStatsRow, error)
}
