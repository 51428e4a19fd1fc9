package transfer

import (
	"context"

	"github.com/jhoicas/Traslados-api/internal/application/dto"
	"github.com/jhoicas/Traslados-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback: ni el estado del traslado ni el stock quedan a medias.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		transferRepo repository.TransferRepository,
		stock repository.StockLedger,
	) error) error
}

//go:generate mockgen -source=ports.go -destination=ports_mock.go -package=transfer

// StatsCache caché de la proyección de estadísticas por organización+tienda.
// Un fallo de la caché nunca hace fallar la operación: se registra y se sigue contra la BD.
//
// Get devuelve la versión vigente de la tienda y Set guarda bajo esa versión; Invalidate
// avanza la versión, de modo que un Set calculado antes de la invalidación no vuelve a leerse.
type StatsCache interface {
	Get(ctx context.Context, organizationID, storeID string) (stats *dto.TransferStatistics, version int64, ok bool, err error)
	Set(ctx context.Context, organizationID, storeID string, version int64, stats *dto.TransferStatistics) error
	Invalidate(ctx context.Context, organizationID string, storeIDs ...string) error
}

// NoopStatsCache caché deshabilitada: siempre falla la lectura y no guarda nada.
type NoopStatsCache struct{}

func (NoopStatsCache) Get(context.Context, string, string) (*dto.TransferStatistics, int64, bool, error) {
	return nil, 0, false, nil
}

func (NoopStatsCache) Set(context.Context, string, string, int64, *dto.TransferStatistics) error {
	return nil
}

func (NoopStatsCache) Invalidate(context.Context, string, ...string) error { return nil }
