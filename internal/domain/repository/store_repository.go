package repository

import (
	"context"

	"github.com/jhoicas/Traslados-api/internal/domain/entity"
)

// StoreRepository puerto de lectura de tiendas (DIP).
type StoreRepository interface {
	// GetByID devuelve nil, nil si la tienda no existe.
	GetByID(ctx context.Context, id string) (*entity.Store, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*entity.Store, error)
}
