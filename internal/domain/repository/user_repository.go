package repository

import (
	"context"

	"github.com/jhoicas/Traslados-api/internal/domain/entity"
)

// UserRepository puerto de lectura de usuarios para mostrar los actores de un traslado.
type UserRepository interface {
	GetByIDs(ctx context.Context, ids []string) (map[string]*entity.User, error)
}
