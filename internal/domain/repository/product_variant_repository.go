package repository

import (
	"context"

	"github.com/jhoicas/Traslados-api/internal/domain/entity"
)

// ProductVariantRepository puerto de lectura de variantes de producto.
type ProductVariantRepository interface {
	// GetByIDs devuelve las variantes encontradas indexadas por ID; las ausentes no aparecen.
	GetByIDs(ctx context.Context, ids []string) (map[string]*entity.ProductVariant, error)
}
