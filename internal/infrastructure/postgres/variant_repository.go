package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Traslados-api/internal/domain/entity"
	"github.com/jhoicas/Traslados-api/internal/domain/repository"
)

var _ repository.ProductVariantRepository = (*ProductVariantRepo)(nil)

// ProductVariantRepo lectura de variantes (con el nombre y referencia del producto) sobre PostgreSQL.
type ProductVariantRepo struct {
	q Querier
}

// NewProductVariantRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProductVariantRepository(q Querier) *ProductVariantRepo {
	return &ProductVariantRepo{q: q}
}

// GetByIDs obtiene variantes indexadas por ID; las ausentes no aparecen en el mapa.
func (r *ProductVariantRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*entity.ProductVariant, error) {
	out := make(map[string]*entity.ProductVariant, len(ids))
	ids = onlyUUIDs(ids)
	if len(ids) == 0 {
		return out, nil
	}
	query := `
		SELECT v.id, p.organization_id, p.id, p.name, p.reference, v.name, v.sku
		FROM product_variants v
		JOIN products p ON p.id = v.product_id
		WHERE v.id = ANY($1::uuid[])`
	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("list product variants: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var v entity.ProductVariant
		if err := rows.Scan(&v.ID, &v.OrganizationID, &v.ProductID, &v.ProductName, &v.ProductReference, &v.Name, &v.SKU); err != nil {
			return nil, fmt.Errorf("scan product variant: %w", err)
		}
		out[v.ID] = &v
	}
	return out, rows.Err()
}
