package http_test

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Traslados-api/internal/domain"
	"github.com/jhoicas/Traslados-api/internal/domain/entity"
	"github.com/jhoicas/Traslados-api/internal/domain/repository"
)

// store en memoria para los tests HTTP. Run no revierte: basta con que las lecturas
// devuelvan copias para que una transición fallida no altere lo guardado.
type store struct {
	mu        sync.Mutex
	transfers map[string]*entity.Transfer
	stock     map[string]decimal.Decimal
	seq       int
	stores    map[string]*entity.Store
	variants  map[string]*entity.ProductVariant
	users     map[string]*entity.User
}

func newStore() *store {
	return &store{
		transfers: map[string]*entity.Transfer{},
		stock:     map[string]decimal.Decimal{},
		stores:    map[string]*entity.Store{},
		variants:  map[string]*entity.ProductVariant{},
		users:     map[string]*entity.User{},
	}
}

func (s *store) Run(_ context.Context, fn func(repository.TransferRepository, repository.StockLedger) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(transferRepo{s}, ledger{s})
}

func (s *store) stockOf(storeID, variantID string) decimal.Decimal {
	return s.stock[storeID+"|"+variantID]
}

func clone(t *entity.Transfer) *entity.Transfer {
	c := *t
	c.Items = make([]*entity.TransferItem, 0, len(t.Items))
	for _, item := range t.Items {
		ic := *item
		c.Items = append(c.Items, &ic)
	}
	return &c
}

type transferRepo struct{ s *store }

func (r transferRepo) NextNumber(_ context.Context, _, prefix string, day time.Time) (string, error) {
	r.s.seq++
	return entity.FormatTransferNumber(prefix, day, r.s.seq), nil
}

func (r transferRepo) Create(_ context.Context, t *entity.Transfer) error {
	r.s.transfers[t.ID] = clone(t)
	return nil
}

func (r transferRepo) GetByID(_ context.Context, organizationID, id string) (*entity.Transfer, error) {
	t, ok := r.s.transfers[id]
	if !ok || t.OrganizationID != organizationID {
		return nil, nil
	}
	return clone(t), nil
}

func (r transferRepo) GetForUpdate(ctx context.Context, organizationID, id string) (*entity.Transfer, error) {
	return r.GetByID(ctx, organizationID, id)
}

func (r transferRepo) Update(_ context.Context, t *entity.Transfer) error {
	if _, ok := r.s.transfers[t.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.transfers[t.ID] = clone(t)
	return nil
}

func (r transferRepo) List(_ context.Context, f repository.TransferFilter) ([]*entity.Transfer, int, error) {
	var out []*entity.Transfer
	for _, t := range r.s.transfers {
		if t.OrganizationID != f.OrganizationID {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.Direction == entity.DirectionAll && !t.Touches(f.ActingStoreID) {
			continue
		}
		out = append(out, clone(t))
	}
	return out, len(out), nil
}

func (r transferRepo) Statistics(_ context.Context, organizationID, storeID string) ([]repository.TransferStatsRow, error) {
	var rows []repository.TransferStatsRow
	for _, t := range r.s.transfers {
		if t.OrganizationID != organizationID || t.FromStoreID != storeID {
			continue
		}
		rows = append(rows, repository.TransferStatsRow{Direction: entity.DirectionOutgoing, Status: t.Status, Count: 1})
	}
	return rows, nil
}

type ledger struct{ s *store }

func (l ledger) Available(_ context.Context, storeID, variantID string) (decimal.Decimal, error) {
	return l.s.stockOf(storeID, variantID), nil
}

func (l ledger) Decrement(_ context.Context, storeID, variantID string, quantity decimal.Decimal) error {
	current := l.s.stockOf(storeID, variantID)
	if current.LessThan(quantity) {
		return &domain.StockError{StoreID: storeID, VariantID: variantID, Available: current, Requested: quantity}
	}
	l.s.stock[storeID+"|"+variantID] = current.Sub(quantity)
	return nil
}

func (l ledger) Increment(_ context.Context, storeID, variantID string, quantity decimal.Decimal) error {
	l.s.stock[storeID+"|"+variantID] = l.s.stockOf(storeID, variantID).Add(quantity)
	return nil
}

type refs struct{ s *store }

func (r refs) GetByID(_ context.Context, id string) (*entity.Store, error) {
	return r.s.stores[id], nil
}

func (r refs) GetByIDs(_ context.Context, ids []string) (map[string]*entity.Store, error) {
	out := map[string]*entity.Store{}
	for _, id := range ids {
		if st, ok := r.s.stores[id]; ok {
			out[id] = st
		}
	}
	return out, nil
}

type variantRefs struct{ s *store }

func (r variantRefs) GetByIDs(_ context.Context, ids []string) (map[string]*entity.ProductVariant, error) {
	out := map[string]*entity.ProductVariant{}
	for _, id := range ids {
		if v, ok := r.s.variants[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

type userRefs struct{ s *store }

func (r userRefs) GetByIDs(_ context.Context, ids []string) (map[string]*entity.User, error) {
	out := map[string]*entity.User{}
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}
