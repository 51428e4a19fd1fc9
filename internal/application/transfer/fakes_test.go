package transfer_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Traslados-api/internal/domain"
	"github.com/jhoicas/Traslados-api/internal/domain/entity"
	"github.com/jhoicas/Traslados-api/internal/domain/repository"
)

// memDB base en memoria con semántica transaccional: Run toma una foto de traslados y stock
// y la restaura si la función devuelve error.
type memDB struct {
	mu        sync.Mutex
	transfers map[string]*entity.Transfer
	stock     map[string]decimal.Decimal
	sequences map[string]int
	stores    map[string]*entity.Store
	variants  map[string]*entity.ProductVariant
	users     map[string]*entity.User
	runs      int
}

func newMemDB() *memDB {
	return &memDB{
		transfers: map[string]*entity.Transfer{},
		stock:     map[string]decimal.Decimal{},
		sequences: map[string]int{},
		stores:    map[string]*entity.Store{},
		variants:  map[string]*entity.ProductVariant{},
		users:     map[string]*entity.User{},
	}
}

func stockKey(storeID, variantID string) string { return storeID + "|" + variantID }

func (db *memDB) setStock(storeID, variantID string, qty decimal.Decimal) {
	db.stock[stockKey(storeID, variantID)] = qty
}

func (db *memDB) stockOf(storeID, variantID string) decimal.Decimal {
	return db.stock[stockKey(storeID, variantID)]
}

// Run implementa transfer.TxRunner.
func (db *memDB) Run(ctx context.Context, fn func(repository.TransferRepository, repository.StockLedger) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.runs++

	transfers := make(map[string]*entity.Transfer, len(db.transfers))
	for id, t := range db.transfers {
		transfers[id] = cloneTransfer(t)
	}
	stock := make(map[string]decimal.Decimal, len(db.stock))
	for k, v := range db.stock {
		stock[k] = v
	}
	sequences := make(map[string]int, len(db.sequences))
	for k, v := range db.sequences {
		sequences[k] = v
	}

	if err := fn(&memTransferRepo{db: db}, &memLedger{db: db}); err != nil {
		db.transfers = transfers
		db.stock = stock
		db.sequences = sequences
		return err
	}
	return nil
}

func cloneTransfer(t *entity.Transfer) *entity.Transfer {
	c := *t
	c.Items = make([]*entity.TransferItem, 0, len(t.Items))
	for _, item := range t.Items {
		ic := *item
		c.Items = append(c.Items, &ic)
	}
	return &c
}

// ── TransferRepository ────────────────────────────────────────────────────────

type memTransferRepo struct{ db *memDB }

func (r *memTransferRepo) NextNumber(_ context.Context, organizationID, prefix string, day time.Time) (string, error) {
	key := organizationID + "|" + day.Format("20060102")
	r.db.sequences[key]++
	return entity.FormatTransferNumber(prefix, day, r.db.sequences[key]), nil
}

func (r *memTransferRepo) Create(_ context.Context, t *entity.Transfer) error {
	for _, existing := range r.db.transfers {
		if existing.OrganizationID == t.OrganizationID && existing.TransferNumber == t.TransferNumber {
			return domain.ErrDuplicate
		}
	}
	r.db.transfers[t.ID] = cloneTransfer(t)
	return nil
}

func (r *memTransferRepo) GetByID(_ context.Context, organizationID, id string) (*entity.Transfer, error) {
	t, ok := r.db.transfers[id]
	if !ok || t.OrganizationID != organizationID {
		return nil, nil
	}
	return cloneTransfer(t), nil
}

func (r *memTransferRepo) GetForUpdate(ctx context.Context, organizationID, id string) (*entity.Transfer, error) {
	return r.GetByID(ctx, organizationID, id)
}

func (r *memTransferRepo) Update(_ context.Context, t *entity.Transfer) error {
	if _, ok := r.db.transfers[t.ID]; !ok {
		return domain.ErrNotFound
	}
	r.db.transfers[t.ID] = cloneTransfer(t)
	return nil
}

func (r *memTransferRepo) List(_ context.Context, f repository.TransferFilter) ([]*entity.Transfer, int, error) {
	var out []*entity.Transfer
	for _, t := range r.db.transfers {
		if t.OrganizationID != f.OrganizationID {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.StoreID != "" && !t.Touches(f.StoreID) {
			continue
		}
		if f.FromStoreID != "" && t.FromStoreID != f.FromStoreID {
			continue
		}
		if f.ToStoreID != "" && t.ToStoreID != f.ToStoreID {
			continue
		}
		switch f.Direction {
		case entity.DirectionOutgoing:
			if t.FromStoreID != f.ActingStoreID {
				continue
			}
		case entity.DirectionIncoming:
			if t.ToStoreID != f.ActingStoreID {
				continue
			}
		case entity.DirectionAll:
			if !t.Touches(f.ActingStoreID) {
				continue
			}
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(t.TransferNumber+" "+t.Reference), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, cloneTransfer(t))
	}
	sort.Slice(out, func(i, j int) bool {
		if f.SortDesc {
			return out[i].TransferNumber > out[j].TransferNumber
		}
		return out[i].TransferNumber < out[j].TransferNumber
	})
	total := len(out)
	if f.Offset >= total {
		return nil, total, nil
	}
	end := f.Offset + f.Limit
	if end > total {
		end = total
	}
	return out[f.Offset:end], total, nil
}

func (r *memTransferRepo) Statistics(_ context.Context, organizationID, storeID string) ([]repository.TransferStatsRow, error) {
	type key struct {
		dir    string
		status entity.TransferStatus
	}
	acc := map[key]*repository.TransferStatsRow{}
	for _, t := range r.db.transfers {
		if t.OrganizationID != organizationID {
			continue
		}
		var dir string
		switch storeID {
		case t.FromStoreID:
			dir = entity.DirectionOutgoing
		case t.ToStoreID:
			dir = entity.DirectionIncoming
		default:
			continue
		}
		k := key{dir, t.Status}
		row, ok := acc[k]
		if !ok {
			row = &repository.TransferStatsRow{Direction: dir, Status: t.Status}
			acc[k] = row
		}
		row.Count++
		for _, item := range t.Items {
			if item.QuantitySent.Valid {
				row.QuantitySent = row.QuantitySent.Add(item.QuantitySent.Decimal)
			}
			if item.QuantityReceived.Valid {
				row.QuantityReceived = row.QuantityReceived.Add(item.QuantityReceived.Decimal)
			}
		}
	}
	rows := make([]repository.TransferStatsRow, 0, len(acc))
	for _, row := range acc {
		rows = append(rows, *row)
	}
	return rows, nil
}

// ── StockLedger ───────────────────────────────────────────────────────────────

type memLedger struct{ db *memDB }

func (l *memLedger) Available(_ context.Context, storeID, variantID string) (decimal.Decimal, error) {
	return l.db.stockOf(storeID, variantID), nil
}

func (l *memLedger) Decrement(_ context.Context, storeID, variantID string, quantity decimal.Decimal) error {
	current := l.db.stockOf(storeID, variantID)
	if current.LessThan(quantity) {
		return &domain.StockError{StoreID: storeID, VariantID: variantID, Available: current, Requested: quantity}
	}
	l.db.setStock(storeID, variantID, current.Sub(quantity))
	return nil
}

func (l *memLedger) Increment(_ context.Context, storeID, variantID string, quantity decimal.Decimal) error {
	l.db.setStock(storeID, variantID, l.db.stockOf(storeID, variantID).Add(quantity))
	return nil
}

// ── Referencias de solo lectura ───────────────────────────────────────────────

type memStores struct{ db *memDB }

func (s memStores) GetByID(_ context.Context, id string) (*entity.Store, error) {
	return s.db.stores[id], nil
}

func (s memStores) GetByIDs(_ context.Context, ids []string) (map[string]*entity.Store, error) {
	out := map[string]*entity.Store{}
	for _, id := range ids {
		if st, ok := s.db.stores[id]; ok {
			out[id] = st
		}
	}
	return out, nil
}

type memVariants struct{ db *memDB }

func (v memVariants) GetByIDs(_ context.Context, ids []string) (map[string]*entity.ProductVariant, error) {
	out := map[string]*entity.ProductVariant{}
	for _, id := range ids {
		if pv, ok := v.db.variants[id]; ok {
			out[id] = pv
		}
	}
	return out, nil
}

type memUsers struct{ db *memDB }

func (u memUsers) GetByIDs(_ context.Context, ids []string) (map[string]*entity.User, error) {
	out := map[string]*entity.User{}
	for _, id := range ids {
		if usr, ok := u.db.users[id]; ok {
			out[id] = usr
		}
	}
	return out, nil
}

// memReadRepo expone la base fuera de una transacción (lecturas del caso de uso).
func memReadRepo(db *memDB) repository.TransferRepository { return &memTransferRepo{db: db} }
