package transfer

import (
	"context"

	"github.com/jhoicas/Traslados-api/internal/application/dto"
	"github.com/jhoicas/Traslados-api/internal/domain/entity"
)

// lookups referencias externas resueltas en lote para armar las respuestas.
type lookups struct {
	stores   map[string]*entity.Store
	variants map[string]*entity.ProductVariant
	users    map[string]*entity.User
}

func (uc *TransferUseCase) project(ctx context.Context, t *entity.Transfer) (*dto.TransferResponse, error) {
	out, err := uc.projectMany(ctx, []*entity.Transfer{t})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// projectMany arma el read model de varios traslados con una consulta por tipo de referencia.
func (uc *TransferUseCase) projectMany(ctx context.Context, transfers []*entity.Transfer) ([]dto.TransferResponse, error) {
	out := make([]dto.TransferResponse, 0, len(transfers))
	if len(transfers) == 0 {
		return out, nil
	}

	storeIDs := newIDSet()
	variantIDs := newIDSet()
	userIDs := newIDSet()
	for _, t := range transfers {
		storeIDs.add(t.FromStoreID, t.ToStoreID)
		userIDs.add(t.RequestedBy, t.ApprovedBy, t.ReceivedBy, t.CancelledBy)
		for _, item := range t.Items {
			variantIDs.add(item.ProductVariantID)
		}
	}

	var (
		l   lookups
		err error
	)
	if l.stores, err = uc.stores.GetByIDs(ctx, storeIDs.ids); err != nil {
		return nil, err
	}
	if l.variants, err = uc.variants.GetByIDs(ctx, variantIDs.ids); err != nil {
		return nil, err
	}
	if l.users, err = uc.users.GetByIDs(ctx, userIDs.ids); err != nil {
		return nil, err
	}

	for _, t := range transfers {
		out = append(out, toTransferResponse(t, l))
	}
	return out, nil
}

func toTransferResponse(t *entity.Transfer, l lookups) dto.TransferResponse {
	items := make([]dto.TransferItemResponse, 0, len(t.Items))
	for _, item := range t.Items {
		items = append(items, toItemResponse(item, l.variants[item.ProductVariantID]))
	}
	return dto.TransferResponse{
		ID:                  t.ID,
		TransferNumber:      t.TransferNumber,
		Reference:           t.Reference,
		Status:              t.Status.String(),
		StatusLabel:         t.Status.Label(),
		FromStore:           storeSummary(t.FromStoreID, l.stores),
		ToStore:             storeSummary(t.ToStoreID, l.stores),
		Items:               items,
		ItemsCount:          len(items),
		Requester:           userSummary(t.RequestedBy, l.users),
		Approver:            optionalUser(t.ApprovedBy, l.users),
		Receiver:            optionalUser(t.ReceivedBy, l.users),
		Canceller:           optionalUser(t.CancelledBy, l.users),
		TransferDate:        t.TransferDate,
		ExpectedArrivalDate: t.ExpectedArrivalDate,
		CreatedAt:           t.CreatedAt,
		ApprovedAt:          t.ApprovedAt,
		ReceivedAt:          t.ReceivedAt,
		CancelledAt:         t.CancelledAt,
		Notes:               t.Notes,
		ReceiptNotes:        t.ReceiptNotes,
		CancellationReason:  t.CancellationReason,
		TotalShortage:       t.TotalShortage(),
		CanApprove:          t.CanApprove(),
		CanReceive:          t.CanReceive(),
		CanCancel:           t.CanCancel(),
	}
}

func toItemResponse(item *entity.TransferItem, v *entity.ProductVariant) dto.TransferItemResponse {
	out := dto.TransferItemResponse{
		ID:                 item.ID,
		Variant:            dto.VariantSummary{ID: item.ProductVariantID},
		QuantityRequested:  item.QuantityRequested,
		QuantitySent:       item.QuantitySent,
		QuantityReceived:   item.QuantityReceived,
		QuantityDifference: item.Difference(),
		IsComplete:         item.IsComplete(),
		HasShortage:        item.HasShortage(),
		Notes:              item.Notes,
	}
	if v != nil {
		out.Product = dto.ProductSummary{ID: v.ProductID, Name: v.ProductName, Reference: v.ProductReference}
		out.Variant = dto.VariantSummary{ID: v.ID, Name: v.Name, SKU: v.SKU}
	}
	return out
}

func storeSummary(id string, stores map[string]*entity.Store) dto.StoreSummary {
	s, ok := stores[id]
	if !ok {
		return dto.StoreSummary{ID: id}
	}
	return dto.StoreSummary{ID: s.ID, Name: s.Name, Code: s.Code, Address: s.Address}
}

func userSummary(id string, users map[string]*entity.User) dto.UserSummary {
	u, ok := users[id]
	if !ok {
		return dto.UserSummary{ID: id}
	}
	return dto.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

func optionalUser(id string, users map[string]*entity.User) *dto.UserSummary {
	if id == "" {
		return nil
	}
	u := userSummary(id, users)
	return &u
}

// idSet lista de IDs sin vacíos ni repetidos, en orden de aparición.
type idSet struct {
	ids  []string
	seen map[string]struct{}
}

func newIDSet() *idSet { return &idSet{seen: map[string]struct{}{}} }

func (s *idSet) add(ids ...string) {
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := s.seen[id]; ok {
			continue
		}
		s.seen[id] = struct{}{}
		s.ids = append(s.ids, id)
	}
}
