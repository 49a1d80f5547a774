package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo implementación en memoria de SaleRepository.
type SaleRepo struct {
	s  *Store
	tx *tx
}

func saleKey(id string) string { return "sale:" + id }

// Create persiste la cabecera de la venta.
func (r *SaleRepo) Create(_ context.Context, sale *entity.Sale) error {
	if sale.ID == "" {
		sale.ID = uuid.New().String()
	}
	return autocommit(r.s, r.tx, func(t *tx) error {
		t.lock(saleKey(sale.ID))
		if _, ok := t.sale(sale.ID); ok {
			return domain.Conflict("venta %s duplicada", sale.ID)
		}
		t.putSale(*sale)
		return nil
	})
}

// CreateItems agrega líneas a sus ventas.
func (r *SaleRepo) CreateItems(_ context.Context, items []entity.SaleLineItem) error {
	return autocommit(r.s, r.tx, func(t *tx) error {
		for _, it := range items {
			if it.ID == "" {
				it.ID = uuid.New().String()
			}
			if _, ok := t.sale(it.SaleID); !ok {
				return domain.NotFound("venta", it.SaleID)
			}
			t.putItems(it.SaleID, append(t.saleItems(it.SaleID), it))
		}
		return nil
	})
}

// GetByID lee la venta sin bloquear (sin líneas).
func (r *SaleRepo) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	var out *entity.Sale
	_ = autocommit(r.s, r.tx, func(t *tx) error {
		if sale, ok := t.sale(id); ok {
			out = &sale
		}
		return nil
	})
	return out, nil
}

// GetForUpdate bloquea la fila de la venta hasta el fin de la transacción.
func (r *SaleRepo) GetForUpdate(_ context.Context, id string) (*entity.Sale, error) {
	var out *entity.Sale
	_ = autocommit(r.s, r.tx, func(t *tx) error {
		t.lock(saleKey(id))
		if sale, ok := t.sale(id); ok {
			out = &sale
		}
		return nil
	})
	return out, nil
}

// GetItems devuelve las líneas de la venta en orden de inserción.
func (r *SaleRepo) GetItems(_ context.Context, saleID string) ([]entity.SaleLineItem, error) {
	var out []entity.SaleLineItem
	_ = autocommit(r.s, r.tx, func(t *tx) error {
		out = t.saleItems(saleID)
		return nil
	})
	return out, nil
}

// TransitionStatus compare-and-set del estado bajo el bloqueo de la fila.
func (r *SaleRepo) TransitionStatus(_ context.Context, id string, from, to entity.SaleStatus, at time.Time) (bool, error) {
	var ok bool
	err := autocommit(r.s, r.tx, func(t *tx) error {
		t.lock(saleKey(id))
		sale, found := t.sale(id)
		if !found {
			return domain.NotFound("venta", id)
		}
		if sale.Status != from {
			return nil
		}
		sale.Status = to
		sale.UpdatedAt = at
		if to == entity.SaleStatusCompleted {
			completedAt := at
			sale.CompletedAt = &completedAt
		}
		t.putSale(sale)
		ok = true
		return nil
	})
	return ok, err
}

// MarkEdited levanta is_edited con fecha y motivo.
func (r *SaleRepo) MarkEdited(_ context.Context, id, reason string, at time.Time) error {
	return autocommit(r.s, r.tx, func(t *tx) error {
		t.lock(saleKey(id))
		sale, found := t.sale(id)
		if !found {
			return domain.NotFound("venta", id)
		}
		editedAt := at
		sale.IsEdited = true
		sale.EditedAt = &editedAt
		sale.EditReason = reason
		sale.UpdatedAt = at
		t.putSale(sale)
		return nil
	})
}

// ReplaceItems reemplaza el conjunto completo de líneas y el total.
func (r *SaleRepo) ReplaceItems(_ context.Context, saleID string, items []entity.SaleLineItem, total decimal.Decimal) error {
	return autocommit(r.s, r.tx, func(t *tx) error {
		t.lock(saleKey(saleID))
		sale, found := t.sale(saleID)
		if !found {
			return domain.NotFound("venta", saleID)
		}
		replaced := make([]entity.SaleLineItem, 0, len(items))
		for _, it := range items {
			if it.ID == "" {
				it.ID = uuid.New().String()
			}
			it.SaleID = saleID
			replaced = append(replaced, it)
		}
		t.putItems(saleID, replaced)
		sale.TotalAmount = total
		t.putSale(sale)
		return nil
	})
}

// List lista ventas de la más reciente a la más antigua.
func (r *SaleRepo) List(_ context.Context, limit, offset int) ([]*entity.Sale, error) {
	r.s.mu.Lock()
	list := make([]*entity.Sale, 0, len(r.s.sales))
	for _, sale := range r.s.sales {
		sale := sale
		list = append(list, &sale)
	}
	r.s.mu.Unlock()
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return page(list, limit, offset), nil
}
