package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación en memoria de ProductRepository.
type ProductRepo struct {
	s  *Store
	tx *tx
}

func productKey(id string) string { return "product:" + id }

// Create registra un producto del catálogo.
func (r *ProductRepo) Create(_ context.Context, product *entity.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if product.StockInPieces < 0 {
		return domain.Invalid("stock inicial negativo")
	}
	now := time.Now()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	return autocommit(r.s, r.tx, func(t *tx) error {
		t.lock(productKey(product.ID))
		if _, ok := t.product(product.ID); ok {
			return domain.Conflict("producto %s duplicado", product.ID)
		}
		t.putProduct(*product)
		return nil
	})
}

// GetByID lee el producto sin bloquear.
func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	_ = autocommit(r.s, r.tx, func(t *tx) error {
		if p, ok := t.product(id); ok {
			out = &p
		}
		return nil
	})
	return out, nil
}

// GetForUpdate bloquea la fila del producto hasta el fin de la transacción.
func (r *ProductRepo) GetForUpdate(_ context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	_ = autocommit(r.s, r.tx, func(t *tx) error {
		t.lock(productKey(id))
		if p, ok := t.product(id); ok {
			out = &p
		}
		return nil
	})
	return out, nil
}

// UpdateStock escribe el stock en piezas.
func (r *ProductRepo) UpdateStock(_ context.Context, id string, stockInPieces int64) error {
	return autocommit(r.s, r.tx, func(t *tx) error {
		t.lock(productKey(id))
		p, ok := t.product(id)
		if !ok {
			return domain.NotFound("producto", id)
		}
		p.StockInPieces = stockInPieces
		p.UpdatedAt = time.Now()
		t.putProduct(p)
		return nil
	})
}

// List lista productos ordenados por SKU.
func (r *ProductRepo) List(_ context.Context, limit, offset int) ([]*entity.Product, error) {
	r.s.mu.Lock()
	list := make([]*entity.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		p := p
		list = append(list, &p)
	}
	r.s.mu.Unlock()
	sort.Slice(list, func(i, j int) bool { return list[i].SKU < list[j].SKU })
	return page(list, limit, offset), nil
}

func page[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return []T{}
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
