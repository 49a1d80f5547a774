package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/jhoicas/pos-ledger/internal/application/ports"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

var _ ports.TxRunner = (*Store)(nil)

// Store almacenamiento en memoria con la misma semántica transaccional que el adaptador
// PostgreSQL: bloqueos por fila tomados durante la transacción y escrituras que solo se
// hacen visibles en el commit. Útil para desarrollo y tests.
type Store struct {
	mu        sync.Mutex
	products  map[string]entity.Product
	sales     map[string]entity.Sale
	items     map[string][]entity.SaleLineItem
	movements []entity.StockMovement
	seq       int64
	rows      map[string]*sync.Mutex
}

// New crea un store vacío.
func New() *Store {
	return &Store{
		products: make(map[string]entity.Product),
		sales:    make(map[string]entity.Sale),
		items:    make(map[string][]entity.SaleLineItem),
		rows:     make(map[string]*sync.Mutex),
	}
}

// Run ejecuta fn con repositorios atados a una transacción; commit si fn no falla.
func (s *Store) Run(ctx context.Context, fn func(
	saleRepo repository.SaleRepository,
	productRepo repository.ProductRepository,
	movRepo repository.StockMovementRepository,
) error) error {
	t := s.begin()
	defer t.release()
	if err := fn(&SaleRepo{s: s, tx: t}, &ProductRepo{s: s, tx: t}, &MovementRepo{s: s, tx: t}); err != nil {
		return err
	}
	t.commit()
	return nil
}

// Sales, Products y Movements devuelven repositorios en modo autocommit.
func (s *Store) Sales() *SaleRepo         { return &SaleRepo{s: s} }
func (s *Store) Products() *ProductRepo   { return &ProductRepo{s: s} }
func (s *Store) Movements() *MovementRepo { return &MovementRepo{s: s} }

func (s *Store) rowLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rows[key]
	if !ok {
		m = &sync.Mutex{}
		s.rows[key] = m
	}
	return m
}

func (s *Store) nextSeq() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

// tx escrituras pendientes y bloqueos de una transacción.
type tx struct {
	s         *Store
	held      map[string]*sync.Mutex
	products  map[string]entity.Product
	sales     map[string]entity.Sale
	items     map[string][]entity.SaleLineItem
	movements []entity.StockMovement
}

func (s *Store) begin() *tx {
	return &tx{
		s:        s,
		held:     make(map[string]*sync.Mutex),
		products: make(map[string]entity.Product),
		sales:    make(map[string]entity.Sale),
		items:    make(map[string][]entity.SaleLineItem),
	}
}

// lock toma el bloqueo de la fila; es reentrante dentro de la misma transacción.
func (t *tx) lock(key string) {
	if _, ok := t.held[key]; ok {
		return
	}
	m := t.s.rowLock(key)
	m.Lock()
	t.held[key] = m
}

func (t *tx) release() {
	for k, m := range t.held {
		m.Unlock()
		delete(t.held, k)
	}
}

func (t *tx) commit() {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range t.products {
		s.products[id] = p
	}
	for id, sale := range t.sales {
		s.sales[id] = sale
	}
	for id, items := range t.items {
		s.items[id] = items
	}
	s.movements = append(s.movements, t.movements...)
	sort.SliceStable(s.movements, func(i, j int) bool { return s.movements[i].Sequence < s.movements[j].Sequence })
}

func (t *tx) product(id string) (entity.Product, bool) {
	if p, ok := t.products[id]; ok {
		return p, true
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	p, ok := t.s.products[id]
	return p, ok
}

func (t *tx) sale(id string) (entity.Sale, bool) {
	if sale, ok := t.sales[id]; ok {
		return sale, true
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	sale, ok := t.s.sales[id]
	return sale, ok
}

func (t *tx) saleItems(saleID string) []entity.SaleLineItem {
	if items, ok := t.items[saleID]; ok {
		return cloneItems(items)
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return cloneItems(t.s.items[saleID])
}

func (t *tx) allMovements() []entity.StockMovement {
	t.s.mu.Lock()
	list := make([]entity.StockMovement, 0, len(t.s.movements)+len(t.movements))
	list = append(list, t.s.movements...)
	t.s.mu.Unlock()
	list = append(list, t.movements...)
	sort.SliceStable(list, func(i, j int) bool { return list[i].Sequence < list[j].Sequence })
	return list
}

// putProduct, putSale, putItems y appendMovement copian los strings antes de guardarlos:
// el caller puede pasar strings respaldados por buffers que se reutilizan (parámetros de fiber).
func (t *tx) putProduct(p entity.Product) {
	p.ID = strings.Clone(p.ID)
	p.SKU = strings.Clone(p.SKU)
	p.Name = strings.Clone(p.Name)
	t.products[p.ID] = p
}

func (t *tx) putSale(sale entity.Sale) {
	sale.ID = strings.Clone(sale.ID)
	sale.EditReason = strings.Clone(sale.EditReason)
	sale.Items = nil
	t.sales[sale.ID] = sale
}

func (t *tx) putItems(saleID string, items []entity.SaleLineItem) {
	stored := make([]entity.SaleLineItem, len(items))
	for i, it := range items {
		it.ID = strings.Clone(it.ID)
		it.SaleID = strings.Clone(it.SaleID)
		it.ProductID = strings.Clone(it.ProductID)
		it.UnitType = entity.UnitType(strings.Clone(string(it.UnitType)))
		stored[i] = it
	}
	t.items[strings.Clone(saleID)] = stored
}

func (t *tx) appendMovement(m entity.StockMovement) {
	m.ID = strings.Clone(m.ID)
	m.ProductID = strings.Clone(m.ProductID)
	m.Type = entity.MovementType(strings.Clone(string(m.Type)))
	m.Reason = strings.Clone(m.Reason)
	m.ReferenceID = strings.Clone(m.ReferenceID)
	m.ReferenceType = entity.ReferenceType(strings.Clone(string(m.ReferenceType)))
	t.movements = append(t.movements, m)
}

func cloneItems(items []entity.SaleLineItem) []entity.SaleLineItem {
	if items == nil {
		return nil
	}
	out := make([]entity.SaleLineItem, len(items))
	copy(out, items)
	return out
}

// autocommit ejecuta fn en una transacción propia cuando el repositorio no está atado a una.
func autocommit(s *Store, t *tx, fn func(t *tx) error) error {
	if t != nil {
		return fn(t)
	}
	own := s.begin()
	defer own.release()
	if err := fn(own); err != nil {
		return err
	}
	own.commit()
	return nil
}
