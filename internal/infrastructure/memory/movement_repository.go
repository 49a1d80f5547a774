package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*MovementRepo)(nil)

// MovementRepo libro de movimientos en memoria (solo inserción).
type MovementRepo struct {
	s  *Store
	tx *tx
}

// Create inserta el movimiento asignando ID, Sequence y CreatedAt.
func (r *MovementRepo) Create(_ context.Context, movement *entity.StockMovement) error {
	if !movement.IsConsistent() {
		return domain.Invalid("movimiento inconsistente: %d -> %d", movement.StockBefore, movement.StockAfter)
	}
	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}
	if movement.CreatedAt.IsZero() {
		movement.CreatedAt = time.Now()
	}
	movement.Sequence = r.s.nextSeq()
	return autocommit(r.s, r.tx, func(t *tx) error {
		t.appendMovement(*movement)
		return nil
	})
}

// ListByReference movimientos atribuidos a referenceID en orden de Sequence.
func (r *MovementRepo) ListByReference(_ context.Context, referenceID string) ([]entity.StockMovement, error) {
	var out []entity.StockMovement
	_ = autocommit(r.s, r.tx, func(t *tx) error {
		for _, m := range t.allMovements() {
			if m.ReferenceID == referenceID {
				out = append(out, m)
			}
		}
		return nil
	})
	return out, nil
}

// ListByProduct movimientos de un producto en orden de Sequence.
func (r *MovementRepo) ListByProduct(_ context.Context, productID string, limit, offset int) ([]entity.StockMovement, error) {
	var out []entity.StockMovement
	_ = autocommit(r.s, r.tx, func(t *tx) error {
		for _, m := range t.allMovements() {
			if m.ProductID == productID {
				out = append(out, m)
			}
		}
		return nil
	})
	return page(out, limit, offset), nil
}
