package repository

import (
	"context"

	"github.com/jhoicas/pos-ledger/internal/domain/entity"
)

// StockMovementRepository define el puerto del libro de movimientos (solo inserción).
type StockMovementRepository interface {
	// Create inserta el movimiento y completa ID, Sequence y CreatedAt.
	Create(ctx context.Context, movement *entity.StockMovement) error
	// ListByReference devuelve los movimientos atribuidos a una referencia en orden de Sequence.
	ListByReference(ctx context.Context, referenceID string) ([]entity.StockMovement, error)
	// ListByProduct devuelve los movimientos de un producto en orden de Sequence. limit <= 0 = todos.
	ListByProduct(ctx context.Context, productID string, limit, offset int) ([]entity.StockMovement, error)
}
