package sales

import (
	"context"

	"github.com/jhoicas/pos-ledger/internal/application/ledger"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

// LedgerUseCase contrato del StockLedger que usan las ventas.
// ApplyInTx corre en la transacción del caller; si retorna error (ej: ErrInsufficientStock)
// el caller debe hacer rollback. Publish se llama solo después del commit.
type LedgerUseCase interface {
	ApplyInTx(
		ctx context.Context,
		productRepo repository.ProductRepository,
		movRepo repository.StockMovementRepository,
		in ledger.MovementInput,
		effects *ledger.Effects,
	) (*entity.StockMovement, error)
	Publish(ctx context.Context, effects ledger.Effects)
}
