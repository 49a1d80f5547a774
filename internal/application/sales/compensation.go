package sales

import (
	"context"
	"time"

	"github.com/jhoicas/pos-ledger/internal/application/ledger"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

// Compensator aplica las operaciones inversas de una venta (reversión y reescritura de líneas).
// No guarda estado; trabaja siempre con los repositorios de la transacción del caller.
type Compensator struct {
	ledger LedgerUseCase
}

// NewCompensator construye el motor de compensación.
func NewCompensator(l LedgerUseCase) *Compensator {
	return &Compensator{ledger: l}
}

// OutstandingOuts devuelve las salidas de la última completación que aún no tienen reversión:
// las salidas de tipo sale posteriores al último movimiento sale_undo. movs debe venir en
// orden de Sequence.
func OutstandingOuts(movs []entity.StockMovement) []entity.StockMovement {
	start := 0
	for i, m := range movs {
		if m.ReferenceType == entity.ReferenceSaleUndo {
			start = i + 1
		}
	}
	var outs []entity.StockMovement
	for _, m := range movs[start:] {
		if m.ReferenceType == entity.ReferenceSale && m.Type == entity.MovementOut {
			outs = append(outs, m)
		}
	}
	return outs
}

// HasOutstanding indica si la venta tiene salidas sin revertir.
func (c *Compensator) HasOutstanding(ctx context.Context, movRepo repository.StockMovementRepository, saleID string) (bool, error) {
	movs, err := movRepo.ListByReference(ctx, saleID)
	if err != nil {
		return false, domain.Storage("listar movimientos de la venta", err)
	}
	return len(OutstandingOuts(movs)) > 0, nil
}

// Reverse registra una entrada de igual magnitud por cada salida pendiente de la venta.
// Falla con ErrConflict si no hay nada que revertir (venta ya revertida).
func (c *Compensator) Reverse(
	ctx context.Context,
	productRepo repository.ProductRepository,
	movRepo repository.StockMovementRepository,
	saleID, reason string,
	effects *ledger.Effects,
) error {
	movs, err := movRepo.ListByReference(ctx, saleID)
	if err != nil {
		return domain.Storage("listar movimientos de la venta", err)
	}
	outs := OutstandingOuts(movs)
	if len(outs) == 0 {
		return domain.Conflict("la venta %s no tiene salidas pendientes de revertir", saleID)
	}
	if reason == "" {
		reason = entity.ReasonSaleUndo
	}
	for _, out := range outs {
		if _, err := c.ledger.ApplyInTx(ctx, productRepo, movRepo, ledger.MovementInput{
			ProductID:     out.ProductID,
			Type:          entity.MovementIn,
			Pieces:        out.Quantity,
			Reason:        reason,
			ReferenceID:   saleID,
			ReferenceType: entity.ReferenceSaleUndo,
		}, effects); err != nil {
			return err
		}
	}
	return nil
}

// Rewrite reemplaza el conjunto de líneas de la venta, la devuelve a pending y marca la edición.
// No toca stock: la nueva completación es una llamada posterior a Complete.
func (c *Compensator) Rewrite(
	ctx context.Context,
	saleRepo repository.SaleRepository,
	sale *entity.Sale,
	items []entity.SaleLineItem,
	reason string,
	at time.Time,
) error {
	for i := range items {
		items[i].SaleID = sale.ID
	}
	if err := saleRepo.ReplaceItems(ctx, sale.ID, items, entity.SumTotal(items)); err != nil {
		return domain.Storage("reemplazar líneas", err)
	}
	if sale.Status != entity.SaleStatusPending {
		ok, err := saleRepo.TransitionStatus(ctx, sale.ID, sale.Status, entity.SaleStatusPending, at)
		if err != nil {
			return domain.Storage("cambiar estado", err)
		}
		if !ok {
			return domain.Conflict("la venta %s cambió de estado durante la edición", sale.ID)
		}
	}
	if reason == "" {
		reason = entity.ReasonSaleEdit
	}
	if err := saleRepo.MarkEdited(ctx, sale.ID, reason, at); err != nil {
		return domain.Storage("marcar edición", err)
	}
	return nil
}
