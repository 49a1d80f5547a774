package ledger

import (
	"context"
	"fmt"

	"github.com/jhoicas/pos-ledger/internal/application/ports"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

// ReportUseCase lecturas del ledger (stock actual, historial, conciliación).
// Stock y ProductMovements no bloquean filas. Reconcile toma el bloqueo del producto
// para que stock y movimientos salgan de la misma foto.
type ReportUseCase struct {
	txRunner    ports.TxRunner
	productRepo repository.ProductRepository
	movRepo     repository.StockMovementRepository
}

// NewReportUseCase construye el caso de uso de lectura.
func NewReportUseCase(txRunner ports.TxRunner, productRepo repository.ProductRepository, movRepo repository.StockMovementRepository) *ReportUseCase {
	return &ReportUseCase{txRunner: txRunner, productRepo: productRepo, movRepo: movRepo}
}

// Stock devuelve el producto con su stock actual en piezas.
func (uc *ReportUseCase) Stock(ctx context.Context, productID string) (*entity.Product, error) {
	p, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, domain.Storage("leer producto", err)
	}
	if p == nil {
		return nil, domain.NotFound("producto", productID)
	}
	return p, nil
}

// ProductMovements lista el historial de movimientos de un producto.
func (uc *ReportUseCase) ProductMovements(ctx context.Context, productID string, limit, offset int) ([]entity.StockMovement, error) {
	if _, err := uc.Stock(ctx, productID); err != nil {
		return nil, err
	}
	list, err := uc.movRepo.ListByProduct(ctx, productID, limit, offset)
	if err != nil {
		return nil, domain.Storage("listar movimientos", err)
	}
	return list, nil
}

// ReconcileBreak punto donde la cadena de movimientos no cuadra.
type ReconcileBreak struct {
	Sequence int64
	Detail   string
}

// ReconcileReport resultado de conciliar el libro contra el stock actual.
type ReconcileReport struct {
	ProductID     string
	CurrentStock  int64
	MovementCount int
	NetMovement   int64 // suma con signo de todos los movimientos
	Consistent    bool
	Breaks        []ReconcileBreak
}

// Reconcile recorre los movimientos en orden y verifica que cada uno sea aritméticamente
// consistente, que encadene con el anterior y que el último stock_after sea el stock actual.
// Producto y movimientos se leen en una transacción con la fila del producto bloqueada:
// toda escritura de stock toma ese mismo bloqueo, así que ninguna se confirma entre ambas lecturas.
func (uc *ReportUseCase) Reconcile(ctx context.Context, productID string) (*ReconcileReport, error) {
	var p *entity.Product
	var movs []entity.StockMovement
	err := uc.txRunner.Run(ctx, func(
		_ repository.SaleRepository,
		productRepo repository.ProductRepository,
		movRepo repository.StockMovementRepository,
	) error {
		var err error
		p, err = productRepo.GetForUpdate(ctx, productID)
		if err != nil {
			return domain.Storage("bloquear producto", err)
		}
		if p == nil {
			return domain.NotFound("producto", productID)
		}
		movs, err = movRepo.ListByProduct(ctx, productID, 0, 0)
		if err != nil {
			return domain.Storage("listar movimientos", err)
		}
		return nil
	})
	if err != nil {
		return nil, domain.Storage("conciliar", err)
	}

	report := &ReconcileReport{
		ProductID:     productID,
		CurrentStock:  p.StockInPieces,
		MovementCount: len(movs),
	}
	for i := range movs {
		m := &movs[i]
		report.NetMovement += m.Signed()
		if !m.IsConsistent() {
			report.Breaks = append(report.Breaks, ReconcileBreak{
				Sequence: m.Sequence,
				Detail:   fmt.Sprintf("%s %d: %d -> %d no cuadra", m.Type, m.Quantity, m.StockBefore, m.StockAfter),
			})
		}
		if i > 0 && m.StockBefore != movs[i-1].StockAfter {
			report.Breaks = append(report.Breaks, ReconcileBreak{
				Sequence: m.Sequence,
				Detail:   fmt.Sprintf("stock_before %d no continúa stock_after %d", m.StockBefore, movs[i-1].StockAfter),
			})
		}
	}
	if n := len(movs); n > 0 && movs[n-1].StockAfter != p.StockInPieces {
		report.Breaks = append(report.Breaks, ReconcileBreak{
			Sequence: movs[n-1].Sequence,
			Detail:   fmt.Sprintf("último stock_after %d distinto del stock actual %d", movs[n-1].StockAfter, p.StockInPieces),
		})
	}
	report.Consistent = len(report.Breaks) == 0
	return report, nil
}
