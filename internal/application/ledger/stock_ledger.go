package ledger

import (
	"context"
	"math"
	"time"

	"github.com/jhoicas/pos-ledger/internal/application/ports"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
	"github.com/jhoicas/pos-ledger/pkg/logger"
	"github.com/jhoicas/pos-ledger/pkg/metrics"
)

const notifyTimeout = 5 * time.Second

// MovementInput describe un movimiento a aplicar en piezas canónicas.
type MovementInput struct {
	ProductID     string
	Type          entity.MovementType
	Pieces        int64
	Reason        string
	ReferenceID   string
	ReferenceType entity.ReferenceType
}

// LowStockSignal se emite cuando un movimiento deja el stock en o bajo el nivel de reorden.
type LowStockSignal struct {
	ProductID    string
	StockAfter   int64
	ReorderLevel int64
}

// Effects acumula lo que una transacción produjo y que solo debe publicarse tras el commit.
type Effects struct {
	Movements []entity.StockMovement
	LowStock  []LowStockSignal
}

// StockLedger es el único dueño de Product.StockInPieces: toda variación de stock pasa por aquí
// y queda registrada en el libro de movimientos dentro de la misma transacción.
type StockLedger struct {
	txRunner ports.TxRunner
	notifier ports.LowStockNotifier
	metrics  *metrics.LedgerMetrics
	log      *logger.Logger
	now      func() time.Time
}

// NewStockLedger construye el ledger. notifier y m pueden ser nil.
func NewStockLedger(txRunner ports.TxRunner, notifier ports.LowStockNotifier, m *metrics.LedgerMetrics, log *logger.Logger) *StockLedger {
	if log == nil {
		log = logger.Nop()
	}
	return &StockLedger{
		txRunner: txRunner,
		notifier: notifier,
		metrics:  m,
		log:      log.Component("stock_ledger"),
		now:      time.Now,
	}
}

// ApplyInTx aplica un movimiento usando los repositorios de la transacción del caller:
// bloquea la fila del producto, valida que una salida no deje stock negativo, escribe el
// stock nuevo y el movimiento. Si devuelve error el caller debe hacer rollback.
// effects puede ser nil.
func (l *StockLedger) ApplyInTx(
	ctx context.Context,
	productRepo repository.ProductRepository,
	movRepo repository.StockMovementRepository,
	in MovementInput,
	effects *Effects,
) (*entity.StockMovement, error) {
	if err := validateMovement(in); err != nil {
		return nil, err
	}
	product, err := productRepo.GetForUpdate(ctx, in.ProductID)
	if err != nil {
		return nil, domain.Storage("bloquear producto", err)
	}
	if product == nil {
		return nil, domain.NotFound("producto", in.ProductID)
	}

	before := product.StockInPieces
	var after int64
	switch in.Type {
	case entity.MovementOut:
		if in.Pieces > before {
			return nil, &domain.InsufficientStockError{ProductID: in.ProductID, Available: before, Requested: in.Pieces}
		}
		after = before - in.Pieces
	default:
		if in.Pieces > math.MaxInt64-before {
			return nil, domain.Invalid("la entrada de %d piezas desborda el stock de %s", in.Pieces, in.ProductID)
		}
		after = before + in.Pieces
	}

	if err := productRepo.UpdateStock(ctx, in.ProductID, after); err != nil {
		return nil, domain.Storage("actualizar stock", err)
	}
	mov := &entity.StockMovement{
		ProductID:     in.ProductID,
		Type:          in.Type,
		Quantity:      in.Pieces,
		Reason:        in.Reason,
		ReferenceID:   in.ReferenceID,
		ReferenceType: in.ReferenceType,
		StockBefore:   before,
		StockAfter:    after,
		CreatedAt:     l.now(),
	}
	if err := movRepo.Create(ctx, mov); err != nil {
		return nil, domain.Storage("registrar movimiento", err)
	}

	if effects != nil {
		effects.Movements = append(effects.Movements, *mov)
		if product.IsLowStock(after) {
			effects.LowStock = append(effects.LowStock, LowStockSignal{
				ProductID:    in.ProductID,
				StockAfter:   after,
				ReorderLevel: product.ReorderLevel,
			})
		}
	}
	return mov, nil
}

// ApplyMovement aplica un movimiento en su propia transacción (reposiciones y ajustes manuales).
func (l *StockLedger) ApplyMovement(ctx context.Context, in MovementInput) (*entity.StockMovement, error) {
	var effects Effects
	var mov *entity.StockMovement
	err := l.txRunner.Run(ctx, func(
		_ repository.SaleRepository,
		productRepo repository.ProductRepository,
		movRepo repository.StockMovementRepository,
	) error {
		var err error
		mov, err = l.ApplyInTx(ctx, productRepo, movRepo, in, &effects)
		return err
	})
	if err != nil {
		return nil, domain.Storage("aplicar movimiento", err)
	}
	l.Publish(ctx, effects)
	return mov, nil
}

// Publish registra métricas y dispara las notificaciones de stock bajo de una transacción
// ya confirmada. Las notificaciones corren en segundo plano; su falla solo se registra.
func (l *StockLedger) Publish(ctx context.Context, effects Effects) {
	for _, m := range effects.Movements {
		l.metrics.ObserveMovement(string(m.Type), string(m.ReferenceType), m.Quantity)
	}
	for _, sig := range effects.LowStock {
		l.metrics.IncLowStock()
		l.log.Warn().
			Str("product_id", sig.ProductID).
			Int64("stock_after", sig.StockAfter).
			Int64("reorder_level", sig.ReorderLevel).
			Msg("stock en o bajo nivel de reorden")
		if l.notifier == nil {
			continue
		}
		go l.notify(context.WithoutCancel(ctx), sig)
	}
}

func (l *StockLedger) notify(ctx context.Context, sig LowStockSignal) {
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()
	if err := l.notifier.NotifyLowStock(ctx, sig.ProductID, sig.StockAfter, sig.ReorderLevel); err != nil {
		l.log.Warn().Err(err).Str("product_id", sig.ProductID).Msg("notificación de stock bajo fallida")
	}
}

func validateMovement(in MovementInput) error {
	if in.ProductID == "" {
		return domain.Invalid("product_id requerido")
	}
	if in.Type != entity.MovementIn && in.Type != entity.MovementOut {
		return domain.Invalid("tipo de movimiento %q", in.Type)
	}
	if in.Pieces <= 0 {
		return domain.Invalid("la cantidad en piezas debe ser positiva")
	}
	return nil
}
