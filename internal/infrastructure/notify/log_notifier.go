package notify

import (
	"context"

	"github.com/jhoicas/pos-ledger/internal/application/ports"
	"github.com/jhoicas/pos-ledger/pkg/logger"
)

var _ ports.LowStockNotifier = (*LogNotifier)(nil)

// LogNotifier solo registra el aviso. Se usa cuando no hay Redis configurado.
type LogNotifier struct {
	log *logger.Logger
}

// NewLogNotifier construye el notificador.
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	if log == nil {
		log = logger.Nop()
	}
	return &LogNotifier{log: log.Component("low_stock")}
}

// NotifyLowStock registra el producto en nivel de reorden.
func (n *LogNotifier) NotifyLowStock(_ context.Context, productID string, stockAfter, reorderLevel int64) error {
	n.log.Warn().
		Str("product_id", productID).
		Int64("stock_after", stockAfter).
		Int64("reorder_level", reorderLevel).
		Msg("reponer producto")
	return nil
}
