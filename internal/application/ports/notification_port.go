package ports

import "context"

// LowStockNotifier puerto de salida hacia el servicio de notificaciones.
// Es best-effort: el ledger nunca revierte un movimiento porque falle.
type LowStockNotifier interface {
	NotifyLowStock(ctx context.Context, productID string, stockAfter, reorderLevel int64) error
}
