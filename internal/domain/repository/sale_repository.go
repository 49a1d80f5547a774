package repository

import (
	"context"
	"time"

	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// SaleRepository define el puerto de persistencia para Sale y sus líneas.
// GetByID y GetForUpdate devuelven (nil, nil) si la venta no existe.
type SaleRepository interface {
	Create(ctx context.Context, sale *entity.Sale) error
	CreateItems(ctx context.Context, items []entity.SaleLineItem) error
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	// GetForUpdate bloquea la fila de la venta; es la compuerta de estado de las transiciones.
	GetForUpdate(ctx context.Context, id string) (*entity.Sale, error)
	GetItems(ctx context.Context, saleID string) ([]entity.SaleLineItem, error)

	// TransitionStatus cambia el estado solo si el actual es from (compare-and-set).
	// Devuelve false si otra transacción ya lo cambió.
	TransitionStatus(ctx context.Context, id string, from, to entity.SaleStatus, at time.Time) (bool, error)
	// MarkEdited levanta la bandera de auditoría is_edited con fecha y motivo.
	MarkEdited(ctx context.Context, id, reason string, at time.Time) error
	// ReplaceItems borra todas las líneas de la venta, inserta items y actualiza total_amount.
	ReplaceItems(ctx context.Context, saleID string, items []entity.SaleLineItem, total decimal.Decimal) error
	List(ctx context.Context, limit, offset int) ([]*entity.Sale, error)
}
