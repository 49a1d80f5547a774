package entity

import "time"

// Tipos de movimiento de inventario.
type MovementType string

const (
	MovementIn  MovementType = "in"  // entrada
	MovementOut MovementType = "out" // salida
)

// Tipos de referencia de un movimiento (a qué documento se atribuye).
type ReferenceType string

const (
	ReferenceSale     ReferenceType = "sale"
	ReferenceSaleUndo ReferenceType = "sale_undo"
	ReferenceManual   ReferenceType = "manual" // reposición o ajuste fuera de una venta
)

// Motivos estándar registrados en StockMovement.Reason.
const (
	ReasonSale     = "venta"
	ReasonSaleUndo = "reversión de venta"
	ReasonSaleEdit = "edición de venta"
	ReasonRestock  = "reposición"
)

// StockMovement entrada inmutable del libro de movimientos.
// Quantity siempre es positiva; la dirección la da Type.
type StockMovement struct {
	ID            string
	Sequence      int64 // orden total de inserción, asignado por el almacenamiento
	ProductID     string
	Type          MovementType
	Quantity      int64
	Reason        string
	ReferenceID   string
	ReferenceType ReferenceType
	StockBefore   int64
	StockAfter    int64
	CreatedAt     time.Time
}

// Signed devuelve la cantidad con signo (+ entrada, - salida).
func (m *StockMovement) Signed() int64 {
	if m.Type == MovementOut {
		return -m.Quantity
	}
	return m.Quantity
}

// IsConsistent verifica stock_after = stock_before ± quantity.
func (m *StockMovement) IsConsistent() bool {
	return m.Quantity > 0 && m.StockAfter == m.StockBefore+m.Signed()
}
