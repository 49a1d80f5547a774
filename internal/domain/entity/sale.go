package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleStatus posición de la venta en el flujo. Solo existen pending y completed:
// la reversión se modela con IsEdited y con los movimientos compensatorios.
type SaleStatus string

const (
	SaleStatusPending   SaleStatus = "pending"
	SaleStatusCompleted SaleStatus = "completed"
)

// IsValid indica si el estado pertenece al enum persistido.
func (s SaleStatus) IsValid() bool {
	return s == SaleStatusPending || s == SaleStatusCompleted
}

// UnitType unidad en la que se vendió una línea.
type UnitType string

const (
	UnitPiece UnitType = "piece"
	UnitSheet UnitType = "sheet"
	UnitBox   UnitType = "box"
)

// IsKnown indica si la unidad es una de las soportadas.
func (u UnitType) IsKnown() bool {
	switch u {
	case UnitPiece, UnitSheet, UnitBox:
		return true
	}
	return false
}

// Sale cabecera de una venta del punto de venta.
type Sale struct {
	ID          string
	Status      SaleStatus
	TotalAmount decimal.Decimal
	IsEdited    bool
	EditedAt    *time.Time
	EditReason  string
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Items       []SaleLineItem // se carga bajo demanda
}

// SaleLineItem línea ya valorizada de una venta.
type SaleLineItem struct {
	ID         string
	SaleID     string
	ProductID  string
	Quantity   int64
	UnitType   UnitType
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
	CreatedAt  time.Time
}

// SumTotal suma TotalPrice de las líneas.
func SumTotal(items []SaleLineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.TotalPrice)
	}
	return total
}
