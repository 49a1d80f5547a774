package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un SKU del catálogo vendido por pieza, lámina o caja.
// El catálogo es dueño del registro; el ledger solo escribe StockInPieces.
type Product struct {
	ID             string
	SKU            string
	Name           string
	Price          decimal.Decimal // precio de referencia (el ledger no calcula precios)
	StockInPieces  int64           // stock canónico en piezas, nunca negativo
	PiecesPerSheet int             // piezas por lámina (0 se interpreta como 1)
	SheetsPerBox   int             // láminas por caja (0 se interpreta como 1)
	ReorderLevel   int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PiecesPerBox devuelve cuántas piezas contiene una caja.
func (p *Product) PiecesPerBox() int64 {
	return int64(ratio(p.PiecesPerSheet)) * int64(ratio(p.SheetsPerBox))
}

// IsLowStock indica si el stock dado está en o por debajo del nivel de reorden.
func (p *Product) IsLowStock(stock int64) bool {
	return stock <= p.ReorderLevel
}

func ratio(v int) int {
	if v < 1 {
		return 1
	}
	return v
}
