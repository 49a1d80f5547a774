package inventory

import (
	"math"

	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
)

// ToPieces convierte (cantidad, unidad) a piezas canónicas con los factores del producto
// (servicio de dominio, sin efectos).
//
//	piece: q
//	sheet: q * PiecesPerSheet
//	box:   q * PiecesPerSheet * SheetsPerBox
//
// Factores menores a 1 valen 1. Una unidad desconocida o vacía se trata como pieza;
// la validación de la unidad corresponde a UnitPolicy en el borde de entrada.
// Devuelve ErrInvalidInput si la cantidad es negativa o si el resultado no cabe en int64.
func ToPieces(quantity int64, unit entity.UnitType, p *entity.Product) (int64, error) {
	if quantity < 0 {
		return 0, domain.Invalid("cantidad negativa %d", quantity)
	}
	pps, spb := int64(1), int64(1)
	if p != nil {
		if p.PiecesPerSheet > 1 {
			pps = int64(p.PiecesPerSheet)
		}
		if p.SheetsPerBox > 1 {
			spb = int64(p.SheetsPerBox)
		}
	}
	factor := int64(1)
	switch unit {
	case entity.UnitSheet:
		factor = pps
	case entity.UnitBox:
		if spb > math.MaxInt64/pps {
			return 0, domain.Invalid("factores de empaque %d x %d fuera de rango", pps, spb)
		}
		factor = pps * spb
	}
	if quantity > math.MaxInt64/factor {
		return 0, domain.Invalid("%d %s excede el máximo representable en piezas", quantity, unit)
	}
	return quantity * factor, nil
}

// UnitPolicy decide qué hacer con una unidad no reconocida al crear o editar una venta.
type UnitPolicy struct {
	// Strict rechaza unidades desconocidas con ErrInvalidInput; si es false se normalizan a pieza.
	Strict bool
}

// Normalize devuelve la unidad a persistir. fellBack es true cuando una unidad
// desconocida se reemplazó por pieza (el caller debe registrarlo).
func (p UnitPolicy) Normalize(raw string) (unit entity.UnitType, fellBack bool, err error) {
	if raw == "" {
		return entity.UnitPiece, false, nil
	}
	u := entity.UnitType(raw)
	if u.IsKnown() {
		return u, false, nil
	}
	if p.Strict {
		return "", false, domain.Invalid("unidad %q no soportada", raw)
	}
	return entity.UnitPiece, true, nil
}
