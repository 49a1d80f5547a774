package http

import (
	"github.com/jhoicas/pos-ledger/internal/application/dto"
	"github.com/jhoicas/pos-ledger/internal/application/ledger"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
)

func toSaleTransition(s *entity.Sale) dto.SaleTransitionResponse {
	return dto.SaleTransitionResponse{TransactionID: s.ID, Status: string(s.Status), IsEdited: s.IsEdited}
}

func toSaleResponse(s *entity.Sale) dto.SaleResponse {
	out := dto.SaleResponse{
		ID:          s.ID,
		Status:      string(s.Status),
		TotalAmount: s.TotalAmount,
		IsEdited:    s.IsEdited,
		EditedAt:    s.EditedAt,
		EditReason:  s.EditReason,
		CompletedAt: s.CompletedAt,
		CreatedAt:   s.CreatedAt,
		Items:       make([]dto.SaleItemResponse, 0, len(s.Items)),
	}
	for _, it := range s.Items {
		out.Items = append(out.Items, dto.SaleItemResponse{
			ID:         it.ID,
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			UnitType:   string(it.UnitType),
			UnitPrice:  it.UnitPrice,
			TotalPrice: it.TotalPrice,
		})
	}
	return out
}

func toMovementResponse(m entity.StockMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:            m.ID,
		Sequence:      m.Sequence,
		ProductID:     m.ProductID,
		MovementType:  string(m.Type),
		Quantity:      m.Quantity,
		Reason:        m.Reason,
		ReferenceID:   m.ReferenceID,
		ReferenceType: string(m.ReferenceType),
		StockBefore:   m.StockBefore,
		StockAfter:    m.StockAfter,
		CreatedAt:     m.CreatedAt,
	}
}

func toMovementList(movs []entity.StockMovement) []dto.MovementResponse {
	out := make([]dto.MovementResponse, 0, len(movs))
	for _, m := range movs {
		out = append(out, toMovementResponse(m))
	}
	return out
}

func toStockResponse(p *entity.Product) dto.StockResponse {
	return dto.StockResponse{
		ProductID:      p.ID,
		SKU:            p.SKU,
		Name:           p.Name,
		StockInPieces:  p.StockInPieces,
		PiecesPerSheet: p.PiecesPerSheet,
		SheetsPerBox:   p.SheetsPerBox,
		ReorderLevel:   p.ReorderLevel,
		LowStock:       p.IsLowStock(p.StockInPieces),
	}
}

func toReconcileResponse(r *ledger.ReconcileReport) dto.ReconcileResponse {
	out := dto.ReconcileResponse{
		ProductID:     r.ProductID,
		CurrentStock:  r.CurrentStock,
		MovementCount: r.MovementCount,
		NetMovement:   r.NetMovement,
		Consistent:    r.Consistent,
		Breaks:        make([]dto.ReconcileBreakDTO, 0, len(r.Breaks)),
	}
	for _, b := range r.Breaks {
		out.Breaks = append(out.Breaks, dto.ReconcileBreakDTO{Sequence: b.Sequence, Detail: b.Detail})
	}
	return out
}
