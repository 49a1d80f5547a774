package dto

import "time"

// RestockRequest body para POST /api/products/:id/restock.
type RestockRequest struct {
	Quantity int64  `json:"quantity" validate:"gt=0"`
	UnitType string `json:"unit_type"`
	Reason   string `json:"reason" validate:"max=500"`
}

// StockResponse stock actual de un producto.
type StockResponse struct {
	ProductID      string `json:"product_id"`
	SKU            string `json:"sku"`
	Name           string `json:"name"`
	StockInPieces  int64  `json:"stock_in_pieces"`
	PiecesPerSheet int    `json:"pieces_per_sheet"`
	SheetsPerBox   int    `json:"sheets_per_box"`
	ReorderLevel   int64  `json:"reorder_level"`
	LowStock       bool   `json:"low_stock"`
}

// MovementResponse entrada del libro de movimientos.
type MovementResponse struct {
	ID            string    `json:"id"`
	Sequence      int64     `json:"sequence"`
	ProductID     string    `json:"product_id"`
	MovementType  string    `json:"movement_type"`
	Quantity      int64     `json:"quantity"`
	Reason        string    `json:"reason"`
	ReferenceID   string    `json:"reference_id"`
	ReferenceType string    `json:"reference_type"`
	StockBefore   int64     `json:"stock_before"`
	StockAfter    int64     `json:"stock_after"`
	CreatedAt     time.Time `json:"created_at"`
}

// ReconcileBreakDTO punto de la cadena que no cuadra.
type ReconcileBreakDTO struct {
	Sequence int64  `json:"sequence"`
	Detail   string `json:"detail"`
}

// ReconcileResponse resultado de conciliar stock contra movimientos.
type ReconcileResponse struct {
	ProductID     string              `json:"product_id"`
	CurrentStock  int64               `json:"current_stock"`
	MovementCount int                 `json:"movement_count"`
	NetMovement   int64               `json:"net_movement"`
	Consistent    bool                `json:"consistent"`
	Breaks        []ReconcileBreakDTO `json:"breaks"`
}
