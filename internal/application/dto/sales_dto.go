package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleItemRequest línea ya valorizada recibida del punto de venta.
type SaleItemRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  int64           `json:"quantity" validate:"gt=0"`
	UnitType  string          `json:"unit_type"` // piece | sheet | box; vacío = piece
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreateSaleRequest body para POST /api/sales.
type CreateSaleRequest struct {
	Items []SaleItemRequest `json:"items" validate:"required,min=1,dive"`
}

// UndoSaleRequest body para POST /api/sales/:id/undo.
type UndoSaleRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// EditSaleRequest body para PUT /api/sales/:id.
type EditSaleRequest struct {
	Items  []SaleItemRequest `json:"items" validate:"required,min=1,dive"`
	Reason string            `json:"reason" validate:"max=500"`
}

// SaleTransitionResponse respuesta de create/complete/undo/edit.
type SaleTransitionResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	IsEdited      bool   `json:"is_edited"`
}

// SaleItemResponse línea de venta.
type SaleItemResponse struct {
	ID         string          `json:"id"`
	ProductID  string          `json:"product_id"`
	Quantity   int64           `json:"quantity"`
	UnitType   string          `json:"unit_type"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// SaleResponse venta con sus líneas.
type SaleResponse struct {
	ID          string             `json:"id"`
	Status      string             `json:"status"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
	IsEdited    bool               `json:"is_edited"`
	EditedAt    *time.Time         `json:"edited_at,omitempty"`
	EditReason  string             `json:"edit_reason,omitempty"`
	CompletedAt *time.Time         `json:"completed_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	Items       []SaleItemResponse `json:"items"`
}
