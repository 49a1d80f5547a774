package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jhoicas/pos-ledger/internal/application/dto"
	"github.com/jhoicas/pos-ledger/internal/application/ledger"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/inventory"
	"github.com/jhoicas/pos-ledger/pkg/logger"
)

// ProductHandler stock, historial y reposición de productos (protegido).
type ProductHandler struct {
	ledger *ledger.StockLedger
	report *ledger.ReportUseCase
	units  inventory.UnitPolicy
	log    *logger.Logger
}

// NewProductHandler construye el handler. log puede ser nil.
func NewProductHandler(l *ledger.StockLedger, report *ledger.ReportUseCase, units inventory.UnitPolicy, log *logger.Logger) *ProductHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ProductHandler{ledger: l, report: report, units: units, log: log.Component("products_http")}
}

// Stock godoc
// @Summary      Stock actual en piezas
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.StockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/stock [get]
func (h *ProductHandler) Stock(c *fiber.Ctx) error {
	p, err := h.report.Stock(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toStockResponse(p))
}

// Movements godoc
// @Summary      Historial de movimientos del producto
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "ID del producto"
// @Param        limit   query  int     false  "Límite"  default(50)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200     {array}   dto.MovementResponse
// @Failure      404     {object}  dto.ErrorResponse
// @Router       /api/products/{id}/movements [get]
func (h *ProductHandler) Movements(c *fiber.Ctx) error {
	page := pageFromQuery(c)
	movs, err := h.report.ProductMovements(c.UserContext(), c.Params("id"), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toMovementList(movs))
}

// Reconcile godoc
// @Summary      Conciliar stock contra el libro de movimientos
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.ReconcileResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/reconcile [get]
func (h *ProductHandler) Reconcile(c *fiber.Ctx) error {
	report, err := h.report.Reconcile(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toReconcileResponse(report))
}

// Restock godoc
// @Summary      Reponer stock (entrada manual)
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string              true  "ID del producto"
// @Param        body  body  dto.RestockRequest  true  "Cantidad y unidad"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/products/{id}/restock [post]
func (h *ProductHandler) Restock(c *fiber.Ctx) error {
	var in dto.RestockRequest
	if ok, err := bindJSON(c, &in, false); !ok {
		return err
	}
	ctx := c.UserContext()
	product, err := h.report.Stock(ctx, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	unit, fellBack, err := h.units.Normalize(in.UnitType)
	if err != nil {
		return writeError(c, err)
	}
	if fellBack {
		h.log.Warn().Str("unit_type", in.UnitType).Str("product_id", product.ID).Msg("unidad desconocida, se registra como pieza")
	}
	pieces, err := inventory.ToPieces(in.Quantity, unit, product)
	if err != nil {
		return writeError(c, err)
	}
	reason := in.Reason
	if reason == "" {
		reason = entity.ReasonRestock
	}
	mov, err := h.ledger.ApplyMovement(ctx, ledger.MovementInput{
		ProductID:     product.ID,
		Type:          entity.MovementIn,
		Pieces:        pieces,
		Reason:        reason,
		ReferenceID:   uuid.New().String(),
		ReferenceType: entity.ReferenceManual,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(*mov))
}
