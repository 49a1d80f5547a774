package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jhoicas/pos-ledger/internal/application/ledger"
	"github.com/jhoicas/pos-ledger/internal/application/sales"
	"github.com/jhoicas/pos-ledger/internal/domain/inventory"
	"github.com/jhoicas/pos-ledger/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Roles con permiso de reponer y conciliar stock.
var stockRoles = []string{"admin", "bodeguero"}

// RouterDeps dependencias para el router.
type RouterDeps struct {
	SaleUC      *sales.SaleUseCase
	StockLedger *ledger.StockLedger
	ReportUC    *ledger.ReportUseCase
	Units       inventory.UnitPolicy
	JWTSecret   string
	JWTIssuer   string
	Log         *logger.Logger
	// Gatherer expone /metrics; nil = sin endpoint.
	Gatherer prometheus.Gatherer
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// Rutas protegidas (requieren Bearer Token)
	protected := app.Group("/api", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))

	salesGroup := protected.Group("/sales")
	salesHandler := NewSalesHandler(deps.SaleUC)
	salesGroup.Post("/", salesHandler.Create)
	salesGroup.Get("/", salesHandler.List)
	salesGroup.Get("/:id", salesHandler.GetByID)
	salesGroup.Put("/:id", salesHandler.Edit)
	salesGroup.Post("/:id/complete", salesHandler.Complete)
	salesGroup.Post("/:id/undo", salesHandler.Undo)
	salesGroup.Get("/:id/movements", salesHandler.Movements)

	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.StockLedger, deps.ReportUC, deps.Units, deps.Log)
	products.Get("/:id/stock", productHandler.Stock)
	products.Get("/:id/movements", productHandler.Movements)
	products.Get("/:id/reconcile", RequireRole(stockRoles...), productHandler.Reconcile)
	products.Post("/:id/restock", RequireRole(stockRoles...), productHandler.Restock)
}
