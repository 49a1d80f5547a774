package sales

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/pos-ledger/internal/application/dto"
	"github.com/jhoicas/pos-ledger/internal/application/ledger"
	"github.com/jhoicas/pos-ledger/internal/application/ports"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/inventory"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
	"github.com/jhoicas/pos-ledger/pkg/logger"
	"github.com/jhoicas/pos-ledger/pkg/metrics"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const productLookupConcurrency = 8

// SaleUseCase máquina de estados de la venta: create -> complete -> {undo, edit}.
// Cada operación que muta corre en una sola transacción: compuerta de estado, movimientos
// de stock y cambios de la venta se confirman juntos o no se confirma nada.
type SaleUseCase struct {
	txRunner    ports.TxRunner
	ledger      LedgerUseCase
	comp        *Compensator
	productRepo repository.ProductRepository
	saleRepo    repository.SaleRepository
	movRepo     repository.StockMovementRepository
	units       inventory.UnitPolicy
	metrics     *metrics.LedgerMetrics
	log         *logger.Logger
	now         func() time.Time
}

// NewSaleUseCase construye el caso de uso. Los repositorios sueltos solo se usan para
// lecturas y validaciones fuera de la transacción.
func NewSaleUseCase(
	txRunner ports.TxRunner,
	ledgerUC LedgerUseCase,
	productRepo repository.ProductRepository,
	saleRepo repository.SaleRepository,
	movRepo repository.StockMovementRepository,
	units inventory.UnitPolicy,
	m *metrics.LedgerMetrics,
	log *logger.Logger,
) *SaleUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &SaleUseCase{
		txRunner:    txRunner,
		ledger:      ledgerUC,
		comp:        NewCompensator(ledgerUC),
		productRepo: productRepo,
		saleRepo:    saleRepo,
		movRepo:     movRepo,
		units:       units,
		metrics:     m,
		log:         log.Component("sales"),
		now:         time.Now,
	}
}

// Create valida las líneas y persiste la venta en pending. No afecta stock.
func (uc *SaleUseCase) Create(ctx context.Context, items []dto.SaleItemRequest) (sale *entity.Sale, err error) {
	defer uc.observe("create", uc.now(), &err)

	lines, err := uc.buildItems(ctx, items)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	sale = &entity.Sale{
		ID:          uuid.New().String(),
		Status:      entity.SaleStatusPending,
		TotalAmount: entity.SumTotal(lines),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for i := range lines {
		lines[i].SaleID = sale.ID
	}

	err = uc.txRunner.Run(ctx, func(
		saleRepo repository.SaleRepository,
		_ repository.ProductRepository,
		_ repository.StockMovementRepository,
	) error {
		if err := saleRepo.Create(ctx, sale); err != nil {
			return domain.Storage("crear venta", err)
		}
		if err := saleRepo.CreateItems(ctx, lines); err != nil {
			return domain.Storage("crear líneas", err)
		}
		return nil
	})
	if err != nil {
		return nil, domain.Storage("crear venta", err)
	}
	sale.Items = lines
	uc.log.Info().Str("sale_id", sale.ID).Int("items", len(lines)).Msg("venta creada")
	return sale, nil
}

// Complete pasa la venta de pending a completed y descuenta el stock de cada línea.
// Si la venta ya no está en pending falla con ErrConflict sin tocar stock. Si alguna línea
// no tiene stock suficiente se revierte todo, incluido el cambio de estado.
func (uc *SaleUseCase) Complete(ctx context.Context, saleID string) (sale *entity.Sale, err error) {
	defer uc.observe("complete", uc.now(), &err)

	var effects ledger.Effects
	err = uc.txRunner.Run(ctx, func(
		saleRepo repository.SaleRepository,
		productRepo repository.ProductRepository,
		movRepo repository.StockMovementRepository,
	) error {
		current, err := uc.lockSale(ctx, saleRepo, saleID)
		if err != nil {
			return err
		}
		if current.Status != entity.SaleStatusPending {
			return domain.Conflict("la venta %s ya está %s", saleID, current.Status)
		}
		now := uc.now()
		ok, err := saleRepo.TransitionStatus(ctx, saleID, entity.SaleStatusPending, entity.SaleStatusCompleted, now)
		if err != nil {
			return domain.Storage("cambiar estado", err)
		}
		if !ok {
			return domain.Conflict("la venta %s fue completada por otra operación", saleID)
		}

		items, err := saleRepo.GetItems(ctx, saleID)
		if err != nil {
			return domain.Storage("leer líneas", err)
		}
		if len(items) == 0 {
			return domain.Invalid("la venta %s no tiene líneas", saleID)
		}
		// Orden por producto: todas las transacciones bloquean filas en el mismo orden.
		sort.SliceStable(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
		for _, item := range items {
			product, err := productRepo.GetForUpdate(ctx, item.ProductID)
			if err != nil {
				return domain.Storage("bloquear producto", err)
			}
			if product == nil {
				return domain.NotFound("producto", item.ProductID)
			}
			pieces, err := inventory.ToPieces(item.Quantity, item.UnitType, product)
			if err != nil {
				return err
			}
			if _, err := uc.ledger.ApplyInTx(ctx, productRepo, movRepo, ledger.MovementInput{
				ProductID:     item.ProductID,
				Type:          entity.MovementOut,
				Pieces:        pieces,
				Reason:        entity.ReasonSale,
				ReferenceID:   saleID,
				ReferenceType: entity.ReferenceSale,
			}, &effects); err != nil {
				return err
			}
		}
		sale, err = uc.loadSale(ctx, saleRepo, saleID)
		return err
	})
	if err != nil {
		return nil, domain.Storage("completar venta", err)
	}
	uc.ledger.Publish(ctx, effects)
	uc.log.Info().Str("sale_id", saleID).Int("movements", len(effects.Movements)).Msg("venta completada")
	return sale, nil
}

// Undo revierte una venta completada registrando entradas compensatorias por cada salida
// pendiente y marca is_edited. El estado sigue en completed: is_edited es la señal de reversión.
func (uc *SaleUseCase) Undo(ctx context.Context, saleID, reason string) (sale *entity.Sale, err error) {
	defer uc.observe("undo", uc.now(), &err)

	var effects ledger.Effects
	err = uc.txRunner.Run(ctx, func(
		saleRepo repository.SaleRepository,
		productRepo repository.ProductRepository,
		movRepo repository.StockMovementRepository,
	) error {
		current, err := uc.lockSale(ctx, saleRepo, saleID)
		if err != nil {
			return err
		}
		if current.Status != entity.SaleStatusCompleted {
			return domain.Conflict("solo se puede revertir una venta completada (estado %s)", current.Status)
		}
		if err := uc.comp.Reverse(ctx, productRepo, movRepo, saleID, reason, &effects); err != nil {
			return err
		}
		if reason == "" {
			reason = entity.ReasonSaleUndo
		}
		if err := saleRepo.MarkEdited(ctx, saleID, reason, uc.now()); err != nil {
			return domain.Storage("marcar edición", err)
		}
		sale, err = uc.loadSale(ctx, saleRepo, saleID)
		return err
	})
	if err != nil {
		return nil, domain.Storage("revertir venta", err)
	}
	uc.ledger.Publish(ctx, effects)
	uc.log.Info().Str("sale_id", saleID).Str("reason", reason).Msg("venta revertida")
	return sale, nil
}

// Edit reemplaza las líneas de la venta. Si está completada y no revertida primero la revierte
// (en la misma transacción); luego deja la venta en pending. Nunca descuenta stock: el caller
// completa la venta editada con una llamada posterior a Complete.
func (uc *SaleUseCase) Edit(ctx context.Context, saleID string, items []dto.SaleItemRequest, reason string) (sale *entity.Sale, err error) {
	defer uc.observe("edit", uc.now(), &err)

	lines, err := uc.buildItems(ctx, items)
	if err != nil {
		return nil, err
	}

	var effects ledger.Effects
	var reversed bool
	err = uc.txRunner.Run(ctx, func(
		saleRepo repository.SaleRepository,
		productRepo repository.ProductRepository,
		movRepo repository.StockMovementRepository,
	) error {
		current, err := uc.lockSale(ctx, saleRepo, saleID)
		if err != nil {
			return err
		}
		if current.Status == entity.SaleStatusCompleted {
			pending, err := uc.comp.HasOutstanding(ctx, movRepo, saleID)
			if err != nil {
				return err
			}
			if pending {
				undoReason := reason
				if undoReason == "" {
					undoReason = entity.ReasonSaleEdit
				}
				if err := uc.comp.Reverse(ctx, productRepo, movRepo, saleID, undoReason, &effects); err != nil {
					return err
				}
				reversed = true
			}
		}
		if err := uc.comp.Rewrite(ctx, saleRepo, current, lines, reason, uc.now()); err != nil {
			return err
		}
		sale, err = uc.loadSale(ctx, saleRepo, saleID)
		return err
	})
	if err != nil {
		return nil, domain.Storage("editar venta", err)
	}
	uc.ledger.Publish(ctx, effects)
	uc.log.Info().Str("sale_id", saleID).Bool("reversed", reversed).Int("items", len(lines)).Msg("venta editada")
	return sale, nil
}

// Get devuelve la venta con sus líneas.
func (uc *SaleUseCase) Get(ctx context.Context, saleID string) (*entity.Sale, error) {
	return uc.loadSale(ctx, uc.saleRepo, saleID)
}

// Movements devuelve el rastro de movimientos atribuidos a la venta.
func (uc *SaleUseCase) Movements(ctx context.Context, saleID string) ([]entity.StockMovement, error) {
	if _, err := uc.Get(ctx, saleID); err != nil {
		return nil, err
	}
	movs, err := uc.movRepo.ListByReference(ctx, saleID)
	if err != nil {
		return nil, domain.Storage("listar movimientos", err)
	}
	return movs, nil
}

// List lista ventas paginadas (sin líneas).
func (uc *SaleUseCase) List(ctx context.Context, limit, offset int) ([]*entity.Sale, error) {
	list, err := uc.saleRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, domain.Storage("listar ventas", err)
	}
	return list, nil
}

func (uc *SaleUseCase) lockSale(ctx context.Context, saleRepo repository.SaleRepository, saleID string) (*entity.Sale, error) {
	sale, err := saleRepo.GetForUpdate(ctx, saleID)
	if err != nil {
		return nil, domain.Storage("bloquear venta", err)
	}
	if sale == nil {
		return nil, domain.NotFound("venta", saleID)
	}
	return sale, nil
}

func (uc *SaleUseCase) loadSale(ctx context.Context, saleRepo repository.SaleRepository, saleID string) (*entity.Sale, error) {
	sale, err := saleRepo.GetByID(ctx, saleID)
	if err != nil {
		return nil, domain.Storage("leer venta", err)
	}
	if sale == nil {
		return nil, domain.NotFound("venta", saleID)
	}
	items, err := saleRepo.GetItems(ctx, saleID)
	if err != nil {
		return nil, domain.Storage("leer líneas", err)
	}
	sale.Items = items
	return sale, nil
}

// buildItems valida las líneas, normaliza la unidad según la política y verifica que los
// productos existan (consultas concurrentes, fuera de la transacción).
func (uc *SaleUseCase) buildItems(ctx context.Context, items []dto.SaleItemRequest) ([]entity.SaleLineItem, error) {
	if len(items) == 0 {
		return nil, domain.Invalid("la venta requiere al menos una línea")
	}
	now := uc.now()
	lines := make([]entity.SaleLineItem, len(items))
	productIDs := make(map[string]struct{}, len(items))
	for i, it := range items {
		if it.ProductID == "" {
			return nil, domain.Invalid("línea %d: product_id requerido", i+1)
		}
		if it.Quantity <= 0 {
			return nil, domain.Invalid("línea %d: la cantidad debe ser mayor a cero", i+1)
		}
		if it.UnitPrice.IsNegative() {
			return nil, domain.Invalid("línea %d: precio unitario negativo", i+1)
		}
		unit, fellBack, err := uc.units.Normalize(it.UnitType)
		if err != nil {
			return nil, err
		}
		if fellBack {
			uc.log.Warn().Str("unit_type", it.UnitType).Str("product_id", it.ProductID).Msg("unidad desconocida, se registra como pieza")
		}
		lines[i] = entity.SaleLineItem{
			ID:         uuid.New().String(),
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			UnitType:   unit,
			UnitPrice:  it.UnitPrice,
			TotalPrice: it.UnitPrice.Mul(decimal.NewFromInt(it.Quantity)),
			CreatedAt:  now,
		}
		productIDs[it.ProductID] = struct{}{}
	}

	var mu sync.Mutex
	products := make(map[string]*entity.Product, len(productIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(productLookupConcurrency)
	for id := range productIDs {
		g.Go(func() error {
			p, err := uc.productRepo.GetByID(gctx, id)
			if err != nil {
				return domain.Storage("leer producto", err)
			}
			if p == nil {
				return domain.NotFound("producto", id)
			}
			mu.Lock()
			products[id] = p
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// La cantidad en piezas debe ser representable; se rechaza aquí para que Complete nunca la vea desbordada.
	for i, line := range lines {
		if _, err := inventory.ToPieces(line.Quantity, line.UnitType, products[line.ProductID]); err != nil {
			return nil, fmt.Errorf("línea %d: %w", i+1, err)
		}
	}
	return lines, nil
}

func (uc *SaleUseCase) observe(op string, start time.Time, err *error) {
	uc.metrics.ObserveOperation(op, *err, uc.now().Sub(start))
	if *err != nil {
		uc.log.Warn().Err(*err).Str("op", op).Msg("operación de venta rechazada")
	}
}
