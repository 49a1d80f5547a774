package sales_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-ledger/internal/application/dto"
	"github.com/jhoicas/pos-ledger/internal/application/ledger"
	"github.com/jhoicas/pos-ledger/internal/application/sales"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/inventory"
	"github.com/jhoicas/pos-ledger/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

type fixture struct {
	store *memory.Store
	uc    *sales.SaleUseCase
	rep   *ledger.ReportUseCase
}

func newFixture(t *testing.T, policy inventory.UnitPolicy) *fixture {
	t.Helper()
	store := memory.New()
	stockLedger := ledger.NewStockLedger(store, nil, nil, nil)
	uc := sales.NewSaleUseCase(store, stockLedger, store.Products(), store.Sales(), store.Movements(), policy, nil, nil)
	return &fixture{
		store: store,
		uc:    uc,
		rep:   ledger.NewReportUseCase(store, store.Products(), store.Movements()),
	}
}

// seedProduct crea un producto con stock, piezas por lámina y láminas por caja.
func (f *fixture) seedProduct(t *testing.T, id string, stock int64, pps, spb int) {
	t.Helper()
	require.NoError(t, f.store.Products().Create(context.Background(), &entity.Product{
		ID:             id,
		SKU:            "SKU-" + id,
		Name:           "Producto " + id,
		StockInPieces:  stock,
		PiecesPerSheet: pps,
		SheetsPerBox:   spb,
	}))
}

func (f *fixture) stock(t *testing.T, id string) int64 {
	t.Helper()
	p, err := f.rep.Stock(context.Background(), id)
	require.NoError(t, err)
	return p.StockInPieces
}

func (f *fixture) movements(t *testing.T, saleID string) []entity.StockMovement {
	t.Helper()
	movs, err := f.uc.Movements(context.Background(), saleID)
	require.NoError(t, err)
	return movs
}

func item(productID string, qty int64, unit string, price int64) dto.SaleItemRequest {
	return dto.SaleItemRequest{ProductID: productID, Quantity: qty, UnitType: unit, UnitPrice: decimal.NewFromInt(price)}
}

func sumPieces(movs []entity.StockMovement, typ entity.MovementType) int64 {
	var total int64
	for _, m := range movs {
		if m.Type == typ {
			total += m.Quantity
		}
	}
	return total
}

// ──────────────────────────────────────────────────────────────────────────────
// Escenario completo: 2 cajas -> completar -> revertir -> editar a 3 cajas -> completar
// ──────────────────────────────────────────────────────────────────────────────

func TestSale_EscenarioCajas(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, inventory.UnitPolicy{})
	f.seedProduct(t, "P", 1000, 10, 5)

	sale, err := f.uc.Create(ctx, []dto.SaleItemRequest{item("P", 2, "box", 100)})
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusPending, sale.Status)
	assert.True(t, decimal.NewFromInt(200).Equal(sale.TotalAmount))
	assert.Equal(t, int64(1000), f.stock(t, "P"), "crear no debe afectar stock")

	completed, err := f.uc.Complete(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusCompleted, completed.Status)
	assert.NotNil(t, completed.CompletedAt)
	assert.Equal(t, int64(900), f.stock(t, "P"))

	movs := f.movements(t, sale.ID)
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementOut, movs[0].Type)
	assert.Equal(t, int64(100), movs[0].Quantity)
	assert.Equal(t, int64(1000), movs[0].StockBefore)
	assert.Equal(t, int64(900), movs[0].StockAfter)
	assert.Equal(t, entity.ReferenceSale, movs[0].ReferenceType)

	undone, err := f.uc.Undo(ctx, sale.ID, "cliente devolvió")
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusCompleted, undone.Status, "undo no cambia el estado")
	assert.True(t, undone.IsEdited)
	assert.NotNil(t, undone.EditedAt)
	assert.Equal(t, "cliente devolvió", undone.EditReason)
	assert.Equal(t, int64(1000), f.stock(t, "P"))

	movs = f.movements(t, sale.ID)
	require.Len(t, movs, 2)
	assert.Equal(t, entity.MovementIn, movs[1].Type)
	assert.Equal(t, int64(100), movs[1].Quantity)
	assert.Equal(t, int64(900), movs[1].StockBefore)
	assert.Equal(t, int64(1000), movs[1].StockAfter)
	assert.Equal(t, entity.ReferenceSaleUndo, movs[1].ReferenceType)

	edited, err := f.uc.Edit(ctx, sale.ID, []dto.SaleItemRequest{item("P", 3, "box", 100)}, "cambio a 3 cajas")
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusPending, edited.Status)
	require.Len(t, edited.Items, 1)
	assert.Equal(t, int64(3), edited.Items[0].Quantity)
	assert.True(t, decimal.NewFromInt(300).Equal(edited.TotalAmount))
	assert.Equal(t, int64(1000), f.stock(t, "P"), "editar una venta ya revertida no vuelve a sumar stock")

	_, err = f.uc.Complete(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(850), f.stock(t, "P"))

	report, err := f.rep.Reconcile(ctx, "P")
	require.NoError(t, err)
	assert.True(t, report.Consistent, "breaks: %+v", report.Breaks)
	assert.Equal(t, 3, report.MovementCount)
	assert.Equal(t, int64(-150), report.NetMovement)
}

// ──────────────────────────────────────────────────────────────────────────────
// Create
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_Validaciones(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, inventory.UnitPolicy{})
	f.seedProduct(t, "P", 10, 1, 1)

	_, err := f.uc.Create(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "venta sin líneas")

	_, err = f.uc.Create(ctx, []dto.SaleItemRequest{item("P", 0, "piece", 1)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "cantidad cero")

	_, err = f.uc.Create(ctx, []dto.SaleItemRequest{item("P", 1, "piece", -5)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "precio negativo")

	_, err = f.uc.Create(ctx, []dto.SaleItemRequest{item("", 1, "piece", 1)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "sin producto")

	_, err = f.uc.Create(ctx, []dto.SaleItemRequest{item("P", 1, "piece", 1), item("NOPE", 1, "piece", 1)})
	assert.ErrorIs(t, err, domain.ErrNotFound, "producto inexistente")

	list, err := f.uc.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list, "ninguna venta inválida debe persistirse")
}

func TestCreate_UnidadDesconocida(t *testing.T) {
	ctx := context.Background()

	lenient := newFixture(t, inventory.UnitPolicy{})
	lenient.seedProduct(t, "P", 100, 10, 5)
	sale, err := lenient.uc.Create(ctx, []dto.SaleItemRequest{item("P", 3, "pallet", 1)})
	require.NoError(t, err)
	assert.Equal(t, entity.UnitPiece, sale.Items[0].UnitType, "modo flexible registra como pieza")
	_, err = lenient.uc.Complete(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(97), lenient.stock(t, "P"))

	strict := newFixture(t, inventory.UnitPolicy{Strict: true})
	strict.seedProduct(t, "P", 100, 10, 5)
	_, err = strict.uc.Create(ctx, []dto.SaleItemRequest{item("P", 3, "pallet", 1)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "modo estricto rechaza la unidad")
}

// ──────────────────────────────────────────────────────────────────────────────
// Complete
// ──────────────────────────────────────────────────────────────────────────────

func TestComplete_DobleCompletacionRechazada(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, inventory.UnitPolicy{})
	f.seedProduct(t, "P", 100, 10, 1)

	sale, err := f.uc.Create(ctx, []dto.SaleItemRequest{item("P", 2, "sheet", 5)})
	require.NoError(t, err)

	_, err = f.uc.Complete(ctx, sale.ID)
	require.NoError(t, err)
	_, err = f.uc.Complete(ctx, sale.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)

	assert.Equal(t, int64(80), f.stock(t, "P"), "stock descontado una sola vez")
	assert.Len(t, f.movements(t, sale.ID), 1)
}

func TestComplete_ConcurrenteSobreMismaVenta(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, inventory.UnitPolicy{})
	f.seedProduct(t, "P", 1000, 10, 5)

	sale, err := f.uc.Create(ctx, []dto.SaleItemRequest{item("P", 2, "box", 100)})
	require.NoError(t, err)

	const callers = 16
	var ok, conflicts atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.Complete(ctx, sale.ID)
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, domain.ErrConflict):
				conflicts.Add(1)
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok.Load(), "exactamente una completación exitosa")
	assert.Equal(t, int32(callers-1), conflicts.Load())
	assert.Equal(t, int64(900), f.stock(t, "P"))
	assert.Equal(t, int64(100), sumPieces(f.movements(t, sale.ID), entity.MovementOut))
}

func TestComplete_StockInsuficienteRevierteTodo(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, inventory.UnitPolicy{})
	f.seedProduct(t, "A", 100, 1, 1)
	f.seedProduct(t, "B", 100, 1, 1)
	f.seedProduct(t, "C", 5, 1, 1)

	sale, err := f.uc.Create(ctx, []dto.SaleItemRequest{
		item("A", 10, "piece", 1),
		item("B", 20, "piece", 1),
		item("C", 6, "piece", 1),
	})
	require.NoError(t, err)

	_, err = f.uc.Complete(ctx, sale.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	var insufficient *domain.InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, "C", insufficient.ProductID)
	assert.Equal(t, int64(5), insufficient.Available)

	assert.Equal(t, int64(100), f.stock(t, "A"), "las líneas previas también se revierten")
	assert.Equal(t, int64(100), f.stock(t, "B"))
	assert.Equal(t, int64(5), f.stock(t, "C"))
	assert.Empty(t, f.movements(t, sale.ID), "no queda ningún movimiento")

	got, err := f.uc.Get(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusPending, got.Status, "el cambio de estado se revierte")
	assert.Nil(t, got.CompletedAt)
}

func TestComplete_VentaInexistente(t *testing.T) {
	f := newFixture(t, inventory.UnitPolicy{})
	_, err := f.uc.Complete(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestComplete_VariasLineasMismoProducto(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, inventory.UnitPolicy{})
	f.seedProduct(t, "P", 500, 10, 5)

	sale, err := f.uc.Create(ctx, []dto.SaleItemRequest{
		item("P", 1, "box", 1),
		item("P", 2, "sheet", 1),
		item("P", 3, "piece", 1),
	})
	require.NoError(t, err)
	_, err = f.uc.Complete(ctx, sale.ID)
	require.NoError(t, err)

	// 50 + 20 + 3 piezas
	assert.Equal(t, int64(427), f.stock(t, "P"))
	movs := f.movements(t, sale.ID)
	assert.Len(t, movs, 3)
	assert.Equal(t, int64(73), sumPieces(movs, entity.MovementOut))
	for i := 1; i < len(movs); i++ {
		assert.Equal(t, movs[i-1].StockAfter, movs[i].StockBefore, "los movimientos encadenan")
	}
}

func TestComplete_ConcurrenteMismoProductoNuncaNegativo(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, inventory.UnitPolicy{})
	f.seedProduct(t, "P", 95, 10, 1)

	const n = 12
	ids := make([]string, n)
	for i := range ids {
		sale, err := f.uc.Create(ctx, []dto.SaleItemRequest{item("P", 1, "sheet", 1)})
		require.NoError(t, err)
		ids[i] = sale.ID
	}

	var ok, insufficient atomic.Int32
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.uc.Complete(ctx, id)
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				insufficient.Add(1)
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, int32(9), ok.Load(), "95 piezas alcanzan para 9 láminas de 10")
	assert.Equal(t, int32(3), insufficient.Load())
	assert.Equal(t, int64(5), f.stock(t, "P"))

	report, err := f.rep.Reconcile(ctx, "P")
	require.NoError(t, err)
	assert.True(t, report.Consistent, "breaks: %+v", report.Breaks)
}

func TestComplete_ProductosDistintosEnParalelo(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, inventory.UnitPolicy{})

	const n = 10
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		pid := fmt.Sprintf("P%02d", i)
		f.seedProduct(t, pid, 100, 1, 1)
		sale, err := f.uc.Create(ctx, []dto.SaleItemRequest{item(pid, 10, "piece", 1)})
		require.NoError(t, err)
		ids[i] = sale.ID
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.uc.Complete(ctx, id)
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		assert.Equal(t, int64(90), f.stock(t, fmt.Sprintf("P%02d", i)))
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Undo
// ──────────────────────────────────────────────────────────────────────────────

func TestUndo_InversoExacto(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, inventory.UnitPolicy{})
	f.seedProduct(t, "A", 300, 12, 4)
	f.seedProduct(t, "B", 80, 1, 1)

	sale, err := f.uc.Create(ctx, []dto.SaleItemRequest{item("A", 2, "box", 1), item("B", 7, "piece", 1)})
	require.NoError(t, err)
	_, err = f.uc.Complete(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(204), f.stock(t, "A"))
	assert.Equal(t, int64(73), f.stock(t, "B"))

	_, err = f.uc.Undo(ctx, sale.ID, "")
	require.NoError(t, err)
	assert.Equal(t, int64(300), f.stock(t, "A"))
	assert.Equal(t, int64(80), f.stock(t, "B"))

	movs := f.movements(t, sale.ID)
	assert.Equal(t, sumPieces(movs, entity.MovementOut), sumPieces(movs, entity.MovementIn), "entradas y salidas se netean")
	got, err := f.uc.Get(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ReasonSaleUndo, got.EditReason, "motivo por defecto")
}

func TestUndo_DosVecesEsConflicto(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, inventory.UnitPolicy{})
	f.seedProduct(t, "P", 50, 1, 1)

	sale, err := f.uc.Create(ctx, []dto.SaleItemRequest{item("P", 5, "piece", 1)})
	require.NoError(t, err)
	_, err = f.uc.Complete(ctx, sale.ID)
	require.NoError(t, err)

	_, err = f.uc.Undo(ctx, sale.ID, "primera")
	require.NoError(t, err)
	_, err = f.uc.Undo(ctx, sale.ID, "segunda")
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, int64(50), f.stock(t, "P"), "la segunda reversión no suma stock")
}

func TestUndo_VentaPendienteEsConflicto(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, inventory.UnitPolicy{})
	f.seedProduct(t, "P", 50, 1, 1)

	sale, err := f.uc.Create(ctx, []dto.SaleItemRequest{item("P", 5, "piece", 1)})
	require.NoError(t, err)
	_, err = f.uc.Undo(ctx, sale.ID, "")
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.uc.Undo(ctx, "no-existe", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUndo_TrasRecompletarRevierteSoloLaUltima(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, inventory.UnitPolicy{})
	f.seedProduct(t, "P", 100, 1, 1)

	sale, err := f.uc.Create(ctx, []dto.SaleItemRequest{item("P", 10, "piece", 1)})
	require.NoError(t, err)
	_, err = f.uc.Complete(ctx, sale.ID)
	require.NoError(t, err)
	_, err = f.uc.Undo(ctx, sale.ID, "")
	require.NoError(t, err)
	_, err = f.uc.Edit(ctx, sale.ID, []dto.SaleItemRequest{item("P", 4, "piece", 1)}, "")
	require.NoError(t, err)
	_, err = f.uc.Complete(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(96), f.stock(t, "P"))

	_, err = f.uc.Undo(ctx, sale.ID, "")
	require.NoError(t, err)
	assert.Equal(t, int64(100), f.stock(t, "P"))
}

// ──────────────────────────────────────────────────────────────────────────────
// Edit
// ──────────────────────────────────────────────────────────────────────────────

func TestEdit_NetaALaDiferencia(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct {
		name string
		a, b []dto.SaleItemRequest
		want int64
	}{
		{"sube", []dto.SaleItemRequest{item("P", 1, "box", 1)}, []dto.SaleItemRequest{item("P", 4, "box", 1)}, 1000 - 200},
		{"baja", []dto.SaleItemRequest{item("P", 10, "box", 1)}, []dto.SaleItemRequest{item("P", 3, "sheet", 1)}, 1000 - 30},
		{"otro producto", []dto.SaleItemRequest{item("P", 2, "box", 1)}, []dto.SaleItemRequest{item("Q", 7, "piece", 1)}, 1000},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, inventory.UnitPolicy{})
			f.seedProduct(t, "P", 1000, 10, 5)
			f.seedProduct(t, "Q", 50, 1, 1)

			sale, err := f.uc.Create(ctx, tc.a)
			require.NoError(t, err)
			_, err = f.uc.Complete(ctx, sale.ID)
			require.NoError(t, err)

			edited, err := f.uc.Edit(ctx, sale.ID, tc.b, "ajuste")
			require.NoError(t, err)
			assert.Equal(t, entity.SaleStatusPending, edited.Status)
			assert.True(t, edited.IsEdited)
			assert.Equal(t, int64(1000), f.stock(t, "P"), "editar revierte sin volver a descontar")

			_, err = f.uc.Complete(ctx, sale.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.want, f.stock(t, "P"))
		})
	}
}

func TestEdit_VentaPendienteSoloReemplazaLineas(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, inventory.UnitPolicy{})
	f.seedProduct(t, "P", 40, 1, 1)

	sale, err := f.uc.Create(ctx, []dto.SaleItemRequest{item("P", 1, "piece", 1), item("P", 2, "piece", 1)})
	require.NoError(t, err)
	edited, err := f.uc.Edit(ctx, sale.ID, []dto.SaleItemRequest{item("P", 9, "piece", 3)}, "")
	require.NoError(t, err)

	require.Len(t, edited.Items, 1, "el conjunto de líneas se reemplaza completo")
	assert.True(t, decimal.NewFromInt(27).Equal(edited.TotalAmount))
	assert.Equal(t, entity.ReasonSaleEdit, edited.EditReason)
	assert.Empty(t, f.movements(t, sale.ID))
	assert.Equal(t, int64(40), f.stock(t, "P"))
}

func TestEdit_LineasInvalidasNoTocanNada(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, inventory.UnitPolicy{})
	f.seedProduct(t, "P", 40, 1, 1)

	sale, err := f.uc.Create(ctx, []dto.SaleItemRequest{item("P", 4, "piece", 1)})
	require.NoError(t, err)
	_, err = f.uc.Complete(ctx, sale.ID)
	require.NoError(t, err)

	_, err = f.uc.Edit(ctx, sale.ID, []dto.SaleItemRequest{item("NOPE", 1, "piece", 1)}, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := f.uc.Get(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusCompleted, got.Status)
	assert.False(t, got.IsEdited)
	assert.Equal(t, int64(36), f.stock(t, "P"))

	_, err = f.uc.Edit(ctx, "no-existe", []dto.SaleItemRequest{item("P", 1, "piece", 1)}, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Invariante global: piezas de las líneas == salidas pendientes de la venta
// ──────────────────────────────────────────────────────────────────────────────

func TestInvariante_PiezasIgualASalidasPendientes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, inventory.UnitPolicy{})
	f.seedProduct(t, "A", 10000, 6, 4)
	f.seedProduct(t, "B", 10000, 25, 2)

	sale, err := f.uc.Create(ctx, []dto.SaleItemRequest{
		item("A", 3, "box", 1), item("B", 2, "sheet", 1), item("A", 5, "piece", 1),
	})
	require.NoError(t, err)
	completed, err := f.uc.Complete(ctx, sale.ID)
	require.NoError(t, err)

	products := map[string]*entity.Product{}
	for _, id := range []string{"A", "B"} {
		p, err := f.rep.Stock(ctx, id)
		require.NoError(t, err)
		products[id] = p
	}
	var want int64
	for _, it := range completed.Items {
		pieces, err := inventory.ToPieces(it.Quantity, it.UnitType, products[it.ProductID])
		require.NoError(t, err)
		want += pieces
	}

	outs := sales.OutstandingOuts(f.movements(t, sale.ID))
	var got int64
	for _, m := range outs {
		got += m.Quantity
	}
	assert.Equal(t, want, got)
}

func TestCreate_CantidadQueDesbordaPiezasSeRechaza(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, inventory.UnitPolicy{})
	f.seedProduct(t, "P", 1000, 10, 5)

	_, err := f.uc.Create(ctx, []dto.SaleItemRequest{item("P", math.MaxInt64/50+1, "box", 1)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// El producto envuelto daría 34 piezas: debe rechazarse, no descontarse.
	_, err = f.uc.Create(ctx, []dto.SaleItemRequest{item("P", 368934881474191033, "box", 1)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	sale, err := f.uc.Create(ctx, []dto.SaleItemRequest{item("P", 2, "box", 1)})
	require.NoError(t, err)
	_, err = f.uc.Edit(ctx, sale.ID, []dto.SaleItemRequest{item("P", 368934881474191033, "box", 1)}, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.Equal(t, int64(1000), f.stock(t, "P"))
	got, err := f.uc.Get(ctx, sale.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, int64(2), got.Items[0].Quantity, "la edición rechazada no toca las líneas")
}

func TestComplete_LineasPersistidasQueDesbordanNoDescuentan(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, inventory.UnitPolicy{})
	f.seedProduct(t, "P", 1000, 10, 5)

	// Línea escrita directo en el almacenamiento, sin pasar por Create.
	require.NoError(t, f.store.Sales().Create(ctx, &entity.Sale{ID: "S", Status: entity.SaleStatusPending}))
	require.NoError(t, f.store.Sales().CreateItems(ctx, []entity.SaleLineItem{{
		SaleID: "S", ProductID: "P", Quantity: 368934881474191033, UnitType: entity.UnitBox,
	}}))

	_, err := f.uc.Complete(ctx, "S")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, int64(1000), f.stock(t, "P"))
	assert.Empty(t, f.movements(t, "S"))

	sale, err := f.uc.Get(ctx, "S")
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusPending, sale.Status, "el cambio de estado se revierte")
}
