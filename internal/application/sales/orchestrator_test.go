package sales_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/barberia-api/internal/application/accounting"
	"github.com/jhoicas/barberia-api/internal/application/inventory"
	"github.com/jhoicas/barberia-api/internal/application/sales"
	"github.com/jhoicas/barberia-api/internal/domain"
	"github.com/jhoicas/barberia-api/internal/domain/entity"
	"github.com/jhoicas/barberia-api/internal/domain/pricing"
	"github.com/jhoicas/barberia-api/internal/domain/repository"
	"github.com/jhoicas/barberia-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixture: sucursal B1, medio de pago M1, producto P1 (25.000) y P2 (10.000).
// ──────────────────────────────────────────────────────────────────────────────

var (
	p1 = entity.NewStockItem(entity.StockItemProduct, "P1")
	p2 = entity.NewStockItem(entity.StockItemProduct, "P2")
)

type fixture struct {
	store *memory.Store
	orch  *sales.SaleOrchestrator
	refs  sales.References
}

func newFixture(t *testing.T, runner func(*memory.Store) inventory.TxRunner) *fixture {
	t.Helper()
	s := memory.New()
	s.AddBranch(entity.Branch{ID: "B1", Name: "Centro", Active: true})
	s.AddCustomer(entity.Customer{ID: "C1", Name: "Juan Pérez", Active: true})
	s.AddPaymentMethod(entity.PaymentMethod{ID: "M1", Name: "Efectivo", Active: true})
	for id, p := range map[entity.StockItem]int64{p1: 25000, p2: 10000} {
		price := decimal.NewFromInt(p)
		s.AddCatalogItem(entity.CatalogItem{Item: id, Name: id.ID, Active: true, UnitPrice: &price})
	}

	var tx inventory.TxRunner = s
	if runner != nil {
		tx = runner(s)
	}
	refs := sales.References{Branches: s.Branches(), Customers: s.Customers(), PaymentMethods: s.PaymentMethods(), Catalog: s.Catalog()}
	orch := sales.NewSaleOrchestrator(tx, refs, s.Sales(), accounting.NewRecorder(s.Accounting(), nil),
		sales.Config{TaxRate: decimal.NewFromInt(19), Precision: 2, MaxRetries: 2}, zerolog.Nop())
	return &fixture{store: s, orch: orch, refs: refs}
}

func (f *fixture) stock(t *testing.T, item entity.StockItem, qty int64) {
	t.Helper()
	cost := decimal.NewFromInt(1000)
	uc := inventory.NewRegisterMovementUseCase(f.store, f.store.Catalog(), f.store.Branches())
	_, err := uc.RegisterMovement(context.Background(), inventory.MovementInput{
		UserID: "u1", BranchID: "B1", Item: item, Type: entity.MovementPurchaseIn,
		Quantity: qty, UnitCost: &cost, PurchaseID: "OC-1",
	})
	require.NoError(t, err)
}

func (f *fixture) balance(t *testing.T, item entity.StockItem) int64 {
	t.Helper()
	b, err := inventory.NewStockLedger(f.store.Stock()).CurrentBalance(context.Background(), item, "B1")
	require.NoError(t, err)
	return b
}

func (f *fixture) movements(t *testing.T, item entity.StockItem) []*entity.InventoryMovement {
	t.Helper()
	list, err := f.store.Movements().ListByItem(context.Background(), item, "B1")
	require.NoError(t, err)
	return list
}

func (f *fixture) entries(t *testing.T, saleID string) []*entity.AccountingEntry {
	t.Helper()
	list, err := f.store.Accounting().ListByOrigin(context.Background(), saleID)
	require.NoError(t, err)
	return list
}

func (f *fixture) requireConsistent(t *testing.T, item entity.StockItem) {
	t.Helper()
	res, err := inventory.NewMovementRecorder(f.store.Movements(), f.store.Stock()).Reconcile(context.Background(), item, "B1")
	require.NoError(t, err)
	require.True(t, res.Consistent, "kardex %d vs ledger %d en %d movimientos", res.ReplayedTotal, res.LedgerBalance, res.Movements)
}

func (f *fixture) consistent(t *testing.T, item entity.StockItem) {
	t.Helper()
	res, err := inventory.NewMovementRecorder(f.store.Movements(), f.store.Stock()).Reconcile(context.Background(), item, "B1")
	require.NoError(t, err)
	assert.True(t, res.Consistent, "kardex %d vs ledger %d", res.ReplayedTotal, res.LedgerBalance)
}

func saleOf(lines ...sales.ItemInput) sales.CreateSaleInput {
	return sales.CreateSaleInput{BranchID: "B1", PaymentMethodID: "M1", Items: lines, UserID: "u1"}
}

func qty(item entity.StockItem, n int64) sales.ItemInput {
	return sales.ItemInput{Item: item, Quantity: n}
}

// ── Ciclo completo ──────────────────────────────────────────────────────────

func TestCreateSale_VentaAnulacionYRechazo(t *testing.T) {
	f := newFixture(t, nil)
	f.stock(t, p1, 5)
	ctx := context.Background()

	sale, err := f.orch.CreateSale(ctx, saleOf(qty(p1, 3)))
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusCompleted, sale.Status)
	assert.True(t, sale.Total.Equal(decimal.NewFromInt(89250)), "total = %s", sale.Total)
	assert.Equal(t, int64(2), f.balance(t, p1))

	outs, err := f.store.Movements().ListByOrigin(ctx, sale.ID, entity.MovementSaleOut)
	require.NoError(t, err)
	require.Len(t, outs, 1)
	assert.Equal(t, int64(-3), outs[0].Delta)
	assert.Equal(t, int64(2), outs[0].BalanceAfter)

	entries := f.entries(t, sale.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, entity.AccountingCategorySale, entries[0].Category)
	assert.True(t, entries[0].Amount.Equal(sale.Total))

	// Segunda venta sin existencias suficientes.
	_, err = f.orch.CreateSale(ctx, saleOf(qty(p1, 5)))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, p1, stockErr.Item)
	assert.Equal(t, int64(2), f.balance(t, p1))
	assert.Len(t, f.movements(t, p1), 2, "compra + una salida")
	page, err := f.orch.ListSales(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	// Anulación de la primera venta.
	require.NoError(t, f.orch.AnnulSale(ctx, sale.ID, "cliente desistió"))
	assert.Equal(t, int64(5), f.balance(t, p1))

	reversals, err := f.store.Movements().ListByOrigin(ctx, sale.ID, entity.MovementSaleReversalIn)
	require.NoError(t, err)
	require.Len(t, reversals, 1)
	assert.Equal(t, int64(3), reversals[0].Delta)
	assert.Equal(t, "cliente desistió", reversals[0].Note)

	entries = f.entries(t, sale.ID)
	require.Len(t, entries, 2)
	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.Amount)
	}
	assert.True(t, sum.IsZero(), "la venta anulada neta en cero")

	got, err := f.orch.GetSale(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusAnnulled, got.Status)
	assert.Equal(t, "cliente desistió", got.AnnulReason)
	require.NotNil(t, got.AnnulledAt)

	f.consistent(t, p1)
}

func TestAnnulSale_DobleAnulacionSinEfectos(t *testing.T) {
	f := newFixture(t, nil)
	f.stock(t, p1, 5)
	ctx := context.Background()

	sale, err := f.orch.CreateSale(ctx, saleOf(qty(p1, 2)))
	require.NoError(t, err)
	require.NoError(t, f.orch.AnnulSale(ctx, sale.ID, "error"))

	err = f.orch.AnnulSale(ctx, sale.ID, "otra vez")
	require.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Equal(t, int64(5), f.balance(t, p1))
	assert.Len(t, f.entries(t, sale.ID), 2)
	assert.Len(t, f.movements(t, p1), 3)
}

func TestAnnulSale_VentaInexistente(t *testing.T) {
	f := newFixture(t, nil)
	err := f.orch.AnnulSale(context.Background(), "no-existe", "x")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = f.orch.AnnulSale(context.Background(), "", "x")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ── Validaciones ────────────────────────────────────────────────────────────

func TestCreateSale_Validaciones(t *testing.T) {
	f := newFixture(t, nil)
	f.stock(t, p1, 5)
	f.store.AddCustomer(entity.Customer{ID: "C2", Name: "Inactivo", Active: false})
	noPrice := entity.NewStockItem(entity.StockItemSupply, "S1")
	f.store.AddCatalogItem(entity.CatalogItem{Item: noPrice, Name: "Insumo", Active: true})

	cases := []struct {
		name string
		in   sales.CreateSaleInput
		want error
	}{
		{"sin líneas", saleOf(), domain.ErrInvalidPricingInput},
		{"cantidad cero", saleOf(qty(p1, 0)), domain.ErrInvalidPricingInput},
		{"sin precio vigente", saleOf(qty(noPrice, 1)), domain.ErrInvalidPricingInput},
		{"sucursal inexistente", sales.CreateSaleInput{BranchID: "B9", PaymentMethodID: "M1", Items: []sales.ItemInput{qty(p1, 1)}}, domain.ErrNotFound},
		{"medio de pago inexistente", sales.CreateSaleInput{BranchID: "B1", PaymentMethodID: "M9", Items: []sales.ItemInput{qty(p1, 1)}}, domain.ErrNotFound},
		{"cliente inactivo", sales.CreateSaleInput{BranchID: "B1", CustomerID: "C2", PaymentMethodID: "M1", Items: []sales.ItemInput{qty(p1, 1)}}, domain.ErrInactiveEntity},
		{"ítem inexistente", saleOf(qty(entity.NewStockItem(entity.StockItemVariant, "V9"), 1)), domain.ErrNotFound},
		{"ítem sin tipo", saleOf(qty(entity.StockItem{ID: "P1"}, 1)), domain.ErrInvalidInput},
		{"sin medio de pago", sales.CreateSaleInput{BranchID: "B1", Items: []sales.ItemInput{qty(p1, 1)}}, domain.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.orch.CreateSale(context.Background(), tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Equal(t, int64(5), f.balance(t, p1), "ninguna validación toca existencias")
}

func TestCreateSale_ItemInactivo(t *testing.T) {
	f := newFixture(t, nil)
	f.stock(t, p1, 5)
	f.store.SetActive("item", p1.Key(), false)

	_, err := f.orch.CreateSale(context.Background(), saleOf(qty(p1, 1)))
	assert.ErrorIs(t, err, domain.ErrInactiveEntity)
}

func TestCreateSale_DescuentoYTasaPorVenta(t *testing.T) {
	f := newFixture(t, nil)
	f.stock(t, p1, 5)
	zero := decimal.Zero

	in := saleOf(qty(p1, 2))
	in.Discount = pricing.Discount{Type: entity.DiscountFlat, Value: decimal.NewFromInt(5000)}
	in.TaxRate = &zero
	sale, err := f.orch.CreateSale(context.Background(), in)
	require.NoError(t, err)

	assert.True(t, sale.Subtotal.Equal(decimal.NewFromInt(50000)))
	assert.True(t, sale.Discount.Equal(decimal.NewFromInt(5000)))
	assert.True(t, sale.Tax.IsZero())
	assert.True(t, sale.Total.Equal(decimal.NewFromInt(45000)))
	assert.Equal(t, entity.DiscountFlat, sale.DiscountType)
	require.Len(t, sale.Items, 1)
	assert.Equal(t, 1, sale.Items[0].Line)
}

// ── Atomicidad ──────────────────────────────────────────────────────────────

func TestCreateSale_LineaSinStockRevierteLasAnteriores(t *testing.T) {
	f := newFixture(t, nil)
	f.stock(t, p1, 5)
	f.stock(t, p2, 1)

	_, err := f.orch.CreateSale(context.Background(), saleOf(qty(p1, 2), qty(p2, 4)))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, int64(5), f.balance(t, p1))
	assert.Equal(t, int64(1), f.balance(t, p2))
	assert.Len(t, f.movements(t, p1), 1)
	f.consistent(t, p1)
}

// wrapRunner sustituye repositorios de la unidad de trabajo para inyectar fallos.
type wrapRunner struct {
	inner inventory.TxRunner
	wrap  func(repository.TxRepositories) repository.TxRepositories
}

func (w wrapRunner) Run(ctx context.Context, fn func(ctx context.Context, repos repository.TxRepositories) error) error {
	return w.inner.Run(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		return fn(ctx, w.wrap(repos))
	})
}

// rollbackRunner se declara transaccional: su rollback repone existencias por sí mismo.
type rollbackRunner struct{ wrapRunner }

func (rollbackRunner) RollsBackStock() bool { return true }

type failingAccounting struct {
	repository.AccountingEntryRepository
	err error
}

func (f failingAccounting) Create(context.Context, *entity.AccountingEntry) error { return f.err }

type failingMovements struct {
	repository.InventoryMovementRepository
	err error
}

func (f failingMovements) Create(context.Context, *entity.InventoryMovement) error { return f.err }

type flakySales struct {
	repository.SaleRepository
	failures *int64
	calls    *int64
}

func (f flakySales) Create(ctx context.Context, s *entity.Sale) error {
	atomic.AddInt64(f.calls, 1)
	if atomic.AddInt64(f.failures, -1) >= 0 {
		return fmt.Errorf("insertar venta: %w", domain.ErrPersistenceConflict)
	}
	return f.SaleRepository.Create(ctx, s)
}

func TestCreateSale_FalloContableNoDejaEfectos(t *testing.T) {
	boom := errors.New("contabilidad caída")
	f := newFixture(t, func(s *memory.Store) inventory.TxRunner {
		return wrapRunner{inner: s, wrap: func(r repository.TxRepositories) repository.TxRepositories {
			r.Accounting = failingAccounting{r.Accounting, boom}
			return r
		}}
	})
	f.stock(t, p1, 5)
	f.stock(t, p2, 5)

	_, err := f.orch.CreateSale(context.Background(), saleOf(qty(p1, 2), qty(p2, 3)))
	require.ErrorIs(t, err, boom)

	assert.Equal(t, int64(5), f.balance(t, p1))
	assert.Equal(t, int64(5), f.balance(t, p2))
	assert.Len(t, f.movements(t, p1), 1)
	assert.Len(t, f.movements(t, p2), 1)
	page, err := f.orch.ListSales(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	f.consistent(t, p1)
	f.consistent(t, p2)
}

func TestCreateSale_FalloDeKardexNoDejaEfectos(t *testing.T) {
	boom := errors.New("kardex caído")
	f := newFixture(t, func(s *memory.Store) inventory.TxRunner {
		return wrapRunner{inner: s, wrap: func(r repository.TxRepositories) repository.TxRepositories {
			r.Movements = failingMovements{r.Movements, boom}
			return r
		}}
	})
	f.stock(t, p1, 5)

	_, err := f.orch.CreateSale(context.Background(), saleOf(qty(p1, 2)))
	require.ErrorIs(t, err, boom)
	assert.Equal(t, int64(5), f.balance(t, p1))
}

func TestCreateSale_RunnerTransaccionalNoAplicaCompensacion(t *testing.T) {
	boom := errors.New("fallo de base")
	f := newFixture(t, func(s *memory.Store) inventory.TxRunner {
		return rollbackRunner{wrapRunner{inner: s, wrap: func(r repository.TxRepositories) repository.TxRepositories {
			r.Accounting = failingAccounting{r.Accounting, boom}
			return r
		}}}
	})
	f.stock(t, p1, 5)

	_, err := f.orch.CreateSale(context.Background(), saleOf(qty(p1, 2)))
	require.ErrorIs(t, err, boom)
	// El store en memoria no revierte stock: el saldo descontado prueba que no se compensó.
	assert.Equal(t, int64(3), f.balance(t, p1))
	assert.Len(t, f.movements(t, p1), 1)
}

func TestAnnulSale_FalloContableMantieneLaVenta(t *testing.T) {
	var fail atomic.Bool
	boom := errors.New("contabilidad caída")
	f := newFixture(t, func(s *memory.Store) inventory.TxRunner {
		return wrapRunner{inner: s, wrap: func(r repository.TxRepositories) repository.TxRepositories {
			if fail.Load() {
				r.Accounting = failingAccounting{r.Accounting, boom}
			}
			return r
		}}
	})
	f.stock(t, p1, 5)
	sale, err := f.orch.CreateSale(context.Background(), saleOf(qty(p1, 3)))
	require.NoError(t, err)

	fail.Store(true)
	err = f.orch.AnnulSale(context.Background(), sale.ID, "x")
	require.ErrorIs(t, err, boom)

	assert.Equal(t, int64(2), f.balance(t, p1))
	got, err := f.orch.GetSale(context.Background(), sale.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusCompleted, got.Status)
	assert.Len(t, f.entries(t, sale.ID), 1)
	f.consistent(t, p1)
}

// ── Reintentos ──────────────────────────────────────────────────────────────

func TestCreateSale_ReintentaAnteConflictoDePersistencia(t *testing.T) {
	failures, calls := int64(1), int64(0)
	f := newFixture(t, func(s *memory.Store) inventory.TxRunner {
		return wrapRunner{inner: s, wrap: func(r repository.TxRepositories) repository.TxRepositories {
			r.Sales = flakySales{SaleRepository: r.Sales, failures: &failures, calls: &calls}
			return r
		}}
	})
	f.stock(t, p1, 5)

	sale, err := f.orch.CreateSale(context.Background(), saleOf(qty(p1, 2)))
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls)
	assert.Equal(t, int64(3), f.balance(t, p1))
	assert.Len(t, f.entries(t, sale.ID), 1)
	f.consistent(t, p1)
}

func TestCreateSale_AgotaReintentos(t *testing.T) {
	failures, calls := int64(100), int64(0)
	f := newFixture(t, func(s *memory.Store) inventory.TxRunner {
		return wrapRunner{inner: s, wrap: func(r repository.TxRepositories) repository.TxRepositories {
			r.Sales = flakySales{SaleRepository: r.Sales, failures: &failures, calls: &calls}
			return r
		}}
	})
	f.stock(t, p1, 5)

	_, err := f.orch.CreateSale(context.Background(), saleOf(qty(p1, 2)))
	require.ErrorIs(t, err, domain.ErrPersistenceConflict)
	assert.Equal(t, int64(3), calls, "un intento más MaxRetries reintentos")
	assert.Equal(t, int64(5), f.balance(t, p1))
}

func TestCreateSale_NoReintentaOtrosErrores(t *testing.T) {
	var calls int64
	f := newFixture(t, func(s *memory.Store) inventory.TxRunner {
		return wrapRunner{inner: s, wrap: func(r repository.TxRepositories) repository.TxRepositories {
			atomic.AddInt64(&calls, 1)
			return r
		}}
	})
	f.stock(t, p1, 1)

	_, err := f.orch.CreateSale(context.Background(), saleOf(qty(p1, 2)))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(1), calls)
}

// ── Concurrencia ────────────────────────────────────────────────────────────

func TestCreateSale_ConcurrenciaNoVendeMasDeLoDisponible(t *testing.T) {
	const (
		rounds    = 20
		available = 50
		buyers    = 100
	)
	for round := 0; round < rounds; round++ {
		f := newFixture(t, nil)
		f.stock(t, p1, available)

		var ok, rejected int64
		var wg sync.WaitGroup
		for i := 0; i < buyers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.orch.CreateSale(context.Background(), saleOf(qty(p1, 1)))
				switch {
				case err == nil:
					atomic.AddInt64(&ok, 1)
				case errors.Is(err, domain.ErrInsufficientStock):
					atomic.AddInt64(&rejected, 1)
				default:
					t.Errorf("error inesperado: %v", err)
				}
			}()
		}
		wg.Wait()

		require.Equal(t, int64(available), ok, "ronda %d", round)
		require.Equal(t, int64(buyers-available), rejected, "ronda %d", round)
		require.Zero(t, f.balance(t, p1))

		movs := f.movements(t, p1)
		require.Len(t, movs, available+1)
		for i, m := range movs {
			require.Equal(t, int64(available-i), m.BalanceAfter, "ronda %d, movimiento %d", round, i)
		}
		f.requireConsistent(t, p1)
	}
}

func TestAnnulSale_ConcurrenteConVentasMantieneKardex(t *testing.T) {
	f := newFixture(t, nil)
	f.stock(t, p1, 40)
	ctx := context.Background()

	var sold []string
	for i := 0; i < 20; i++ {
		sale, err := f.orch.CreateSale(ctx, saleOf(qty(p1, 1)))
		require.NoError(t, err)
		sold = append(sold, sale.ID)
	}

	var wg sync.WaitGroup
	for _, id := range sold {
		wg.Add(2)
		go func(id string) {
			defer wg.Done()
			assert.NoError(t, f.orch.AnnulSale(ctx, id, "devolución"))
		}(id)
		go func() {
			defer wg.Done()
			_, err := f.orch.CreateSale(ctx, saleOf(qty(p1, 2)))
			if err != nil && !errors.Is(err, domain.ErrInsufficientStock) {
				t.Errorf("error inesperado: %v", err)
			}
		}()
	}
	wg.Wait()

	f.requireConsistent(t, p1)
}

// ── Consultas ───────────────────────────────────────────────────────────────

func TestListSales_PaginaYFiltra(t *testing.T) {
	f := newFixture(t, nil)
	f.stock(t, p1, 10)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := f.orch.CreateSale(ctx, saleOf(qty(p1, 1)))
		require.NoError(t, err)
	}

	page, err := f.orch.ListSales(ctx, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Items, 2)

	page, err = f.orch.ListSales(ctx, 0, -5)
	require.NoError(t, err)
	assert.Equal(t, 20, page.Limit)
	assert.Zero(t, page.Offset)

	byBranch, err := f.orch.ListSalesByBranch(ctx, "B1")
	require.NoError(t, err)
	assert.Len(t, byBranch, 3)

	_, err = f.orch.ListSalesByBranch(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	first := page.Items[len(page.Items)-1]
	byDate, err := f.orch.ListSalesByDate(ctx, first.Date.Add(-1), first.Date.Add(1))
	require.NoError(t, err)
	assert.NotEmpty(t, byDate)

	_, err = f.orch.ListSalesByDate(ctx, first.Date, first.Date.Add(-1))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.orch.GetSale(ctx, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
