// Package sales coordina la creación y anulación de ventas con sus efectos sobre
// existencias, kardex y contabilidad.
package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/barberia-api/internal/application/accounting"
	"github.com/jhoicas/barberia-api/internal/application/inventory"
	"github.com/jhoicas/barberia-api/internal/domain"
	"github.com/jhoicas/barberia-api/internal/domain/entity"
	"github.com/jhoicas/barberia-api/internal/domain/pricing"
	"github.com/jhoicas/barberia-api/internal/domain/repository"
)

const tracerName = "github.com/jhoicas/barberia-api/internal/application/sales"

// Estados de una venta durante la orquestación. Solo COMPLETED y ANNULLED se persisten.
const (
	StateRequested         = "REQUESTED"
	StateValidating        = "VALIDATING"
	StateStockReserved     = "STOCK_RESERVED"
	StateMovementsRecorded = "MOVEMENTS_RECORDED"
	StateAccountingPosted  = "ACCOUNTING_POSTED"
	StateCompleted         = "COMPLETED"
	StateRejected          = "REJECTED"
	StateRolledBack        = "ROLLED_BACK"
)

// Config parámetros de tasación y reintento.
type Config struct {
	TaxRate    decimal.Decimal // porcentaje por defecto si la venta no trae uno
	Precision  int32
	MaxRetries int // reintentos adicionales ante ErrPersistenceConflict
}

// ItemInput línea pedida.
type ItemInput struct {
	Item     entity.StockItem
	Quantity int64
}

// CreateSaleInput solicitud de venta. Los montos se recalculan siempre en el servidor.
type CreateSaleInput struct {
	BranchID        string
	CustomerID      string
	PaymentMethodID string
	Items           []ItemInput
	Discount        pricing.Discount
	TaxRate         *decimal.Decimal // nil = tasa configurada
	UserID          string
	Date            time.Time
}

// SalePage página de ventas.
type SalePage struct {
	Items  []*entity.Sale
	Total  int
	Limit  int
	Offset int
}

// SaleOrchestrator ejecuta crear y anular venta como una unidad de trabajo todo-o-nada.
type SaleOrchestrator struct {
	txRunner   inventory.TxRunner
	refs       References
	saleRepo   repository.SaleRepository
	accounting *accounting.Recorder
	cfg        Config
	log        zerolog.Logger
	tracer     trace.Tracer
}

// NewSaleOrchestrator construye el orquestador. accountingRec se usa para invalidar resúmenes tras cada commit.
func NewSaleOrchestrator(
	txRunner inventory.TxRunner,
	refs References,
	saleRepo repository.SaleRepository,
	accountingRec *accounting.Recorder,
	cfg Config,
	log zerolog.Logger,
) *SaleOrchestrator {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &SaleOrchestrator{
		txRunner:   txRunner,
		refs:       refs,
		saleRepo:   saleRepo,
		accounting: accountingRec,
		cfg:        cfg,
		log:        log.With().Str("component", "sale_orchestrator").Logger(),
		tracer:     otel.Tracer(tracerName),
	}
}

// CreateSale valida, tasa, descuenta existencias, registra kardex y contabilidad y persiste la venta.
// Cualquier fallo tras la primera reserva deshace las existencias antes de retornar.
func (o *SaleOrchestrator) CreateSale(ctx context.Context, in CreateSaleInput) (*entity.Sale, error) {
	ctx, span := o.tracer.Start(ctx, "sales.CreateSale", trace.WithAttributes(
		attribute.String("branch.id", in.BranchID),
		attribute.Int("sale.lines", len(in.Items)),
	))
	defer span.End()

	var sale *entity.Sale
	err := o.withRetry(ctx, "crear venta", func(ctx context.Context) error {
		s, err := o.createOnce(ctx, in)
		sale = s
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("sale.id", sale.ID), attribute.String("sale.total", sale.Total.String()))
	o.invalidateSummaries(ctx)
	return sale, nil
}

func (o *SaleOrchestrator) createOnce(ctx context.Context, in CreateSaleInput) (*entity.Sale, error) {
	saleID := uuid.New().String()
	log := o.log.With().Str("sale_id", saleID).Str("branch_id", in.BranchID).Logger()
	transition(log, StateRequested)

	transition(log, StateValidating)
	lines, err := o.validate(ctx, in)
	if err != nil {
		reject(log, StateValidating, err)
		return nil, err
	}
	taxRate := o.cfg.TaxRate
	if in.TaxRate != nil {
		taxRate = *in.TaxRate
	}
	totals, err := pricing.Calculate(lines, pricing.Params{
		Discount:  in.Discount,
		TaxRate:   taxRate,
		Precision: o.cfg.Precision,
	})
	if err != nil {
		reject(log, StateValidating, err)
		return nil, err
	}

	sale := buildSale(saleID, in, taxRate, totals)
	err = o.txRunner.Run(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		comp := &compensationStack{}
		if err := o.applySale(ctx, repos, sale, comp, log); err != nil {
			o.compensate(ctx, comp, log, "compensación de existencias incompleta")
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			reject(log, StateStockReserved, err)
		} else {
			log.Error().Err(err).Str("state", StateRolledBack).Msg("venta revertida")
		}
		return nil, err
	}
	transition(log, StateCompleted)
	return sale, nil
}

// validate comprueba referencias y arma las líneas a tasar en el orden pedido.
func (o *SaleOrchestrator) validate(ctx context.Context, in CreateSaleInput) ([]pricing.Line, error) {
	if in.BranchID == "" || in.PaymentMethodID == "" {
		return nil, fmt.Errorf("%w: sucursal y medio de pago son obligatorios", domain.ErrInvalidInput)
	}
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: la venta no tiene líneas", domain.ErrInvalidPricingInput)
	}

	branch, err := o.refs.Branches.GetByID(ctx, in.BranchID)
	if err != nil {
		return nil, err
	}
	if branch == nil {
		return nil, domain.NotFound("sucursal", in.BranchID)
	}
	if !branch.Active {
		return nil, domain.Inactive("sucursal", in.BranchID)
	}

	if in.CustomerID != "" {
		customer, err := o.refs.Customers.GetByID(ctx, in.CustomerID)
		if err != nil {
			return nil, err
		}
		if customer == nil {
			return nil, domain.NotFound("cliente", in.CustomerID)
		}
		if !customer.Active {
			return nil, domain.Inactive("cliente", in.CustomerID)
		}
	}

	pm, err := o.refs.PaymentMethods.GetByID(ctx, in.PaymentMethodID)
	if err != nil {
		return nil, err
	}
	if pm == nil {
		return nil, domain.NotFound("medio de pago", in.PaymentMethodID)
	}
	if !pm.Active {
		return nil, domain.Inactive("medio de pago", in.PaymentMethodID)
	}

	lines := make([]pricing.Line, 0, len(in.Items))
	for _, it := range in.Items {
		if !it.Item.Valid() {
			return nil, fmt.Errorf("%w: ítem %q", domain.ErrInvalidInput, it.Item.String())
		}
		cat, err := o.refs.Catalog.GetItem(ctx, it.Item)
		if err != nil {
			return nil, err
		}
		if cat == nil {
			return nil, domain.NotFound("ítem", it.Item.String())
		}
		if !cat.Active {
			return nil, domain.Inactive("ítem", it.Item.String())
		}
		lines = append(lines, pricing.Line{Item: it.Item, Quantity: it.Quantity, UnitPrice: cat.UnitPrice})
	}
	return lines, nil
}

// applySale ejecuta los pasos con efectos dentro de la transacción. Cada reserva exitosa apila su incremento inverso.
func (o *SaleOrchestrator) applySale(ctx context.Context, repos repository.TxRepositories, sale *entity.Sale, comp *compensationStack, log zerolog.Logger) error {
	ledger := inventory.NewStockLedger(repos.Stock)
	recorder := inventory.NewMovementRecorder(repos.Movements, repos.Stock)

	balances := make([]int64, len(sale.Items))
	stamps := make([]time.Time, len(sale.Items))
	for i, line := range sale.Items {
		item, qty := line.Item, line.Quantity
		balance, err := ledger.ReserveAndDecrement(ctx, item, sale.BranchID, qty)
		if err != nil {
			return err
		}
		// La fecha del movimiento se toma con el saldo aplicado; sale.Date solo fecha la cabecera.
		stamps[i] = time.Now()
		comp.push("reponer "+item.Key(), func(ctx context.Context) error {
			_, err := ledger.Increment(ctx, item, sale.BranchID, qty)
			return err
		})
		balances[i] = balance
	}
	transition(log, StateStockReserved)

	for i, line := range sale.Items {
		_, err := recorder.Record(ctx, inventory.RecordInput{
			Item:         line.Item,
			BranchID:     sale.BranchID,
			Delta:        -line.Quantity,
			Type:         entity.MovementSaleOut,
			OriginRef:    sale.ID,
			BalanceAfter: balances[i],
			UserID:       sale.CreatedBy,
			Date:         stamps[i],
		})
		if err != nil {
			return err
		}
	}
	transition(log, StateMovementsRecorded)

	if _, err := accounting.NewRecorder(repos.Accounting, nil).Post(ctx, accounting.PostInput{
		SaleRef:  sale.ID,
		BranchID: sale.BranchID,
		Amount:   sale.Total,
		Category: entity.AccountingCategorySale,
		Date:     sale.Date,
	}); err != nil {
		return err
	}
	transition(log, StateAccountingPosted)

	return repos.Sales.Create(ctx, sale)
}

// AnnulSale revierte por completo una venta COMPLETED: repone existencias, registra
// SALE_REVERSAL_IN por cada salida, asienta el total en negativo y marca la venta ANNULLED.
func (o *SaleOrchestrator) AnnulSale(ctx context.Context, id, reason string) error {
	ctx, span := o.tracer.Start(ctx, "sales.AnnulSale", trace.WithAttributes(attribute.String("sale.id", id)))
	defer span.End()

	if id == "" {
		return domain.ErrInvalidInput
	}
	err := o.withRetry(ctx, "anular venta", func(ctx context.Context) error {
		return o.annulOnce(ctx, id, reason)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	o.invalidateSummaries(ctx)
	return nil
}

func (o *SaleOrchestrator) annulOnce(ctx context.Context, id, reason string) error {
	log := o.log.With().Str("sale_id", id).Logger()
	return o.txRunner.Run(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		sale, err := repos.Sales.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if sale == nil {
			return domain.NotFound("venta", id)
		}
		if sale.IsAnnulled() {
			log.Info().Str("state", sale.Status).Msg("anulación rechazada: la venta ya está anulada")
			return fmt.Errorf("%w: la venta %s ya está anulada", domain.ErrInvalidState, id)
		}
		log = log.With().Str("branch_id", sale.BranchID).Logger()

		comp := &compensationStack{}
		if err := o.applyAnnulment(ctx, repos, sale, reason, time.Now(), comp); err != nil {
			o.compensate(ctx, comp, log, "compensación de anulación incompleta")
			log.Error().Err(err).Str("state", StateRolledBack).Msg("anulación revertida")
			return err
		}
		log.Debug().Str("state", entity.SaleStatusAnnulled).Msg("venta anulada")
		return nil
	})
}

func (o *SaleOrchestrator) applyAnnulment(ctx context.Context, repos repository.TxRepositories, sale *entity.Sale, reason string, at time.Time, comp *compensationStack) error {
	ledger := inventory.NewStockLedger(repos.Stock)
	recorder := inventory.NewMovementRecorder(repos.Movements, repos.Stock)

	outs, err := repos.Movements.ListByOrigin(ctx, sale.ID, entity.MovementSaleOut)
	if err != nil {
		return err
	}
	if len(outs) == 0 && len(sale.Items) > 0 {
		return fmt.Errorf("%w: la venta %s no tiene salidas de inventario", domain.ErrInvalidState, sale.ID)
	}

	for _, out := range outs {
		item, branchID, qty := out.Item, out.BranchID, -out.Delta
		balance, err := ledger.Increment(ctx, item, branchID, qty)
		if err != nil {
			return err
		}
		comp.push("retirar "+item.Key(), func(ctx context.Context) error {
			_, err := ledger.ReserveAndDecrement(ctx, item, branchID, qty)
			return err
		})
		if _, err := recorder.Record(ctx, inventory.RecordInput{
			Item:         item,
			BranchID:     branchID,
			Delta:        qty,
			Type:         entity.MovementSaleReversalIn,
			OriginRef:    sale.ID,
			BalanceAfter: balance,
			Note:         reason,
			Date:         time.Now(),
		}); err != nil {
			return err
		}
	}

	if _, err := accounting.NewRecorder(repos.Accounting, nil).Post(ctx, accounting.PostInput{
		SaleRef:  sale.ID,
		BranchID: sale.BranchID,
		Amount:   sale.Total.Neg(),
		Category: entity.AccountingCategorySaleReversal,
		Date:     at,
	}); err != nil {
		return err
	}

	ok, err := repos.Sales.MarkAnnulled(ctx, sale.ID, reason, at)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: la venta %s cambió de estado", domain.ErrInvalidState, sale.ID)
	}
	return nil
}

// GetSale devuelve la venta con sus líneas.
func (o *SaleOrchestrator) GetSale(ctx context.Context, id string) (*entity.Sale, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	sale, err := o.saleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, domain.NotFound("venta", id)
	}
	return sale, nil
}

// ListSales lista ventas paginadas, más recientes primero.
func (o *SaleOrchestrator) ListSales(ctx context.Context, limit, offset int) (*SalePage, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	items, total, err := o.saleRepo.ListPaged(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	return &SalePage{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

// ListSalesByBranch ventas de una sucursal.
func (o *SaleOrchestrator) ListSalesByBranch(ctx context.Context, branchID string) ([]*entity.Sale, error) {
	if branchID == "" {
		return nil, domain.ErrInvalidInput
	}
	return o.saleRepo.ListByBranch(ctx, branchID)
}

// ListSalesByDate ventas con fecha en [from, to].
func (o *SaleOrchestrator) ListSalesByDate(ctx context.Context, from, to time.Time) ([]*entity.Sale, error) {
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return nil, fmt.Errorf("%w: rango de fechas", domain.ErrInvalidInput)
	}
	return o.saleRepo.ListByDateRange(ctx, from, to)
}

// compensate deshace las operaciones del ledger ya aplicadas. Si el runner revierte el stock en su
// rollback no hay nada que deshacer.
func (o *SaleOrchestrator) compensate(ctx context.Context, comp *compensationStack, log zerolog.Logger, msg string) {
	if inventory.RollsBackStock(o.txRunner) {
		log.Debug().Int("pending", comp.len()).Msg("el rollback de la transacción revierte las reservas")
		return
	}
	log.Debug().Int("pending", comp.len()).Msg("deshaciendo reservas")
	if err := comp.unwind(ctx); err != nil {
		log.Error().Err(err).Msg(msg)
	}
}

// withRetry repite fn completa solo ante ErrPersistenceConflict.
func (o *SaleOrchestrator) withRetry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt <= o.cfg.MaxRetries; attempt++ {
		err = fn(ctx)
		if err == nil || !errors.Is(err, domain.ErrPersistenceConflict) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
		o.log.Warn().Err(err).Str("op", op).Int("attempt", attempt+1).Msg("conflicto de concurrencia, reintentando")
	}
	return err
}

func (o *SaleOrchestrator) invalidateSummaries(ctx context.Context) {
	if o.accounting == nil {
		return
	}
	if err := o.accounting.Invalidate(ctx); err != nil {
		o.log.Warn().Err(err).Msg("no se pudo invalidar el caché de resúmenes contables")
	}
}

func buildSale(id string, in CreateSaleInput, taxRate decimal.Decimal, totals pricing.Totals) *entity.Sale {
	now := time.Now()
	date := in.Date
	if date.IsZero() {
		date = now
	}
	discountType := in.Discount.Type
	discountValue := in.Discount.Value
	if discountType == "" {
		discountValue = decimal.Zero
	}
	sale := &entity.Sale{
		ID:              id,
		BranchID:        in.BranchID,
		CustomerID:      in.CustomerID,
		PaymentMethodID: in.PaymentMethodID,
		Date:            date,
		Items:           make([]entity.SaleItem, 0, len(totals.Lines)),
		Subtotal:        totals.Subtotal,
		DiscountType:    discountType,
		DiscountValue:   discountValue,
		Discount:        totals.Discount,
		TaxRate:         taxRate,
		Tax:             totals.Tax,
		Total:           totals.Total,
		Status:          entity.SaleStatusCompleted,
		CreatedBy:       in.UserID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for i, l := range totals.Lines {
		sale.Items = append(sale.Items, entity.SaleItem{
			ID:        uuid.New().String(),
			SaleID:    id,
			Line:      i + 1,
			Item:      l.Item,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  l.Subtotal,
		})
	}
	return sale
}

func transition(log zerolog.Logger, state string) {
	log.Debug().Str("state", state).Msg("transición de venta")
}

func reject(log zerolog.Logger, at string, err error) {
	log.Info().Err(err).Str("state", StateRejected).Str("at", at).Msg("venta rechazada")
}
