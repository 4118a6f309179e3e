package http

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/barberia-api/internal/application/dto"
	"github.com/jhoicas/barberia-api/internal/application/inventory"
	"github.com/jhoicas/barberia-api/internal/domain"
	"github.com/jhoicas/barberia-api/internal/domain/entity"
	"github.com/jhoicas/barberia-api/internal/domain/repository"
)

// InventoryHandler maneja las peticiones HTTP de movimientos e inventario (protegido).
type InventoryHandler struct {
	uc       *inventory.RegisterMovementUseCase
	ledger   *inventory.StockLedger
	recorder *inventory.MovementRecorder
	validate *validator.Validate
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(
	uc *inventory.RegisterMovementUseCase,
	ledger *inventory.StockLedger,
	recorder *inventory.MovementRecorder,
	validate *validator.Validate,
) *InventoryHandler {
	return &InventoryHandler{uc: uc, ledger: ledger, recorder: recorder, validate: validate}
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de inventario
// @Description  Entradas por compra (recalcula costo promedio) y ajustes manuales.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterMovementRequest  true  "branch_id, item_kind, item_id, type, quantity, unit_cost (compras)"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return writeError(c, domain.ErrUnauthorized)
	}
	var req dto.RegisterMovementRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationError(c, err)
	}
	if !CanAccessBranch(c, req.BranchID) {
		return writeError(c, domain.ErrForbidden)
	}
	mov, err := h.uc.RegisterMovement(c.UserContext(), inventory.MovementInput{
		UserID:     userID,
		BranchID:   req.BranchID,
		Item:       entity.NewStockItem(entity.StockItemKind(req.ItemKind), req.ItemID),
		Type:       entity.MovementType(req.Type),
		Quantity:   req.Quantity,
		UnitCost:   req.UnitCost,
		PurchaseID: req.PurchaseID,
		Note:       req.Note,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewMovementResponse(mov))
}

// Balance godoc
// @Summary      Saldo actual de un ítem en una sucursal
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        branch_id  query  string  true  "sucursal"
// @Param        item_kind  query  string  true  "PRODUCT, VARIANT o SUPPLY"
// @Param        item_id    query  string  true  "ítem"
// @Success      200  {object}  dto.BalanceResponse
// @Router       /api/inventory/balance [get]
func (h *InventoryHandler) Balance(c *fiber.Ctx) error {
	q, err := h.stockQuery(c)
	if err != nil {
		return validationError(c, err)
	}
	item := entity.NewStockItem(entity.StockItemKind(q.ItemKind), q.ItemID)
	qty, err := h.ledger.CurrentBalance(c.UserContext(), item, q.BranchID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.BalanceResponse{ItemKind: q.ItemKind, ItemID: q.ItemID, BranchID: q.BranchID, Quantity: qty})
}

// Kardex godoc
// @Summary      Kardex de un ítem con conciliación contra el saldo
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        branch_id  query  string  true  "sucursal"
// @Param        item_kind  query  string  true  "PRODUCT, VARIANT o SUPPLY"
// @Param        item_id    query  string  true  "ítem"
// @Success      200  {object}  dto.KardexResponse
// @Router       /api/inventory/kardex [get]
func (h *InventoryHandler) Kardex(c *fiber.Ctx) error {
	q, err := h.stockQuery(c)
	if err != nil {
		return validationError(c, err)
	}
	item := entity.NewStockItem(entity.StockItemKind(q.ItemKind), q.ItemID)
	movs, err := h.recorder.Kardex(c.UserContext(), item, q.BranchID)
	if err != nil {
		return writeError(c, err)
	}
	rec, err := h.recorder.Reconcile(c.UserContext(), item, q.BranchID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.KardexResponse{
		Movements:     dto.NewMovementResponses(movs),
		ReplayedTotal: rec.ReplayedTotal,
		LedgerBalance: rec.LedgerBalance,
		Consistent:    rec.Consistent,
	})
}

// ListMovements godoc
// @Summary      Listar movimientos
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        branch_id  query  string  false  "sucursal"
// @Param        type       query  string  false  "tipo de movimiento"
// @Param        from       query  string  false  "RFC3339 o YYYY-MM-DD"
// @Param        to         query  string  false  "RFC3339 o YYYY-MM-DD"
// @Param        limit      query  int     false  "máximo 500"
// @Param        offset     query  int     false  "desplazamiento"
// @Success      200  {array}  dto.MovementResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	filter := repository.MovementFilter{
		BranchID: c.Query("branch_id"),
		Type:     entity.MovementType(c.Query("type")),
		Limit:    c.QueryInt("limit", 100),
		Offset:   c.QueryInt("offset", 0),
	}
	if s := c.Query("from"); s != "" {
		t, err := parseDate(s, false)
		if err != nil {
			return invalidQuery(c, "from inválido")
		}
		filter.From = &t
	}
	if s := c.Query("to"); s != "" {
		t, err := parseDate(s, true)
		if err != nil {
			return invalidQuery(c, "to inválido")
		}
		filter.To = &t
	}
	movs, err := h.recorder.List(c.UserContext(), filter)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewMovementResponses(movs))
}

func (h *InventoryHandler) stockQuery(c *fiber.Ctx) (dto.StockQuery, error) {
	var q dto.StockQuery
	if err := c.QueryParser(&q); err != nil {
		return q, err
	}
	return q, h.validate.Struct(q)
}
