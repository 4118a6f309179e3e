package http

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/barberia-api/internal/application/dto"
	"github.com/jhoicas/barberia-api/internal/application/sales"
	"github.com/jhoicas/barberia-api/internal/domain"
	"github.com/jhoicas/barberia-api/internal/domain/entity"
	"github.com/jhoicas/barberia-api/internal/domain/pricing"
)

// SalesHandler maneja las peticiones HTTP de ventas (protegido).
type SalesHandler struct {
	orchestrator *sales.SaleOrchestrator
	receipts     *sales.ReceiptUseCase
	validate     *validator.Validate
}

// NewSalesHandler construye el handler.
func NewSalesHandler(orchestrator *sales.SaleOrchestrator, receipts *sales.ReceiptUseCase, validate *validator.Validate) *SalesHandler {
	return &SalesHandler{orchestrator: orchestrator, receipts: receipts, validate: validate}
}

// Create godoc
// @Summary      Registrar venta
// @Description  Valida referencias, recalcula totales, descuenta existencias y asienta la venta en una sola unidad de trabajo.
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSaleRequest  true  "branch_id, payment_method_id, items, discount, tax_rate"
// @Success      201   {object}  dto.SaleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/sales [post]
func (h *SalesHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateSaleRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationError(c, err)
	}
	if !CanAccessBranch(c, req.BranchID) {
		return writeError(c, domain.ErrForbidden)
	}

	in := sales.CreateSaleInput{
		BranchID:        req.BranchID,
		CustomerID:      req.CustomerID,
		PaymentMethodID: req.PaymentMethodID,
		Items:           make([]sales.ItemInput, 0, len(req.Items)),
		TaxRate:         req.TaxRate,
		UserID:          GetUserID(c),
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, sales.ItemInput{
			Item:     entity.NewStockItem(entity.StockItemKind(it.ItemKind), it.ItemID),
			Quantity: it.Quantity,
		})
	}
	if req.Discount != nil {
		in.Discount = pricing.Discount{Type: req.Discount.Type, Value: req.Discount.Value}
	}

	sale, err := h.orchestrator.CreateSale(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewSaleResponse(sale))
}

// List godoc
// @Summary      Listar ventas
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "máximo 100"
// @Param        offset  query  int  false  "desplazamiento"
// @Success      200  {object}  dto.SaleListResponse
// @Router       /api/sales [get]
func (h *SalesHandler) List(c *fiber.Ctx) error {
	page := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	page.DefaultPage()
	out, err := h.orchestrator.ListSales(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.SaleListResponse{
		Items: dto.NewSaleResponses(out.Items),
		Page:  dto.PageResponse{Limit: out.Limit, Offset: out.Offset, Total: out.Total},
	})
}

// ListByBranch godoc
// @Summary      Ventas de una sucursal
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        branchId  path  string  true  "ID de la sucursal"
// @Success      200  {array}  dto.SaleResponse
// @Router       /api/sales/branch/{branchId} [get]
func (h *SalesHandler) ListByBranch(c *fiber.Ctx) error {
	branchID := c.Params("branchId")
	if !CanAccessBranch(c, branchID) {
		return writeError(c, domain.ErrForbidden)
	}
	list, err := h.orchestrator.ListSalesByBranch(c.UserContext(), branchID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewSaleResponses(list))
}

// ListByRange godoc
// @Summary      Ventas por rango de fechas
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        from  query  string  true  "RFC3339 o YYYY-MM-DD"
// @Param        to    query  string  true  "RFC3339 o YYYY-MM-DD (inclusive)"
// @Success      200  {array}  dto.SaleResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/sales/range [get]
func (h *SalesHandler) ListByRange(c *fiber.Ctx) error {
	from, to, err := parseRange(c)
	if err != nil {
		return invalidQuery(c, err.Error())
	}
	list, err := h.orchestrator.ListSalesByDate(c.UserContext(), from, to)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewSaleResponses(list))
}

// GetByID godoc
// @Summary      Obtener venta
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {object}  dto.SaleResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [get]
func (h *SalesHandler) GetByID(c *fiber.Ctx) error {
	sale, err := h.orchestrator.GetSale(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewSaleResponse(sale))
}

// Annul godoc
// @Summary      Anular venta
// @Description  Repone existencias, registra reingresos en el kardex y asienta el total en negativo.
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID de la venta"
// @Param        body  body  dto.AnnulSaleRequest  true  "motivo"
// @Success      200  {object}  dto.SaleResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/annul [post]
func (h *SalesHandler) Annul(c *fiber.Ctx) error {
	var req dto.AnnulSaleRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationError(c, err)
	}
	id := c.Params("id")
	if err := h.orchestrator.AnnulSale(c.UserContext(), id, req.Reason); err != nil {
		return writeError(c, err)
	}
	sale, err := h.orchestrator.GetSale(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewSaleResponse(sale))
}

// Receipt godoc
// @Summary      Comprobante PDF de la venta
// @Tags         sales
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/receipt [get]
func (h *SalesHandler) Receipt(c *fiber.Ctx) error {
	id := c.Params("id")
	pdf, err := h.receipts.GenerateReceipt(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="venta-`+id+`.pdf"`)
	return c.Send(pdf)
}
