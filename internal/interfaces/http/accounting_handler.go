package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/barberia-api/internal/application/accounting"
	"github.com/jhoicas/barberia-api/internal/application/dto"
	"github.com/jhoicas/barberia-api/internal/domain"
)

// AccountingHandler consultas de asientos contables (protegido, solo lectura).
type AccountingHandler struct {
	recorder *accounting.Recorder
}

// NewAccountingHandler construye el handler.
func NewAccountingHandler(recorder *accounting.Recorder) *AccountingHandler {
	return &AccountingHandler{recorder: recorder}
}

// ListEntries godoc
// @Summary      Asientos por sucursal y rango de fechas
// @Tags         accounting
// @Security     Bearer
// @Produce      json
// @Param        branch_id  query  string  false  "sucursal (vacío = todas)"
// @Param        from       query  string  true   "RFC3339 o YYYY-MM-DD"
// @Param        to         query  string  true   "RFC3339 o YYYY-MM-DD"
// @Success      200  {array}  dto.AccountingEntryResponse
// @Router       /api/accounting/entries [get]
func (h *AccountingHandler) ListEntries(c *fiber.Ctx) error {
	branchID := c.Query("branch_id")
	if !CanAccessBranch(c, branchID) {
		return writeError(c, domain.ErrForbidden)
	}
	from, to, err := parseRange(c)
	if err != nil {
		return invalidQuery(c, err.Error())
	}
	entries, err := h.recorder.ListByBranchAndDateRange(c.UserContext(), branchID, from, to)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewAccountingEntryResponses(entries))
}

// Summary godoc
// @Summary      Resumen contable por categoría
// @Tags         accounting
// @Security     Bearer
// @Produce      json
// @Param        branch_id  query  string  false  "sucursal (vacío = todas)"
// @Param        from       query  string  true   "RFC3339 o YYYY-MM-DD"
// @Param        to         query  string  true   "RFC3339 o YYYY-MM-DD"
// @Success      200  {object}  dto.AccountingSummaryResponse
// @Router       /api/accounting/summary [get]
func (h *AccountingHandler) Summary(c *fiber.Ctx) error {
	branchID := c.Query("branch_id")
	if !CanAccessBranch(c, branchID) {
		return writeError(c, domain.ErrForbidden)
	}
	from, to, err := parseRange(c)
	if err != nil {
		return invalidQuery(c, err.Error())
	}
	s, err := h.recorder.SummaryByDateRange(c.UserContext(), branchID, from, to)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.AccountingSummaryResponse{
		BranchID:   s.BranchID,
		From:       s.From,
		To:         s.To,
		ByCategory: s.ByCategory,
		Income:     s.Income,
		Reversals:  s.Reversals,
		Net:        s.Net,
		Entries:    s.Entries,
	})
}
