// Package pdf genera el comprobante de venta de la barbería.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Sucursal + dirección │  N° Comprobante + Fecha      │
//	│  CLIENTE / MEDIO DE PAGO                                    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | Descripción | P.Unit | Subtotal              │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Subtotal / Descuento / IVA / TOTAL                │
//	│  FOOTER: QR con el ID de la venta + leyenda (anulada)       │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/barberia-api/internal/application/sales"
	"github.com/jhoicas/barberia-api/internal/domain/entity"
)

var _ sales.ReceiptRenderer = (*ReceiptRenderer)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 33, Green: 33, Blue: 33}
	colorAccent  = &props.Color{Red: 176, Green: 30, Blue: 45}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ── Renderer ──────────────────────────────────────────────────────────────────

// ReceiptRenderer implementa sales.ReceiptRenderer usando Maroto v2.
type ReceiptRenderer struct {
	precision int
}

// NewReceiptRenderer construye el renderer. precision = decimales de la moneda.
func NewReceiptRenderer(precision int32) *ReceiptRenderer {
	return &ReceiptRenderer{precision: int(precision)}
}

// RenderSaleReceipt genera el PDF y devuelve sus bytes.
func (g *ReceiptRenderer) RenderSaleReceipt(_ context.Context, data sales.ReceiptData) ([]byte, error) {
	if data.Sale == nil {
		return nil, fmt.Errorf("pdf: venta requerida")
	}
	money, err := newMoneyFormatter(data.Currency, g.precision)
	if err != nil {
		return nil, err
	}
	branchName := data.Sale.BranchID
	if data.Branch != nil {
		branchName = data.Branch.Name
	}

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Comprobante de venta", true).
		WithAuthor(branchName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(data, branchName))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(customerRow(data))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableDetailRows(data.Lines, money)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(data.Sale, money))

	m.AddRows(line.NewRow(3))
	m.AddRows(footerRows(data.Sale)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(data sales.ReceiptData, branchName string) core.Row {
	address := ""
	if data.Branch != nil {
		address = data.Branch.Address
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New(branchName, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(nonEmpty(address, "—"), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("COMPROBANTE DE VENTA", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(shortID(data.Sale.ID), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+data.Sale.Date.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func customerRow(data sales.ReceiptData) core.Row {
	name, taxID := "Consumidor final", "—"
	if data.Customer != nil {
		name = data.Customer.Name
		taxID = nonEmpty(data.Customer.TaxID, "—")
	}
	payment := data.Sale.PaymentMethodID
	if data.PaymentMethod != nil {
		payment = data.PaymentMethod.Name
	}
	return row.New(14).Add(
		col.New(8).Add(
			text.New("CLIENTE", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(name, props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
			text.New("NIT/CC: "+taxID, props.Text{Size: 8, Top: 11, Color: colorGray}),
		),
		col.New(4).Add(
			text.New("MEDIO DE PAGO", props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1}),
			text.New(payment, props.Text{Size: 10, Align: align.Right, Top: 6}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("Descripción", 6, align.Left),
		h("Precio Unit.", 2, align.Right),
		h("Subtotal", 3, align.Right),
	)
}

func tableDetailRows(lines []sales.ReceiptLine, money moneyFormatter) []core.Row {
	result := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(fmt.Sprintf("%d", l.Quantity), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(6).Add(text.New(l.Name, props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1})),
			col.New(2).Add(text.New(money.format(l.UnitPrice), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(3).Add(text.New(money.format(l.Subtotal), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

func totalsRow(sale *entity.Sale, money moneyFormatter) core.Row {
	label := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: top})
	}
	value := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1, Top: top})
	}
	return row.New(28).Add(
		col.New(6),
		col.New(3).Add(
			label("Subtotal:", 0),
			label("Descuento:", 6),
			label("IVA ("+sale.TaxRate.String()+"%):", 12),
			text.New("TOTAL:", props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 2, Top: 18}),
		),
		col.New(3).Add(
			value(money.format(sale.Subtotal), 0),
			value("-"+money.format(sale.Discount), 6),
			value(money.format(sale.Tax), 12),
			text.New(money.format(sale.Total), props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1, Top: 18}),
		),
	)
}

func footerRows(sale *entity.Sale) []core.Row {
	rows := []core.Row{
		row.New(30).Add(
			col.New(3).Add(code.NewQr(sale.ID, props.Rect{Percent: 95, Center: true})),
			col.New(9).Add(
				text.New("ID de venta: "+sale.ID, props.Text{Size: 7, Top: 4, Left: 3, Color: colorGray}),
				text.New("Gracias por su visita.", props.Text{Style: fontstyle.Bold, Size: 10, Top: 14, Left: 3, Color: colorPrimary}),
			),
		),
	}
	if sale.IsAnnulled() {
		annulled := "VENTA ANULADA"
		if sale.AnnulledAt != nil {
			annulled += " el " + sale.AnnulledAt.Format("02/01/2006 15:04")
		}
		if sale.AnnulReason != "" {
			annulled += ": " + sale.AnnulReason
		}
		rows = append(rows, row.New(10).Add(col.New(12).Add(
			text.New(annulled, props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Center, Color: colorAccent, Top: 2}),
		)))
	}
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func shortID(id string) string {
	if len(id) > 8 {
		return "N° " + id[:8]
	}
	return "N° " + id
}
