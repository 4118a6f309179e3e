package pdf

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// moneyFormatter formatea montos con separadores de Colombia (1.234.567,50).
type moneyFormatter struct {
	printer *message.Printer
	unit    currency.Unit
	scale   int
}

func newMoneyFormatter(iso string, scale int) (moneyFormatter, error) {
	if iso == "" {
		iso = "COP"
	}
	unit, err := currency.ParseISO(iso)
	if err != nil {
		return moneyFormatter{}, fmt.Errorf("pdf: moneda %q: %w", iso, err)
	}
	return moneyFormatter{
		printer: message.NewPrinter(language.MustParse("es-CO")),
		unit:    unit,
		scale:   scale,
	}, nil
}

func (f moneyFormatter) format(d decimal.Decimal) string {
	return f.printer.Sprintf("%s %v", f.unit, number.Decimal(d.Round(int32(f.scale)).InexactFloat64(), number.Scale(f.scale)))
}
