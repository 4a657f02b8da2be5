package web

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const dateLayout = "Jan 2, 2006"

// Formatter renders money, counts and dates for templates.
type Formatter struct {
	printer *message.Printer
	symbol  string
}

func NewFormatter(symbol string) Formatter {
	return Formatter{printer: message.NewPrinter(language.English), symbol: symbol}
}

// Money formats an amount as symbol plus grouped digits and two decimals,
// for example ₦1,234.56.
func (f Formatter) Money(d decimal.Decimal) string {
	r := d.Round(2)
	sign := ""
	if r.IsNegative() {
		sign = "-"
		r = r.Abs()
	}
	whole := r.Truncate(0)
	cents := r.Sub(whole).Shift(2).IntPart()
	return sign + f.symbol + f.printer.Sprintf("%d", whole.IntPart()) + fmt.Sprintf(".%02d", cents)
}

func (f Formatter) Count(n int) string {
	return f.printer.Sprintf("%d", n)
}

func (f Formatter) Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func (f Formatter) DateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006 3:04 PM")
}
