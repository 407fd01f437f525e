package reporter

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// moneyFormatter renders amounts with thousands separators and two decimals
type moneyFormatter struct {
	printer *message.Printer
	symbol  string
}

func newMoneyFormatter(symbol string) *moneyFormatter {
	return &moneyFormatter{
		printer: message.NewPrinter(language.English),
		symbol:  symbol,
	}
}

// Format renders d as e.g. "1,234,567.89" without leaving decimal arithmetic
func (m *moneyFormatter) Format(d decimal.Decimal) string {
	d = d.Round(2)
	whole, frac, _ := strings.Cut(d.Abs().StringFixed(2), ".")
	s := m.symbol + m.group(whole) + "." + frac
	if d.IsNegative() {
		return "-" + s
	}
	return s
}

// group inserts thousands separators into a string of digits
func (m *moneyFormatter) group(digits string) string {
	if n, err := strconv.ParseInt(digits, 10, 64); err == nil {
		return m.printer.Sprintf("%d", n)
	}

	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Count renders an integer with thousands separators
func (m *moneyFormatter) Count(n int) string {
	return m.printer.Sprintf("%d", n)
}

// Percent renders d with two decimals and a percent sign
func (m *moneyFormatter) Percent(d decimal.Decimal) string {
	return d.StringFixed(2) + "%"
}
