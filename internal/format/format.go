// Package format renders currency and percentage values as display strings
// for the gateway's canonical records and the TUI/CLI views.
package format

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// USD formats a decimal amount as a dollar string with thousands separators
// and exactly two decimal places, e.g. "$100,000.00". Negative amounts render
// as "-$1,234.56".
func USD(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	s := d.StringFixed(2)
	intPart, fracPart, _ := strings.Cut(s, ".")
	return sign + "$" + groupThousands(intPart) + "." + fracPart
}

// Percent formats a percentage value with two decimal places and a sign,
// e.g. "+2.50%" or "-0.75%".
func Percent(v float64) string {
	if v >= 0 {
		return fmt.Sprintf("+%.2f%%", v)
	}
	return fmt.Sprintf("%.2f%%", v)
}

// Price formats a price as $X.XX, or "-" when absent.
func Price(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("$%.2f", *p)
}

// groupThousands inserts comma separators into a non-negative integer string.
func groupThousands(s string) string {
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	start := len(s) % 3
	if start > 0 {
		b.WriteString(s[:start])
	}
	for i := start; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
