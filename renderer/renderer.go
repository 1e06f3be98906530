// Package renderer converts reconciliation plans and ledgers into Markdown
// reports.
package renderer

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// previewLimit caps how many rewritten transactions a reconciliation
// report lists before collapsing into a counter.
const previewLimit = 30

// Amounts render with a fixed 8-decimal scale so columns of a diff table
// line up and sub-cent deltas stay visible.
func formatAmount(d decimal.Decimal) string {
	return d.StringFixedBank(8)
}

func formatDelta(d decimal.Decimal) string {
	s := d.StringFixedBank(8)
	if d.Sign() > 0 {
		return "+" + s
	}
	return s
}

func formatMoney(amount decimal.Decimal, currency string) string {
	return fmt.Sprintf("%s %s", formatAmount(amount), currency)
}
