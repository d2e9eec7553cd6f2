// Package linecalc derives invoice line totals and invoice totals from
// quantities, unit prices and tax-rate codes, and tracks manual overrides of
// those totals.
//
// Every function here is pure: callers pass plain values in and get plain
// values back. Rounding is applied after each multiplication, never once at
// the end, so results match totals computed independently by the ledger
// backend.
package linecalc

import "github.com/shopspring/decimal"

// MaxMoney is the largest magnitude a single amount may take. Sums of
// many lines still fit a BIGINT column.
const MaxMoney int64 = 999_999_999_999_999

var (
	hundred  = decimal.NewFromInt(100)
	maxMoney = decimal.NewFromInt(MaxMoney)
)

// RoundMoney rounds x to a whole currency unit, half away from zero.
// Results beyond ±MaxMoney are treated like malformed input and give 0.
func RoundMoney(x decimal.Decimal) int64 {
	r := x.Round(0)
	if r.Abs().GreaterThan(maxMoney) {
		return 0
	}
	return r.IntPart()
}
