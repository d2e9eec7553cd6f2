package linecalc

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// InputScale is the number of fractional digits kept for quantity and price.
const InputScale = 3

// maxInput bounds quantity and price to the 15 integer digits of their
// numeric(18,3) columns.
var maxInput = decimal.New(1, 15)

// thousandsGrouped is the only shape in which "," is accepted.
var thousandsGrouped = regexp.MustCompile(`^\d{1,3}(,\d{3})+(\.\d+)?$`)

// ParseDecimal reads a form value. Surrounding whitespace is ignored and ","
// is accepted only as a thousands separator. Anything that does not parse,
// is negative, or has more than 15 integer digits yields 0.
func ParseDecimal(raw string) decimal.Decimal {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return decimal.Zero
	}
	if strings.Contains(cleaned, ",") {
		if !thousandsGrouped.MatchString(cleaned) {
			return decimal.Zero
		}
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}
	value, err := decimal.NewFromString(cleaned)
	if err != nil || value.IsNegative() || value.GreaterThanOrEqual(maxInput) {
		return decimal.Zero
	}
	return value
}

// ParseQuantity reads a quantity or unit price, keeping InputScale digits.
// The rounding happens here, before any multiplication, so 1.0004 is
// stored and multiplied as 1.
func ParseQuantity(raw string) decimal.Decimal {
	return ParseDecimal(raw).Round(InputScale)
}

// ParseAmount reads a hand-entered total as a whole currency amount.
func ParseAmount(raw string) int64 {
	return RoundMoney(ParseDecimal(raw))
}
