package linecalc

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TaxRateCode is the tax label chosen on an invoice line.
type TaxRateCode string

// Catalogue codes offered by the Import/Export forms.
// KCT marks a line as outside the scope of VAT; it carries no tax like "0%"
// but is reported separately.
const (
	TaxRateExempt TaxRateCode = "KCT"
	TaxRate0      TaxRateCode = "0%"
	TaxRate5      TaxRateCode = "5%"
	TaxRate8      TaxRateCode = "8%"
	TaxRate10     TaxRateCode = "10%"
)

var knownTaxRateCodes = []TaxRateCode{
	TaxRateExempt,
	TaxRate0,
	TaxRate5,
	TaxRate8,
	TaxRate10,
}

// KnownTaxRateCodes returns the default catalogue in display order.
func KnownTaxRateCodes() []TaxRateCode {
	out := make([]TaxRateCode, len(knownTaxRateCodes))
	copy(out, knownTaxRateCodes)
	return out
}

// IsExempt reports whether the code is the KCT exemption.
func (c TaxRateCode) IsExempt() bool {
	return TaxRateCode(strings.TrimSpace(string(c))) == TaxRateExempt
}

// Known reports whether the code belongs to the default catalogue.
func (c TaxRateCode) Known() bool {
	trimmed := TaxRateCode(strings.TrimSpace(string(c)))
	for _, code := range knownTaxRateCodes {
		if code == trimmed {
			return true
		}
	}
	return false
}

// Rate returns the percentage carried by the code, e.g. 10 for "10%".
// KCT, negative rates and anything that does not parse as a number
// resolve to 0. Codes outside the catalogue are not rejected.
func (c TaxRateCode) Rate() decimal.Decimal {
	if c.IsExempt() {
		return decimal.Zero
	}
	raw := strings.TrimSpace(string(c))
	raw = strings.TrimSpace(strings.TrimSuffix(raw, "%"))
	if raw == "" {
		return decimal.Zero
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil || rate.IsNegative() {
		return decimal.Zero
	}
	return rate
}
