package linecalc

import "github.com/shopspring/decimal"

// Totals are the three derived amounts of one line.
type Totals struct {
	BeforeTax int64 `json:"total_before_tax"`
	Tax       int64 `json:"tax_amount"`
	AfterTax  int64 `json:"total_after_tax"`
}

// ComputeLineTotals derives the line totals. Each multiplication is rounded
// before it feeds the next step.
func ComputeLineTotals(quantity, unitPrice decimal.Decimal, code TaxRateCode) Totals {
	before := RoundMoney(quantity.Mul(unitPrice))
	tax := RoundMoney(decimal.NewFromInt(before).Mul(code.Rate()).Div(hundred))
	return Totals{
		BeforeTax: before,
		Tax:       tax,
		AfterTax:  before + tax,
	}
}

// ComputeLineTotalsInput is ComputeLineTotals over raw form values.
// Empty or non-numeric quantity and price count as 0.
func ComputeLineTotalsInput(quantity, unitPrice, code string) Totals {
	return ComputeLineTotals(ParseQuantity(quantity), ParseQuantity(unitPrice), TaxRateCode(code))
}

// LineItem is one invoice row as seen by the calculator.
type LineItem struct {
	Quantity           decimal.Decimal `json:"quantity"`
	UnitPriceBeforeTax decimal.Decimal `json:"unit_price_before_tax"`
	TaxRateCode        TaxRateCode     `json:"tax_rate_code"`
	TotalBeforeTax     int64           `json:"total_before_tax"`
	TaxAmount          int64           `json:"tax_amount"`
	TotalAfterTax      int64           `json:"total_after_tax"`
	Override           OverrideState   `json:"override"`
}

// NewLineItem returns an Auto line with its totals computed.
func NewLineItem(quantity, unitPrice decimal.Decimal, code TaxRateCode) LineItem {
	line := LineItem{
		Quantity:           quantity,
		UnitPriceBeforeTax: unitPrice,
		TaxRateCode:        code,
	}
	line.Recompute(false)
	return line
}

// ManuallyEdited reports whether a hand-entered total locks the line.
func (l LineItem) ManuallyEdited() bool { return l.Override.IsManual() }

// Totals returns the stored totals, whether computed or hand-entered.
func (l LineItem) Totals() Totals {
	return Totals{
		BeforeTax: l.TotalBeforeTax,
		Tax:       l.TaxAmount,
		AfterTax:  l.TotalAfterTax,
	}
}

// Recompute overwrites the three totals from quantity, price and tax rate.
// A Manual line is left untouched unless force is set; it reports whether
// the totals were written.
func (l *LineItem) Recompute(force bool) bool {
	if l.Override.IsManual() && !force {
		return false
	}
	t := ComputeLineTotals(l.Quantity, l.UnitPriceBeforeTax, l.TaxRateCode)
	l.TotalBeforeTax = t.BeforeTax
	l.TaxAmount = t.Tax
	l.TotalAfterTax = t.AfterTax
	return true
}

// SetQuantity stores quantity and recomputes an Auto line.
func (l *LineItem) SetQuantity(quantity decimal.Decimal) {
	l.Quantity = quantity
	l.Recompute(false)
}

// SetUnitPrice stores the unit price and recomputes an Auto line.
func (l *LineItem) SetUnitPrice(unitPrice decimal.Decimal) {
	l.UnitPriceBeforeTax = unitPrice
	l.Recompute(false)
}

// SetTaxRateCode stores code and recomputes an Auto line. Codes outside
// the catalogue are kept and taxed at the rate they name.
func (l *LineItem) SetTaxRateCode(code TaxRateCode) {
	l.TaxRateCode = code
	l.Recompute(false)
}

// EditTotal stores a hand-entered total verbatim and locks the line.
func (l *LineItem) EditTotal(field Field, value int64) error {
	switch field {
	case FieldTotalBeforeTax:
		l.TotalBeforeTax = value
	case FieldTaxAmount:
		l.TaxAmount = value
	case FieldTotalAfterTax:
		l.TotalAfterTax = value
	default:
		return ErrUnknownField
	}
	l.Override = Manual
	return nil
}
