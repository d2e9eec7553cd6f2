package linecalc

// Field names an editable field on a line or on the invoice.
type Field string

const (
	FieldQuantity           Field = "quantity"
	FieldUnitPriceBeforeTax Field = "unit_price_before_tax"
	FieldTaxRateCode        Field = "tax_rate_code"

	FieldTotalBeforeTax Field = "total_before_tax"
	FieldTaxAmount      Field = "tax_amount"
	FieldTotalAfterTax  Field = "total_after_tax"

	// Invoice level only; the invoice uses FieldTotalBeforeTax and
	// FieldTotalAfterTax as well.
	FieldTotalTax Field = "total_tax"
)

// IsLineInput reports whether editing the field re-triggers line recomputation.
func (f Field) IsLineInput() bool {
	switch f {
	case FieldQuantity, FieldUnitPriceBeforeTax, FieldTaxRateCode:
		return true
	default:
		return false
	}
}

// IsLineTotal reports whether editing the field puts the line into Manual.
func (f Field) IsLineTotal() bool {
	switch f {
	case FieldTotalBeforeTax, FieldTaxAmount, FieldTotalAfterTax:
		return true
	default:
		return false
	}
}

// IsInvoiceTotal reports whether the field is one of the invoice totals.
func (f Field) IsInvoiceTotal() bool {
	switch f {
	case FieldTotalBeforeTax, FieldTotalTax, FieldTotalAfterTax:
		return true
	default:
		return false
	}
}
