package linecalc

// InvoiceTotals are the three invoice-level amounts.
type InvoiceTotals struct {
	BeforeTax int64 `json:"total_before_tax"`
	Tax       int64 `json:"total_tax"`
	AfterTax  int64 `json:"total_after_tax"`
}

// Invoice is the calculator's view of an invoice form.
type Invoice struct {
	Lines          []LineItem    `json:"lines"`
	TotalBeforeTax int64         `json:"total_before_tax"`
	TotalTax       int64         `json:"total_tax"`
	TotalAfterTax  int64         `json:"total_after_tax"`
	TotalsOverride OverrideState `json:"totals_override"`
}

// Aggregate sums the line totals field by field.
func Aggregate(lines []LineItem) InvoiceTotals {
	var out InvoiceTotals
	for _, line := range lines {
		out.BeforeTax += line.TotalBeforeTax
		out.Tax += line.TaxAmount
		out.AfterTax += line.TotalAfterTax
	}
	return out
}

func (inv Invoice) TotalsManuallyEdited() bool { return inv.TotalsOverride.IsManual() }

func (inv Invoice) Totals() InvoiceTotals {
	return InvoiceTotals{
		BeforeTax: inv.TotalBeforeTax,
		Tax:       inv.TotalTax,
		AfterTax:  inv.TotalAfterTax,
	}
}

// ApplyAggregate replaces the invoice totals with the line sum unless the
// totals were edited by hand. It reports whether the totals were written.
func (inv *Invoice) ApplyAggregate() bool {
	if inv.TotalsOverride.IsManual() {
		return false
	}
	t := Aggregate(inv.Lines)
	inv.TotalBeforeTax = t.BeforeTax
	inv.TotalTax = t.Tax
	inv.TotalAfterTax = t.AfterTax
	return true
}

// EditTotal stores a hand-entered invoice total and locks all three.
func (inv *Invoice) EditTotal(field Field, value int64) error {
	switch field {
	case FieldTotalBeforeTax:
		inv.TotalBeforeTax = value
	case FieldTotalTax:
		inv.TotalTax = value
	case FieldTotalAfterTax:
		inv.TotalAfterTax = value
	default:
		return ErrUnknownField
	}
	inv.TotalsOverride = Manual
	return nil
}

// Clone returns a copy that shares no line storage with inv.
func (inv Invoice) Clone() Invoice {
	out := inv
	if inv.Lines != nil {
		out.Lines = make([]LineItem, len(inv.Lines))
		copy(out.Lines, inv.Lines)
	}
	return out
}

// RecalculateAll clears every override and recomputes all totals from
// scratch. Steps run in order: unlock lines, unlock the invoice, force each
// line, then aggregate. The input is not modified.
func RecalculateAll(inv Invoice) Invoice {
	out := inv.Clone()
	for i := range out.Lines {
		out.Lines[i].Override = Auto
	}
	out.TotalsOverride = Auto
	for i := range out.Lines {
		out.Lines[i].Recompute(true)
	}
	out.ApplyAggregate()
	return out
}
