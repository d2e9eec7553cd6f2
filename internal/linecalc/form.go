package linecalc

import (
	"fmt"
	"strings"
)

// EventKind identifies a form change.
type EventKind string

const (
	EventLineFieldChanged    EventKind = "line_field_changed"
	EventInvoiceTotalChanged EventKind = "invoice_total_changed"
	EventLineAdded           EventKind = "line_added"
	EventLineRemoved         EventKind = "line_removed"
	EventRecalculateAll      EventKind = "recalculate_all"
)

// LineInput holds the raw form values of a new line.
type LineInput struct {
	Quantity           string `json:"quantity"`
	UnitPriceBeforeTax string `json:"unit_price_before_tax"`
	TaxRateCode        string `json:"tax_rate_code"`
}

// LineItem parses the raw values into an Auto line.
func (in LineInput) LineItem() LineItem {
	return NewLineItem(
		ParseQuantity(in.Quantity),
		ParseQuantity(in.UnitPriceBeforeTax),
		TaxRateCode(strings.TrimSpace(in.TaxRateCode)),
	)
}

// Event is one change coming from the form layer.
type Event struct {
	Kind      EventKind
	LineIndex int
	Field     Field
	Value     string
	Line      LineInput
}

// Reduce applies ev to inv and returns the new state; inv is not modified.
//
// Malformed numbers never fail: they count as 0. Errors are returned only
// when the event itself does not fit the form (unknown kind or field, line
// index out of range), and the input state is returned unchanged.
func Reduce(inv Invoice, ev Event) (Invoice, error) {
	switch ev.Kind {
	case EventRecalculateAll:
		return RecalculateAll(inv), nil
	case EventLineAdded:
		out := inv.Clone()
		out.Lines = append(out.Lines, ev.Line.LineItem())
		out.ApplyAggregate()
		return out, nil
	case EventLineRemoved:
		if err := checkLineIndex(inv, ev.LineIndex); err != nil {
			return inv, err
		}
		out := inv.Clone()
		out.Lines = append(out.Lines[:ev.LineIndex], out.Lines[ev.LineIndex+1:]...)
		out.ApplyAggregate()
		return out, nil
	case EventLineFieldChanged:
		if err := checkLineIndex(inv, ev.LineIndex); err != nil {
			return inv, err
		}
		out := inv.Clone()
		if err := applyLineField(&out.Lines[ev.LineIndex], ev.Field, ev.Value); err != nil {
			return inv, err
		}
		out.ApplyAggregate()
		return out, nil
	case EventInvoiceTotalChanged:
		if !ev.Field.IsInvoiceTotal() {
			return inv, ErrUnknownField
		}
		out := inv.Clone()
		if err := out.EditTotal(ev.Field, ParseAmount(ev.Value)); err != nil {
			return inv, err
		}
		return out, nil
	default:
		return inv, fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Kind)
	}
}

func applyLineField(line *LineItem, field Field, value string) error {
	switch field {
	case FieldQuantity:
		line.SetQuantity(ParseQuantity(value))
	case FieldUnitPriceBeforeTax:
		line.SetUnitPrice(ParseQuantity(value))
	case FieldTaxRateCode:
		line.SetTaxRateCode(TaxRateCode(strings.TrimSpace(value)))
	case FieldTotalBeforeTax, FieldTaxAmount, FieldTotalAfterTax:
		return line.EditTotal(field, ParseAmount(value))
	default:
		return ErrUnknownField
	}
	return nil
}

func checkLineIndex(inv Invoice, index int) error {
	if index < 0 || index >= len(inv.Lines) {
		return fmt.Errorf("%w: %d", ErrLineIndexOutOfRange, index)
	}
	return nil
}
