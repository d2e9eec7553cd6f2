// Package render turns invoices into printable views.
package render

import (
	"time"

	"github.com/smallbiznis/warehouse/internal/invoice/domain"
	"github.com/smallbiznis/warehouse/internal/invoice/format"
)

type Renderer interface {
	RenderHTML(view View) (string, error)
}

// View is an invoice with every amount already formatted for display.
type View struct {
	Title          string
	Number         string
	Status         string
	IssuedAt       string
	PartnerLabel   string
	PartnerName    string
	WarehouseCode  string
	Note           string
	Lines          []LineView
	TaxSummary     []TaxView
	TotalBeforeTax string
	TotalTax       string
	TotalAfterTax  string
	ManualTotals   bool
}

type LineView struct {
	Position    int
	ProductName string
	Unit        string
	Quantity    string
	UnitPrice   string
	TaxRateCode string
	BeforeTax   string
	Tax         string
	AfterTax    string
	Manual      bool
}

type TaxView struct {
	TaxRateCode string
	BeforeTax   string
	Tax         string
}

// NewView formats inv; issue dates are shown in loc.
func NewView(inv domain.Invoice, loc *time.Location) View {
	if loc == nil {
		loc = time.UTC
	}
	view := View{
		Title:          "Import invoice",
		Number:         inv.Number,
		Status:         string(inv.Status),
		IssuedAt:       inv.IssuedAt.In(loc).Format("2006-01-02"),
		PartnerLabel:   "Supplier",
		PartnerName:    inv.PartnerName,
		WarehouseCode:  inv.WarehouseCode,
		Note:           inv.Note,
		TotalBeforeTax: format.Money(inv.TotalBeforeTax),
		TotalTax:       format.Money(inv.TotalTax),
		TotalAfterTax:  format.Money(inv.TotalAfterTax),
		ManualTotals:   inv.TotalsManuallyEdited,
	}
	if inv.Kind == domain.InvoiceKindExport {
		view.Title = "Export invoice"
		view.PartnerLabel = "Customer"
	}

	view.Lines = make([]LineView, 0, len(inv.Lines))
	for _, line := range inv.Lines {
		view.Lines = append(view.Lines, LineView{
			Position:    line.Position,
			ProductName: line.ProductName,
			Unit:        line.Unit,
			Quantity:    format.Quantity(line.Quantity),
			UnitPrice:   format.Quantity(line.UnitPriceBeforeTax),
			TaxRateCode: line.TaxRateCode,
			BeforeTax:   format.Money(line.TotalBeforeTax),
			Tax:         format.Money(line.TaxAmount),
			AfterTax:    format.Money(line.TotalAfterTax),
			Manual:      line.ManuallyEdited,
		})
	}

	for _, row := range domain.SummarizeTax(inv.Lines) {
		view.TaxSummary = append(view.TaxSummary, TaxView{
			TaxRateCode: row.TaxRateCode,
			BeforeTax:   format.Money(row.TotalBeforeTax),
			Tax:         format.Money(row.TaxAmount),
		})
	}
	return view
}
