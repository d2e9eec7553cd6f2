package pdf

import (
	"context"
	"errors"
	"strconv"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// InvoiceData is a fully formatted invoice; amounts are display strings.
type InvoiceData struct {
	Title         string
	InvoiceNumber string
	Status        string
	IssueDate     string
	PartnerLabel  string
	PartnerName   string
	WarehouseCode string
	Note          string

	Lines      []InvoiceLine
	TaxSummary []TaxRow

	TotalBeforeTax string
	TotalTax       string
	TotalAfterTax  string
	ManualTotals   bool
}

type InvoiceLine struct {
	Position    int
	ProductName string
	Unit        string
	Quantity    string
	UnitPrice   string
	TaxRate     string
	BeforeTax   string
	Tax         string
	AfterTax    string
	Manual      bool
}

type TaxRow struct {
	TaxRate   string
	BeforeTax string
	Tax       string
}

var ErrEmptyInvoiceNumber = errors.New("invoice number is required")

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

var (
	headerText = props.Text{Style: fontstyle.Bold, Size: 8}
	cellText   = props.Text{Size: 8}
	rightHead  = props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right}
	rightCell  = props.Text{Size: 8, Align: align.Right}
)

func (p *PDFProvider) GenerateInvoice(ctx context.Context, invoice InvoiceData) ([]byte, error) {
	if invoice.InvoiceNumber == "" {
		return nil, ErrEmptyInvoiceNumber
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(8, invoice.Title, props.Text{Size: 18, Style: fontstyle.Bold}),
		text.NewCol(4, invoice.Status, props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right}),
	)

	m.AddRow(22,
		col.New(6).Add(
			text.New("Number: "+invoice.InvoiceNumber, props.Text{Top: 0}),
			text.New("Issued: "+invoice.IssueDate, props.Text{Top: 5}),
			text.New("Warehouse: "+invoice.WarehouseCode, props.Text{Top: 10}),
		),
		col.New(6).Add(
			text.New(invoice.PartnerLabel, props.Text{Style: fontstyle.Bold, Align: align.Right}),
			text.New(invoice.PartnerName, props.Text{Top: 5, Align: align.Right}),
		),
	)

	m.AddRow(8,
		text.NewCol(1, "#", headerText),
		text.NewCol(3, "Product", headerText),
		text.NewCol(1, "Qty", rightHead),
		text.NewCol(2, "Unit price", rightHead),
		text.NewCol(1, "Tax", rightHead),
		text.NewCol(2, "Before tax", rightHead),
		text.NewCol(2, "After tax", rightHead),
	)

	for _, line := range invoice.Lines {
		name := line.ProductName
		if line.Unit != "" {
			name += " (" + line.Unit + ")"
		}
		after := line.AfterTax
		if line.Manual {
			after += " *"
		}
		m.AddRow(7,
			text.NewCol(1, strconv.Itoa(line.Position), cellText),
			text.NewCol(3, name, cellText),
			text.NewCol(1, line.Quantity, rightCell),
			text.NewCol(2, line.UnitPrice, rightCell),
			text.NewCol(1, line.TaxRate, rightCell),
			text.NewCol(2, line.BeforeTax, rightCell),
			text.NewCol(2, after, rightCell),
		)
	}

	if len(invoice.TaxSummary) > 0 {
		m.AddRow(8, text.NewCol(12, "Tax summary", props.Text{Style: fontstyle.Bold, Size: 9, Top: 3}))
		for _, row := range invoice.TaxSummary {
			m.AddRow(6,
				col.New(6),
				text.NewCol(2, row.TaxRate, cellText),
				text.NewCol(2, row.BeforeTax, rightCell),
				text.NewCol(2, row.Tax, rightCell),
			)
		}
	}

	totals := []struct{ label, value string }{
		{"Total before tax", invoice.TotalBeforeTax},
		{"Tax", invoice.TotalTax},
		{"Total after tax", invoice.TotalAfterTax},
	}
	for i, row := range totals {
		style := props.Text{Size: 9}
		if i == len(totals)-1 {
			style.Style = fontstyle.Bold
		}
		valueStyle := style
		valueStyle.Align = align.Right
		m.AddRow(7,
			col.New(7),
			text.NewCol(3, row.label, style),
			text.NewCol(2, row.value, valueStyle),
		)
	}

	if invoice.ManualTotals {
		m.AddRow(6, text.NewCol(12, "Totals were entered manually.", props.Text{Size: 7, Style: fontstyle.Italic}))
	}
	if invoice.Note != "" {
		m.AddRow(10, text.NewCol(12, invoice.Note, props.Text{Size: 8, Top: 3}))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}
