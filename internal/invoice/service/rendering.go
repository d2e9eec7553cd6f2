package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gosimple/slug"
	"github.com/smallbiznis/warehouse/internal/config"
	invoicedomain "github.com/smallbiznis/warehouse/internal/invoice/domain"
	"github.com/smallbiznis/warehouse/internal/invoice/render"
	"github.com/smallbiznis/warehouse/internal/observability/tracing"
	"github.com/smallbiznis/warehouse/internal/providers/pdf"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypePDF  = "application/pdf"
)

type RendererParam struct {
	fx.In

	Log      *zap.Logger
	Config   config.Config
	Invoices invoicedomain.Service
	HTML     render.Renderer
	PDF      pdf.Provider
}

// DocumentRenderer loads invoices and renders them as HTML or PDF.
type DocumentRenderer struct {
	log      *zap.Logger
	location *time.Location
	invoices invoicedomain.Service
	html     render.Renderer
	pdf      pdf.Provider
}

func NewDocumentRenderer(p RendererParam) invoicedomain.Renderer {
	loc := p.Config.IssueLocation
	if loc == nil {
		loc = time.UTC
	}
	return &DocumentRenderer{
		log:      p.Log.Named("invoice.renderer"),
		location: loc,
		invoices: p.Invoices,
		html:     p.HTML,
		pdf:      p.PDF,
	}
}

func (r *DocumentRenderer) RenderHTML(ctx context.Context, id string) (invoicedomain.Document, error) {
	view, err := r.view(ctx, id)
	if err != nil {
		return invoicedomain.Document{}, err
	}

	_, span := tracing.StartSpan(ctx, "invoice.render_html", attribute.String("invoice.number", view.Number))
	body, err := r.html.RenderHTML(view)
	tracing.EndSpan(span, err)
	if err != nil {
		r.log.Error("render invoice html", zap.String("invoice_id", id), zap.Error(err))
		return invoicedomain.Document{}, err
	}

	return invoicedomain.Document{
		FileName:    fileName(view.Number, "html"),
		ContentType: contentTypeHTML,
		Body:        []byte(body),
	}, nil
}

func (r *DocumentRenderer) RenderPDF(ctx context.Context, id string) (invoicedomain.Document, error) {
	view, err := r.view(ctx, id)
	if err != nil {
		return invoicedomain.Document{}, err
	}

	ctx, span := tracing.StartSpan(ctx, "invoice.render_pdf", attribute.String("invoice.number", view.Number))
	body, err := r.pdf.GenerateInvoice(ctx, pdfData(view))
	tracing.EndSpan(span, err)
	if err != nil {
		r.log.Error("render invoice pdf", zap.String("invoice_id", id), zap.Error(err))
		return invoicedomain.Document{}, err
	}

	return invoicedomain.Document{
		FileName:    fileName(view.Number, "pdf"),
		ContentType: contentTypePDF,
		Body:        body,
	}, nil
}

func (r *DocumentRenderer) view(ctx context.Context, id string) (render.View, error) {
	invoice, err := r.invoices.Get(ctx, id)
	if err != nil {
		return render.View{}, err
	}
	return render.NewView(*invoice, r.location), nil
}

func pdfData(view render.View) pdf.InvoiceData {
	data := pdf.InvoiceData{
		Title:          view.Title,
		InvoiceNumber:  view.Number,
		Status:         view.Status,
		IssueDate:      view.IssuedAt,
		PartnerLabel:   view.PartnerLabel,
		PartnerName:    view.PartnerName,
		WarehouseCode:  view.WarehouseCode,
		Note:           view.Note,
		Lines:          make([]pdf.InvoiceLine, 0, len(view.Lines)),
		TaxSummary:     make([]pdf.TaxRow, 0, len(view.TaxSummary)),
		TotalBeforeTax: view.TotalBeforeTax,
		TotalTax:       view.TotalTax,
		TotalAfterTax:  view.TotalAfterTax,
		ManualTotals:   view.ManualTotals,
	}
	for _, line := range view.Lines {
		data.Lines = append(data.Lines, pdf.InvoiceLine{
			Position:    line.Position,
			ProductName: line.ProductName,
			Unit:        line.Unit,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			TaxRate:     line.TaxRateCode,
			BeforeTax:   line.BeforeTax,
			Tax:         line.Tax,
			AfterTax:    line.AfterTax,
			Manual:      line.Manual,
		})
	}
	for _, row := range view.TaxSummary {
		data.TaxSummary = append(data.TaxSummary, pdf.TaxRow{
			TaxRate:   row.TaxRateCode,
			BeforeTax: row.BeforeTax,
			Tax:       row.Tax,
		})
	}
	return data
}

func fileName(number, ext string) string {
	name := slug.Make(number)
	if name == "" {
		name = "invoice"
	}
	return fmt.Sprintf("%s.%s", name, ext)
}
