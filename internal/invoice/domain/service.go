package domain

import (
	"context"

	"github.com/smallbiznis/warehouse/internal/linecalc"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Invoice, error)
	Get(ctx context.Context, id string) (*Invoice, error)
	List(ctx context.Context, req ListRequest) ([]Invoice, error)

	AddLine(ctx context.Context, invoiceID string, req LineRequest) (*Invoice, error)
	RemoveLine(ctx context.Context, invoiceID, lineID string) (*Invoice, error)
	UpdateLineField(ctx context.Context, invoiceID, lineID string, req FieldChange) (*Invoice, error)
	UpdateTotal(ctx context.Context, invoiceID string, req FieldChange) (*Invoice, error)
	Recalculate(ctx context.Context, invoiceID string) (*Invoice, error)

	Confirm(ctx context.Context, id string) (*Invoice, error)
	Void(ctx context.Context, id string, reason string) (*Invoice, error)

	Preview(ctx context.Context, req LineRequest) (linecalc.Totals, error)
}

// Renderer produces printable documents for an invoice.
type Renderer interface {
	RenderHTML(ctx context.Context, id string) (Document, error)
	RenderPDF(ctx context.Context, id string) (Document, error)
}

// Document is a rendered invoice ready to be sent to a client.
type Document struct {
	FileName    string
	ContentType string
	Body        []byte
}

type CreateRequest struct {
	Kind          InvoiceKind    `json:"kind"`
	PartnerName   string         `json:"partner_name"`
	WarehouseCode string         `json:"warehouse_code"`
	Note          string         `json:"note"`
	Metadata      map[string]any `json:"metadata"`
	Lines         []LineRequest  `json:"lines"`
}

// LineRequest carries raw form values; numbers are parsed leniently.
type LineRequest struct {
	ProductName        string `json:"product_name"`
	Unit               string `json:"unit"`
	Quantity           string `json:"quantity"`
	UnitPriceBeforeTax string `json:"unit_price_before_tax"`
	TaxRateCode        string `json:"tax_rate_code"`
}

// FieldChange is a single edited form field.
type FieldChange struct {
	Field linecalc.Field `json:"field"`
	Value string         `json:"value"`
}

type ListRequest struct {
	Kind        InvoiceKind
	Status      InvoiceStatus
	PartnerName string
	SortBy      string
	OrderBy     string
}

// Descriptive line fields edited alongside the calculation fields.
const (
	FieldProductName linecalc.Field = "product_name"
	FieldUnit        linecalc.Field = "unit"
)

// NumberLocker serialises invoice number allocation for one key.
type NumberLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
