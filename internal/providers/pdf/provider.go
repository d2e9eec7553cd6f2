package pdf

import (
	"context"

	"go.uber.org/fx"
)

// Provider renders printable invoice documents.
type Provider interface {
	GenerateInvoice(ctx context.Context, data InvoiceData) ([]byte, error)
}

var Module = fx.Module("pdf",
	fx.Provide(New),
)
