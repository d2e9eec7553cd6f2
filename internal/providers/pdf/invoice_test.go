package pdf

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateInvoice(t *testing.T) {
	p := New()
	doc, err := p.GenerateInvoice(context.Background(), InvoiceData{
		Title:         "Import invoice",
		InvoiceNumber: "IMP-20260301-000001",
		Status:        "DRAFT",
		IssueDate:     "2026-03-01",
		PartnerLabel:  "Supplier",
		PartnerName:   "PT Sumber Makmur",
		Lines: []InvoiceLine{
			{Position: 1, ProductName: "Rice", Unit: "kg", Quantity: "3", UnitPrice: "333.333", TaxRate: "10%", BeforeTax: "1,000", Tax: "100", AfterTax: "1,100"},
		},
		TaxSummary:     []TaxRow{{TaxRate: "10%", BeforeTax: "1,000", Tax: "100"}},
		TotalBeforeTax: "1,000",
		TotalTax:       "100",
		TotalAfterTax:  "1,100",
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))
}

func TestGenerateInvoice_RequiresNumber(t *testing.T) {
	_, err := New().GenerateInvoice(context.Background(), InvoiceData{})
	assert.ErrorIs(t, err, ErrEmptyInvoiceNumber)
}
