package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeTax(t *testing.T) {
	lines := []InvoiceLine{
		{TaxRateCode: "10%", TotalBeforeTax: 1000, TaxAmount: 100, TotalAfterTax: 1100},
		{TaxRateCode: "KCT", TotalBeforeTax: 500, TotalAfterTax: 500},
		{TaxRateCode: "10%", TotalBeforeTax: 200, TaxAmount: 20, TotalAfterTax: 220},
		{TaxRateCode: "0%", TotalBeforeTax: 300, TotalAfterTax: 300},
	}

	got := SummarizeTax(lines)
	assert.Equal(t, []TaxSummary{
		{TaxRateCode: "10%", TotalBeforeTax: 1200, TaxAmount: 120, TotalAfterTax: 1320},
		{TaxRateCode: "KCT", TotalBeforeTax: 500, TotalAfterTax: 500},
		{TaxRateCode: "0%", TotalBeforeTax: 300, TotalAfterTax: 300},
	}, got)

	assert.Empty(t, SummarizeTax(nil))
}
