package domain

// TaxSummary groups line amounts of one tax-rate code.
// KCT and "0%" are reported on separate rows.
type TaxSummary struct {
	TaxRateCode    string `json:"tax_rate_code"`
	TotalBeforeTax int64  `json:"total_before_tax"`
	TaxAmount      int64  `json:"tax_amount"`
	TotalAfterTax  int64  `json:"total_after_tax"`
}

// SummarizeTax groups lines by tax-rate code in order of first appearance.
func SummarizeTax(lines []InvoiceLine) []TaxSummary {
	out := make([]TaxSummary, 0)
	index := map[string]int{}
	for _, line := range lines {
		i, ok := index[line.TaxRateCode]
		if !ok {
			i = len(out)
			index[line.TaxRateCode] = i
			out = append(out, TaxSummary{TaxRateCode: line.TaxRateCode})
		}
		out[i].TotalBeforeTax += line.TotalBeforeTax
		out[i].TaxAmount += line.TaxAmount
		out[i].TotalAfterTax += line.TotalAfterTax
	}
	return out
}
