// Package format renders invoice numbers and amounts for display.
package format

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/warehouse/internal/invoice/domain"
)

var seqPadRe = regexp.MustCompile(`\{SEQ(\d+)\}`)

const (
	ImportNumberTemplate = "IMP-{YYYY}{MM}{DD}-{SEQ6}"
	ExportNumberTemplate = "EXP-{YYYY}{MM}{DD}-{SEQ6}"
)

var (
	ErrEmptyTemplate   = errors.New("invoice number template is empty")
	ErrInvalidSequence = errors.New("invalid invoice sequence")
)

// NumberTemplate returns the numbering template of an invoice kind.
func NumberTemplate(kind domain.InvoiceKind) (string, error) {
	switch kind {
	case domain.InvoiceKindImport:
		return ImportNumberTemplate, nil
	case domain.InvoiceKindExport:
		return ExportNumberTemplate, nil
	default:
		return "", domain.ErrInvalidKind
	}
}

// FormatInvoiceNumber expands template tokens {YYYY} {YY} {MM} {DD} {SEQ}
// and {SEQn}. It has no side effects.
func FormatInvoiceNumber(template string, issuedAt time.Time, seq int64) (string, error) {
	if template == "" {
		return "", ErrEmptyTemplate
	}
	if seq <= 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidSequence, seq)
	}

	replacer := strings.NewReplacer(
		"{YYYY}", issuedAt.Format("2006"),
		"{YY}", issuedAt.Format("06"),
		"{MM}", issuedAt.Format("01"),
		"{DD}", issuedAt.Format("02"),
		"{SEQ}", strconv.FormatInt(seq, 10),
	)
	out := replacer.Replace(template)

	out = seqPadRe.ReplaceAllStringFunc(out, func(m string) string {
		width, err := strconv.Atoi(seqPadRe.FindStringSubmatch(m)[1])
		if err != nil || width <= 0 {
			return m
		}
		return fmt.Sprintf("%0*d", width, seq)
	})

	if strings.ContainsAny(out, "{}") {
		return "", fmt.Errorf("unresolved token in invoice format: %s", out)
	}
	return out, nil
}

// Money renders an integer amount with "," thousands separators.
func Money(amount int64) string {
	sign := ""
	digits := strconv.FormatInt(amount, 10)
	if amount < 0 {
		sign = "-"
		digits = digits[1:]
	}
	return sign + group(digits)
}

// Quantity renders a decimal with grouped integer digits and without
// trailing fractional zeros.
func Quantity(d decimal.Decimal) string {
	s := d.String()
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")
	out := sign + group(intPart)
	if hasFrac {
		out += "." + frac
	}
	return out
}

func group(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
