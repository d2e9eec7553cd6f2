package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/warehouse/internal/audit/domain"
	"github.com/smallbiznis/warehouse/internal/clock"
	"github.com/smallbiznis/warehouse/internal/config"
	invoicedomain "github.com/smallbiznis/warehouse/internal/invoice/domain"
	invoiceformat "github.com/smallbiznis/warehouse/internal/invoice/format"
	"github.com/smallbiznis/warehouse/internal/linecalc"
	"github.com/smallbiznis/warehouse/internal/observability/metrics"
	"github.com/smallbiznis/warehouse/internal/observability/tracing"
	"github.com/smallbiznis/warehouse/pkg/db"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxNumberAttempts = 3

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Config   config.Config
	TaxRates *config.TaxRatesHolder `optional:"true"`
	Repo     invoicedomain.Repository
	AuditSvc auditdomain.Service
	Locker   invoicedomain.NumberLocker `optional:"true"`
	Metrics  *metrics.Metrics           `optional:"true"`
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID    *snowflake.Node
	clock    clock.Clock
	location *time.Location
	taxRates *config.TaxRatesHolder
	repo     invoicedomain.Repository
	auditSvc auditdomain.Service
	locker   invoicedomain.NumberLocker
	metrics  *metrics.Metrics
}

func NewService(p ServiceParam) invoicedomain.Service {
	loc := p.Config.IssueLocation
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("invoice.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		location: loc,
		taxRates: p.TaxRates,
		repo:     p.Repo,
		auditSvc: p.AuditSvc,
		locker:   p.Locker,
		metrics:  p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req invoicedomain.CreateRequest) (*invoicedomain.Invoice, error) {
	kind := invoicedomain.InvoiceKind(strings.ToUpper(strings.TrimSpace(string(req.Kind))))
	if !kind.Valid() {
		return nil, invoicedomain.ErrInvalidKind
	}
	partner := strings.TrimSpace(req.PartnerName)
	if partner == "" {
		return nil, invoicedomain.ErrInvalidPartnerName
	}

	ctx, span := tracing.StartSpan(ctx, "invoice.create", attribute.String("invoice.kind", string(kind)))

	now := s.clock.Now()
	invoice := &invoicedomain.Invoice{
		ID:            s.genID.Generate(),
		Kind:          kind,
		Status:        invoicedomain.InvoiceStatusDraft,
		PartnerName:   partner,
		WarehouseCode: strings.TrimSpace(req.WarehouseCode),
		Note:          strings.TrimSpace(req.Note),
		Metadata:      req.Metadata,
		IssuedAt:      now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	calc := linecalc.Invoice{}
	for _, line := range req.Lines {
		next, err := s.addLine(ctx, invoice, calc, line)
		if err != nil {
			tracing.EndSpan(span, err)
			return nil, err
		}
		calc = next
	}
	applyCalc(invoice, calc)

	if s.locker != nil {
		key := fmt.Sprintf("warehouse:invoice:number:%s:%s", kind, now.In(s.location).Format("20060102"))
		unlock, err := s.locker.Lock(ctx, key)
		if err != nil {
			tracing.EndSpan(span, err)
			return nil, fmt.Errorf("lock invoice number: %w", err)
		}
		defer unlock()
	}

	var err error
	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			number, err := s.nextNumber(ctx, tx, kind, now)
			if err != nil {
				return err
			}
			invoice.Number = number
			if err := s.repo.Insert(ctx, tx, invoice); err != nil {
				return err
			}
			s.auditSvc.Record(ctx, tx, auditdomain.ActionInvoiceCreated, auditdomain.TargetInvoice, invoice.ID.String(), map[string]any{
				"number":          invoice.Number,
				"kind":            string(invoice.Kind),
				"line_count":      len(invoice.Lines),
				"total_after_tax": invoice.TotalAfterTax,
			})
			return nil
		})
		if err == nil || !db.IsRetryable(err) {
			break
		}
		s.log.Warn("invoice number allocation conflict, retrying",
			zap.String("number", invoice.Number),
			zap.Int("attempt", attempt),
		)
	}
	tracing.EndSpan(span, err)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordMutation(ctx, "create", string(kind))
	return invoice, nil
}

func (s *Service) Get(ctx context.Context, id string) (*invoicedomain.Invoice, error) {
	invoiceID, err := parseID(id)
	if err != nil {
		return nil, invoicedomain.ErrInvalidInvoiceID
	}

	invoice, err := s.repo.FindByID(ctx, s.db, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, invoicedomain.ErrInvoiceNotFound
	}
	return invoice, nil
}

func (s *Service) List(ctx context.Context, req invoicedomain.ListRequest) ([]invoicedomain.Invoice, error) {
	req.Kind = invoicedomain.InvoiceKind(strings.ToUpper(strings.TrimSpace(string(req.Kind))))
	if req.Kind != "" && !req.Kind.Valid() {
		return nil, invoicedomain.ErrInvalidKind
	}
	req.Status = invoicedomain.InvoiceStatus(strings.ToUpper(strings.TrimSpace(string(req.Status))))
	switch req.Status {
	case "", invoicedomain.InvoiceStatusDraft, invoicedomain.InvoiceStatusConfirmed, invoicedomain.InvoiceStatusVoid:
	default:
		return nil, invoicedomain.ErrInvalidStatus
	}

	return s.repo.List(ctx, s.db, req)
}

func (s *Service) AddLine(ctx context.Context, invoiceID string, req invoicedomain.LineRequest) (*invoicedomain.Invoice, error) {
	return s.mutate(ctx, "add_line", invoiceID, true, func(tx *gorm.DB, invoice *invoicedomain.Invoice) ([]auditEntry, error) {
		next, err := s.addLine(ctx, invoice, toCalc(invoice), req)
		if err != nil {
			return nil, err
		}
		applyCalc(invoice, next)
		return nil, nil
	})
}

func (s *Service) RemoveLine(ctx context.Context, invoiceID, lineID string) (*invoicedomain.Invoice, error) {
	return s.mutate(ctx, "remove_line", invoiceID, true, func(tx *gorm.DB, invoice *invoicedomain.Invoice) ([]auditEntry, error) {
		index, err := lineIndex(invoice, lineID)
		if err != nil {
			return nil, err
		}
		calc, err := linecalc.Reduce(toCalc(invoice), linecalc.Event{
			Kind:      linecalc.EventLineRemoved,
			LineIndex: index,
		})
		if err != nil {
			return nil, err
		}
		invoice.Lines = append(invoice.Lines[:index], invoice.Lines[index+1:]...)
		applyCalc(invoice, calc)
		return nil, nil
	})
}

func (s *Service) UpdateLineField(ctx context.Context, invoiceID, lineID string, req invoicedomain.FieldChange) (*invoicedomain.Invoice, error) {
	field := linecalc.Field(strings.TrimSpace(string(req.Field)))
	return s.mutate(ctx, "update_line", invoiceID, true, func(tx *gorm.DB, invoice *invoicedomain.Invoice) ([]auditEntry, error) {
		index, err := lineIndex(invoice, lineID)
		if err != nil {
			return nil, err
		}
		line := &invoice.Lines[index]

		switch {
		case field == invoicedomain.FieldProductName:
			line.ProductName = strings.TrimSpace(req.Value)
			return nil, nil
		case field == invoicedomain.FieldUnit:
			line.Unit = strings.TrimSpace(req.Value)
			return nil, nil
		case !field.IsLineInput() && !field.IsLineTotal():
			return nil, invoicedomain.ErrInvalidField
		}

		if field == linecalc.FieldTaxRateCode {
			s.checkTaxRate(ctx, req.Value)
		}

		calc, err := linecalc.Reduce(toCalc(invoice), linecalc.Event{
			Kind:      linecalc.EventLineFieldChanged,
			LineIndex: index,
			Field:     field,
			Value:     req.Value,
		})
		if err != nil {
			return nil, reducerError(err)
		}
		applyCalc(invoice, calc)

		if !field.IsLineTotal() {
			return nil, nil
		}
		s.metrics.RecordLineOverride(ctx, string(field))
		return []auditEntry{{
			action: auditdomain.ActionInvoiceLineTotalOverride,
			metadata: map[string]any{
				"line_id":  line.ID.String(),
				"position": line.Position,
				"field":    string(field),
				"value":    linecalc.ParseAmount(req.Value),
			},
		}}, nil
	})
}

func (s *Service) UpdateTotal(ctx context.Context, invoiceID string, req invoicedomain.FieldChange) (*invoicedomain.Invoice, error) {
	field := linecalc.Field(strings.TrimSpace(string(req.Field)))
	if !field.IsInvoiceTotal() {
		return nil, invoicedomain.ErrInvalidField
	}

	return s.mutate(ctx, "update_total", invoiceID, true, func(tx *gorm.DB, invoice *invoicedomain.Invoice) ([]auditEntry, error) {
		previous := totalsOf(invoice)
		calc, err := linecalc.Reduce(toCalc(invoice), linecalc.Event{
			Kind:  linecalc.EventInvoiceTotalChanged,
			Field: field,
			Value: req.Value,
		})
		if err != nil {
			return nil, reducerError(err)
		}
		applyCalc(invoice, calc)

		s.metrics.RecordTotalOverride(ctx, string(field))
		return []auditEntry{{
			action: auditdomain.ActionInvoiceTotalOverride,
			metadata: map[string]any{
				"field":           string(field),
				"value":           linecalc.ParseAmount(req.Value),
				"previous_totals": previous,
			},
		}}, nil
	})
}

func (s *Service) Recalculate(ctx context.Context, invoiceID string) (*invoicedomain.Invoice, error) {
	return s.mutate(ctx, "recalculate", invoiceID, true, func(tx *gorm.DB, invoice *invoicedomain.Invoice) ([]auditEntry, error) {
		previous := totalsOf(invoice)
		cleared := 0
		for _, line := range invoice.Lines {
			if line.ManuallyEdited {
				cleared++
			}
		}

		calc, err := linecalc.Reduce(toCalc(invoice), linecalc.Event{Kind: linecalc.EventRecalculateAll})
		if err != nil {
			return nil, err
		}
		applyCalc(invoice, calc)

		s.metrics.RecordRecalculation(ctx, string(invoice.Kind))
		return []auditEntry{{
			action: auditdomain.ActionInvoiceRecalculated,
			metadata: map[string]any{
				"previous_totals":        previous,
				"totals":                 totalsOf(invoice),
				"cleared_line_overrides": cleared,
			},
		}}, nil
	})
}

func (s *Service) Confirm(ctx context.Context, id string) (*invoicedomain.Invoice, error) {
	return s.mutate(ctx, "confirm", id, true, func(tx *gorm.DB, invoice *invoicedomain.Invoice) ([]auditEntry, error) {
		if len(invoice.Lines) == 0 {
			return nil, invoicedomain.ErrEmptyInvoice
		}
		now := s.clock.Now()
		invoice.Status = invoicedomain.InvoiceStatusConfirmed
		invoice.ConfirmedAt = &now
		return []auditEntry{{
			action: auditdomain.ActionInvoiceConfirmed,
			metadata: map[string]any{
				"previous_status": string(invoicedomain.InvoiceStatusDraft),
				"totals":          totalsOf(invoice),
			},
		}}, nil
	})
}

func (s *Service) Void(ctx context.Context, id string, reason string) (*invoicedomain.Invoice, error) {
	return s.mutate(ctx, "void", id, false, func(tx *gorm.DB, invoice *invoicedomain.Invoice) ([]auditEntry, error) {
		if invoice.Status == invoicedomain.InvoiceStatusVoid {
			return nil, invoicedomain.ErrInvalidTransition
		}
		previous := invoice.Status
		now := s.clock.Now()
		invoice.Status = invoicedomain.InvoiceStatusVoid
		invoice.VoidedAt = &now

		metadata := map[string]any{"previous_status": string(previous)}
		if reason = strings.TrimSpace(reason); reason != "" {
			metadata["reason"] = reason
			if invoice.Metadata == nil {
				invoice.Metadata = map[string]any{}
			}
			invoice.Metadata["void_reason"] = reason
		}
		return []auditEntry{{action: auditdomain.ActionInvoiceVoided, metadata: metadata}}, nil
	})
}

// Preview computes line totals without touching any invoice.
func (s *Service) Preview(ctx context.Context, req invoicedomain.LineRequest) (linecalc.Totals, error) {
	s.checkTaxRate(ctx, req.TaxRateCode)
	return linecalc.ComputeLineTotalsInput(req.Quantity, req.UnitPriceBeforeTax, req.TaxRateCode), nil
}

type auditEntry struct {
	action   string
	metadata map[string]any
}

type mutation func(tx *gorm.DB, invoice *invoicedomain.Invoice) ([]auditEntry, error)

// mutate loads the invoice under a row lock, applies fn and persists the
// header, the lines and the audit entries in one transaction.
func (s *Service) mutate(ctx context.Context, operation, invoiceID string, requireDraft bool, fn mutation) (*invoicedomain.Invoice, error) {
	id, err := parseID(invoiceID)
	if err != nil {
		return nil, invoicedomain.ErrInvalidInvoiceID
	}

	ctx, span := tracing.StartSpan(ctx, "invoice."+operation, attribute.String("invoice.id", id.String()))

	var updated *invoicedomain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.repo.FindForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if invoice == nil {
			return invoicedomain.ErrInvoiceNotFound
		}
		if requireDraft && !invoice.IsDraft() {
			return invoicedomain.ErrInvoiceNotDraft
		}

		entries, err := fn(tx, invoice)
		if err != nil {
			return err
		}

		invoice.UpdatedAt = s.clock.Now()
		if err := s.repo.UpdateHeader(ctx, tx, invoice); err != nil {
			return err
		}
		if err := s.repo.ReplaceLines(ctx, tx, invoice.ID, invoice.Lines); err != nil {
			return err
		}
		for _, entry := range entries {
			s.auditSvc.Record(ctx, tx, entry.action, auditdomain.TargetInvoice, invoice.ID.String(), entry.metadata)
		}
		updated = invoice
		return nil
	})
	tracing.EndSpan(span, err)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordMutation(ctx, operation, string(updated.Kind))
	return updated, nil
}

// addLine appends req to both the persisted lines and the calculation state.
func (s *Service) addLine(ctx context.Context, invoice *invoicedomain.Invoice, calc linecalc.Invoice, req invoicedomain.LineRequest) (linecalc.Invoice, error) {
	s.checkTaxRate(ctx, req.TaxRateCode)

	next, err := linecalc.Reduce(calc, linecalc.Event{
		Kind: linecalc.EventLineAdded,
		Line: linecalc.LineInput{
			Quantity:           req.Quantity,
			UnitPriceBeforeTax: req.UnitPriceBeforeTax,
			TaxRateCode:        req.TaxRateCode,
		},
	})
	if err != nil {
		return calc, reducerError(err)
	}

	now := s.clock.Now()
	invoice.Lines = append(invoice.Lines, invoicedomain.InvoiceLine{
		ID:          s.genID.Generate(),
		InvoiceID:   invoice.ID,
		ProductName: strings.TrimSpace(req.ProductName),
		Unit:        strings.TrimSpace(req.Unit),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	return next, nil
}

func (s *Service) nextNumber(ctx context.Context, tx *gorm.DB, kind invoicedomain.InvoiceKind, issuedAt time.Time) (string, error) {
	local := issuedAt.In(s.location)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.location)

	count, err := s.repo.CountIssuedBetween(ctx, tx, kind, dayStart.UTC(), dayStart.AddDate(0, 0, 1).UTC())
	if err != nil {
		return "", fmt.Errorf("count issued invoices: %w", err)
	}

	template, err := invoiceformat.NumberTemplate(kind)
	if err != nil {
		return "", err
	}
	return invoiceformat.FormatInvoiceNumber(template, local, count+1)
}

// checkTaxRate logs codes missing from the catalogue. They are still
// accepted; the rate is read from the code itself or taken as 0.
func (s *Service) checkTaxRate(ctx context.Context, code string) {
	code = strings.TrimSpace(code)
	if s.taxRates == nil || code == "" || s.taxRates.Contains(code) {
		return
	}
	s.log.Warn("tax rate code not in catalogue",
		zap.String("tax_rate_code", code),
		zap.String("effective_rate", linecalc.TaxRateCode(code).Rate().String()),
	)
}

func toCalc(invoice *invoicedomain.Invoice) linecalc.Invoice {
	calc := linecalc.Invoice{
		Lines:          make([]linecalc.LineItem, 0, len(invoice.Lines)),
		TotalBeforeTax: invoice.TotalBeforeTax,
		TotalTax:       invoice.TotalTax,
		TotalAfterTax:  invoice.TotalAfterTax,
		TotalsOverride: linecalc.OverrideFromFlag(invoice.TotalsManuallyEdited),
	}
	for _, line := range invoice.Lines {
		calc.Lines = append(calc.Lines, linecalc.LineItem{
			Quantity:           line.Quantity,
			UnitPriceBeforeTax: line.UnitPriceBeforeTax,
			TaxRateCode:        linecalc.TaxRateCode(line.TaxRateCode),
			TotalBeforeTax:     line.TotalBeforeTax,
			TaxAmount:          line.TaxAmount,
			TotalAfterTax:      line.TotalAfterTax,
			Override:           linecalc.OverrideFromFlag(line.ManuallyEdited),
		})
	}
	return calc
}

// applyCalc copies calculation results back; lines are matched by index.
func applyCalc(invoice *invoicedomain.Invoice, calc linecalc.Invoice) {
	for i := range invoice.Lines {
		if i >= len(calc.Lines) {
			break
		}
		src := calc.Lines[i]
		line := &invoice.Lines[i]
		line.Position = i + 1
		line.Quantity = src.Quantity
		line.UnitPriceBeforeTax = src.UnitPriceBeforeTax
		line.TaxRateCode = string(src.TaxRateCode)
		line.TotalBeforeTax = src.TotalBeforeTax
		line.TaxAmount = src.TaxAmount
		line.TotalAfterTax = src.TotalAfterTax
		line.ManuallyEdited = src.ManuallyEdited()
	}
	invoice.TotalBeforeTax = calc.TotalBeforeTax
	invoice.TotalTax = calc.TotalTax
	invoice.TotalAfterTax = calc.TotalAfterTax
	invoice.TotalsManuallyEdited = calc.TotalsManuallyEdited()
}

func totalsOf(invoice *invoicedomain.Invoice) map[string]any {
	return map[string]any{
		"total_before_tax": invoice.TotalBeforeTax,
		"total_tax":        invoice.TotalTax,
		"total_after_tax":  invoice.TotalAfterTax,
	}
}

func lineIndex(invoice *invoicedomain.Invoice, lineID string) (int, error) {
	id, err := parseID(lineID)
	if err != nil {
		return 0, invoicedomain.ErrInvalidLineID
	}
	for i, line := range invoice.Lines {
		if line.ID == id {
			return i, nil
		}
	}
	return 0, invoicedomain.ErrLineNotFound
}

func reducerError(err error) error {
	if errors.Is(err, linecalc.ErrUnknownField) {
		return invoicedomain.ErrInvalidField
	}
	return err
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, errors.New("invalid_id")
	}
	return id, nil
}
