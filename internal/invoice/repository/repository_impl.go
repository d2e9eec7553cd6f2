package repository

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/warehouse/internal/invoice/domain"
	"github.com/smallbiznis/warehouse/pkg/db/option"
	"github.com/smallbiznis/warehouse/pkg/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

var listSortColumns = map[string]bool{
	"created_at":      true,
	"issued_at":       true,
	"number":          true,
	"partner_name":    true,
	"total_after_tax": true,
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	if err := repository.ProvideStore[domain.Invoice](db).Create(ctx, invoice); err != nil {
		return err
	}
	return r.insertLines(ctx, db, invoice.Lines)
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Invoice, error) {
	return r.load(ctx, db, id, false)
}

// FindForUpdate locks the invoice row until the surrounding transaction ends.
func (r *repo) FindForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Invoice, error) {
	return r.load(ctx, db, id, true)
}

func (r *repo) load(ctx context.Context, db *gorm.DB, id snowflake.ID, lock bool) (*domain.Invoice, error) {
	var opts []option.QueryOption
	if lock && db.Dialector.Name() != "sqlite" {
		opts = append(opts, forUpdate{})
	}

	invoice, err := repository.ProvideStore[domain.Invoice](db).FindOne(ctx, &domain.Invoice{ID: id}, opts...)
	if err != nil || invoice == nil {
		return nil, err
	}

	lines, err := repository.ProvideStore[domain.InvoiceLine](db).Find(ctx,
		&domain.InvoiceLine{InvoiceID: id},
		option.WithSortBy(option.WithQuerySortBy("position", "asc", map[string]bool{"position": true})),
	)
	if err != nil {
		return nil, err
	}

	invoice.Lines = make([]domain.InvoiceLine, 0, len(lines))
	for _, line := range lines {
		invoice.Lines = append(invoice.Lines, *line)
	}
	return invoice, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListRequest) ([]domain.Invoice, error) {
	query := &domain.Invoice{
		Kind:   filter.Kind,
		Status: filter.Status,
	}

	opts := []option.QueryOption{
		option.WithSortBy(option.WithQuerySortBy(filter.SortBy, filter.OrderBy, listSortColumns)),
	}
	if partner := strings.TrimSpace(filter.PartnerName); partner != "" {
		opts = append(opts, partnerLike(partner))
	}

	items, err := repository.ProvideStore[domain.Invoice](db).Find(ctx, query, opts...)
	if err != nil {
		return nil, err
	}

	invoices := make([]domain.Invoice, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		invoices = append(invoices, *item)
	}
	return invoices, nil
}

var headerColumns = []string{
	"status",
	"total_before_tax",
	"total_tax",
	"total_after_tax",
	"totals_manually_edited",
	"metadata",
	"confirmed_at",
	"voided_at",
	"updated_at",
}

func (r *repo) UpdateHeader(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return repository.ProvideStore[domain.Invoice](db).
		UpdateColumns(ctx, &domain.Invoice{ID: invoice.ID}, invoice, headerColumns...)
}

// ReplaceLines rewrites the whole line set of an invoice in position order.
func (r *repo) ReplaceLines(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID, lines []domain.InvoiceLine) error {
	err := repository.ProvideStore[domain.InvoiceLine](db).DeleteWhere(ctx, &domain.InvoiceLine{InvoiceID: invoiceID})
	if err != nil {
		return err
	}
	return r.insertLines(ctx, db, lines)
}

func (r *repo) CountIssuedBetween(ctx context.Context, db *gorm.DB, kind domain.InvoiceKind, from, to time.Time) (int64, error) {
	return repository.ProvideStore[domain.Invoice](db).Count(ctx,
		&domain.Invoice{Kind: kind},
		option.ApplyOperator(option.Condition{Field: "issued_at", Operator: option.GTE, Value: from}),
		option.ApplyOperator(option.Condition{Field: "issued_at", Operator: option.LT, Value: to}),
	)
}

func (r *repo) insertLines(ctx context.Context, db *gorm.DB, lines []domain.InvoiceLine) error {
	rows := make([]*domain.InvoiceLine, 0, len(lines))
	for i := range lines {
		rows = append(rows, &lines[i])
	}
	return repository.ProvideStore[domain.InvoiceLine](db).BatchCreate(ctx, rows)
}

type forUpdate struct{}

func (forUpdate) Apply(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

type partnerLike string

func (p partnerLike) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("LOWER(partner_name) LIKE ?", "%"+strings.ToLower(string(p))+"%")
}
