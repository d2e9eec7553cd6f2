package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository persists invoices and their lines. Methods taking a *gorm.DB
// run on that handle so callers can group them in one transaction.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	FindForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	List(ctx context.Context, db *gorm.DB, filter ListRequest) ([]Invoice, error)
	UpdateHeader(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	ReplaceLines(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID, lines []InvoiceLine) error
	CountIssuedBetween(ctx context.Context, db *gorm.DB, kind InvoiceKind, from, to time.Time) (int64, error)
}
