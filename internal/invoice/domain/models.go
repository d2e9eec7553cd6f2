// Package domain contains persistence models for warehouse invoices.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// InvoiceKind tells whether goods enter or leave the warehouse.
type InvoiceKind string

const (
	InvoiceKindImport InvoiceKind = "IMPORT"
	InvoiceKindExport InvoiceKind = "EXPORT"
)

func (k InvoiceKind) Valid() bool {
	return k == InvoiceKindImport || k == InvoiceKindExport
}

// InvoiceStatus represents invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"
	InvoiceStatusConfirmed InvoiceStatus = "CONFIRMED"
	InvoiceStatusVoid      InvoiceStatus = "VOID"
)

// Invoice is an Import or Export invoice header.
type Invoice struct {
	ID                   snowflake.ID      `gorm:"primaryKey" json:"id,string"`
	Number               string            `gorm:"type:text;not null;uniqueIndex" json:"number"`
	Kind                 InvoiceKind       `gorm:"type:text;not null;index" json:"kind"`
	Status               InvoiceStatus     `gorm:"type:text;not null;default:'DRAFT'" json:"status"`
	PartnerName          string            `gorm:"type:text;not null" json:"partner_name"`
	WarehouseCode        string            `gorm:"type:text" json:"warehouse_code,omitempty"`
	Note                 string            `gorm:"type:text" json:"note,omitempty"`
	TotalBeforeTax       int64             `gorm:"not null;default:0" json:"total_before_tax"`
	TotalTax             int64             `gorm:"not null;default:0" json:"total_tax"`
	TotalAfterTax        int64             `gorm:"not null;default:0" json:"total_after_tax"`
	TotalsManuallyEdited bool              `gorm:"not null;default:false" json:"totals_manually_edited"`
	Metadata             datatypes.JSONMap `json:"metadata,omitempty"`
	IssuedAt             time.Time         `gorm:"not null" json:"issued_at"`
	ConfirmedAt          *time.Time        `json:"confirmed_at,omitempty"`
	VoidedAt             *time.Time        `json:"voided_at,omitempty"`
	CreatedAt            time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt            time.Time         `gorm:"not null" json:"updated_at"`

	Lines []InvoiceLine `gorm:"-" json:"lines"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// IsDraft reports whether lines and totals may still change.
func (i Invoice) IsDraft() bool { return i.Status == InvoiceStatusDraft }

// InvoiceLine is one row of an invoice.
type InvoiceLine struct {
	ID                 snowflake.ID    `gorm:"primaryKey" json:"id,string"`
	InvoiceID          snowflake.ID    `gorm:"not null;index" json:"invoice_id,string"`
	Position           int             `gorm:"not null" json:"position"`
	ProductName        string          `gorm:"type:text" json:"product_name"`
	Unit               string          `gorm:"type:text" json:"unit,omitempty"`
	Quantity           decimal.Decimal `gorm:"type:numeric(18,3);not null" json:"quantity"`
	UnitPriceBeforeTax decimal.Decimal `gorm:"type:numeric(18,3);not null" json:"unit_price_before_tax"`
	TaxRateCode        string          `gorm:"type:text;not null" json:"tax_rate_code"`
	TotalBeforeTax     int64           `gorm:"not null;default:0" json:"total_before_tax"`
	TaxAmount          int64           `gorm:"not null;default:0" json:"tax_amount"`
	TotalAfterTax      int64           `gorm:"not null;default:0" json:"total_after_tax"`
	ManuallyEdited     bool            `gorm:"not null;default:false" json:"manually_edited"`
	CreatedAt          time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (InvoiceLine) TableName() string { return "invoice_lines" }
