package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ActionInvoiceCreated           = "invoice.created"
	ActionInvoiceLineTotalOverride = "invoice.line.total_overridden"
	ActionInvoiceTotalOverride     = "invoice.total_overridden"
	ActionInvoiceRecalculated      = "invoice.recalculated"
	ActionInvoiceConfirmed         = "invoice.confirmed"
	ActionInvoiceVoided            = "invoice.voided"

	TargetInvoice = "invoice"
)

type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id,string"`
	Action     string            `gorm:"type:text;not null;index" json:"action"`
	TargetType string            `gorm:"type:text;not null" json:"target_type"`
	TargetID   string            `gorm:"type:text;not null;index" json:"target_id"`
	Metadata   datatypes.JSONMap `json:"metadata,omitempty"`
	IPAddress  *string           `gorm:"type:text" json:"ip_address,omitempty"`
	UserAgent  *string           `gorm:"type:text" json:"user_agent,omitempty"`
	CreatedAt  time.Time         `gorm:"not null" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }

type ListFilter struct {
	TargetType string
	TargetID   string
	Limit      int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *AuditLog) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]AuditLog, error)
}

type Service interface {
	// Record writes an entry on db, which may be an open transaction.
	// Failures are logged and never returned to the caller's flow.
	Record(ctx context.Context, db *gorm.DB, action, targetType, targetID string, metadata map[string]any)
	ListForTarget(ctx context.Context, targetType, targetID string, limit int) ([]AuditLog, error)
}

var (
	ErrInvalidAction = errors.New("invalid_action")
	ErrInvalidTarget = errors.New("invalid_target")
)
