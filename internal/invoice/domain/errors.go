package domain

import "errors"

var (
	ErrInvalidInvoiceID   = errors.New("invalid_invoice_id")
	ErrInvoiceNotFound    = errors.New("invoice_not_found")
	ErrInvoiceNotDraft    = errors.New("invoice_not_draft")
	ErrInvalidKind        = errors.New("invalid_kind")
	ErrInvalidStatus      = errors.New("invalid_status")
	ErrInvalidPartnerName = errors.New("invalid_partner_name")
	ErrInvalidLineID      = errors.New("invalid_line_id")
	ErrLineNotFound       = errors.New("line_not_found")
	ErrInvalidField       = errors.New("invalid_field")
	ErrEmptyInvoice       = errors.New("empty_invoice")
	ErrInvalidTransition  = errors.New("invalid_status_transition")
)
