package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/warehouse/internal/audit/domain"
	invoicedomain "github.com/smallbiznis/warehouse/internal/invoice/domain"
	"github.com/smallbiznis/warehouse/internal/ratelimit"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrRateLimited    = errors.New("rate_limited")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

// errorClass maps a set of sentinel errors onto one HTTP response shape.
type errorClass struct {
	status  int
	typ     string
	matches []error
	message func(error) string
}

func fixed(msg string) func(error) string {
	return func(error) string { return msg }
}

var errorClasses = []errorClass{
	{
		status: http.StatusBadRequest,
		typ:    "validation_error",
		matches: []error{
			ErrInvalidRequest,
			invoicedomain.ErrInvalidInvoiceID,
			invoicedomain.ErrInvalidKind,
			invoicedomain.ErrInvalidPartnerName,
			invoicedomain.ErrInvalidLineID,
			invoicedomain.ErrInvalidStatus,
			invoicedomain.ErrInvalidField,
			auditdomain.ErrInvalidTarget,
		},
		message: fixed("validation error"),
	},
	{
		status: http.StatusConflict,
		typ:    "conflict",
		matches: []error{
			invoicedomain.ErrInvoiceNotDraft,
			invoicedomain.ErrInvalidTransition,
			invoicedomain.ErrEmptyInvoice,
			gorm.ErrDuplicatedKey,
		},
		message: conflictMessage,
	},
	{
		status: http.StatusNotFound,
		typ:    "not_found",
		matches: []error{
			ErrNotFound,
			invoicedomain.ErrInvoiceNotFound,
			invoicedomain.ErrLineNotFound,
			gorm.ErrRecordNotFound,
		},
		message: fixed("not found"),
	},
	{
		status:  http.StatusTooManyRequests,
		typ:     "rate_limited",
		matches: []error{ErrRateLimited},
		message: fixed("too many requests"),
	},
	{
		status:  http.StatusServiceUnavailable,
		typ:     "service_unavailable",
		matches: []error{ratelimit.ErrLockTimeout},
		message: fixed("service unavailable"),
	},
}

// match returns the sentinel err wraps, if it belongs to the class.
func (ec errorClass) match(err error) error {
	for _, target := range ec.matches {
		if errors.Is(err, target) {
			return target
		}
	}
	return nil
}

func mapError(err error) (int, errorPayload) {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if err != nil {
		for _, ec := range errorClasses {
			sentinel := ec.match(err)
			if sentinel == nil {
				continue
			}
			payload := errorPayload{Type: ec.typ, Message: ec.message(err)}
			if ec.status == http.StatusBadRequest {
				payload.Errors = []ValidationError{sentinelValidationError(sentinel)}
			}
			return ec.status, payload
		}
	}

	return http.StatusInternalServerError, errorPayload{
		Type:    "internal_error",
		Message: "internal server error",
	}
}

// sentinelValidationError derives field and code from a sentinel such as
// "invalid_partner_name".
func sentinelValidationError(sentinel error) ValidationError {
	if sentinel == ErrInvalidRequest {
		return ValidationError{Field: "request", Code: "invalid_request", Message: "invalid request"}
	}
	code := sentinel.Error()
	return ValidationError{
		Field:   strings.TrimPrefix(code, "invalid_"),
		Code:    code,
		Message: "invalid value",
	}
}

// classifyErrorForLog feeds the request logger with the mapped error type.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	} else if err != nil {
		code = err.Error()
	}
	return payload.Type, code
}

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, invoicedomain.ErrInvoiceNotDraft):
		return "invoice is not a draft"
	case errors.Is(err, invoicedomain.ErrInvalidTransition):
		return "invalid status transition"
	case errors.Is(err, invoicedomain.ErrEmptyInvoice):
		return "invoice has no lines"
	default:
		return "conflict"
	}
}
