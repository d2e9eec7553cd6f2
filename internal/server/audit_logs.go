package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/warehouse/internal/audit/domain"
)

func (s *Server) ListInvoiceAuditLogs(c *gin.Context) {
	id, ok := invoiceIDParam(c)
	if !ok {
		return
	}

	limit, err := parseOptionalInt(c.Query("limit"))
	if err != nil {
		AbortWithError(c, newValidationError("limit", "invalid_limit", "invalid limit"))
		return
	}
	size := 0
	if limit != nil {
		size = *limit
	}

	items, err := s.auditSvc.ListForTarget(c.Request.Context(), auditdomain.TargetInvoice, id, size)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}
