package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/smallbiznis/warehouse/internal/invoice/domain"
)

func (s *Server) ListTaxRates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.taxRates.Get()})
}

// CalculateLine previews the totals of one line without saving anything.
func (s *Server) CalculateLine(c *gin.Context) {
	var req invoicedomain.LineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	totals, err := s.invoiceSvc.Preview(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": totals})
}
