package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/smallbiznis/warehouse/internal/invoice/domain"
)

type listInvoicesQuery struct {
	Kind        string `form:"kind"`
	Status      string `form:"status"`
	PartnerName string `form:"partner_name"`
	SortBy      string `form:"sort_by"`
	OrderBy     string `form:"order_by"`
}

type voidInvoiceRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) ListInvoices(c *gin.Context) {
	var query listInvoicesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	items, err := s.invoiceSvc.List(c.Request.Context(), invoicedomain.ListRequest{
		Kind:        invoicedomain.InvoiceKind(query.Kind),
		Status:      invoicedomain.InvoiceStatus(query.Status),
		PartnerName: strings.TrimSpace(query.PartnerName),
		SortBy:      query.SortBy,
		OrderBy:     query.OrderBy,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) CreateInvoice(c *gin.Context) {
	var req invoicedomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	item, err := s.invoiceSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": item})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	id, ok := invoiceIDParam(c)
	if !ok {
		return
	}

	item, err := s.invoiceSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) AddInvoiceLine(c *gin.Context) {
	id, ok := invoiceIDParam(c)
	if !ok {
		return
	}

	var req invoicedomain.LineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	item, err := s.invoiceSvc.AddLine(c.Request.Context(), id, req)
	respondInvoice(c, item, err)
}

func (s *Server) UpdateInvoiceLine(c *gin.Context) {
	id, ok := invoiceIDParam(c)
	if !ok {
		return
	}

	var req invoicedomain.FieldChange
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(string(req.Field)) == "" {
		AbortWithError(c, newValidationError("field", "required", "field is required"))
		return
	}

	item, err := s.invoiceSvc.UpdateLineField(c.Request.Context(), id, c.Param("line_id"), req)
	respondInvoice(c, item, err)
}

func (s *Server) RemoveInvoiceLine(c *gin.Context) {
	id, ok := invoiceIDParam(c)
	if !ok {
		return
	}

	item, err := s.invoiceSvc.RemoveLine(c.Request.Context(), id, c.Param("line_id"))
	respondInvoice(c, item, err)
}

func (s *Server) UpdateInvoiceTotal(c *gin.Context) {
	id, ok := invoiceIDParam(c)
	if !ok {
		return
	}

	var req invoicedomain.FieldChange
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(string(req.Field)) == "" {
		AbortWithError(c, newValidationError("field", "required", "field is required"))
		return
	}

	item, err := s.invoiceSvc.UpdateTotal(c.Request.Context(), id, req)
	respondInvoice(c, item, err)
}

func (s *Server) RecalculateInvoice(c *gin.Context) {
	id, ok := invoiceIDParam(c)
	if !ok {
		return
	}

	item, err := s.invoiceSvc.Recalculate(c.Request.Context(), id)
	respondInvoice(c, item, err)
}

func (s *Server) ConfirmInvoice(c *gin.Context) {
	id, ok := invoiceIDParam(c)
	if !ok {
		return
	}

	item, err := s.invoiceSvc.Confirm(c.Request.Context(), id)
	respondInvoice(c, item, err)
}

func (s *Server) VoidInvoice(c *gin.Context) {
	id, ok := invoiceIDParam(c)
	if !ok {
		return
	}

	var req voidInvoiceRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	item, err := s.invoiceSvc.Void(c.Request.Context(), id, req.Reason)
	respondInvoice(c, item, err)
}

func (s *Server) RenderInvoiceHTML(c *gin.Context) {
	id, ok := invoiceIDParam(c)
	if !ok {
		return
	}

	doc, err := s.renderer.RenderHTML(c.Request.Context(), id)
	respondDocument(c, doc, err, "inline")
}

func (s *Server) RenderInvoicePDF(c *gin.Context) {
	id, ok := invoiceIDParam(c)
	if !ok {
		return
	}

	doc, err := s.renderer.RenderPDF(c.Request.Context(), id)
	respondDocument(c, doc, err, "attachment")
}

func invoiceIDParam(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if !validSnowflakeID(id) {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return "", false
	}
	return id, true
}

func respondInvoice(c *gin.Context, item *invoicedomain.Invoice, err error) {
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": item})
}

func respondDocument(c *gin.Context, doc invoicedomain.Document, err error, disposition string) {
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Header("Content-Disposition", disposition+`; filename="`+doc.FileName+`"`)
	c.Data(http.StatusOK, doc.ContentType, doc.Body)
}
