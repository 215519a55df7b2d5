package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/agensea/agency-nexus-flow/internal/dto"
	apierrors "github.com/agensea/agency-nexus-flow/internal/errors"
	"github.com/agensea/agency-nexus-flow/internal/models"
	"github.com/agensea/agency-nexus-flow/internal/services"
	"github.com/agensea/agency-nexus-flow/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type InvoiceHandler struct {
	invoiceService *services.InvoiceService
}

func NewInvoiceHandler(invoiceService *services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
	}
}

type invoiceItemRequest struct {
	Description string  `json:"description" binding:"required,max=1000"`
	Quantity    float64 `json:"quantity" binding:"gt=0"`
	UnitPrice   float64 `json:"unit_price" binding:"gte=0"`
}

func toItemInputs(items []invoiceItemRequest) []services.InvoiceItemInput {
	if items == nil {
		return nil
	}
	inputs := make([]services.InvoiceItemInput, len(items))
	for i, item := range items {
		inputs[i] = services.InvoiceItemInput{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		}
	}
	return inputs
}

// ListInvoices lists invoices. Filters: status, client_id
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	orgID, ok := requireOrganizationID(c)
	if !ok {
		return
	}
	clientID, ok := parseOptionalUint(c, "client_id")
	if !ok {
		return
	}

	var status *models.InvoiceStatus
	if raw := c.Query("status"); raw != "" {
		s := models.InvoiceStatus(raw)
		status = &s
	}
	params := utils.GetPaginationParams(c)

	invoices, total, err := h.invoiceService.ListInvoices(c.Request.Context(), services.ListInvoicesInput{
		OrganizationID: orgID,
		Status:         status,
		ClientID:       clientID,
		Page:           params.Page,
		PageSize:       params.PageSize,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"invoices":   invoices,
		"pagination": dto.NewPageMeta(params.Page, params.PageSize, total),
	})
}

// CreateInvoice creates an invoice with its line items
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	orgID, ok := requireOrganizationID(c)
	if !ok {
		return
	}

	type CreateInvoiceRequest struct {
		ClientID  uint64               `json:"client_id" binding:"required"`
		Number    string               `json:"number" binding:"max=50"`
		Status    models.InvoiceStatus `json:"status"`
		IssueDate *time.Time           `json:"issue_date"`
		DueDate   *time.Time           `json:"due_date"`
		Currency  string               `json:"currency"`
		Discount  float64              `json:"discount"`
		TaxRate   float64              `json:"tax_rate"`
		Notes     string               `json:"notes" binding:"max=10000"`
		Items     []invoiceItemRequest `json:"items" binding:"required,min=1,dive"`
	}

	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), services.CreateInvoiceInput{
		OrganizationID: orgID,
		CreatorID:      userID,
		ClientID:       req.ClientID,
		Number:         req.Number,
		Status:         req.Status,
		IssueDate:      req.IssueDate,
		DueDate:        req.DueDate,
		Currency:       req.Currency,
		Discount:       req.Discount,
		TaxRate:        req.TaxRate,
		Notes:          req.Notes,
		Items:          toItemInputs(req.Items),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, invoice)
}

// GetInvoice returns an invoice with its items and client
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	orgID, ok := requireOrganizationID(c)
	if !ok {
		return
	}
	invoiceID, ok := parseIDParam(c, "invoice_id", "invoice ID")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), orgID, invoiceID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, invoice)
}

// UpdateInvoice patches an invoice; items, when present, replace the stored ones
func (h *InvoiceHandler) UpdateInvoice(c *gin.Context) {
	orgID, ok := requireOrganizationID(c)
	if !ok {
		return
	}
	invoiceID, ok := parseIDParam(c, "invoice_id", "invoice ID")
	if !ok {
		return
	}

	type UpdateInvoiceRequest struct {
		ClientID  *uint64               `json:"client_id"`
		Number    *string               `json:"number" binding:"omitempty,max=50"`
		Status    *models.InvoiceStatus `json:"status"`
		IssueDate *time.Time            `json:"issue_date"`
		DueDate   *time.Time            `json:"due_date"`
		Currency  *string               `json:"currency"`
		Discount  *float64              `json:"discount"`
		TaxRate   *float64              `json:"tax_rate"`
		Notes     *string               `json:"notes" binding:"omitempty,max=10000"`
		Items     []invoiceItemRequest  `json:"items" binding:"omitempty,dive"`
	}

	var req UpdateInvoiceRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	var raw map[string]any
	if err := c.ShouldBindBodyWith(&raw, binding.JSON); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	dueDate, hasDueDate := raw["due_date"]

	invoice, err := h.invoiceService.UpdateInvoice(c.Request.Context(), orgID, invoiceID, services.UpdateInvoiceInput{
		ClientID:     req.ClientID,
		Number:       req.Number,
		Status:       req.Status,
		IssueDate:    req.IssueDate,
		DueDate:      req.DueDate,
		ClearDueDate: hasDueDate && dueDate == nil,
		Currency:     req.Currency,
		Discount:     req.Discount,
		TaxRate:      req.TaxRate,
		Notes:        req.Notes,
		Items:        toItemInputs(req.Items),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, invoice)
}

// UpdateInvoiceStatus moves an invoice to another status
func (h *InvoiceHandler) UpdateInvoiceStatus(c *gin.Context) {
	orgID, ok := requireOrganizationID(c)
	if !ok {
		return
	}
	invoiceID, ok := parseIDParam(c, "invoice_id", "invoice ID")
	if !ok {
		return
	}

	type UpdateStatusRequest struct {
		Status models.InvoiceStatus `json:"status" binding:"required"`
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	invoice, err := h.invoiceService.UpdateInvoiceStatus(c.Request.Context(), orgID, invoiceID, req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, invoice)
}

// DeleteInvoice soft deletes an invoice
func (h *InvoiceHandler) DeleteInvoice(c *gin.Context) {
	orgID, ok := requireOrganizationID(c)
	if !ok {
		return
	}
	invoiceID, ok := parseIDParam(c, "invoice_id", "invoice ID")
	if !ok {
		return
	}

	if err := h.invoiceService.DeleteInvoice(c.Request.Context(), orgID, invoiceID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Invoice deleted successfully",
	})
}

// ExportInvoice downloads the invoice as an XLSX workbook
func (h *InvoiceHandler) ExportInvoice(c *gin.Context) {
	orgID, ok := requireOrganizationID(c)
	if !ok {
		return
	}
	invoiceID, ok := parseIDParam(c, "invoice_id", "invoice ID")
	if !ok {
		return
	}

	invoice, buf, err := h.invoiceService.ExportInvoice(c.Request.Context(), orgID, invoiceID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, invoice.Number))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
