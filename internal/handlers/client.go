package handlers

import (
	"net/http"

	"github.com/agensea/agency-nexus-flow/internal/dto"
	apierrors "github.com/agensea/agency-nexus-flow/internal/errors"
	"github.com/agensea/agency-nexus-flow/internal/models"
	"github.com/agensea/agency-nexus-flow/internal/services"
	"github.com/agensea/agency-nexus-flow/internal/utils"
	"github.com/gin-gonic/gin"
)

type ClientHandler struct {
	clientService *services.ClientService
}

func NewClientHandler(clientService *services.ClientService) *ClientHandler {
	return &ClientHandler{
		clientService: clientService,
	}
}

// ListClients lists the organization's clients. Filters: status, search
func (h *ClientHandler) ListClients(c *gin.Context) {
	orgID, ok := requireOrganizationID(c)
	if !ok {
		return
	}

	var status *models.ClientStatus
	if raw := c.Query("status"); raw != "" {
		s := models.ClientStatus(raw)
		status = &s
	}
	params := utils.GetPaginationParams(c)

	clients, total, err := h.clientService.ListClients(c.Request.Context(), services.ListClientsInput{
		OrganizationID: orgID,
		Status:         status,
		Search:         c.Query("search"),
		Page:           params.Page,
		PageSize:       params.PageSize,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"clients":    clients,
		"pagination": dto.NewPageMeta(params.Page, params.PageSize, total),
	})
}

// CreateClient adds a client to the organization
func (h *ClientHandler) CreateClient(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	orgID, ok := requireOrganizationID(c)
	if !ok {
		return
	}

	type CreateClientRequest struct {
		Name    string              `json:"name" binding:"required,max=255"`
		Email   string              `json:"email" binding:"omitempty,email,max=255"`
		Phone   string              `json:"phone" binding:"max=50"`
		Company string              `json:"company" binding:"max=255"`
		Address string              `json:"address" binding:"max=1000"`
		Notes   string              `json:"notes" binding:"max=10000"`
		Status  models.ClientStatus `json:"status"`
	}

	var req CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	client, err := h.clientService.CreateClient(c.Request.Context(), services.CreateClientInput{
		OrganizationID: orgID,
		CreatorID:      userID,
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Company:        req.Company,
		Address:        req.Address,
		Notes:          req.Notes,
		Status:         req.Status,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, client)
}

// GetClient returns one client
func (h *ClientHandler) GetClient(c *gin.Context) {
	orgID, ok := requireOrganizationID(c)
	if !ok {
		return
	}
	clientID, ok := parseIDParam(c, "client_id", "client ID")
	if !ok {
		return
	}

	client, err := h.clientService.GetClient(c.Request.Context(), orgID, clientID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, client)
}

// UpdateClient patches a client
func (h *ClientHandler) UpdateClient(c *gin.Context) {
	orgID, ok := requireOrganizationID(c)
	if !ok {
		return
	}
	clientID, ok := parseIDParam(c, "client_id", "client ID")
	if !ok {
		return
	}

	type UpdateClientRequest struct {
		Name    *string              `json:"name" binding:"omitempty,max=255"`
		Email   *string              `json:"email" binding:"omitempty,max=255"`
		Phone   *string              `json:"phone" binding:"omitempty,max=50"`
		Company *string              `json:"company" binding:"omitempty,max=255"`
		Address *string              `json:"address" binding:"omitempty,max=1000"`
		Notes   *string              `json:"notes" binding:"omitempty,max=10000"`
		Status  *models.ClientStatus `json:"status"`
	}

	var req UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	client, err := h.clientService.UpdateClient(c.Request.Context(), orgID, clientID, services.UpdateClientInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Company: req.Company,
		Address: req.Address,
		Notes:   req.Notes,
		Status:  req.Status,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, client)
}

// DeleteClient soft deletes a client
func (h *ClientHandler) DeleteClient(c *gin.Context) {
	orgID, ok := requireOrganizationID(c)
	if !ok {
		return
	}
	clientID, ok := parseIDParam(c, "client_id", "client ID")
	if !ok {
		return
	}

	if err := h.clientService.DeleteClient(c.Request.Context(), orgID, clientID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Client deleted successfully",
	})
}
