package handlers

import (
	"net/http"

	"github.com/agensea/agency-nexus-flow/internal/dto"
	apierrors "github.com/agensea/agency-nexus-flow/internal/errors"
	"github.com/agensea/agency-nexus-flow/internal/middleware"
	"github.com/agensea/agency-nexus-flow/internal/models"
	"github.com/agensea/agency-nexus-flow/internal/services"
	"github.com/gin-gonic/gin"
)

// OrganizationHandler serves organization profile, settings and logo endpoints.
type OrganizationHandler struct {
	orgService *services.OrganizationService
}

func NewOrganizationHandler(orgService *services.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{
		orgService: orgService,
	}
}

// CreateOrganization creates a new organization owned by the caller
func (h *OrganizationHandler) CreateOrganization(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	type CreateOrgRequest struct {
		Name string `json:"name" binding:"required,max=255"`
	}

	var req CreateOrgRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	org, err := h.orgService.CreateOrganization(c.Request.Context(), services.CreateOrganizationInput{
		Name:    req.Name,
		OwnerID: userID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	detail, err := h.orgService.GetOrganization(c.Request.Context(), org.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToOrganizationDetailDTO(*detail, models.RoleOwner))
}

// ListOrganizations returns all organizations the user is an active member of
func (h *OrganizationHandler) ListOrganizations(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	memberships, err := h.orgService.ListOrganizationsForUser(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	orgs := make([]dto.OrganizationWithRoleDTO, len(memberships))
	for i, m := range memberships {
		orgs[i] = dto.ToOrganizationWithRoleDTO(m)
	}

	c.JSON(http.StatusOK, gin.H{
		"organizations": orgs,
	})
}

// GetOrganization returns organization details with its members
func (h *OrganizationHandler) GetOrganization(c *gin.Context) {
	orgID, ok := requireOrganizationID(c)
	if !ok {
		return
	}
	member, _ := middleware.GetOrganizationMember(c)

	org, err := h.orgService.GetOrganization(c.Request.Context(), orgID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	var role models.MemberRole
	if member != nil {
		role = member.Role
	}
	c.JSON(http.StatusOK, dto.ToOrganizationDetailDTO(*org, role))
}

// UpdateOrganization patches the organization profile
func (h *OrganizationHandler) UpdateOrganization(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	orgID, ok := requireOrganizationID(c)
	if !ok {
		return
	}

	type AddressRequest struct {
		Street     string `json:"street" binding:"max=255"`
		City       string `json:"city" binding:"max=100"`
		State      string `json:"state" binding:"max=100"`
		PostalCode string `json:"postal_code" binding:"max=20"`
		Country    string `json:"country" binding:"max=100"`
	}
	type UpdateOrgRequest struct {
		Name     *string         `json:"name" binding:"omitempty,max=255"`
		Email    *string         `json:"email" binding:"omitempty,max=255"`
		Phone    *string         `json:"phone" binding:"omitempty,max=50"`
		TaxID    *string         `json:"tax_id" binding:"omitempty,max=100"`
		Currency *string         `json:"currency"`
		Address  *AddressRequest `json:"address"`
	}

	var req UpdateOrgRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.UpdateOrganizationInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		TaxID:    req.TaxID,
		Currency: req.Currency,
	}
	if req.Address != nil {
		input.Address = &services.AddressInput{
			Street:     req.Address.Street,
			City:       req.Address.City,
			State:      req.Address.State,
			PostalCode: req.Address.PostalCode,
			Country:    req.Address.Country,
		}
	}

	org, err := h.orgService.UpdateOrganization(c.Request.Context(), orgID, userID, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	member, _ := middleware.GetOrganizationMember(c)
	var role models.MemberRole
	if member != nil {
		role = member.Role
	}
	c.JSON(http.StatusOK, dto.ToOrganizationDetailDTO(*org, role))
}

// UpdateSettings patches the organization settings
func (h *OrganizationHandler) UpdateSettings(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	orgID, ok := requireOrganizationID(c)
	if !ok {
		return
	}

	type UpdateSettingsRequest struct {
		AllowClientInvites *bool            `json:"allow_client_invites"`
		AllowTeamInvites   *bool            `json:"allow_team_invites"`
		DefaultTaskView    *models.TaskView `json:"default_task_view"`
		BrandColor         *string          `json:"brand_color"`
	}

	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	settings, err := h.orgService.UpdateSettings(c.Request.Context(), orgID, userID, services.UpdateSettingsInput{
		AllowClientInvites: req.AllowClientInvites,
		AllowTeamInvites:   req.AllowTeamInvites,
		DefaultTaskView:    req.DefaultTaskView,
		BrandColor:         req.BrandColor,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, settings)
}

// UploadLogo stores a new organization logo from the multipart "logo" field
func (h *OrganizationHandler) UploadLogo(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	orgID, ok := requireOrganizationID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("logo")
	if err != nil {
		apierrors.BadRequest(c, "logo file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		apierrors.BadRequest(c, "Failed to read logo")
		return
	}
	defer file.Close()

	logoURL, err := h.orgService.UploadLogo(c.Request.Context(), orgID, userID, services.UploadLogoInput{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Body:        file,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logo_url": logoURL,
	})
}

// DeleteOrganization deletes an organization and everything it owns
func (h *OrganizationHandler) DeleteOrganization(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	orgID, ok := requireOrganizationID(c)
	if !ok {
		return
	}

	if err := h.orgService.DeleteOrganization(c.Request.Context(), orgID, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Organization deleted successfully",
	})
}
