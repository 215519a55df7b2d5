package handlers

import (
	"net/http"
	"time"

	"github.com/agensea/agency-nexus-flow/internal/dto"
	apierrors "github.com/agensea/agency-nexus-flow/internal/errors"
	"github.com/agensea/agency-nexus-flow/internal/models"
	"github.com/agensea/agency-nexus-flow/internal/services"
	"github.com/gin-gonic/gin"
)

// InviteHandler serves both the admin invite endpoints and the public
// token-based invite page.
type InviteHandler struct {
	inviteService *services.InviteService
}

func NewInviteHandler(inviteService *services.InviteService) *InviteHandler {
	return &InviteHandler{
		inviteService: inviteService,
	}
}

// ListInvites lists the organization's invites, optionally filtered by ?status=
func (h *InviteHandler) ListInvites(c *gin.Context) {
	orgID, ok := requireOrganizationID(c)
	if !ok {
		return
	}

	var status *models.InviteStatus
	if raw := c.Query("status"); raw != "" {
		s := models.InviteStatus(raw)
		status = &s
	}

	invites, err := h.inviteService.ListInvites(c.Request.Context(), orgID, status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"invites": dto.ToInviteDTOs(invites, time.Now()),
	})
}

// CreateInvite invites a person by email
func (h *InviteHandler) CreateInvite(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	orgID, ok := requireOrganizationID(c)
	if !ok {
		return
	}

	type CreateInviteRequest struct {
		Email      string            `json:"email" binding:"required,email,max=255"`
		Name       string            `json:"name" binding:"max=255"`
		Department string            `json:"department" binding:"max=100"`
		Role       models.MemberRole `json:"role" binding:"required"`
	}

	var req CreateInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	invite, err := h.inviteService.CreateInvite(c.Request.Context(), services.CreateInviteInput{
		OrganizationID: orgID,
		ActorID:        userID,
		Email:          req.Email,
		Name:           req.Name,
		Department:     req.Department,
		Role:           req.Role,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToInviteDTO(*invite, time.Now()))
}

// RevokeInvite cancels a pending invite
func (h *InviteHandler) RevokeInvite(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	orgID, ok := requireOrganizationID(c)
	if !ok {
		return
	}
	inviteID, ok := parseIDParam(c, "invite_id", "invite ID")
	if !ok {
		return
	}

	invite, err := h.inviteService.RevokeInvite(c.Request.Context(), orgID, userID, inviteID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToInviteDTO(*invite, time.Now()))
}

// ResendInvite issues a fresh token and expiry and notifies the invitee again
func (h *InviteHandler) ResendInvite(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	orgID, ok := requireOrganizationID(c)
	if !ok {
		return
	}
	inviteID, ok := parseIDParam(c, "invite_id", "invite ID")
	if !ok {
		return
	}

	invite, err := h.inviteService.ResendInvite(c.Request.Context(), orgID, userID, inviteID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToInviteDTO(*invite, time.Now()))
}

// GetInvite returns the public summary of an invite
func (h *InviteHandler) GetInvite(c *gin.Context) {
	invite, err := h.inviteService.GetInviteByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToInviteSummaryDTO(*invite, time.Now()))
}

// AcceptInvite joins the organization and signs the invitee in
func (h *InviteHandler) AcceptInvite(c *gin.Context) {
	type AcceptInviteRequest struct {
		Password string `json:"password" binding:"required"`
		FullName string `json:"full_name" binding:"max=255"`
		Phone    string `json:"phone" binding:"max=50"`
	}

	var req AcceptInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.inviteService.AcceptInvite(c.Request.Context(), services.AcceptInviteInput{
		Token:    c.Param("token"),
		Password: req.Password,
		FullName: req.FullName,
		Phone:    req.Phone,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	if err := startSession(c, result.User.ID); err != nil {
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":            dto.ToProfileDTO(*result.User),
		"member":          dto.ToTeamMemberDTO(*result.Member),
		"organization_id": result.Invite.OrganizationID,
	})
}

// DeclineInvite marks the invite declined
func (h *InviteHandler) DeclineInvite(c *gin.Context) {
	invite, err := h.inviteService.DeclineInvite(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": invite.Status,
	})
}
