package handlers

import (
	"net/http"

	"github.com/agensea/agency-nexus-flow/internal/dto"
	apierrors "github.com/agensea/agency-nexus-flow/internal/errors"
	"github.com/agensea/agency-nexus-flow/internal/models"
	"github.com/agensea/agency-nexus-flow/internal/services"
	"github.com/gin-gonic/gin"
)

type TeamHandler struct {
	teamService *services.TeamService
}

func NewTeamHandler(teamService *services.TeamService) *TeamHandler {
	return &TeamHandler{
		teamService: teamService,
	}
}

// ListMembers lists organization members, optionally filtered by ?status=
func (h *TeamHandler) ListMembers(c *gin.Context) {
	orgID, ok := requireOrganizationID(c)
	if !ok {
		return
	}

	var status *models.MemberStatus
	if raw := c.Query("status"); raw != "" {
		s := models.MemberStatus(raw)
		status = &s
	}

	members, err := h.teamService.ListMembers(c.Request.Context(), orgID, status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"members": dto.ToTeamMemberDTOs(members),
	})
}

// UpdateMemberRole changes a member's role
func (h *TeamHandler) UpdateMemberRole(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	orgID, ok := requireOrganizationID(c)
	if !ok {
		return
	}
	memberID, ok := parseIDParam(c, "member_id", "member ID")
	if !ok {
		return
	}

	type UpdateRoleRequest struct {
		Role models.MemberRole `json:"role" binding:"required"`
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	member, err := h.teamService.UpdateMemberRole(c.Request.Context(), orgID, userID, memberID, req.Role)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTeamMemberDTO(*member))
}

// RemoveMember deactivates a membership
func (h *TeamHandler) RemoveMember(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	orgID, ok := requireOrganizationID(c)
	if !ok {
		return
	}
	memberID, ok := parseIDParam(c, "member_id", "member ID")
	if !ok {
		return
	}

	if err := h.teamService.RemoveMember(c.Request.Context(), orgID, userID, memberID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Member removed successfully",
	})
}
