package middleware

import (
	"errors"
	"strconv"

	"github.com/agensea/agency-nexus-flow/internal/constants"
	apierrors "github.com/agensea/agency-nexus-flow/internal/errors"
	"github.com/agensea/agency-nexus-flow/internal/models"
	"github.com/agensea/agency-nexus-flow/internal/repository"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RequireOrganizationAccess lets only active members of the organization in :id through.
func RequireOrganizationAccess(orgRepo repository.OrganizationRepository, teamRepo repository.TeamRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid organization ID")
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			return
		}

		ctx := c.Request.Context()

		// Non-members get 404 so organization ids do not leak.
		member, err := teamRepo.FindMember(ctx, orgID, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apierrors.NotFound(c, "Organization not found")
				return
			}
			apierrors.InternalError(c, "Failed to verify membership")
			return
		}
		if !member.IsActive() {
			apierrors.NotFound(c, "Organization not found")
			return
		}

		org, err := orgRepo.FindByID(ctx, orgID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apierrors.NotFound(c, "Organization not found")
				return
			}
			apierrors.InternalError(c, "Failed to load organization")
			return
		}

		c.Set(constants.ContextKeyOrganization, org)
		c.Set(constants.ContextKeyOrganizationMember, member)
		c.Next()
	}
}

// GetOrganization returns the organization loaded by RequireOrganizationAccess.
func GetOrganization(c *gin.Context) (*models.Organization, bool) {
	v, exists := c.Get(constants.ContextKeyOrganization)
	if !exists {
		return nil, false
	}
	org, ok := v.(*models.Organization)
	return org, ok
}

// GetOrganizationMember returns the caller's membership loaded by RequireOrganizationAccess.
func GetOrganizationMember(c *gin.Context) (*models.TeamMember, bool) {
	v, exists := c.Get(constants.ContextKeyOrganizationMember)
	if !exists {
		return nil, false
	}
	member, ok := v.(*models.TeamMember)
	return member, ok
}
