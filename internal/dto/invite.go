package dto

import (
	"time"

	"github.com/agensea/agency-nexus-flow/internal/models"
)

// InviteDTO represents an invite in admin responses. The token is never exposed.
type InviteDTO struct {
	ID             uint64              `json:"id"`
	OrganizationID uint64              `json:"organization_id"`
	Email          string              `json:"email"`
	Name           string              `json:"name"`
	Department     string              `json:"department"`
	Role           models.MemberRole   `json:"role"`
	Status         models.InviteStatus `json:"status"`
	InvitedBy      uint64              `json:"invited_by"`
	ExpiresAt      time.Time           `json:"expires_at"`
	AcceptedAt     *time.Time          `json:"accepted_at"`
	CreatedAt      time.Time           `json:"created_at"`
	Expired        bool                `json:"expired"`
}

// InviteSummaryDTO is what the public invite page sees
type InviteSummaryDTO struct {
	OrganizationName    string              `json:"organization_name"`
	OrganizationLogoURL string              `json:"organization_logo_url,omitempty"`
	Email               string              `json:"email"`
	Name                string              `json:"name"`
	Role                models.MemberRole   `json:"role"`
	Status              models.InviteStatus `json:"status"`
	ExpiresAt           time.Time           `json:"expires_at"`
	Expired             bool                `json:"expired"`
	Acceptable          bool                `json:"acceptable"`
}

// ToInviteDTO converts an invite, computing expiry at now
func ToInviteDTO(invite models.Invite, now time.Time) InviteDTO {
	return InviteDTO{
		ID:             invite.ID,
		OrganizationID: invite.OrganizationID,
		Email:          invite.Email,
		Name:           invite.Name,
		Department:     invite.Department,
		Role:           invite.Role,
		Status:         invite.Status,
		InvitedBy:      invite.InvitedBy,
		ExpiresAt:      invite.ExpiresAt,
		AcceptedAt:     invite.AcceptedAt,
		CreatedAt:      invite.CreatedAt,
		Expired:        invite.IsExpired(now),
	}
}

// ToInviteDTOs converts a list of invites
func ToInviteDTOs(invites []models.Invite, now time.Time) []InviteDTO {
	result := make([]InviteDTO, len(invites))
	for i, invite := range invites {
		result[i] = ToInviteDTO(invite, now)
	}
	return result
}

// ToInviteSummaryDTO converts an invite with its preloaded organization
func ToInviteSummaryDTO(invite models.Invite, now time.Time) InviteSummaryDTO {
	return InviteSummaryDTO{
		OrganizationName:    invite.Organization.Name,
		OrganizationLogoURL: invite.Organization.LogoURL,
		Email:               invite.Email,
		Name:                invite.Name,
		Role:                invite.Role,
		Status:              invite.Status,
		ExpiresAt:           invite.ExpiresAt,
		Expired:             invite.IsExpired(now),
		Acceptable:          invite.IsAcceptable(now),
	}
}
