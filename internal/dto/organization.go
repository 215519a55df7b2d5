package dto

import (
	"time"

	"github.com/agensea/agency-nexus-flow/internal/models"
)

// ProfileDTO is the signed-in user's own profile
type ProfileDTO struct {
	UserDTO
	Phone      string     `json:"phone"`
	Department string     `json:"department"`
	Welcomed   bool       `json:"welcomed"`
	WelcomedAt *time.Time `json:"welcomed_at"`
}

// ToProfileDTO converts a User model to ProfileDTO
func ToProfileDTO(user models.User) ProfileDTO {
	return ProfileDTO{
		UserDTO:    ToUserDTO(user),
		Phone:      user.Phone,
		Department: user.Department,
		Welcomed:   user.WelcomedAt != nil,
		WelcomedAt: user.WelcomedAt,
	}
}

// OrganizationWithRoleDTO represents an organization with the user's role
type OrganizationWithRoleDTO struct {
	OrganizationDTO
	Role models.MemberRole `json:"role"`
}

// TeamMemberDTO represents a member in an organization
type TeamMemberDTO struct {
	ID        uint64              `json:"id"`
	User      UserDTO             `json:"user"`
	Role      models.MemberRole   `json:"role"`
	Status    models.MemberStatus `json:"status"`
	InvitedBy *uint64             `json:"invited_by"`
	InvitedAt *time.Time          `json:"invited_at"`
	JoinedAt  *time.Time          `json:"joined_at"`
}

// OrganizationDetailDTO represents detailed organization information
type OrganizationDetailDTO struct {
	OrganizationDTO
	Email     string                       `json:"email"`
	Phone     string                       `json:"phone"`
	TaxID     string                       `json:"tax_id"`
	CreatedBy uint64                       `json:"created_by"`
	CreatedAt time.Time                    `json:"created_at"`
	Settings  *models.OrganizationSettings `json:"settings"`
	Address   *models.OrganizationAddress  `json:"address"`
	Members   []TeamMemberDTO              `json:"members,omitempty"`
	YourRole  models.MemberRole            `json:"your_role,omitempty"`
}

// ToOrganizationWithRoleDTO converts a membership to DTO with role
func ToOrganizationWithRoleDTO(member models.TeamMember) OrganizationWithRoleDTO {
	return OrganizationWithRoleDTO{
		OrganizationDTO: ToOrganizationDTO(member.Organization),
		Role:            member.Role,
	}
}

// ToTeamMemberDTO converts a member to DTO
func ToTeamMemberDTO(member models.TeamMember) TeamMemberDTO {
	return TeamMemberDTO{
		ID:        member.ID,
		User:      ToUserDTO(member.User),
		Role:      member.Role,
		Status:    member.Status,
		InvitedBy: member.InvitedBy,
		InvitedAt: member.InvitedAt,
		JoinedAt:  member.JoinedAt,
	}
}

// ToTeamMemberDTOs converts a list of members
func ToTeamMemberDTOs(members []models.TeamMember) []TeamMemberDTO {
	result := make([]TeamMemberDTO, len(members))
	for i, member := range members {
		result[i] = ToTeamMemberDTO(member)
	}
	return result
}

// ToOrganizationDetailDTO converts an organization with its preloaded relations
func ToOrganizationDetailDTO(org models.Organization, yourRole models.MemberRole) OrganizationDetailDTO {
	dto := OrganizationDetailDTO{
		OrganizationDTO: ToOrganizationDTO(org),
		Email:           org.Email,
		Phone:           org.Phone,
		TaxID:           org.TaxID,
		CreatedBy:       org.CreatedBy,
		CreatedAt:       org.CreatedAt,
		Settings:        org.Settings,
		Address:         org.Address,
		YourRole:        yourRole,
	}
	if len(org.Members) > 0 {
		dto.Members = ToTeamMemberDTOs(org.Members)
	}
	return dto
}
