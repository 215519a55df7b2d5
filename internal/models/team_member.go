package models

import "time"

type MemberRole string

const (
	RoleOwner  MemberRole = "owner"
	RoleAdmin  MemberRole = "admin"
	RoleMember MemberRole = "member"
	RoleClient MemberRole = "client"
)

// CanManageTeam reports whether the role may administer members and invites.
func (r MemberRole) CanManageTeam() bool {
	return r == RoleOwner || r == RoleAdmin
}

type MemberStatus string

const (
	MemberStatusInvited  MemberStatus = "invited"
	MemberStatusActive   MemberStatus = "active"
	MemberStatusInactive MemberStatus = "inactive"
)

type TeamMember struct {
	ID             uint64       `gorm:"primarykey" json:"id"`
	OrganizationID uint64       `gorm:"not null;uniqueIndex:idx_team_members_org_user" json:"organization_id"`
	UserID         uint64       `gorm:"not null;uniqueIndex:idx_team_members_org_user" json:"user_id"`
	Role           MemberRole   `gorm:"type:varchar(20);not null" json:"role"`
	Status         MemberStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	InvitedBy      *uint64      `json:"invited_by"`
	InvitedAt      *time.Time   `json:"invited_at"`
	JoinedAt       *time.Time   `json:"joined_at"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`

	// Relations
	Organization Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	User         User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// IsActive reports whether the membership currently grants access.
func (m TeamMember) IsActive() bool {
	return m.Status == MemberStatusActive
}
