package models

import "time"

type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
	InviteStatusRevoked  InviteStatus = "revoked"
	InviteStatusDeclined InviteStatus = "declined"
)

type Invite struct {
	ID             uint64       `gorm:"primarykey" json:"id"`
	OrganizationID uint64       `gorm:"not null;index" json:"organization_id"`
	Email          string       `gorm:"type:varchar(255);not null;index" json:"email"`
	Name           string       `gorm:"type:varchar(255)" json:"name"`
	Department     string       `gorm:"type:varchar(100)" json:"department"`
	Role           MemberRole   `gorm:"type:varchar(20);not null" json:"role"`
	Status         InviteStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Token          string       `gorm:"type:varchar(100);uniqueIndex;not null" json:"-"`
	ExpiresAt      time.Time    `gorm:"not null" json:"expires_at"`
	InvitedBy      uint64       `gorm:"not null" json:"invited_by"`
	AcceptedAt     *time.Time   `json:"accepted_at"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`

	// Relations
	Organization Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
}

// IsExpired reports whether the invite has passed its expiry. The stored
// status is never rewritten; expiry is always evaluated against now.
func (i Invite) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// IsAcceptable reports whether the invite can still be accepted at now.
func (i Invite) IsAcceptable(now time.Time) bool {
	return i.Status == InviteStatusPending && !i.IsExpired(now)
}
