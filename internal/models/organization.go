package models

import (
	"time"

	"gorm.io/gorm"
)

type Organization struct {
	ID        uint64         `gorm:"primarykey" json:"id"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	Email     string         `gorm:"type:varchar(255)" json:"email"`
	Phone     string         `gorm:"type:varchar(50)" json:"phone"`
	TaxID     string         `gorm:"type:varchar(100)" json:"tax_id"`
	Currency  string         `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
	LogoURL   string         `gorm:"type:varchar(512)" json:"logo_url"`
	CreatedBy uint64         `gorm:"not null" json:"created_by"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Settings *OrganizationSettings `gorm:"foreignKey:OrganizationID" json:"settings,omitempty"`
	Address  *OrganizationAddress  `gorm:"foreignKey:OrganizationID" json:"address,omitempty"`
	Members  []TeamMember          `gorm:"foreignKey:OrganizationID" json:"members,omitempty"`
}

type TaskView string

const (
	TaskViewList     TaskView = "list"
	TaskViewBoard    TaskView = "board"
	TaskViewCalendar TaskView = "calendar"
)

func (v TaskView) Valid() bool {
	switch v {
	case TaskViewList, TaskViewBoard, TaskViewCalendar:
		return true
	}
	return false
}

type OrganizationSettings struct {
	OrganizationID     uint64    `gorm:"primarykey;autoIncrement:false" json:"organization_id"`
	AllowClientInvites bool      `gorm:"not null" json:"allow_client_invites"`
	AllowTeamInvites   bool      `gorm:"not null" json:"allow_team_invites"`
	DefaultTaskView    TaskView  `gorm:"type:varchar(20);not null;default:'list'" json:"default_task_view"`
	BrandColor         string    `gorm:"type:varchar(7);not null;default:'#2563EB'" json:"brand_color"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type OrganizationAddress struct {
	OrganizationID uint64    `gorm:"primarykey;autoIncrement:false" json:"organization_id"`
	Street         string    `gorm:"type:varchar(255)" json:"street"`
	City           string    `gorm:"type:varchar(100)" json:"city"`
	State          string    `gorm:"type:varchar(100)" json:"state"`
	PostalCode     string    `gorm:"type:varchar(20)" json:"postal_code"`
	Country        string    `gorm:"type:varchar(100)" json:"country"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
