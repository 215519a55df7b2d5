package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           uint64         `gorm:"primarykey" json:"id"`
	Email        string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"type:varchar(255);not null" json:"-"`
	FullName     string         `gorm:"type:varchar(255)" json:"full_name"`
	Phone        string         `gorm:"type:varchar(50)" json:"phone"`
	Department   string         `gorm:"type:varchar(100)" json:"department"`
	AvatarURL    string         `gorm:"type:varchar(512)" json:"avatar_url"`
	WelcomedAt   *time.Time     `json:"welcomed_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	CreatedTasks []Task           `gorm:"foreignKey:CreatorID" json:"-"`
	Assignments  []TaskAssignment `gorm:"foreignKey:UserID" json:"-"`
	Memberships  []TeamMember     `gorm:"foreignKey:UserID" json:"-"`
}
