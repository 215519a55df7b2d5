package models

import (
	"time"

	"gorm.io/gorm"
)

type ChatRoomStatus string

const (
	ChatRoomStatusActive   ChatRoomStatus = "active"
	ChatRoomStatusArchived ChatRoomStatus = "archived"
)

type ChatRoom struct {
	ID             uint64         `gorm:"primarykey" json:"id"`
	Name           string         `gorm:"type:varchar(255);not null" json:"name"`
	Status         ChatRoomStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	CreatorID      uint64         `gorm:"not null" json:"creator_id"`
	OrganizationID uint64         `gorm:"not null;index" json:"organization_id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

type ChatMessageStatus string

const (
	ChatMessageStatusSent    ChatMessageStatus = "sent"
	ChatMessageStatusEdited  ChatMessageStatus = "edited"
	ChatMessageStatusDeleted ChatMessageStatus = "deleted"
)

type ChatMessage struct {
	ID        uint64            `gorm:"primarykey" json:"id"`
	RoomID    uint64            `gorm:"not null;index" json:"room_id"`
	SenderID  uint64            `gorm:"not null" json:"sender_id"`
	Content   string            `gorm:"type:text;not null" json:"content"`
	Status    ChatMessageStatus `gorm:"type:varchar(20);not null;default:'sent'" json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`

	// Relations
	Sender User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}
