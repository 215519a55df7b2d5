package models

import (
	"time"

	"gorm.io/gorm"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}

type Invoice struct {
	ID             uint64         `gorm:"primarykey" json:"id"`
	Number         string         `gorm:"type:varchar(50);not null;uniqueIndex:idx_invoices_org_number" json:"number"`
	OrganizationID uint64         `gorm:"not null;uniqueIndex:idx_invoices_org_number" json:"organization_id"`
	ClientID       uint64         `gorm:"not null;index" json:"client_id"`
	Status         InvoiceStatus  `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	IssueDate      time.Time      `json:"issue_date"`
	DueDate        *time.Time     `json:"due_date"`
	Currency       string         `gorm:"type:varchar(3);not null" json:"currency"`
	Discount       float64        `gorm:"not null;default:0" json:"discount"`
	TaxRate        float64        `gorm:"not null;default:0" json:"tax_rate"`
	Subtotal       float64        `gorm:"not null;default:0" json:"subtotal"`
	TaxAmount      float64        `gorm:"not null;default:0" json:"tax_amount"`
	Total          float64        `gorm:"not null;default:0" json:"total"`
	Notes          string         `gorm:"type:text" json:"notes"`
	CreatorID      uint64         `gorm:"not null" json:"creator_id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Client *Client       `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Items  []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items,omitempty"`
}

type InvoiceItem struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	InvoiceID   uint64    `gorm:"not null;index" json:"invoice_id"`
	Description string    `gorm:"type:varchar(500);not null" json:"description"`
	Quantity    float64   `gorm:"not null" json:"quantity"`
	UnitPrice   float64   `gorm:"not null" json:"unit_price"`
	Amount      float64   `gorm:"not null" json:"amount"`
	Position    int       `gorm:"not null;default:0" json:"position"`
	CreatedAt   time.Time `json:"created_at"`
}
