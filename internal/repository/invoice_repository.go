package repository

import (
	"context"

	"github.com/agensea/agency-nexus-flow/internal/database"
	"github.com/agensea/agency-nexus-flow/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvoiceRepository is a GORM implementation of InvoiceRepository
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new InvoiceRepository
func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// Create persists an invoice together with its items
func (r *GormInvoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(invoice).Error; err != nil {
			return err
		}
		return createItems(tx, invoice)
	})
}

func createItems(tx *gorm.DB, invoice *models.Invoice) error {
	if len(invoice.Items) == 0 {
		return nil
	}
	for i := range invoice.Items {
		invoice.Items[i].ID = 0
		invoice.Items[i].InvoiceID = invoice.ID
		invoice.Items[i].Position = i
	}
	return tx.Create(&invoice.Items).Error
}

// FindByID finds an invoice with its items and client
func (r *GormInvoiceRepository) FindByID(ctx context.Context, organizationID, id uint64) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("invoice_items.position ASC")
		}).
		Preload("Client").
		Where("organization_id = ? AND id = ?", organizationID, id).
		First(&invoice).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

// List retrieves invoices with filtering and pagination
func (r *GormInvoiceRepository) List(ctx context.Context, filter InvoiceFilter) ([]models.Invoice, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Invoice{}).
		Scopes(database.ForOrganization("invoices", filter.OrganizationID))

	if filter.Status != nil {
		query = query.Where("invoices.status = ?", *filter.Status)
	}
	if filter.ClientID != nil {
		query = query.Where("invoices.client_id = ?", *filter.ClientID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("invoices.issue_date DESC, invoices.id DESC").Scopes(database.Paginate(filter.Page, filter.PageSize))

	var invoices []models.Invoice
	if err := listQuery.Preload("Client").Find(&invoices).Error; err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

// Update saves the invoice and optionally replaces its items
func (r *GormInvoiceRepository) Update(ctx context.Context, invoice *models.Invoice, replaceItems bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(invoice).Error; err != nil {
			return err
		}
		if !replaceItems {
			return nil
		}
		if err := tx.Where("invoice_id = ?", invoice.ID).Delete(&models.InvoiceItem{}).Error; err != nil {
			return err
		}
		return createItems(tx, invoice)
	})
}

// Delete soft deletes an invoice and removes its items
func (r *GormInvoiceRepository) Delete(ctx context.Context, organizationID, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("organization_id = ? AND id = ?", organizationID, id).Delete(&models.Invoice{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("invoice_id = ?", id).Delete(&models.InvoiceItem{}).Error
	})
}

// ListNumbersWithPrefix lists invoice numbers starting with prefix, deleted ones included
func (r *GormInvoiceRepository) ListNumbersWithPrefix(ctx context.Context, organizationID uint64, prefix string) ([]string, error) {
	var numbers []string
	err := r.db.WithContext(ctx).Unscoped().Model(&models.Invoice{}).
		Where("organization_id = ? AND number LIKE ?", organizationID, prefix+"%").
		Pluck("number", &numbers).Error
	return numbers, err
}
