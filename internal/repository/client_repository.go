package repository

import (
	"context"
	"strings"

	"github.com/agensea/agency-nexus-flow/internal/database"
	"github.com/agensea/agency-nexus-flow/internal/models"
	"gorm.io/gorm"
)

// GormClientRepository is a GORM implementation of ClientRepository
type GormClientRepository struct {
	db *gorm.DB
}

// NewClientRepository creates a new ClientRepository
func NewClientRepository(db *gorm.DB) ClientRepository {
	return &GormClientRepository{db: db}
}

func (r *GormClientRepository) Create(ctx context.Context, client *models.Client) error {
	return r.db.WithContext(ctx).Create(client).Error
}

func (r *GormClientRepository) FindByID(ctx context.Context, organizationID, id uint64) (*models.Client, error) {
	var client models.Client
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", organizationID, id).
		First(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *GormClientRepository) List(ctx context.Context, filter ClientFilter) ([]models.Client, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Client{}).
		Scopes(database.ForOrganization("clients", filter.OrganizationID))

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(company) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("name ASC, id ASC").Scopes(database.Paginate(filter.Page, filter.PageSize))

	var clients []models.Client
	if err := listQuery.Find(&clients).Error; err != nil {
		return nil, 0, err
	}
	return clients, total, nil
}

func (r *GormClientRepository) Update(ctx context.Context, client *models.Client) error {
	return r.db.WithContext(ctx).Save(client).Error
}

func (r *GormClientRepository) Delete(ctx context.Context, organizationID, id uint64) error {
	return r.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", organizationID, id).
		Delete(&models.Client{}).Error
}
