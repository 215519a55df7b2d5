package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/agensea/agency-nexus-flow/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrCreateOrganization is returned when inserting the organization row fails.
	ErrCreateOrganization = errors.New("organization repository: create organization failed")
	// ErrCreateSettings is returned when inserting the settings row fails.
	ErrCreateSettings = errors.New("organization repository: create settings failed")
	// ErrCreateOwner is returned when inserting the owner membership fails.
	ErrCreateOwner = errors.New("organization repository: create owner membership failed")
	// ErrOwnerInvariant is returned when a new organization would not have exactly one owner.
	ErrOwnerInvariant = errors.New("organization repository: organization must have exactly one owner")
)

// GormOrganizationRepository is a GORM implementation of OrganizationRepository
type GormOrganizationRepository struct {
	db *gorm.DB
}

// NewOrganizationRepository creates a new OrganizationRepository
func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &GormOrganizationRepository{db: db}
}

// CreateWithOwner creates an organization, its settings and the owner membership atomically.
func (r *GormOrganizationRepository) CreateWithOwner(ctx context.Context, org *models.Organization, settings *models.OrganizationSettings, owner *models.TeamMember) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Settings", "Address", "Members").Create(org).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateOrganization, err)
		}

		settings.OrganizationID = org.ID
		if err := tx.Create(settings).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateSettings, err)
		}

		owner.OrganizationID = org.ID
		if err := tx.Omit("Organization", "User").Create(owner).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateOwner, err)
		}

		owners, err := countOwners(tx, org.ID)
		if err != nil {
			return err
		}
		if owners != 1 {
			return fmt.Errorf("%w: found %d", ErrOwnerInvariant, owners)
		}

		org.Settings = settings
		return nil
	})
}

// FindByID finds an organization by ID with optional preloading
func (r *GormOrganizationRepository) FindByID(ctx context.Context, id uint64, preload ...string) (*models.Organization, error) {
	var org models.Organization
	query := r.db.WithContext(ctx)

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&org, id).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// UpdateFields writes only the given columns
func (r *GormOrganizationRepository) UpdateFields(ctx context.Context, id uint64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Organization{}).Where("id = ?", id).Updates(fields).Error
}

// UpsertAddress inserts the address row or updates the existing one
func (r *GormOrganizationRepository) UpsertAddress(ctx context.Context, address *models.OrganizationAddress) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.OrganizationAddress
		err := tx.Where("organization_id = ?", address.OrganizationID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(address).Error
		case err != nil:
			return err
		}

		address.CreatedAt = existing.CreatedAt
		return tx.Save(address).Error
	})
}

// FindSettings returns the settings row of an organization
func (r *GormOrganizationRepository) FindSettings(ctx context.Context, organizationID uint64) (*models.OrganizationSettings, error) {
	var settings models.OrganizationSettings
	if err := r.db.WithContext(ctx).Where("organization_id = ?", organizationID).First(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

// UpdateSettings writes only the given settings columns
func (r *GormOrganizationRepository) UpdateSettings(ctx context.Context, organizationID uint64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.OrganizationSettings{}).
		Where("organization_id = ?", organizationID).
		Updates(fields).Error
}

// Delete deletes an organization and all related data in a transaction
func (r *GormOrganizationRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taskIDs := tx.Model(&models.Task{}).Select("id").Where("organization_id = ?", id)
		if err := tx.Where("task_id IN (?)", taskIDs).Delete(&models.TaskAssignment{}).Error; err != nil {
			return err
		}

		for _, model := range []any{&models.Task{}, &models.Client{}, &models.Invoice{}, &models.ChatRoom{}} {
			if err := tx.Where("organization_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&models.TeamMember{}).
			Where("organization_id = ?", id).
			Update("status", models.MemberStatusInactive).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Invite{}).
			Where("organization_id = ? AND status = ?", id, models.InviteStatusPending).
			Update("status", models.InviteStatusRevoked).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Organization{}, id).Error
	})
}

// ListMembershipsByUserID lists all organizations a user is an active member of
func (r *GormOrganizationRepository) ListMembershipsByUserID(ctx context.Context, userID uint64) ([]models.TeamMember, error) {
	var memberships []models.TeamMember
	if err := r.db.WithContext(ctx).
		Joins("Organization").
		Where("team_members.user_id = ? AND team_members.status = ?", userID, models.MemberStatusActive).
		Order("team_members.id ASC").
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}
