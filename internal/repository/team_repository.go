package repository

import (
	"context"

	"github.com/agensea/agency-nexus-flow/internal/models"
	"gorm.io/gorm"
)

// GormTeamRepository is a GORM implementation of TeamRepository
type GormTeamRepository struct {
	db *gorm.DB
}

// NewTeamRepository creates a new TeamRepository
func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &GormTeamRepository{db: db}
}

// FindMember finds the membership of a user in an organization
func (r *GormTeamRepository) FindMember(ctx context.Context, organizationID, userID uint64) (*models.TeamMember, error) {
	var member models.TeamMember
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND user_id = ?", organizationID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// FindMemberByID finds a membership row inside an organization
func (r *GormTeamRepository) FindMemberByID(ctx context.Context, organizationID, memberID uint64) (*models.TeamMember, error) {
	var member models.TeamMember
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("organization_id = ? AND id = ?", organizationID, memberID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// ListMembers lists all members of an organization
func (r *GormTeamRepository) ListMembers(ctx context.Context, organizationID uint64, status *models.MemberStatus) ([]models.TeamMember, error) {
	query := r.db.WithContext(ctx).
		Preload("User").
		Where("organization_id = ?", organizationID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var members []models.TeamMember
	if err := query.Order("id ASC").Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// UpdateMember writes only the given columns
func (r *GormTeamRepository) UpdateMember(ctx context.Context, memberID uint64, fields map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.TeamMember{}).Where("id = ?", memberID).Updates(fields).Error
}

// IsActiveMemberEmail reports whether the email belongs to an active member
func (r *GormTeamRepository) IsActiveMemberEmail(ctx context.Context, organizationID uint64, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.TeamMember{}).
		Joins("JOIN users ON users.id = team_members.user_id AND users.deleted_at IS NULL").
		Where("team_members.organization_id = ? AND team_members.status = ? AND users.email = ?",
			organizationID, models.MemberStatusActive, email).
		Count(&count).Error
	return count > 0, err
}

// countOwners counts owner memberships of an organization
func countOwners(db *gorm.DB, organizationID uint64) (int64, error) {
	var count int64
	err := db.Model(&models.TeamMember{}).
		Where("organization_id = ? AND role = ?", organizationID, models.RoleOwner).
		Count(&count).Error
	return count, err
}
