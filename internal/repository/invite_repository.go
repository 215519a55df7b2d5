package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/agensea/agency-nexus-flow/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrInviteNoLongerPending is returned when the invite changed state while being accepted.
	ErrInviteNoLongerPending = errors.New("invite repository: invite is no longer pending")
	// ErrCreateInvitedUser is returned when creating the invited user's account fails.
	ErrCreateInvitedUser = errors.New("invite repository: create user failed")
)

// GormInviteRepository is a GORM implementation of InviteRepository
type GormInviteRepository struct {
	db *gorm.DB
}

// NewInviteRepository creates a new InviteRepository
func NewInviteRepository(db *gorm.DB) InviteRepository {
	return &GormInviteRepository{db: db}
}

// Create persists a new invite
func (r *GormInviteRepository) Create(ctx context.Context, invite *models.Invite) error {
	return r.db.WithContext(ctx).Omit("Organization").Create(invite).Error
}

// FindByID finds an invite inside an organization
func (r *GormInviteRepository) FindByID(ctx context.Context, organizationID, id uint64) (*models.Invite, error) {
	var invite models.Invite
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", organizationID, id).
		First(&invite).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

// FindByToken finds an invite by token with its organization
func (r *GormInviteRepository) FindByToken(ctx context.Context, token string) (*models.Invite, error) {
	var invite models.Invite
	if err := r.db.WithContext(ctx).
		Preload("Organization").
		Where("token = ?", token).
		First(&invite).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

// List lists invites of an organization, newest first
func (r *GormInviteRepository) List(ctx context.Context, organizationID uint64, status *models.InviteStatus) ([]models.Invite, error) {
	query := r.db.WithContext(ctx).Where("organization_id = ?", organizationID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var invites []models.Invite
	if err := query.Order("created_at DESC, id DESC").Find(&invites).Error; err != nil {
		return nil, err
	}
	return invites, nil
}

// HasPending reports whether a pending invite exists for the email
func (r *GormInviteRepository) HasPending(ctx context.Context, organizationID uint64, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Invite{}).
		Where("organization_id = ? AND email = ? AND status = ?", organizationID, email, models.InviteStatusPending).
		Count(&count).Error
	return count > 0, err
}

// UpdateFields writes only the given columns
func (r *GormInviteRepository) UpdateFields(ctx context.Context, id uint64, fields map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.Invite{}).Where("id = ?", id).Updates(fields).Error
}

// Accept applies every write of an invite acceptance in one transaction.
func (r *GormInviteRepository) Accept(ctx context.Context, params AcceptInviteParams) (*models.TeamMember, error) {
	invite := params.Invite
	user := params.User
	var member models.TeamMember

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Claim the invite first so concurrent acceptances of the same token
		// cannot both succeed.
		res := tx.Model(&models.Invite{}).
			Where("id = ? AND status = ?", invite.ID, models.InviteStatusPending).
			Updates(map[string]any{
				"status":      models.InviteStatusAccepted,
				"accepted_at": params.AcceptedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInviteNoLongerPending
		}

		if params.NewUser {
			if err := tx.Create(user).Error; err != nil {
				return fmt.Errorf("%w: %v", ErrCreateInvitedUser, err)
			}
		}

		err := tx.Where("organization_id = ? AND user_id = ?", invite.OrganizationID, user.ID).First(&member).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			invitedAt := invite.CreatedAt
			invitedBy := invite.InvitedBy
			joinedAt := params.AcceptedAt
			member = models.TeamMember{
				OrganizationID: invite.OrganizationID,
				UserID:         user.ID,
				Role:           invite.Role,
				Status:         models.MemberStatusActive,
				InvitedBy:      &invitedBy,
				InvitedAt:      &invitedAt,
				JoinedAt:       &joinedAt,
			}
			if err := tx.Omit("Organization", "User").Create(&member).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			if err := tx.Model(&member).Updates(map[string]any{
				"role":       invite.Role,
				"status":     models.MemberStatusActive,
				"invited_by": invite.InvitedBy,
				"invited_at": invite.CreatedAt,
				"joined_at":  params.AcceptedAt,
			}).Error; err != nil {
				return err
			}
			invitedBy := invite.InvitedBy
			invitedAt := invite.CreatedAt
			joinedAt := params.AcceptedAt
			member.Role = invite.Role
			member.Status = models.MemberStatusActive
			member.InvitedBy = &invitedBy
			member.InvitedAt = &invitedAt
			member.JoinedAt = &joinedAt
		}

		if len(params.Profile) > 0 {
			if err := tx.Model(&models.User{}).Where("id = ?", user.ID).Updates(params.Profile).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	invite.Status = models.InviteStatusAccepted
	acceptedAt := params.AcceptedAt
	invite.AcceptedAt = &acceptedAt
	return &member, nil
}
