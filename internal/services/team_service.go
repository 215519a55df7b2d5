package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/agensea/agency-nexus-flow/internal/models"
	"github.com/agensea/agency-nexus-flow/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrNotOrganizationMember      = errors.New("user is not a member of the organization")
	ErrOrganizationMemberNotFound = errors.New("organization member not found")
)

// TeamService manages the membership of an organization.
type TeamService struct {
	teamRepo repository.TeamRepository
	policy   TeamPolicy
	logger   *zap.Logger
}

// NewTeamService creates a new TeamService.
func NewTeamService(teamRepo repository.TeamRepository, logger *zap.Logger) *TeamService {
	return &TeamService{
		teamRepo: teamRepo,
		logger:   logger,
	}
}

// ListMembers lists the members of an organization, optionally by status.
func (s *TeamService) ListMembers(ctx context.Context, orgID uint64, status *models.MemberStatus) ([]models.TeamMember, error) {
	members, err := s.teamRepo.ListMembers(ctx, orgID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

// UpdateMemberRole changes the role of a member.
func (s *TeamService) UpdateMemberRole(ctx context.Context, orgID, actorID, memberID uint64, role models.MemberRole) (*models.TeamMember, error) {
	actor, err := activeMember(ctx, s.teamRepo, orgID, actorID)
	if err != nil {
		return nil, err
	}

	target, err := s.findTarget(ctx, orgID, memberID)
	if err != nil {
		return nil, err
	}

	if err := s.policy.CanChangeRole(actor, target, role); err != nil {
		return nil, err
	}

	if err := s.teamRepo.UpdateMember(ctx, target.ID, map[string]any{"role": role}); err != nil {
		return nil, fmt.Errorf("failed to update member role: %w", err)
	}

	s.logger.Info("member role changed",
		zap.Uint64("organization_id", orgID),
		zap.Uint64("member_id", target.ID),
		zap.String("from", string(target.Role)),
		zap.String("to", string(role)),
		zap.Uint64("actor_id", actorID),
	)

	target.Role = role
	return target, nil
}

// RemoveMember deactivates a member. Rows are never deleted.
func (s *TeamService) RemoveMember(ctx context.Context, orgID, actorID, memberID uint64) error {
	actor, err := activeMember(ctx, s.teamRepo, orgID, actorID)
	if err != nil {
		return err
	}

	target, err := s.findTarget(ctx, orgID, memberID)
	if err != nil {
		return err
	}

	if err := s.policy.CanRemove(actor, target); err != nil {
		return err
	}

	if err := s.teamRepo.UpdateMember(ctx, target.ID, map[string]any{"status": models.MemberStatusInactive}); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	s.logger.Info("member removed",
		zap.Uint64("organization_id", orgID),
		zap.Uint64("member_id", target.ID),
		zap.Uint64("actor_id", actorID),
	)
	return nil
}

func (s *TeamService) findTarget(ctx context.Context, orgID, memberID uint64) (*models.TeamMember, error) {
	target, err := s.teamRepo.FindMemberByID(ctx, orgID, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationMemberNotFound
		}
		return nil, fmt.Errorf("failed to find member: %w", err)
	}
	return target, nil
}

// activeMember returns the active membership of userID in orgID.
func activeMember(ctx context.Context, teamRepo repository.TeamRepository, orgID, userID uint64) (*models.TeamMember, error) {
	member, err := teamRepo.FindMember(ctx, orgID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotOrganizationMember
		}
		return nil, fmt.Errorf("failed to verify organization membership: %w", err)
	}
	if !member.IsActive() {
		return nil, ErrNotOrganizationMember
	}
	return member, nil
}
