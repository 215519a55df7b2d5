package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agensea/agency-nexus-flow/internal/constants"
	"github.com/agensea/agency-nexus-flow/internal/models"
	"github.com/agensea/agency-nexus-flow/internal/notify"
	"github.com/agensea/agency-nexus-flow/internal/repository"
	"github.com/agensea/agency-nexus-flow/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInviteNotFound        = errors.New("invite not found")
	ErrInviteExpired         = errors.New("invite has expired")
	ErrInviteNotPending      = errors.New("invite is no longer pending")
	ErrInviteAlreadyPending  = errors.New("a pending invite already exists for this email")
	ErrInviteAlreadyAccepted = errors.New("accepted invites cannot be resent")
	ErrAlreadyActiveMember   = errors.New("email already belongs to an active member")
	ErrClientInvitesDisabled = errors.New("client invites are disabled for this organization")
	ErrTeamInvitesDisabled   = errors.New("team invites are disabled for this organization")
	ErrInviteTokenFailed     = errors.New("failed to generate invite token")
	ErrInviteNotification    = errors.New("failed to send invite notification")
)

// InviteNotificationError reports a notifier failure after the invite row was
// written. The invite stays persisted.
type InviteNotificationError struct {
	Invite *models.Invite
	Err    error
}

func (e *InviteNotificationError) Error() string {
	return fmt.Sprintf("%s: %v", ErrInviteNotification.Error(), e.Err)
}

func (e *InviteNotificationError) Unwrap() error { return e.Err }

func (e *InviteNotificationError) Is(target error) bool { return target == ErrInviteNotification }

// InviteService runs the invitation workflow.
type InviteService struct {
	inviteRepo repository.InviteRepository
	teamRepo   repository.TeamRepository
	orgRepo    repository.OrganizationRepository
	userRepo   repository.UserRepository
	notifier   notify.Notifier
	appOrigin  string
	policy     TeamPolicy
	logger     *zap.Logger
	now        func() time.Time
}

// NewInviteService creates a new InviteService. appOrigin is the web app
// origin used to build accept links.
func NewInviteService(
	inviteRepo repository.InviteRepository,
	teamRepo repository.TeamRepository,
	orgRepo repository.OrganizationRepository,
	userRepo repository.UserRepository,
	notifier notify.Notifier,
	appOrigin string,
	logger *zap.Logger,
) *InviteService {
	return &InviteService{
		inviteRepo: inviteRepo,
		teamRepo:   teamRepo,
		orgRepo:    orgRepo,
		userRepo:   userRepo,
		notifier:   notifier,
		appOrigin:  strings.TrimRight(appOrigin, "/"),
		logger:     logger,
		now:        time.Now,
	}
}

// CreateInviteInput holds the data for a new invite.
type CreateInviteInput struct {
	OrganizationID uint64
	ActorID        uint64
	Email          string
	Name           string
	Department     string
	Role           models.MemberRole
}

// CreateInvite persists a pending invite and sends the notification. Every
// guard runs before the row is written.
func (s *InviteService) CreateInvite(ctx context.Context, input CreateInviteInput) (*models.Invite, error) {
	if err := s.requireManager(ctx, input.OrganizationID, input.ActorID); err != nil {
		return nil, err
	}
	if err := s.policy.ValidateAssignableRole(input.Role); err != nil {
		return nil, err
	}

	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}

	org, err := s.orgRepo.FindByID(ctx, input.OrganizationID, "Settings")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}
	if err := checkInvitesAllowed(org.Settings, input.Role); err != nil {
		return nil, err
	}

	if err := s.ensureInvitable(ctx, input.OrganizationID, email); err != nil {
		return nil, err
	}

	token, err := utils.GenerateInviteToken(constants.InviteTokenBytes)
	if err != nil {
		return nil, ErrInviteTokenFailed
	}

	invite := &models.Invite{
		OrganizationID: input.OrganizationID,
		Email:          email,
		Name:           strings.TrimSpace(input.Name),
		Department:     strings.TrimSpace(input.Department),
		Role:           input.Role,
		Status:         models.InviteStatusPending,
		Token:          token,
		ExpiresAt:      s.now().Add(constants.InviteTTL),
		InvitedBy:      input.ActorID,
	}
	if err := s.inviteRepo.Create(ctx, invite); err != nil {
		return nil, fmt.Errorf("failed to create invite: %w", err)
	}

	s.logger.Info("invite created",
		zap.Uint64("invite_id", invite.ID),
		zap.Uint64("organization_id", invite.OrganizationID),
		zap.String("role", string(invite.Role)),
		zap.Uint64("actor_id", input.ActorID),
	)

	if err := s.send(ctx, invite, org.Name); err != nil {
		return invite, err
	}
	return invite, nil
}

func checkInvitesAllowed(settings *models.OrganizationSettings, role models.MemberRole) error {
	if settings == nil {
		return nil
	}
	if role == models.RoleClient {
		if !settings.AllowClientInvites {
			return ErrClientInvitesDisabled
		}
		return nil
	}
	if !settings.AllowTeamInvites {
		return ErrTeamInvitesDisabled
	}
	return nil
}

func (s *InviteService) ensureInvitable(ctx context.Context, orgID uint64, email string) error {
	pending, err := s.inviteRepo.HasPending(ctx, orgID, email)
	if err != nil {
		return fmt.Errorf("failed to check pending invites: %w", err)
	}
	if pending {
		return ErrInviteAlreadyPending
	}

	active, err := s.teamRepo.IsActiveMemberEmail(ctx, orgID, email)
	if err != nil {
		return fmt.Errorf("failed to check members: %w", err)
	}
	if active {
		return ErrAlreadyActiveMember
	}
	return nil
}

// ListInvites lists the invites of an organization, optionally by status.
func (s *InviteService) ListInvites(ctx context.Context, orgID uint64, status *models.InviteStatus) ([]models.Invite, error) {
	invites, err := s.inviteRepo.List(ctx, orgID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}
	return invites, nil
}

// RevokeInvite marks a pending invite revoked. The row is kept.
func (s *InviteService) RevokeInvite(ctx context.Context, orgID, actorID, inviteID uint64) (*models.Invite, error) {
	if err := s.requireManager(ctx, orgID, actorID); err != nil {
		return nil, err
	}

	invite, err := s.findByID(ctx, orgID, inviteID)
	if err != nil {
		return nil, err
	}
	if invite.Status != models.InviteStatusPending {
		return nil, ErrInviteNotPending
	}

	if err := s.inviteRepo.UpdateFields(ctx, invite.ID, map[string]any{"status": models.InviteStatusRevoked}); err != nil {
		return nil, fmt.Errorf("failed to revoke invite: %w", err)
	}

	s.logger.Info("invite revoked", zap.Uint64("invite_id", invite.ID), zap.Uint64("actor_id", actorID))
	invite.Status = models.InviteStatusRevoked
	return invite, nil
}

// ResendInvite issues a fresh token and expiry, resets the invite to pending
// and sends the notification again.
func (s *InviteService) ResendInvite(ctx context.Context, orgID, actorID, inviteID uint64) (*models.Invite, error) {
	if err := s.requireManager(ctx, orgID, actorID); err != nil {
		return nil, err
	}

	invite, err := s.findByID(ctx, orgID, inviteID)
	if err != nil {
		return nil, err
	}
	if invite.Status == models.InviteStatusAccepted {
		return nil, ErrInviteAlreadyAccepted
	}
	if invite.Status != models.InviteStatusPending {
		if err := s.ensureInvitable(ctx, orgID, invite.Email); err != nil {
			return nil, err
		}
	}

	org, err := s.orgRepo.FindByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}

	token, err := utils.GenerateInviteToken(constants.InviteTokenBytes)
	if err != nil {
		return nil, ErrInviteTokenFailed
	}
	expiresAt := s.now().Add(constants.InviteTTL)

	if err := s.inviteRepo.UpdateFields(ctx, invite.ID, map[string]any{
		"token":      token,
		"expires_at": expiresAt,
		"status":     models.InviteStatusPending,
	}); err != nil {
		return nil, fmt.Errorf("failed to refresh invite: %w", err)
	}
	invite.Token = token
	invite.ExpiresAt = expiresAt
	invite.Status = models.InviteStatusPending

	s.logger.Info("invite resent", zap.Uint64("invite_id", invite.ID), zap.Uint64("actor_id", actorID))

	if err := s.send(ctx, invite, org.Name); err != nil {
		return invite, err
	}
	return invite, nil
}

// GetInviteByToken returns the invite and its organization for a public token.
func (s *InviteService) GetInviteByToken(ctx context.Context, token string) (*models.Invite, error) {
	invite, err := s.inviteRepo.FindByToken(ctx, strings.TrimSpace(token))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("failed to find invite: %w", err)
	}
	return invite, nil
}

// DeclineInvite marks a pending invite declined.
func (s *InviteService) DeclineInvite(ctx context.Context, token string) (*models.Invite, error) {
	invite, err := s.GetInviteByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if invite.Status != models.InviteStatusPending {
		return nil, ErrInviteNotPending
	}

	if err := s.inviteRepo.UpdateFields(ctx, invite.ID, map[string]any{"status": models.InviteStatusDeclined}); err != nil {
		return nil, fmt.Errorf("failed to decline invite: %w", err)
	}

	s.logger.Info("invite declined", zap.Uint64("invite_id", invite.ID))
	invite.Status = models.InviteStatusDeclined
	return invite, nil
}

// AcceptInviteInput holds what the invitee submits on the signup page.
type AcceptInviteInput struct {
	Token    string
	Password string
	FullName string
	Phone    string
}

// AcceptInviteResult is the outcome of an accepted invite.
type AcceptInviteResult struct {
	User   *models.User
	Member *models.TeamMember
	Invite *models.Invite
}

// AcceptInvite signs in or creates the invitee and activates the membership.
// All writes happen in one transaction.
func (s *InviteService) AcceptInvite(ctx context.Context, input AcceptInviteInput) (*AcceptInviteResult, error) {
	invite, err := s.GetInviteByToken(ctx, input.Token)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if invite.Status != models.InviteStatusPending {
		return nil, ErrInviteNotPending
	}
	if invite.IsExpired(now) {
		return nil, ErrInviteExpired
	}

	user, newUser, err := s.resolveInvitee(ctx, invite, input)
	if err != nil {
		return nil, err
	}

	profile := map[string]any{}
	if name := firstNonEmpty(input.FullName, invite.Name); name != "" {
		profile["full_name"] = name
	}
	if phone := strings.TrimSpace(input.Phone); phone != "" {
		profile["phone"] = phone
	}
	if invite.Department != "" {
		profile["department"] = invite.Department
	}

	member, err := s.inviteRepo.Accept(ctx, repository.AcceptInviteParams{
		Invite:     invite,
		User:       user,
		NewUser:    newUser,
		Profile:    profile,
		AcceptedAt: now,
	})
	if err != nil {
		s.logger.Warn("invite acceptance failed", zap.Uint64("invite_id", invite.ID), zap.Error(err))
		switch {
		case errors.Is(err, repository.ErrInviteNoLongerPending):
			return nil, ErrInviteNotPending
		case errors.Is(err, repository.ErrCreateInvitedUser):
			return nil, ErrFailedToCreateUser
		}
		return nil, fmt.Errorf("failed to accept invite: %w", err)
	}

	refreshed, err := s.userRepo.FindByID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}

	s.logger.Info("invite accepted",
		zap.Uint64("invite_id", invite.ID),
		zap.Uint64("organization_id", invite.OrganizationID),
		zap.Uint64("user_id", refreshed.ID),
		zap.Bool("new_user", newUser),
	)

	return &AcceptInviteResult{User: refreshed, Member: member, Invite: invite}, nil
}

// resolveInvitee returns the account for the invite email. Existing accounts
// must present their password; otherwise a new account is prepared.
func (s *InviteService) resolveInvitee(ctx context.Context, invite *models.Invite, input AcceptInviteInput) (*models.User, bool, error) {
	user, err := s.userRepo.FindByEmail(ctx, invite.Email)
	switch {
	case err == nil:
		if !checkPassword(user.PasswordHash, input.Password) {
			return nil, false, ErrInvalidCredentials
		}
		member, err := s.teamRepo.FindMember(ctx, invite.OrganizationID, user.ID)
		if err == nil && member.IsActive() {
			return nil, false, ErrAlreadyActiveMember
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, fmt.Errorf("failed to check membership: %w", err)
		}
		return user, false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		hash, err := hashPassword(input.Password)
		if err != nil {
			return nil, false, err
		}
		return &models.User{
			Email:        invite.Email,
			PasswordHash: hash,
			FullName:     firstNonEmpty(input.FullName, invite.Name),
		}, true, nil
	default:
		return nil, false, fmt.Errorf("failed to find user: %w", err)
	}
}

func (s *InviteService) send(ctx context.Context, invite *models.Invite, orgName string) error {
	msg := notify.InviteMessage{
		InviteID:         invite.ID,
		OrganizationID:   invite.OrganizationID,
		OrganizationName: orgName,
		Email:            invite.Email,
		Name:             invite.Name,
		Role:             string(invite.Role),
		InvitedBy:        invite.InvitedBy,
		AcceptURL:        s.AcceptURL(invite.Token),
		ExpiresAt:        invite.ExpiresAt,
	}
	if err := s.notifier.SendInvite(ctx, msg); err != nil {
		s.logger.Warn("invite notification failed",
			zap.Uint64("invite_id", invite.ID),
			zap.Error(err),
		)
		return &InviteNotificationError{Invite: invite, Err: err}
	}
	return nil
}

// AcceptURL is the link the invitee follows to accept.
func (s *InviteService) AcceptURL(token string) string {
	return s.appOrigin + "/invite/" + token
}

func (s *InviteService) requireManager(ctx context.Context, orgID, actorID uint64) error {
	actor, err := activeMember(ctx, s.teamRepo, orgID, actorID)
	if err != nil {
		return err
	}
	return s.policy.CanManageTeam(actor)
}

func (s *InviteService) findByID(ctx context.Context, orgID, inviteID uint64) (*models.Invite, error) {
	invite, err := s.inviteRepo.FindByID(ctx, orgID, inviteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("failed to find invite: %w", err)
	}
	return invite, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
