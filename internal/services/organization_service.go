package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"regexp"
	"strings"
	"time"

	"github.com/agensea/agency-nexus-flow/internal/billing"
	"github.com/agensea/agency-nexus-flow/internal/constants"
	"github.com/agensea/agency-nexus-flow/internal/models"
	"github.com/agensea/agency-nexus-flow/internal/repository"
	"github.com/agensea/agency-nexus-flow/internal/storage"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const logoSniffLen = 3072

var (
	ErrOrganizationNotFound    = errors.New("organization not found")
	ErrInvalidOrganizationName = errors.New("organization name cannot be empty")
	ErrInvalidCurrency         = errors.New("currency must be an ISO 4217 code")
	ErrInvalidTaskView         = errors.New("default task view must be list, board or calendar")
	ErrInvalidBrandColor       = errors.New("brand color must look like #RRGGBB")
	ErrInvalidLogoType         = errors.New("logo must be an image")
	ErrLogoTooLarge            = errors.New("logo exceeds the maximum size")
	ErrFailedToCreateOrg       = errors.New("failed to create organization")
)

var brandColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// OrganizationService provides business logic for organization operations.
type OrganizationService struct {
	orgRepo  repository.OrganizationRepository
	teamRepo repository.TeamRepository
	store    storage.ObjectStore
	policy   TeamPolicy
	logger   *zap.Logger
	now      func() time.Time
}

// NewOrganizationService creates a new OrganizationService.
func NewOrganizationService(orgRepo repository.OrganizationRepository, teamRepo repository.TeamRepository, store storage.ObjectStore, logger *zap.Logger) *OrganizationService {
	return &OrganizationService{
		orgRepo:  orgRepo,
		teamRepo: teamRepo,
		store:    store,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateOrganizationInput represents parameters to create a new organization.
type CreateOrganizationInput struct {
	Name    string
	OwnerID uint64
}

// CreateOrganization creates the organization, its default settings and the
// owner membership in one transaction.
func (s *OrganizationService) CreateOrganization(ctx context.Context, input CreateOrganizationInput) (*models.Organization, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidOrganizationName
	}

	now := s.now()
	org := &models.Organization{
		Name:      name,
		Currency:  constants.DefaultCurrency,
		CreatedBy: input.OwnerID,
	}
	settings := &models.OrganizationSettings{
		AllowClientInvites: false,
		AllowTeamInvites:   true,
		DefaultTaskView:    models.TaskView(constants.DefaultTaskView),
		BrandColor:         constants.DefaultBrandColor,
	}
	owner := &models.TeamMember{
		UserID:   input.OwnerID,
		Role:     models.RoleOwner,
		Status:   models.MemberStatusActive,
		JoinedAt: &now,
	}

	if err := s.orgRepo.CreateWithOwner(ctx, org, settings, owner); err != nil {
		s.logger.Error("organization bootstrap failed",
			zap.Uint64("owner_id", input.OwnerID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrFailedToCreateOrg, err)
	}

	s.logger.Info("organization created",
		zap.Uint64("organization_id", org.ID),
		zap.Uint64("owner_id", input.OwnerID),
	)
	return org, nil
}

// ListOrganizationsForUser returns the active memberships of a user with their organizations.
func (s *OrganizationService) ListOrganizationsForUser(ctx context.Context, userID uint64) ([]models.TeamMember, error) {
	memberships, err := s.orgRepo.ListMembershipsByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	return memberships, nil
}

// GetOrganization returns an organization with settings, address and members.
func (s *OrganizationService) GetOrganization(ctx context.Context, orgID uint64) (*models.Organization, error) {
	return s.findOrganization(ctx, orgID, "Settings", "Address", "Members", "Members.User")
}

// AddressInput is a structured postal address.
type AddressInput struct {
	Street     string
	City       string
	State      string
	PostalCode string
	Country    string
}

// UpdateOrganizationInput holds the organization fields to change. Nil fields are left untouched.
type UpdateOrganizationInput struct {
	Name     *string
	Email    *string
	Phone    *string
	TaxID    *string
	Currency *string
	Address  *AddressInput
}

// UpdateOrganization applies a patch to the organization and upserts its address.
func (s *OrganizationService) UpdateOrganization(ctx context.Context, orgID, actorID uint64, input UpdateOrganizationInput) (*models.Organization, error) {
	if err := s.requireManager(ctx, orgID, actorID); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrInvalidOrganizationName
		}
		fields["name"] = name
	}
	if input.Email != nil {
		fields["email"] = normalizeEmail(*input.Email)
	}
	if input.Phone != nil {
		fields["phone"] = strings.TrimSpace(*input.Phone)
	}
	if input.TaxID != nil {
		fields["tax_id"] = strings.TrimSpace(*input.TaxID)
	}
	if input.Currency != nil {
		code, err := billing.NormalizeCurrency(*input.Currency)
		if err != nil {
			return nil, ErrInvalidCurrency
		}
		fields["currency"] = code
	}

	if _, err := s.findOrganization(ctx, orgID); err != nil {
		return nil, err
	}

	if err := s.orgRepo.UpdateFields(ctx, orgID, fields); err != nil {
		return nil, fmt.Errorf("failed to update organization: %w", err)
	}

	if input.Address != nil {
		address := &models.OrganizationAddress{
			OrganizationID: orgID,
			Street:         strings.TrimSpace(input.Address.Street),
			City:           strings.TrimSpace(input.Address.City),
			State:          strings.TrimSpace(input.Address.State),
			PostalCode:     strings.TrimSpace(input.Address.PostalCode),
			Country:        strings.TrimSpace(input.Address.Country),
		}
		if err := s.orgRepo.UpsertAddress(ctx, address); err != nil {
			return nil, fmt.Errorf("failed to save address: %w", err)
		}
	}

	return s.findOrganization(ctx, orgID, "Settings", "Address")
}

// UpdateSettingsInput holds the settings to change. Nil fields are left untouched.
type UpdateSettingsInput struct {
	AllowClientInvites *bool
	AllowTeamInvites   *bool
	DefaultTaskView    *models.TaskView
	BrandColor         *string
}

// UpdateSettings applies a patch to the organization settings.
func (s *OrganizationService) UpdateSettings(ctx context.Context, orgID, actorID uint64, input UpdateSettingsInput) (*models.OrganizationSettings, error) {
	if err := s.requireManager(ctx, orgID, actorID); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if input.AllowClientInvites != nil {
		fields["allow_client_invites"] = *input.AllowClientInvites
	}
	if input.AllowTeamInvites != nil {
		fields["allow_team_invites"] = *input.AllowTeamInvites
	}
	if input.DefaultTaskView != nil {
		if !input.DefaultTaskView.Valid() {
			return nil, ErrInvalidTaskView
		}
		fields["default_task_view"] = *input.DefaultTaskView
	}
	if input.BrandColor != nil {
		color := strings.TrimSpace(*input.BrandColor)
		if !brandColorPattern.MatchString(color) {
			return nil, ErrInvalidBrandColor
		}
		fields["brand_color"] = strings.ToUpper(color)
	}

	if err := s.orgRepo.UpdateSettings(ctx, orgID, fields); err != nil {
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}

	settings, err := s.orgRepo.FindSettings(ctx, orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

// UploadLogoInput describes an uploaded logo file.
type UploadLogoInput struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadLogo stores the logo and records its public URL on the organization.
func (s *OrganizationService) UploadLogo(ctx context.Context, orgID, actorID uint64, input UploadLogoInput) (string, error) {
	if err := s.requireManager(ctx, orgID, actorID); err != nil {
		return "", err
	}

	mediaType, _, err := mime.ParseMediaType(input.ContentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return "", ErrInvalidLogoType
	}
	if input.Size > constants.MaxLogoSize {
		return "", ErrLogoTooLarge
	}

	// The declared type and filename are client input; the stored type and
	// extension come from the bytes.
	detected, ext, body, err := sniffLogo(io.LimitReader(input.Body, constants.MaxLogoSize))
	if err != nil {
		return "", err
	}

	if _, err := s.findOrganization(ctx, orgID); err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s/%d-%d%s", constants.LogoStoragePrefix, orgID, s.now().UnixNano(), ext)

	url, err := s.store.Put(ctx, key, body, detected)
	if err != nil {
		return "", fmt.Errorf("failed to store logo: %w", err)
	}

	if err := s.orgRepo.UpdateFields(ctx, orgID, map[string]any{"logo_url": url}); err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to clean up logo", zap.String("key", key), zap.Error(delErr))
		}
		return "", fmt.Errorf("failed to save logo url: %w", err)
	}

	s.logger.Info("organization logo uploaded",
		zap.Uint64("organization_id", orgID),
		zap.String("key", key),
		zap.String("filename", input.Filename),
		zap.String("content_type", detected),
	)
	return url, nil
}

// logoTypes are the image formats accepted as logos, keyed by detected media type.
var logoTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// sniffLogo detects the image format from the leading bytes. It returns the
// media type, the extension to store under and a reader that replays the
// consumed bytes.
func sniffLogo(body io.Reader) (string, string, io.Reader, error) {
	head := make([]byte, logoSniffLen)
	n, err := io.ReadFull(body, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", "", nil, fmt.Errorf("failed to read logo: %w", err)
	}
	head = head[:n]

	for m := mimetype.Detect(head); m != nil; m = m.Parent() {
		for mediaType, ext := range logoTypes {
			if m.Is(mediaType) {
				return mediaType, ext, io.MultiReader(bytes.NewReader(head), body), nil
			}
		}
	}
	return "", "", nil, ErrInvalidLogoType
}

// DeleteOrganization removes an organization and everything it owns. Owner only.
func (s *OrganizationService) DeleteOrganization(ctx context.Context, orgID, actorID uint64) error {
	actor, err := activeMember(ctx, s.teamRepo, orgID, actorID)
	if err != nil {
		return err
	}
	if err := s.policy.CanDeleteOrganization(actor); err != nil {
		return err
	}

	if _, err := s.findOrganization(ctx, orgID); err != nil {
		return err
	}

	if err := s.orgRepo.Delete(ctx, orgID); err != nil {
		return fmt.Errorf("failed to delete organization: %w", err)
	}

	s.logger.Info("organization deleted", zap.Uint64("organization_id", orgID), zap.Uint64("actor_id", actorID))
	return nil
}

func (s *OrganizationService) requireManager(ctx context.Context, orgID, actorID uint64) error {
	actor, err := activeMember(ctx, s.teamRepo, orgID, actorID)
	if err != nil {
		return err
	}
	return s.policy.CanManageTeam(actor)
}

func (s *OrganizationService) findOrganization(ctx context.Context, orgID uint64, preload ...string) (*models.Organization, error) {
	org, err := s.orgRepo.FindByID(ctx, orgID, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}
	return org, nil
}
