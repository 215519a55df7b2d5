package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agensea/agency-nexus-flow/internal/models"
	"github.com/agensea/agency-nexus-flow/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrClientNotFound      = errors.New("client not found")
	ErrClientNameRequired  = errors.New("client name is required")
	ErrInvalidClientStatus = errors.New("client status must be active, inactive or lead")
)

// ClientService manages the clients of an organization.
type ClientService struct {
	clientRepo repository.ClientRepository
}

// NewClientService creates a new ClientService.
func NewClientService(clientRepo repository.ClientRepository) *ClientService {
	return &ClientService{clientRepo: clientRepo}
}

// CreateClientInput holds the data for a new client.
type CreateClientInput struct {
	OrganizationID uint64
	CreatorID      uint64
	Name           string
	Email          string
	Phone          string
	Company        string
	Address        string
	Notes          string
	Status         models.ClientStatus
}

// CreateClient creates a client in an organization.
func (s *ClientService) CreateClient(ctx context.Context, input CreateClientInput) (*models.Client, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrClientNameRequired
	}
	if input.Status == "" {
		input.Status = models.ClientStatusActive
	}
	if !input.Status.Valid() {
		return nil, ErrInvalidClientStatus
	}

	client := &models.Client{
		Name:           name,
		Email:          normalizeEmail(input.Email),
		Phone:          strings.TrimSpace(input.Phone),
		Company:        strings.TrimSpace(input.Company),
		Address:        strings.TrimSpace(input.Address),
		Notes:          input.Notes,
		Status:         input.Status,
		CreatorID:      input.CreatorID,
		OrganizationID: input.OrganizationID,
	}
	if err := s.clientRepo.Create(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

// GetClient returns a client of an organization.
func (s *ClientService) GetClient(ctx context.Context, orgID, clientID uint64) (*models.Client, error) {
	client, err := s.clientRepo.FindByID(ctx, orgID, clientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to find client: %w", err)
	}
	return client, nil
}

// ListClientsInput represents filters for listing clients.
type ListClientsInput struct {
	OrganizationID uint64
	Status         *models.ClientStatus
	Search         string
	Page           int
	PageSize       int
}

// ListClients lists the clients of an organization.
func (s *ClientService) ListClients(ctx context.Context, input ListClientsInput) ([]models.Client, int64, error) {
	if input.Status != nil && !input.Status.Valid() {
		return nil, 0, ErrInvalidClientStatus
	}

	clients, total, err := s.clientRepo.List(ctx, repository.ClientFilter{
		OrganizationID: input.OrganizationID,
		Status:         input.Status,
		Search:         input.Search,
		Page:           input.Page,
		PageSize:       input.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list clients: %w", err)
	}
	return clients, total, nil
}

// UpdateClientInput holds the client fields to change. Nil fields are left untouched.
type UpdateClientInput struct {
	Name    *string
	Email   *string
	Phone   *string
	Company *string
	Address *string
	Notes   *string
	Status  *models.ClientStatus
}

// UpdateClient applies a patch to a client.
func (s *ClientService) UpdateClient(ctx context.Context, orgID, clientID uint64, input UpdateClientInput) (*models.Client, error) {
	client, err := s.GetClient(ctx, orgID, clientID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrClientNameRequired
		}
		client.Name = name
	}
	if input.Email != nil {
		client.Email = normalizeEmail(*input.Email)
	}
	if input.Phone != nil {
		client.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Company != nil {
		client.Company = strings.TrimSpace(*input.Company)
	}
	if input.Address != nil {
		client.Address = strings.TrimSpace(*input.Address)
	}
	if input.Notes != nil {
		client.Notes = *input.Notes
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, ErrInvalidClientStatus
		}
		client.Status = *input.Status
	}

	if err := s.clientRepo.Update(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to update client: %w", err)
	}
	return client, nil
}

// DeleteClient soft deletes a client.
func (s *ClientService) DeleteClient(ctx context.Context, orgID, clientID uint64) error {
	if _, err := s.GetClient(ctx, orgID, clientID); err != nil {
		return err
	}
	if err := s.clientRepo.Delete(ctx, orgID, clientID); err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	return nil
}
