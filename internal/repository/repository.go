package repository

import (
	"context"
	"time"

	"github.com/agensea/agency-nexus-flow/internal/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByEmail finds a user by normalized email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// UpdateFields writes only the given columns
	UpdateFields(ctx context.Context, id uint64, fields map[string]any) error
}

// OrganizationRepository defines the interface for organization data access
type OrganizationRepository interface {
	// CreateWithOwner creates the organization, its settings row and the owner
	// membership within a single transaction, and fails unless the organization
	// ends up with exactly one owner.
	CreateWithOwner(ctx context.Context, org *models.Organization, settings *models.OrganizationSettings, owner *models.TeamMember) error

	// FindByID finds an organization by ID with optional preloading
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.Organization, error)

	// UpdateFields writes only the given columns
	UpdateFields(ctx context.Context, id uint64, fields map[string]any) error

	// UpsertAddress inserts the address row or updates the existing one
	UpsertAddress(ctx context.Context, address *models.OrganizationAddress) error

	// FindSettings returns the settings row of an organization
	FindSettings(ctx context.Context, organizationID uint64) (*models.OrganizationSettings, error)

	// UpdateSettings writes only the given settings columns
	UpdateSettings(ctx context.Context, organizationID uint64, fields map[string]any) error

	// Delete removes an organization and everything it owns
	Delete(ctx context.Context, id uint64) error

	// ListMembershipsByUserID lists the active memberships of a user
	ListMembershipsByUserID(ctx context.Context, userID uint64) ([]models.TeamMember, error)
}

// TeamRepository defines the interface for team membership data access
type TeamRepository interface {
	// FindMember finds the membership of a user in an organization
	FindMember(ctx context.Context, organizationID, userID uint64) (*models.TeamMember, error)

	// FindMemberByID finds a membership row inside an organization
	FindMemberByID(ctx context.Context, organizationID, memberID uint64) (*models.TeamMember, error)

	// ListMembers lists members of an organization, optionally filtered by status
	ListMembers(ctx context.Context, organizationID uint64, status *models.MemberStatus) ([]models.TeamMember, error)

	// UpdateMember writes only the given columns
	UpdateMember(ctx context.Context, memberID uint64, fields map[string]any) error

	// IsActiveMemberEmail reports whether the email belongs to an active member
	IsActiveMemberEmail(ctx context.Context, organizationID uint64, email string) (bool, error)
}

// AcceptInviteParams carries the rows written when an invite is accepted
type AcceptInviteParams struct {
	Invite     *models.Invite
	User       *models.User
	NewUser    bool
	Profile    map[string]any
	AcceptedAt time.Time
}

// InviteRepository defines the interface for invite data access
type InviteRepository interface {
	// Create persists a new invite
	Create(ctx context.Context, invite *models.Invite) error

	// FindByID finds an invite inside an organization
	FindByID(ctx context.Context, organizationID, id uint64) (*models.Invite, error)

	// FindByToken finds an invite by token with its organization
	FindByToken(ctx context.Context, token string) (*models.Invite, error)

	// List lists invites of an organization, optionally filtered by status
	List(ctx context.Context, organizationID uint64, status *models.InviteStatus) ([]models.Invite, error)

	// HasPending reports whether a pending invite exists for the email
	HasPending(ctx context.Context, organizationID uint64, email string) (bool, error)

	// UpdateFields writes only the given columns
	UpdateFields(ctx context.Context, id uint64, fields map[string]any) error

	// Accept creates the user when needed, activates the membership, marks the
	// invite accepted and updates the profile in one transaction. It returns
	// the resulting membership.
	Accept(ctx context.Context, params AcceptInviteParams) (*models.TeamMember, error)
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error)

	// Update updates a task
	Update(ctx context.Context, task *models.Task) error

	// Delete soft deletes a task
	Delete(ctx context.Context, id uint64) error

	// AssignUsers assigns multiple users to a task
	AssignUsers(ctx context.Context, taskID uint64, userIDs []uint64) error

	// UnassignUsers removes user assignments from a task
	UnassignUsers(ctx context.Context, taskID uint64, userIDs []uint64) error

	// CountActiveMembers counts how many of the given user IDs are active members
	CountActiveMembers(ctx context.Context, userIDs []uint64, organizationID uint64) (int64, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	OrganizationIDs []uint64
	Status          *models.TaskStatus
	CreatorID       *uint64
	AssignedUserID  *uint64
	ClientID        *uint64
	DueDateFrom     *time.Time
	DueDateTo       *time.Time
	SortByDueDate   bool
	Page            int
	PageSize        int
}

// ClientRepository defines the interface for client data access
type ClientRepository interface {
	Create(ctx context.Context, client *models.Client) error
	FindByID(ctx context.Context, organizationID, id uint64) (*models.Client, error)
	List(ctx context.Context, filter ClientFilter) ([]models.Client, int64, error)
	Update(ctx context.Context, client *models.Client) error
	Delete(ctx context.Context, organizationID, id uint64) error
}

// ClientFilter holds filtering options for listing clients
type ClientFilter struct {
	OrganizationID uint64
	Status         *models.ClientStatus
	Search         string
	Page           int
	PageSize       int
}

// InvoiceRepository defines the interface for invoice data access
type InvoiceRepository interface {
	// Create persists an invoice together with its items
	Create(ctx context.Context, invoice *models.Invoice) error

	// FindByID finds an invoice with its items and client
	FindByID(ctx context.Context, organizationID, id uint64) (*models.Invoice, error)

	// List retrieves invoices with filtering and pagination
	List(ctx context.Context, filter InvoiceFilter) ([]models.Invoice, int64, error)

	// Update saves the invoice; when replaceItems is set the stored items are
	// replaced by invoice.Items in the same transaction.
	Update(ctx context.Context, invoice *models.Invoice, replaceItems bool) error

	// Delete soft deletes an invoice and removes its items
	Delete(ctx context.Context, organizationID, id uint64) error

	// ListNumbersWithPrefix lists the numbers of invoices, deleted ones
	// included, that start with prefix
	ListNumbersWithPrefix(ctx context.Context, organizationID uint64, prefix string) ([]string, error)
}

// InvoiceFilter holds filtering options for listing invoices
type InvoiceFilter struct {
	OrganizationID uint64
	Status         *models.InvoiceStatus
	ClientID       *uint64
	Page           int
	PageSize       int
}

// ChatRepository defines the interface for chat data access
type ChatRepository interface {
	CreateRoom(ctx context.Context, room *models.ChatRoom) error
	FindRoom(ctx context.Context, organizationID, roomID uint64) (*models.ChatRoom, error)
	ListRooms(ctx context.Context, organizationID uint64, includeArchived bool) ([]models.ChatRoom, error)
	UpdateRoom(ctx context.Context, roomID uint64, fields map[string]any) error

	CreateMessage(ctx context.Context, message *models.ChatMessage) error
	FindMessage(ctx context.Context, roomID, messageID uint64) (*models.ChatMessage, error)
	ListMessages(ctx context.Context, roomID uint64, page, pageSize int) ([]models.ChatMessage, int64, error)
	UpdateMessage(ctx context.Context, messageID uint64, fields map[string]any) error
}
