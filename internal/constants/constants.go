package constants

import "time"

// Session and context keys
const (
	ContextKeyUserID    = "user_id"
	ContextKeyRequestID = "request_id"
	SessionCookieName   = "agency_session"

	ContextKeyOrganization       = "organization"
	ContextKeyOrganizationMember = "organization_member"
	ContextKeyTask               = "task"
)

// bcrypt rejects passwords longer than MaxPasswordLength bytes.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Invites
const (
	InviteTTL        = 7 * 24 * time.Hour
	InviteTokenBytes = 32
)

// Organizations
const (
	DefaultCurrency    = "USD"
	DefaultBrandColor  = "#2563EB"
	DefaultTaskView    = "list"
	MaxLogoSize        = 5 << 20
	LogoStoragePrefix  = "logos"
	UploadsRoutePrefix = "/uploads"
)

const MaxAIGeneratedTasks = 20
