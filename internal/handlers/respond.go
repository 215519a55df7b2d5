package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/agensea/agency-nexus-flow/internal/dto"
	apierrors "github.com/agensea/agency-nexus-flow/internal/errors"
	"github.com/agensea/agency-nexus-flow/internal/middleware"
	"github.com/agensea/agency-nexus-flow/internal/services"
	"github.com/gin-gonic/gin"
)

var (
	badRequestErrors = []error{
		services.ErrEmailRequired,
		services.ErrPasswordTooShort,
		services.ErrPasswordTooLong,
		services.ErrInvalidOrganizationName,
		services.ErrInvalidCurrency,
		services.ErrInvalidTaskView,
		services.ErrInvalidBrandColor,
		services.ErrInvalidLogoType,
		services.ErrLogoTooLarge,
		services.ErrInvalidMemberRole,
		services.ErrTitleRequired,
		services.ErrTitleEmpty,
		services.ErrInvalidTaskStatus,
		services.ErrInvalidTaskPriority,
		services.ErrInvalidTaskAssignee,
		services.ErrNoUserIDsProvided,
		services.ErrClientNameRequired,
		services.ErrInvalidClientStatus,
		services.ErrInvoiceItemsRequired,
		services.ErrInvalidInvoiceItem,
		services.ErrInvalidInvoiceStatus,
		services.ErrInvalidDiscount,
		services.ErrInvalidTaxRate,
		services.ErrInvalidDueDate,
		services.ErrChatRoomNameEmpty,
		services.ErrChatMessageEmpty,
		services.ErrAINoTasksGenerated,
		services.ErrAINoValidTasks,
	}
	forbiddenErrors = []error{
		services.ErrNotOrganizationMember,
		services.ErrNotTeamManager,
		services.ErrNotOrganizationOwner,
		services.ErrOwnerImmutable,
		services.ErrCannotRemoveYourself,
		services.ErrClientInvitesDisabled,
		services.ErrTeamInvitesDisabled,
		services.ErrNotTaskCreator,
		services.ErrTaskPermissionDenied,
		services.ErrNotMessageSender,
	}
	notFoundErrors = []error{
		services.ErrUserNotFound,
		services.ErrOrganizationNotFound,
		services.ErrOrganizationMemberNotFound,
		services.ErrInviteNotFound,
		services.ErrTaskNotFound,
		services.ErrClientNotFound,
		services.ErrInvoiceNotFound,
		services.ErrChatRoomNotFound,
		services.ErrChatMessageNotFound,
	}
	conflictErrors = []error{
		services.ErrEmailTaken,
		services.ErrInviteAlreadyPending,
		services.ErrInviteAlreadyAccepted,
		services.ErrAlreadyActiveMember,
		services.ErrInvoiceNumberTaken,
		services.ErrChatRoomArchived,
		services.ErrChatMessageDeleted,
	}
	goneErrors = []error{
		services.ErrInviteExpired,
		services.ErrInviteNotPending,
	}
)

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// respondServiceError maps service sentinels to the API error envelope.
func respondServiceError(c *gin.Context, err error) {
	var notifyErr *services.InviteNotificationError

	switch {
	case errors.As(err, &notifyErr):
		apierrors.BadGateway(c, "Invite was saved but the notification could not be sent",
			gin.H{"invite": dto.ToInviteDTO(*notifyErr.Invite, time.Now())})
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.InvalidCredentials(c, err.Error())
	case isAny(err, badRequestErrors):
		apierrors.BadRequest(c, err.Error())
	case isAny(err, forbiddenErrors):
		apierrors.Forbidden(c, err.Error())
	case isAny(err, notFoundErrors):
		apierrors.NotFound(c, err.Error())
	case isAny(err, conflictErrors):
		apierrors.Conflict(c, err.Error())
	case isAny(err, goneErrors):
		apierrors.Gone(c, err.Error())
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, "AI service is not configured. Please set OPENAI_API_KEY environment variable.")
	case errors.Is(err, services.ErrAITooManyTasks):
		apierrors.BadGateway(c, err.Error(), nil)
	default:
		_ = c.Error(err)
		apierrors.InternalError(c, "")
	}
}

// requireUserID reads the session user or writes a 401.
func requireUserID(c *gin.Context) (uint64, bool) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return 0, false
	}
	return userID, true
}

// requireOrganizationID reads the organization set by RequireOrganizationAccess.
func requireOrganizationID(c *gin.Context) (uint64, bool) {
	org, ok := middleware.GetOrganization(c)
	if !ok {
		apierrors.InternalError(c, "Organization not found in context")
		return 0, false
	}
	return org.ID, true
}

func parseIDParam(c *gin.Context, name, label string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid "+label)
		return 0, false
	}
	return id, true
}

// parseOptionalUint parses an optional numeric query parameter.
func parseOptionalUint(c *gin.Context, name string) (*uint64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid "+name)
		return nil, false
	}
	return &v, true
}
