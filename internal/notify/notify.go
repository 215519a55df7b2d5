package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// InviteMessage is what the send-invite function needs to build the email.
type InviteMessage struct {
	InviteID         uint64    `json:"invite_id"`
	OrganizationID   uint64    `json:"organization_id"`
	OrganizationName string    `json:"organization_name"`
	Email            string    `json:"email"`
	Name             string    `json:"name,omitempty"`
	Role             string    `json:"role"`
	InvitedBy        uint64    `json:"invited_by"`
	AcceptURL        string    `json:"accept_url"`
	ExpiresAt        time.Time `json:"expires_at"`
}

// Notifier delivers invite notifications.
type Notifier interface {
	SendInvite(ctx context.Context, msg InviteMessage) error
}

// LogNotifier writes invites to the log instead of delivering them. It is
// used when no send-invite function is configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendInvite(_ context.Context, msg InviteMessage) error {
	n.logger.Info("invite notification (not delivered)",
		zap.Uint64("invite_id", msg.InviteID),
		zap.Uint64("organization_id", msg.OrganizationID),
		zap.String("email", msg.Email),
		zap.String("role", msg.Role),
		zap.String("accept_url", msg.AcceptURL),
	)
	return nil
}
