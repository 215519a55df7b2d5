package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	sendInvitePath   = "/send-invite"
	functionIssuer   = "agencyos-api"
	functionTokenTTL = 5 * time.Minute
)

// FunctionNotifier calls the hosted send-invite function over HTTP.
type FunctionNotifier struct {
	httpClient *resty.Client
	secret     []byte
	logger     *zap.Logger
	now        func() time.Time
}

// NewFunctionNotifier creates a notifier for the function at baseURL. When
// secret is set every call carries a short-lived HS256 bearer token.
func NewFunctionNotifier(baseURL, secret string, timeout time.Duration, logger *zap.Logger) *FunctionNotifier {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &FunctionNotifier{
		httpClient: client,
		secret:     []byte(secret),
		logger:     logger,
		now:        time.Now,
	}
}

type functionError struct {
	Error string `json:"error"`
}

func (n *FunctionNotifier) SendInvite(ctx context.Context, msg InviteMessage) error {
	req := n.httpClient.R().
		SetContext(ctx).
		SetBody(msg).
		SetError(&functionError{})

	if len(n.secret) > 0 {
		token, err := n.signToken(msg.InviteID)
		if err != nil {
			return fmt.Errorf("failed to sign function token: %w", err)
		}
		req.SetAuthToken(token)
	}

	resp, err := req.Post(sendInvitePath)
	if err != nil {
		n.logger.Error("send-invite call failed",
			zap.Uint64("invite_id", msg.InviteID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to call send-invite: %w", err)
	}

	if resp.IsError() {
		detail := resp.String()
		if fe, ok := resp.Error().(*functionError); ok && fe.Error != "" {
			detail = fe.Error
		}
		n.logger.Error("send-invite returned error",
			zap.Uint64("invite_id", msg.InviteID),
			zap.Int("status_code", resp.StatusCode()),
			zap.String("detail", detail),
		)
		return fmt.Errorf("send-invite error: %s (status: %d)", detail, resp.StatusCode())
	}

	n.logger.Info("invite notification sent",
		zap.Uint64("invite_id", msg.InviteID),
		zap.String("email", msg.Email),
	)
	return nil
}

func (n *FunctionNotifier) signToken(inviteID uint64) (string, error) {
	now := n.now()
	claims := jwt.RegisteredClaims{
		Issuer:    functionIssuer,
		Subject:   fmt.Sprintf("invite:%d", inviteID),
		Audience:  jwt.ClaimStrings{"send-invite"},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(functionTokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(n.secret)
}
