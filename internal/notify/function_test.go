package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testMessage() InviteMessage {
	return InviteMessage{
		InviteID:         42,
		OrganizationID:   7,
		OrganizationName: "Acme Agency",
		Email:            "new@example.com",
		Role:             "member",
		InvitedBy:        1,
		AcceptURL:        "https://app.example.com/invite/tok",
		ExpiresAt:        time.Now().Add(time.Hour),
	}
}

func TestFunctionNotifier_SendInvite(t *testing.T) {
	secret := "function-secret"
	var got InviteMessage
	var authHeader string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/send-invite", r.URL.Path)
		authHeader = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewFunctionNotifier(srv.URL, secret, 5*time.Second, zap.NewNop())
	require.NoError(t, n.SendInvite(context.Background(), testMessage()))

	require.Equal(t, uint64(42), got.InviteID)
	require.Equal(t, "https://app.example.com/invite/tok", got.AcceptURL)

	require.True(t, strings.HasPrefix(authHeader, "Bearer "))
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(strings.TrimPrefix(authHeader, "Bearer "), claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)
	require.Equal(t, "invite:42", claims.Subject)
	require.Equal(t, functionIssuer, claims.Issuer)
}

func TestFunctionNotifier_WithoutSecretSendsNoAuth(t *testing.T) {
	var authHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewFunctionNotifier(srv.URL, "", 5*time.Second, zap.NewNop())
	require.NoError(t, n.SendInvite(context.Background(), testMessage()))
	require.Empty(t, authHeader)
}

func TestFunctionNotifier_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"mail provider down"}`))
	}))
	defer srv.Close()

	n := NewFunctionNotifier(srv.URL, "secret", 5*time.Second, zap.NewNop())
	err := n.SendInvite(context.Background(), testMessage())
	require.Error(t, err)
	require.Contains(t, err.Error(), "mail provider down")
	require.Contains(t, err.Error(), "502")
}

func TestFunctionNotifier_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	n := NewFunctionNotifier(url, "", time.Second, zap.NewNop())
	require.Error(t, n.SendInvite(context.Background(), testMessage()))
}

func TestLogNotifier(t *testing.T) {
	require.NoError(t, NewLogNotifier(zap.NewNop()).SendInvite(context.Background(), testMessage()))
}
