package services

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/agensea/agency-nexus-flow/internal/constants"
	"github.com/agensea/agency-nexus-flow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) invite(t *testing.T, orgID, actorID uint64, email string, role models.MemberRole) *models.Invite {
	t.Helper()

	invite, err := f.invites.CreateInvite(context.Background(), CreateInviteInput{
		OrganizationID: orgID,
		ActorID:        actorID,
		Email:          email,
		Name:           "Invited Person",
		Department:     "Design",
		Role:           role,
	})
	require.NoError(t, err)
	return invite
}

func TestInviteService_CreateInvite(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com")
	org := f.organization(t, owner)

	invite := f.invite(t, org.ID, owner.ID, " New@Example.com ", models.RoleMember)

	assert.Equal(t, "new@example.com", invite.Email)
	assert.Equal(t, models.InviteStatusPending, invite.Status)
	assert.Equal(t, fixedNow.Add(constants.InviteTTL), invite.ExpiresAt)

	raw, err := base64.RawURLEncoding.DecodeString(invite.Token)
	require.NoError(t, err)
	assert.Len(t, raw, constants.InviteTokenBytes)

	require.Equal(t, 1, f.notifier.count())
	msg := f.notifier.messages[0]
	assert.Equal(t, "https://app.example.com/invite/"+invite.Token, msg.AcceptURL)
	assert.Equal(t, org.ID, msg.OrganizationID)
	assert.Equal(t, "Acme", msg.OrganizationName)
}

func TestInviteService_DuplicatePendingRejectsBeforeWrite(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com")
	org := f.organization(t, owner)
	f.invite(t, org.ID, owner.ID, "dup@example.com", models.RoleMember)

	_, err := f.invites.CreateInvite(context.Background(), CreateInviteInput{
		OrganizationID: org.ID,
		ActorID:        owner.ID,
		Email:          "DUP@example.com",
		Role:           models.RoleAdmin,
	})
	require.ErrorIs(t, err, ErrInviteAlreadyPending)

	assert.EqualValues(t, 1, f.count(t, &models.Invite{}, "organization_id = ?", org.ID))
	assert.Equal(t, 1, f.notifier.count(), "no second notification")
}

func TestInviteService_RejectsActiveMemberEmail(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com")
	org := f.organization(t, owner)

	_, err := f.invites.CreateInvite(context.Background(), CreateInviteInput{
		OrganizationID: org.ID,
		ActorID:        owner.ID,
		Email:          "owner@example.com",
		Role:           models.RoleMember,
	})
	require.ErrorIs(t, err, ErrAlreadyActiveMember)
	assert.Zero(t, f.count(t, &models.Invite{}, "organization_id = ?", org.ID))
}

func TestInviteService_InviteSettings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	org := f.organization(t, owner)

	_, err := f.invites.CreateInvite(ctx, CreateInviteInput{OrganizationID: org.ID, ActorID: owner.ID, Email: "c@example.com", Role: models.RoleClient})
	require.ErrorIs(t, err, ErrClientInvitesDisabled)

	allow, deny := true, false
	_, err = f.orgs.UpdateSettings(ctx, org.ID, owner.ID, UpdateSettingsInput{AllowClientInvites: &allow, AllowTeamInvites: &deny})
	require.NoError(t, err)

	f.invite(t, org.ID, owner.ID, "c@example.com", models.RoleClient)

	_, err = f.invites.CreateInvite(ctx, CreateInviteInput{OrganizationID: org.ID, ActorID: owner.ID, Email: "m@example.com", Role: models.RoleMember})
	require.ErrorIs(t, err, ErrTeamInvitesDisabled)
}

func TestInviteService_NotifierFailureKeepsInvite(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com")
	org := f.organization(t, owner)
	f.notifier.err = errBoom

	invite, err := f.invites.CreateInvite(context.Background(), CreateInviteInput{
		OrganizationID: org.ID,
		ActorID:        owner.ID,
		Email:          "new@example.com",
		Role:           models.RoleMember,
	})
	require.ErrorIs(t, err, ErrInviteNotification)
	require.ErrorIs(t, err, errBoom)

	var notifyErr *InviteNotificationError
	require.ErrorAs(t, err, &notifyErr)
	require.NotNil(t, invite)
	assert.Equal(t, invite.ID, notifyErr.Invite.ID)
	assert.EqualValues(t, 1, f.count(t, &models.Invite{}, "id = ?", invite.ID))

	assert.Equal(t, 1, f.logs.FilterMessage("invite notification failed").Len())
}

func TestInviteService_ExpiredInviteIsNotAcceptable(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com")
	org := f.organization(t, owner)
	invite := f.invite(t, org.ID, owner.ID, "late@example.com", models.RoleMember)

	f.invites.now = func() time.Time { return invite.ExpiresAt.Add(time.Second) }

	_, err := f.invites.AcceptInvite(context.Background(), AcceptInviteInput{Token: invite.Token, Password: "supersecret"})
	require.ErrorIs(t, err, ErrInviteExpired)

	stored, err := f.invites.GetInviteByToken(context.Background(), invite.Token)
	require.NoError(t, err)
	assert.Equal(t, models.InviteStatusPending, stored.Status, "expiry is never written back")
	assert.False(t, stored.IsAcceptable(f.invites.now()))
	assert.Zero(t, f.count(t, &models.User{}, "email = ?", "late@example.com"))

	// Exactly at the expiry instant the invite still works.
	f.invites.now = func() time.Time { return invite.ExpiresAt }
	_, err = f.invites.AcceptInvite(context.Background(), AcceptInviteInput{Token: invite.Token, Password: "supersecret"})
	require.NoError(t, err)
}

func TestInviteService_AcceptCreatesOneActiveMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	org := f.organization(t, owner)
	invite := f.invite(t, org.ID, owner.ID, "new@example.com", models.RoleAdmin)
	before := f.count(t, &models.TeamMember{}, "organization_id = ?", org.ID)

	result, err := f.invites.AcceptInvite(ctx, AcceptInviteInput{Token: invite.Token, Password: "supersecret", Phone: "+1 555"})
	require.NoError(t, err)

	assert.Equal(t, before+1, f.count(t, &models.TeamMember{}, "organization_id = ?", org.ID))
	assert.EqualValues(t, 1, f.count(t, &models.TeamMember{}, "organization_id = ? AND user_id = ? AND status = ?", org.ID, result.User.ID, models.MemberStatusActive))
	assert.Equal(t, models.RoleAdmin, result.Member.Role)
	assert.Equal(t, "Invited Person", result.User.FullName)
	assert.Equal(t, "Design", result.User.Department)
	assert.Equal(t, "+1 555", result.User.Phone)

	stored, err := f.invites.GetInviteByToken(ctx, invite.Token)
	require.NoError(t, err)
	assert.Equal(t, models.InviteStatusAccepted, stored.Status)
	require.NotNil(t, stored.AcceptedAt)
	assert.True(t, stored.AcceptedAt.Equal(fixedNow))

	_, err = f.auth.Login(ctx, LoginInput{Email: "new@example.com", Password: "supersecret"})
	require.NoError(t, err, "the new account can sign in")
}

func TestInviteService_AcceptShortPasswordForNewAccount(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com")
	org := f.organization(t, owner)
	invite := f.invite(t, org.ID, owner.ID, "new@example.com", models.RoleMember)

	_, err := f.invites.AcceptInvite(context.Background(), AcceptInviteInput{Token: invite.Token, Password: "short"})
	require.ErrorIs(t, err, ErrPasswordTooShort)
	_, err = f.invites.AcceptInvite(context.Background(), AcceptInviteInput{Token: invite.Token, Password: strings.Repeat("p", 73)})
	require.ErrorIs(t, err, ErrPasswordTooLong)

	stored, err := f.invites.GetInviteByToken(context.Background(), invite.Token)
	require.NoError(t, err)
	assert.Equal(t, models.InviteStatusPending, stored.Status)
}

func TestInviteService_RevokedTokenCannotBeAccepted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	org := f.organization(t, owner)
	invite := f.invite(t, org.ID, owner.ID, "gone@example.com", models.RoleMember)

	revoked, err := f.invites.RevokeInvite(ctx, org.ID, owner.ID, invite.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InviteStatusRevoked, revoked.Status)

	_, err = f.invites.AcceptInvite(ctx, AcceptInviteInput{Token: invite.Token, Password: "supersecret"})
	require.ErrorIs(t, err, ErrInviteNotPending)
	assert.EqualValues(t, 1, f.count(t, &models.TeamMember{}, "organization_id = ?", org.ID))

	_, err = f.invites.RevokeInvite(ctx, org.ID, owner.ID, invite.ID)
	require.ErrorIs(t, err, ErrInviteNotPending)
}

func TestInviteService_ResendRefreshesToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	org := f.organization(t, owner)
	invite := f.invite(t, org.ID, owner.ID, "again@example.com", models.RoleMember)
	oldToken := invite.Token

	later := fixedNow.Add(48 * time.Hour)
	f.invites.now = func() time.Time { return later }

	resent, err := f.invites.ResendInvite(ctx, org.ID, owner.ID, invite.ID)
	require.NoError(t, err)
	assert.NotEqual(t, oldToken, resent.Token)
	assert.Equal(t, later.Add(constants.InviteTTL), resent.ExpiresAt)
	assert.Equal(t, 2, f.notifier.count())
	assert.True(t, strings.HasSuffix(f.notifier.messages[1].AcceptURL, resent.Token))

	_, err = f.invites.GetInviteByToken(ctx, oldToken)
	require.ErrorIs(t, err, ErrInviteNotFound)

	_, err = f.invites.AcceptInvite(ctx, AcceptInviteInput{Token: resent.Token, Password: "supersecret"})
	require.NoError(t, err)

	_, err = f.invites.ResendInvite(ctx, org.ID, owner.ID, invite.ID)
	require.ErrorIs(t, err, ErrInviteAlreadyAccepted)
}

func TestInviteService_DeclineAndManagerGuard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	member := f.user(t, "member@example.com")
	org := f.organization(t, owner)
	f.member(t, org.ID, member, models.RoleMember)
	invite := f.invite(t, org.ID, owner.ID, "maybe@example.com", models.RoleMember)

	_, err := f.invites.RevokeInvite(ctx, org.ID, member.ID, invite.ID)
	require.ErrorIs(t, err, ErrNotTeamManager)
	_, err = f.invites.CreateInvite(ctx, CreateInviteInput{OrganizationID: org.ID, ActorID: member.ID, Email: "x@example.com", Role: models.RoleMember})
	require.ErrorIs(t, err, ErrNotTeamManager)

	declined, err := f.invites.DeclineInvite(ctx, invite.Token)
	require.NoError(t, err)
	assert.Equal(t, models.InviteStatusDeclined, declined.Status)

	_, err = f.invites.DeclineInvite(ctx, invite.Token)
	require.ErrorIs(t, err, ErrInviteNotPending)
}
