package services_test

import (
	"context"
	"sort"
	"testing"

	"teamhub/internal/apperrors"
	"teamhub/internal/events"
	"teamhub/internal/logger"
	"teamhub/internal/models"
	"teamhub/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type accountFixture struct {
	*teamFixture
	auth    *services.AuthService
	account *services.AccountService
}

func newAccountFixture(t *testing.T) *accountFixture {
	t.Helper()
	f := newTeamFixture(t)
	clock := newClock()
	publisher := events.NewPublisher(f.broker, "teamhub", logger.Nop())
	return &accountFixture{
		teamFixture: f,
		auth:        services.NewAuthService(f.store, authConfig(clock), publisher, logger.Nop()),
		account:     services.NewAccountService(f.store, f.service, authConfig(clock), publisher, logger.Nop()),
	}
}

func TestAccountService_UpdateProfile(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	alice := seedUser(t, f.store, "alice")
	seedUser(t, f.store, "bob")

	updated, err := f.account.UpdateProfile(ctx, alice.ID, services.ProfileUpdate{FirstName: "Alicia", Username: "alicia"})
	require.NoError(t, err)
	assert.Equal(t, "Alicia", updated.FirstName)
	assert.Equal(t, "User", updated.LastName)
	assert.Equal(t, "alicia", updated.Username)

	_, err = f.account.UpdateProfile(ctx, alice.ID, services.ProfileUpdate{Username: "bob"})
	assert.ErrorIs(t, err, apperrors.ErrUsernameTaken)
	_, err = f.account.UpdateProfile(ctx, alice.ID, services.ProfileUpdate{Email: "bob@example.com"})
	assert.ErrorIs(t, err, apperrors.ErrEmailTaken)

	// Keeping one's own email is not a conflict.
	_, err = f.account.UpdateProfile(ctx, alice.ID, services.ProfileUpdate{Email: "alice@example.com"})
	require.NoError(t, err)

	profile, err := f.account.GetProfile(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alicia", profile.Username)
}

func TestAccountService_ResetPassword(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	alice := seedUser(t, f.store, "alice")

	err := f.account.ResetPassword(ctx, alice.ID, "wrongpass", "newpassword")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	require.NoError(t, f.account.ResetPassword(ctx, alice.ID, testPassword, "newpassword"))
	_, _, err = f.auth.LoginUser(ctx, "alice", "newpassword")
	require.NoError(t, err)
}

func TestAccountService_DeleteAccount(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	alice := seedUser(t, f.store, "alice")
	bob := seedUser(t, f.store, "bob")

	shared, err := f.service.CreateTeam(ctx, alice.ID, "Shared", "")
	require.NoError(t, err)
	_, err = f.service.JoinTeam(ctx, bob.ID, shared.Code)
	require.NoError(t, err)
	solo, err := f.service.CreateTeam(ctx, alice.ID, "Solo", "")
	require.NoError(t, err)

	err = f.account.DeleteAccount(ctx, alice.ID, "wrongpass")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	require.NoError(t, f.account.DeleteAccount(ctx, alice.ID, testPassword))

	_, err = f.service.GetTeam(ctx, solo.ID)
	assert.ErrorIs(t, err, apperrors.ErrTeamNotFound)

	f.assertCounter(t, shared.ID, 1)
	heir, err := f.store.Teams().GetMember(ctx, shared.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, heir.Role)

	_, _, err = f.auth.LoginUser(ctx, "alice", testPassword)
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	_, err = f.account.GetProfile(ctx, alice.ID)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	_, err = f.auth.RegisterUser(ctx, registerInput("alice"))
	assert.ErrorIs(t, err, apperrors.ErrUsernameTaken)

	assert.Contains(t, f.broker.Keys(), events.UserDeleted)
}

func TestAccountService_DeleteAccount_LeavesTeamsInIDOrder(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	alice := seedUser(t, f.store, "alice")
	bob := seedUser(t, f.store, "bob")

	var teamIDs []string
	for _, name := range []string{"One", "Two", "Three", "Four", "Five"} {
		team, err := f.service.CreateTeam(ctx, bob.ID, name, "")
		require.NoError(t, err)
		_, err = f.service.JoinTeam(ctx, alice.ID, team.Code)
		require.NoError(t, err)
		teamIDs = append(teamIDs, team.ID)
	}

	require.NoError(t, f.account.DeleteAccount(ctx, alice.ID, testPassword))

	var left []string
	for _, data := range f.broker.Payloads(t, events.TeamMemberLeft) {
		assert.Equal(t, alice.ID, data["userId"])
		left = append(left, data["teamId"].(string))
	}
	sort.Strings(teamIDs)
	assert.Equal(t, teamIDs, left)
	for _, id := range teamIDs {
		f.assertCounter(t, id, 1)
	}
}
