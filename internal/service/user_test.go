package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/permpkin/admin-console/internal/domain"
	"github.com/permpkin/admin-console/internal/service"
)

func TestUserService_Create_Defaults(t *testing.T) {
	env := newTestEnv(t)

	user, err := env.users.Create(context.Background(), service.UserInput{Email: ptr("A@B.com")})
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", user.Email)
	assert.Equal(t, "a@b.com", user.Display)
	assert.Equal(t, domain.UserStatusPending, user.Status)
	assert.Equal(t, domain.RoleStandard, user.Role)
	assert.Nil(t, user.PasswordHash)
}

func TestUserService_Create_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createUser(t, "dup@example.com", "")

	_, err := env.users.Create(ctx, service.UserInput{Email: ptr("dup@example.com")})
	require.ErrorIs(t, err, domain.ErrDuplicateEmail)

	_, err = env.users.Create(ctx, service.UserInput{Email: ptr("new@example.com"), Group: ptr("missing")})
	require.ErrorIs(t, err, domain.ErrGroupNotFound)

	_, err = env.users.Create(ctx, service.UserInput{})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUserService_Create_WithGroupAndTags(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	group, err := env.groups.Create(ctx, service.GroupInput{Title: ptr("Ops")})
	require.NoError(t, err)

	user, err := env.users.Create(ctx, service.UserInput{
		Email:    ptr("member@example.com"),
		Display:  ptr("Member"),
		Password: ptr("password123"),
		Role:     ptr("Client"),
		Group:    ptr(group.ID),
		Tags:     []string{"red", "blue"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Member", user.Display)
	assert.Equal(t, domain.RoleClient, user.Role)
	require.NotNil(t, user.Group)
	assert.Equal(t, "Ops", user.Group.Title)
	assert.Len(t, user.Tags, 2)
	require.NotNil(t, user.PasswordHash)
	assert.NotEqual(t, "password123", *user.PasswordHash)
}

func TestUserService_Update(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	group, err := env.groups.Create(ctx, service.GroupInput{Title: ptr("Ops")})
	require.NoError(t, err)
	user := env.createUser(t, "edit@example.com", "")

	got, err := env.users.Update(ctx, user.ID, service.UserInput{
		Status: ptr("Active"),
		Group:  ptr(group.ID),
		Tags:   []string{"red"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.UserStatusActive, got.Status)
	assert.Equal(t, "edit@example.com", got.Display)
	require.NotNil(t, got.Group)

	got, err = env.users.Update(ctx, user.ID, service.UserInput{Group: ptr("null"), Display: ptr("")})
	require.NoError(t, err)
	assert.Nil(t, got.Group)
	assert.Equal(t, "edit@example.com", got.Display)
	assert.Len(t, got.Tags, 1)

	_, err = env.users.Update(ctx, user.ID, service.UserInput{Group: ptr("missing")})
	require.ErrorIs(t, err, domain.ErrGroupNotFound)

	_, err = env.users.Update(ctx, "nope", service.UserInput{Status: ptr("Paused")})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserService_Update_PasswordAllowsLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "later@example.com", "")

	_, err := env.users.Update(ctx, user.ID, service.UserInput{Password: ptr("password123")})
	require.NoError(t, err)

	_, _, err = env.auth.Login(ctx, "later@example.com", "password123", false)
	require.NoError(t, err)
}

func TestUserService_Get_Scope(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ops, err := env.groups.Create(ctx, service.GroupInput{Title: ptr("Ops")})
	require.NoError(t, err)

	caller, err := env.users.Create(ctx, service.UserInput{Email: ptr("caller@example.com"), Group: ptr(ops.ID)})
	require.NoError(t, err)
	peer, err := env.users.Create(ctx, service.UserInput{Email: ptr("peer@example.com"), Group: ptr(ops.ID)})
	require.NoError(t, err)
	stranger := env.createUser(t, "stranger@example.com", "")

	_, err = env.users.Get(ctx, caller, peer.ID)
	require.NoError(t, err)
	_, err = env.users.Get(ctx, caller, caller.ID)
	require.NoError(t, err)
	_, err = env.users.Get(ctx, caller, stranger.ID)
	require.ErrorIs(t, err, domain.ErrForbidden)

	// Ungrouped users can still see themselves.
	_, err = env.users.Get(ctx, stranger, stranger.ID)
	require.NoError(t, err)

	_, err = env.users.Get(ctx, caller, "nope")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserService_Tags(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "tags@example.com", "")

	got, err := env.users.AddTags(ctx, user.ID, []string{"red", "blue"})
	require.NoError(t, err)
	assert.Len(t, got.Tags, 2)

	_, err = env.users.AddTags(ctx, user.ID, nil)
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	got, err = env.users.RemoveTag(ctx, user.ID, "red")
	require.NoError(t, err)
	assert.Len(t, got.Tags, 1)
}

func TestUserService_RemoveFromGroup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ops, err := env.groups.Create(ctx, service.GroupInput{Title: ptr("Ops")})
	require.NoError(t, err)
	dev, err := env.groups.Create(ctx, service.GroupInput{Title: ptr("Dev")})
	require.NoError(t, err)
	user := env.createUser(t, "member@example.com", "")

	_, err = env.users.RemoveFromGroup(ctx, user.ID, ops.ID)
	require.ErrorIs(t, err, domain.ErrNotInGroup)

	_, err = env.users.AddToGroup(ctx, user.ID, ops.ID)
	require.NoError(t, err)

	_, err = env.users.RemoveFromGroup(ctx, user.ID, dev.ID)
	require.ErrorIs(t, err, domain.ErrNotInGroup)

	got, err := env.users.RemoveFromGroup(ctx, user.ID, ops.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Group)
}
