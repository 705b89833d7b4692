package service_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/permpkin/admin-console/internal/domain"
	"github.com/permpkin/admin-console/internal/repository/sqlite"
	"github.com/permpkin/admin-console/internal/service"
)

const testJWTSecret = "test-secret-key-for-unit-tests-0123456789"

type testEnv struct {
	db     *sqlite.DB
	auth   *service.AuthService
	users  *service.UserService
	groups *service.GroupService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(context.Background()))
	t.Cleanup(func() { db.Close() })

	userRepo := sqlite.NewUserRepository(db)
	// Use cost 4 for fast tests.
	auth := service.NewAuthService(userRepo, testJWTSecret, 4)
	return &testEnv{
		db:     db,
		auth:   auth,
		users:  service.NewUserService(userRepo, auth),
		groups: service.NewGroupService(sqlite.NewGroupRepository(db)),
	}
}

func ptr[T any](v T) *T { return &v }

func (e *testEnv) createUser(t *testing.T, email, password string) *domain.User {
	t.Helper()
	in := service.UserInput{Email: ptr(email)}
	if password != "" {
		in.Password = ptr(password)
	}
	u, err := e.users.Create(context.Background(), in)
	require.NoError(t, err)
	return u
}

func TestAuthService_Login_Success(t *testing.T) {
	env := newTestEnv(t)
	created := env.createUser(t, "login@example.com", "password123")

	user, token, err := env.auth.Login(context.Background(), "Login@Example.com", "password123", false)
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.NotEmpty(t, token)
}

func TestAuthService_Login_Failures(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "login@example.com", "password123")
	env.createUser(t, "nopass@example.com", "")
	ctx := context.Background()

	tests := []struct {
		name, email, password string
	}{
		{"wrong password", "login@example.com", "wrongpassword"},
		{"unknown email", "nobody@example.com", "password123"},
		{"no password set", "nopass@example.com", "password123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := env.auth.Login(ctx, tt.email, tt.password, false)
			require.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}
}

func TestAuthService_Token_RoundTrip(t *testing.T) {
	env := newTestEnv(t)
	user := &domain.User{ID: "user-1"}

	token, err := env.auth.IssueToken(user, false)
	require.NoError(t, err)

	session, err := env.auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", session.UserID)
	assert.False(t, session.Remember)
	assert.WithinDuration(t, time.Now(), session.IssuedAt, 5*time.Second)
}

func TestAuthService_Token_RememberSetsExpiry(t *testing.T) {
	env := newTestEnv(t)

	token, err := env.auth.IssueToken(&domain.User{ID: "user-1"}, true)
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, claims)
	require.NoError(t, err)
	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)
	require.NotNil(t, exp)
	assert.WithinDuration(t, time.Now().Add(domain.RememberFor), exp.Time, time.Minute)

	session, err := env.auth.ValidateToken(token)
	require.NoError(t, err)
	assert.True(t, session.Remember)
}

func TestAuthService_Token_Rejected(t *testing.T) {
	env := newTestEnv(t)
	good, err := env.auth.IssueToken(&domain.User{ID: "user-1"}, false)
	require.NoError(t, err)

	other := service.NewAuthService(nil, "a-completely-different-secret-value!!", 4)
	foreign, err := other.IssueToken(&domain.User{ID: "user-1"}, false)
	require.NoError(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	expiredToken, err := expired.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)

	tampered := []byte(good)
	if i := len(tampered) - 2; tampered[i] == 'A' {
		tampered[i] = 'B'
	} else {
		tampered[i] = 'A'
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "user-1"})
	noneToken, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":      "not-a-jwt",
		"tampered":     string(tampered),
		"wrong secret": foreign,
		"expired":      expiredToken,
		"alg none":     noneToken,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := env.auth.ValidateToken(token)
			require.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}
}

func TestAuthService_ResolveIdentity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "who@example.com", "password123")

	token, err := env.auth.IssueToken(user, false)
	require.NoError(t, err)

	got, err := env.auth.ResolveIdentity(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = env.auth.ResolveIdentity(ctx, "junk")
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	require.NoError(t, env.users.Delete(ctx, user.ID))
	_, err = env.auth.ResolveIdentity(ctx, token)
	require.ErrorIs(t, err, domain.ErrSessionInvalid)
}

func TestAuthService_SeedAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.auth.SeedAdmin(ctx, "admin@admin.com", "adminpassword")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = env.auth.SeedAdmin(ctx, "admin@admin.com", "adminpassword")
	require.NoError(t, err)
	assert.False(t, created, "second seed is a no-op")

	admin, _, err := env.auth.Login(ctx, "admin@admin.com", "adminpassword", false)
	require.NoError(t, err)
	assert.Equal(t, "Administrator", admin.Display)
	assert.Equal(t, domain.RoleAdmin, admin.Role)
	assert.Equal(t, domain.UserStatusActive, admin.Status)

	created, err = env.auth.SeedAdmin(ctx, "", "")
	require.NoError(t, err)
	assert.False(t, created)

	_, err = env.auth.SeedAdmin(ctx, "other@admin.com", "short")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}
