package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/permpkin/admin-console/internal/domain"
	"github.com/permpkin/admin-console/internal/handler"
	"github.com/permpkin/admin-console/internal/repository/sqlite"
	"github.com/permpkin/admin-console/internal/schema"
	"github.com/permpkin/admin-console/internal/service"
)

const (
	testJWTSecret     = "test-secret-for-handler-tests-0123456789"
	testAdminEmail    = "admin@admin.com"
	testAdminPassword = "adminpassword"
)

type testApp struct {
	srv     *httptest.Server
	db      *sqlite.DB
	auth    *service.AuthService
	users   *service.UserService
	groups  *service.GroupService
	metrics *handler.Metrics
	admin   *domain.User
}

func newTestApp(t *testing.T, configure ...func(*handler.Dependencies)) *testApp {
	t.Helper()
	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(context.Background()))
	t.Cleanup(func() { db.Close() })

	userRepo := sqlite.NewUserRepository(db)
	// Use cost 4 for fast tests.
	auth := service.NewAuthService(userRepo, testJWTSecret, 4)
	app := &testApp{
		db:      db,
		auth:    auth,
		users:   service.NewUserService(userRepo, auth),
		groups:  service.NewGroupService(sqlite.NewGroupRepository(db)),
		metrics: handler.NewMetrics(),
	}

	_, err = auth.SeedAdmin(context.Background(), testAdminEmail, testAdminPassword)
	require.NoError(t, err)
	app.admin, err = userRepo.GetByEmail(context.Background(), testAdminEmail)
	require.NoError(t, err)

	deps := handler.Dependencies{
		Auth:      auth,
		Users:     app.users,
		Groups:    app.groups,
		Validator: schema.NewValidator(),
		Metrics:   app.metrics,
		DB:        db,
	}
	for _, fn := range configure {
		fn(&deps)
	}

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, deps)
	app.srv = httptest.NewServer(handler.Chain(mux, deps.Metrics))
	t.Cleanup(app.srv.Close)
	return app
}

// client returns an HTTP client with its own cookie jar that does not follow
// redirects.
func (a *testApp) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// clientFor returns a client already signed in as user.
func (a *testApp) clientFor(t *testing.T, user *domain.User) *http.Client {
	t.Helper()
	c := a.client(t)
	token, err := a.auth.IssueToken(user, false)
	require.NoError(t, err)
	u, err := url.Parse(a.srv.URL)
	require.NoError(t, err)
	c.Jar.SetCookies(u, []*http.Cookie{{Name: handler.SessionCookieName, Value: token, Path: "/"}})
	return c
}

func (a *testApp) createUser(t *testing.T, in service.UserInput) *domain.User {
	t.Helper()
	u, err := a.users.Create(context.Background(), in)
	require.NoError(t, err)
	return u
}

func (a *testApp) createGroup(t *testing.T, title string) *domain.Group {
	t.Helper()
	g, err := a.groups.Create(context.Background(), service.GroupInput{Title: &title})
	require.NoError(t, err)
	return g
}

func ptr[T any](v T) *T { return &v }

// doJSON sends body as JSON (when non-nil) and decodes the JSON response.
func doJSON(t *testing.T, c *http.Client, method, rawURL string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, rawURL, r)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(data, &out), "body: %s", data)
	}
	return resp, out
}

// errorsOf returns the errors object of a failure envelope.
func errorsOf(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	errs, ok := body["errors"].(map[string]any)
	require.True(t, ok, "no errors object in %v", body)
	return errs
}

func object(t *testing.T, body map[string]any, key string) map[string]any {
	t.Helper()
	v, ok := body[key].(map[string]any)
	require.True(t, ok, "no %q object in %v", key, body)
	return v
}

func list(t *testing.T, body map[string]any, key string) []any {
	t.Helper()
	v, ok := body[key].([]any)
	require.True(t, ok, "no %q list in %v", key, body)
	return v
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == handler.SessionCookieName {
			return c
		}
	}
	return nil
}
