package handler_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/permpkin/admin-console/internal/domain"
	"github.com/permpkin/admin-console/internal/handler"
	"github.com/permpkin/admin-console/internal/service"
)

func TestRequireSession_NoCookie(t *testing.T) {
	app := newTestApp(t)

	resp, body := doJSON(t, app.client(t), http.MethodGet, app.srv.URL+"/api/users", nil)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.EqualValues(t, http.StatusUnauthorized, body["code"])
	assert.Equal(t, "Unauthorized", body["message"])
	assert.Empty(t, errorsOf(t, body))
	assert.Nil(t, sessionCookie(resp), "a plain 401 must not touch the cookie")
}

func TestRequireSession_GarbageCookie(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)
	u, _ := url.Parse(app.srv.URL)
	c.Jar.SetCookies(u, []*http.Cookie{{Name: handler.SessionCookieName, Value: "not-a-token", Path: "/"}})

	resp, _ := doJSON(t, c, http.MethodGet, app.srv.URL+"/api/me", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRequireSession_DeletedUserClearsCookie(t *testing.T) {
	app := newTestApp(t)
	user := app.createUser(t, service.UserInput{Email: ptr("gone@example.com"), Password: ptr("password123")})
	c := app.clientFor(t, user)

	require.NoError(t, app.users.Delete(context.Background(), user.ID))

	resp, body := doJSON(t, c, http.MethodGet, app.srv.URL+"/api/me", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.EqualValues(t, http.StatusUnauthorized, body["code"])

	cookie := sessionCookie(resp)
	require.NotNil(t, cookie, "expected the session cookie to be cleared")
	assert.Empty(t, cookie.Value)
	assert.Less(t, cookie.MaxAge, 0)
}

func TestRequireAdmin_NonAdminForbidden(t *testing.T) {
	app := newTestApp(t)
	user := app.createUser(t, service.UserInput{Email: ptr("std@example.com"), Role: ptr("Standard")})

	resp, body := doJSON(t, app.clientFor(t, user), http.MethodPost, app.srv.URL+"/api/users",
		map[string]any{"email": "new@example.com"})

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Forbidden", body["message"])
	assert.Nil(t, sessionCookie(resp))

	exists, err := app.users.List(context.Background(), app.admin, domain.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, exists, 2, "no user should have been created")
}

func TestRequireBrowserSession_RedirectsToLogin(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.client(t).Get(app.srv.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login?redirectTo=%2F", resp.Header.Get("Location"))
}

func TestRequireBrowserSession_DeletedUser(t *testing.T) {
	app := newTestApp(t)
	user := app.createUser(t, service.UserInput{Email: ptr("gone@example.com")})
	c := app.clientFor(t, user)
	require.NoError(t, app.users.Delete(context.Background(), user.ID))

	resp, err := c.Get(app.srv.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	cookie := sessionCookie(resp)
	require.NotNil(t, cookie)
	assert.Less(t, cookie.MaxAge, 0)
}

func TestSecurityHeaders(t *testing.T) {
	h := handler.SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	mux := http.NewServeMux()
	mux.HandleFunc("GET /things/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	})

	rec := httptest.NewRecorder()
	handler.RequestLogger(mux).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/things/42", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	out := buf.String()
	assert.Contains(t, out, "http request")
	assert.Contains(t, out, "status=418")
	assert.Contains(t, out, `route="GET /things/{id}"`)
	assert.Contains(t, out, "path=/things/42")
	assert.Contains(t, out, "bytes=15")
}

func TestUserFromContext_Empty(t *testing.T) {
	assert.Nil(t, handler.UserFromContext(context.Background()))
}
