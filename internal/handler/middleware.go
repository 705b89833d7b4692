package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/felixge/httpsnoop"

	"github.com/permpkin/admin-console/internal/domain"
	"github.com/permpkin/admin-console/internal/service"
)

// SessionCookieName is the cookie that carries the signed session token.
const SessionCookieName = "__session"

type contextKey string

const userContextKey contextKey = "user"

// UserFromContext extracts the authenticated user from the request context.
// Returns nil if no user is authenticated.
func UserFromContext(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userContextKey).(*domain.User)
	return user
}

func withUser(r *http.Request, user *domain.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userContextKey, user))
}

// SessionGuard resolves the caller from the session cookie and gates
// handlers on it. The only Set-Cookie it ever emits is the one clearing a
// session whose user has been deleted.
type SessionGuard struct {
	auth         *service.AuthService
	cookieSecure bool
}

// NewSessionGuard creates a SessionGuard.
func NewSessionGuard(auth *service.AuthService, cookieSecure bool) *SessionGuard {
	return &SessionGuard{auth: auth, cookieSecure: cookieSecure}
}

// Resolve returns the user behind the request's session cookie. A missing or
// invalid cookie gives domain.ErrUnauthorized; a cookie for a deleted user
// gives domain.ErrSessionInvalid.
func (g *SessionGuard) Resolve(r *http.Request) (*domain.User, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, domain.ErrUnauthorized
	}
	return g.auth.ResolveIdentity(context.WithoutCancel(r.Context()), cookie.Value)
}

// RequireSession protects API routes. Unauthenticated requests get a 401
// envelope.
func (g *SessionGuard) RequireSession(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := g.resolveOrFail(w, r)
		if !ok {
			return
		}
		next.ServeHTTP(w, withUser(r, user))
	})
}

// RequireAdmin is RequireSession plus a role check. Signed-in non-admins get
// a 403 envelope and keep their session.
func (g *SessionGuard) RequireAdmin(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := g.resolveOrFail(w, r)
		if !ok {
			return
		}
		if !user.IsAdmin() {
			writeFailure(w, http.StatusForbidden, nil)
			return
		}
		next.ServeHTTP(w, withUser(r, user))
	})
}

// RequireBrowserSession protects pages. Unauthenticated visitors are sent to
// the login page with a redirectTo pointing back at the requested path.
func (g *SessionGuard) RequireBrowserSession(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := g.Resolve(r)
		if err != nil {
			if errors.Is(err, domain.ErrSessionInvalid) {
				clearSessionCookie(w, g.cookieSecure)
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			if !errors.Is(err, domain.ErrUnauthorized) {
				slog.Error("resolve session", "error", err)
			}
			http.Redirect(w, r, "/login?"+url.Values{"redirectTo": {r.URL.RequestURI()}}.Encode(), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, withUser(r, user))
	})
}

func (g *SessionGuard) resolveOrFail(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	user, err := g.Resolve(r)
	switch {
	case err == nil:
		return user, true
	case errors.Is(err, domain.ErrSessionInvalid):
		clearSessionCookie(w, g.cookieSecure)
		writeFailure(w, http.StatusUnauthorized, nil)
	case errors.Is(err, domain.ErrUnauthorized):
		writeFailure(w, http.StatusUnauthorized, nil)
	default:
		slog.Error("resolve session", "error", err)
		writeFailure(w, http.StatusInternalServerError, nil)
	}
	return nil, false
}

func setSessionCookie(w http.ResponseWriter, token string, remember, secure bool) {
	cookie := &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	if remember {
		cookie.MaxAge = int(domain.RememberFor / time.Second)
	}
	http.SetCookie(w, cookie)
}

func clearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// SecurityHeaders sets conservative browser security headers on every
// response.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'self'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// RequestLogger logs one line per request once it has been served.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		level := slog.LevelInfo
		if m.Code >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		slog.Log(r.Context(), level, "http request",
			"method", r.Method,
			"route", routeLabel(r),
			"path", r.URL.Path,
			"status", m.Code,
			"bytes", m.Written,
			"duration", m.Duration,
		)
	})
}

// routeLabel is the matched mux pattern, available once the mux has served
// the request.
func routeLabel(r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	return "unmatched"
}
