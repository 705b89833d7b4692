package handler

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/permpkin/admin-console/internal/domain"
	"github.com/permpkin/admin-console/internal/schema"
	"github.com/permpkin/admin-console/internal/service"
	"github.com/permpkin/admin-console/internal/view"
)

// AuthHandler handles sign-in, sign-out and the current-user endpoint.
type AuthHandler struct {
	auth         *service.AuthService
	guard        *SessionGuard
	validator    *schema.Validator
	limiter      *service.LoginLimiter
	metrics      *Metrics
	cookieSecure bool
}

// NewAuthHandler creates a new AuthHandler. limiter and metrics may be nil.
func NewAuthHandler(auth *service.AuthService, guard *SessionGuard, v *schema.Validator,
	limiter *service.LoginLimiter, metrics *Metrics, cookieSecure bool,
) *AuthHandler {
	return &AuthHandler{
		auth:         auth,
		guard:        guard,
		validator:    v,
		limiter:      limiter,
		metrics:      metrics,
		cookieSecure: cookieSecure,
	}
}

type loginInput struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Remember   bool   `json:"remember"`
	RedirectTo string `json:"redirectTo"`
}

// HandleLoginPage renders the login form. Signed-in visitors go straight
// to their destination.
// GET /login
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	redirectTo := safeRedirect(r.URL.Query().Get("redirectTo"))
	if _, err := h.guard.Resolve(r); err == nil {
		http.Redirect(w, r, redirectTo, http.StatusSeeOther)
		return
	}
	h.renderLogin(w, r, http.StatusOK, view.LoginForm{RedirectTo: redirectTo})
}

// HandleLogin verifies credentials from a form or JSON body. Browsers are
// redirected with the session cookie set; JSON clients get the envelope.
// POST /login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	wantsJSON := isJSONRequest(r)

	if h.limiter != nil && !h.limiter.Allow(clientIP(r)) {
		h.metrics.observeLogin(loginThrottled)
		w.Header().Set("Retry-After", "60")
		if wantsJSON {
			writeFailure(w, http.StatusTooManyRequests, map[string]string{"email": "Too many login attempts"})
			return
		}
		h.renderLogin(w, r, http.StatusTooManyRequests, view.LoginForm{
			Errors: map[string]string{"email": "Too many login attempts. Try again shortly."},
		})
		return
	}

	body, err := decodeRequest(w, r)
	var data map[string]any
	if err == nil {
		data, err = h.validator.Validate(loginShape, body)
	}
	var in loginInput
	if err == nil {
		err = schema.Decode(data, &in)
	}
	if err != nil {
		h.metrics.observeLogin(loginInvalid)
		h.loginFailed(w, r, wantsJSON, err, formFromRaw(body))
		return
	}
	in.RedirectTo = safeRedirect(in.RedirectTo)

	user, token, err := h.auth.Login(context.WithoutCancel(r.Context()), in.Email, in.Password, in.Remember)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			h.metrics.observeLogin(loginFailure)
			err = &schema.ValidationError{Fields: map[string]string{"email": "Invalid email or password"}}
		} else {
			slog.Error("login user", "error", err)
		}
		h.loginFailed(w, r, wantsJSON, err, view.LoginForm{Email: in.Email, Remember: in.Remember, RedirectTo: in.RedirectTo})
		return
	}

	h.metrics.observeLogin(loginSuccess)
	setSessionCookie(w, token, in.Remember, h.cookieSecure)

	if wantsJSON {
		u, err := schema.Filter(userView, user)
		if err != nil {
			writeDomainError(w, err, "user")
			return
		}
		writeSuccess(w, map[string]any{"user": u, "redirectTo": in.RedirectTo})
		return
	}
	http.Redirect(w, r, in.RedirectTo, http.StatusSeeOther)
}

func (h *AuthHandler) loginFailed(w http.ResponseWriter, r *http.Request, wantsJSON bool, err error, form view.LoginForm) {
	if wantsJSON {
		writeDomainError(w, err, "user")
		return
	}
	var verr *schema.ValidationError
	if !errors.As(err, &verr) {
		h.renderLogin(w, r, http.StatusInternalServerError, form)
		return
	}
	form.Errors = verr.Fields
	h.renderLogin(w, r, http.StatusBadRequest, form)
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, status int, form view.LoginForm) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := view.LoginPage(form).Render(r.Context(), w); err != nil {
		slog.Error("render login page", "error", err)
	}
}

// HandleLogout destroys the session cookie and returns to the login page.
// GET /logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	clearSessionCookie(w, h.cookieSecure)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// HandleMe returns the currently authenticated user.
// GET /api/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	u, err := schema.Filter(userView, UserFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, err, "user")
		return
	}
	writeSuccess(w, map[string]any{"user": u})
}

// formFromRaw recovers what the visitor typed so the form can be shown again.
func formFromRaw(raw map[string]any) view.LoginForm {
	var form view.LoginForm
	if s, ok := raw["email"].(string); ok {
		form.Email = s
	}
	if s, ok := raw["redirectTo"].(string); ok {
		form.RedirectTo = safeRedirect(s)
	}
	return form
}

// safeRedirect only allows local absolute paths; anything else becomes "/".
func safeRedirect(to string) string {
	if to == "" || !strings.HasPrefix(to, "/") || strings.HasPrefix(to, "//") || strings.HasPrefix(to, "/\\") {
		return "/"
	}
	return to
}

func isJSONRequest(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
