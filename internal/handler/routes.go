package handler

import (
	"net/http"

	"github.com/permpkin/admin-console/internal/schema"
	"github.com/permpkin/admin-console/internal/service"
)

// Dependencies are the collaborators the routes are built from. Limiter,
// Metrics and DB may be nil.
type Dependencies struct {
	Auth         *service.AuthService
	Users        *service.UserService
	Groups       *service.GroupService
	Validator    *schema.Validator
	Limiter      *service.LoginLimiter
	Metrics      *Metrics
	DB           Pinger
	CookieSecure bool
}

// RegisterRoutes sets up all HTTP routes on the given mux. Every known path
// also gets a method-less pattern so unsupported methods receive the JSON
// envelope rather than the mux's plain-text 405.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	v := deps.Validator
	if v == nil {
		v = schema.NewValidator()
	}
	guard := NewSessionGuard(deps.Auth, deps.CookieSecure)
	authHandler := NewAuthHandler(deps.Auth, guard, v, deps.Limiter, deps.Metrics, deps.CookieSecure)
	users := NewUserHandler(deps.Users, v)
	groups := NewGroupHandler(deps.Groups, v)

	session := guard.RequireSession
	admin := guard.RequireAdmin
	notAllowed := http.HandlerFunc(HandleMethodNotAllowed)

	// Infrastructure.
	mux.HandleFunc("GET /healthz", HandleHealthz(deps.DB))
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics.Handler())
	}

	// Browser pages.
	mux.Handle("GET /{$}", guard.RequireBrowserSession(HandleHome))
	mux.Handle("GET /users", guard.RequireBrowserSession(HandleUsersPage(deps.Users)))
	mux.Handle("GET /groups", guard.RequireBrowserSession(HandleGroupsPage(deps.Groups)))
	mux.HandleFunc("GET /login", authHandler.HandleLoginPage)
	mux.HandleFunc("POST /login", authHandler.HandleLogin)
	mux.Handle("/login", notAllowed)
	mux.HandleFunc("GET /logout", authHandler.HandleLogout)
	mux.HandleFunc("POST /logout", authHandler.HandleLogout)
	mux.Handle("/logout", notAllowed)

	// Session.
	mux.Handle("GET /api/me", session(authHandler.HandleMe))
	mux.Handle("/api/me", notAllowed)
	mux.Handle("GET /api/nav", session(HandleNavigation))
	mux.Handle("/api/nav", notAllowed)

	// Users.
	mux.Handle("GET /api/users", session(users.HandleList))
	mux.Handle("POST /api/users", admin(users.HandleCreate))
	mux.Handle("/api/users", notAllowed)
	mux.Handle("GET /api/users/{id}", session(users.HandleGet))
	mux.Handle("PUT /api/users/{id}", admin(users.HandleUpdate))
	mux.Handle("DELETE /api/users/{id}", admin(users.HandleDelete))
	mux.Handle("/api/users/{id}", notAllowed)
	mux.Handle("POST /api/users/{id}/tag/{tag}", admin(users.HandleAddTags))
	mux.Handle("DELETE /api/users/{id}/tag/{tag}", admin(users.HandleRemoveTag))
	mux.Handle("/api/users/{id}/tag/{tag}", notAllowed)
	mux.Handle("/api/users/{id}/tag", admin(HandleMissingTag))
	mux.Handle("/api/users/{id}/tag/{$}", admin(HandleMissingTag))
	mux.Handle("PUT /api/users/{id}/group/{groupId}", admin(users.HandleAddToGroup))
	mux.Handle("DELETE /api/users/{id}/group/{groupId}", admin(users.HandleRemoveFromGroup))
	mux.Handle("/api/users/{id}/group/{groupId}", notAllowed)
	mux.Handle("/api/users/{id}/group", admin(HandleMissingGroup))
	mux.Handle("/api/users/{id}/group/{$}", admin(HandleMissingGroup))

	// Groups.
	mux.Handle("GET /api/groups", session(groups.HandleList))
	mux.Handle("POST /api/groups", admin(groups.HandleCreate))
	mux.Handle("/api/groups", notAllowed)
	mux.Handle("GET /api/groups/{id}", session(groups.HandleGet))
	mux.Handle("PUT /api/groups/{id}", admin(groups.HandleUpdate))
	mux.Handle("DELETE /api/groups/{id}", admin(groups.HandleDelete))
	mux.Handle("/api/groups/{id}", notAllowed)
	mux.Handle("POST /api/groups/{id}/tag/{tag}", admin(groups.HandleAddTags))
	mux.Handle("DELETE /api/groups/{id}/tag/{tag}", admin(groups.HandleRemoveTag))
	mux.Handle("/api/groups/{id}/tag/{tag}", notAllowed)
	mux.Handle("/api/groups/{id}/tag", admin(HandleMissingTag))
	mux.Handle("/api/groups/{id}/tag/{$}", admin(HandleMissingTag))

	mux.HandleFunc("/api/", HandleNotFound)
	mux.HandleFunc("/", HandleNotFound)
}

// Chain wraps the mux with the process-wide middleware, outermost first.
func Chain(h http.Handler, metrics *Metrics) http.Handler {
	h = SecurityHeaders(h)
	h = RequestLogger(h)
	if metrics != nil {
		h = metrics.Instrument(h)
	}
	return h
}
