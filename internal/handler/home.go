package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"

	"github.com/permpkin/admin-console/internal/domain"
	"github.com/permpkin/admin-console/internal/service"
	"github.com/permpkin/admin-console/internal/view"
)

// HandleHome renders the home page with the caller's navigation.
// GET /
func HandleHome(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	display := ""
	if user != nil {
		display = user.Display
	}
	renderPage(w, r, view.HomePage(display, navLinks(user)))
}

// HandleUsersPage renders the users the caller may see.
// GET /users
func HandleUsersPage(users *service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())
		list, err := users.List(context.WithoutCancel(r.Context()), user, domain.UserFilter{})
		if err != nil {
			slog.Error("list users page", "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		renderPage(w, r, view.UsersPage(navLinks(user), list))
	}
}

// HandleGroupsPage renders the groups the caller may see.
// GET /groups
func HandleGroupsPage(groups *service.GroupService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())
		list, err := groups.List(context.WithoutCancel(r.Context()), user, domain.GroupFilter{})
		if err != nil {
			slog.Error("list groups page", "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		renderPage(w, r, view.GroupsPage(navLinks(user), list))
	}
}

// HandleNavigation returns the caller's navigation model.
// GET /api/nav
func HandleNavigation(w http.ResponseWriter, r *http.Request) {
	respondMany(w, "navigation", navView, service.Navigation(UserFromContext(r.Context())))
}

func navLinks(user *domain.User) []view.Link {
	nav := service.Navigation(user)
	links := make([]view.Link, len(nav))
	for i, item := range nav {
		links[i] = view.Link{Name: item.Name, Href: item.Href}
	}
	return links
}

func renderPage(w http.ResponseWriter, r *http.Request, page templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(r.Context(), w); err != nil {
		slog.Error("render page", "path", r.URL.Path, "error", err)
	}
}
