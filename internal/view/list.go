package view

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/permpkin/admin-console/internal/domain"
)

// UsersPage lists users in a table.
func UsersPage(nav []Link, users []domain.User) templ.Component {
	return layout("Users", templ.ComponentFunc(func(ctx context.Context, iw io.Writer) error {
		w := &writer{w: iw}
		menu(w, nav)
		w.raw(`<main><h1>Users</h1>`)
		if len(users) == 0 {
			w.raw(`<p>No users.</p></main>`)
			return w.err
		}
		w.raw(`<table><thead><tr><th>Name</th><th>Email</th><th>Role</th><th>Status</th><th>Group</th><th>Tags</th></tr></thead><tbody>`)
		for _, u := range users {
			group := ""
			if u.Group != nil {
				group = u.Group.Title
			}
			row(w, u.Display, u.Email, string(u.Role), string(u.Status), group, tagList(u.Tags))
		}
		w.raw(`</tbody></table></main>`)
		return w.err
	}))
}

// GroupsPage lists groups with their members.
func GroupsPage(nav []Link, groups []domain.Group) templ.Component {
	return layout("Groups", templ.ComponentFunc(func(ctx context.Context, iw io.Writer) error {
		w := &writer{w: iw}
		menu(w, nav)
		w.raw(`<main><h1>Groups</h1>`)
		if len(groups) == 0 {
			w.raw(`<p>No groups.</p></main>`)
			return w.err
		}
		w.raw(`<table><thead><tr><th>Title</th><th>Description</th><th>Status</th><th>Members</th><th>Tags</th></tr></thead><tbody>`)
		for _, g := range groups {
			members := make([]string, len(g.Users))
			for i, m := range g.Users {
				members[i] = m.Display
			}
			row(w, g.Title, g.Description, string(g.Status), strings.Join(members, ", "), tagList(g.Tags))
		}
		w.raw(`</tbody></table></main>`)
		return w.err
	}))
}

func row(w *writer, cells ...string) {
	w.raw(`<tr>`)
	for _, c := range cells {
		w.raw(`<td>`)
		w.text(c)
		w.raw(`</td>`)
	}
	w.raw(`</tr>`)
}

func tagList(tags []domain.Tag) string {
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return strings.Join(names, ", ")
}
