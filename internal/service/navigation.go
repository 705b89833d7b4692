package service

import "github.com/permpkin/admin-console/internal/domain"

// NavItem is one entry of the console's main menu.
type NavItem struct {
	Name string `json:"name"`
	Href string `json:"href"`
}

// Navigation returns the menu for user. Group management is admin only.
func Navigation(user *domain.User) []NavItem {
	if user == nil {
		return []NavItem{}
	}
	nav := []NavItem{{Name: "Users", Href: "/users"}}
	if user.IsAdmin() {
		nav = append(nav, NavItem{Name: "Groups", Href: "/groups"})
	}
	return nav
}
