package domain

import "time"

// Session is the decoded content of a session cookie.
type Session struct {
	UserID   string
	Remember bool
	IssuedAt time.Time
}

// RememberFor is how long a "remember me" session stays valid.
const RememberFor = 7 * 24 * time.Hour

// Scope limits what a caller may list. Admins see everything; everyone else
// is confined to their own group.
type Scope struct {
	Admin   bool
	GroupID *string
}

// ScopeFor derives the listing scope of the given caller.
func ScopeFor(caller *User) Scope {
	if caller.IsAdmin() {
		return Scope{Admin: true}
	}
	return Scope{GroupID: caller.GroupID()}
}

// Allows reports whether a group id is visible within the scope.
func (s Scope) Allows(groupID *string) bool {
	if s.Admin {
		return true
	}
	return s.GroupID != nil && groupID != nil && *s.GroupID == *groupID
}
