package domain

import (
	"context"
	"time"
)

type UserStatus string

const (
	UserStatusPending UserStatus = "Pending"
	UserStatusActive  UserStatus = "Active"
	UserStatusPaused  UserStatus = "Paused"
)

type Role string

const (
	RoleAdmin    Role = "Admin"
	RoleClient   Role = "Client"
	RoleStandard Role = "Standard"
)

// User represents an account managed through the console.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Display      string     `json:"display"`
	PasswordHash *string    `json:"-"`
	Status       UserStatus `json:"status"`
	Role         Role       `json:"role"`
	Group        *GroupRef  `json:"group,omitempty"`
	Tags         []Tag      `json:"tags"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// IsAdmin reports whether the user holds the Admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// GroupID returns the id of the user's group, or nil when ungrouped.
func (u *User) GroupID() *string {
	if u == nil || u.Group == nil {
		return nil
	}
	id := u.Group.ID
	return &id
}

// GroupRef is the short form of a group embedded in a user.
type GroupRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// UserChanges carries a partial update. Nil fields are left untouched.
// ClearGroup detaches the user from its group; GroupID attaches it.
type UserChanges struct {
	Email        *string
	Display      *string
	PasswordHash *string
	Status       *UserStatus
	Role         *Role
	GroupID      *string
	ClearGroup   bool
	Tags         []string
}

// UserFilter narrows ListWhere results. Zero values mean "any".
type UserFilter struct {
	Role    Role
	Status  UserStatus
	Tags    []string
	GroupID string
}

// UserCriteria is matched by Exists. Empty fields are ignored.
type UserCriteria struct {
	Email string
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *User, tags []string) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, id string, changes UserChanges) (*User, error)
	Delete(ctx context.Context, id string) error
	ListWhere(ctx context.Context, scope Scope, filter UserFilter) ([]User, error)
	Exists(ctx context.Context, criteria UserCriteria) (bool, error)

	AddTags(ctx context.Context, id string, names []string) (*User, error)
	RemoveTag(ctx context.Context, id string, name string) (*User, error)

	AddToGroup(ctx context.Context, userID, groupID string) (*User, error)
	RemoveFromGroup(ctx context.Context, userID string) (*User, error)
}
