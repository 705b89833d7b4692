package domain

import (
	"context"
	"time"
)

type GroupStatus string

const (
	GroupStatusActive GroupStatus = "Active"
	GroupStatusPaused GroupStatus = "Paused"
)

// Group is a named collection of users.
type Group struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Status      GroupStatus   `json:"status"`
	Tags        []Tag         `json:"tags"`
	Users       []GroupMember `json:"users"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// GroupMember is the short form of a user listed under a group.
type GroupMember struct {
	ID      string     `json:"id"`
	Email   string     `json:"email"`
	Display string     `json:"display"`
	Role    Role       `json:"role"`
	Status  UserStatus `json:"status"`
}

type GroupChanges struct {
	Title       *string
	Description *string
	Status      *GroupStatus
	Tags        []string
}

type GroupFilter struct {
	Status GroupStatus
	Tags   []string
}

type GroupCriteria struct {
	Title string
}

// GroupRepository defines persistence operations for groups.
type GroupRepository interface {
	Create(ctx context.Context, group *Group, tags []string) error
	GetByID(ctx context.Context, id string) (*Group, error)
	Update(ctx context.Context, id string, changes GroupChanges) (*Group, error)
	Delete(ctx context.Context, id string) error
	ListWhere(ctx context.Context, scope Scope, filter GroupFilter) ([]Group, error)
	Exists(ctx context.Context, criteria GroupCriteria) (bool, error)

	AddTags(ctx context.Context, id string, names []string) (*Group, error)
	RemoveTag(ctx context.Context, id string, name string) (*Group, error)
}
