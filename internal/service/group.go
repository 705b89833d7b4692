package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/permpkin/admin-console/internal/domain"
)

// GroupInput is the validated body of a group create or update.
type GroupInput struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Status      *string  `json:"status"`
	Tags        []string `json:"tags"`
}

// GroupService implements group management on top of the repository.
type GroupService struct {
	groups domain.GroupRepository
}

// NewGroupService creates a new GroupService.
func NewGroupService(groups domain.GroupRepository) *GroupService {
	return &GroupService{groups: groups}
}

func (s *GroupService) Create(ctx context.Context, in GroupInput) (*domain.Group, error) {
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}

	group := &domain.Group{
		Title:  strings.TrimSpace(*in.Title),
		Status: domain.GroupStatusActive,
	}
	if in.Description != nil {
		group.Description = *in.Description
	}
	if in.Status != nil {
		group.Status = domain.GroupStatus(*in.Status)
	}

	if err := s.groups.Create(ctx, group, in.Tags); err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}
	return group, nil
}

// Get returns a group visible to caller.
func (s *GroupService) Get(ctx context.Context, caller *domain.User, id string) (*domain.Group, error) {
	group, err := s.groups.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	if !domain.ScopeFor(caller).Allows(&group.ID) {
		return nil, domain.ErrForbidden
	}
	return group, nil
}

// List returns the groups caller may see; for non-admins that is at most
// their own group.
func (s *GroupService) List(ctx context.Context, caller *domain.User, filter domain.GroupFilter) ([]domain.Group, error) {
	groups, err := s.groups.ListWhere(ctx, domain.ScopeFor(caller), filter)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

func (s *GroupService) Update(ctx context.Context, id string, in GroupInput) (*domain.Group, error) {
	changes := domain.GroupChanges{Tags: in.Tags, Description: in.Description}
	if in.Title != nil && strings.TrimSpace(*in.Title) != "" {
		title := strings.TrimSpace(*in.Title)
		changes.Title = &title
	}
	if in.Status != nil {
		status := domain.GroupStatus(*in.Status)
		changes.Status = &status
	}

	group, err := s.groups.Update(ctx, id, changes)
	if err != nil {
		return nil, fmt.Errorf("update group: %w", err)
	}
	return group, nil
}

func (s *GroupService) Delete(ctx context.Context, id string) error {
	if err := s.groups.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	return nil
}

func (s *GroupService) AddTags(ctx context.Context, id string, names []string) (*domain.Group, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: missing tag", domain.ErrInvalidInput)
	}
	group, err := s.groups.AddTags(ctx, id, names)
	if err != nil {
		return nil, fmt.Errorf("add group tags: %w", err)
	}
	return group, nil
}

func (s *GroupService) RemoveTag(ctx context.Context, id, name string) (*domain.Group, error) {
	group, err := s.groups.RemoveTag(ctx, id, name)
	if err != nil {
		return nil, fmt.Errorf("remove group tag: %w", err)
	}
	return group, nil
}
