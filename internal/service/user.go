package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/permpkin/admin-console/internal/domain"
)

// UserInput is the validated body of a user create or update. Nil fields
// were not supplied.
type UserInput struct {
	Email    *string  `json:"email"`
	Display  *string  `json:"display"`
	Password *string  `json:"password"`
	Status   *string  `json:"status"`
	Role     *string  `json:"role"`
	Group    *string  `json:"group"`
	Tags     []string `json:"tags"`
}

// clearsGroup reports whether the input asks to detach the user from its
// group. Forms send "" or "null" for the empty option.
func (in UserInput) clearsGroup() bool {
	return in.Group != nil && (*in.Group == "" || *in.Group == "null")
}

// UserService implements user management on top of the repository.
type UserService struct {
	users domain.UserRepository
	auth  *AuthService
}

// NewUserService creates a new UserService.
func NewUserService(users domain.UserRepository, auth *AuthService) *UserService {
	return &UserService{users: users, auth: auth}
}

// Create adds a user. Display falls back to the email, status to Pending and
// role to Standard. A password is optional; without one the account cannot
// sign in.
func (s *UserService) Create(ctx context.Context, in UserInput) (*domain.User, error) {
	if in.Email == nil || strings.TrimSpace(*in.Email) == "" {
		return nil, fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}

	user := &domain.User{
		Email:  strings.ToLower(strings.TrimSpace(*in.Email)),
		Status: domain.UserStatusPending,
		Role:   domain.RoleStandard,
	}
	user.Display = user.Email
	if in.Display != nil && strings.TrimSpace(*in.Display) != "" {
		user.Display = strings.TrimSpace(*in.Display)
	}
	if in.Status != nil {
		user.Status = domain.UserStatus(*in.Status)
	}
	if in.Role != nil {
		user.Role = domain.Role(*in.Role)
	}
	if in.Group != nil && !in.clearsGroup() {
		user.Group = &domain.GroupRef{ID: *in.Group}
	}
	if in.Password != nil && *in.Password != "" {
		hash, err := s.auth.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = &hash
	}

	if err := s.users.Create(ctx, user, in.Tags); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Get returns a user visible to caller. Non-admins may see themselves and
// members of their own group.
func (s *UserService) Get(ctx context.Context, caller *domain.User, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if caller.ID != user.ID && !domain.ScopeFor(caller).Allows(user.GroupID()) {
		return nil, domain.ErrForbidden
	}
	return user, nil
}

// List returns the users caller may see that match filter.
func (s *UserService) List(ctx context.Context, caller *domain.User, filter domain.UserFilter) ([]domain.User, error) {
	users, err := s.users.ListWhere(ctx, domain.ScopeFor(caller), filter)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Update applies a partial edit. Empty display and password values are
// ignored; tags are added to the existing set.
func (s *UserService) Update(ctx context.Context, id string, in UserInput) (*domain.User, error) {
	changes := domain.UserChanges{Tags: in.Tags}
	if in.Email != nil && strings.TrimSpace(*in.Email) != "" {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		changes.Email = &email
	}
	if in.Display != nil && strings.TrimSpace(*in.Display) != "" {
		display := strings.TrimSpace(*in.Display)
		changes.Display = &display
	}
	if in.Status != nil {
		status := domain.UserStatus(*in.Status)
		changes.Status = &status
	}
	if in.Role != nil {
		role := domain.Role(*in.Role)
		changes.Role = &role
	}
	switch {
	case in.clearsGroup():
		changes.ClearGroup = true
	case in.Group != nil:
		changes.GroupID = in.Group
	}
	if in.Password != nil && *in.Password != "" {
		hash, err := s.auth.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		changes.PasswordHash = &hash
	}

	user, err := s.users.Update(ctx, id, changes)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// AddTags connects the comma separated tag names to the user.
func (s *UserService) AddTags(ctx context.Context, id string, names []string) (*domain.User, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: missing tag", domain.ErrInvalidInput)
	}
	user, err := s.users.AddTags(ctx, id, names)
	if err != nil {
		return nil, fmt.Errorf("add user tags: %w", err)
	}
	return user, nil
}

func (s *UserService) RemoveTag(ctx context.Context, id, name string) (*domain.User, error) {
	user, err := s.users.RemoveTag(ctx, id, name)
	if err != nil {
		return nil, fmt.Errorf("remove user tag: %w", err)
	}
	return user, nil
}

func (s *UserService) AddToGroup(ctx context.Context, userID, groupID string) (*domain.User, error) {
	user, err := s.users.AddToGroup(ctx, userID, groupID)
	if err != nil {
		return nil, fmt.Errorf("add user to group: %w", err)
	}
	return user, nil
}

// RemoveFromGroup detaches the user from groupID. It fails with
// ErrNotInGroup when the user belongs to no group or to another one.
func (s *UserService) RemoveFromGroup(ctx context.Context, userID, groupID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user.Group == nil || user.Group.ID != groupID {
		return nil, domain.ErrNotInGroup
	}

	user, err = s.users.RemoveFromGroup(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("remove user from group: %w", err)
	}
	return user, nil
}
