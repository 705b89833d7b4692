package handler

import (
	"context"
	"net/http"

	"github.com/permpkin/admin-console/internal/domain"
	"github.com/permpkin/admin-console/internal/schema"
	"github.com/permpkin/admin-console/internal/service"
)

// UserHandler serves the /api/users routes.
type UserHandler struct {
	users     *service.UserService
	validator *schema.Validator
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *service.UserService, v *schema.Validator) *UserHandler {
	return &UserHandler{users: users, validator: v}
}

type userFilterInput struct {
	Role   string   `json:"role"`
	Status string   `json:"status"`
	Tags   []string `json:"tags"`
	Group  string   `json:"group"`
}

// HandleList returns the users the caller may see.
// GET /api/users?role=&status=&tags=a,b&group=
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	var in userFilterInput
	if err := bindQuery(r, h.validator, userFilterShape, &in); err != nil {
		writeDomainError(w, err, "user")
		return
	}

	users, err := h.users.List(context.WithoutCancel(r.Context()), UserFromContext(r.Context()), domain.UserFilter{
		Role:    domain.Role(in.Role),
		Status:  domain.UserStatus(in.Status),
		Tags:    in.Tags,
		GroupID: in.Group,
	})
	if err != nil {
		writeDomainError(w, err, "user")
		return
	}
	respondMany(w, "users", userView, users)
}

// HandleCreate adds a user.
// POST /api/users
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	in, err := h.bindUser(w, r, createUserShape)
	if err != nil {
		writeDomainError(w, err, "user")
		return
	}

	user, err := h.users.Create(context.WithoutCancel(r.Context()), in)
	if err != nil {
		writeDomainError(w, err, "user")
		return
	}
	respondOne(w, "user", userView, user)
}

// HandleGet returns one user.
// GET /api/users/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(context.WithoutCancel(r.Context()), UserFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err, "user")
		return
	}
	respondOne(w, "user", userView, user)
}

// HandleUpdate applies a partial edit.
// PUT /api/users/{id}
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	in, err := h.bindUser(w, r, updateUserShape)
	if err != nil {
		writeDomainError(w, err, "user")
		return
	}

	user, err := h.users.Update(context.WithoutCancel(r.Context()), r.PathValue("id"), in)
	if err != nil {
		writeDomainError(w, err, "user")
		return
	}
	respondOne(w, "user", userView, user)
}

// HandleDelete removes a user.
// DELETE /api/users/{id}
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(context.WithoutCancel(r.Context()), r.PathValue("id")); err != nil {
		writeDomainError(w, err, "user")
		return
	}
	writeSuccess(w, nil)
}

// HandleAddTags connects one or more comma separated tags.
// POST /api/users/{id}/tag/{tag}
func (h *UserHandler) HandleAddTags(w http.ResponseWriter, r *http.Request) {
	names := tagNames(r)
	if len(names) == 0 {
		HandleMissingTag(w, r)
		return
	}
	user, err := h.users.AddTags(context.WithoutCancel(r.Context()), r.PathValue("id"), names)
	if err != nil {
		writeDomainError(w, err, "user")
		return
	}
	respondOne(w, "user", userView, user)
}

// HandleRemoveTag disconnects a tag.
// DELETE /api/users/{id}/tag/{tag}
func (h *UserHandler) HandleRemoveTag(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.RemoveTag(context.WithoutCancel(r.Context()), r.PathValue("id"), r.PathValue("tag"))
	if err != nil {
		writeDomainError(w, err, "user")
		return
	}
	respondOne(w, "user", userView, user)
}

// HandleAddToGroup moves the user into a group.
// PUT /api/users/{id}/group/{groupId}
func (h *UserHandler) HandleAddToGroup(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.AddToGroup(context.WithoutCancel(r.Context()), r.PathValue("id"), r.PathValue("groupId"))
	if err != nil {
		writeDomainError(w, err, "user")
		return
	}
	respondOne(w, "user", userView, user)
}

// HandleRemoveFromGroup detaches the user from the named group.
// DELETE /api/users/{id}/group/{groupId}
func (h *UserHandler) HandleRemoveFromGroup(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.RemoveFromGroup(context.WithoutCancel(r.Context()), r.PathValue("id"), r.PathValue("groupId"))
	if err != nil {
		writeDomainError(w, err, "user")
		return
	}
	respondOne(w, "user", userView, user)
}

// bindUser decodes a user body. An explicit null group means "detach".
func (h *UserHandler) bindUser(w http.ResponseWriter, r *http.Request, shape schema.Shape) (service.UserInput, error) {
	var in service.UserInput
	data, err := bind(w, r, h.validator, shape, &in)
	if err != nil {
		return in, err
	}
	if g, ok := data["group"]; ok && g == nil {
		empty := ""
		in.Group = &empty
	}
	return in, nil
}
