package handler

import (
	"context"
	"net/http"

	"github.com/permpkin/admin-console/internal/domain"
	"github.com/permpkin/admin-console/internal/schema"
	"github.com/permpkin/admin-console/internal/service"
)

// GroupHandler serves the /api/groups routes.
type GroupHandler struct {
	groups    *service.GroupService
	validator *schema.Validator
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(groups *service.GroupService, v *schema.Validator) *GroupHandler {
	return &GroupHandler{groups: groups, validator: v}
}

type groupFilterInput struct {
	Status string   `json:"status"`
	Tags   []string `json:"tags"`
}

// GET /api/groups?status=&tags=a,b
func (h *GroupHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	var in groupFilterInput
	if err := bindQuery(r, h.validator, groupFilterShape, &in); err != nil {
		writeDomainError(w, err, "group")
		return
	}

	groups, err := h.groups.List(context.WithoutCancel(r.Context()), UserFromContext(r.Context()), domain.GroupFilter{
		Status: domain.GroupStatus(in.Status),
		Tags:   in.Tags,
	})
	if err != nil {
		writeDomainError(w, err, "group")
		return
	}
	respondMany(w, "groups", groupView, groups)
}

// POST /api/groups
func (h *GroupHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.GroupInput
	if _, err := bind(w, r, h.validator, createGroupShape, &in); err != nil {
		writeDomainError(w, err, "group")
		return
	}

	group, err := h.groups.Create(context.WithoutCancel(r.Context()), in)
	if err != nil {
		writeDomainError(w, err, "group")
		return
	}
	respondOne(w, "group", groupView, group)
}

// GET /api/groups/{id}
func (h *GroupHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	group, err := h.groups.Get(context.WithoutCancel(r.Context()), UserFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err, "group")
		return
	}
	respondOne(w, "group", groupView, group)
}

// PUT /api/groups/{id}
func (h *GroupHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var in service.GroupInput
	if _, err := bind(w, r, h.validator, updateGroupShape, &in); err != nil {
		writeDomainError(w, err, "group")
		return
	}

	group, err := h.groups.Update(context.WithoutCancel(r.Context()), r.PathValue("id"), in)
	if err != nil {
		writeDomainError(w, err, "group")
		return
	}
	respondOne(w, "group", groupView, group)
}

// DELETE /api/groups/{id}
func (h *GroupHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.groups.Delete(context.WithoutCancel(r.Context()), r.PathValue("id")); err != nil {
		writeDomainError(w, err, "group")
		return
	}
	writeSuccess(w, nil)
}

// POST /api/groups/{id}/tag/{tag}
func (h *GroupHandler) HandleAddTags(w http.ResponseWriter, r *http.Request) {
	names := tagNames(r)
	if len(names) == 0 {
		HandleMissingTag(w, r)
		return
	}
	group, err := h.groups.AddTags(context.WithoutCancel(r.Context()), r.PathValue("id"), names)
	if err != nil {
		writeDomainError(w, err, "group")
		return
	}
	respondOne(w, "group", groupView, group)
}

// DELETE /api/groups/{id}/tag/{tag}
func (h *GroupHandler) HandleRemoveTag(w http.ResponseWriter, r *http.Request) {
	group, err := h.groups.RemoveTag(context.WithoutCancel(r.Context()), r.PathValue("id"), r.PathValue("tag"))
	if err != nil {
		writeDomainError(w, err, "group")
		return
	}
	respondOne(w, "group", groupView, group)
}
