package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/forgo/tontine/api/internal/middleware"
	"github.com/forgo/tontine/api/internal/model"
	"github.com/forgo/tontine/api/internal/service"
)

// GroupHandler handles group HTTP requests
type GroupHandler struct {
	svc *service.GroupService
}

// NewGroupHandler creates a new group handler
func NewGroupHandler(svc *service.GroupService) *GroupHandler {
	return &GroupHandler{svc: svc}
}

// List handles GET /v1/groups - list the caller's groups
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	groups, err := h.svc.ListUserGroups(ctx, userID)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "list groups"))
		return
	}

	WriteData(w, http.StatusOK, groups, nil)
}

// Discover handles GET /v1/groups/discover - browse public groups
func (h *GroupHandler) Discover(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	groups, err := h.svc.DiscoverGroups(ctx, limit, offset)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "discover groups"))
		return
	}

	WriteData(w, http.StatusOK, groups, nil)
}

// Create handles POST /v1/groups - create a new group
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	var req model.CreateGroupRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	if errs := req.Validate(time.Now()); len(errs) > 0 {
		WriteError(w, model.NewValidationError(errs))
		return
	}

	group, err := h.svc.CreateGroup(ctx, userID, req)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "create group"))
		return
	}

	WriteData(w, http.StatusCreated, group, map[string]string{
		"self": "/v1/groups/" + group.ID,
	})
}

// Get handles GET /v1/groups/{groupId} - get group details
func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	groupID := r.PathValue("groupId")
	if groupID == "" {
		WriteError(w, model.NewBadRequestError("group ID required"))
		return
	}

	group, err := h.svc.GetGroup(ctx, userID, groupID)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "get group"))
		return
	}

	WriteData(w, http.StatusOK, group, nil)
}

// Update handles PATCH /v1/groups/{groupId} - update group settings
func (h *GroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	groupID := r.PathValue("groupId")
	if groupID == "" {
		WriteError(w, model.NewBadRequestError("group ID required"))
		return
	}

	var req model.UpdateGroupRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		WriteError(w, model.NewValidationError(errs))
		return
	}

	group, err := h.svc.UpdateGroup(ctx, userID, groupID, req)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "update group"))
		return
	}

	WriteData(w, http.StatusOK, group, nil)
}

// Delete handles DELETE /v1/groups/{groupId} - cancel a group
func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	groupID := r.PathValue("groupId")
	if groupID == "" {
		WriteError(w, model.NewBadRequestError("group ID required"))
		return
	}

	if err := h.svc.DeleteGroup(ctx, userID, groupID); err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "delete group"))
		return
	}

	WriteNoContent(w)
}

// Join handles POST /v1/groups/{groupId}/join - join a group
func (h *GroupHandler) Join(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	groupID := r.PathValue("groupId")
	if groupID == "" {
		WriteError(w, model.NewBadRequestError("group ID required"))
		return
	}

	if err := h.svc.JoinGroup(ctx, userID, groupID); err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "join group"))
		return
	}

	WriteNoContent(w)
}

// Leave handles POST /v1/groups/{groupId}/leave - leave a group
func (h *GroupHandler) Leave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	groupID := r.PathValue("groupId")
	if groupID == "" {
		WriteError(w, model.NewBadRequestError("group ID required"))
		return
	}

	if err := h.svc.LeaveGroup(ctx, userID, groupID); err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "leave group"))
		return
	}

	WriteNoContent(w)
}

// GetMembers handles GET /v1/groups/{groupId}/members - list the roster
func (h *GroupHandler) GetMembers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	groupID := r.PathValue("groupId")
	if groupID == "" {
		WriteError(w, model.NewBadRequestError("group ID required"))
		return
	}

	members, err := h.svc.GetMembers(ctx, userID, groupID)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "list members"))
		return
	}

	WriteData(w, http.StatusOK, members, nil)
}

// UpdateMemberRole handles PATCH /v1/groups/{groupId}/members/{userId}/role
func (h *GroupHandler) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	groupID := r.PathValue("groupId")
	if groupID == "" {
		WriteError(w, model.NewBadRequestError("group ID required"))
		return
	}

	targetUserID := r.PathValue("userId")
	if targetUserID == "" {
		WriteError(w, model.NewBadRequestError("user ID required"))
		return
	}

	var req model.UpdateMemberRoleRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		WriteError(w, model.NewValidationError(errs))
		return
	}

	member, err := h.svc.UpdateMemberRole(ctx, userID, groupID, targetUserID, req.Role)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "update member role"))
		return
	}

	WriteData(w, http.StatusOK, member, nil)
}

// RemoveMember handles DELETE /v1/groups/{groupId}/members/{userId}
func (h *GroupHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	groupID := r.PathValue("groupId")
	if groupID == "" {
		WriteError(w, model.NewBadRequestError("group ID required"))
		return
	}

	targetUserID := r.PathValue("userId")
	if targetUserID == "" {
		WriteError(w, model.NewBadRequestError("user ID required"))
		return
	}

	if err := h.svc.RemoveMember(ctx, userID, groupID, targetUserID); err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "remove member"))
		return
	}

	WriteNoContent(w)
}
