package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/forgo/tontine/api/internal/middleware"
	"github.com/forgo/tontine/api/internal/model"
	"github.com/forgo/tontine/api/internal/service"
)

// AdminUsersHandler handles admin user management endpoints
type AdminUsersHandler struct {
	usersService *service.AdminUsersService
}

// NewAdminUsersHandler creates a new admin users handler
func NewAdminUsersHandler(usersService *service.AdminUsersService) *AdminUsersHandler {
	return &AdminUsersHandler{usersService: usersService}
}

// UpdateRoleRequest represents the admin role patch request body
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// SetKycRequest represents the KYC verification request body
type SetKycRequest struct {
	Verified bool `json:"verified"`
}

// SetActiveRequest represents the account activation request body
type SetActiveRequest struct {
	Active bool `json:"active"`
}

// ListUsers handles GET /v1/admin/users
func (h *AdminUsersHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	req := service.ListUsersRequest{
		Page:     page,
		PageSize: pageSize,
		Search:   q.Get("search"),
		Role:     q.Get("role"),
		SortBy:   q.Get("sort_by"),
		SortDir:  q.Get("sort_dir"),
	}
	if v := q.Get("kyc_verified"); v != "" {
		b := v == "true"
		req.KycVerified = &b
	}
	if v := q.Get("active"); v != "" {
		b := v == "true"
		req.Active = &b
	}

	result, err := h.usersService.ListUsers(r.Context(), req)
	if err != nil {
		WriteError(w, model.NewInternalError("Failed to list users: "+err.Error()))
		return
	}

	WriteData(w, http.StatusOK, result, nil)
}

// GetUser handles GET /v1/admin/users/{userId}
func (h *AdminUsersHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	if userID == "" {
		WriteError(w, model.NewBadRequestError("userId is required"))
		return
	}

	result, err := h.usersService.GetUserDetail(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			WriteError(w, model.NewNotFoundError("user"))
			return
		}
		WriteError(w, model.NewInternalError("Failed to get user: "+err.Error()))
		return
	}

	WriteData(w, http.StatusOK, result, nil)
}

// UpdateRole handles PATCH /v1/admin/users/{userId}/role
func (h *AdminUsersHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	if userID == "" {
		WriteError(w, model.NewBadRequestError("userId is required"))
		return
	}

	var req UpdateRoleRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	role := model.UserRole(req.Role)
	if !role.IsValid() {
		WriteError(w, model.NewBadRequestError("Invalid role. Must be one of: user, admin"))
		return
	}

	adminUserID := middleware.GetUserID(r.Context())

	user, err := h.usersService.UpdateUserRole(r.Context(), adminUserID, userID, role)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			WriteError(w, model.NewNotFoundError("user"))
		case errors.Is(err, service.ErrSelfRoleChange):
			WriteError(w, model.NewUnprocessableError(err.Error(), model.ErrCodeInvalidInput))
		default:
			WriteError(w, model.NewInternalError("Failed to update role: "+err.Error()))
		}
		return
	}

	WriteData(w, http.StatusOK, toUserResponse(user), nil)
}

// SetKycVerified handles PATCH /v1/admin/users/{userId}/kyc
func (h *AdminUsersHandler) SetKycVerified(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	if userID == "" {
		WriteError(w, model.NewBadRequestError("userId is required"))
		return
	}

	var req SetKycRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	user, err := h.usersService.SetKycVerified(r.Context(), userID, req.Verified)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			WriteError(w, model.NewNotFoundError("user"))
			return
		}
		WriteError(w, model.NewInternalError("Failed to update KYC status: "+err.Error()))
		return
	}

	WriteData(w, http.StatusOK, toUserResponse(user), nil)
}

// SetActive handles PATCH /v1/admin/users/{userId}/active
func (h *AdminUsersHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	if userID == "" {
		WriteError(w, model.NewBadRequestError("userId is required"))
		return
	}

	var req SetActiveRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	user, err := h.usersService.SetActive(r.Context(), userID, req.Active)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			WriteError(w, model.NewNotFoundError("user"))
			return
		}
		WriteError(w, model.NewInternalError("Failed to update account status: "+err.Error()))
		return
	}

	WriteData(w, http.StatusOK, toUserResponse(user), nil)
}
