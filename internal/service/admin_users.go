package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/forgo/tontine/api/internal/database"
	"github.com/forgo/tontine/api/internal/model"
	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// AdminUserRepository defines the user repo interface needed by AdminUsersService
type AdminUserRepository interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	SetKycVerified(ctx context.Context, userID string, verified bool) error
	SetActive(ctx context.Context, userID string, active bool) error
	SetRole(ctx context.Context, userID string, role model.UserRole) error
}

// AdminUsersService handles admin account management. Role enforcement
// happens in middleware; every method assumes an authorized caller.
type AdminUsersService struct {
	db       database.Database
	userRepo AdminUserRepository
}

// NewAdminUsersService creates a new admin users service
func NewAdminUsersService(db database.Database, userRepo AdminUserRepository) *AdminUsersService {
	return &AdminUsersService{
		db:       db,
		userRepo: userRepo,
	}
}

// ListUsersRequest defines the request for listing users
type ListUsersRequest struct {
	Page        int    `json:"page"`
	PageSize    int    `json:"page_size"`
	Search      string `json:"search,omitempty"`
	Role        string `json:"role,omitempty"`
	KycVerified *bool  `json:"kyc_verified,omitempty"`
	Active      *bool  `json:"active,omitempty"`
	SortBy      string `json:"sort_by,omitempty"`
	SortDir     string `json:"sort_dir,omitempty"`
}

// AdminUserItem represents a user in the admin list
type AdminUserItem struct {
	ID               string  `json:"id"`
	Email            string  `json:"email"`
	Firstname        *string `json:"firstname,omitempty"`
	Lastname         *string `json:"lastname,omitempty"`
	Role             string  `json:"role"`
	IsActive         bool    `json:"is_active"`
	IsKycVerified    bool    `json:"is_kyc_verified"`
	ReliabilityScore int     `json:"reliability_score"`
	CreatedOn        string  `json:"created_on"`
	UpdatedOn        string  `json:"updated_on"`
	LoginOn          *string `json:"login_on,omitempty"`
}

// ListUsersResponse contains the paginated user list
type ListUsersResponse struct {
	Users    []AdminUserItem `json:"users"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

// AdminUserStats summarizes a user's participation
type AdminUserStats struct {
	GroupCount        int `json:"group_count"`
	ContributionCount int `json:"contribution_count"`
	OverdueCount      int `json:"overdue_count"`
}

// AdminUserDetail bundles an account with its participation stats
type AdminUserDetail struct {
	User  *model.User     `json:"user"`
	Stats *AdminUserStats `json:"stats"`
}

// ListUsers returns a paginated list of users with search/filter/sort
func (s *AdminUsersService) ListUsers(ctx context.Context, req ListUsersRequest) (*ListUsersResponse, error) {
	// Defaults
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	// Build WHERE clause
	var conditions []string
	vars := map[string]interface{}{
		"limit":  req.PageSize,
		"offset": (req.Page - 1) * req.PageSize,
	}

	if req.Search != "" {
		conditions = append(conditions, "(string::lowercase(email) CONTAINS string::lowercase($search) OR string::lowercase(firstname ?? '') CONTAINS string::lowercase($search) OR string::lowercase(lastname ?? '') CONTAINS string::lowercase($search))")
		vars["search"] = req.Search
	}

	if req.Role != "" {
		conditions = append(conditions, "role = $role")
		vars["role"] = req.Role
	}

	if req.KycVerified != nil {
		conditions = append(conditions, "is_kyc_verified = $kyc_verified")
		vars["kyc_verified"] = *req.KycVerified
	}

	if req.Active != nil {
		conditions = append(conditions, "is_active = $active")
		vars["active"] = *req.Active
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Build ORDER BY
	sortBy := "created_on"
	sortDir := "DESC"
	validSorts := map[string]bool{"email": true, "role": true, "reliability_score": true, "created_on": true, "updated_on": true}
	if req.SortBy != "" && validSorts[req.SortBy] {
		sortBy = req.SortBy
	}
	if req.SortDir == "asc" || req.SortDir == "ASC" {
		sortDir = "ASC"
	}

	// Count query
	countQuery := fmt.Sprintf("SELECT count() AS total FROM user %s GROUP ALL", whereClause)
	countResults, err := s.db.Query(ctx, countQuery, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	total := extractCountValue(countResults)

	// Data query
	dataQuery := fmt.Sprintf(`
		SELECT
			id,
			email,
			firstname,
			lastname,
			role,
			is_active,
			is_kyc_verified,
			reliability_score,
			created_on,
			updated_on,
			login_on
		FROM user
		%s
		ORDER BY %s %s
		LIMIT $limit
		START $offset
	`, whereClause, sortBy, sortDir)

	results, err := s.db.Query(ctx, dataQuery, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	rows := extractResultArray(results)

	users := make([]AdminUserItem, 0, len(rows))
	for _, row := range rows {
		users = append(users, AdminUserItem{
			ID:               getStringField(row, "id"),
			Email:            getStringField(row, "email"),
			Firstname:        getOptStringField(row, "firstname"),
			Lastname:         getOptStringField(row, "lastname"),
			Role:             getStringField(row, "role"),
			IsActive:         getBoolField(row, "is_active"),
			IsKycVerified:    getBoolField(row, "is_kyc_verified"),
			ReliabilityScore: getIntField(row, "reliability_score"),
			CreatedOn:        getTimeStringField(row, "created_on"),
			UpdatedOn:        getTimeStringField(row, "updated_on"),
			LoginOn:          getOptTimeStringField(row, "login_on"),
		})
	}

	return &ListUsersResponse{
		Users:    users,
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
	}, nil
}

// GetUserDetail returns a single account with participation stats
func (s *AdminUsersService) GetUserDetail(ctx context.Context, userID string) (*AdminUserDetail, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	return &AdminUserDetail{
		User:  user,
		Stats: s.getUserStats(ctx, userID),
	}, nil
}

// getUserStats retrieves participation counts from the database
func (s *AdminUsersService) getUserStats(ctx context.Context, userID string) *AdminUserStats {
	stats := &AdminUserStats{}
	vars := map[string]interface{}{"user_id": userID}

	groupQuery := `SELECT count() AS total FROM group WHERE members.user_id CONTAINS $user_id GROUP ALL`
	if results, err := s.db.Query(ctx, groupQuery, vars); err == nil {
		stats.GroupCount = extractCountValue(results)
	}

	contributionQuery := `SELECT count() AS total FROM contribution WHERE user = type::record($user_id) GROUP ALL`
	if results, err := s.db.Query(ctx, contributionQuery, vars); err == nil {
		stats.ContributionCount = extractCountValue(results)
	}

	overdueQuery := `SELECT count() AS total FROM contribution WHERE user = type::record($user_id) AND status = $pending AND due_date < time::now() GROUP ALL`
	overdueVars := map[string]interface{}{
		"user_id": userID,
		"pending": string(model.ContributionStatusPending),
	}
	if results, err := s.db.Query(ctx, overdueQuery, overdueVars); err == nil {
		stats.OverdueCount = extractCountValue(results)
	}

	return stats
}

// SetKycVerified records the outcome of identity verification
func (s *AdminUsersService) SetKycVerified(ctx context.Context, userID string, verified bool) (*model.User, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.SetKycVerified(ctx, userID, verified); err != nil {
		return nil, err
	}

	user.IsKycVerified = verified
	return user, nil
}

// SetActive suspends or reinstates an account. Suspension blocks login
// and group joins but leaves existing obligations in place.
func (s *AdminUsersService) SetActive(ctx context.Context, userID string, active bool) (*model.User, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.SetActive(ctx, userID, active); err != nil {
		return nil, err
	}

	user.IsActive = active
	return user, nil
}

// UpdateUserRole updates a user's role with self-demotion protection
func (s *AdminUsersService) UpdateUserRole(ctx context.Context, adminUserID, targetUserID string, role model.UserRole) (*model.User, error) {
	if !role.IsValid() {
		return nil, model.NewValidationError([]model.FieldError{
			{Field: "role", Message: "role must be user or admin"},
		})
	}

	// Self-demotion protection
	if adminUserID == targetUserID && role != model.UserRoleAdmin {
		return nil, ErrSelfRoleChange
	}

	user, err := s.loadUser(ctx, targetUserID)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.SetRole(ctx, targetUserID, role); err != nil {
		return nil, err
	}

	user.Role = role
	return user, nil
}

func (s *AdminUsersService) loadUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Helper: extract count value from SurrealDB count() query result
func extractCountValue(results []interface{}) int {
	if len(results) == 0 {
		return 0
	}

	resp, ok := results[0].(map[string]interface{})
	if !ok {
		return 0
	}

	result, ok := resp["result"]
	if !ok {
		return 0
	}

	arr, ok := result.([]interface{})
	if !ok || len(arr) == 0 {
		return 0
	}

	data, ok := arr[0].(map[string]interface{})
	if !ok {
		return 0
	}

	if total, ok := data["total"].(float64); ok {
		return int(total)
	}
	if total, ok := data["total"].(int); ok {
		return total
	}

	return 0
}

// Helper: extract result rows from SurrealDB query response
func extractResultArray(results []interface{}) []map[string]interface{} {
	if len(results) == 0 {
		return nil
	}

	resp, ok := results[0].(map[string]interface{})
	if !ok {
		return nil
	}

	arr, ok := resp["result"].([]interface{})
	if !ok {
		return nil
	}

	rows := make([]map[string]interface{}, 0, len(arr))
	for _, item := range arr {
		if row, ok := item.(map[string]interface{}); ok {
			rows = append(rows, row)
		}
	}
	return rows
}

// Helper: get string field from result map
func getStringField(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
		// Handle SurrealDB record IDs
		return formatRecordID(v)
	}
	return ""
}

// Helper: get optional string field from result map
func getOptStringField(m map[string]interface{}, key string) *string {
	if v, ok := m[key]; ok && v != nil {
		if s, ok := v.(string); ok && s != "" {
			return &s
		}
	}
	return nil
}

// Helper: get bool field from result map
func getBoolField(m map[string]interface{}, key string) bool {
	if v, ok := m[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

// Helper: get int field from result map
func getIntField(m map[string]interface{}, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v)
	}
	return 0
}

// Helper: get time field as RFC3339 string
func getTimeStringField(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok && v != nil {
		switch val := v.(type) {
		case string:
			return val
		case time.Time:
			return val.Format(time.RFC3339)
		case models.CustomDateTime:
			return val.Format(time.RFC3339)
		case *models.CustomDateTime:
			if val != nil {
				return val.Format(time.RFC3339)
			}
		}
	}
	return ""
}

// Helper: get optional time field as RFC3339 string
func getOptTimeStringField(m map[string]interface{}, key string) *string {
	if v, ok := m[key]; ok && v != nil {
		var s string
		switch val := v.(type) {
		case string:
			s = val
		case time.Time:
			s = val.Format(time.RFC3339)
		case models.CustomDateTime:
			s = val.Format(time.RFC3339)
		case *models.CustomDateTime:
			if val != nil {
				s = val.Format(time.RFC3339)
			}
		default:
			return nil
		}
		if s != "" {
			return &s
		}
	}
	return nil
}

// Helper: format a SurrealDB record id as table:id
func formatRecordID(v interface{}) string {
	switch id := v.(type) {
	case models.RecordID:
		return id.String()
	case *models.RecordID:
		if id != nil {
			return id.String()
		}
	case map[string]interface{}:
		if tb, ok := id["tb"].(string); ok {
			if raw, ok := id["id"].(string); ok {
				return tb + ":" + raw
			}
		}
	}
	return ""
}
