// Package fixtures provides test data factories for e2e testing.
//
// Each factory method creates entities with sensible defaults while allowing
// customization via option functions. Factories handle database insertion
// and return fully populated models.
//
// Usage:
//
//	f := fixtures.New(tdb.DB)
//	user := f.CreateUser(t)
//	group := f.CreateGroup(t, user)
//	contribution := f.CreateContribution(t, group, user)
package fixtures

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/forgo/tontine/api/internal/database"
	"github.com/forgo/tontine/api/internal/model"

	"golang.org/x/crypto/bcrypt"
)

// Factory creates test entities in the database
type Factory struct {
	db database.Database
}

// New creates a new fixture factory
func New(db database.Database) *Factory {
	return &Factory{db: db}
}

// randomID generates a random hex ID
func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// ctx returns a context with timeout
func ctx() context.Context {
	c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	// Store cancel to prevent leak warning
	_ = cancel
	return c
}

// ============================================================================
// User Fixtures
// ============================================================================

// UserOpts customizes user creation
type UserOpts struct {
	Email            string
	Password         string
	Role             model.UserRole
	IsActive         bool
	IsKycVerified    bool
	ReliabilityScore int
}

// CreateUser creates a user with optional customizations
func (f *Factory) CreateUser(t *testing.T, opts ...func(*UserOpts)) *model.User {
	t.Helper()

	o := &UserOpts{
		Email:            fmt.Sprintf("user_%s@test.local", randomID()),
		Password:         "testpass123",
		Role:             model.UserRoleUser,
		IsActive:         true,
		IsKycVerified:    false,
		ReliabilityScore: model.DefaultReliabilityScore,
	}
	for _, fn := range opts {
		fn(o)
	}

	// Hash password
	hash, err := bcrypt.GenerateFromPassword([]byte(o.Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("fixtures: failed to hash password: %v", err)
	}

	query := `
		CREATE user CONTENT {
			email: $email,
			hash: $hash,
			role: $role,
			is_active: $is_active,
			is_kyc_verified: $is_kyc_verified,
			reliability_score: $reliability_score,
			created_on: time::now(),
			updated_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"email":             o.Email,
		"hash":              string(hash),
		"role":              string(o.Role),
		"is_active":         o.IsActive,
		"is_kyc_verified":   o.IsKycVerified,
		"reliability_score": o.ReliabilityScore,
	}

	results, err := f.db.Query(ctx(), query, vars)
	if err != nil {
		t.Fatalf("fixtures: failed to create user: %v", err)
	}

	user := parseUserResult(t, results)
	user.Hash = nil // Don't expose hash in fixture
	return user
}

// CreateAdmin creates a platform admin user
func (f *Factory) CreateAdmin(t *testing.T) *model.User {
	return f.CreateUser(t, func(o *UserOpts) {
		o.Role = model.UserRoleAdmin
	})
}

// CreateVerifiedUser creates a KYC-verified user
func (f *Factory) CreateVerifiedUser(t *testing.T) *model.User {
	return f.CreateUser(t, func(o *UserOpts) {
		o.IsKycVerified = true
	})
}

// ============================================================================
// Group Fixtures
// ============================================================================

// GroupOpts customizes group creation
type GroupOpts struct {
	Name                  string
	Description           string
	ContributionAmount    float64
	ContributionFrequency model.ContributionFrequency
	StartDate             time.Time
	EndDate               time.Time
	MaxMembers            int
	IsPublic              bool
	RequiresKyc           bool
	MinReliabilityScore   int
	Status                model.GroupStatus
}

// WithPublicGroup makes the group publicly discoverable
func WithPublicGroup() func(*GroupOpts) {
	return func(o *GroupOpts) {
		o.IsPublic = true
	}
}

// CreateGroup creates a group with the creator as sole admin member
func (f *Factory) CreateGroup(t *testing.T, creator *model.User, opts ...func(*GroupOpts)) *model.Group {
	t.Helper()

	start := time.Now().UTC().Truncate(time.Second)
	o := &GroupOpts{
		Name:                  fmt.Sprintf("Group %s", randomID()),
		Description:           "Test group",
		ContributionAmount:    100,
		ContributionFrequency: model.FrequencyMonthly,
		StartDate:             start,
		EndDate:               start.AddDate(1, 0, 0),
		MaxMembers:            10,
		IsPublic:              false,
		RequiresKyc:           false,
		MinReliabilityScore:   0,
		Status:                model.GroupStatusActive,
	}
	for _, fn := range opts {
		fn(o)
	}

	query := `
		CREATE group CONTENT {
			name: $name,
			description: $description,
			created_by: type::record($created_by),
			status: $status,
			is_active: true,
			settings: {
				contribution_amount: $contribution_amount,
				contribution_frequency: $contribution_frequency,
				start_date: <datetime>$start_date,
				end_date: <datetime>$end_date,
				max_members: $max_members,
				is_public: $is_public,
				requires_kyc: $requires_kyc,
				min_reliability_score: $min_reliability_score
			},
			members: [{
				user_id: $created_by,
				role: "ADMIN",
				status: "ACTIVE",
				joined_at: time::now()
			}],
			version: 1,
			created_on: time::now(),
			updated_on: time::now()
		}
	`
	results, err := f.db.Query(ctx(), query, map[string]interface{}{
		"name":                   o.Name,
		"description":            o.Description,
		"created_by":             creator.ID,
		"status":                 string(o.Status),
		"contribution_amount":    o.ContributionAmount,
		"contribution_frequency": string(o.ContributionFrequency),
		"start_date":             o.StartDate.UTC().Format(time.RFC3339),
		"end_date":               o.EndDate.UTC().Format(time.RFC3339),
		"max_members":            o.MaxMembers,
		"is_public":              o.IsPublic,
		"requires_kyc":           o.RequiresKyc,
		"min_reliability_score":  o.MinReliabilityScore,
	})
	if err != nil {
		t.Fatalf("fixtures: failed to create group: %v", err)
	}

	return parseGroupResult(t, results)
}

// AddMemberToGroup appends a user to the group roster with MEMBER role
func (f *Factory) AddMemberToGroup(t *testing.T, user *model.User, group *model.Group) {
	f.addMemberWithRole(t, user, group, model.MemberRoleMember)
}

// AddAdminToGroup appends a user to the group roster with ADMIN role
func (f *Factory) AddAdminToGroup(t *testing.T, user *model.User, group *model.Group) {
	f.addMemberWithRole(t, user, group, model.MemberRoleAdmin)
}

func (f *Factory) addMemberWithRole(t *testing.T, user *model.User, group *model.Group, role model.MemberRole) {
	t.Helper()

	query := `
		UPDATE type::record($group_id) SET
			members += {
				user_id: $user_id,
				role: $role,
				status: "ACTIVE",
				joined_at: time::now()
			},
			version = version + 1,
			updated_on = time::now()
	`
	if err := f.db.Execute(ctx(), query, map[string]interface{}{
		"group_id": group.ID,
		"user_id":  user.ID,
		"role":     string(role),
	}); err != nil {
		t.Fatalf("fixtures: failed to add member to group: %v", err)
	}
}

// ============================================================================
// Contribution Fixtures
// ============================================================================

// ContributionOpts customizes contribution creation
type ContributionOpts struct {
	Amount  float64
	Cycle   int
	DueDate time.Time
	Status  model.ContributionStatus
}

// WithOverdueContribution makes the contribution pending past its due date
func WithOverdueContribution() func(*ContributionOpts) {
	return func(o *ContributionOpts) {
		o.Status = model.ContributionStatusPending
		o.DueDate = time.Now().UTC().Add(-48 * time.Hour)
	}
}

// CreateContribution creates a contribution for a user in a group
func (f *Factory) CreateContribution(t *testing.T, group *model.Group, user *model.User, opts ...func(*ContributionOpts)) *model.Contribution {
	t.Helper()

	o := &ContributionOpts{
		Amount:  group.Settings.ContributionAmount,
		Cycle:   1,
		DueDate: time.Now().UTC().Add(7 * 24 * time.Hour),
		Status:  model.ContributionStatusPending,
	}
	for _, fn := range opts {
		fn(o)
	}

	query := `
		CREATE contribution CONTENT {
			group_id: $group_id,
			user_id: $user_id,
			amount: $amount,
			cycle: $cycle,
			due_date: <datetime>$due_date,
			status: $status,
			penalties: [],
			created_on: time::now(),
			updated_on: time::now()
		}
	`
	results, err := f.db.Query(ctx(), query, map[string]interface{}{
		"group_id": group.ID,
		"user_id":  user.ID,
		"amount":   o.Amount,
		"cycle":    o.Cycle,
		"due_date": o.DueDate.UTC().Format(time.RFC3339),
		"status":   string(o.Status),
	})
	if err != nil {
		t.Fatalf("fixtures: failed to create contribution: %v", err)
	}

	return parseContributionResult(t, results)
}

// ============================================================================
// Payment Fixtures
// ============================================================================

// PaymentOpts customizes payment creation
type PaymentOpts struct {
	Amount float64
	Method model.PaymentMethod
	Status model.PaymentStatus
}

// CreatePayment creates a payment for a user
func (f *Factory) CreatePayment(t *testing.T, user *model.User, opts ...func(*PaymentOpts)) *model.Payment {
	t.Helper()

	o := &PaymentOpts{
		Amount: 100,
		Method: model.PaymentMethodBankTransfer,
		Status: model.PaymentStatusPending,
	}
	for _, fn := range opts {
		fn(o)
	}

	query := `
		CREATE payment CONTENT {
			user_id: $user_id,
			amount: $amount,
			method: $method,
			status: $status,
			created_on: time::now(),
			updated_on: time::now()
		}
	`
	results, err := f.db.Query(ctx(), query, map[string]interface{}{
		"user_id": user.ID,
		"amount":  o.Amount,
		"method":  string(o.Method),
		"status":  string(o.Status),
	})
	if err != nil {
		t.Fatalf("fixtures: failed to create payment: %v", err)
	}

	return parsePaymentResult(t, results)
}

// CreateSettledPayment creates a payment already marked SUCCEEDED
func (f *Factory) CreateSettledPayment(t *testing.T, user *model.User, amount float64) *model.Payment {
	t.Helper()

	payment := f.CreatePayment(t, user, func(o *PaymentOpts) {
		o.Amount = amount
	})

	query := `UPDATE type::record($payment_id) SET status = "SUCCEEDED", settled_on = time::now(), updated_on = time::now()`
	if err := f.db.Execute(ctx(), query, map[string]interface{}{"payment_id": payment.ID}); err != nil {
		t.Fatalf("fixtures: failed to settle payment: %v", err)
	}

	payment.Status = model.PaymentStatusSucceeded
	return payment
}

// ============================================================================
// Result Parsing Helpers
// ============================================================================

func parseUserResult(t *testing.T, results []interface{}) *model.User {
	t.Helper()
	data := extractFirstResult(t, results)
	return &model.User{
		ID:               getString(data, "id"),
		Email:            getString(data, "email"),
		Role:             model.UserRole(getString(data, "role")),
		IsActive:         getBool(data, "is_active"),
		IsKycVerified:    getBool(data, "is_kyc_verified"),
		ReliabilityScore: getInt(data, "reliability_score"),
		CreatedOn:        getTime(data, "created_on"),
		UpdatedOn:        getTime(data, "updated_on"),
	}
}

func parseGroupResult(t *testing.T, results []interface{}) *model.Group {
	t.Helper()
	data := extractFirstResult(t, results)

	group := &model.Group{
		ID:        getString(data, "id"),
		Name:      getString(data, "name"),
		CreatedBy: getString(data, "created_by"),
		Status:    model.GroupStatus(getString(data, "status")),
		IsActive:  getBool(data, "is_active"),
		Version:   getInt(data, "version"),
		CreatedOn: getTime(data, "created_on"),
		UpdatedOn: getTime(data, "updated_on"),
	}

	if settings, ok := data["settings"].(map[string]interface{}); ok {
		group.Settings = model.GroupSettings{
			ContributionAmount:    getFloat(settings, "contribution_amount"),
			ContributionFrequency: model.ContributionFrequency(getString(settings, "contribution_frequency")),
			StartDate:             getTime(settings, "start_date"),
			EndDate:               getTime(settings, "end_date"),
			MaxMembers:            getInt(settings, "max_members"),
			IsPublic:              getBool(settings, "is_public"),
			RequiresKyc:           getBool(settings, "requires_kyc"),
			MinReliabilityScore:   getInt(settings, "min_reliability_score"),
		}
	}

	if members, ok := data["members"].([]interface{}); ok {
		for _, m := range members {
			entry, ok := m.(map[string]interface{})
			if !ok {
				continue
			}
			group.Members = append(group.Members, model.Member{
				UserID:   getString(entry, "user_id"),
				Role:     model.MemberRole(getString(entry, "role")),
				Status:   model.MemberStatus(getString(entry, "status")),
				JoinedAt: getTime(entry, "joined_at"),
			})
		}
	}

	return group
}

func parseContributionResult(t *testing.T, results []interface{}) *model.Contribution {
	t.Helper()
	data := extractFirstResult(t, results)
	return &model.Contribution{
		ID:        getString(data, "id"),
		GroupID:   getString(data, "group_id"),
		UserID:    getString(data, "user_id"),
		Amount:    getFloat(data, "amount"),
		Cycle:     getInt(data, "cycle"),
		DueDate:   getTime(data, "due_date"),
		Status:    model.ContributionStatus(getString(data, "status")),
		CreatedOn: getTime(data, "created_on"),
		UpdatedOn: getTime(data, "updated_on"),
	}
}

func parsePaymentResult(t *testing.T, results []interface{}) *model.Payment {
	t.Helper()
	data := extractFirstResult(t, results)
	return &model.Payment{
		ID:        getString(data, "id"),
		UserID:    getString(data, "user_id"),
		Amount:    getFloat(data, "amount"),
		Method:    model.PaymentMethod(getString(data, "method")),
		Status:    model.PaymentStatus(getString(data, "status")),
		CreatedOn: getTime(data, "created_on"),
		UpdatedOn: getTime(data, "updated_on"),
	}
}

// ============================================================================
// Data Extraction Helpers
// ============================================================================

func extractFirstResult(t *testing.T, results []interface{}) map[string]interface{} {
	t.Helper()
	if len(results) == 0 {
		t.Fatal("fixtures: no results returned")
	}

	// Handle SurrealDB response wrapper
	resp, ok := results[0].(map[string]interface{})
	if !ok {
		t.Fatalf("fixtures: unexpected result type: %T", results[0])
	}

	result, ok := resp["result"]
	if !ok {
		t.Fatal("fixtures: no result in response")
	}

	// Handle array result
	if arr, ok := result.([]interface{}); ok {
		if len(arr) == 0 {
			t.Fatal("fixtures: empty result array")
		}
		data, ok := arr[0].(map[string]interface{})
		if !ok {
			t.Fatalf("fixtures: unexpected array item type: %T", arr[0])
		}
		return data
	}

	// Handle single result
	data, ok := result.(map[string]interface{})
	if !ok {
		t.Fatalf("fixtures: unexpected result type: %T", result)
	}
	return data
}

func getString(data map[string]interface{}, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	// Handle SurrealDB 3 record ID type - could be a struct or map
	if v := data[key]; v != nil {
		// Try to get the ID as a map with "tb" (table) and "id" fields
		if m, ok := v.(map[string]interface{}); ok {
			if tb, ok := m["tb"].(string); ok {
				if id := m["id"]; id != nil {
					return fmt.Sprintf("%s:%v", tb, id)
				}
			}
		}
		// Fallback: use string conversion but fix the format if needed
		s := fmt.Sprintf("%v", v)
		// Convert "{table id}" to "table:id"
		if len(s) > 2 && s[0] == '{' && s[len(s)-1] == '}' {
			inner := s[1 : len(s)-1]
			for i, c := range inner {
				if c == ' ' {
					return inner[:i] + ":" + inner[i+1:]
				}
			}
		}
		return s
	}
	return ""
}

func getBool(data map[string]interface{}, key string) bool {
	if v, ok := data[key].(bool); ok {
		return v
	}
	return false
}

func getInt(data map[string]interface{}, key string) int {
	switch v := data[key].(type) {
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

func getFloat(data map[string]interface{}, key string) float64 {
	switch v := data[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

func getTime(data map[string]interface{}, key string) time.Time {
	if v, ok := data[key].(string); ok {
		t, _ := time.Parse(time.RFC3339Nano, v)
		return t
	}
	if v, ok := data[key].(time.Time); ok {
		return v
	}
	return time.Time{}
}
