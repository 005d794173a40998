package model

import "time"

// GroupStatus represents the lifecycle state of a group
type GroupStatus string

const (
	GroupStatusActive    GroupStatus = "ACTIVE"
	GroupStatusCancelled GroupStatus = "CANCELLED"
	GroupStatusCompleted GroupStatus = "COMPLETED"
)

// IsValid returns true if the status is a known value
func (s GroupStatus) IsValid() bool {
	switch s {
	case GroupStatusActive, GroupStatusCancelled, GroupStatusCompleted:
		return true
	}
	return false
}

// ContributionFrequency is the cadence at which a group collects
type ContributionFrequency string

const (
	FrequencyWeekly  ContributionFrequency = "WEEKLY"
	FrequencyMonthly ContributionFrequency = "MONTHLY"
)

// IsValid returns true if the frequency is a known value
func (f ContributionFrequency) IsValid() bool {
	return f == FrequencyWeekly || f == FrequencyMonthly
}

// MemberRole represents a user's role within a group
type MemberRole string

const (
	MemberRoleAdmin  MemberRole = "ADMIN"
	MemberRoleMember MemberRole = "MEMBER"
)

// IsAdmin returns true for the admin role
func (r MemberRole) IsAdmin() bool {
	return r == MemberRoleAdmin
}

// IsValid returns true if the role is a known value
func (r MemberRole) IsValid() bool {
	return r == MemberRoleAdmin || r == MemberRoleMember
}

// MemberStatus represents the state of a membership entry
type MemberStatus string

const (
	MemberStatusActive MemberStatus = "ACTIVE"
)

// Member is one entry in a group's roster. Leaving removes the entry;
// historical contributions keep the user's id independently.
type Member struct {
	UserID   string       `json:"user_id"`
	Role     MemberRole   `json:"role"`
	Status   MemberStatus `json:"status"`
	JoinedAt time.Time    `json:"joined_at"`
}

// GroupSettings holds the contribution terms of a group
type GroupSettings struct {
	ContributionAmount    float64               `json:"contribution_amount"`
	ContributionFrequency ContributionFrequency `json:"contribution_frequency"`
	StartDate             time.Time             `json:"start_date"`
	EndDate               time.Time             `json:"end_date"`
	MaxMembers            int                   `json:"max_members"`
	IsPublic              bool                  `json:"is_public"`
	RequiresKyc           bool                  `json:"requires_kyc"`
	MinReliabilityScore   int                   `json:"min_reliability_score"`
}

// CycleStart returns the instant cycle n (1-based) begins.
func (s GroupSettings) CycleStart(n int) time.Time {
	return s.boundary(n - 1)
}

// CycleEnd returns the instant cycle n ends. It doubles as the cycle's
// due date: a contribution is due when its period closes.
func (s GroupSettings) CycleEnd(n int) time.Time {
	return s.boundary(n)
}

// CycleAt returns the 1-based cycle containing t, or 0 if t precedes
// the group's start date.
func (s GroupSettings) CycleAt(t time.Time) int {
	if t.Before(s.StartDate) {
		return 0
	}
	n := 1
	for !t.Before(s.boundary(n)) {
		n++
	}
	return n
}

// boundary returns the k-th cycle boundary: boundary(0) is the start
// date, boundary(k) opens cycle k+1. Monthly cadence steps by calendar
// month anchored at the start date.
func (s GroupSettings) boundary(k int) time.Time {
	switch s.ContributionFrequency {
	case FrequencyWeekly:
		return s.StartDate.AddDate(0, 0, 7*k)
	default:
		return s.StartDate.AddDate(0, k, 0)
	}
}

// Group represents a savings circle. The member roster is embedded so
// capacity checks and roster changes commit atomically; Version guards
// every mutation with compare-and-swap.
type Group struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description *string       `json:"description,omitempty"`
	CreatedBy   string        `json:"created_by"`
	Status      GroupStatus   `json:"status"`
	IsActive    bool          `json:"is_active"`
	Settings    GroupSettings `json:"settings"`
	Members     []Member      `json:"members"`
	Version     int           `json:"version"`
	CreatedOn   time.Time     `json:"created_on"`
	UpdatedOn   time.Time     `json:"updated_on"`
}

// FindMember returns the roster entry for userID, or nil
func (g *Group) FindMember(userID string) *Member {
	for i := range g.Members {
		if g.Members[i].UserID == userID {
			return &g.Members[i]
		}
	}
	return nil
}

// IsMember returns true if userID has a roster entry
func (g *Group) IsMember(userID string) bool {
	return g.FindMember(userID) != nil
}

// IsAdmin returns true if userID is the creator or holds the ADMIN
// role on the roster. Both grants apply uniformly to every mutating
// operation.
func (g *Group) IsAdmin(userID string) bool {
	if userID == g.CreatedBy {
		return true
	}
	m := g.FindMember(userID)
	return m != nil && m.Role.IsAdmin()
}

// ActiveMembers returns the roster entries with ACTIVE status
func (g *Group) ActiveMembers() []Member {
	active := make([]Member, 0, len(g.Members))
	for _, m := range g.Members {
		if m.Status == MemberStatusActive {
			active = append(active, m)
		}
	}
	return active
}

// MemberCount returns the roster size
func (g *Group) MemberCount() int {
	return len(g.Members)
}

// HasCapacity returns true if the roster can take one more member
func (g *Group) HasCapacity() bool {
	return len(g.Members) < g.Settings.MaxMembers
}

// AddMember appends a roster entry. Callers check eligibility first.
func (g *Group) AddMember(userID string, role MemberRole, joinedAt time.Time) {
	g.Members = append(g.Members, Member{
		UserID:   userID,
		Role:     role,
		Status:   MemberStatusActive,
		JoinedAt: joinedAt,
	})
}

// RemoveMember deletes the roster entry for userID. Returns false if
// no entry exists.
func (g *Group) RemoveMember(userID string) bool {
	for i := range g.Members {
		if g.Members[i].UserID == userID {
			g.Members = append(g.Members[:i], g.Members[i+1:]...)
			return true
		}
	}
	return false
}

// Business rule constants
const (
	MaxGroupNameLength        = 100
	MaxGroupDescriptionLength = 500
	MaxMembersPerGroup        = 100
)

// CreateGroupRequest represents a request to create a group
type CreateGroupRequest struct {
	Name                  string  `json:"name"`
	Description           *string `json:"description,omitempty"`
	ContributionAmount    float64 `json:"contribution_amount"`
	ContributionFrequency string  `json:"contribution_frequency"`
	StartDate             string  `json:"start_date"`
	EndDate               string  `json:"end_date"`
	MaxMembers            int     `json:"max_members"`
	IsPublic              bool    `json:"is_public"`
	RequiresKyc           bool    `json:"requires_kyc"`
	MinReliabilityScore   int     `json:"min_reliability_score"`
}

// Validate checks the create request and returns field errors. Date
// ordering against the clock is checked here so the caller gets all
// problems in one response.
func (r *CreateGroupRequest) Validate(now time.Time) []FieldError {
	var errs []FieldError
	if r.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "name is required"})
	}
	if len(r.Name) > MaxGroupNameLength {
		errs = append(errs, FieldError{Field: "name", Message: "name must be at most 100 characters"})
	}
	if r.Description != nil && len(*r.Description) > MaxGroupDescriptionLength {
		errs = append(errs, FieldError{Field: "description", Message: "description must be at most 500 characters"})
	}
	if r.ContributionAmount <= 0 {
		errs = append(errs, FieldError{Field: "contribution_amount", Message: "contribution amount must be positive"})
	}
	if !ContributionFrequency(r.ContributionFrequency).IsValid() {
		errs = append(errs, FieldError{Field: "contribution_frequency", Message: "frequency must be WEEKLY or MONTHLY"})
	}
	if r.MaxMembers <= 0 {
		errs = append(errs, FieldError{Field: "max_members", Message: "max members must be positive"})
	} else if r.MaxMembers > MaxMembersPerGroup {
		errs = append(errs, FieldError{Field: "max_members", Message: "max members must be at most 100"})
	}
	if r.MinReliabilityScore < MinReliabilityScore || r.MinReliabilityScore > MaxReliabilityScore {
		errs = append(errs, FieldError{Field: "min_reliability_score", Message: "minimum reliability score must be between 0 and 100"})
	}

	start, err := time.Parse(time.RFC3339, r.StartDate)
	if err != nil {
		errs = append(errs, FieldError{Field: "start_date", Message: "start date must be RFC 3339"})
		return errs
	}
	end, err := time.Parse(time.RFC3339, r.EndDate)
	if err != nil {
		errs = append(errs, FieldError{Field: "end_date", Message: "end date must be RFC 3339"})
		return errs
	}
	if !start.After(now) {
		errs = append(errs, FieldError{Field: "start_date", Message: "start date must be in the future"})
	}
	if !end.After(start) {
		errs = append(errs, FieldError{Field: "end_date", Message: "end date must be after start date"})
	}
	return errs
}

// ParsedDates returns the request dates. Call Validate first.
func (r *CreateGroupRequest) ParsedDates() (start, end time.Time) {
	start, _ = time.Parse(time.RFC3339, r.StartDate)
	end, _ = time.Parse(time.RFC3339, r.EndDate)
	return start, end
}

// UpdateGroupRequest represents a request to update group settings.
// Nil fields are left unchanged.
type UpdateGroupRequest struct {
	Name                  *string  `json:"name,omitempty"`
	Description           *string  `json:"description,omitempty"`
	ContributionAmount    *float64 `json:"contribution_amount,omitempty"`
	ContributionFrequency *string  `json:"contribution_frequency,omitempty"`
	StartDate             *string  `json:"start_date,omitempty"`
	EndDate               *string  `json:"end_date,omitempty"`
	MaxMembers            *int     `json:"max_members,omitempty"`
	IsPublic              *bool    `json:"is_public,omitempty"`
	RequiresKyc           *bool    `json:"requires_kyc,omitempty"`
	MinReliabilityScore   *int     `json:"min_reliability_score,omitempty"`
}

// Validate checks the update request and returns field errors
func (r *UpdateGroupRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Name != nil && (*r.Name == "" || len(*r.Name) > MaxGroupNameLength) {
		errs = append(errs, FieldError{Field: "name", Message: "name must be between 1 and 100 characters"})
	}
	if r.ContributionFrequency != nil && !ContributionFrequency(*r.ContributionFrequency).IsValid() {
		errs = append(errs, FieldError{Field: "contribution_frequency", Message: "contribution frequency must be WEEKLY or MONTHLY"})
	}
	if r.Description != nil && len(*r.Description) > MaxGroupDescriptionLength {
		errs = append(errs, FieldError{Field: "description", Message: "description must be at most 500 characters"})
	}
	if r.ContributionAmount != nil && *r.ContributionAmount <= 0 {
		errs = append(errs, FieldError{Field: "contribution_amount", Message: "contribution amount must be positive"})
	}
	if r.MaxMembers != nil && *r.MaxMembers <= 0 {
		errs = append(errs, FieldError{Field: "max_members", Message: "max members must be positive"})
	}
	if r.MaxMembers != nil && *r.MaxMembers > MaxMembersPerGroup {
		errs = append(errs, FieldError{Field: "max_members", Message: "max members must be at most 100"})
	}
	if r.MinReliabilityScore != nil && (*r.MinReliabilityScore < MinReliabilityScore || *r.MinReliabilityScore > MaxReliabilityScore) {
		errs = append(errs, FieldError{Field: "min_reliability_score", Message: "minimum reliability score must be between 0 and 100"})
	}
	if r.StartDate != nil {
		if _, err := time.Parse(time.RFC3339, *r.StartDate); err != nil {
			errs = append(errs, FieldError{Field: "start_date", Message: "start date must be RFC 3339"})
		}
	}
	if r.EndDate != nil {
		if _, err := time.Parse(time.RFC3339, *r.EndDate); err != nil {
			errs = append(errs, FieldError{Field: "end_date", Message: "end date must be RFC 3339"})
		}
	}
	return errs
}

// ParsedDates returns the patch dates, nil when absent or malformed.
// Call Validate first to reject malformed input.
func (r *UpdateGroupRequest) ParsedDates() (*time.Time, *time.Time) {
	var start, end *time.Time
	if r.StartDate != nil {
		if t, err := time.Parse(time.RFC3339, *r.StartDate); err == nil {
			start = &t
		}
	}
	if r.EndDate != nil {
		if t, err := time.Parse(time.RFC3339, *r.EndDate); err == nil {
			end = &t
		}
	}
	return start, end
}

// UpdateMemberRoleRequest represents a request to change a member's role
type UpdateMemberRoleRequest struct {
	Role MemberRole `json:"role"`
}

// Validate checks the role value
func (r *UpdateMemberRoleRequest) Validate() []FieldError {
	if !r.Role.IsValid() {
		return []FieldError{{Field: "role", Message: "role must be ADMIN or MEMBER"}}
	}
	return nil
}
