package model

import "time"

// UserRole represents the platform-level role of a user account.
// Group-level roles live on the membership entry, not here.
type UserRole string

const (
	UserRoleUser  UserRole = "user"  // Default role
	UserRoleAdmin UserRole = "admin" // Full access including KYC review, account suspension
)

// IsValid returns true if the role is a known value
func (r UserRole) IsValid() bool {
	return r == UserRoleUser || r == UserRoleAdmin
}

// Reliability score bounds. A fresh account sits at the neutral default
// until it accumulates contribution history.
const (
	MinReliabilityScore     = 0
	MaxReliabilityScore     = 100
	DefaultReliabilityScore = 50
)

// User represents a user account
type User struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	Hash             *string    `json:"-"` // Never expose password hash
	Firstname        *string    `json:"firstname,omitempty"`
	Lastname         *string    `json:"lastname,omitempty"`
	Role             UserRole   `json:"role"`
	IsActive         bool       `json:"is_active"`
	IsKycVerified    bool       `json:"is_kyc_verified"`
	ReliabilityScore int        `json:"reliability_score"`
	CreatedOn        time.Time  `json:"created_on"`
	UpdatedOn        time.Time  `json:"updated_on"`
	LoginOn          *time.Time `json:"login_on,omitempty"`
}

// IsAdmin returns true if the user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}
