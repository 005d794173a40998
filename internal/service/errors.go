package service

import "errors"

// Centralized service layer errors.
// All errors returned by service methods are defined here for consistency
// and to make error handling in handlers predictable.

// ===== Authentication Errors =====
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong    = errors.New("password must be at most 128 characters")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrAccountDeactivated = errors.New("account is deactivated")
)

// ===== Token Errors =====
var (
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrRefreshTokenRevoked = errors.New("refresh token revoked")
)

// ===== Group Errors =====
var (
	ErrGroupNotFound        = errors.New("group not found")
	ErrGroupNotActive       = errors.New("group is not active")
	ErrNotGroupMember       = errors.New("not a member of this group")
	ErrNotGroupAdmin        = errors.New("not authorized to perform this action")
	ErrAccessDenied         = errors.New("access denied")
	ErrAlreadyMember        = errors.New("already a member of this group")
	ErrGroupFull            = errors.New("group has reached maximum member limit")
	ErrKycRequired          = errors.New("KYC verification required to join this group")
	ErrReliabilityTooLow    = errors.New("reliability score below group minimum")
	ErrCreatorCannotLeave   = errors.New("the group creator cannot leave the group")
	ErrCannotRemoveCreator  = errors.New("the group creator cannot be removed")
	ErrCreatorRoleLocked    = errors.New("the group creator's role cannot be changed")
	ErrCreatorNotActive     = errors.New("creator account is not active")
	ErrMemberNotFound       = errors.New("member not found in this group")
	ErrSettingsLocked       = errors.New("schedule settings are locked once contributions exist")
	ErrMaxMembersBelowCount = errors.New("max members cannot be lower than current member count")
	ErrInvalidDateWindow    = errors.New("end date must be after start date")
	ErrConcurrentUpdate     = errors.New("group was modified concurrently, retry the operation")
)

// ===== Contribution Errors =====
var (
	ErrContributionNotFound   = errors.New("contribution not found")
	ErrDuplicateContribution  = errors.New("contribution already exists for this member and cycle")
	ErrInvalidStateTransition = errors.New("contribution is not in a state that allows this operation")
	ErrInvalidDueDate         = errors.New("due date must be in the future")
	ErrPaymentNotSettled      = errors.New("payment must be succeeded and belong to the contributor")
)

// ===== Payment Errors =====
var (
	ErrPaymentNotFound       = errors.New("payment not found")
	ErrPaymentAlreadySettled = errors.New("payment is already settled")
)

// ===== Administration Errors =====
var (
	ErrSelfRoleChange = errors.New("admins cannot change their own role")
)
