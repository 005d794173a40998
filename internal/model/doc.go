// Package model defines domain entities and data structures for the Tontine API.
//
// The model package contains all struct definitions for domain objects, request/response
// types, and error definitions. Models are used across all layers of the application.
//
// # Domain Entities
//
// Core domain entities include:
//
//   - User: Platform account with KYC status and reliability score
//   - Group: Savings circle with contribution terms and an embedded member roster
//   - Member: Roster entry linking a user to a group with a role
//   - Contribution: One member's payment obligation for one cycle
//   - Payment: Settlement record a paid contribution links to
//   - ReliabilityEvent: One entry in a user's score history
//
// # JSON Serialization
//
// All models use json struct tags for API serialization:
//
//	type Group struct {
//	    ID        string  `json:"id"`
//	    Name      string  `json:"name"`
//	    CreatedBy string  `json:"created_by"`
//	    Version   int     `json:"version"`
//	}
//
// # Validation Constants
//
// The package defines validation constants:
//
//	const (
//	    MaxGroupNameLength = 100
//	    MaxMembersPerGroup = 100
//	)
//
// # Error Types
//
// RFC 9457 Problem Details errors are defined in errors.go:
//
//	type ProblemDetails struct {
//	    Type    string    `json:"type"`
//	    Title   string    `json:"title"`
//	    Status  int       `json:"status"`
//	    Detail  string    `json:"detail"`
//	}
package model
