// Package service implements the business logic layer for the Tontine API.
//
// The service package contains all domain logic, validation rules, and
// orchestration of repository operations. Services are the primary
// abstraction between HTTP handlers and data access.
//
// # Service Pattern
//
// All services follow a consistent pattern:
//
//   - Constructor function (NewXxxService) accepts a config struct with repository dependencies
//   - Methods implement business operations with proper validation
//   - Errors are returned as sentinel errors or wrapped errors for context
//   - Context is passed through for cancellation and request-scoped values
//
// # Repository Interfaces
//
// Services define their own repository interfaces, allowing:
//
//   - Easy mocking for unit tests
//   - Decoupling from specific database implementations
//   - Clear contracts for data access requirements
//
// # Error Handling
//
// Services return domain-specific errors defined as package-level variables:
//
//	var (
//	    ErrGroupNotFound  = errors.New("group not found")
//	    ErrNotGroupMember = errors.New("not a member of this group")
//	)
//
// # Concurrency
//
// Group updates go through a compare-and-swap on the record version;
// a lost race surfaces as ErrConcurrentUpdate and is never retried
// server-side. Contribution and payment state changes use conditional
// updates so a row can leave PENDING exactly once. Overdue is never
// stored: reads derive it from a pending contribution past its due
// date.
//
// # Example Usage
//
//	service := NewGroupService(GroupServiceConfig{
//	    GroupRepo:     groupRepository,
//	    UserRepo:      userRepository,
//	    Contributions: contributionRepository,
//	})
//	group, err := service.CreateGroup(ctx, userID, model.CreateGroupRequest{
//	    Name: "Lunch Club",
//	})
package service
