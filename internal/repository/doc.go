// Package repository implements the data access layer for the Tontine API.
//
// The repository package contains all database operations using SurrealDB.
// Each repository struct handles CRUD operations for a specific domain entity.
//
// # Repository Pattern
//
// All repositories follow a consistent pattern:
//
//   - Constructor function (NewXxxRepository) accepts a database connection
//   - Methods implement specific data operations (Create, GetByID, Update, etc.)
//   - SurrealQL queries are used for all database interactions
//   - Results are parsed and mapped to model structs
//
// # Database Connection
//
// Repositories accept a database.Database interface, allowing:
//
//   - Connection pooling and management at a higher level
//   - Transaction support when needed
//   - Easy testing with mock implementations
//
// # Query Patterns
//
// Common query patterns used:
//
//   - Parameterized queries with $variable syntax for security
//   - type::record() for safe ID handling
//   - time::now() for automatic timestamps
//   - Guarded UPDATE ... WHERE clauses for optimistic concurrency; an
//     update that matches nothing surfaces database.ErrConflict
//   - Unique indexes for idempotent inserts; a duplicate surfaces
//     database.ErrDuplicate
//
// # Example Usage
//
//	repo := NewGroupRepository(db)
//	group, err := repo.GetByID(ctx, "group:abc123")
//	if err != nil {
//	    return err
//	}
//	if group == nil {
//	    // Handle not found
//	}
package repository
