// Package handler provides HTTP request handlers for the Tontine API.
//
// The handler package contains all HTTP endpoint implementations organized by domain.
// Each handler struct encapsulates the dependencies needed to serve requests for a
// specific feature area (authentication, groups, contributions, payments, etc.).
//
// # Handler Pattern
//
// All handlers follow a consistent pattern:
//
//   - Constructor function (NewXxxHandler) accepts its service dependencies
//   - Methods handle specific HTTP endpoints
//   - Response helpers from response.go standardize output format
//   - Errors are mapped to RFC 9457 Problem Details responses
//
// # Response Format
//
// Handlers use standardized response functions:
//
//   - WriteData: Single resource with optional HATEOAS links
//   - WriteCollection: Resource collections with pagination
//   - WriteError: RFC 9457 Problem Details errors
//   - WriteNoContent: 204 responses for side-effect operations
//
// # Error Mapping
//
// Service errors are translated centrally by MapServiceError so every
// endpoint reports the same status code and error code for the same
// failure, regardless of which handler surfaced it.
package handler
