// Package middleware provides HTTP middleware for the Tontine API.
//
// The middleware package contains reusable middleware components for
// authentication, authorization, rate limiting, and request processing.
//
// # Available Middleware
//
// Core middleware components:
//
//   - Auth: JWT token validation and user extraction
//   - AdminAuth: Platform admin role enforcement
//   - RateLimit: Request rate limiting per user/IP
//   - Idempotency: Idempotent request handling
//   - GroupAccess: Group membership verification
//   - Metrics: Prometheus request counters and latency histograms
//
// # Authentication
//
// The auth middleware validates JWT tokens and extracts user information:
//
//	handler = middleware.Auth(authService)(handler)
//
// After authentication, handlers can access user info:
//
//	userID := middleware.GetUserID(r.Context())
//
// # Rate Limiting
//
// Rate limiting protects against abuse:
//
//	handler = middleware.RateLimit(limiter)(handler)
//
// Configurable limits per endpoint and user tier.
//
// # Context Values
//
// Middleware sets context values accessible via helper functions:
//
//   - GetUserID(ctx): Returns authenticated user ID
//   - GetGroupID(ctx): Returns group ID from path
//   - GetRequestID(ctx): Returns unique request identifier
package middleware
