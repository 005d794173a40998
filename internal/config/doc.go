// Package config manages application configuration for the Tontine API.
//
// The config package loads and validates configuration from environment
// variables. All configuration is centralized here to provide a single
// source of truth.
//
// # Configuration Loading
//
// Configuration is loaded from environment variables:
//
//	cfg := config.Load()
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Configuration Groups
//
// Configuration is organized into logical groups:
//
//   - ServerConfig: HTTP server settings (port, environment, timeouts, CORS)
//   - DatabaseConfig: SurrealDB connection settings
//   - JWTConfig: RS256 key paths, issuer and token expiration
//   - JobsConfig: background sweep intervals and lookahead
//
// # Environment Variables
//
// Key environment variables:
//
//	SERVER_PORT                  - HTTP server port (default: 8080)
//	SERVER_ENV                   - development or production
//	CORS_ALLOWED_ORIGINS         - comma-separated origin list
//	DB_HOST / DB_PORT            - SurrealDB endpoint
//	DB_USER / DB_PASSWORD        - database credentials
//	DB_NAMESPACE / DB_DATABASE   - SurrealDB namespace and database
//	JWT_PRIVATE_KEY_PATH         - RS256 signing key
//	JWT_PUBLIC_KEY_PATH          - RS256 verification key
//	JWT_EXPIRATION_MINS          - access token lifetime
//	JOBS_ENABLED                 - run background processors in this instance
//	JOBS_CONTRIBUTION_INTERVAL   - contribution sweep cadence
//	JOBS_CONTRIBUTION_LOOKAHEAD  - how far ahead contributions materialize
//	JOBS_COMPLETION_INTERVAL     - group completion sweep cadence
//
// # Validation
//
// Validate collects every problem into a single joined error so a
// misconfigured deployment reports all issues at once rather than one
// per restart.
package config
