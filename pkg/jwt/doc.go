// Package jwt provides RS256 JSON Web Token utilities for the Tontine API.
//
// The jwt package handles token signing, validation, and claims
// extraction for authentication. Tokens are signed with an RSA private
// key and verified with the matching public key, so read-only services
// can validate tokens without holding signing material.
//
// # Token Signing
//
// Sign tokens for authenticated users:
//
//	service, err := jwt.NewService(jwt.Config{
//	    PrivateKeyPath: "./keys/private.pem",
//	    PublicKeyPath:  "./keys/public.pem",
//	    Issuer:         "tontine.forgo.software",
//	    ExpirationMins: 15,
//	})
//
//	token, err := service.Sign(jwt.Claims{
//	    UserID: user.ID,
//	    Email:  user.Email,
//	    Role:   string(user.Role),
//	})
//
// # Token Validation
//
// Validate and extract claims:
//
//	claims, err := service.Validate(tokenString)
//	if err != nil {
//	    // Invalid, expired or tampered token
//	}
//	userID := claims.UserID
//
// # Claims
//
// Claims carry the authenticated identity and role:
//
//	type Claims struct {
//	    UserID string
//	    Email  string
//	    Role   string
//	    // plus standard iss/iat/exp fields
//	}
//
// Claims.IsAdmin reports whether the token carries the admin role.
//
// # Key Generation
//
// GenerateKeyPair writes a fresh RSA key pair for development, and
// NewTestService builds a service around an in-memory key for tests.
package jwt
