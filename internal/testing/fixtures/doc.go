// Package fixtures provides test data factories for the Tontine API.
//
// The fixtures package contains factory functions for creating test data
// with sensible defaults and optional customization.
//
// # Factory Pattern
//
// Create a factory with a database connection:
//
//	f := fixtures.New(testDB)
//
// # Creating Test Data
//
// Factory methods create domain entities:
//
//	user := f.CreateUser(t)                  // Default active user
//	admin := f.CreateAdmin(t)                // Platform admin
//	verified := f.CreateVerifiedUser(t)      // KYC-verified user
//	group := f.CreateGroup(t, user)          // Group created by user
//	f.AddMemberToGroup(t, verified, group)   // Add roster member
//	c := f.CreateContribution(t, group, user)
//	p := f.CreateSettledPayment(t, user, 50)
//
// # Customization
//
// Use option functions for customization:
//
//	user := f.CreateUser(t, func(o *fixtures.UserOpts) {
//	    o.ReliabilityScore = 90
//	})
//	group := f.CreateGroup(t, user, fixtures.WithPublicGroup())
//	c := f.CreateContribution(t, group, user, fixtures.WithOverdueContribution())
//
// # Random Data
//
// Unique identifiers are generated automatically so parallel tests do
// not collide on unique indexes.
//
// # Cleanup
//
// Test data is cleaned up when the test database is closed.
package fixtures
