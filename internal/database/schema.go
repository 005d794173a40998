package database

import "context"

// schemaStatements define the indexes the application depends on.
// DEFINE ... IF NOT EXISTS makes the bootstrap idempotent, so every
// server start re-applies it.
//
// The unique contribution index is load-bearing: contribution
// generation relies on the (group, user, cycle) constraint to turn
// re-runs and concurrent sweeps into silent skips.
//
// Field names follow the stored documents, not the model's JSON names:
// record links are persisted as `group` and `user`, and reliability
// events carry `recorded_at`.
var schemaStatements = []string{
	`DEFINE INDEX IF NOT EXISTS user_email_unique ON TABLE user FIELDS email UNIQUE`,
	`DEFINE INDEX IF NOT EXISTS contribution_cycle_unique ON TABLE contribution FIELDS group, user, cycle UNIQUE`,
	`DEFINE INDEX IF NOT EXISTS contribution_group ON TABLE contribution FIELDS group`,
	`DEFINE INDEX IF NOT EXISTS contribution_user ON TABLE contribution FIELDS user`,
	`DEFINE INDEX IF NOT EXISTS contribution_status_due ON TABLE contribution FIELDS status, due_date`,
	`DEFINE INDEX IF NOT EXISTS group_discovery ON TABLE group FIELDS settings.is_public, is_active`,
	`DEFINE INDEX IF NOT EXISTS payment_user ON TABLE payment FIELDS user`,
	`DEFINE INDEX IF NOT EXISTS refresh_token_lookup ON TABLE refresh_token FIELDS token_hash`,
	`DEFINE INDEX IF NOT EXISTS reliability_event_user ON TABLE reliability_event FIELDS user, recorded_at`,
}

// EnsureSchema applies the index definitions. Safe to call on every
// startup.
func EnsureSchema(ctx context.Context, db Database) error {
	for _, stmt := range schemaStatements {
		if err := db.Execute(ctx, stmt, nil); err != nil {
			return err
		}
	}
	return nil
}
