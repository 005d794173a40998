package database

import (
	"strings"
	"testing"
)

// The indexes guard the documents the repositories actually write, so
// every DEFINE INDEX must use the stored field names: record links are
// persisted as `group` and `user` (never the model's group_id/user_id
// JSON names), and reliability events are ordered by `recorded_at`.
func TestSchemaStatements_IndexStoredFieldNames(t *testing.T) {
	expected := map[string]struct {
		table  string
		fields string
		unique bool
	}{
		"user_email_unique":         {"user", "email", true},
		"contribution_cycle_unique": {"contribution", "group, user, cycle", true},
		"contribution_group":        {"contribution", "group", false},
		"contribution_user":         {"contribution", "user", false},
		"contribution_status_due":   {"contribution", "status, due_date", false},
		"group_discovery":           {"group", "settings.is_public, is_active", false},
		"payment_user":              {"payment", "user", false},
		"refresh_token_lookup":      {"refresh_token", "token_hash", false},
		"reliability_event_user":    {"reliability_event", "user, recorded_at", false},
	}

	if len(schemaStatements) != len(expected) {
		t.Fatalf("expected %d schema statements, got %d", len(expected), len(schemaStatements))
	}

	for _, stmt := range schemaStatements {
		name, table, fields, unique := parseIndexStatement(t, stmt)

		want, ok := expected[name]
		if !ok {
			t.Errorf("unexpected index %q", name)
			continue
		}
		if table != want.table {
			t.Errorf("index %q: expected table %q, got %q", name, want.table, table)
		}
		if fields != want.fields {
			t.Errorf("index %q: expected fields %q, got %q", name, want.fields, fields)
		}
		if unique != want.unique {
			t.Errorf("index %q: expected unique=%v, got %v", name, want.unique, unique)
		}
	}
}

func TestSchemaStatements_IndexedLinkFieldsMatchStoredNames(t *testing.T) {
	// The model's JSON names must never leak into index definitions:
	// no document ever contains group_id, user_id or created_on on
	// the indexed tables.
	for _, stmt := range schemaStatements {
		name, table, fields, _ := parseIndexStatement(t, stmt)
		for _, field := range strings.Split(fields, ",") {
			field = strings.TrimSpace(field)
			switch field {
			case "group_id", "user_id", "payment_id":
				t.Errorf("index %q on %q uses JSON name %q; stored link fields drop the _id suffix", name, table, field)
			}
		}
		if table == "reliability_event" && strings.Contains(fields, "created_on") {
			t.Errorf("index %q: reliability events store recorded_at, not created_on", name)
		}
	}
}

// parseIndexStatement splits a
// `DEFINE INDEX IF NOT EXISTS <name> ON TABLE <table> FIELDS <fields> [UNIQUE]`
// statement into its parts.
func parseIndexStatement(t *testing.T, stmt string) (name, table, fields string, unique bool) {
	t.Helper()

	rest, ok := strings.CutPrefix(stmt, "DEFINE INDEX IF NOT EXISTS ")
	if !ok {
		t.Fatalf("statement is not an idempotent index definition: %q", stmt)
	}
	name, rest, ok = strings.Cut(rest, " ON TABLE ")
	if !ok {
		t.Fatalf("statement missing ON TABLE clause: %q", stmt)
	}
	table, fields, ok = strings.Cut(rest, " FIELDS ")
	if !ok {
		t.Fatalf("statement missing FIELDS clause: %q", stmt)
	}
	fields = strings.TrimSpace(fields)
	if unique = strings.HasSuffix(fields, " UNIQUE"); unique {
		fields = strings.TrimSpace(strings.TrimSuffix(fields, " UNIQUE"))
	}
	return name, table, fields, unique
}
