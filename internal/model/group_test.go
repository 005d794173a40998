package model

import (
	"testing"
	"time"
)

func testGroup() *Group {
	return &Group{
		ID:        "group:circle",
		Name:      "Village Circle",
		CreatedBy: "user:creator",
		Status:    GroupStatusActive,
		IsActive:  true,
		Settings: GroupSettings{
			ContributionAmount:    100,
			ContributionFrequency: FrequencyMonthly,
			StartDate:             time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
			EndDate:               time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
			MaxMembers:            3,
		},
		Members: []Member{
			{UserID: "user:creator", Role: MemberRoleAdmin, Status: MemberStatusActive, JoinedAt: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)},
			{UserID: "user:alice", Role: MemberRoleMember, Status: MemberStatusActive, JoinedAt: time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC)},
		},
		Version: 1,
	}
}

// ============================================================================
// Roster Predicate Tests
// ============================================================================

func TestGroup_FindMember(t *testing.T) {
	t.Parallel()

	g := testGroup()

	m := g.FindMember("user:alice")
	if m == nil || m.Role != MemberRoleMember {
		t.Errorf("expected alice with MEMBER role, got %v", m)
	}
	if g.FindMember("user:stranger") != nil {
		t.Error("expected nil for unknown user")
	}
}

func TestGroup_IsMember(t *testing.T) {
	t.Parallel()

	g := testGroup()

	if !g.IsMember("user:creator") {
		t.Error("creator should be a member")
	}
	if g.IsMember("user:stranger") {
		t.Error("stranger should not be a member")
	}
}

func TestGroup_IsAdmin_Creator(t *testing.T) {
	t.Parallel()

	g := testGroup()

	if !g.IsAdmin("user:creator") {
		t.Error("creator is always admin")
	}
}

func TestGroup_IsAdmin_CreatorWithoutRosterRole(t *testing.T) {
	t.Parallel()

	// Creator identity grants admin even if the roster entry somehow
	// carries the MEMBER role.
	g := testGroup()
	g.Members[0].Role = MemberRoleMember

	if !g.IsAdmin("user:creator") {
		t.Error("creator should remain admin regardless of roster role")
	}
}

func TestGroup_IsAdmin_PromotedMember(t *testing.T) {
	t.Parallel()

	g := testGroup()
	g.Members[1].Role = MemberRoleAdmin

	if !g.IsAdmin("user:alice") {
		t.Error("member with ADMIN role should be admin")
	}
}

func TestGroup_IsAdmin_PlainMember(t *testing.T) {
	t.Parallel()

	g := testGroup()

	if g.IsAdmin("user:alice") {
		t.Error("plain member should not be admin")
	}
	if g.IsAdmin("user:stranger") {
		t.Error("non-member should not be admin")
	}
}

func TestGroup_HasCapacity(t *testing.T) {
	t.Parallel()

	g := testGroup()
	if !g.HasCapacity() {
		t.Error("expected capacity with 2 of 3 seats taken")
	}

	g.AddMember("user:bob", MemberRoleMember, time.Now())
	if g.HasCapacity() {
		t.Error("expected no capacity with 3 of 3 seats taken")
	}
}

func TestGroup_AddMember(t *testing.T) {
	t.Parallel()

	g := testGroup()
	joined := time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC)

	g.AddMember("user:bob", MemberRoleMember, joined)

	m := g.FindMember("user:bob")
	if m == nil {
		t.Fatal("expected bob on the roster")
	}
	if m.Status != MemberStatusActive {
		t.Errorf("expected ACTIVE status, got %s", m.Status)
	}
	if !m.JoinedAt.Equal(joined) {
		t.Errorf("expected joinedAt %v, got %v", joined, m.JoinedAt)
	}
	if g.MemberCount() != 3 {
		t.Errorf("expected 3 members, got %d", g.MemberCount())
	}
}

func TestGroup_RemoveMember(t *testing.T) {
	t.Parallel()

	g := testGroup()

	if !g.RemoveMember("user:alice") {
		t.Error("expected removal to succeed")
	}
	if g.IsMember("user:alice") {
		t.Error("alice should be gone")
	}
	if g.RemoveMember("user:alice") {
		t.Error("second removal should report false")
	}
}

func TestGroup_ActiveMembers(t *testing.T) {
	t.Parallel()

	g := testGroup()

	active := g.ActiveMembers()
	if len(active) != 2 {
		t.Errorf("expected 2 active members, got %d", len(active))
	}
}

// ============================================================================
// Cycle Math Tests
// ============================================================================

func TestGroupSettings_CycleBoundaries_Monthly(t *testing.T) {
	t.Parallel()

	s := GroupSettings{
		ContributionFrequency: FrequencyMonthly,
		StartDate:             time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	}

	if got := s.CycleStart(1); !got.Equal(s.StartDate) {
		t.Errorf("cycle 1 should start at the start date, got %v", got)
	}
	wantMar := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	if got := s.CycleEnd(1); !got.Equal(wantMar) {
		t.Errorf("cycle 1 should end Mar 1, got %v", got)
	}
	if got := s.CycleStart(2); !got.Equal(wantMar) {
		t.Errorf("cycle 2 should start Mar 1, got %v", got)
	}
	wantApr := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	if got := s.CycleStart(3); !got.Equal(wantApr) {
		t.Errorf("cycle 3 should start Apr 1, got %v", got)
	}
}

func TestGroupSettings_CycleBoundaries_Weekly(t *testing.T) {
	t.Parallel()

	s := GroupSettings{
		ContributionFrequency: FrequencyWeekly,
		StartDate:             time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC),
	}

	want := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	if got := s.CycleEnd(1); !got.Equal(want) {
		t.Errorf("weekly cycle 1 should end one week in, got %v", got)
	}
	want = time.Date(2025, 2, 24, 0, 0, 0, 0, time.UTC)
	if got := s.CycleStart(4); !got.Equal(want) {
		t.Errorf("weekly cycle 4 should start three weeks in, got %v", got)
	}
}

func TestGroupSettings_CycleAt(t *testing.T) {
	t.Parallel()

	s := GroupSettings{
		ContributionFrequency: FrequencyMonthly,
		StartDate:             time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	}

	if got := s.CycleAt(time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)); got != 0 {
		t.Errorf("before start should be cycle 0, got %d", got)
	}
	if got := s.CycleAt(s.StartDate); got != 1 {
		t.Errorf("start instant should be cycle 1, got %d", got)
	}
	if got := s.CycleAt(time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC)); got != 1 {
		t.Errorf("mid-February should be cycle 1, got %d", got)
	}
	// A boundary instant belongs to the cycle it opens.
	if got := s.CycleAt(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)); got != 2 {
		t.Errorf("Mar 1 should be cycle 2, got %d", got)
	}
	if got := s.CycleAt(time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC)); got != 3 {
		t.Errorf("Apr 30 should be cycle 3, got %d", got)
	}
}
