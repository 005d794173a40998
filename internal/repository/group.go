package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/forgo/tontine/api/internal/database"
	"github.com/forgo/tontine/api/internal/model"
)

// GroupRepository handles group data access. A group document embeds
// its member roster and a version counter; every mutation goes through
// a compare-and-swap on that version so capacity checks and roster
// changes commit atomically.
type GroupRepository struct {
	db database.Database
}

// NewGroupRepository creates a new group repository
func NewGroupRepository(db database.Database) *GroupRepository {
	return &GroupRepository{db: db}
}

// Create persists a new group with the creator as sole admin member
func (r *GroupRepository) Create(ctx context.Context, group *model.Group) error {
	query := `
		CREATE group CONTENT {
			name: $name,
			description: IF $description IS NOT NULL THEN $description ELSE NONE END,
			created_by: type::record($created_by),
			status: $status,
			is_active: true,
			settings: {
				contribution_amount: $contribution_amount,
				contribution_frequency: $contribution_frequency,
				start_date: <datetime>$start_date,
				end_date: <datetime>$end_date,
				max_members: $max_members,
				is_public: $is_public,
				requires_kyc: $requires_kyc,
				min_reliability_score: $min_reliability_score
			},
			members: $members,
			version: 1,
			created_on: time::now(),
			updated_on: time::now()
		}
	`

	vars := map[string]interface{}{
		"name":                   group.Name,
		"description":            ptrToNone(group.Description),
		"created_by":             group.CreatedBy,
		"status":                 string(group.Status),
		"contribution_amount":    group.Settings.ContributionAmount,
		"contribution_frequency": string(group.Settings.ContributionFrequency),
		"start_date":             group.Settings.StartDate.UTC().Format(time.RFC3339),
		"end_date":               group.Settings.EndDate.UTC().Format(time.RFC3339),
		"max_members":            group.Settings.MaxMembers,
		"is_public":              group.Settings.IsPublic,
		"requires_kyc":           group.Settings.RequiresKyc,
		"min_reliability_score":  group.Settings.MinReliabilityScore,
		"members":                membersToVars(group.Members),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return err
	}

	created, err := extractCreatedRecord(result)
	if err != nil {
		return err
	}

	group.ID = created.ID
	group.Version = 1
	group.CreatedOn = created.CreatedOn
	group.UpdatedOn = created.UpdatedOn
	return nil
}

// GetByID retrieves a group by ID
func (r *GroupRepository) GetByID(ctx context.Context, id string) (*model.Group, error) {
	query := `SELECT * FROM type::record($id)`
	vars := map[string]interface{}{"id": id}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	group, err := parseGroupResult(result)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return group, nil
}

// UpdateVersioned writes the group back guarded by its version. The
// UPDATE matches only while the stored version equals the version the
// caller read; a lost race updates nothing and surfaces ErrConflict.
// On success the group's version is advanced to the stored value.
func (r *GroupRepository) UpdateVersioned(ctx context.Context, group *model.Group) error {
	query := `
		UPDATE type::record($id) SET
			name = $name,
			description = IF $description IS NOT NULL THEN $description ELSE NONE END,
			status = $status,
			is_active = $is_active,
			settings = {
				contribution_amount: $contribution_amount,
				contribution_frequency: $contribution_frequency,
				start_date: <datetime>$start_date,
				end_date: <datetime>$end_date,
				max_members: $max_members,
				is_public: $is_public,
				requires_kyc: $requires_kyc,
				min_reliability_score: $min_reliability_score
			},
			members = $members,
			version = version + 1,
			updated_on = time::now()
		WHERE version = $version
	`

	vars := map[string]interface{}{
		"id":                     group.ID,
		"name":                   group.Name,
		"description":            ptrToNone(group.Description),
		"status":                 string(group.Status),
		"is_active":              group.IsActive,
		"contribution_amount":    group.Settings.ContributionAmount,
		"contribution_frequency": string(group.Settings.ContributionFrequency),
		"start_date":             group.Settings.StartDate.UTC().Format(time.RFC3339),
		"end_date":               group.Settings.EndDate.UTC().Format(time.RFC3339),
		"max_members":            group.Settings.MaxMembers,
		"is_public":              group.Settings.IsPublic,
		"requires_kyc":           group.Settings.RequiresKyc,
		"min_reliability_score":  group.Settings.MinReliabilityScore,
		"members":                membersToVars(group.Members),
		"version":                group.Version,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return err
	}

	rows, ok := extractQueryResults(result)
	if !ok || len(rows) == 0 {
		return database.ErrConflict
	}

	group.Version++
	return nil
}

// ListPublic retrieves active public groups ordered by creation time
func (r *GroupRepository) ListPublic(ctx context.Context, limit, offset int) ([]*model.Group, error) {
	query := `
		SELECT * FROM group
		WHERE settings.is_public = true AND is_active = true
		ORDER BY created_on DESC
		LIMIT $limit START $offset
	`
	vars := map[string]interface{}{
		"limit":  limit,
		"offset": offset,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	return parseGroupList(result)
}

// ListActive retrieves all active groups. Used by background sweeps.
func (r *GroupRepository) ListActive(ctx context.Context) ([]*model.Group, error) {
	query := `
		SELECT * FROM group
		WHERE is_active = true AND status = $status
		ORDER BY created_on ASC
	`
	vars := map[string]interface{}{"status": string(model.GroupStatusActive)}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	return parseGroupList(result)
}

// ListForUser retrieves all groups where the user is on the roster
func (r *GroupRepository) ListForUser(ctx context.Context, userID string) ([]*model.Group, error) {
	query := `
		SELECT * FROM group
		WHERE members.user_id CONTAINS $user_id
		ORDER BY created_on DESC
	`
	vars := map[string]interface{}{"user_id": userID}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	return parseGroupList(result)
}

// membersToVars converts the roster for query parameters. Joined
// timestamps travel as RFC 3339 strings.
func membersToVars(members []model.Member) []interface{} {
	out := make([]interface{}, 0, len(members))
	for _, m := range members {
		out = append(out, map[string]interface{}{
			"user_id":   m.UserID,
			"role":      string(m.Role),
			"status":    string(m.Status),
			"joined_at": m.JoinedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}

func parseGroupList(result []interface{}) ([]*model.Group, error) {
	rows, ok := extractQueryResults(result)
	if !ok {
		return []*model.Group{}, nil
	}

	groups := make([]*model.Group, 0, len(rows))
	for _, row := range rows {
		group, err := parseGroupResult(row)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				continue
			}
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func parseGroupResult(result interface{}) (*model.Group, error) {
	if result == nil {
		return nil, database.ErrNotFound
	}

	// Navigate through SurrealDB response structure
	if resp, ok := result.(map[string]interface{}); ok {
		if status, ok := resp["status"].(string); ok && status == "OK" {
			if resultData, ok := resp["result"].([]interface{}); ok {
				if len(resultData) == 0 {
					return nil, database.ErrNotFound
				}
				result = resultData[0]
			}
		}
	}

	if arr, ok := result.([]interface{}); ok {
		if len(arr) == 0 {
			return nil, database.ErrNotFound
		}
		result = arr[0]
	}

	data, ok := result.(map[string]interface{})
	if !ok {
		return nil, errors.New("unexpected result format")
	}

	normalizeGroupData(data)

	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var group model.Group
	if err := json.Unmarshal(jsonBytes, &group); err != nil {
		return nil, err
	}

	return &group, nil
}

// normalizeGroupData rewrites record links and datetimes into plain
// strings so the document survives a JSON round trip into the model.
func normalizeGroupData(data map[string]interface{}) {
	if id, ok := data["id"]; ok {
		data["id"] = convertSurrealID(id)
	}
	if createdBy, ok := data["created_by"]; ok {
		data["created_by"] = convertSurrealID(createdBy)
	}
	normalizeTimeField(data, "created_on")
	normalizeTimeField(data, "updated_on")

	if settings, ok := data["settings"].(map[string]interface{}); ok {
		normalizeTimeField(settings, "start_date")
		normalizeTimeField(settings, "end_date")
	}

	if members, ok := data["members"].([]interface{}); ok {
		for _, m := range members {
			if member, ok := m.(map[string]interface{}); ok {
				if uid, ok := member["user_id"]; ok {
					member["user_id"] = convertSurrealID(uid)
				}
				normalizeTimeField(member, "joined_at")
			}
		}
	}
}

// normalizeTimeField replaces a datetime value with its RFC 3339 string form
func normalizeTimeField(m map[string]interface{}, key string) {
	v, ok := m[key]
	if !ok {
		return
	}
	if t := parseTime(v); !t.IsZero() {
		m[key] = t.UTC().Format(time.RFC3339Nano)
	}
}
