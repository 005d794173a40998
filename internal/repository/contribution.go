package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/forgo/tontine/api/internal/database"
	"github.com/forgo/tontine/api/internal/model"
)

// ContributionRepository handles contribution data access. One row per
// group, user and cycle is enforced by a unique index; state changes
// are conditional updates so a contribution never leaves PAID or
// CANCELLED once it gets there.
type ContributionRepository struct {
	db database.Database
}

// NewContributionRepository creates a new contribution repository
func NewContributionRepository(db database.Database) *ContributionRepository {
	return &ContributionRepository{db: db}
}

// Create persists a new pending contribution. A second contribution for
// the same group, user and cycle trips the unique index and returns
// ErrDuplicate.
func (r *ContributionRepository) Create(ctx context.Context, contribution *model.Contribution) error {
	query := `
		CREATE contribution CONTENT {
			group: type::record($group),
			user: type::record($user),
			amount: $amount,
			cycle: $cycle,
			due_date: <datetime>$due_date,
			description: IF $description IS NOT NULL THEN $description ELSE NONE END,
			status: $status,
			penalties: [],
			created_on: time::now(),
			updated_on: time::now()
		}
	`

	vars := map[string]interface{}{
		"group":       contribution.GroupID,
		"user":        contribution.UserID,
		"amount":      contribution.Amount,
		"cycle":       contribution.Cycle,
		"due_date":    contribution.DueDate.UTC().Format(time.RFC3339),
		"description": ptrToNone(contribution.Description),
		"status":      string(contribution.Status),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: contribution already exists for this cycle", database.ErrDuplicate)
		}
		return err
	}

	created, err := extractCreatedRecord(result)
	if err != nil {
		return err
	}

	contribution.ID = created.ID
	contribution.CreatedOn = created.CreatedOn
	contribution.UpdatedOn = created.UpdatedOn
	return nil
}

// GetByID retrieves a contribution by ID
func (r *ContributionRepository) GetByID(ctx context.Context, id string) (*model.Contribution, error) {
	query := `SELECT * FROM type::record($id)`
	vars := map[string]interface{}{"id": id}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	contribution, err := parseContributionResult(result)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return contribution, nil
}

// CountByGroup returns how many contributions exist for a group
func (r *ContributionRepository) CountByGroup(ctx context.Context, groupID string) (int, error) {
	query := `SELECT count() AS count FROM contribution WHERE group = type::record($group) GROUP ALL`
	vars := map[string]interface{}{"group": groupID}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}

	return extractCount(result), nil
}

// ListByGroup retrieves all contributions in a group ordered by due date
func (r *ContributionRepository) ListByGroup(ctx context.Context, groupID string) ([]*model.Contribution, error) {
	query := `
		SELECT * FROM contribution
		WHERE group = type::record($group)
		ORDER BY due_date ASC
	`
	vars := map[string]interface{}{"group": groupID}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return parseContributionList(result)
}

// ListByGroupAndStatus retrieves contributions in a group filtered by stored status
func (r *ContributionRepository) ListByGroupAndStatus(ctx context.Context, groupID string, status model.ContributionStatus) ([]*model.Contribution, error) {
	query := `
		SELECT * FROM contribution
		WHERE group = type::record($group) AND status = $status
		ORDER BY due_date ASC
	`
	vars := map[string]interface{}{
		"group":  groupID,
		"status": string(status),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return parseContributionList(result)
}

// ListOverdueByGroup retrieves pending contributions in a group whose
// due date has passed. Overdue is never stored, only derived.
func (r *ContributionRepository) ListOverdueByGroup(ctx context.Context, groupID string) ([]*model.Contribution, error) {
	query := `
		SELECT * FROM contribution
		WHERE group = type::record($group) AND status = $status AND due_date < time::now()
		ORDER BY due_date ASC
	`
	vars := map[string]interface{}{
		"group":  groupID,
		"status": string(model.ContributionStatusPending),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return parseContributionList(result)
}

// ListByUser retrieves all contributions of a user across groups
func (r *ContributionRepository) ListByUser(ctx context.Context, userID string) ([]*model.Contribution, error) {
	query := `
		SELECT * FROM contribution
		WHERE user = type::record($user)
		ORDER BY due_date ASC
	`
	vars := map[string]interface{}{"user": userID}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return parseContributionList(result)
}

// ListByUserInGroup retrieves a user's contributions within one group
func (r *ContributionRepository) ListByUserInGroup(ctx context.Context, userID, groupID string) ([]*model.Contribution, error) {
	query := `
		SELECT * FROM contribution
		WHERE user = type::record($user) AND group = type::record($group)
		ORDER BY due_date ASC
	`
	vars := map[string]interface{}{
		"user":  userID,
		"group": groupID,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return parseContributionList(result)
}

// MarkPaid settles a contribution against a payment. The update only
// matches while the row is still PENDING; a lost race returns
// ErrConflict and the caller re-reads.
func (r *ContributionRepository) MarkPaid(ctx context.Context, id, paymentID string, paidAt time.Time) error {
	query := `
		UPDATE type::record($id) SET
			status = $paid,
			payment = type::record($payment),
			paid_at = <datetime>$paid_at,
			updated_on = time::now()
		WHERE status = $pending
	`
	vars := map[string]interface{}{
		"id":      id,
		"paid":    string(model.ContributionStatusPaid),
		"payment": paymentID,
		"paid_at": paidAt.UTC().Format(time.RFC3339),
		"pending": string(model.ContributionStatusPending),
	}

	return r.conditionalUpdate(ctx, query, vars)
}

// Cancel voids a pending contribution with a reason
func (r *ContributionRepository) Cancel(ctx context.Context, id, reason string) error {
	query := `
		UPDATE type::record($id) SET
			status = $cancelled,
			cancel_reason = $reason,
			updated_on = time::now()
		WHERE status = $pending
	`
	vars := map[string]interface{}{
		"id":        id,
		"cancelled": string(model.ContributionStatusCancelled),
		"reason":    reason,
		"pending":   string(model.ContributionStatusPending),
	}

	return r.conditionalUpdate(ctx, query, vars)
}

// AddPenalty appends a penalty to a contribution that is still open
func (r *ContributionRepository) AddPenalty(ctx context.Context, id string, penalty model.Penalty) error {
	query := `
		UPDATE type::record($id) SET
			penalties += {
				amount: $amount,
				reason: $reason,
				applied_at: <datetime>$applied_at
			},
			updated_on = time::now()
		WHERE status = $pending
	`
	vars := map[string]interface{}{
		"id":         id,
		"amount":     penalty.Amount,
		"reason":     penalty.Reason,
		"applied_at": penalty.AppliedAt.UTC().Format(time.RFC3339),
		"pending":    string(model.ContributionStatusPending),
	}

	return r.conditionalUpdate(ctx, query, vars)
}

// conditionalUpdate runs a guarded UPDATE and maps an empty match to ErrConflict
func (r *ContributionRepository) conditionalUpdate(ctx context.Context, query string, vars map[string]interface{}) error {
	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return err
	}

	rows, ok := extractQueryResults(result)
	if !ok || len(rows) == 0 {
		return database.ErrConflict
	}
	return nil
}

func parseContributionList(result []interface{}) ([]*model.Contribution, error) {
	rows, ok := extractQueryResults(result)
	if !ok {
		return []*model.Contribution{}, nil
	}

	contributions := make([]*model.Contribution, 0, len(rows))
	for _, row := range rows {
		contribution, err := parseContributionResult(row)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				continue
			}
			return nil, err
		}
		contributions = append(contributions, contribution)
	}
	return contributions, nil
}

func parseContributionResult(result interface{}) (*model.Contribution, error) {
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

	normalizeContributionData(data)

	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var contribution model.Contribution
	if err := json.Unmarshal(jsonBytes, &contribution); err != nil {
		return nil, err
	}

	return &contribution, nil
}

// normalizeContributionData maps stored link fields onto model field
// names and rewrites record links and datetimes into plain strings.
func normalizeContributionData(data map[string]interface{}) {
	if id, ok := data["id"]; ok {
		data["id"] = convertSurrealID(id)
	}
	if group, ok := data["group"]; ok {
		data["group_id"] = convertSurrealID(group)
		delete(data, "group")
	}
	if user, ok := data["user"]; ok {
		data["user_id"] = convertSurrealID(user)
		delete(data, "user")
	}
	if payment, ok := data["payment"]; ok {
		data["payment_id"] = convertSurrealID(payment)
		delete(data, "payment")
	}
	normalizeTimeField(data, "due_date")
	normalizeTimeField(data, "paid_at")
	normalizeTimeField(data, "created_on")
	normalizeTimeField(data, "updated_on")

	if penalties, ok := data["penalties"].([]interface{}); ok {
		for _, p := range penalties {
			if penalty, ok := p.(map[string]interface{}); ok {
				normalizeTimeField(penalty, "applied_at")
			}
		}
	}
}
