package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/forgo/tontine/api/internal/database"
	"github.com/forgo/tontine/api/internal/model"
)

// ReliabilityRepository persists reliability scores and their audit
// trail. A recompute writes the user's new score and the event record
// in one transaction so the trail never drifts from the score.
type ReliabilityRepository struct {
	db database.Database
}

// NewReliabilityRepository creates a new reliability repository
func NewReliabilityRepository(db database.Database) *ReliabilityRepository {
	return &ReliabilityRepository{db: db}
}

// RecordScore stores a recomputed score on the user and appends an
// event documenting why it changed, atomically.
func (r *ReliabilityRepository) RecordScore(ctx context.Context, userID string, score int, reason model.ReliabilityReason) error {
	queries := []struct {
		Query string
		Vars  map[string]interface{}
	}{
		{
			Query: `UPDATE type::record($id) SET reliability_score = $score, updated_on = time::now()`,
			Vars: map[string]interface{}{
				"id":    userID,
				"score": score,
			},
		},
		{
			Query: `
				CREATE reliability_event CONTENT {
					user: type::record($user),
					score: $score,
					reason: $reason,
					recorded_at: time::now()
				}
			`,
			Vars: map[string]interface{}{
				"user":   userID,
				"score":  score,
				"reason": string(reason),
			},
		},
	}

	return BatchExecute(ctx, r.db, queries)
}

// ListEvents retrieves a user's score history, newest first
func (r *ReliabilityRepository) ListEvents(ctx context.Context, userID string, limit int) ([]*model.ReliabilityEvent, error) {
	query := `
		SELECT * FROM reliability_event
		WHERE user = type::record($user)
		ORDER BY recorded_at DESC
		LIMIT $limit
	`
	vars := map[string]interface{}{
		"user":  userID,
		"limit": limit,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	rows, ok := extractQueryResults(result)
	if !ok {
		return []*model.ReliabilityEvent{}, nil
	}

	events := make([]*model.ReliabilityEvent, 0, len(rows))
	for _, row := range rows {
		event, err := parseReliabilityEventResult(row)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				continue
			}
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

func parseReliabilityEventResult(result interface{}) (*model.ReliabilityEvent, error) {
	if result == nil {
		return nil, database.ErrNotFound
	}

	data, ok := result.(map[string]interface{})
	if !ok {
		return nil, errors.New("unexpected result format")
	}

	if id, ok := data["id"]; ok {
		data["id"] = convertSurrealID(id)
	}
	if user, ok := data["user"]; ok {
		data["user_id"] = convertSurrealID(user)
		delete(data, "user")
	}
	normalizeTimeField(data, "recorded_at")

	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var event model.ReliabilityEvent
	if err := json.Unmarshal(jsonBytes, &event); err != nil {
		return nil, err
	}

	return &event, nil
}
