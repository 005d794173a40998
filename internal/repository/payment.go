package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/forgo/tontine/api/internal/database"
	"github.com/forgo/tontine/api/internal/model"
)

// PaymentRepository handles payment data access
type PaymentRepository struct {
	db database.Database
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db database.Database) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create persists a new pending payment
func (r *PaymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	query := `
		CREATE payment CONTENT {
			user: type::record($user),
			amount: $amount,
			method: $method,
			reference: IF $reference IS NOT NULL THEN $reference ELSE NONE END,
			status: $status,
			created_on: time::now(),
			updated_on: time::now()
		}
	`

	vars := map[string]interface{}{
		"user":      payment.UserID,
		"amount":    payment.Amount,
		"method":    string(payment.Method),
		"reference": ptrToNone(payment.Reference),
		"status":    string(payment.Status),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return err
	}

	created, err := extractCreatedRecord(result)
	if err != nil {
		return err
	}

	payment.ID = created.ID
	payment.CreatedOn = created.CreatedOn
	payment.UpdatedOn = created.UpdatedOn
	return nil
}

// GetByID retrieves a payment by ID
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*model.Payment, error) {
	query := `SELECT * FROM type::record($id)`
	vars := map[string]interface{}{"id": id}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	payment, err := parsePaymentResult(result)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return payment, nil
}

// ListByUser retrieves all payments of a user, newest first
func (r *PaymentRepository) ListByUser(ctx context.Context, userID string) ([]*model.Payment, error) {
	query := `
		SELECT * FROM payment
		WHERE user = type::record($user)
		ORDER BY created_on DESC
	`
	vars := map[string]interface{}{"user": userID}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return parsePaymentList(result)
}

// Settle moves a pending payment into a final state. The update only
// matches while the row is still PENDING; a settled payment never
// changes again.
func (r *PaymentRepository) Settle(ctx context.Context, id string, status model.PaymentStatus) error {
	query := `
		UPDATE type::record($id) SET
			status = $status,
			settled_on = time::now(),
			updated_on = time::now()
		WHERE status = $pending
	`
	vars := map[string]interface{}{
		"id":      id,
		"status":  string(status),
		"pending": string(model.PaymentStatusPending),
	}

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

func parsePaymentList(result []interface{}) ([]*model.Payment, error) {
	rows, ok := extractQueryResults(result)
	if !ok {
		return []*model.Payment{}, nil
	}

	payments := make([]*model.Payment, 0, len(rows))
	for _, row := range rows {
		payment, err := parsePaymentResult(row)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				continue
			}
			return nil, err
		}
		payments = append(payments, payment)
	}
	return payments, nil
}

func parsePaymentResult(result interface{}) (*model.Payment, error) {
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

	if id, ok := data["id"]; ok {
		data["id"] = convertSurrealID(id)
	}
	if user, ok := data["user"]; ok {
		data["user_id"] = convertSurrealID(user)
		delete(data, "user")
	}
	normalizeTimeField(data, "settled_on")
	normalizeTimeField(data, "created_on")
	normalizeTimeField(data, "updated_on")

	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payment model.Payment
	if err := json.Unmarshal(jsonBytes, &payment); err != nil {
		return nil, err
	}

	return &payment, nil
}
