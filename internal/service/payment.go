package service

import (
	"context"
	"errors"
	"time"

	"github.com/forgo/tontine/api/internal/database"
	"github.com/forgo/tontine/api/internal/model"
)

// PaymentRepository defines the interface for payment persistence
type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	GetByID(ctx context.Context, id string) (*model.Payment, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Payment, error)
	Settle(ctx context.Context, id string, status model.PaymentStatus) error
}

// PaymentService records payments and their settlement outcomes. Money
// moves at an external provider; this service only tracks the results
// contributions settle against.
type PaymentService struct {
	paymentRepo PaymentRepository
}

// PaymentServiceConfig holds configuration for the payment service
type PaymentServiceConfig struct {
	PaymentRepo PaymentRepository
}

// NewPaymentService creates a new payment service
func NewPaymentService(cfg PaymentServiceConfig) *PaymentService {
	return &PaymentService{paymentRepo: cfg.PaymentRepo}
}

// CreatePayment records a pending payment for the calling user
func (s *PaymentService) CreatePayment(ctx context.Context, userID string, req model.CreatePaymentRequest) (*model.Payment, error) {
	payment := &model.Payment{
		UserID:    userID,
		Amount:    req.Amount,
		Method:    model.PaymentMethod(req.Method),
		Reference: req.Reference,
		Status:    model.PaymentStatusPending,
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// GetPayment retrieves a payment. Only the owner may read it.
func (s *PaymentService) GetPayment(ctx context.Context, requesterID, paymentID string) (*model.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	if payment.UserID != requesterID {
		return nil, ErrAccessDenied
	}
	return payment, nil
}

// ListUserPayments lists the calling user's payments, newest first
func (s *PaymentService) ListUserPayments(ctx context.Context, userID string) ([]*model.Payment, error) {
	return s.paymentRepo.ListByUser(ctx, userID)
}

// SettlePayment records the final outcome reported by the provider.
// A payment settles exactly once.
func (s *PaymentService) SettlePayment(ctx context.Context, requesterID, paymentID string, req model.SettlePaymentRequest) (*model.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	if payment.UserID != requesterID {
		return nil, ErrAccessDenied
	}
	if payment.Status.IsSettled() {
		return nil, ErrPaymentAlreadySettled
	}

	if err := s.paymentRepo.Settle(ctx, paymentID, req.Status); err != nil {
		// A lost race means another settlement landed first
		if errors.Is(err, database.ErrConflict) {
			return nil, ErrPaymentAlreadySettled
		}
		return nil, err
	}

	now := time.Now()
	payment.Status = req.Status
	payment.SettledOn = &now
	payment.UpdatedOn = now
	return payment, nil
}
