package model

import "time"

// PaymentStatus represents the settlement state of a payment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusSucceeded PaymentStatus = "SUCCEEDED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// IsValid returns true if the status is a known value
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusSucceeded, PaymentStatusFailed:
		return true
	}
	return false
}

// IsSettled returns true once the payment reached a final state
func (s PaymentStatus) IsSettled() bool {
	return s == PaymentStatusSucceeded || s == PaymentStatusFailed
}

// PaymentMethod represents how a payment was made
type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCard         PaymentMethod = "CARD"
)

// IsValid returns true if the method is a known value
func (m PaymentMethod) IsValid() bool {
	return m == PaymentMethodBankTransfer || m == PaymentMethodCard
}

// Payment records money received from a user. Actual movement happens
// at an external provider; this record tracks the settlement outcome a
// contribution may link to. Contributions reference payments by id,
// never the reverse.
type Payment struct {
	ID        string        `json:"id"`
	UserID    string        `json:"user_id"`
	Amount    float64       `json:"amount"`
	Method    PaymentMethod `json:"method"`
	Reference *string       `json:"reference,omitempty"`
	Status    PaymentStatus `json:"status"`
	SettledOn *time.Time    `json:"settled_on,omitempty"`
	CreatedOn time.Time     `json:"created_on"`
	UpdatedOn time.Time     `json:"updated_on"`
}

// MaxPaymentReferenceLength bounds the provider reference field
const MaxPaymentReferenceLength = 255

// CreatePaymentRequest represents a payment submission
type CreatePaymentRequest struct {
	Amount    float64 `json:"amount"`
	Method    string  `json:"method"`
	Reference *string `json:"reference,omitempty"`
}

// Validate checks the payment shape
func (r *CreatePaymentRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Amount <= 0 {
		errs = append(errs, FieldError{Field: "amount", Message: "amount must be positive"})
	}
	if !PaymentMethod(r.Method).IsValid() {
		errs = append(errs, FieldError{Field: "method", Message: "method must be BANK_TRANSFER or CARD"})
	}
	if r.Reference != nil && len(*r.Reference) > MaxPaymentReferenceLength {
		errs = append(errs, FieldError{Field: "reference", Message: "reference must be at most 255 characters"})
	}
	return errs
}

// SettlePaymentRequest records the outcome reported by the provider
type SettlePaymentRequest struct {
	Status PaymentStatus `json:"status"`
}

// Validate checks the outcome is a final state
func (r *SettlePaymentRequest) Validate() []FieldError {
	if !r.Status.IsSettled() {
		return []FieldError{{Field: "status", Message: "status must be SUCCEEDED or FAILED"}}
	}
	return nil
}
