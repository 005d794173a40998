package model

import "time"

// ContributionStatus represents the lifecycle state of a contribution.
// Only PENDING, PAID and CANCELLED are ever stored; OVERDUE is derived
// at read time from a pending contribution past its due date so that a
// sweep can never race a concurrent payment.
type ContributionStatus string

const (
	ContributionStatusPending   ContributionStatus = "PENDING"
	ContributionStatusPaid      ContributionStatus = "PAID"
	ContributionStatusCancelled ContributionStatus = "CANCELLED"
	ContributionStatusOverdue   ContributionStatus = "OVERDUE"
)

// IsValid returns true if the status is a known value
func (s ContributionStatus) IsValid() bool {
	switch s {
	case ContributionStatusPending, ContributionStatusPaid, ContributionStatusCancelled, ContributionStatusOverdue:
		return true
	}
	return false
}

// IsTerminal returns true for states that admit no further transition
func (s ContributionStatus) IsTerminal() bool {
	return s == ContributionStatusPaid || s == ContributionStatusCancelled
}

// Penalty is a surcharge applied to an unpaid contribution
type Penalty struct {
	Amount    float64   `json:"amount"`
	Reason    string    `json:"reason"`
	AppliedAt time.Time `json:"applied_at"`
}

// Contribution is one member's payment obligation for one cycle of a
// group's schedule. It references its group and user by id only and is
// persisted independently, so it survives the member leaving.
type Contribution struct {
	ID           string             `json:"id"`
	GroupID      string             `json:"group_id"`
	UserID       string             `json:"user_id"`
	Amount       float64            `json:"amount"`
	Cycle        int                `json:"cycle"`
	DueDate      time.Time          `json:"due_date"`
	Description  *string            `json:"description,omitempty"`
	Status       ContributionStatus `json:"status"`
	Penalties    []Penalty          `json:"penalties,omitempty"`
	PaymentID    *string            `json:"payment_id,omitempty"`
	PaidAt       *time.Time         `json:"paid_at,omitempty"`
	CancelReason *string            `json:"cancel_reason,omitempty"`
	CreatedOn    time.Time          `json:"created_on"`
	UpdatedOn    time.Time          `json:"updated_on"`
}

// IsOverdue reports whether the contribution is pending past its due
// date. Every overdue decision in the system goes through this single
// predicate.
func (c *Contribution) IsOverdue(now time.Time) bool {
	return c.Status == ContributionStatusPending && now.After(c.DueDate)
}

// EffectiveStatus returns the stored status, or OVERDUE for a pending
// contribution past its due date.
func (c *Contribution) EffectiveStatus(now time.Time) ContributionStatus {
	if c.IsOverdue(now) {
		return ContributionStatusOverdue
	}
	return c.Status
}

// AmountDue returns the base amount plus accrued penalties
func (c *Contribution) AmountDue() float64 {
	due := c.Amount
	for _, p := range c.Penalties {
		due += p.Amount
	}
	return due
}

// PaidOnTime reports whether a paid contribution settled by its due
// date. Returns false for anything unpaid.
func (c *Contribution) PaidOnTime() bool {
	return c.Status == ContributionStatusPaid && c.PaidAt != nil && !c.PaidAt.After(c.DueDate)
}

// GroupStatistics is a read-only aggregation over a group's
// contributions. Overdue rows are counted with the same predicate the
// lifecycle uses, never from a stored flag.
type GroupStatistics struct {
	Total         int     `json:"total"`
	Paid          int     `json:"paid"`
	Pending       int     `json:"pending"`
	Overdue       int     `json:"overdue"`
	Cancelled     int     `json:"cancelled"`
	TotalAmount   float64 `json:"total_amount"`
	PaidAmount    float64 `json:"paid_amount"`
	OverdueAmount float64 `json:"overdue_amount"`
}

// Business rule constants
const (
	MaxContributionDescriptionLength = 500
	MaxPenaltyReasonLength           = 255
	MaxCancelReasonLength            = 255
)

// CreateContributionRequest represents an ad-hoc contribution for a
// single member. Bulk generation goes through GenerateContributionsRequest.
type CreateContributionRequest struct {
	UserID      *string `json:"user_id,omitempty"`
	Amount      float64 `json:"amount"`
	DueDate     string  `json:"due_date"`
	Description *string `json:"description,omitempty"`
}

// Validate checks shape only. Due-date ordering against the clock is a
// business rule checked by the service.
func (r *CreateContributionRequest) Validate() []FieldError {
	var errs []FieldError
	if r.UserID != nil && *r.UserID == "" {
		errs = append(errs, FieldError{Field: "user_id", Message: "user id must not be empty when provided"})
	}
	if r.Amount <= 0 {
		errs = append(errs, FieldError{Field: "amount", Message: "amount must be positive"})
	}
	if r.DueDate == "" {
		errs = append(errs, FieldError{Field: "due_date", Message: "due date is required"})
	} else if _, err := time.Parse(time.RFC3339, r.DueDate); err != nil {
		errs = append(errs, FieldError{Field: "due_date", Message: "due date must be RFC 3339"})
	}
	if r.Description != nil && len(*r.Description) > MaxContributionDescriptionLength {
		errs = append(errs, FieldError{Field: "description", Message: "description must be at most 500 characters"})
	}
	return errs
}

// ParsedDueDate returns the due date. Call Validate first.
func (r *CreateContributionRequest) ParsedDueDate() time.Time {
	t, _ := time.Parse(time.RFC3339, r.DueDate)
	return t
}

// GenerateContributionsRequest asks for one contribution per active
// member per cycle in the window.
type GenerateContributionsRequest struct {
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
}

// Validate checks the window shape and ordering
func (r *GenerateContributionsRequest) Validate() []FieldError {
	var errs []FieldError
	start, err := time.Parse(time.RFC3339, r.PeriodStart)
	if err != nil {
		errs = append(errs, FieldError{Field: "period_start", Message: "period start must be RFC 3339"})
	}
	end, err2 := time.Parse(time.RFC3339, r.PeriodEnd)
	if err2 != nil {
		errs = append(errs, FieldError{Field: "period_end", Message: "period end must be RFC 3339"})
	}
	if err == nil && err2 == nil && !end.After(start) {
		errs = append(errs, FieldError{Field: "period_end", Message: "period end must be after period start"})
	}
	return errs
}

// ParsedPeriod returns the window bounds. Call Validate first.
func (r *GenerateContributionsRequest) ParsedPeriod() (start, end time.Time) {
	start, _ = time.Parse(time.RFC3339, r.PeriodStart)
	end, _ = time.Parse(time.RFC3339, r.PeriodEnd)
	return start, end
}

// MarkPaidRequest links a settled payment to a contribution
type MarkPaidRequest struct {
	PaymentID string `json:"payment_id"`
}

// Validate checks the payment reference is present
func (r *MarkPaidRequest) Validate() []FieldError {
	if r.PaymentID == "" {
		return []FieldError{{Field: "payment_id", Message: "payment id is required"}}
	}
	return nil
}

// AddPenaltyRequest applies a surcharge to an unpaid contribution
type AddPenaltyRequest struct {
	Amount float64 `json:"amount"`
	Reason string  `json:"reason"`
}

// Validate checks the penalty shape
func (r *AddPenaltyRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Amount <= 0 {
		errs = append(errs, FieldError{Field: "amount", Message: "amount must be positive"})
	}
	if r.Reason == "" {
		errs = append(errs, FieldError{Field: "reason", Message: "reason is required"})
	} else if len(r.Reason) > MaxPenaltyReasonLength {
		errs = append(errs, FieldError{Field: "reason", Message: "reason must be at most 255 characters"})
	}
	return errs
}

// CancelContributionRequest voids a contribution with a reason
type CancelContributionRequest struct {
	Reason string `json:"reason"`
}

// Validate checks the reason is present
func (r *CancelContributionRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Reason == "" {
		errs = append(errs, FieldError{Field: "reason", Message: "reason is required"})
	} else if len(r.Reason) > MaxCancelReasonLength {
		errs = append(errs, FieldError{Field: "reason", Message: "reason must be at most 255 characters"})
	}
	return errs
}
