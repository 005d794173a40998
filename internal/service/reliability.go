package service

import (
	"context"
	"time"

	"github.com/forgo/tontine/api/internal/model"
)

// ReliabilityRepository persists scores and their audit trail
type ReliabilityRepository interface {
	RecordScore(ctx context.Context, userID string, score int, reason model.ReliabilityReason) error
	ListEvents(ctx context.Context, userID string, limit int) ([]*model.ReliabilityEvent, error)
}

// ReliabilityService derives reliability scores from contribution
// outcomes. Paid contributions count as on-time or late by their paid
// timestamp, open contributions past due count against the user, and
// cancelled ones are neutral.
type ReliabilityService struct {
	contributionRepo ContributionRepository
	userRepo         UserRepository
	reliabilityRepo  ReliabilityRepository
}

// ReliabilityServiceConfig holds configuration for the reliability service
type ReliabilityServiceConfig struct {
	ContributionRepo ContributionRepository
	UserRepo         UserRepository
	ReliabilityRepo  ReliabilityRepository
}

// NewReliabilityService creates a new reliability service
func NewReliabilityService(cfg ReliabilityServiceConfig) *ReliabilityService {
	return &ReliabilityService{
		contributionRepo: cfg.ContributionRepo,
		userRepo:         cfg.UserRepo,
		reliabilityRepo:  cfg.ReliabilityRepo,
	}
}

// Recompute rebuilds the user's score from their full contribution
// history and records the result
func (s *ReliabilityService) Recompute(ctx context.Context, userID string) (*model.ReliabilityReport, error) {
	return s.recompute(ctx, userID, model.ReliabilityReasonRecalculated)
}

// RecordPaymentOutcome recomputes after a settled contribution, tagging
// the event with the payment's punctuality
func (s *ReliabilityService) RecordPaymentOutcome(ctx context.Context, userID string, onTime bool) (*model.ReliabilityReport, error) {
	reason := model.ReliabilityReasonPaidOnTime
	if !onTime {
		reason = model.ReliabilityReasonPaidLate
	}
	return s.recompute(ctx, userID, reason)
}

// RecordOverdueOutcome recomputes after a sweep found the user holding
// overdue contributions
func (s *ReliabilityService) RecordOverdueOutcome(ctx context.Context, userID string) (*model.ReliabilityReport, error) {
	return s.recompute(ctx, userID, model.ReliabilityReasonOverdueUnpaid)
}

// GetReport computes the user's current standing without persisting it
func (s *ReliabilityService) GetReport(ctx context.Context, userID string) (*model.ReliabilityReport, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	contributions, err := s.contributionRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	report, _ := buildReliabilityReport(user, contributions, time.Now())
	return report, nil
}

// GetHistory retrieves the user's score history, newest first
func (s *ReliabilityService) GetHistory(ctx context.Context, userID string, limit int) ([]*model.ReliabilityEvent, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.reliabilityRepo.ListEvents(ctx, userID, limit)
}

func (s *ReliabilityService) recompute(ctx context.Context, userID string, reason model.ReliabilityReason) (*model.ReliabilityReport, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	contributions, err := s.contributionRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	report, counted := buildReliabilityReport(user, contributions, time.Now())
	if !counted {
		reason = model.ReliabilityReasonNoHistory
	}

	if err := s.reliabilityRepo.RecordScore(ctx, userID, report.Score, reason); err != nil {
		return nil, err
	}

	return report, nil
}

// buildReliabilityReport tallies contribution outcomes and scores them.
// The second return reports whether any countable history exists.
func buildReliabilityReport(user *model.User, contributions []*model.Contribution, now time.Time) (*model.ReliabilityReport, bool) {
	var onTime, late, overdue int
	for _, c := range contributions {
		switch c.Status {
		case model.ContributionStatusPaid:
			if c.PaidOnTime() {
				onTime++
			} else {
				late++
			}
		case model.ContributionStatusPending:
			if c.IsOverdue(now) {
				overdue++
			}
		}
		// Cancelled contributions are neutral
	}

	tenureDays := int(now.Sub(user.CreatedOn).Hours() / 24)
	if tenureDays < 0 {
		tenureDays = 0
	}

	score, counted := model.ComputeReliabilityScore(onTime, late, overdue, tenureDays)

	var ratio float64
	if total := onTime + late + overdue; total > 0 {
		ratio = float64(onTime) / float64(total)
	}

	return &model.ReliabilityReport{
		UserID:      user.ID,
		Score:       score,
		OnTime:      onTime,
		Late:        late,
		Overdue:     overdue,
		OnTimeRatio: ratio,
		TenureDays:  tenureDays,
		ComputedAt:  now,
	}, counted
}
