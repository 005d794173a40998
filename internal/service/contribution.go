package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/forgo/tontine/api/internal/database"
	"github.com/forgo/tontine/api/internal/model"
)

// ContributionRepository defines the interface for contribution storage
type ContributionRepository interface {
	Create(ctx context.Context, contribution *model.Contribution) error
	GetByID(ctx context.Context, id string) (*model.Contribution, error)
	CountByGroup(ctx context.Context, groupID string) (int, error)
	ListByGroup(ctx context.Context, groupID string) ([]*model.Contribution, error)
	ListByGroupAndStatus(ctx context.Context, groupID string, status model.ContributionStatus) ([]*model.Contribution, error)
	ListOverdueByGroup(ctx context.Context, groupID string) ([]*model.Contribution, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Contribution, error)
	ListByUserInGroup(ctx context.Context, userID, groupID string) ([]*model.Contribution, error)
	MarkPaid(ctx context.Context, id, paymentID string, paidAt time.Time) error
	Cancel(ctx context.Context, id, reason string) error
	AddPenalty(ctx context.Context, id string, penalty model.Penalty) error
}

// PaymentGetter resolves payments for settlement checks
type PaymentGetter interface {
	GetByID(ctx context.Context, id string) (*model.Payment, error)
}

// ReliabilityScorer recomputes a user's reliability score after a
// contribution settles
type ReliabilityScorer interface {
	RecordPaymentOutcome(ctx context.Context, userID string, onTime bool) (*model.ReliabilityReport, error)
}

// scoreRefreshTimeout bounds the detached recompute after a payment
const scoreRefreshTimeout = 10 * time.Second

// ContributionService handles the contribution lifecycle
type ContributionService struct {
	contributionRepo ContributionRepository
	groupRepo        GroupRepository
	payments         PaymentGetter
	scorer           ReliabilityScorer
	logger           *slog.Logger
}

// ContributionServiceConfig holds configuration for the contribution service
type ContributionServiceConfig struct {
	ContributionRepo ContributionRepository
	GroupRepo        GroupRepository
	Payments         PaymentGetter
	Scorer           ReliabilityScorer // Optional
	Logger           *slog.Logger      // Optional
}

// NewContributionService creates a new contribution service
func NewContributionService(cfg ContributionServiceConfig) *ContributionService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ContributionService{
		contributionRepo: cfg.ContributionRepo,
		groupRepo:        cfg.GroupRepo,
		payments:         cfg.Payments,
		scorer:           cfg.Scorer,
		logger:           logger,
	}
}

// CreateContribution records an ad-hoc obligation. Members create their
// own; admins may create for any active member. The cycle is derived
// from the due date so the one-per-cycle uniqueness rule still applies.
func (s *ContributionService) CreateContribution(ctx context.Context, actingUserID, groupID string, req model.CreateContributionRequest) (*model.Contribution, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}
	if !group.IsActive || group.Status != model.GroupStatusActive {
		return nil, ErrGroupNotActive
	}

	targetUserID := actingUserID
	if req.UserID != nil {
		targetUserID = *req.UserID
	}
	if targetUserID != actingUserID && !group.IsAdmin(actingUserID) {
		return nil, ErrNotGroupAdmin
	}

	member := group.FindMember(targetUserID)
	if member == nil || member.Status != model.MemberStatusActive {
		return nil, ErrNotGroupMember
	}

	dueDate := req.ParsedDueDate()
	if !dueDate.After(time.Now()) {
		return nil, ErrInvalidDueDate
	}
	cycle := group.Settings.CycleAt(dueDate)
	if cycle == 0 {
		// Due date predates the group schedule
		return nil, ErrInvalidDueDate
	}

	contribution := &model.Contribution{
		GroupID:     groupID,
		UserID:      targetUserID,
		Amount:      req.Amount,
		Cycle:       cycle,
		DueDate:     dueDate,
		Description: req.Description,
		Status:      model.ContributionStatusPending,
	}

	if err := s.contributionRepo.Create(ctx, contribution); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrDuplicateContribution
		}
		return nil, err
	}

	return contribution, nil
}

// GetContribution retrieves a contribution visible to the requester
func (s *ContributionService) GetContribution(ctx context.Context, requesterID, contributionID string) (*model.Contribution, error) {
	contribution, group, err := s.loadContribution(ctx, contributionID)
	if err != nil {
		return nil, err
	}

	if contribution.UserID != requesterID && !group.IsMember(requesterID) {
		return nil, ErrAccessDenied
	}

	return withEffectiveStatus(contribution, time.Now()), nil
}

// ListGroupContributions retrieves a group's contributions, optionally
// filtered by effective status. Members only.
func (s *ContributionService) ListGroupContributions(ctx context.Context, requesterID, groupID string, status model.ContributionStatus) ([]*model.Contribution, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}
	if !group.IsMember(requesterID) {
		return nil, ErrAccessDenied
	}

	now := time.Now()

	switch status {
	case "":
		contributions, err := s.contributionRepo.ListByGroup(ctx, groupID)
		if err != nil {
			return nil, err
		}
		return applyEffectiveStatus(contributions, now), nil
	case model.ContributionStatusOverdue:
		contributions, err := s.contributionRepo.ListOverdueByGroup(ctx, groupID)
		if err != nil {
			return nil, err
		}
		return applyEffectiveStatus(contributions, now), nil
	case model.ContributionStatusPending:
		// Stored PENDING includes overdue rows; keep only those not yet due
		contributions, err := s.contributionRepo.ListByGroupAndStatus(ctx, groupID, model.ContributionStatusPending)
		if err != nil {
			return nil, err
		}
		pending := make([]*model.Contribution, 0, len(contributions))
		for _, c := range contributions {
			if !c.IsOverdue(now) {
				pending = append(pending, c)
			}
		}
		return pending, nil
	default:
		contributions, err := s.contributionRepo.ListByGroupAndStatus(ctx, groupID, status)
		if err != nil {
			return nil, err
		}
		return applyEffectiveStatus(contributions, now), nil
	}
}

// ListUserContributions retrieves the caller's own contributions,
// optionally narrowed to one group
func (s *ContributionService) ListUserContributions(ctx context.Context, userID, groupID string) ([]*model.Contribution, error) {
	var (
		contributions []*model.Contribution
		err           error
	)
	if groupID != "" {
		contributions, err = s.contributionRepo.ListByUserInGroup(ctx, userID, groupID)
	} else {
		contributions, err = s.contributionRepo.ListByUser(ctx, userID)
	}
	if err != nil {
		return nil, err
	}
	return applyEffectiveStatus(contributions, time.Now()), nil
}

// MarkAsPaid settles a contribution against a succeeded payment of the
// same user and triggers a reliability refresh in the background.
func (s *ContributionService) MarkAsPaid(ctx context.Context, actingUserID, contributionID string, req model.MarkPaidRequest) (*model.Contribution, error) {
	contribution, group, err := s.loadContribution(ctx, contributionID)
	if err != nil {
		return nil, err
	}

	if contribution.UserID != actingUserID && !group.IsAdmin(actingUserID) {
		return nil, ErrNotGroupAdmin
	}

	if contribution.Status != model.ContributionStatusPending {
		return nil, ErrInvalidStateTransition
	}

	payment, err := s.payments.GetByID(ctx, req.PaymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil || payment.Status != model.PaymentStatusSucceeded || payment.UserID != contribution.UserID {
		return nil, ErrPaymentNotSettled
	}

	paidAt := time.Now()
	if err := s.contributionRepo.MarkPaid(ctx, contributionID, payment.ID, paidAt); err != nil {
		// A lost race means the row already left PENDING
		if errors.Is(err, database.ErrConflict) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	contribution.Status = model.ContributionStatusPaid
	contribution.PaymentID = &payment.ID
	contribution.PaidAt = &paidAt
	contribution.UpdatedOn = paidAt

	s.triggerScoreRefresh(contribution.UserID, contribution.PaidOnTime())

	return contribution, nil
}

// AddPenalty appends a penalty to an open contribution. Group admins only.
func (s *ContributionService) AddPenalty(ctx context.Context, actingUserID, contributionID string, req model.AddPenaltyRequest) (*model.Contribution, error) {
	contribution, group, err := s.loadContribution(ctx, contributionID)
	if err != nil {
		return nil, err
	}

	if !group.IsAdmin(actingUserID) {
		return nil, ErrNotGroupAdmin
	}

	if contribution.Status != model.ContributionStatusPending {
		return nil, ErrInvalidStateTransition
	}

	penalty := model.Penalty{
		Amount:    req.Amount,
		Reason:    req.Reason,
		AppliedAt: time.Now(),
	}

	if err := s.contributionRepo.AddPenalty(ctx, contributionID, penalty); err != nil {
		if errors.Is(err, database.ErrConflict) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	contribution.Penalties = append(contribution.Penalties, penalty)
	return withEffectiveStatus(contribution, time.Now()), nil
}

// CancelContribution voids an open contribution. The owner or a group
// admin may cancel; terminal contributions never change again.
func (s *ContributionService) CancelContribution(ctx context.Context, actingUserID, contributionID string, req model.CancelContributionRequest) (*model.Contribution, error) {
	contribution, group, err := s.loadContribution(ctx, contributionID)
	if err != nil {
		return nil, err
	}

	if contribution.UserID != actingUserID && !group.IsAdmin(actingUserID) {
		return nil, ErrNotGroupAdmin
	}

	if contribution.Status.IsTerminal() {
		return nil, ErrInvalidStateTransition
	}

	if err := s.contributionRepo.Cancel(ctx, contributionID, req.Reason); err != nil {
		if errors.Is(err, database.ErrConflict) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	contribution.Status = model.ContributionStatusCancelled
	contribution.CancelReason = &req.Reason
	return contribution, nil
}

// loadContribution fetches a contribution and its owning group
func (s *ContributionService) loadContribution(ctx context.Context, contributionID string) (*model.Contribution, *model.Group, error) {
	contribution, err := s.contributionRepo.GetByID(ctx, contributionID)
	if err != nil {
		return nil, nil, err
	}
	if contribution == nil {
		return nil, nil, ErrContributionNotFound
	}

	group, err := s.groupRepo.GetByID(ctx, contribution.GroupID)
	if err != nil {
		return nil, nil, err
	}
	if group == nil {
		return nil, nil, ErrGroupNotFound
	}

	return contribution, group, nil
}

// triggerScoreRefresh recomputes the user's reliability score off the
// request path. Scores are advisory, so a failed refresh is logged and
// left for the next paying event.
func (s *ContributionService) triggerScoreRefresh(userID string, onTime bool) {
	if s.scorer == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), scoreRefreshTimeout)
		defer cancel()
		if _, err := s.scorer.RecordPaymentOutcome(ctx, userID, onTime); err != nil {
			s.logger.Warn("reliability recompute failed", "user_id", userID, "error", err)
		}
	}()
}

// withEffectiveStatus surfaces derived overdue state on a single record
func withEffectiveStatus(c *model.Contribution, now time.Time) *model.Contribution {
	c.Status = c.EffectiveStatus(now)
	return c
}

// applyEffectiveStatus surfaces derived overdue state on reads. Overdue
// is never stored, so listings translate it at the boundary.
func applyEffectiveStatus(contributions []*model.Contribution, now time.Time) []*model.Contribution {
	for _, c := range contributions {
		c.Status = c.EffectiveStatus(now)
	}
	return contributions
}
