package service

import (
	"context"
	"time"

	"github.com/forgo/tontine/api/internal/model"
)

// StatisticsService aggregates a group's contributions into read-only
// views. Overdue rows are classified with the same predicate the
// lifecycle uses, so reported and enforced state cannot drift.
type StatisticsService struct {
	contributionRepo ContributionRepository
	groupRepo        GroupRepository
}

// StatisticsServiceConfig holds configuration for the statistics service
type StatisticsServiceConfig struct {
	ContributionRepo ContributionRepository
	GroupRepo        GroupRepository
}

// NewStatisticsService creates a new statistics service
func NewStatisticsService(cfg StatisticsServiceConfig) *StatisticsService {
	return &StatisticsService{
		contributionRepo: cfg.ContributionRepo,
		groupRepo:        cfg.GroupRepo,
	}
}

// GetOverdue lists the group's contributions that are pending past
// their due date. Requester must be a member.
func (s *StatisticsService) GetOverdue(ctx context.Context, requesterID, groupID string) ([]*model.Contribution, error) {
	if err := s.requireMember(ctx, requesterID, groupID); err != nil {
		return nil, err
	}

	contributions, err := s.contributionRepo.ListOverdueByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return applyEffectiveStatus(contributions, time.Now()), nil
}

// GetStatistics tallies the group's contributions by outcome. Requester
// must be a member.
func (s *StatisticsService) GetStatistics(ctx context.Context, requesterID, groupID string) (*model.GroupStatistics, error) {
	if err := s.requireMember(ctx, requesterID, groupID); err != nil {
		return nil, err
	}

	contributions, err := s.contributionRepo.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	stats := &model.GroupStatistics{Total: len(contributions)}
	for _, c := range contributions {
		switch {
		case c.Status == model.ContributionStatusPaid:
			stats.Paid++
			stats.PaidAmount += c.AmountDue()
		case c.Status == model.ContributionStatusCancelled:
			stats.Cancelled++
		case c.IsOverdue(now):
			stats.Overdue++
			stats.OverdueAmount += c.AmountDue()
		default:
			stats.Pending++
		}
		if c.Status != model.ContributionStatusCancelled {
			stats.TotalAmount += c.AmountDue()
		}
	}
	return stats, nil
}

func (s *StatisticsService) requireMember(ctx context.Context, requesterID, groupID string) error {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if group == nil {
		return ErrGroupNotFound
	}
	if !group.IsMember(requesterID) {
		return ErrAccessDenied
	}
	return nil
}
