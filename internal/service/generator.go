package service

import (
	"context"
	"errors"
	"time"

	"github.com/forgo/tontine/api/internal/database"
	"github.com/forgo/tontine/api/internal/model"
)

// GeneratorService materializes scheduled contributions for a window.
// Generation is idempotent: the per (group, user, cycle) unique
// constraint turns re-runs and races into silent skips.
type GeneratorService struct {
	contributionRepo ContributionRepository
	groupRepo        GroupRepository
}

// GeneratorServiceConfig holds configuration for the generator service
type GeneratorServiceConfig struct {
	ContributionRepo ContributionRepository
	GroupRepo        GroupRepository
}

// NewGeneratorService creates a new generator service
func NewGeneratorService(cfg GeneratorServiceConfig) *GeneratorService {
	return &GeneratorService{
		contributionRepo: cfg.ContributionRepo,
		groupRepo:        cfg.GroupRepo,
	}
}

// Generate creates one pending contribution per active member for every
// schedule cycle starting inside the window. Admin only. Members joined
// mid-schedule owe nothing for cycles already underway when they joined.
// Returns only the newly created contributions; an empty result is a
// valid outcome.
func (s *GeneratorService) Generate(ctx context.Context, requesterID, groupID string, req model.GenerateContributionsRequest) ([]*model.Contribution, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}
	if !group.IsAdmin(requesterID) {
		return nil, ErrNotGroupAdmin
	}
	if !group.IsActive || group.Status != model.GroupStatusActive {
		return nil, ErrGroupNotActive
	}

	periodStart, periodEnd := req.ParsedPeriod()
	return s.generateForGroup(ctx, group, periodStart, periodEnd)
}

// GenerateDue sweeps every active group and materializes contributions
// for cycles starting within the lookahead window. Used by the
// background job; idempotency makes overlapping sweeps harmless.
// Returns the number of contributions created.
func (s *GeneratorService) GenerateDue(ctx context.Context, now time.Time, lookahead time.Duration) (int, error) {
	groups, err := s.groupRepo.ListActive(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, group := range groups {
		created, err := s.generateForGroup(ctx, group, now, now.Add(lookahead))
		if err != nil {
			return total, err
		}
		total += len(created)
	}
	return total, nil
}

// generateForGroup creates one pending contribution per active member
// for every schedule cycle starting inside the window
func (s *GeneratorService) generateForGroup(ctx context.Context, group *model.Group, periodStart, periodEnd time.Time) ([]*model.Contribution, error) {
	members := group.ActiveMembers()

	created := []*model.Contribution{}
	for _, cycle := range cyclesInWindow(group.Settings, periodStart, periodEnd) {
		cycleStart := group.Settings.CycleStart(cycle)
		dueDate := cycleDueDate(group.Settings, cycle)

		for _, member := range members {
			// No backfill for cycles already underway when the member
			// joined: the first obligated cycle is the first whose
			// start is at or after joinedAt
			if member.JoinedAt.After(cycleStart) {
				continue
			}

			contribution := &model.Contribution{
				GroupID: group.ID,
				UserID:  member.UserID,
				Amount:  group.Settings.ContributionAmount,
				Cycle:   cycle,
				DueDate: dueDate,
				Status:  model.ContributionStatusPending,
			}

			err := s.contributionRepo.Create(ctx, contribution)
			if errors.Is(err, database.ErrDuplicate) {
				continue
			}
			if err != nil {
				return nil, err
			}
			created = append(created, contribution)
		}
	}

	return created, nil
}

// cyclesInWindow returns the cycle numbers whose start falls inside
// [periodStart, periodEnd], bounded by the group schedule.
func cyclesInWindow(settings model.GroupSettings, periodStart, periodEnd time.Time) []int {
	var cycles []int
	for n := 1; ; n++ {
		cycleStart := settings.CycleStart(n)
		if cycleStart.After(periodEnd) || !cycleStart.Before(settings.EndDate) {
			break
		}
		if cycleStart.Before(periodStart) {
			continue
		}
		cycles = append(cycles, n)
	}
	return cycles
}

// cycleDueDate is the cycle's closing boundary, clamped to the schedule
// end for a partial final cycle.
func cycleDueDate(settings model.GroupSettings, cycle int) time.Time {
	due := settings.CycleEnd(cycle)
	if due.After(settings.EndDate) {
		return settings.EndDate
	}
	return due
}
