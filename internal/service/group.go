package service

import (
	"context"
	"errors"
	"time"

	"github.com/forgo/tontine/api/internal/database"
	"github.com/forgo/tontine/api/internal/model"
)

// GroupRepository defines the interface for group storage
type GroupRepository interface {
	Create(ctx context.Context, group *model.Group) error
	GetByID(ctx context.Context, id string) (*model.Group, error)
	UpdateVersioned(ctx context.Context, group *model.Group) error
	ListPublic(ctx context.Context, limit, offset int) ([]*model.Group, error)
	ListForUser(ctx context.Context, userID string) ([]*model.Group, error)
	ListActive(ctx context.Context) ([]*model.Group, error)
}

// ContributionCounter reports how many contributions exist for a group.
// Used to lock schedule settings once generation has started.
type ContributionCounter interface {
	CountByGroup(ctx context.Context, groupID string) (int, error)
}

// GroupService handles group lifecycle and membership business logic
type GroupService struct {
	groupRepo     GroupRepository
	userRepo      UserRepository
	contributions ContributionCounter
}

// GroupServiceConfig holds configuration for the group service
type GroupServiceConfig struct {
	GroupRepo     GroupRepository
	UserRepo      UserRepository
	Contributions ContributionCounter
}

// NewGroupService creates a new group service
func NewGroupService(cfg GroupServiceConfig) *GroupService {
	return &GroupService{
		groupRepo:     cfg.GroupRepo,
		userRepo:      cfg.UserRepo,
		contributions: cfg.Contributions,
	}
}

// CreateGroup creates a new group with the creator auto-joined as admin
func (s *GroupService) CreateGroup(ctx context.Context, creatorID string, req model.CreateGroupRequest) (*model.Group, error) {
	creator, err := s.userRepo.GetByID(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	if creator == nil {
		return nil, ErrUserNotFound
	}
	if !creator.IsActive {
		return nil, ErrCreatorNotActive
	}

	startDate, endDate := req.ParsedDates()

	group := &model.Group{
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   creatorID,
		Status:      model.GroupStatusActive,
		IsActive:    true,
		Settings: model.GroupSettings{
			ContributionAmount:    req.ContributionAmount,
			ContributionFrequency: model.ContributionFrequency(req.ContributionFrequency),
			StartDate:             startDate,
			EndDate:               endDate,
			MaxMembers:            req.MaxMembers,
			IsPublic:              req.IsPublic,
			RequiresKyc:           req.RequiresKyc,
			MinReliabilityScore:   req.MinReliabilityScore,
		},
	}
	group.AddMember(creatorID, model.MemberRoleAdmin, time.Now())

	if err := s.groupRepo.Create(ctx, group); err != nil {
		return nil, err
	}

	return group, nil
}

// GetGroup retrieves a group the requester is allowed to see. Private
// groups are indistinguishable from missing ones for outsiders.
func (s *GroupService) GetGroup(ctx context.Context, requesterID, groupID string) (*model.Group, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}

	if !group.IsMember(requesterID) && !group.Settings.IsPublic {
		return nil, ErrGroupNotFound
	}

	return group, nil
}

// IsMember reports whether userID holds a roster entry on the group.
// A missing group reads as not a member.
func (s *GroupService) IsMember(ctx context.Context, userID, groupID string) (bool, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return false, err
	}
	if group == nil {
		return false, nil
	}
	return group.IsMember(userID), nil
}

// ListUserGroups retrieves all groups the user belongs to
func (s *GroupService) ListUserGroups(ctx context.Context, userID string) ([]*model.Group, error) {
	return s.groupRepo.ListForUser(ctx, userID)
}

// DiscoverGroups retrieves active public groups for browsing
func (s *GroupService) DiscoverGroups(ctx context.Context, limit, offset int) ([]*model.Group, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.groupRepo.ListPublic(ctx, limit, offset)
}

// UpdateGroup applies a settings patch. Schedule-defining settings
// (dates, amount, frequency) are frozen once any contribution has been
// generated, so existing obligations never drift.
func (s *GroupService) UpdateGroup(ctx context.Context, requesterID, groupID string, req model.UpdateGroupRequest) (*model.Group, error) {
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

	if req.MaxMembers != nil && *req.MaxMembers < group.MemberCount() {
		return nil, ErrMaxMembersBelowCount
	}

	scheduleChanged, err := s.applySchedulePatch(group, req)
	if err != nil {
		return nil, err
	}
	if scheduleChanged {
		count, err := s.contributions.CountByGroup(ctx, groupID)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, ErrSettingsLocked
		}
	}

	if req.Name != nil {
		group.Name = *req.Name
	}
	if req.Description != nil {
		group.Description = req.Description
	}
	if req.MaxMembers != nil {
		group.Settings.MaxMembers = *req.MaxMembers
	}
	if req.IsPublic != nil {
		group.Settings.IsPublic = *req.IsPublic
	}
	if req.RequiresKyc != nil {
		group.Settings.RequiresKyc = *req.RequiresKyc
	}
	if req.MinReliabilityScore != nil {
		group.Settings.MinReliabilityScore = *req.MinReliabilityScore
	}

	if err := s.groupRepo.UpdateVersioned(ctx, group); err != nil {
		return nil, mapConflict(err)
	}

	return group, nil
}

// applySchedulePatch writes schedule fields onto the group settings and
// reports whether any of them actually changed value.
func (s *GroupService) applySchedulePatch(group *model.Group, req model.UpdateGroupRequest) (bool, error) {
	changed := false

	if req.ContributionAmount != nil && *req.ContributionAmount != group.Settings.ContributionAmount {
		group.Settings.ContributionAmount = *req.ContributionAmount
		changed = true
	}
	if req.ContributionFrequency != nil {
		freq := model.ContributionFrequency(*req.ContributionFrequency)
		if freq != group.Settings.ContributionFrequency {
			group.Settings.ContributionFrequency = freq
			changed = true
		}
	}

	startDate, endDate := req.ParsedDates()
	if startDate != nil && !startDate.Equal(group.Settings.StartDate) {
		group.Settings.StartDate = *startDate
		changed = true
	}
	if endDate != nil && !endDate.Equal(group.Settings.EndDate) {
		group.Settings.EndDate = *endDate
		changed = true
	}

	if group.Settings.EndDate.Before(group.Settings.StartDate) || group.Settings.EndDate.Equal(group.Settings.StartDate) {
		return false, ErrInvalidDateWindow
	}

	return changed, nil
}

// DeleteGroup cancels a group. Only the creator may do this. The record
// is kept so contributions can still reference it; repeated deletes are
// no-ops.
func (s *GroupService) DeleteGroup(ctx context.Context, requesterID, groupID string) error {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if group == nil {
		return ErrGroupNotFound
	}
	if requesterID != group.CreatedBy {
		return ErrNotGroupAdmin
	}

	if group.Status == model.GroupStatusCancelled && !group.IsActive {
		return nil
	}

	group.Status = model.GroupStatusCancelled
	group.IsActive = false

	if err := s.groupRepo.UpdateVersioned(ctx, group); err != nil {
		return mapConflict(err)
	}
	return nil
}

// JoinGroup adds the user to the group after running the eligibility
// gates in order: duplicate membership, capacity, KYC, reliability.
func (s *GroupService) JoinGroup(ctx context.Context, userID, groupID string) error {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if group == nil {
		return ErrGroupNotFound
	}
	if !group.IsActive || group.Status != model.GroupStatusActive {
		return ErrGroupNotActive
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	if err := canJoin(group, user); err != nil {
		return err
	}

	group.AddMember(userID, model.MemberRoleMember, time.Now())

	if err := s.groupRepo.UpdateVersioned(ctx, group); err != nil {
		return mapConflict(err)
	}
	return nil
}

// LeaveGroup removes the user from the roster. The creator anchors the
// group and can never leave it. Rosters of completed and cancelled
// groups are frozen.
func (s *GroupService) LeaveGroup(ctx context.Context, userID, groupID string) error {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if group == nil {
		return ErrGroupNotFound
	}
	if !group.IsActive || group.Status != model.GroupStatusActive {
		return ErrGroupNotActive
	}

	if err := canLeave(group, userID); err != nil {
		return err
	}

	group.RemoveMember(userID)

	if err := s.groupRepo.UpdateVersioned(ctx, group); err != nil {
		return mapConflict(err)
	}
	return nil
}

// GetMembers retrieves the group roster, visible to members only
func (s *GroupService) GetMembers(ctx context.Context, requesterID, groupID string) ([]model.Member, error) {
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

	return group.Members, nil
}

// UpdateMemberRole changes a member's role. Admin only. The creator's
// roster role is locked; their authority never depends on it.
func (s *GroupService) UpdateMemberRole(ctx context.Context, requesterID, groupID, targetUserID string, role model.MemberRole) (*model.Member, error) {
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
	if targetUserID == group.CreatedBy {
		return nil, ErrCreatorRoleLocked
	}

	member := group.FindMember(targetUserID)
	if member == nil {
		return nil, ErrMemberNotFound
	}

	member.Role = role

	if err := s.groupRepo.UpdateVersioned(ctx, group); err != nil {
		return nil, mapConflict(err)
	}
	return member, nil
}

// RemoveMember removes a member from the roster. Admin only; the
// creator cannot be removed.
func (s *GroupService) RemoveMember(ctx context.Context, requesterID, groupID, targetUserID string) error {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if group == nil {
		return ErrGroupNotFound
	}
	if !group.IsAdmin(requesterID) {
		return ErrNotGroupAdmin
	}

	if targetUserID == group.CreatedBy {
		return ErrCannotRemoveCreator
	}
	if group.FindMember(targetUserID) == nil {
		return ErrMemberNotFound
	}

	group.RemoveMember(targetUserID)

	if err := s.groupRepo.UpdateVersioned(ctx, group); err != nil {
		return mapConflict(err)
	}
	return nil
}

// CompleteExpired transitions active groups whose schedule has ended
// to COMPLETED. Returns the number of groups closed. A lost version
// race is skipped; the next sweep picks the group up again.
func (s *GroupService) CompleteExpired(ctx context.Context, now time.Time) (int, error) {
	groups, err := s.groupRepo.ListActive(ctx)
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, group := range groups {
		if !group.Settings.EndDate.Before(now) {
			continue
		}

		group.Status = model.GroupStatusCompleted
		group.IsActive = false

		if err := s.groupRepo.UpdateVersioned(ctx, group); err != nil {
			if errors.Is(err, database.ErrConflict) {
				continue
			}
			return completed, err
		}
		completed++
	}
	return completed, nil
}

// canJoin runs the join eligibility gates in a fixed order
func canJoin(group *model.Group, user *model.User) error {
	if group.IsMember(user.ID) {
		return ErrAlreadyMember
	}
	if !group.HasCapacity() {
		return ErrGroupFull
	}
	if group.Settings.RequiresKyc && !user.IsKycVerified {
		return ErrKycRequired
	}
	if group.Settings.MinReliabilityScore > 0 && user.ReliabilityScore < group.Settings.MinReliabilityScore {
		return ErrReliabilityTooLow
	}
	return nil
}

// canLeave checks whether the user may leave the group
func canLeave(group *model.Group, userID string) error {
	if group.FindMember(userID) == nil {
		return ErrNotGroupMember
	}
	if userID == group.CreatedBy {
		return ErrCreatorCannotLeave
	}
	return nil
}

// mapConflict translates a lost optimistic-concurrency race into the
// service-level error callers are expected to retry on.
func mapConflict(err error) error {
	if errors.Is(err, database.ErrConflict) {
		return ErrConcurrentUpdate
	}
	return err
}
