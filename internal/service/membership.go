package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/irfanhabeeb-002/foodshare/internal/model"
	q "github.com/irfanhabeeb-002/foodshare/internal/queue"
	"github.com/irfanhabeeb-002/foodshare/internal/repository"
)

// MembershipService drives the join-request state machine for each
// (group, user) pair: NoRequest → Pending → {Approved, Rejected}.
// Removal returns an approved member to NoRequest, and a rejected
// user may re-request freely. Every transition runs in a single
// transaction that first locks the group row, so concurrent requests
// and admin decisions on the same group serialize and repeated calls
// stay idempotent or are explicitly rejected.
type MembershipService struct {
	groups   *repository.GroupRepo
	members  *repository.MembershipRepo
	requests *repository.JoinRequestRepo
	posts    *repository.PostRepo
	notifier *Notifier
}

// NewMembershipService constructs a MembershipService. All
// dependencies must be non-nil.
func NewMembershipService(groups *repository.GroupRepo, members *repository.MembershipRepo, requests *repository.JoinRequestRepo, posts *repository.PostRepo, notifier *Notifier) *MembershipService {
	if groups == nil || members == nil || requests == nil || posts == nil || notifier == nil {
		panic("nil dependency passed to NewMembershipService")
	}
	return &MembershipService{groups: groups, members: members, requests: requests, posts: posts, notifier: notifier}
}

// GroupInput carries the caller-validated fields for a new group.
type GroupInput struct {
	Name        string
	Description string
	Visibility  string
	MemberLimit *uint32
}

// requireAdmin is the single authorization predicate for admin-gated
// transitions. Admin status derives solely from groups.admin_id; the
// MODERATOR role grants no approval rights.
func requireAdmin(group *model.Group, actorID uint64) error {
	if group.AdminID != actorID {
		return repository.ErrForbidden
	}
	return nil
}

// CreateGroup creates a group and seeds the creator's APPROVED/ADMIN
// membership in the same transaction, so there is never a window in
// which the group exists without its admin member.
func (s *MembershipService) CreateGroup(ctx context.Context, adminID uint64, in GroupInput) (*model.Group, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: group name is required", ErrInvalidInput)
	}
	visibility := in.Visibility
	if visibility == "" {
		visibility = model.GroupPrivate
	}
	if visibility != model.GroupPrivate && visibility != model.GroupPublic {
		return nil, fmt.Errorf("%w: visibility must be PRIVATE or PUBLIC", ErrInvalidInput)
	}
	var group model.Group
	err := runTx(ctx, s.groups.DB(), func(tx *sql.Tx) error {
		group = model.Group{
			Name:        in.Name,
			Description: in.Description,
			AdminID:     adminID,
			Visibility:  visibility,
			MemberLimit: in.MemberLimit,
		}
		if err := s.groups.CreateTx(ctx, tx, &group); err != nil {
			return err
		}
		now := time.Now().UTC()
		seed := model.Membership{
			GroupID:    group.ID,
			UserID:     adminID,
			Status:     model.MemberApproved,
			Role:       model.RoleAdmin,
			ApprovedBy: &adminID,
			DecidedAt:  &now,
		}
		return s.members.InsertTx(ctx, tx, &seed)
	})
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// RequestJoin files a PENDING join request and notifies the group's
// admin. ErrConflict when a pending request or an approved membership
// already exists for the pair; ErrNotFound when the group is missing.
func (s *MembershipService) RequestJoin(ctx context.Context, groupID, userID uint64, message string) (*model.JoinRequest, error) {
	var (
		request model.JoinRequest
		events  []*q.NotificationCreatedEvent
	)
	err := runTx(ctx, s.groups.DB(), func(tx *sql.Tx) error {
		events = events[:0]
		group, err := s.groups.GetByIDForUpdateTx(ctx, tx, groupID)
		if err != nil {
			return err
		}
		approved, err := s.members.IsApprovedTx(ctx, tx, groupID, userID)
		if err != nil {
			return err
		}
		if approved {
			return repository.ErrConflict
		}
		pending, err := s.requests.HasPendingTx(ctx, tx, groupID, userID)
		if err != nil {
			return err
		}
		if pending {
			return repository.ErrConflict
		}
		request = model.JoinRequest{GroupID: groupID, UserID: userID, Message: message}
		if err := s.requests.CreateTx(ctx, tx, &request); err != nil {
			return err
		}
		ev, err := s.notifier.joinRequestTx(ctx, tx, group, &request)
		if err != nil {
			return err
		}
		events = append(events, ev)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.publishAll(ctx, events)
	return &request, nil
}

// Approve resolves the pair's pending request and upserts an
// APPROVED membership, notifying the requester. Re-approving an
// already-approved pair is a no-op success. ErrForbidden unless the
// actor is the group's admin; ErrNotFound when neither a pending
// request nor an approved membership exists; ErrConflict when the
// group's member limit is reached.
func (s *MembershipService) Approve(ctx context.Context, groupID, userID, actorID uint64) error {
	var events []*q.NotificationCreatedEvent
	err := runTx(ctx, s.groups.DB(), func(tx *sql.Tx) error {
		events = events[:0]
		group, err := s.groups.GetByIDForUpdateTx(ctx, tx, groupID)
		if err != nil {
			return err
		}
		if err := requireAdmin(group, actorID); err != nil {
			return err
		}
		req, err := s.requests.GetPendingTx(ctx, tx, groupID, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				// Idempotent re-approval: success if the pair is
				// already approved, otherwise there is nothing to act
				// on.
				approved, aerr := s.members.IsApprovedTx(ctx, tx, groupID, userID)
				if aerr != nil {
					return aerr
				}
				if approved {
					return nil
				}
			}
			return err
		}
		if group.MemberLimit != nil {
			count, err := s.members.CountApprovedTx(ctx, tx, groupID)
			if err != nil {
				return err
			}
			if uint32(count) >= *group.MemberLimit {
				return repository.ErrConflict
			}
		}
		resolved, err := s.requests.ResolveTx(ctx, tx, req.ID, model.RequestApproved)
		if err != nil {
			return err
		}
		if !resolved {
			// Lost the race to a concurrent decision on this request.
			return repository.ErrConflict
		}
		if err := s.members.UpsertApprovedTx(ctx, tx, groupID, userID, actorID); err != nil {
			return err
		}
		ev, err := s.notifier.joinApprovedTx(ctx, tx, group, userID)
		if err != nil {
			return err
		}
		events = append(events, ev)
		return nil
	})
	if err != nil {
		return err
	}
	s.notifier.publishAll(ctx, events)
	return nil
}

// Reject resolves the pair's pending request as REJECTED and deletes
// any membership row, revoking a prior approval artifact. Safe after
// Approve: the membership is removed even though no pending request
// remains. ErrNotFound when there is nothing to reject.
func (s *MembershipService) Reject(ctx context.Context, groupID, userID, actorID uint64) error {
	var events []*q.NotificationCreatedEvent
	err := runTx(ctx, s.groups.DB(), func(tx *sql.Tx) error {
		events = events[:0]
		group, err := s.groups.GetByIDForUpdateTx(ctx, tx, groupID)
		if err != nil {
			return err
		}
		if err := requireAdmin(group, actorID); err != nil {
			return err
		}
		if userID == group.AdminID {
			return repository.ErrForbidden
		}
		acted := false
		req, err := s.requests.GetPendingTx(ctx, tx, groupID, userID)
		if err == nil {
			resolved, rerr := s.requests.ResolveTx(ctx, tx, req.ID, model.RequestRejected)
			if rerr != nil {
				return rerr
			}
			acted = acted || resolved
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		deleted, err := s.members.DeleteTx(ctx, tx, groupID, userID)
		if err != nil {
			return err
		}
		acted = acted || deleted
		if !acted {
			return repository.ErrNotFound
		}
		ev, err := s.notifier.joinRejectedTx(ctx, tx, group, userID)
		if err != nil {
			return err
		}
		events = append(events, ev)
		return nil
	})
	if err != nil {
		return err
	}
	s.notifier.publishAll(ctx, events)
	return nil
}

// Remove deletes the pair's membership row outright, leaving
// join-request history untouched, and notifies the removed user.
// Admin-gated, with one special case: a member may always remove
// themselves (actorID == userID). The group's admin cannot be
// removed; ownership transfer is not modeled.
func (s *MembershipService) Remove(ctx context.Context, groupID, userID, actorID uint64) error {
	var events []*q.NotificationCreatedEvent
	err := runTx(ctx, s.groups.DB(), func(tx *sql.Tx) error {
		events = events[:0]
		group, err := s.groups.GetByIDForUpdateTx(ctx, tx, groupID)
		if err != nil {
			return err
		}
		if actorID != userID {
			if err := requireAdmin(group, actorID); err != nil {
				return err
			}
		}
		if userID == group.AdminID {
			return repository.ErrForbidden
		}
		deleted, err := s.members.DeleteTx(ctx, tx, groupID, userID)
		if err != nil {
			return err
		}
		if !deleted {
			return repository.ErrNotFound
		}
		ev, err := s.notifier.memberRemovedTx(ctx, tx, group, userID)
		if err != nil {
			return err
		}
		events = append(events, ev)
		return nil
	})
	if err != nil {
		return err
	}
	s.notifier.publishAll(ctx, events)
	return nil
}

// DeleteGroup removes the group, cascading to memberships and join
// requests and deactivating the group's posts. Admin-only.
func (s *MembershipService) DeleteGroup(ctx context.Context, groupID, actorID uint64) error {
	return runTx(ctx, s.groups.DB(), func(tx *sql.Tx) error {
		group, err := s.groups.GetByIDForUpdateTx(ctx, tx, groupID)
		if err != nil {
			return err
		}
		if err := requireAdmin(group, actorID); err != nil {
			return err
		}
		// Orphaned restricted posts would be claimable by nobody and
		// claims still reference them, so they are soft-closed and
		// detached rather than deleted.
		if _, err := tx.ExecContext(ctx,
			`UPDATE food_posts SET is_active = ?, group_id = NULL WHERE group_id = ?`,
			false, groupID); err != nil {
			return err
		}
		return s.groups.DeleteTx(ctx, tx, groupID)
	})
}

// GetGroup loads one group for display.
func (s *MembershipService) GetGroup(ctx context.Context, groupID uint64) (*model.Group, error) {
	return s.groups.GetByID(ctx, groupID)
}

// ListGroups returns all groups for discovery.
func (s *MembershipService) ListGroups(ctx context.Context) ([]model.Group, error) {
	return s.groups.List(ctx)
}

// ListMembers returns a group's membership rows; only the admin may
// see them.
func (s *MembershipService) ListMembers(ctx context.Context, groupID, actorID uint64) ([]model.Membership, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := requireAdmin(group, actorID); err != nil {
		return nil, err
	}
	return s.members.ListByGroup(ctx, groupID)
}

// ListPendingRequests returns a group's pending join requests; only
// the admin may see them.
func (s *MembershipService) ListPendingRequests(ctx context.Context, groupID, actorID uint64) ([]model.JoinRequest, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := requireAdmin(group, actorID); err != nil {
		return nil, err
	}
	return s.requests.ListPendingByGroup(ctx, groupID)
}

// ListMyRequests returns the caller's join requests across groups.
func (s *MembershipService) ListMyRequests(ctx context.Context, userID uint64) ([]model.JoinRequest, error) {
	return s.requests.ListByUser(ctx, userID)
}
