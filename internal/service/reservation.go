package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/irfanhabeeb-002/foodshare/internal/model"
	q "github.com/irfanhabeeb-002/foodshare/internal/queue"
	"github.com/irfanhabeeb-002/foodshare/internal/repository"
)

// ReservationService coordinates claims against the finite portion
// count of food posts. The hot path is Claim: its check-and-decrement
// plus the uniqueness check on (post, user) execute as a single
// transaction, so two callers racing for the last portion can never
// both succeed and at most TotalCount claims ever succeed across a
// post's lifetime.
type ReservationService struct {
	posts    *repository.PostRepo
	claims   *repository.ClaimRepo
	members  *repository.MembershipRepo
	notifier *Notifier
}

// NewReservationService constructs a ReservationService. All
// dependencies must be non-nil.
func NewReservationService(posts *repository.PostRepo, claims *repository.ClaimRepo, members *repository.MembershipRepo, notifier *Notifier) *ReservationService {
	if posts == nil || claims == nil || members == nil || notifier == nil {
		panic("nil dependency passed to NewReservationService")
	}
	return &ReservationService{posts: posts, claims: claims, members: members, notifier: notifier}
}

// PostInput carries the caller-validated fields for a new food post.
// Coordinates arrive already geocoded; the engine performs no
// geocoding itself.
type PostInput struct {
	Title          string
	Description    string
	PlaceName      string
	Latitude       *float64
	Longitude      *float64
	TotalCount     uint32
	GroupID        *uint64
	AvailableUntil time.Time
}

// Claim reserves one portion of a post for the user.
//
// Failure modes, each distinguishable to the caller:
//   - ErrNotFound: the post does not exist
//   - ErrExpired: past expiry or deactivated by the owner
//   - ErrForbidden: group-restricted and the caller is not an
//     approved member
//   - ErrDuplicateClaim: the caller already holds a claim
//   - ErrExhausted: the remaining count is already zero
//
// On success the claim row, the decrement and the claimant's
// CLAIM_CONFIRMED notification commit atomically; the broker event is
// published afterwards. None of the failures are retried internally.
func (s *ReservationService) Claim(ctx context.Context, postID, userID uint64) (*model.Claim, error) {
	var (
		claim  model.Claim
		events []*q.NotificationCreatedEvent
	)
	err := runTx(ctx, s.posts.DB(), func(tx *sql.Tx) error {
		events = events[:0]
		post, err := s.posts.GetByIDTx(ctx, tx, postID)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		if !post.IsActive || now.After(post.AvailableUntil) {
			return repository.ErrExpired
		}
		if post.GroupID != nil && post.PostedBy != userID {
			ok, err := s.members.IsApprovedTx(ctx, tx, *post.GroupID, userID)
			if err != nil {
				return err
			}
			if !ok {
				return repository.ErrForbidden
			}
		}
		exists, err := s.claims.ExistsTx(ctx, tx, postID, userID)
		if err != nil {
			return err
		}
		if exists {
			return repository.ErrDuplicateClaim
		}
		// The conditional decrement is the per-post serialization
		// point; a loser on the last portion sees zero affected rows.
		decremented, err := s.posts.DecrementTx(ctx, tx, postID)
		if err != nil {
			return err
		}
		if !decremented {
			return repository.ErrExhausted
		}
		claim = model.Claim{PostID: postID, UserID: userID}
		if err := s.claims.InsertTx(ctx, tx, &claim); err != nil {
			// A racing claim by the same user lands here; the unique
			// index rejects it and the rollback restores the count.
			return err
		}
		ev, err := s.notifier.claimConfirmedTx(ctx, tx, post, &claim)
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
	return &claim, nil
}

// Retract withdraws the user's claim on a post and restores one
// portion. ErrNotFound when no claim exists. Retraction exists for
// cleanup; it does not notify anyone.
func (s *ReservationService) Retract(ctx context.Context, postID, userID uint64) error {
	return runTx(ctx, s.posts.DB(), func(tx *sql.Tx) error {
		deleted, err := s.claims.DeleteTx(ctx, tx, postID, userID)
		if err != nil {
			return err
		}
		if !deleted {
			return repository.ErrNotFound
		}
		return s.posts.RestoreTx(ctx, tx, postID)
	})
}

// CreatePost creates a food post owned by userID and fans out
// NEW_POST notifications to the restricting group's approved members
// (excluding the poster) in the same transaction. Posting into a
// group requires an approved membership there.
func (s *ReservationService) CreatePost(ctx context.Context, userID uint64, in PostInput) (*model.FoodPost, error) {
	if in.Title == "" || in.TotalCount == 0 {
		return nil, fmt.Errorf("%w: title and a positive portion count are required", ErrInvalidInput)
	}
	if !in.AvailableUntil.After(time.Now().UTC()) {
		return nil, repository.ErrExpired
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return nil, fmt.Errorf("%w: latitude and longitude must be supplied together", ErrInvalidInput)
	}
	var (
		post   model.FoodPost
		events []*q.NotificationCreatedEvent
	)
	err := runTx(ctx, s.posts.DB(), func(tx *sql.Tx) error {
		events = events[:0]
		if in.GroupID != nil {
			ok, err := s.members.IsApprovedTx(ctx, tx, *in.GroupID, userID)
			if err != nil {
				return err
			}
			if !ok {
				return repository.ErrForbidden
			}
		}
		post = model.FoodPost{
			Title:          in.Title,
			Description:    in.Description,
			PlaceName:      in.PlaceName,
			Latitude:       in.Latitude,
			Longitude:      in.Longitude,
			TotalCount:     in.TotalCount,
			PostedBy:       userID,
			GroupID:        in.GroupID,
			AvailableUntil: in.AvailableUntil.UTC(),
			IsActive:       true,
		}
		if err := s.posts.CreateTx(ctx, tx, &post); err != nil {
			return err
		}
		ev, err := s.notifier.newPostTx(ctx, tx, &post)
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
	return &post, nil
}

// Deactivate soft-closes a post. Only its owner may do so; the post
// and its claims remain as history.
func (s *ReservationService) Deactivate(ctx context.Context, postID, userID uint64) error {
	return runTx(ctx, s.posts.DB(), func(tx *sql.Tx) error {
		post, err := s.posts.GetByIDTx(ctx, tx, postID)
		if err != nil {
			return err
		}
		if post.PostedBy != userID {
			return repository.ErrForbidden
		}
		return s.posts.SetActiveTx(ctx, tx, postID, false)
	})
}

// GetPost loads one post for display.
func (s *ReservationService) GetPost(ctx context.Context, postID uint64) (*model.FoodPost, error) {
	return s.posts.GetByID(ctx, postID)
}

// ListClaimable returns the posts the user could claim right now.
func (s *ReservationService) ListClaimable(ctx context.Context, userID uint64) ([]model.FoodPost, error) {
	return s.posts.ListClaimable(ctx, userID, time.Now().UTC())
}

// ListMine returns the user's own posts, including exhausted and
// deactivated ones.
func (s *ReservationService) ListMine(ctx context.Context, userID uint64) ([]model.FoodPost, error) {
	return s.posts.ListByOwner(ctx, userID)
}

// ListMyClaims returns the user's claims, newest first.
func (s *ReservationService) ListMyClaims(ctx context.Context, userID uint64) ([]model.Claim, error) {
	return s.claims.ListByUser(ctx, userID)
}
