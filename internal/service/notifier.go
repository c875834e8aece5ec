package service

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/irfanhabeeb-002/foodshare/internal/model"
	q "github.com/irfanhabeeb-002/foodshare/internal/queue"
	"github.com/irfanhabeeb-002/foodshare/internal/repository"
)

// Notifier turns workflow transitions into per-recipient notification
// rows plus a broker event for connected clients. Rows are inserted
// inside the triggering transaction, so a transition can never become
// visible without its notifications; the broker publish happens only
// after commit and is best effort.
type Notifier struct {
	notifications *repository.NotificationRepo
	members       *repository.MembershipRepo
	publisher     EventPublisher
}

// NewNotifier constructs a Notifier. publisher may be nil to disable
// the push channel (tests, single-process deployments).
func NewNotifier(notifications *repository.NotificationRepo, members *repository.MembershipRepo, publisher EventPublisher) *Notifier {
	if notifications == nil || members == nil {
		panic("nil repository passed to NewNotifier")
	}
	return &Notifier{notifications: notifications, members: members, publisher: publisher}
}

// fanOutTx inserts one notification row per recipient and returns the
// event to publish after commit. A nil event (no recipients) is valid.
func (n *Notifier) fanOutTx(ctx context.Context, tx *sql.Tx, kind, title, message string, refID uint64, recipients []uint64) (*q.NotificationCreatedEvent, error) {
	if len(recipients) == 0 {
		return nil, nil
	}
	rows := make([]model.Notification, 0, len(recipients))
	for _, uid := range recipients {
		rows = append(rows, model.Notification{
			UserID:  uid,
			Kind:    kind,
			Title:   title,
			Message: message,
			RefID:   refID,
		})
	}
	if err := n.notifications.InsertBatchTx(ctx, tx, rows); err != nil {
		return nil, err
	}
	return &q.NotificationCreatedEvent{
		EventID:    uuid.NewString(),
		Kind:       kind,
		RefID:      refID,
		Recipients: recipients,
		Title:      title,
		Message:    message,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// newPostTx notifies all approved members of the restricting group
// except the poster. Public posts produce no fan-out.
func (n *Notifier) newPostTx(ctx context.Context, tx *sql.Tx, post *model.FoodPost) (*q.NotificationCreatedEvent, error) {
	if post.GroupID == nil {
		return nil, nil
	}
	memberIDs, err := n.members.ApprovedMemberIDsTx(ctx, tx, *post.GroupID)
	if err != nil {
		return nil, err
	}
	recipients := make([]uint64, 0, len(memberIDs))
	for _, id := range memberIDs {
		if id != post.PostedBy {
			recipients = append(recipients, id)
		}
	}
	msg := fmt.Sprintf("%s: %d portions at %s", post.Title, post.TotalCount, post.PlaceName)
	return n.fanOutTx(ctx, tx, model.NotifyNewPost, "New food available!", msg, post.ID, recipients)
}

// claimConfirmedTx notifies the claimant only.
func (n *Notifier) claimConfirmedTx(ctx context.Context, tx *sql.Tx, post *model.FoodPost, claim *model.Claim) (*q.NotificationCreatedEvent, error) {
	msg := fmt.Sprintf("You claimed a portion of %s at %s", post.Title, post.PlaceName)
	return n.fanOutTx(ctx, tx, model.NotifyClaimConfirmed, "Claim confirmed", msg, claim.ID, []uint64{claim.UserID})
}

// joinRequestTx notifies the group's admin.
func (n *Notifier) joinRequestTx(ctx context.Context, tx *sql.Tx, group *model.Group, req *model.JoinRequest) (*q.NotificationCreatedEvent, error) {
	msg := fmt.Sprintf("A user asked to join %s", group.Name)
	return n.fanOutTx(ctx, tx, model.NotifyJoinRequest, "New join request", msg, req.ID, []uint64{group.AdminID})
}

// joinApprovedTx notifies the requester.
func (n *Notifier) joinApprovedTx(ctx context.Context, tx *sql.Tx, group *model.Group, userID uint64) (*q.NotificationCreatedEvent, error) {
	msg := fmt.Sprintf("You are now a member of %s", group.Name)
	return n.fanOutTx(ctx, tx, model.NotifyJoinApproved, "Request approved", msg, group.ID, []uint64{userID})
}

// joinRejectedTx notifies the requester.
func (n *Notifier) joinRejectedTx(ctx context.Context, tx *sql.Tx, group *model.Group, userID uint64) (*q.NotificationCreatedEvent, error) {
	msg := fmt.Sprintf("Your request to join %s was declined", group.Name)
	return n.fanOutTx(ctx, tx, model.NotifyJoinRejected, "Request declined", msg, group.ID, []uint64{userID})
}

// memberRemovedTx notifies the removed member.
func (n *Notifier) memberRemovedTx(ctx context.Context, tx *sql.Tx, group *model.Group, userID uint64) (*q.NotificationCreatedEvent, error) {
	msg := fmt.Sprintf("You are no longer a member of %s", group.Name)
	return n.fanOutTx(ctx, tx, model.NotifyMemberRemoved, "Membership update", msg, group.ID, []uint64{userID})
}

// reportStatusTx notifies the reporter of the review outcome.
func (n *Notifier) reportStatusTx(ctx context.Context, tx *sql.Tx, report *model.Report) (*q.NotificationCreatedEvent, error) {
	msg := fmt.Sprintf("Your report was marked %s", report.Status)
	return n.fanOutTx(ctx, tx, model.NotifyReportStatus, "Report update", msg, report.ID, []uint64{report.ReportedBy})
}

// publishAll pushes committed events to the broker. Failures are
// logged and swallowed: the rows are already durable, and the
// triggering operation has succeeded.
func (n *Notifier) publishAll(ctx context.Context, events []*q.NotificationCreatedEvent) {
	if n.publisher == nil {
		return
	}
	for _, ev := range events {
		if ev == nil {
			continue
		}
		if err := n.publisher.Publish(ctx, *ev); err != nil {
			log.Printf("notifier: publish %s event failed: %v", ev.Kind, err)
		}
	}
}

// ListNotifications returns the recipient's notifications, newest
// first.
func (n *Notifier) ListNotifications(ctx context.Context, userID uint64) ([]model.Notification, error) {
	return n.notifications.ListByUser(ctx, userID)
}

// MarkRead marks a notification read on behalf of its recipient.
// ErrForbidden when the caller is not the recipient.
func (n *Notifier) MarkRead(ctx context.Context, notificationID, userID uint64) error {
	return n.notifications.MarkRead(ctx, notificationID, userID)
}

// UnreadCount returns the recipient's unread badge count.
func (n *Notifier) UnreadCount(ctx context.Context, userID uint64) (int, error) {
	return n.notifications.CountUnread(ctx, userID)
}
