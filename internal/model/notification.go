package model

import "time"

// Notification kinds stored in notifications.kind.
const (
	NotifyNewPost        = "NEW_POST"
	NotifyClaimConfirmed = "CLAIM_CONFIRMED"
	NotifyJoinRequest    = "JOIN_REQUEST"
	NotifyJoinApproved   = "JOIN_APPROVED"
	NotifyJoinRejected   = "JOIN_REJECTED"
	NotifyMemberRemoved  = "MEMBER_REMOVED"
	NotifyReportStatus   = "REPORT_STATUS"
)

// Notification is a per-recipient record created by the notifier
// when a workflow transition fires.  Rows are created only by the
// notifier and mutated only by their recipient (marking read).
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – the recipient.
//  Kind      – one of the Notify* constants.
//  Title     – short headline shown to the user.
//  Message   – body text shown to the user.
//  RefID     – the entity that caused the notification.
//  IsRead    – whether the recipient has read it.
//  CreatedAt – creation timestamp.
type Notification struct {
	ID        uint64    // notifications.id
	UserID    uint64    // notifications.user_id
	Kind      string    // notifications.kind
	Title     string    // notifications.title
	Message   string    // notifications.message
	RefID     uint64    // notifications.ref_id
	IsRead    bool      // notifications.is_read
	CreatedAt time.Time // notifications.created_at
}
