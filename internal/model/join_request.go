package model

import "time"

// Join request status values stored in group_join_requests.status.
const (
	RequestPending  = "PENDING"
	RequestApproved = "APPROVED"
	RequestRejected = "REJECTED"
)

// JoinRequest is a user's ask to join a group, distinct from the
// Membership row that results from an approval.  At most one
// PENDING request exists per (group, user); a resolved request is
// immutable, and re-requesting after rejection creates a new row.
//
// Fields:
//  ID        – primary key identifier.
//  GroupID   – the group being joined.
//  UserID    – the requesting user.
//  Message   – optional message to the admin.
//  Status    – PENDING, APPROVED or REJECTED.
//  CreatedAt – creation timestamp.
//  UpdatedAt – when the request was last touched (resolution time).
type JoinRequest struct {
	ID        uint64    // group_join_requests.id
	GroupID   uint64    // group_join_requests.group_id
	UserID    uint64    // group_join_requests.user_id
	Message   string    // group_join_requests.message
	Status    string    // group_join_requests.status
	CreatedAt time.Time // group_join_requests.created_at
	UpdatedAt time.Time // group_join_requests.updated_at
}
