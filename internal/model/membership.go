package model

import "time"

// Membership status values stored in group_members.status.
const (
	MemberPending  = "PENDING"
	MemberApproved = "APPROVED"
	MemberRejected = "REJECTED"
)

// Membership role values stored in group_members.role.  Only ADMIN
// carries authorization weight; MODERATOR is informational.
const (
	RoleAdmin     = "ADMIN"
	RoleModerator = "MODERATOR"
	RoleMember    = "MEMBER"
)

// Membership is the durable record of a user's standing in a group.
// At most one row exists per (group, user).  The group admin always
// holds an APPROVED/ADMIN row, seeded in the same transaction that
// creates the group.
//
// Fields:
//  ID         – primary key identifier.
//  GroupID    – the group.
//  UserID     – the member.
//  Status     – PENDING, APPROVED or REJECTED.
//  Role       – ADMIN, MODERATOR or MEMBER.
//  ApprovedBy – admin who approved, when applicable.
//  DecidedAt  – when the status was last decided.
//  JoinedAt   – when the row was created.
type Membership struct {
	ID         uint64     // group_members.id
	GroupID    uint64     // group_members.group_id
	UserID     uint64     // group_members.user_id
	Status     string     // group_members.status
	Role       string     // group_members.role
	ApprovedBy *uint64    // group_members.approved_by (nullable)
	DecidedAt  *time.Time // group_members.decided_at (nullable)
	JoinedAt   time.Time  // group_members.joined_at
}
