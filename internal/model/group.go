package model

import "time"

// Group visibility values stored in groups.visibility.
const (
	GroupPrivate = "PRIVATE"
	GroupPublic  = "PUBLIC"
)

// Group is an access-control boundary with exactly one admin.  Food
// posts may be restricted to a group so that only approved members
// can see and claim them.  The admin identity never changes;
// ownership transfer is not modeled.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – display name of the group.
//  Description – optional description.
//  AdminID     – the single administrator of the group.
//  Visibility  – PRIVATE or PUBLIC (discoverability only).
//  MemberLimit – optional cap on approved members; nil means no cap.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Group struct {
	ID          uint64    // groups.id
	Name        string    // groups.name
	Description string    // groups.description
	AdminID     uint64    // groups.admin_id
	Visibility  string    // groups.visibility
	MemberLimit *uint32   // groups.member_limit (nullable)
	CreatedAt   time.Time // groups.created_at
	UpdatedAt   time.Time // groups.updated_at
}
