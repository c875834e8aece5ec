package model

import "time"

// Claim records one user's reservation of a single portion of a
// food post.  A user holds at most one claim per post, enforced by
// a unique index on (post_id, user_id).  Claims are never updated;
// they are deleted only through an explicit retraction.
//
// Fields:
//  ID        – primary key identifier.
//  PostID    – the claimed food post.
//  UserID    – the claimant.
//  ClaimedAt – when the claim succeeded.
type Claim struct {
	ID        uint64    // food_claims.id
	PostID    uint64    // food_claims.post_id
	UserID    uint64    // food_claims.user_id
	ClaimedAt time.Time // food_claims.claimed_at
}
