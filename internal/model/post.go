package model

import "time"

// FoodPost is a shareable food offer with a finite number of
// portions.  A post may be public or restricted to a single group.
// The remaining portion count only ever decreases through a
// successful claim; once it hits zero the post stays visible as
// history but can no longer be claimed.
//
// Fields:
//  ID             – primary key identifier.
//  Title          – short headline for the offer.
//  Description    – optional longer description.
//  PlaceName      – human readable pickup location.
//  Latitude       – optional latitude of the pickup point.
//  Longitude      – optional longitude of the pickup point.
//  TotalCount     – portions offered at creation; immutable.
//  CurrentCount   – portions still unclaimed (0..TotalCount).
//  PostedBy       – user who created the post.
//  GroupID        – restricting group; nil means public.
//  AvailableUntil – expiry timestamp of the offer.
//  IsActive       – soft-delete flag; a deactivated post is terminal.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type FoodPost struct {
	ID             uint64    // food_posts.id
	Title          string    // food_posts.title
	Description    string    // food_posts.description
	PlaceName      string    // food_posts.place_name
	Latitude       *float64  // food_posts.latitude (nullable)
	Longitude      *float64  // food_posts.longitude (nullable)
	TotalCount     uint32    // food_posts.total_count
	CurrentCount   uint32    // food_posts.current_count
	PostedBy       uint64    // food_posts.posted_by
	GroupID        *uint64   // food_posts.group_id (nullable)
	AvailableUntil time.Time // food_posts.available_until
	IsActive       bool      // food_posts.is_active
	CreatedAt      time.Time // food_posts.created_at
	UpdatedAt      time.Time // food_posts.updated_at
}

// HasLocation reports whether the post carries a usable coordinate.
func (p *FoodPost) HasLocation() bool {
	return p.Latitude != nil && p.Longitude != nil
}
