package model

import "time"

// Report status values stored in reports.status.
const (
	ReportPending   = "PENDING"
	ReportReviewed  = "REVIEWED"
	ReportResolved  = "RESOLVED"
	ReportDismissed = "DISMISSED"
)

// Report is a community flag against a post or a user, reviewed by
// moderators.  Reviewing a report notifies the reporter of the
// outcome.
//
// Fields:
//  ID          – primary key identifier.
//  ReportedBy  – user who filed the report.
//  PostID      – reported post, when applicable.
//  UserID      – reported user, when applicable.
//  Reason      – short reason code or phrase.
//  Description – optional free-form detail.
//  Status      – PENDING, REVIEWED, RESOLVED or DISMISSED.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Report struct {
	ID          uint64    // reports.id
	ReportedBy  uint64    // reports.reported_by
	PostID      *uint64   // reports.post_id (nullable)
	UserID      *uint64   // reports.user_id (nullable)
	Reason      string    // reports.reason
	Description string    // reports.description
	Status      string    // reports.status
	CreatedAt   time.Time // reports.created_at
	UpdatedAt   time.Time // reports.updated_at
}
