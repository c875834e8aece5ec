package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/irfanhabeeb-002/foodshare/internal/model"
	q "github.com/irfanhabeeb-002/foodshare/internal/queue"
	"github.com/irfanhabeeb-002/foodshare/internal/repository"
)

// ReportService handles community reports against posts or users.
// Filing is open to any authenticated user; review is restricted to
// moderators at the HTTP layer. Reviewing notifies the reporter.
type ReportService struct {
	reports  *repository.ReportRepo
	posts    *repository.PostRepo
	notifier *Notifier
}

// NewReportService constructs a ReportService.
func NewReportService(reports *repository.ReportRepo, posts *repository.PostRepo, notifier *Notifier) *ReportService {
	if reports == nil || posts == nil || notifier == nil {
		panic("nil dependency passed to NewReportService")
	}
	return &ReportService{reports: reports, posts: posts, notifier: notifier}
}

// ReportInput carries the fields for a new report. Exactly one of
// PostID or UserID should be set.
type ReportInput struct {
	PostID      *uint64
	UserID      *uint64
	Reason      string
	Description string
}

// File creates a PENDING report on behalf of reporterID.
func (s *ReportService) File(ctx context.Context, reporterID uint64, in ReportInput) (*model.Report, error) {
	if in.Reason == "" {
		return nil, fmt.Errorf("%w: a reason is required", ErrInvalidInput)
	}
	if (in.PostID == nil) == (in.UserID == nil) {
		return nil, fmt.Errorf("%w: report exactly one of a post or a user", ErrInvalidInput)
	}
	if in.PostID != nil {
		if _, err := s.posts.GetByID(ctx, *in.PostID); err != nil {
			return nil, err
		}
	}
	rep := model.Report{
		ReportedBy:  reporterID,
		PostID:      in.PostID,
		UserID:      in.UserID,
		Reason:      in.Reason,
		Description: in.Description,
	}
	if err := s.reports.Create(ctx, &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

// Review transitions a report to the given status and notifies the
// reporter. Only PENDING reports can be reviewed; anything else is
// ErrConflict.
func (s *ReportService) Review(ctx context.Context, reportID uint64, status string) error {
	switch status {
	case model.ReportReviewed, model.ReportResolved, model.ReportDismissed:
	default:
		return fmt.Errorf("%w: invalid report status", ErrInvalidInput)
	}
	var events []*q.NotificationCreatedEvent
	err := runTx(ctx, s.reports.DB(), func(tx *sql.Tx) error {
		events = events[:0]
		rep, err := s.reports.GetByIDTx(ctx, tx, reportID)
		if err != nil {
			return err
		}
		if rep.Status != model.ReportPending {
			return repository.ErrConflict
		}
		if err := s.reports.SetStatusTx(ctx, tx, reportID, status); err != nil {
			return err
		}
		rep.Status = status
		ev, err := s.notifier.reportStatusTx(ctx, tx, rep)
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

// ListOpen returns reports awaiting review, oldest first.
func (s *ReportService) ListOpen(ctx context.Context) ([]model.Report, error) {
	return s.reports.ListOpen(ctx)
}
