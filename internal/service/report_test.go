package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfanhabeeb-002/foodshare/internal/model"
	"github.com/irfanhabeeb-002/foodshare/internal/repository"
)

// TestReport_FileAndReview walks a report from filing to resolution
// with the reporter notified of the outcome.
func TestReport_FileAndReview(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.newUser(t)
	reporter := env.newUser(t)
	postID := env.newPost(t, owner, 2)

	report, err := env.reports.File(ctx, reporter, ReportInput{
		PostID: &postID,
		Reason: "spam",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ReportPending, report.Status)

	open, err := env.reports.ListOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, report.ID, open[0].ID)

	require.NoError(t, env.reports.Review(ctx, report.ID, model.ReportResolved))

	open, err = env.reports.ListOpen(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)

	notes, err := env.notifier.ListNotifications(ctx, reporter)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, model.NotifyReportStatus, notes[0].Kind)
}

// TestReport_Validation rejects missing reasons and ambiguous targets.
func TestReport_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	reporter := env.newUser(t)
	target := env.newUser(t)
	postID := env.newPost(t, env.newUser(t), 1)

	_, err := env.reports.File(ctx, reporter, ReportInput{PostID: &postID})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = env.reports.File(ctx, reporter, ReportInput{Reason: "spam"})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = env.reports.File(ctx, reporter, ReportInput{
		PostID: &postID, UserID: &target, Reason: "spam",
	})
	require.ErrorIs(t, err, ErrInvalidInput)
}

// TestReport_ReviewGuards rejects bad statuses and double review.
func TestReport_ReviewGuards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	reporter := env.newUser(t)
	target := env.newUser(t)

	report, err := env.reports.File(ctx, reporter, ReportInput{
		UserID: &target, Reason: "abuse",
	})
	require.NoError(t, err)

	err = env.reports.Review(ctx, report.ID, "SHREDDED")
	require.ErrorIs(t, err, ErrInvalidInput)

	err = env.reports.Review(ctx, 9999, model.ReportDismissed)
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, env.reports.Review(ctx, report.ID, model.ReportDismissed))
	err = env.reports.Review(ctx, report.ID, model.ReportResolved)
	require.ErrorIs(t, err, repository.ErrConflict)
}

// TestNotifications_ReadFlow checks recipient gating on MarkRead and
// the unread counter.
func TestNotifications_ReadFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.newUser(t)
	claimer := env.newUser(t)
	other := env.newUser(t)
	postID := env.newPost(t, owner, 2)

	_, err := env.reservations.Claim(ctx, postID, claimer)
	require.NoError(t, err)

	n, err := env.notifier.UnreadCount(ctx, claimer)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	notes, err := env.notifier.ListNotifications(ctx, claimer)
	require.NoError(t, err)
	require.Len(t, notes, 1)

	// Only the recipient may mark it read.
	err = env.notifier.MarkRead(ctx, notes[0].ID, other)
	require.ErrorIs(t, err, repository.ErrForbidden)
	err = env.notifier.MarkRead(ctx, 9999, claimer)
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, env.notifier.MarkRead(ctx, notes[0].ID, claimer))
	n, err = env.notifier.UnreadCount(ctx, claimer)
	require.NoError(t, err)
	assert.Zero(t, n)
}
