package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/irfanhabeeb-002/foodshare/internal/model"
)

// NotificationRepo provides persistence for notification rows. Rows
// are inserted in bulk inside the transaction of the operation that
// triggered them, so a committed transition is never visible without
// its notifications.
type NotificationRepo struct {
	db *sql.DB
}

// NewNotificationRepo returns a new NotificationRepo bound to the
// given database.
func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

// InsertBatchTx inserts one row per notification in a single
// statement. Passing an empty slice has no effect and returns nil.
func (r *NotificationRepo) InsertBatchTx(ctx context.Context, tx *sql.Tx, ns []model.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	now := time.Now().UTC().Format(dtLayout)
	query := `INSERT INTO notifications (user_id, kind, title, message, ref_id, is_read, created_at) VALUES `
	args := make([]interface{}, 0, len(ns)*7)
	for i, n := range ns {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?, ?)"
		args = append(args, n.UserID, n.Kind, n.Title, n.Message, n.RefID, false, now)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// ListByUser returns the recipient's notifications, newest first.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, kind, title, message, ref_id, is_read, created_at
		   FROM notifications WHERE user_id = ?
		  ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ns := make([]model.Notification, 0)
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Title, &n.Message,
			&n.RefID, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		ns = append(ns, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ns, nil
}

// MarkRead flips is_read for a notification owned by the given user.
// It returns ErrNotFound when the row does not exist and ErrForbidden
// when it belongs to someone else, so the two cases stay
// distinguishable to the caller.
func (r *NotificationRepo) MarkRead(ctx context.Context, notificationID, userID uint64) error {
	var owner uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id FROM notifications WHERE id = ?`, notificationID).Scan(&owner)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return err
	}
	if owner != userID {
		return ErrForbidden
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = ? WHERE id = ?`, true, notificationID)
	return err
}

// CountUnread returns the recipient's unread notification count for
// the badge in the UI header.
func (r *NotificationRepo) CountUnread(ctx context.Context, userID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM notifications WHERE user_id = ? AND is_read = ?`,
		userID, false).Scan(&n)
	return n, err
}
