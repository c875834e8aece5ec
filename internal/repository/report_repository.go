package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/irfanhabeeb-002/foodshare/internal/model"
)

// ReportRepo provides persistence for community reports against
// posts or users. Reports are reviewed by moderators; state changes
// flow back to the reporter through the notifier.
type ReportRepo struct {
	db *sql.DB
}

// NewReportRepo returns a new ReportRepo bound to the given database.
func NewReportRepo(db *sql.DB) *ReportRepo { return &ReportRepo{db: db} }

// DB exposes the underlying handle for transaction scoping.
func (r *ReportRepo) DB() *sql.DB { return r.db }

const reportColumns = `id, reported_by, post_id, user_id, reason, description,
       status, created_at, updated_at`

// Create inserts a new PENDING report and populates the generated ID.
func (r *ReportRepo) Create(ctx context.Context, rep *model.Report) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO reports (reported_by, post_id, user_id, reason, description,
		                      status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rep.ReportedBy, rep.PostID, rep.UserID, rep.Reason, rep.Description,
		model.ReportPending, now.Format(dtLayout), now.Format(dtLayout))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rep.ID = uint64(id)
	rep.Status = model.ReportPending
	rep.CreatedAt = now
	rep.UpdatedAt = now
	return nil
}

// GetByIDTx loads a report inside a transaction, returning
// ErrNotFound when absent.
func (r *ReportRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Report, error) {
	var (
		rep    model.Report
		postID sql.NullInt64
		userID sql.NullInt64
	)
	err := tx.QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE id = ?`, id).Scan(
		&rep.ID, &rep.ReportedBy, &postID, &userID, &rep.Reason,
		&rep.Description, &rep.Status, &rep.CreatedAt, &rep.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if postID.Valid {
		v := uint64(postID.Int64)
		rep.PostID = &v
	}
	if userID.Valid {
		v := uint64(userID.Int64)
		rep.UserID = &v
	}
	return &rep, nil
}

// SetStatusTx updates a report's status inside a transaction.
func (r *ReportRepo) SetStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE reports SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC().Format(dtLayout), id)
	return err
}

// ListOpen returns reports still awaiting review, oldest first.
func (r *ReportRepo) ListOpen(ctx context.Context) ([]model.Report, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE status = ?
		  ORDER BY created_at ASC, id ASC`, model.ReportPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	reports := make([]model.Report, 0)
	for rows.Next() {
		var (
			rep    model.Report
			postID sql.NullInt64
			userID sql.NullInt64
		)
		if err := rows.Scan(&rep.ID, &rep.ReportedBy, &postID, &userID,
			&rep.Reason, &rep.Description, &rep.Status,
			&rep.CreatedAt, &rep.UpdatedAt); err != nil {
			return nil, err
		}
		if postID.Valid {
			v := uint64(postID.Int64)
			rep.PostID = &v
		}
		if userID.Valid {
			v := uint64(userID.Int64)
			rep.UserID = &v
		}
		reports = append(reports, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reports, nil
}
