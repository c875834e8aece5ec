package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/irfanhabeeb-002/foodshare/internal/model"
)

// JoinRequestRepo provides persistence for group join requests. The
// one-pending-per-pair invariant is enforced by the workflow engine,
// which locks the group row before checking and inserting, with a
// partial unique index on (group_id, user_id) over PENDING rows as
// the backstop. Resolved requests are immutable history.
type JoinRequestRepo struct {
	db *sql.DB
}

// NewJoinRequestRepo returns a new JoinRequestRepo bound to the given
// database.
func NewJoinRequestRepo(db *sql.DB) *JoinRequestRepo { return &JoinRequestRepo{db: db} }

const joinRequestColumns = `id, group_id, user_id, message, status, created_at, updated_at`

// CreateTx inserts a new PENDING join request within the provided
// transaction and populates the generated ID. ErrConflict when a
// pending request already exists for the pair; the unique index over
// PENDING rows rejects the insert.
func (r *JoinRequestRepo) CreateTx(ctx context.Context, tx *sql.Tx, jr *model.JoinRequest) error {
	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO group_join_requests (group_id, user_id, message, status,
		                                  created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		jr.GroupID, jr.UserID, jr.Message, model.RequestPending,
		now.Format(dtLayout), now.Format(dtLayout))
	if err != nil {
		if isDuplicateErr(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	jr.ID = uint64(id)
	jr.Status = model.RequestPending
	jr.CreatedAt = now
	jr.UpdatedAt = now
	return nil
}

// GetPendingTx loads the pending request for a (group, user) pair
// inside a transaction, returning ErrNotFound when none exists.
func (r *JoinRequestRepo) GetPendingTx(ctx context.Context, tx *sql.Tx, groupID, userID uint64) (*model.JoinRequest, error) {
	return scanJoinRequest(tx.QueryRowContext(ctx,
		`SELECT `+joinRequestColumns+` FROM group_join_requests
		  WHERE group_id = ? AND user_id = ? AND status = ?
		  ORDER BY id DESC LIMIT 1`,
		groupID, userID, model.RequestPending))
}

// HasPendingTx reports whether a pending request exists for the pair.
func (r *JoinRequestRepo) HasPendingTx(ctx context.Context, tx *sql.Tx, groupID, userID uint64) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM group_join_requests
		  WHERE group_id = ? AND user_id = ? AND status = ?`,
		groupID, userID, model.RequestPending).Scan(&n)
	return n > 0, err
}

// ResolveTx transitions a request out of PENDING exactly once. It
// affects only the identified row while it is still pending, so a
// concurrent second resolution finds zero affected rows.
func (r *JoinRequestRepo) ResolveTx(ctx context.Context, tx *sql.Tx, requestID uint64, status string) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE group_join_requests SET status = ?, updated_at = ?
		  WHERE id = ? AND status = ?`,
		status, time.Now().UTC().Format(dtLayout), requestID, model.RequestPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListPendingByGroup returns the pending requests awaiting the
// admin's decision, oldest first.
func (r *JoinRequestRepo) ListPendingByGroup(ctx context.Context, groupID uint64) ([]model.JoinRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+joinRequestColumns+` FROM group_join_requests
		  WHERE group_id = ? AND status = ? ORDER BY created_at ASC, id ASC`,
		groupID, model.RequestPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	reqs := make([]model.JoinRequest, 0)
	for rows.Next() {
		jr, err := scanJoinRequest(rows)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, *jr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reqs, nil
}

// ListByUser returns the user's own requests across groups, newest
// first, so the UI can show request history and statuses.
func (r *JoinRequestRepo) ListByUser(ctx context.Context, userID uint64) ([]model.JoinRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+joinRequestColumns+` FROM group_join_requests
		  WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	reqs := make([]model.JoinRequest, 0)
	for rows.Next() {
		jr, err := scanJoinRequest(rows)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, *jr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reqs, nil
}

func scanJoinRequest(s rowScanner) (*model.JoinRequest, error) {
	var jr model.JoinRequest
	err := s.Scan(&jr.ID, &jr.GroupID, &jr.UserID, &jr.Message, &jr.Status,
		&jr.CreatedAt, &jr.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &jr, nil
}
