package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/irfanhabeeb-002/foodshare/internal/model"
)

// MembershipRepo provides persistence for group membership rows. At
// most one row exists per (group, user); approval upserts so that
// re-approving an already approved pair stays a no-op instead of
// producing a duplicate.
type MembershipRepo struct {
	db *sql.DB
}

// NewMembershipRepo returns a new MembershipRepo bound to the given
// database.
func NewMembershipRepo(db *sql.DB) *MembershipRepo { return &MembershipRepo{db: db} }

const membershipColumns = `id, group_id, user_id, status, role, approved_by,
       decided_at, joined_at`

// InsertTx creates a membership row within the provided transaction.
// Used when seeding the admin at group creation.
func (r *MembershipRepo) InsertTx(ctx context.Context, tx *sql.Tx, m *model.Membership) error {
	now := time.Now().UTC()
	var decidedAt interface{}
	if m.DecidedAt != nil {
		decidedAt = m.DecidedAt.UTC().Format(dtLayout)
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO group_members (group_id, user_id, status, role, approved_by,
		                            decided_at, joined_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.GroupID, m.UserID, m.Status, m.Role, m.ApprovedBy,
		decidedAt, now.Format(dtLayout))
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
	m.ID = uint64(id)
	m.JoinedAt = now
	return nil
}

// GetTx loads the membership row for a (group, user) pair inside a
// transaction, returning ErrNotFound when none exists.
func (r *MembershipRepo) GetTx(ctx context.Context, tx *sql.Tx, groupID, userID uint64) (*model.Membership, error) {
	return scanMembership(tx.QueryRowContext(ctx,
		`SELECT `+membershipColumns+` FROM group_members
		  WHERE group_id = ? AND user_id = ?`, groupID, userID))
}

// Get is GetTx outside a transaction.
func (r *MembershipRepo) Get(ctx context.Context, groupID, userID uint64) (*model.Membership, error) {
	return scanMembership(r.db.QueryRowContext(ctx,
		`SELECT `+membershipColumns+` FROM group_members
		  WHERE group_id = ? AND user_id = ?`, groupID, userID))
}

// UpsertApprovedTx records an approval: it inserts an APPROVED row for
// the pair or, if a row already exists in any status, promotes it to
// APPROVED. Role is preserved for existing rows so an admin row is
// never demoted.
func (r *MembershipRepo) UpsertApprovedTx(ctx context.Context, tx *sql.Tx, groupID, userID, approvedBy uint64) error {
	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`UPDATE group_members
		    SET status = ?, approved_by = ?, decided_at = ?
		  WHERE group_id = ? AND user_id = ?`,
		model.MemberApproved, approvedBy, now.Format(dtLayout), groupID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	m := model.Membership{
		GroupID:    groupID,
		UserID:     userID,
		Status:     model.MemberApproved,
		Role:       model.RoleMember,
		ApprovedBy: &approvedBy,
		DecidedAt:  &now,
	}
	return r.InsertTx(ctx, tx, &m)
}

// DeleteTx removes the membership row for the pair and reports
// whether one existed.
func (r *MembershipRepo) DeleteTx(ctx context.Context, tx *sql.Tx, groupID, userID uint64) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id = ? AND user_id = ?`,
		groupID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// IsApproved reports whether the user holds an APPROVED membership in
// the group.
func (r *MembershipRepo) IsApproved(ctx context.Context, groupID, userID uint64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM group_members
		  WHERE group_id = ? AND user_id = ? AND status = ?`,
		groupID, userID, model.MemberApproved).Scan(&n)
	return n > 0, err
}

// IsApprovedTx is IsApproved inside an existing transaction.
func (r *MembershipRepo) IsApprovedTx(ctx context.Context, tx *sql.Tx, groupID, userID uint64) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM group_members
		  WHERE group_id = ? AND user_id = ? AND status = ?`,
		groupID, userID, model.MemberApproved).Scan(&n)
	return n > 0, err
}

// CountApprovedTx returns the number of approved members, used to
// enforce an optional member limit during approval.
func (r *MembershipRepo) CountApprovedTx(ctx context.Context, tx *sql.Tx, groupID uint64) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM group_members WHERE group_id = ? AND status = ?`,
		groupID, model.MemberApproved).Scan(&n)
	return n, err
}

// ApprovedMemberIDsTx returns the user IDs of all approved members of
// a group, used by the notifier to resolve fan-out recipients. The
// fan-out size is therefore bounded by the group's membership.
func (r *MembershipRepo) ApprovedMemberIDsTx(ctx context.Context, tx *sql.Tx, groupID uint64) ([]uint64, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT user_id FROM group_members WHERE group_id = ? AND status = ?`,
		groupID, model.MemberApproved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make([]uint64, 0)
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// ListByGroup returns all membership rows of a group for the admin's
// member management view.
func (r *MembershipRepo) ListByGroup(ctx context.Context, groupID uint64) ([]model.Membership, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+membershipColumns+` FROM group_members
		  WHERE group_id = ? ORDER BY joined_at ASC, id ASC`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	members := make([]model.Membership, 0)
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}

func scanMembership(s rowScanner) (*model.Membership, error) {
	var (
		m          model.Membership
		approvedBy sql.NullInt64
		decidedAt  sql.NullTime
	)
	err := s.Scan(&m.ID, &m.GroupID, &m.UserID, &m.Status, &m.Role,
		&approvedBy, &decidedAt, &m.JoinedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if approvedBy.Valid {
		v := uint64(approvedBy.Int64)
		m.ApprovedBy = &v
	}
	if decidedAt.Valid {
		t := decidedAt.Time
		m.DecidedAt = &t
	}
	return &m, nil
}
