package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/irfanhabeeb-002/foodshare/internal/model"
)

// GroupRepo provides persistence for groups. Group creation and
// deletion are transactional because they touch membership rows as
// well: the admin's membership is seeded together with the group, and
// deletion cascades to memberships and join requests.
type GroupRepo struct {
	db *sql.DB
}

// NewGroupRepo returns a new GroupRepo bound to the given database.
func NewGroupRepo(db *sql.DB) *GroupRepo { return &GroupRepo{db: db} }

// DB exposes the underlying handle for transaction scoping.
func (r *GroupRepo) DB() *sql.DB { return r.db }

const groupColumns = `id, name, description, admin_id, visibility, member_limit,
       created_at, updated_at`

// CreateTx inserts a group row within the provided transaction and
// populates the generated ID. The caller is responsible for inserting
// the admin's membership row in the same transaction so there is no
// window in which the group exists without its admin member.
func (r *GroupRepo) CreateTx(ctx context.Context, tx *sql.Tx, g *model.Group) error {
	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO community_groups (name, description, admin_id, visibility, member_limit,
		                     created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.Name, g.Description, g.AdminID, g.Visibility, g.MemberLimit,
		now.Format(dtLayout), now.Format(dtLayout))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	g.ID = uint64(id)
	g.CreatedAt = now
	g.UpdatedAt = now
	return nil
}

// GetByID loads a single group, returning ErrNotFound when absent.
func (r *GroupRepo) GetByID(ctx context.Context, id uint64) (*model.Group, error) {
	return scanGroup(r.db.QueryRowContext(ctx,
		`SELECT `+groupColumns+` FROM community_groups WHERE id = ?`, id))
}

// GetByIDTx is GetByID inside an existing transaction.
func (r *GroupRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Group, error) {
	return scanGroup(tx.QueryRowContext(ctx,
		`SELECT `+groupColumns+` FROM community_groups WHERE id = ?`, id))
}

// GetByIDForUpdateTx loads the group after taking an exclusive lock on
// its row, making the group the serialization point for membership
// workflow transitions: two transactions mutating the same group's
// requests or members cannot interleave between their reads and
// writes. The lock is taken with a self-assignment UPDATE rather than
// SELECT ... FOR UPDATE because the latter is not portable SQL.
// Returns ErrNotFound when the group does not exist.
func (r *GroupRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Group, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE community_groups SET updated_at = updated_at WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return r.GetByIDTx(ctx, tx, id)
}

// List returns all groups, newest first. Private groups are listed
// too: visibility controls discoverability of content, not of the
// group's existence, matching the join-request flow where a user must
// be able to find a group to ask to join it.
func (r *GroupRepo) List(ctx context.Context) ([]model.Group, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+groupColumns+` FROM community_groups ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	groups := make([]model.Group, 0)
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return groups, nil
}

// DeleteTx removes the group together with its memberships and join
// requests. Posts restricted to the group are left in place but
// deactivated by the service layer.
func (r *GroupRepo) DeleteTx(ctx context.Context, tx *sql.Tx, groupID uint64) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id = ?`, groupID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM group_join_requests WHERE group_id = ?`, groupID); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `DELETE FROM community_groups WHERE id = ?`, groupID)
	return err
}

func scanGroup(s rowScanner) (*model.Group, error) {
	var (
		g     model.Group
		limit sql.NullInt64
	)
	err := s.Scan(&g.ID, &g.Name, &g.Description, &g.AdminID, &g.Visibility,
		&limit, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if limit.Valid {
		v := uint32(limit.Int64)
		g.MemberLimit = &v
	}
	return &g, nil
}
