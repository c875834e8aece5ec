package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/irfanhabeeb-002/foodshare/internal/model"
)

// dtLayout is the DATETIME format used for every timestamp bound as a
// query argument. Timestamps are always written from Go in UTC rather
// than relying on database time functions, which keeps the SQL portable
// between the production MySQL server and the SQLite database used in
// tests.
const dtLayout = "2006-01-02 15:04:05"

// PostRepo provides persistence for food posts. Mutations of the
// remaining portion count go exclusively through DecrementTx and
// RestoreTx so that the count can never be driven below zero or above
// the original total.
type PostRepo struct {
	db *sql.DB
}

// NewPostRepo returns a new PostRepo bound to the given database.
func NewPostRepo(db *sql.DB) *PostRepo { return &PostRepo{db: db} }

// DB exposes the underlying handle so services can open transactions
// spanning multiple repositories.
func (r *PostRepo) DB() *sql.DB { return r.db }

const postColumns = `id, title, description, place_name, latitude, longitude,
       total_count, current_count, posted_by, group_id, available_until,
       is_active, created_at, updated_at`

// CreateTx inserts a new food post within the scope of an existing
// transaction and populates the generated ID on the provided model.
// CurrentCount starts equal to TotalCount; the caller is expected to
// have validated TotalCount > 0 and the expiry window.
func (r *PostRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.FoodPost) error {
	now := time.Now().UTC()
	const q = `INSERT INTO food_posts
	           (title, description, place_name, latitude, longitude,
	            total_count, current_count, posted_by, group_id,
	            available_until, is_active, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		p.Title, p.Description, p.PlaceName, p.Latitude, p.Longitude,
		p.TotalCount, p.TotalCount, p.PostedBy, p.GroupID,
		p.AvailableUntil.UTC().Format(dtLayout), p.IsActive,
		now.Format(dtLayout), now.Format(dtLayout),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	p.CurrentCount = p.TotalCount
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

// GetByID loads a single post. It returns ErrNotFound when no row
// exists.
func (r *PostRepo) GetByID(ctx context.Context, id uint64) (*model.FoodPost, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM food_posts WHERE id = ?`, id)
	return scanPost(row)
}

// GetByIDTx is GetByID inside an existing transaction. Under MySQL the
// read participates in the transaction's snapshot; the authoritative
// serialization point for claims is the conditional UPDATE in
// DecrementTx, not this read.
func (r *PostRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.FoodPost, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM food_posts WHERE id = ?`, id)
	return scanPost(row)
}

// DecrementTx atomically consumes one portion. The WHERE guard on
// current_count makes the check-and-decrement a single statement: two
// racing claimants for the last portion both execute it, but the row
// lock serializes them and exactly one sees an affected row. It
// returns false when the post was already exhausted.
func (r *PostRepo) DecrementTx(ctx context.Context, tx *sql.Tx, postID uint64) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE food_posts
		    SET current_count = current_count - 1, updated_at = ?
		  WHERE id = ? AND current_count > 0`,
		time.Now().UTC().Format(dtLayout), postID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RestoreTx returns one portion after a claim retraction. The guard
// against total_count keeps the count from exceeding the original
// capacity even if called twice.
func (r *PostRepo) RestoreTx(ctx context.Context, tx *sql.Tx, postID uint64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE food_posts
		    SET current_count = current_count + 1, updated_at = ?
		  WHERE id = ? AND current_count < total_count`,
		time.Now().UTC().Format(dtLayout), postID)
	return err
}

// SetActiveTx flips the is_active flag. Deactivation is a soft
// terminal state; posts are never hard-deleted while claims reference
// them.
func (r *PostRepo) SetActiveTx(ctx context.Context, tx *sql.Tx, postID uint64, active bool) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE food_posts SET is_active = ?, updated_at = ? WHERE id = ?`,
		active, time.Now().UTC().Format(dtLayout), postID)
	return err
}

// ListClaimable returns the posts the given user could claim right
// now: active, not expired, at least one portion left, and either
// public or restricted to a group in which the user holds an approved
// membership. Ordered newest first. Exhausted posts drop out of this
// listing the moment their count reaches zero.
func (r *PostRepo) ListClaimable(ctx context.Context, userID uint64, now time.Time) ([]model.FoodPost, error) {
	const q = `SELECT ` + postColumns + `
	             FROM food_posts
	            WHERE is_active = ? AND available_until > ? AND current_count > 0
	              AND (group_id IS NULL OR group_id IN (
	                    SELECT group_id FROM group_members
	                     WHERE user_id = ? AND status = ?))
	            ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q,
		true, now.UTC().Format(dtLayout), userID, model.MemberApproved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPosts(rows)
}

// ListLocated returns the claimable-and-visible posts that carry a
// coordinate. The proximity index applies the distance filter and
// ordering on top of this set.
func (r *PostRepo) ListLocated(ctx context.Context, userID uint64, now time.Time) ([]model.FoodPost, error) {
	const q = `SELECT ` + postColumns + `
	             FROM food_posts
	            WHERE is_active = ? AND available_until > ? AND current_count > 0
	              AND latitude IS NOT NULL AND longitude IS NOT NULL
	              AND (group_id IS NULL OR group_id IN (
	                    SELECT group_id FROM group_members
	                     WHERE user_id = ? AND status = ?))`
	rows, err := r.db.QueryContext(ctx, q,
		true, now.UTC().Format(dtLayout), userID, model.MemberApproved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPosts(rows)
}

// ListByOwner returns every post created by the given user, including
// exhausted and deactivated ones, newest first.
func (r *PostRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.FoodPost, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+postColumns+` FROM food_posts WHERE posted_by = ?
		  ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPosts(rows)
}

// rowScanner abstracts *sql.Row and *sql.Rows for the scan helpers.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPost(s rowScanner) (*model.FoodPost, error) {
	var (
		p       model.FoodPost
		lat     sql.NullFloat64
		lng     sql.NullFloat64
		groupID sql.NullInt64
	)
	err := s.Scan(
		&p.ID, &p.Title, &p.Description, &p.PlaceName, &lat, &lng,
		&p.TotalCount, &p.CurrentCount, &p.PostedBy, &groupID,
		&p.AvailableUntil, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if lat.Valid {
		v := lat.Float64
		p.Latitude = &v
	}
	if lng.Valid {
		v := lng.Float64
		p.Longitude = &v
	}
	if groupID.Valid {
		g := uint64(groupID.Int64)
		p.GroupID = &g
	}
	return &p, nil
}

func scanPosts(rows *sql.Rows) ([]model.FoodPost, error) {
	posts := make([]model.FoodPost, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}
