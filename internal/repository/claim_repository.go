package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/irfanhabeeb-002/foodshare/internal/model"
)

// ClaimRepo provides persistence for food claims. The
// UNIQUE(post_id, user_id) index on the table is the final backstop
// for the one-claim-per-user invariant: if two transactions for the
// same pair slip past the existence check, the second insert fails
// and its decrement is rolled back with the transaction.
type ClaimRepo struct {
	db *sql.DB
}

// NewClaimRepo returns a new ClaimRepo bound to the given database.
func NewClaimRepo(db *sql.DB) *ClaimRepo { return &ClaimRepo{db: db} }

// InsertTx creates a claim row within the provided transaction and
// populates the generated ID. ErrDuplicateClaim is returned when the
// unique index rejects the pair.
func (r *ClaimRepo) InsertTx(ctx context.Context, tx *sql.Tx, c *model.Claim) error {
	c.ClaimedAt = time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO food_claims (post_id, user_id, claimed_at) VALUES (?, ?, ?)`,
		c.PostID, c.UserID, c.ClaimedAt.Format(dtLayout))
	if err != nil {
		if isDuplicateErr(err) {
			return ErrDuplicateClaim
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// ExistsTx reports whether the user already holds a claim on the post.
func (r *ClaimRepo) ExistsTx(ctx context.Context, tx *sql.Tx, postID, userID uint64) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM food_claims WHERE post_id = ? AND user_id = ?`,
		postID, userID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteTx removes the user's claim on the post and reports whether a
// row was actually deleted. Used by claim retraction.
func (r *ClaimRepo) DeleteTx(ctx context.Context, tx *sql.Tx, postID, userID uint64) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`DELETE FROM food_claims WHERE post_id = ? AND user_id = ?`,
		postID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountByPost returns the number of claims recorded against a post.
func (r *ClaimRepo) CountByPost(ctx context.Context, postID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM food_claims WHERE post_id = ?`, postID).Scan(&n)
	return n, err
}

// ListByUser returns the user's claims, newest first.
func (r *ClaimRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Claim, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, post_id, user_id, claimed_at FROM food_claims
		  WHERE user_id = ? ORDER BY claimed_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	claims := make([]model.Claim, 0)
	for rows.Next() {
		var c model.Claim
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.ClaimedAt); err != nil {
			return nil, err
		}
		claims = append(claims, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return claims, nil
}

// isDuplicateErr recognizes a unique-constraint violation from either
// supported driver: MySQL reports error 1062, SQLite reports a
// "UNIQUE constraint failed" message.
func isDuplicateErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "1062") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
