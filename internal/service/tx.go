// Package service implements the coordination engines: atomic claim
// reservation, the membership join workflow, notification fan-out and
// proximity search. Services own the transaction boundaries; the
// repositories they drive never begin or commit transactions
// themselves.
package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/irfanhabeeb-002/foodshare/internal/repository"
)

// ErrInvalidInput marks rejections of caller-supplied data. Handlers
// translate it to a 400 with the wrapped message.
var ErrInvalidInput = errors.New("invalid input")

// txAttempts bounds the automatic retry on transient store
// contention. Anything still failing after this many tries surfaces
// as ErrConflict to the caller, which must re-query state rather than
// retry blindly.
const txAttempts = 3

// runTx executes fn inside a transaction, committing on nil error and
// rolling back otherwise. Serialization failures (MySQL deadlock,
// SQLite busy) are retried a bounded number of times; every other
// error is returned as-is on the first attempt.
func runTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	var err error
	for i := 0; i < txAttempts; i++ {
		err = runTxOnce(ctx, db, fn)
		if err == nil || !isRetryableTxErr(err) {
			return err
		}
	}
	return repository.ErrConflict
}

func runTxOnce(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// isRetryableTxErr recognizes per-key contention the store resolves by
// aborting one participant: MySQL error 1213 (deadlock) and SQLite's
// busy/locked states.
func isRetryableTxErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "1213") ||
		strings.Contains(msg, "Deadlock found") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}
