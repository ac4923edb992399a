package sqlutil

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Run executes fn inside a *sql.Tx bound to a fresh set of queries.
// If fn returns an error the tx rolls back, else it commits.
func Run[Q any](
	ctx context.Context,
	db *sql.DB,
	newQueries func(*sql.Tx) *Q,
	fn func(q *Q) error,
) error {
	_, err := Do(ctx, db, newQueries, func(q *Q) (struct{}, error) {
		return struct{}{}, fn(q)
	})
	return err
}

// Do is Run for callbacks that produce a value. The value is only returned
// once the commit succeeded.
func Do[Q, R any](
	ctx context.Context,
	db *sql.DB,
	newQueries func(*sql.Tx) *Q,
	fn func(q *Q) (R, error),
) (R, error) {
	var zero R

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return zero, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	out, err := fn(newQueries(tx))
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			log.Warn().Err(rbErr).Msg("rollback failed")
		}
		return zero, err
	}
	if err := tx.Commit(); err != nil {
		return zero, fmt.Errorf("commit tx: %w", err)
	}
	return out, nil
}
