package sqlite3

import (
	"context"
	"database/sql"
	"fmt"
)

type TxFunc = func(ctx context.Context, tx *sql.Tx) error

// InTx runs fn in a transaction, rolling back on error or panic.
func InTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn TxFunc) error {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("db begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("db transaction error: %v, rollback error: %w", err, rbErr)
		}
		return fmt.Errorf("db transaction error: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("db commit transaction: %w", err)
	}
	return nil
}
