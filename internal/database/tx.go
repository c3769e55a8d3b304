package database

import (
    "context"
    "database/sql"
)

// Runner executes functions inside a single database transaction.  It
// is the transaction boundary every read-then-write seat operation
// goes through: the availability check and the seat-count write of one
// logical operation always share one transaction, never two round
// trips.  The services depend on the interface so tests can substitute
// an in-memory implementation.
type Runner interface {
    RunTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// TxRunner is the production Runner backed by *sql.DB.
type TxRunner struct {
    db *sql.DB
}

// NewTxRunner returns a Runner executing against the given database.
func NewTxRunner(db *sql.DB) *TxRunner { return &TxRunner{db: db} }

// RunTx begins a transaction, runs fn, and commits when fn returns
// nil.  Any error (from fn or from the commit) rolls the transaction
// back so partial writes are never observable.
func (r *TxRunner) RunTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    if err := fn(tx); err != nil {
        _ = tx.Rollback()
        return err
    }
    return tx.Commit()
}
