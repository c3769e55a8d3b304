package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/ticketly/ticket-booking/internal/model"
)

// SeatLockRepo provides data access to the seat_locks table.  All
// timestamps are stored and compared in UTC.  State transitions out of
// the locked state are guarded at the SQL level: an UPDATE only
// matches rows still in the locked state, so two transactions racing
// to terminate the same lock cannot both succeed.
type SeatLockRepo struct {
    db *sql.DB
}

// NewSeatLockRepo returns a new SeatLockRepo bound to the provided database.
func NewSeatLockRepo(db *sql.DB) *SeatLockRepo { return &SeatLockRepo{db: db} }

const seatLockColumns = `lock_id, user_id, event_id, num_tickets, status,
       expires_at, released_reason, created_at, updated_at`

func scanSeatLock(row interface{ Scan(dest ...any) error }) (*model.SeatLock, error) {
    var l model.SeatLock
    err := row.Scan(&l.ID, &l.UserID, &l.EventID, &l.NumTickets, &l.Status,
        &l.ExpiresAt, &l.ReleasedReason, &l.CreatedAt, &l.UpdatedAt)
    if err != nil {
        return nil, err
    }
    return &l, nil
}

// CreateTx inserts a new lock row within the provided transaction.
// The caller has already decremented the event's available seats in
// the same transaction; the two writes commit or roll back together.
func (r *SeatLockRepo) CreateTx(ctx context.Context, tx *sql.Tx, l *model.SeatLock) error {
    _, err := tx.ExecContext(ctx,
        `INSERT INTO seat_locks (lock_id, user_id, event_id, num_tickets, status, expires_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
        l.ID, l.UserID, l.EventID, l.NumTickets, l.Status,
        l.ExpiresAt.UTC().Format("2006-01-02 15:04:05"),
    )
    return err
}

// GetByID fetches a single lock outside of any transaction.
func (r *SeatLockRepo) GetByID(ctx context.Context, lockID string) (*model.SeatLock, error) {
    l, err := scanSeatLock(r.db.QueryRowContext(ctx,
        `SELECT `+seatLockColumns+` FROM seat_locks WHERE lock_id = ?`, lockID))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrLockNotFound
    }
    return l, err
}

// GetByIDTx fetches a lock inside the provided transaction with a FOR
// UPDATE row lock, pinning its status for the remainder of the
// transaction.
func (r *SeatLockRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, lockID string) (*model.SeatLock, error) {
    l, err := scanSeatLock(tx.QueryRowContext(ctx,
        `SELECT `+seatLockColumns+` FROM seat_locks WHERE lock_id = ? FOR UPDATE`, lockID))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrLockNotFound
    }
    return l, err
}

// MarkTx transitions a lock out of the locked state within the
// provided transaction.  The WHERE clause only matches rows still in
// the locked state; if the lock was already terminated the update
// matches nothing and ErrConflict is returned, guarding against a
// double release or a double consume.  reason may be nil (consume
// records no release reason).
func (r *SeatLockRepo) MarkTx(ctx context.Context, tx *sql.Tx, lockID, status string, reason *string) error {
    res, err := tx.ExecContext(ctx,
        `UPDATE seat_locks
         SET status = ?, released_reason = ?, updated_at = CURRENT_TIMESTAMP
         WHERE lock_id = ? AND status = ?`,
        status, reason, lockID, model.LockLocked,
    )
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrConflict
    }
    return nil
}

// ListExpired returns the IDs of all locks that are still in the
// locked state but whose expiry has passed.  Each returned lock is
// released in its own transaction by the caller so that one bad row
// cannot block reclamation of the others.
func (r *SeatLockRepo) ListExpired(ctx context.Context) ([]string, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT lock_id FROM seat_locks
         WHERE status = ? AND expires_at <= UTC_TIMESTAMP()`,
        model.LockLocked,
    )
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var ids []string
    for rows.Next() {
        var id string
        if err := rows.Scan(&id); err != nil {
            return nil, err
        }
        ids = append(ids, id)
    }
    return ids, rows.Err()
}
