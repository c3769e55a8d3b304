package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/ticketly/ticket-booking/internal/model"
)

// eventColumns is the shared column list for scanning event rows.
const eventColumns = `event_id, event_name, event_type, venue, event_date, event_time,
       total_seats, available_seats, price_per_ticket, description, created_by,
       status, banner_url, created_at, updated_at, deleted_at`

// EventRepo provides data access to the events table.  Seat counts and
// the derived sold_out status are only ever changed through
// AdjustAvailableSeatsTx so that every mutation of the shared
// available_seats/status pair goes through one guarded statement.
type EventRepo struct {
    db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the provided database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

func scanEvent(row interface{ Scan(dest ...any) error }) (*model.Event, error) {
    var e model.Event
    err := row.Scan(&e.ID, &e.Name, &e.EventType, &e.Venue, &e.EventDate, &e.EventTime,
        &e.TotalSeats, &e.AvailableSeats, &e.PricePerTicket, &e.Description, &e.CreatedBy,
        &e.Status, &e.BannerURL, &e.CreatedAt, &e.UpdatedAt, &e.DeletedAt)
    if err != nil {
        return nil, err
    }
    return &e, nil
}

// Create inserts a new event.  available_seats starts equal to
// total_seats.  The generated ID is written back into the struct.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO events (event_name, event_type, venue, event_date, event_time,
                total_seats, available_seats, price_per_ticket, description, created_by,
                status, banner_url)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
        e.Name, e.EventType, e.Venue, e.EventDate, e.EventTime,
        e.TotalSeats, e.TotalSeats, e.PricePerTicket, e.Description, e.CreatedBy,
        e.Status, e.BannerURL,
    )
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    e.ID = uint64(id)
    e.AvailableSeats = e.TotalSeats
    return nil
}

// GetByID fetches a single event outside of any transaction.
func (r *EventRepo) GetByID(ctx context.Context, eventID uint64) (*model.Event, error) {
    e, err := scanEvent(r.db.QueryRowContext(ctx,
        `SELECT `+eventColumns+` FROM events WHERE event_id = ?`, eventID))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrEventNotFound
    }
    return e, err
}

// GetByIDTx fetches an event inside the provided transaction with a
// FOR UPDATE row lock.  Every operation that reads seat counts before
// writing them must go through this method so that concurrent
// decrements serialize on the event row instead of interleaving.
func (r *EventRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, eventID uint64) (*model.Event, error) {
    e, err := scanEvent(tx.QueryRowContext(ctx,
        `SELECT `+eventColumns+` FROM events WHERE event_id = ? FOR UPDATE`, eventID))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrEventNotFound
    }
    return e, err
}

// List returns events filtered by status.  An empty status defaults to
// active; "all" returns everything except soft-deleted events.
func (r *EventRepo) List(ctx context.Context, status string) ([]model.Event, error) {
    q := `SELECT ` + eventColumns + ` FROM events WHERE status != ?`
    args := []any{model.EventDeleted}
    if status == "" {
        status = model.EventActive
    }
    if status != "all" {
        q += ` AND status = ?`
        args = append(args, status)
    }
    q += ` ORDER BY event_date ASC`

    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var events []model.Event
    for rows.Next() {
        e, err := scanEvent(rows)
        if err != nil {
            return nil, err
        }
        events = append(events, *e)
    }
    return events, rows.Err()
}

// AdjustAvailableSeatsTx moves available_seats by delta (negative for
// a lock decrement, positive for a release or refund) and toggles the
// derived status in the same statement: reaching zero flips an active
// event to sold_out, and climbing back above zero flips sold_out back
// to active.  Inactive and deleted statuses are never overridden.
func (r *EventRepo) AdjustAvailableSeatsTx(ctx context.Context, tx *sql.Tx, eventID uint64, delta int) error {
    _, err := tx.ExecContext(ctx,
        `UPDATE events
         SET available_seats = available_seats + ?,
             status = CASE
               WHEN available_seats + ? <= 0 AND status = ? THEN ?
               WHEN available_seats + ? > 0 AND status = ? THEN ?
               ELSE status
             END,
             updated_at = CURRENT_TIMESTAMP
         WHERE event_id = ?`,
        delta,
        delta, model.EventActive, model.EventSoldOut,
        delta, model.EventSoldOut, model.EventActive,
        eventID,
    )
    return err
}

// ResizeTotalSeatsTx changes total_seats inside the provided
// transaction and recomputes available_seats so that seats already
// locked or sold stay accounted for, clamping at zero.  MySQL applies
// SET clauses left to right, so available_seats is derived from the
// old counts and the status CASE already sees the new one.  Callers
// hold the row lock via GetByIDTx, which also establishes existence.
func (r *EventRepo) ResizeTotalSeatsTx(ctx context.Context, tx *sql.Tx, eventID uint64, newTotal int) error {
    _, err := tx.ExecContext(ctx,
        `UPDATE events
         SET available_seats = GREATEST(? - (total_seats - available_seats), 0),
             total_seats = ?,
             status = CASE
               WHEN available_seats <= 0 AND status = ? THEN ?
               WHEN available_seats > 0 AND status = ? THEN ?
               ELSE status
             END,
             updated_at = CURRENT_TIMESTAMP
         WHERE event_id = ?`,
        newTotal, newTotal,
        model.EventActive, model.EventSoldOut,
        model.EventSoldOut, model.EventActive,
        eventID,
    )
    return err
}

// UpdateStatusTx sets the event status inside the provided
// transaction.  A transition to deleted also stamps deleted_at.
func (r *EventRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, eventID uint64, status string) error {
    res, err := tx.ExecContext(ctx,
        `UPDATE events
         SET status = ?, updated_at = CURRENT_TIMESTAMP,
             deleted_at = CASE WHEN ? = 'deleted' THEN CURRENT_TIMESTAMP ELSE deleted_at END
         WHERE event_id = ?`,
        status, status, eventID,
    )
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrEventNotFound
    }
    return nil
}

// Update rewrites the mutable display fields of an event.  Seat
// counts and status are absent on purpose: the available_seats/status
// pair changes only through AdjustAvailableSeatsTx, ResizeTotalSeatsTx
// and UpdateStatusTx, which derive it under the row lock, so a plain
// update can never write back a stale count.
func (r *EventRepo) Update(ctx context.Context, e *model.Event) error {
    res, err := r.db.ExecContext(ctx,
        `UPDATE events
         SET event_name = ?, event_type = ?, venue = ?, event_date = ?, event_time = ?,
             price_per_ticket = ?, description = ?, banner_url = ?,
             updated_at = CURRENT_TIMESTAMP
         WHERE event_id = ?`,
        e.Name, e.EventType, e.Venue, e.EventDate, e.EventTime,
        e.PricePerTicket, e.Description, e.BannerURL, e.ID,
    )
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrEventNotFound
    }
    return nil
}
