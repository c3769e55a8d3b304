package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"

    "github.com/ticketly/ticket-booking/internal/model"
)

// BookingRepo provides data access to the bookings table.  Seat
// numbers are stored as a JSON array in a TEXT column and decoded back
// into an ordered slice on every read.
type BookingRepo struct {
    db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the provided database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// BookingDetail is a booking row joined with display fields of its
// event, returned by the listing queries.
type BookingDetail struct {
    model.Booking
    EventName string `json:"event_name"`
    Venue     string `json:"venue"`
    EventDate string `json:"event_date"`
}

const bookingColumns = `booking_id, user_id, event_id, num_tickets, total_amount,
       booking_status, payment_status, seat_numbers, lock_id, booking_date`

func scanBooking(row interface{ Scan(dest ...any) error }, extra ...any) (*model.Booking, error) {
    var b model.Booking
    var seats sql.NullString
    dest := []any{&b.ID, &b.UserID, &b.EventID, &b.NumTickets, &b.TotalAmount,
        &b.BookingStatus, &b.PaymentStatus, &seats, &b.LockID, &b.BookingDate}
    dest = append(dest, extra...)
    if err := row.Scan(dest...); err != nil {
        return nil, err
    }
    if seats.Valid && seats.String != "" {
        if err := json.Unmarshal([]byte(seats.String), &b.SeatNumbers); err != nil {
            return nil, err
        }
    }
    return &b, nil
}

// CreateTx inserts a booking within the provided transaction.  The
// caller marks the consumed lock in the same transaction so that the
// two writes commit or roll back together.  The generated ID is
// written back into the struct.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
    seats, err := json.Marshal(b.SeatNumbers)
    if err != nil {
        return err
    }
    res, err := tx.ExecContext(ctx,
        `INSERT INTO bookings (user_id, event_id, num_tickets, total_amount,
                booking_status, payment_status, seat_numbers, lock_id)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
        b.UserID, b.EventID, b.NumTickets, b.TotalAmount,
        b.BookingStatus, b.PaymentStatus, string(seats), b.LockID,
    )
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    b.ID = uint64(id)
    return nil
}

// GetByID fetches a single booking outside of any transaction.
func (r *BookingRepo) GetByID(ctx context.Context, bookingID uint64) (*model.Booking, error) {
    b, err := scanBooking(r.db.QueryRowContext(ctx,
        `SELECT `+bookingColumns+` FROM bookings WHERE booking_id = ?`, bookingID))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrBookingNotFound
    }
    return b, err
}

// GetByIDTx fetches a booking inside the provided transaction with a
// FOR UPDATE row lock so that a concurrent cancellation cannot slip in
// between the status check and the update.
func (r *BookingRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, bookingID uint64) (*model.Booking, error) {
    b, err := scanBooking(tx.QueryRowContext(ctx,
        `SELECT `+bookingColumns+` FROM bookings WHERE booking_id = ? FOR UPDATE`, bookingID))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrBookingNotFound
    }
    return b, err
}

// CancelTx marks a confirmed booking cancelled and refunded within the
// provided transaction.  The WHERE clause only matches confirmed rows;
// a lost race returns ErrConflict instead of refunding twice.
func (r *BookingRepo) CancelTx(ctx context.Context, tx *sql.Tx, bookingID uint64) error {
    res, err := tx.ExecContext(ctx,
        `UPDATE bookings
         SET booking_status = ?, payment_status = ?
         WHERE booking_id = ? AND booking_status = ?`,
        model.BookingCancelled, model.PaymentRefunded, bookingID, model.BookingConfirmed,
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

// ListConfirmedByEventTx returns all confirmed bookings for an event
// inside the provided transaction.  Used by the forced-refund sweep
// when an event is deactivated or deleted.
func (r *BookingRepo) ListConfirmedByEventTx(ctx context.Context, tx *sql.Tx, eventID uint64) ([]model.Booking, error) {
    rows, err := tx.QueryContext(ctx,
        `SELECT `+bookingColumns+` FROM bookings
         WHERE event_id = ? AND booking_status = ? FOR UPDATE`,
        eventID, model.BookingConfirmed,
    )
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var bookings []model.Booking
    for rows.Next() {
        b, err := scanBooking(rows)
        if err != nil {
            return nil, err
        }
        bookings = append(bookings, *b)
    }
    return bookings, rows.Err()
}

// CancelAllForEventTx cancels and refunds every confirmed booking of
// an event in one statement, within the provided transaction.
func (r *BookingRepo) CancelAllForEventTx(ctx context.Context, tx *sql.Tx, eventID uint64) error {
    _, err := tx.ExecContext(ctx,
        `UPDATE bookings
         SET booking_status = ?, payment_status = ?
         WHERE event_id = ? AND booking_status = ?`,
        model.BookingCancelled, model.PaymentRefunded, eventID, model.BookingConfirmed,
    )
    return err
}

// ListByUser returns the bookings of one user, newest first, joined
// with display fields of the booked event.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]BookingDetail, error) {
    return r.list(ctx,
        `SELECT b.booking_id, b.user_id, b.event_id, b.num_tickets, b.total_amount,
                b.booking_status, b.payment_status, b.seat_numbers, b.lock_id, b.booking_date,
                e.event_name, e.venue, e.event_date
         FROM bookings b
         JOIN events e ON e.event_id = b.event_id
         WHERE b.user_id = ?
         ORDER BY b.booking_date DESC`, userID)
}

// ListAll returns every booking in the system, newest first.  Callers
// must restrict this to admin users.
func (r *BookingRepo) ListAll(ctx context.Context) ([]BookingDetail, error) {
    return r.list(ctx,
        `SELECT b.booking_id, b.user_id, b.event_id, b.num_tickets, b.total_amount,
                b.booking_status, b.payment_status, b.seat_numbers, b.lock_id, b.booking_date,
                e.event_name, e.venue, e.event_date
         FROM bookings b
         JOIN events e ON e.event_id = b.event_id
         ORDER BY b.booking_date DESC`)
}

func (r *BookingRepo) list(ctx context.Context, query string, args ...any) ([]BookingDetail, error) {
    rows, err := r.db.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var details []BookingDetail
    for rows.Next() {
        var d BookingDetail
        b, err := scanBooking(rows, &d.EventName, &d.Venue, &d.EventDate)
        if err != nil {
            return nil, err
        }
        d.Booking = *b
        details = append(details, d)
    }
    return details, rows.Err()
}
