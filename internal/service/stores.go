// Package service implements the seat inventory, reservation-lock and
// booking engines.  Every state transition that reads seat counts or
// lock status before writing runs inside one transaction supplied by a
// database.Runner; the services never hold in-process locks and rely
// on row locking at the storage layer instead.
package service

import (
    "context"
    "database/sql"

    "github.com/ticketly/ticket-booking/internal/model"
)

// EventStore is the slice of EventRepo the services need.  The
// transaction handle is threaded explicitly so that a check and the
// write it guards always share one transaction.
type EventStore interface {
    GetByIDTx(ctx context.Context, tx *sql.Tx, eventID uint64) (*model.Event, error)
    AdjustAvailableSeatsTx(ctx context.Context, tx *sql.Tx, eventID uint64, delta int) error
    ResizeTotalSeatsTx(ctx context.Context, tx *sql.Tx, eventID uint64, newTotal int) error
    UpdateStatusTx(ctx context.Context, tx *sql.Tx, eventID uint64, status string) error
}

// LockStore is the slice of SeatLockRepo the services need.
type LockStore interface {
    CreateTx(ctx context.Context, tx *sql.Tx, l *model.SeatLock) error
    GetByID(ctx context.Context, lockID string) (*model.SeatLock, error)
    GetByIDTx(ctx context.Context, tx *sql.Tx, lockID string) (*model.SeatLock, error)
    MarkTx(ctx context.Context, tx *sql.Tx, lockID, status string, reason *string) error
    ListExpired(ctx context.Context) ([]string, error)
}

// BookingStore is the slice of BookingRepo the services need.
type BookingStore interface {
    CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error
    GetByIDTx(ctx context.Context, tx *sql.Tx, bookingID uint64) (*model.Booking, error)
    ListConfirmedByEventTx(ctx context.Context, tx *sql.Tx, eventID uint64) ([]model.Booking, error)
    CancelTx(ctx context.Context, tx *sql.Tx, bookingID uint64) error
    CancelAllForEventTx(ctx context.Context, tx *sql.Tx, eventID uint64) error
}
