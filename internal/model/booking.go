package model

import "time"

// Booking statuses.  Cancellation is the only mutation after creation
// and is one-way.
const (
    BookingConfirmed = "confirmed"
    BookingCancelled = "cancelled"
)

// Payment statuses.  The service treats the charged amount as a
// trusted precomputed value; Refunded is set atomically with
// cancellation.
const (
    PaymentPending   = "pending"
    PaymentCompleted = "completed"
    PaymentFailed    = "failed"
    PaymentRefunded  = "refunded"
)

// Booking is a durable record produced by consuming a seat lock.  It
// is inserted in the same transaction that marks the lock consumed, so
// a booking with a non-nil LockID exists if and only if that lock is
// in the consumed state.
//
// Fields:
//  ID            – primary key identifier.
//  UserID        – user who booked.
//  EventID       – event booked.
//  NumTickets    – number of seats booked.
//  TotalAmount   – price_per_ticket × num_tickets at booking time.
//  BookingStatus – confirmed or cancelled.
//  PaymentStatus – one of the Payment* constants above.
//  SeatNumbers   – ordered seat labels generated at booking time.
//  LockID        – the consumed lock (nil for legacy direct rows).
//  BookingDate   – creation timestamp.
type Booking struct {
    ID            uint64    `json:"booking_id"`
    UserID        uint64    `json:"user_id"`
    EventID       uint64    `json:"event_id"`
    NumTickets    int       `json:"num_tickets"`
    TotalAmount   float64   `json:"total_amount"`
    BookingStatus string    `json:"booking_status"`
    PaymentStatus string    `json:"payment_status"`
    SeatNumbers   []string  `json:"seat_numbers"`
    LockID        *string   `json:"lock_id,omitempty"`
    BookingDate   time.Time `json:"booking_date"`
}

// User carries the caller identity supplied by the auth boundary.
// Ownership and admin checks inside the services rely on it; how the
// identity was established is the transport layer's concern.
type User struct {
    ID      uint64
    IsAdmin bool
}
