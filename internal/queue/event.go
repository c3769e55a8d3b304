// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingConfirmedEvent is published when a booking transaction
// commits.  It carries enough information for downstream consumers to
// log, notify, or trigger analytics without querying the primary
// database.
type BookingConfirmedEvent struct {
    BookingID   uint64   `json:"booking_id"`
    UserID      uint64   `json:"user_id"`
    EventID     uint64   `json:"event_id"`
    EventName   string   `json:"event_name"`
    NumTickets  int      `json:"num_tickets"`
    SeatNumbers []string `json:"seat_numbers"`
    TotalAmount float64  `json:"total_amount"`
    ConfirmedAt string   `json:"confirmed_at"`
}
