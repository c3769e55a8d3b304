package model

import "time"

// Event statuses.  SoldOut and Active are toggled automatically by the
// inventory operations; Inactive and Deleted are only ever set by an
// admin and are never overridden by a seat-count change.
const (
    EventActive   = "active"
    EventInactive = "inactive"
    EventSoldOut  = "sold_out"
    EventDeleted  = "deleted"
)

// Event represents a bookable event and its seat inventory.  The
// available_seats/status pair is the shared resource of the whole
// system: it is mutated only through EventRepo's atomic operations
// (lock creation, lock release, cancellation refunds), never directly.
//
// Fields:
//  ID             – primary key identifier.
//  Name           – display name of the event.
//  EventType      – free-form category (concert, seminar, ...).
//  Venue          – where the event takes place.
//  EventDate      – calendar date, stored as text (YYYY-MM-DD).
//  EventTime      – start time, stored as text (HH:MM).
//  TotalSeats     – capacity; immutable except by admin resize.
//  AvailableSeats – seats not currently locked or booked.
//  PricePerTicket – price of one ticket.
//  Description    – optional long description.
//  CreatedBy      – user who created the event (nullable).
//  Status         – one of the Event* constants above.
//  BannerURL      – optional banner image URL.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last modification timestamp.
//  DeletedAt      – set when the event is soft deleted.
type Event struct {
    ID             uint64     `json:"event_id"`
    Name           string     `json:"event_name"`
    EventType      string     `json:"event_type"`
    Venue          string     `json:"venue"`
    EventDate      string     `json:"event_date"`
    EventTime      string     `json:"event_time"`
    TotalSeats     int        `json:"total_seats"`
    AvailableSeats int        `json:"available_seats"`
    PricePerTicket float64    `json:"price_per_ticket"`
    Description    *string    `json:"description,omitempty"`
    CreatedBy      *uint64    `json:"created_by,omitempty"`
    Status         string     `json:"status"`
    BannerURL      *string    `json:"banner_url,omitempty"`
    CreatedAt      time.Time  `json:"created_at"`
    UpdatedAt      time.Time  `json:"updated_at"`
    DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}

// ValidEventStatus reports whether s is one of the four known event
// statuses.  Used when admins change a status through the API.
func ValidEventStatus(s string) bool {
    switch s {
    case EventActive, EventInactive, EventSoldOut, EventDeleted:
        return true
    }
    return false
}
