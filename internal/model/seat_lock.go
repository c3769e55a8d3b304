package model

import "time"

// Seat lock statuses.  A lock is created in Locked and reaches exactly
// one of the three terminal states; no transition ever leaves a
// terminal state.
const (
    LockLocked   = "locked"
    LockReleased = "released"
    LockExpired  = "expired"
    LockConsumed = "consumed"
)

// Release reasons recorded on seat_locks.released_reason.
const (
    ReleaseManual        = "manual"
    ReleaseExpired       = "expired"
    ReleaseBookingFailed = "booking_failed"
)

// SeatLock is a time-boxed reservation of NumTickets seats for one
// user against one event.  The event's available_seats is decremented
// in the same transaction that inserts the lock, and restored exactly
// once when the lock is released or expires.  Consuming a lock into a
// booking does not touch seat counts.
//
// Fields:
//  ID             – random UUID identifying the lock.
//  UserID         – owner of the lock; only this user (or an admin)
//                   may release or consume it.
//  EventID        – event whose seats are reserved.
//  NumTickets     – number of seats reserved; always > 0.
//  Status         – one of the Lock* constants above.
//  ExpiresAt      – absolute expiry; set to now + TTL at creation.
//  ReleasedReason – why the lock left the locked state (nullable).
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last modification timestamp.
type SeatLock struct {
    ID             string    `json:"lock_id"`
    UserID         uint64    `json:"user_id"`
    EventID        uint64    `json:"event_id"`
    NumTickets     int       `json:"num_tickets"`
    Status         string    `json:"status"`
    ExpiresAt      time.Time `json:"expires_at"`
    ReleasedReason *string   `json:"released_reason,omitempty"`
    CreatedAt      time.Time `json:"created_at"`
    UpdatedAt      time.Time `json:"updated_at"`
}

// Expired reports whether the lock's expiry has passed at the given
// instant.  Expiry is enforced synchronously at booking time as well
// as by the background sweeper, so this check must not depend on the
// sweeper having run.
func (l *SeatLock) Expired(now time.Time) bool {
    return !l.ExpiresAt.After(now)
}
