// Package repository defines the sentinel errors shared by the data
// access layer and the services built on top of it.  Higher layers use
// errors.Is against these values to map failures onto user-facing
// responses: not-found conditions become 404s, ownership mismatches
// 403s, state conflicts 400/409s and so on.
package repository

import "errors"

// ErrEventNotFound is returned when the referenced event does not
// exist (or was never created; soft-deleted events still resolve and
// fail later state checks instead).
var ErrEventNotFound = errors.New("event not found")

// ErrLockNotFound is returned when the referenced seat lock does not
// exist.
var ErrLockNotFound = errors.New("seat lock not found")

// ErrBookingNotFound is returned when the referenced booking does not
// exist.
var ErrBookingNotFound = errors.New("booking not found")

// ErrEventNotActive is returned when an operation requires an active
// event but its status is inactive, sold_out or deleted.
var ErrEventNotActive = errors.New("event not available for booking")

// ErrInsufficientSeats is returned when a lock requests more seats
// than the event currently has available.
var ErrInsufficientSeats = errors.New("not enough seats available")

// ErrLockNotActive is returned when a lock is expected to be in the
// locked state but has already been released, expired or consumed.
var ErrLockNotActive = errors.New("seat lock already used or released")

// ErrLockExpired is returned when a lock's expiry has passed at
// booking time.  The seats are returned to the pool by the same call.
var ErrLockExpired = errors.New("seat lock expired")

// ErrQuantityMismatch is returned when the ticket quantity supplied
// with a booking does not match the quantity reserved by its lock.
var ErrQuantityMismatch = errors.New("ticket quantity mismatch with lock")

// ErrInvalidQuantity is returned when a requested ticket quantity is
// zero or negative.
var ErrInvalidQuantity = errors.New("num_tickets must be positive")

// ErrEventMismatch is returned when a booking references a lock taken
// against a different event.
var ErrEventMismatch = errors.New("seat lock does not match event")

// ErrInvalidStatus is returned when an admin supplies an unknown event
// status.
var ErrInvalidStatus = errors.New("invalid status")

// ErrBookingCancelled is returned when cancelling a booking that has
// already been cancelled.
var ErrBookingCancelled = errors.New("booking already cancelled")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.  Handlers translate this into 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a guarded state transition finds the
// row no longer in the expected state, e.g. two transactions racing to
// consume the same lock.  The loser observes ErrConflict instead of
// performing a second seat adjustment.
var ErrConflict = errors.New("conflict")
