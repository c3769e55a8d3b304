package service

import (
    "context"
    "database/sql"
    "log"
    "time"

    "github.com/ticketly/ticket-booking/internal/database"
    "github.com/ticketly/ticket-booking/internal/model"
    "github.com/ticketly/ticket-booking/internal/queue"
    "github.com/ticketly/ticket-booking/internal/repository"
    "github.com/ticketly/ticket-booking/internal/utils"
)

// ConfirmationPublisher publishes booking confirmations to the message
// broker.  Publishing is best-effort: a failure is logged and the
// booking stands.
type ConfirmationPublisher interface {
    PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error
}

// BookingService converts valid seat locks into durable bookings and
// handles cancellation.  The booking insert and the lock consume are
// coupled in one transaction: a booking never exists with an
// un-consumed lock, and a lock is never consumed without a matching
// booking.
type BookingService struct {
    txr       database.Runner
    events    EventStore
    bookings  BookingStore
    locks     *SeatLockService
    publisher ConfirmationPublisher

    now func() time.Time
}

// NewBookingService constructs a BookingService.  publisher may be nil
// when no broker is configured.
func NewBookingService(txr database.Runner, events EventStore, bookings BookingStore, locks *SeatLockService, publisher ConfirmationPublisher) *BookingService {
    return &BookingService{
        txr:       txr,
        events:    events,
        bookings:  bookings,
        locks:     locks,
        publisher: publisher,
        now:       time.Now,
    }
}

// CreateBookingRequest carries the parameters of CreateBooking.
// LockID is optional: when empty the service creates an implicit lock
// first and owns its cleanup on failure.  NumTickets may be zero in
// lock-first mode, in which case the lock's quantity is used; a
// non-zero value must match the lock.
type CreateBookingRequest struct {
    User       model.User
    EventID    uint64
    NumTickets int
    LockID     string
}

// fetchLock resolves the lock backing a booking.  In lock-first mode
// it validates ownership, event, quantity, state and expiry; an
// expired lock is eagerly released (restoring its seats) before the
// booking fails.  In implicit mode it creates a fresh lock, which
// performs its own availability check.
func (s *BookingService) fetchLock(ctx context.Context, req CreateBookingRequest) (*model.SeatLock, error) {
    if req.LockID == "" {
        return s.locks.CreateLock(ctx, req.User.ID, req.EventID, req.NumTickets)
    }
    lock, err := s.locks.GetLock(ctx, req.LockID)
    if err != nil {
        return nil, err
    }
    if lock.UserID != req.User.ID {
        return nil, repository.ErrForbidden
    }
    if lock.EventID != req.EventID {
        return nil, repository.ErrEventMismatch
    }
    if req.NumTickets != 0 && req.NumTickets != lock.NumTickets {
        return nil, repository.ErrQuantityMismatch
    }
    if lock.Status != model.LockLocked {
        return nil, repository.ErrLockNotActive
    }
    if lock.Expired(s.now()) {
        // Enforce expiry synchronously rather than waiting for the
        // sweeper; the release restores the seats exactly once.
        if rerr := s.locks.ReleaseLock(ctx, lock.ID, model.ReleaseExpired); rerr != nil {
            log.Printf("booking: release of expired lock %s failed: %v", lock.ID, rerr)
        }
        return nil, repository.ErrLockExpired
    }
    return lock, nil
}

// CreateBooking books lock.NumTickets seats for a user.  In a single
// transaction it re-reads the event, rejecting it only when it went
// inactive or deleted since the lock was taken; a sold_out status is
// expected when the lock itself took the last seats and does not block
// the booking.  It then computes the total amount, inserts the booking
// and marks the lock consumed.  Seats are not decremented here: the
// lock already holds them.  Seat labels are generated before the
// transaction opens so no label work runs under the row lock.  When the service
// created an implicit lock and the transaction fails, the lock is
// released with reason booking_failed so its seats are not stranded;
// a caller-supplied lock stays untouched on failure since the caller
// owns its lifecycle.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*model.Booking, error) {
    lock, err := s.fetchLock(ctx, req)
    if err != nil {
        return nil, err
    }
    implicit := req.LockID == ""
    seatNumbers := utils.GenerateSeatNumbers(lock.NumTickets)

    var booking *model.Booking
    var eventName string
    err = s.txr.RunTx(ctx, func(tx *sql.Tx) error {
        ev, err := s.events.GetByIDTx(ctx, tx, req.EventID)
        if err != nil {
            return err
        }
        if ev.Status == model.EventInactive || ev.Status == model.EventDeleted {
            return repository.ErrEventNotActive
        }
        eventName = ev.Name
        b := &model.Booking{
            UserID:        req.User.ID,
            EventID:       req.EventID,
            NumTickets:    lock.NumTickets,
            TotalAmount:   ev.PricePerTicket * float64(lock.NumTickets),
            BookingStatus: model.BookingConfirmed,
            PaymentStatus: model.PaymentCompleted,
            SeatNumbers:   seatNumbers,
            LockID:        &lock.ID,
            BookingDate:   s.now().UTC(),
        }
        if err := s.bookings.CreateTx(ctx, tx, b); err != nil {
            return err
        }
        if err := s.locks.MarkConsumedTx(ctx, tx, lock.ID); err != nil {
            return err
        }
        booking = b
        return nil
    })
    if err != nil {
        if implicit {
            if rerr := s.locks.ReleaseLock(ctx, lock.ID, model.ReleaseBookingFailed); rerr != nil {
                log.Printf("booking: release of implicit lock %s failed: %v", lock.ID, rerr)
            }
        }
        return nil, err
    }

    log.Printf("booking %d confirmed for user %d on event %d", booking.ID, booking.UserID, booking.EventID)
    if s.publisher != nil {
        ev := queue.BookingConfirmedEvent{
            BookingID:   booking.ID,
            UserID:      booking.UserID,
            EventID:     booking.EventID,
            EventName:   eventName,
            NumTickets:  booking.NumTickets,
            SeatNumbers: booking.SeatNumbers,
            TotalAmount: booking.TotalAmount,
            ConfirmedAt: booking.BookingDate.Format(time.RFC3339),
        }
        if perr := s.publisher.PublishBookingConfirmed(ctx, ev); perr != nil {
            log.Printf("booking: publish confirmation for booking %d failed: %v", booking.ID, perr)
        }
    }
    return booking, nil
}

// CancelBooking cancels a confirmed booking, marks its payment
// refunded and restores its seats to the event, all in one
// transaction.  Only the booking's owner or an admin may cancel.  The
// original lock is already consumed and stays untouched.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID uint64, user model.User) error {
    err := s.txr.RunTx(ctx, func(tx *sql.Tx) error {
        b, err := s.bookings.GetByIDTx(ctx, tx, bookingID)
        if err != nil {
            return err
        }
        if !user.IsAdmin && b.UserID != user.ID {
            return repository.ErrForbidden
        }
        if b.BookingStatus == model.BookingCancelled {
            return repository.ErrBookingCancelled
        }
        if err := s.bookings.CancelTx(ctx, tx, bookingID); err != nil {
            return err
        }
        return s.events.AdjustAvailableSeatsTx(ctx, tx, b.EventID, b.NumTickets)
    })
    if err != nil {
        return err
    }
    log.Printf("booking %d cancelled by user %d", bookingID, user.ID)
    return nil
}

// OnEventStatusChange transitions an event to a new status.  Before a
// transition to inactive or deleted is persisted, every confirmed
// booking of the event is force-cancelled and refunded in the same
// transaction, with the seats counted back into available_seats.  The
// seat restore never resurrects the event: the new status is written
// last and the automatic sold_out/active flip only applies to events
// that stay sellable.
func (s *BookingService) OnEventStatusChange(ctx context.Context, eventID uint64, newStatus string) error {
    if !model.ValidEventStatus(newStatus) {
        return repository.ErrInvalidStatus
    }
    var refunded int
    err := s.txr.RunTx(ctx, func(tx *sql.Tx) error {
        if _, err := s.events.GetByIDTx(ctx, tx, eventID); err != nil {
            return err
        }
        if newStatus == model.EventInactive || newStatus == model.EventDeleted {
            rows, err := s.bookings.ListConfirmedByEventTx(ctx, tx, eventID)
            if err != nil {
                return err
            }
            if len(rows) > 0 {
                if err := s.bookings.CancelAllForEventTx(ctx, tx, eventID); err != nil {
                    return err
                }
                seats := 0
                for _, b := range rows {
                    seats += b.NumTickets
                }
                if err := s.events.AdjustAvailableSeatsTx(ctx, tx, eventID, seats); err != nil {
                    return err
                }
                refunded = len(rows)
            }
        }
        return s.events.UpdateStatusTx(ctx, tx, eventID, newStatus)
    })
    if err != nil {
        return err
    }
    if refunded > 0 {
        log.Printf("event %d status changed to %s: refunded %d bookings", eventID, newStatus, refunded)
    }
    return nil
}

// ResizeEvent changes an event's capacity.  The recompute runs under
// the event's row lock, so a lock or booking committing concurrently
// stays subtracted from the new capacity instead of being silently
// undone.  Shrinking below the seats already held clamps
// available_seats at zero and the status flips with the recomputed
// count the same way a seat adjustment would flip it.
func (s *BookingService) ResizeEvent(ctx context.Context, eventID uint64, newTotal int) error {
    if newTotal <= 0 {
        return repository.ErrInvalidQuantity
    }
    return s.txr.RunTx(ctx, func(tx *sql.Tx) error {
        if _, err := s.events.GetByIDTx(ctx, tx, eventID); err != nil {
            return err
        }
        return s.events.ResizeTotalSeatsTx(ctx, tx, eventID, newTotal)
    })
}
