package service

import (
    "context"
    "database/sql"
    "log"
    "time"

    "github.com/google/uuid"

    "github.com/ticketly/ticket-booking/internal/database"
    "github.com/ticketly/ticket-booking/internal/model"
    "github.com/ticketly/ticket-booking/internal/repository"
)

// SeatLockService owns the lifecycle of seat locks: creation (which
// decrements event inventory), inspection, release (which restores
// it) and the transaction-scoped consume step used by the booking
// engine.  A lock's seats are subtracted exactly once at creation and
// added back exactly once on release or expiry; consuming never
// touches seat counts.
type SeatLockService struct {
    txr    database.Runner
    events EventStore
    locks  LockStore
    ttl    time.Duration

    now   func() time.Time
    newID func() string
}

// NewSeatLockService constructs a SeatLockService.  ttl is the
// time-to-live applied to every new lock.
func NewSeatLockService(txr database.Runner, events EventStore, locks LockStore, ttl time.Duration) *SeatLockService {
    return &SeatLockService{
        txr:    txr,
        events: events,
        locks:  locks,
        ttl:    ttl,
        now:    time.Now,
        newID:  uuid.NewString,
    }
}

// CreateLock reserves numTickets seats on an event for a user.  In a
// single transaction it row-locks the event, verifies it is active and
// has enough seats, decrements available_seats (flipping the event to
// sold_out when it reaches zero) and inserts the lock row with
// expiry now + TTL.  Two concurrent calls therefore serialize on the
// event row: the first takes the seats, the second sees the reduced
// count and fails with ErrInsufficientSeats if it no longer fits.
func (s *SeatLockService) CreateLock(ctx context.Context, userID, eventID uint64, numTickets int) (*model.SeatLock, error) {
    if numTickets <= 0 {
        return nil, repository.ErrInvalidQuantity
    }
    lock := &model.SeatLock{
        ID:         s.newID(),
        UserID:     userID,
        EventID:    eventID,
        NumTickets: numTickets,
        Status:     model.LockLocked,
        ExpiresAt:  s.now().UTC().Add(s.ttl),
    }
    err := s.txr.RunTx(ctx, func(tx *sql.Tx) error {
        ev, err := s.events.GetByIDTx(ctx, tx, eventID)
        if err != nil {
            return err
        }
        if ev.Status != model.EventActive {
            return repository.ErrEventNotActive
        }
        if ev.AvailableSeats < numTickets {
            return repository.ErrInsufficientSeats
        }
        if err := s.events.AdjustAvailableSeatsTx(ctx, tx, eventID, -numTickets); err != nil {
            return err
        }
        return s.locks.CreateTx(ctx, tx, lock)
    })
    if err != nil {
        return nil, err
    }
    return lock, nil
}

// GetLock fetches a lock by ID.
func (s *SeatLockService) GetLock(ctx context.Context, lockID string) (*model.SeatLock, error) {
    return s.locks.GetByID(ctx, lockID)
}

// ReleaseLock terminates a lock and returns its seats to the event.
// A lock that already left the locked state is a no-op, so releasing
// twice (or releasing a consumed lock) never restores seats a second
// time.  reason "expired" records the expired status; anything else
// records released.  The seat-count restore and the status change
// share one transaction.
func (s *SeatLockService) ReleaseLock(ctx context.Context, lockID, reason string) error {
    status := model.LockReleased
    if reason == model.ReleaseExpired {
        status = model.LockExpired
    }
    return s.txr.RunTx(ctx, func(tx *sql.Tx) error {
        lock, err := s.locks.GetByIDTx(ctx, tx, lockID)
        if err != nil {
            return err
        }
        if lock.Status != model.LockLocked {
            return nil
        }
        if err := s.locks.MarkTx(ctx, tx, lockID, status, &reason); err != nil {
            return err
        }
        return s.events.AdjustAvailableSeatsTx(ctx, tx, lock.EventID, lock.NumTickets)
    })
}

// MarkConsumedTx flips a lock from locked to consumed inside the
// caller's transaction.  The booking engine calls it in the same
// transaction that inserts the booking row, so the two writes commit
// or roll back together.  If the lock is no longer in the locked
// state the guarded update matches nothing and ErrConflict surfaces,
// preventing the same lock from backing two bookings.
func (s *SeatLockService) MarkConsumedTx(ctx context.Context, tx *sql.Tx, lockID string) error {
    return s.locks.MarkTx(ctx, tx, lockID, model.LockConsumed, nil)
}

// ReleaseExpiredLocks releases every lock whose expiry has passed,
// each in its own transaction.  A failed release is logged and
// skipped so one bad row cannot block reclamation of the others.
func (s *SeatLockService) ReleaseExpiredLocks(ctx context.Context) error {
    ids, err := s.locks.ListExpired(ctx)
    if err != nil {
        return err
    }
    for _, id := range ids {
        if err := s.ReleaseLock(ctx, id, model.ReleaseExpired); err != nil {
            log.Printf("sweeper: release lock %s failed: %v", id, err)
        }
    }
    return nil
}
