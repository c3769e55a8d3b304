package service

// In-memory store fakes backing the service tests.  They mirror the
// SQL repositories' behavior closely enough to exercise the accounting
// invariants: the event fake replicates the guarded status CASE of
// AdjustAvailableSeatsTx and the lock fake replicates the
// only-from-locked transition guard of MarkTx.  The transaction handle
// is accepted and ignored.

import (
    "context"
    "database/sql"
    "fmt"
    "time"

    "github.com/ticketly/ticket-booking/internal/model"
    "github.com/ticketly/ticket-booking/internal/repository"
)

type fakeTxRunner struct {
    beginErr error
}

func (f *fakeTxRunner) RunTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
    if f.beginErr != nil {
        return f.beginErr
    }
    return fn(nil)
}

type fakeEventStore struct {
    events map[uint64]*model.Event
}

func newFakeEventStore(events ...*model.Event) *fakeEventStore {
    s := &fakeEventStore{events: make(map[uint64]*model.Event)}
    for _, e := range events {
        s.events[e.ID] = e
    }
    return s
}

func (s *fakeEventStore) GetByIDTx(ctx context.Context, tx *sql.Tx, eventID uint64) (*model.Event, error) {
    e, ok := s.events[eventID]
    if !ok {
        return nil, repository.ErrEventNotFound
    }
    cp := *e
    return &cp, nil
}

func (s *fakeEventStore) AdjustAvailableSeatsTx(ctx context.Context, tx *sql.Tx, eventID uint64, delta int) error {
    e, ok := s.events[eventID]
    if !ok {
        return repository.ErrEventNotFound
    }
    e.AvailableSeats += delta
    switch {
    case e.AvailableSeats <= 0 && e.Status == model.EventActive:
        e.Status = model.EventSoldOut
    case e.AvailableSeats > 0 && e.Status == model.EventSoldOut:
        e.Status = model.EventActive
    }
    return nil
}

func (s *fakeEventStore) ResizeTotalSeatsTx(ctx context.Context, tx *sql.Tx, eventID uint64, newTotal int) error {
    e, ok := s.events[eventID]
    if !ok {
        return repository.ErrEventNotFound
    }
    sold := e.TotalSeats - e.AvailableSeats
    e.TotalSeats = newTotal
    e.AvailableSeats = newTotal - sold
    if e.AvailableSeats < 0 {
        e.AvailableSeats = 0
    }
    switch {
    case e.AvailableSeats <= 0 && e.Status == model.EventActive:
        e.Status = model.EventSoldOut
    case e.AvailableSeats > 0 && e.Status == model.EventSoldOut:
        e.Status = model.EventActive
    }
    return nil
}

func (s *fakeEventStore) UpdateStatusTx(ctx context.Context, tx *sql.Tx, eventID uint64, status string) error {
    e, ok := s.events[eventID]
    if !ok {
        return repository.ErrEventNotFound
    }
    e.Status = status
    return nil
}

type fakeLockStore struct {
    locks     map[string]*model.SeatLock
    createErr error
}

func newFakeLockStore() *fakeLockStore {
    return &fakeLockStore{locks: make(map[string]*model.SeatLock)}
}

func (s *fakeLockStore) CreateTx(ctx context.Context, tx *sql.Tx, l *model.SeatLock) error {
    if s.createErr != nil {
        return s.createErr
    }
    cp := *l
    s.locks[l.ID] = &cp
    return nil
}

func (s *fakeLockStore) GetByID(ctx context.Context, lockID string) (*model.SeatLock, error) {
    l, ok := s.locks[lockID]
    if !ok {
        return nil, repository.ErrLockNotFound
    }
    cp := *l
    return &cp, nil
}

func (s *fakeLockStore) GetByIDTx(ctx context.Context, tx *sql.Tx, lockID string) (*model.SeatLock, error) {
    return s.GetByID(ctx, lockID)
}

func (s *fakeLockStore) MarkTx(ctx context.Context, tx *sql.Tx, lockID, status string, reason *string) error {
    l, ok := s.locks[lockID]
    if !ok || l.Status != model.LockLocked {
        return repository.ErrConflict
    }
    l.Status = status
    l.ReleasedReason = reason
    return nil
}

func (s *fakeLockStore) ListExpired(ctx context.Context) ([]string, error) {
    now := time.Now()
    var ids []string
    for id, l := range s.locks {
        if l.Status == model.LockLocked && !l.ExpiresAt.After(now) {
            ids = append(ids, id)
        }
    }
    return ids, nil
}

type fakeBookingStore struct {
    bookings  map[uint64]*model.Booking
    nextID    uint64
    createErr error
}

func newFakeBookingStore() *fakeBookingStore {
    return &fakeBookingStore{bookings: make(map[uint64]*model.Booking), nextID: 1}
}

func (s *fakeBookingStore) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
    if s.createErr != nil {
        return s.createErr
    }
    b.ID = s.nextID
    s.nextID++
    cp := *b
    s.bookings[b.ID] = &cp
    return nil
}

func (s *fakeBookingStore) GetByIDTx(ctx context.Context, tx *sql.Tx, bookingID uint64) (*model.Booking, error) {
    b, ok := s.bookings[bookingID]
    if !ok {
        return nil, repository.ErrBookingNotFound
    }
    cp := *b
    return &cp, nil
}

func (s *fakeBookingStore) ListConfirmedByEventTx(ctx context.Context, tx *sql.Tx, eventID uint64) ([]model.Booking, error) {
    var out []model.Booking
    for _, b := range s.bookings {
        if b.EventID == eventID && b.BookingStatus == model.BookingConfirmed {
            out = append(out, *b)
        }
    }
    return out, nil
}

func (s *fakeBookingStore) CancelTx(ctx context.Context, tx *sql.Tx, bookingID uint64) error {
    b, ok := s.bookings[bookingID]
    if !ok || b.BookingStatus != model.BookingConfirmed {
        return repository.ErrConflict
    }
    b.BookingStatus = model.BookingCancelled
    b.PaymentStatus = model.PaymentRefunded
    return nil
}

func (s *fakeBookingStore) CancelAllForEventTx(ctx context.Context, tx *sql.Tx, eventID uint64) error {
    for _, b := range s.bookings {
        if b.EventID == eventID && b.BookingStatus == model.BookingConfirmed {
            b.BookingStatus = model.BookingCancelled
            b.PaymentStatus = model.PaymentRefunded
        }
    }
    return nil
}

// fakeIDs returns a deterministic lock-id generator.
func fakeIDs(prefix string) func() string {
    n := 0
    return func() string {
        n++
        return fmt.Sprintf("%s-%d", prefix, n)
    }
}
