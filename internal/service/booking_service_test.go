package service

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/ticketly/ticket-booking/internal/model"
    "github.com/ticketly/ticket-booking/internal/queue"
    "github.com/ticketly/ticket-booking/internal/repository"
)

type recordingPublisher struct {
    published []queue.BookingConfirmedEvent
}

func (p *recordingPublisher) PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error {
    p.published = append(p.published, ev)
    return nil
}

type bookingFixture struct {
    events    *fakeEventStore
    locks     *fakeLockStore
    bookings  *fakeBookingStore
    lockSvc   *SeatLockService
    svc       *BookingService
    publisher *recordingPublisher
}

func newBookingFixture(t *testing.T, events ...*model.Event) *bookingFixture {
    t.Helper()
    f := &bookingFixture{
        events:    newFakeEventStore(events...),
        locks:     newFakeLockStore(),
        bookings:  newFakeBookingStore(),
        publisher: &recordingPublisher{},
    }
    txr := &fakeTxRunner{}
    f.lockSvc = NewSeatLockService(txr, f.events, f.locks, 5*time.Minute)
    f.lockSvc.newID = fakeIDs("lock")
    f.svc = NewBookingService(txr, f.events, f.bookings, f.lockSvc, f.publisher)
    return f
}

func TestCreateBookingConsumesLock(t *testing.T) {
    f := newBookingFixture(t, activeEvent(1, 10))
    ctx := context.Background()

    lock, err := f.lockSvc.CreateLock(ctx, 7, 1, 2)
    require.NoError(t, err)
    require.Equal(t, 8, f.events.events[1].AvailableSeats)

    booking, err := f.svc.CreateBooking(ctx, CreateBookingRequest{
        User:    model.User{ID: 7},
        EventID: 1,
        LockID:  lock.ID,
    })
    require.NoError(t, err)

    assert.Equal(t, model.BookingConfirmed, booking.BookingStatus)
    assert.Equal(t, model.PaymentCompleted, booking.PaymentStatus)
    assert.Equal(t, 2, booking.NumTickets)
    assert.Equal(t, 1000.0, booking.TotalAmount) // 500 × 2
    assert.Len(t, booking.SeatNumbers, 2)
    assert.NotEqual(t, booking.SeatNumbers[0], booking.SeatNumbers[1])
    require.NotNil(t, booking.LockID)
    assert.Equal(t, lock.ID, *booking.LockID)

    // Consuming the lock must not touch seat counts: the lock already
    // holds the seats.
    assert.Equal(t, model.LockConsumed, f.locks.locks[lock.ID].Status)
    assert.Equal(t, 8, f.events.events[1].AvailableSeats)
}

func TestCreateBookingQuantityDefaultsToLock(t *testing.T) {
    f := newBookingFixture(t, activeEvent(1, 10))
    ctx := context.Background()

    lock, err := f.lockSvc.CreateLock(ctx, 7, 1, 3)
    require.NoError(t, err)

    booking, err := f.svc.CreateBooking(ctx, CreateBookingRequest{
        User:    model.User{ID: 7},
        EventID: 1,
        LockID:  lock.ID,
    })
    require.NoError(t, err)
    assert.Equal(t, 3, booking.NumTickets)
}

func TestCreateBookingForeignLock(t *testing.T) {
    f := newBookingFixture(t, activeEvent(1, 10))
    ctx := context.Background()

    lock, err := f.lockSvc.CreateLock(ctx, 7, 1, 2)
    require.NoError(t, err)

    _, err = f.svc.CreateBooking(ctx, CreateBookingRequest{
        User:    model.User{ID: 8},
        EventID: 1,
        LockID:  lock.ID,
    })
    assert.ErrorIs(t, err, repository.ErrForbidden)
    assert.Equal(t, model.LockLocked, f.locks.locks[lock.ID].Status)
}

func TestCreateBookingEventMismatch(t *testing.T) {
    f := newBookingFixture(t, activeEvent(1, 10), activeEvent(2, 10))
    ctx := context.Background()

    lock, err := f.lockSvc.CreateLock(ctx, 7, 1, 2)
    require.NoError(t, err)

    _, err = f.svc.CreateBooking(ctx, CreateBookingRequest{
        User:    model.User{ID: 7},
        EventID: 2,
        LockID:  lock.ID,
    })
    assert.ErrorIs(t, err, repository.ErrEventMismatch)
}

func TestCreateBookingQuantityMismatch(t *testing.T) {
    f := newBookingFixture(t, activeEvent(1, 10))
    ctx := context.Background()

    lock, err := f.lockSvc.CreateLock(ctx, 7, 1, 2)
    require.NoError(t, err)

    _, err = f.svc.CreateBooking(ctx, CreateBookingRequest{
        User:       model.User{ID: 7},
        EventID:    1,
        NumTickets: 3,
        LockID:     lock.ID,
    })
    assert.ErrorIs(t, err, repository.ErrQuantityMismatch)
}

func TestCreateBookingConsumedLockRejected(t *testing.T) {
    f := newBookingFixture(t, activeEvent(1, 10))
    ctx := context.Background()

    lock, err := f.lockSvc.CreateLock(ctx, 7, 1, 2)
    require.NoError(t, err)
    req := CreateBookingRequest{User: model.User{ID: 7}, EventID: 1, LockID: lock.ID}

    _, err = f.svc.CreateBooking(ctx, req)
    require.NoError(t, err)

    // Same lock cannot back a second booking.
    _, err = f.svc.CreateBooking(ctx, req)
    assert.ErrorIs(t, err, repository.ErrLockNotActive)
    assert.Len(t, f.bookings.bookings, 1)
}

func TestCreateBookingExpiredLockReleasedEagerly(t *testing.T) {
    f := newBookingFixture(t, activeEvent(1, 10))
    ctx := context.Background()

    lock, err := f.lockSvc.CreateLock(ctx, 7, 1, 4)
    require.NoError(t, err)
    require.Equal(t, 6, f.events.events[1].AvailableSeats)
    f.locks.locks[lock.ID].ExpiresAt = time.Now().Add(-time.Minute)

    _, err = f.svc.CreateBooking(ctx, CreateBookingRequest{
        User:    model.User{ID: 7},
        EventID: 1,
        LockID:  lock.ID,
    })
    assert.ErrorIs(t, err, repository.ErrLockExpired)

    // Seats restored exactly once, by this call, without waiting for
    // the sweeper.
    assert.Equal(t, 10, f.events.events[1].AvailableSeats)
    assert.Equal(t, model.LockExpired, f.locks.locks[lock.ID].Status)

    // A later sweep finds nothing left to restore.
    require.NoError(t, f.lockSvc.ReleaseExpiredLocks(ctx))
    assert.Equal(t, 10, f.events.events[1].AvailableSeats)
}

func TestCreateBookingImplicitLock(t *testing.T) {
    f := newBookingFixture(t, activeEvent(1, 10))
    ctx := context.Background()

    booking, err := f.svc.CreateBooking(ctx, CreateBookingRequest{
        User:       model.User{ID: 7},
        EventID:    1,
        NumTickets: 2,
    })
    require.NoError(t, err)

    assert.Equal(t, 8, f.events.events[1].AvailableSeats)
    require.NotNil(t, booking.LockID)
    assert.Equal(t, model.LockConsumed, f.locks.locks[*booking.LockID].Status)
}

func TestCreateBookingImplicitLockRequiresQuantity(t *testing.T) {
    f := newBookingFixture(t, activeEvent(1, 10))

    _, err := f.svc.CreateBooking(context.Background(), CreateBookingRequest{
        User:    model.User{ID: 7},
        EventID: 1,
    })
    assert.ErrorIs(t, err, repository.ErrInvalidQuantity)
}

func TestCreateBookingImplicitLockReleasedOnFailure(t *testing.T) {
    f := newBookingFixture(t, activeEvent(1, 10))
    ctx := context.Background()
    f.bookings.createErr = errors.New("insert failed")

    _, err := f.svc.CreateBooking(ctx, CreateBookingRequest{
        User:       model.User{ID: 7},
        EventID:    1,
        NumTickets: 2,
    })
    require.Error(t, err)

    // The implicit lock's seats must not stay stranded.
    assert.Equal(t, 10, f.events.events[1].AvailableSeats)
    require.Len(t, f.locks.locks, 1)
    for _, l := range f.locks.locks {
        assert.Equal(t, model.LockReleased, l.Status)
        require.NotNil(t, l.ReleasedReason)
        assert.Equal(t, model.ReleaseBookingFailed, *l.ReleasedReason)
    }
}

func TestCreateBookingExplicitLockKeptOnFailure(t *testing.T) {
    f := newBookingFixture(t, activeEvent(1, 10))
    ctx := context.Background()

    lock, err := f.lockSvc.CreateLock(ctx, 7, 1, 2)
    require.NoError(t, err)
    f.bookings.createErr = errors.New("insert failed")

    _, err = f.svc.CreateBooking(ctx, CreateBookingRequest{
        User:    model.User{ID: 7},
        EventID: 1,
        LockID:  lock.ID,
    })
    require.Error(t, err)

    // The caller owns this lock's lifecycle; it stays held.
    assert.Equal(t, model.LockLocked, f.locks.locks[lock.ID].Status)
    assert.Equal(t, 8, f.events.events[1].AvailableSeats)
}

func TestCreateBookingSellsLastSeats(t *testing.T) {
    f := newBookingFixture(t, activeEvent(1, 2))
    ctx := context.Background()

    lock, err := f.lockSvc.CreateLock(ctx, 7, 1, 2)
    require.NoError(t, err)
    require.Equal(t, model.EventSoldOut, f.events.events[1].Status)

    // The sold_out flip came from this caller's own lock; the booking
    // must still go through.
    booking, err := f.svc.CreateBooking(ctx, CreateBookingRequest{
        User:    model.User{ID: 7},
        EventID: 1,
        LockID:  lock.ID,
    })
    require.NoError(t, err)
    assert.Equal(t, model.BookingConfirmed, booking.BookingStatus)
    assert.Equal(t, model.LockConsumed, f.locks.locks[lock.ID].Status)
    assert.Equal(t, 0, f.events.events[1].AvailableSeats)
}

func TestCreateBookingImplicitLastSeats(t *testing.T) {
    f := newBookingFixture(t, activeEvent(1, 2))

    booking, err := f.svc.CreateBooking(context.Background(), CreateBookingRequest{
        User:       model.User{ID: 7},
        EventID:    1,
        NumTickets: 2,
    })
    require.NoError(t, err)
    assert.Equal(t, model.EventSoldOut, f.events.events[1].Status)
    assert.Equal(t, model.LockConsumed, f.locks.locks[*booking.LockID].Status)
}

func TestCreateBookingEventDeletedAfterLock(t *testing.T) {
    f := newBookingFixture(t, activeEvent(1, 10))
    ctx := context.Background()

    lock, err := f.lockSvc.CreateLock(ctx, 7, 1, 2)
    require.NoError(t, err)
    f.events.events[1].Status = model.EventDeleted

    _, err = f.svc.CreateBooking(ctx, CreateBookingRequest{
        User:    model.User{ID: 7},
        EventID: 1,
        LockID:  lock.ID,
    })
    assert.ErrorIs(t, err, repository.ErrEventNotActive)
}

func TestCreateBookingEventDeactivatedAfterLock(t *testing.T) {
    f := newBookingFixture(t, activeEvent(1, 10))
    ctx := context.Background()

    lock, err := f.lockSvc.CreateLock(ctx, 7, 1, 2)
    require.NoError(t, err)
    f.events.events[1].Status = model.EventInactive

    _, err = f.svc.CreateBooking(ctx, CreateBookingRequest{
        User:    model.User{ID: 7},
        EventID: 1,
        LockID:  lock.ID,
    })
    assert.ErrorIs(t, err, repository.ErrEventNotActive)
}

func TestCreateBookingPublishesConfirmation(t *testing.T) {
    f := newBookingFixture(t, activeEvent(1, 10))
    ctx := context.Background()

    booking, err := f.svc.CreateBooking(ctx, CreateBookingRequest{
        User:       model.User{ID: 7},
        EventID:    1,
        NumTickets: 2,
    })
    require.NoError(t, err)

    require.Len(t, f.publisher.published, 1)
    ev := f.publisher.published[0]
    assert.Equal(t, booking.ID, ev.BookingID)
    assert.Equal(t, "Concert", ev.EventName)
    assert.Equal(t, 2, ev.NumTickets)
    assert.Equal(t, 1000.0, ev.TotalAmount)
    assert.Equal(t, booking.SeatNumbers, ev.SeatNumbers)
}

func TestCancelBookingRestoresInventory(t *testing.T) {
    f := newBookingFixture(t, activeEvent(1, 2))
    ctx := context.Background()

    booking, err := f.svc.CreateBooking(ctx, CreateBookingRequest{
        User:       model.User{ID: 7},
        EventID:    1,
        NumTickets: 2,
    })
    require.NoError(t, err)
    require.Equal(t, model.EventSoldOut, f.events.events[1].Status)

    require.NoError(t, f.svc.CancelBooking(ctx, booking.ID, model.User{ID: 7}))

    b := f.bookings.bookings[booking.ID]
    assert.Equal(t, model.BookingCancelled, b.BookingStatus)
    assert.Equal(t, model.PaymentRefunded, b.PaymentStatus)
    assert.Equal(t, 2, f.events.events[1].AvailableSeats)
    assert.Equal(t, model.EventActive, f.events.events[1].Status)
}

func TestCancelBookingForbiddenForStranger(t *testing.T) {
    f := newBookingFixture(t, activeEvent(1, 10))
    ctx := context.Background()

    booking, err := f.svc.CreateBooking(ctx, CreateBookingRequest{
        User: model.User{ID: 7}, EventID: 1, NumTickets: 1,
    })
    require.NoError(t, err)

    err = f.svc.CancelBooking(ctx, booking.ID, model.User{ID: 8})
    assert.ErrorIs(t, err, repository.ErrForbidden)

    // An admin may cancel on the user's behalf.
    require.NoError(t, f.svc.CancelBooking(ctx, booking.ID, model.User{ID: 8, IsAdmin: true}))
}

func TestCancelBookingTwiceRejected(t *testing.T) {
    f := newBookingFixture(t, activeEvent(1, 10))
    ctx := context.Background()

    booking, err := f.svc.CreateBooking(ctx, CreateBookingRequest{
        User: model.User{ID: 7}, EventID: 1, NumTickets: 2,
    })
    require.NoError(t, err)

    require.NoError(t, f.svc.CancelBooking(ctx, booking.ID, model.User{ID: 7}))
    err = f.svc.CancelBooking(ctx, booking.ID, model.User{ID: 7})
    assert.ErrorIs(t, err, repository.ErrBookingCancelled)

    // Seats restored exactly once.
    assert.Equal(t, 10, f.events.events[1].AvailableSeats)
}

func TestCancelBookingNotFound(t *testing.T) {
    f := newBookingFixture(t, activeEvent(1, 10))

    err := f.svc.CancelBooking(context.Background(), 99, model.User{ID: 7})
    assert.ErrorIs(t, err, repository.ErrBookingNotFound)
}

func TestEventStatusChangeRefundsBookings(t *testing.T) {
    f := newBookingFixture(t, activeEvent(1, 10))
    ctx := context.Background()

    b1, err := f.svc.CreateBooking(ctx, CreateBookingRequest{
        User: model.User{ID: 7}, EventID: 1, NumTickets: 2,
    })
    require.NoError(t, err)
    b2, err := f.svc.CreateBooking(ctx, CreateBookingRequest{
        User: model.User{ID: 8}, EventID: 1, NumTickets: 3,
    })
    require.NoError(t, err)
    require.Equal(t, 5, f.events.events[1].AvailableSeats)

    require.NoError(t, f.svc.OnEventStatusChange(ctx, 1, model.EventInactive))

    assert.Equal(t, model.EventInactive, f.events.events[1].Status)
    assert.Equal(t, 10, f.events.events[1].AvailableSeats)
    for _, id := range []uint64{b1.ID, b2.ID} {
        assert.Equal(t, model.BookingCancelled, f.bookings.bookings[id].BookingStatus)
        assert.Equal(t, model.PaymentRefunded, f.bookings.bookings[id].PaymentStatus)
    }
}

func TestEventStatusChangeToActiveKeepsBookings(t *testing.T) {
    f := newBookingFixture(t, activeEvent(1, 10))
    ctx := context.Background()

    booking, err := f.svc.CreateBooking(ctx, CreateBookingRequest{
        User: model.User{ID: 7}, EventID: 1, NumTickets: 2,
    })
    require.NoError(t, err)

    require.NoError(t, f.svc.OnEventStatusChange(ctx, 1, model.EventActive))
    assert.Equal(t, model.BookingConfirmed, f.bookings.bookings[booking.ID].BookingStatus)
    assert.Equal(t, 8, f.events.events[1].AvailableSeats)
}

func TestEventStatusChangeRejectsUnknownStatus(t *testing.T) {
    f := newBookingFixture(t, activeEvent(1, 10))

    err := f.svc.OnEventStatusChange(context.Background(), 1, "archived")
    assert.ErrorIs(t, err, repository.ErrInvalidStatus)
}

func TestEventStatusChangeUnknownEvent(t *testing.T) {
    f := newBookingFixture(t)

    err := f.svc.OnEventStatusChange(context.Background(), 9, model.EventInactive)
    assert.ErrorIs(t, err, repository.ErrEventNotFound)
}

func TestResizeEventPreservesHeldSeats(t *testing.T) {
    f := newBookingFixture(t, activeEvent(1, 10))
    ctx := context.Background()

    _, err := f.lockSvc.CreateLock(ctx, 7, 1, 4)
    require.NoError(t, err)
    require.Equal(t, 6, f.events.events[1].AvailableSeats)

    // Growing keeps the 4 held seats subtracted from the new capacity.
    require.NoError(t, f.svc.ResizeEvent(ctx, 1, 12))
    assert.Equal(t, 12, f.events.events[1].TotalSeats)
    assert.Equal(t, 8, f.events.events[1].AvailableSeats)

    // Shrinking below the held seats clamps at zero and sells out.
    require.NoError(t, f.svc.ResizeEvent(ctx, 1, 3))
    assert.Equal(t, 0, f.events.events[1].AvailableSeats)
    assert.Equal(t, model.EventSoldOut, f.events.events[1].Status)

    require.NoError(t, f.svc.ResizeEvent(ctx, 1, 6))
    assert.Equal(t, 3, f.events.events[1].AvailableSeats)
    assert.Equal(t, model.EventActive, f.events.events[1].Status)
}

func TestResizeEventValidation(t *testing.T) {
    f := newBookingFixture(t, activeEvent(1, 10))

    assert.ErrorIs(t, f.svc.ResizeEvent(context.Background(), 1, 0), repository.ErrInvalidQuantity)
    assert.ErrorIs(t, f.svc.ResizeEvent(context.Background(), 9, 5), repository.ErrEventNotFound)
}

// TestBookingLifecycle walks the full happy path plus a contending
// caller: lock to sold out, reject the second lock, consume, cancel,
// reopen.
func TestBookingLifecycle(t *testing.T) {
    f := newBookingFixture(t, activeEvent(1, 2))
    ctx := context.Background()

    lockA, err := f.lockSvc.CreateLock(ctx, 1, 1, 2)
    require.NoError(t, err)
    assert.Equal(t, 0, f.events.events[1].AvailableSeats)
    assert.Equal(t, model.EventSoldOut, f.events.events[1].Status)

    _, err = f.lockSvc.CreateLock(ctx, 2, 1, 2)
    assert.ErrorIs(t, err, repository.ErrInsufficientSeats)

    booking, err := f.svc.CreateBooking(ctx, CreateBookingRequest{
        User:    model.User{ID: 1},
        EventID: 1,
        LockID:  lockA.ID,
    })
    require.NoError(t, err)
    assert.Equal(t, 0, f.events.events[1].AvailableSeats)
    assert.Equal(t, model.LockConsumed, f.locks.locks[lockA.ID].Status)

    require.NoError(t, f.svc.CancelBooking(ctx, booking.ID, model.User{ID: 1}))
    assert.Equal(t, 2, f.events.events[1].AvailableSeats)
    assert.Equal(t, model.EventActive, f.events.events[1].Status)
}
