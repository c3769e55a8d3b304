// Package worker contains background tasks owned by the process.
package worker

import (
    "context"
    "log"
    "sync"
    "time"
)

// Releaser reclaims seats held by expired locks.  Implemented by
// service.SeatLockService.
type Releaser interface {
    ReleaseExpiredLocks(ctx context.Context) error
}

// Sweeper periodically releases expired seat locks.  It is advisory
// cleanup: expiry is also enforced synchronously at booking time, the
// sweeper only reclaims seats that would otherwise stay stranded.  It
// is constructed with its dependencies rather than reaching for
// globals, starts at most once, and survives transient sweep failures.
type Sweeper struct {
    releaser Releaser
    interval time.Duration

    startOnce sync.Once
    stopOnce  sync.Once
    started   bool
    stop      chan struct{}
    done      chan struct{}
}

// NewSweeper returns a Sweeper invoking releaser every interval.
func NewSweeper(releaser Releaser, interval time.Duration) *Sweeper {
    return &Sweeper{
        releaser: releaser,
        interval: interval,
        stop:     make(chan struct{}),
        done:     make(chan struct{}),
    }
}

// Start launches the sweep loop in a goroutine.  Calling Start more
// than once is a no-op.
func (s *Sweeper) Start() {
    s.startOnce.Do(func() {
        s.started = true
        go s.run()
    })
}

// Stop terminates the sweep loop and waits for the in-flight sweep, if
// any, to finish.  Safe to call multiple times or without Start.
func (s *Sweeper) Stop() {
    s.stopOnce.Do(func() { close(s.stop) })
    if s.started {
        <-s.done
    }
}

func (s *Sweeper) run() {
    defer close(s.done)
    ticker := time.NewTicker(s.interval)
    defer ticker.Stop()
    log.Printf("sweeper: started, interval %s", s.interval)
    for {
        select {
        case <-s.stop:
            log.Printf("sweeper: stopped")
            return
        case <-ticker.C:
            s.sweep()
        }
    }
}

// sweep runs one reclamation pass with a bounded deadline.  Errors are
// logged, never propagated: a failed pass must not take the process
// down, the next tick simply tries again.
func (s *Sweeper) sweep() {
    ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
    defer cancel()
    if err := s.releaser.ReleaseExpiredLocks(ctx); err != nil {
        log.Printf("sweeper: sweep failed: %v", err)
    }
}
