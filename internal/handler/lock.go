package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/ticketly/ticket-booking/internal/model"
    "github.com/ticketly/ticket-booking/internal/service"
)

// LockHandler exposes the seat lock operations.  It performs the
// caller-identity checks at this boundary and delegates the inventory
// accounting to the SeatLockService.
type LockHandler struct {
    Locks *service.SeatLockService
}

// NewLockHandler constructs a LockHandler.
func NewLockHandler(locks *service.SeatLockService) *LockHandler {
    if locks == nil {
        panic("nil service passed to NewLockHandler")
    }
    return &LockHandler{Locks: locks}
}

func lockResponse(l *model.SeatLock) echo.Map {
    return echo.Map{
        "lock_id":     l.ID,
        "event_id":    l.EventID,
        "num_tickets": l.NumTickets,
        "status":      l.Status,
        "expires_at":  l.ExpiresAt.UTC().Format(time.RFC3339),
    }
}

// CreateLock handles POST /v1/locks.  It reserves seats for the
// authenticated user, returning 201 with the lock id and expiry on
// success.  Insufficient seats or an inactive event map to 400.
func (h *LockHandler) CreateLock(c echo.Context) error {
    user, err := getUser(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var body struct {
        EventID    uint64 `json:"event_id"`
        NumTickets int    `json:"num_tickets"`
    }
    if err := c.Bind(&body); err != nil || body.EventID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    lock, err := h.Locks.CreateLock(c.Request().Context(), user.ID, body.EventID, body.NumTickets)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, lockResponse(lock))
}

// GetLock handles GET /v1/locks/:id.  Only the lock's owner or an
// admin may inspect it.
func (h *LockHandler) GetLock(c echo.Context) error {
    user, err := getUser(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    lock, err := h.Locks.GetLock(c.Request().Context(), c.Param("id"))
    if err != nil {
        return respondError(c, err)
    }
    if lock.UserID != user.ID && !user.IsAdmin {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    return c.JSON(http.StatusOK, lockResponse(lock))
}

// ReleaseLock handles DELETE /v1/locks/:id.  It releases the lock and
// returns its seats to the event.  Releasing a lock that already left
// the locked state is a no-op, so retries are safe.  Only the owner or
// an admin may release.
func (h *LockHandler) ReleaseLock(c echo.Context) error {
    user, err := getUser(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx := c.Request().Context()
    lock, err := h.Locks.GetLock(ctx, c.Param("id"))
    if err != nil {
        return respondError(c, err)
    }
    if lock.UserID != user.ID && !user.IsAdmin {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    if err := h.Locks.ReleaseLock(ctx, lock.ID, model.ReleaseManual); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
