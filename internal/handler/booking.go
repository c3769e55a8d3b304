package handler

import (
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/ticketly/ticket-booking/internal/repository"
    "github.com/ticketly/ticket-booking/internal/service"
)

// BookingHandler exposes booking creation, listing and cancellation.
type BookingHandler struct {
    Bookings    *service.BookingService
    BookingRepo *repository.BookingRepo
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(bookings *service.BookingService, bookingRepo *repository.BookingRepo) *BookingHandler {
    if bookings == nil || bookingRepo == nil {
        panic("nil dependency passed to NewBookingHandler")
    }
    return &BookingHandler{Bookings: bookings, BookingRepo: bookingRepo}
}

// CreateBooking handles POST /v1/bookings.  With a lock_id the booking
// consumes that lock; without one an implicit lock is taken first and
// cleaned up automatically if the booking fails.  Returns 201 with the
// booking on success.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
    user, err := getUser(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var body struct {
        EventID    uint64 `json:"event_id"`
        NumTickets int    `json:"num_tickets"`
        LockID     string `json:"lock_id"`
    }
    if err := c.Bind(&body); err != nil || body.EventID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    booking, err := h.Bookings.CreateBooking(c.Request().Context(), service.CreateBookingRequest{
        User:       user,
        EventID:    body.EventID,
        NumTickets: body.NumTickets,
        LockID:     body.LockID,
    })
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, booking)
}

// ListBookings handles GET /v1/bookings.  By default it returns the
// caller's bookings; admins may pass ?scope=all to list everyone's.
func (h *BookingHandler) ListBookings(c echo.Context) error {
    user, err := getUser(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx := c.Request().Context()
    if c.QueryParam("scope") == "all" {
        if !user.IsAdmin {
            return c.JSON(http.StatusForbidden, echo.Map{"error": "admin access required"})
        }
        items, err := h.BookingRepo.ListAll(ctx)
        if err != nil {
            return respondError(c, err)
        }
        return c.JSON(http.StatusOK, echo.Map{"items": items})
    }
    items, err := h.BookingRepo.ListByUser(ctx, user.ID)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// CancelBooking handles DELETE /v1/bookings/:id.  It cancels a
// confirmed booking, refunds its payment and restores the seats to the
// event.  Only the booking's owner or an admin may cancel; cancelling
// twice returns 400.
func (h *BookingHandler) CancelBooking(c echo.Context) error {
    user, err := getUser(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    bookingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || bookingID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    if err := h.Bookings.CancelBooking(c.Request().Context(), bookingID, user); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
