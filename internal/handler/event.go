package handler

import (
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/ticketly/ticket-booking/internal/model"
    "github.com/ticketly/ticket-booking/internal/repository"
    "github.com/ticketly/ticket-booking/internal/service"
)

// EventHandler exposes event management.  Plain CRUD goes straight to
// the repository; anything that can strand or refund seats (status
// changes, soft deletion) routes through the BookingService so the
// forced-refund sweep runs in the same transaction as the status
// change.
type EventHandler struct {
    Events   *repository.EventRepo
    Bookings *service.BookingService
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(events *repository.EventRepo, bookings *service.BookingService) *EventHandler {
    if events == nil || bookings == nil {
        panic("nil dependency passed to NewEventHandler")
    }
    return &EventHandler{Events: events, Bookings: bookings}
}

type eventBody struct {
    Name           string  `json:"event_name"`
    EventType      string  `json:"event_type"`
    Venue          string  `json:"venue"`
    EventDate      string  `json:"event_date"`
    EventTime      string  `json:"event_time"`
    TotalSeats     int     `json:"total_seats"`
    PricePerTicket float64 `json:"price_per_ticket"`
    Description    *string `json:"description"`
    BannerURL      *string `json:"banner_url"`
}

// ListEvents handles GET /v1/events.  Public; defaults to active
// events, soft-deleted events are never listed.
func (h *EventHandler) ListEvents(c echo.Context) error {
    events, err := h.Events.List(c.Request().Context(), c.QueryParam("status"))
    if err != nil {
        return respondError(c, err)
    }
    if events == nil {
        events = []model.Event{}
    }
    return c.JSON(http.StatusOK, echo.Map{"items": events})
}

// GetEvent handles GET /v1/events/:id.  Soft-deleted events respond
// 404 as if they never existed.
func (h *EventHandler) GetEvent(c echo.Context) error {
    eventID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || eventID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    ev, err := h.Events.GetByID(c.Request().Context(), eventID)
    if err != nil {
        return respondError(c, err)
    }
    if ev.Status == model.EventDeleted {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
    }
    return c.JSON(http.StatusOK, ev)
}

// CreateEvent handles POST /v1/events (admin).  available_seats starts
// equal to total_seats.
func (h *EventHandler) CreateEvent(c echo.Context) error {
    user, err := getUser(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var body eventBody
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if body.Name == "" || body.Venue == "" || body.TotalSeats <= 0 || body.PricePerTicket < 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_name, venue, positive total_seats and non-negative price are required"})
    }
    ev := &model.Event{
        Name:           body.Name,
        EventType:      body.EventType,
        Venue:          body.Venue,
        EventDate:      body.EventDate,
        EventTime:      body.EventTime,
        TotalSeats:     body.TotalSeats,
        PricePerTicket: body.PricePerTicket,
        Description:    body.Description,
        CreatedBy:      &user.ID,
        Status:         model.EventActive,
        BannerURL:      body.BannerURL,
    }
    if err := h.Events.Create(c.Request().Context(), ev); err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, ev)
}

// UpdateEvent handles PUT /v1/events/:id (admin).  Display fields are
// rewritten directly; a total_seats change routes through the
// BookingService so the recompute of available_seats runs under the
// event's row lock and cannot undo a concurrent lock or booking.
func (h *EventHandler) UpdateEvent(c echo.Context) error {
    eventID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || eventID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    ctx := c.Request().Context()
    ev, err := h.Events.GetByID(ctx, eventID)
    if err != nil {
        return respondError(c, err)
    }
    var body eventBody
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if body.Name != "" {
        ev.Name = body.Name
    }
    if body.EventType != "" {
        ev.EventType = body.EventType
    }
    if body.Venue != "" {
        ev.Venue = body.Venue
    }
    if body.EventDate != "" {
        ev.EventDate = body.EventDate
    }
    if body.EventTime != "" {
        ev.EventTime = body.EventTime
    }
    if body.PricePerTicket > 0 {
        ev.PricePerTicket = body.PricePerTicket
    }
    if body.Description != nil {
        ev.Description = body.Description
    }
    if body.BannerURL != nil {
        ev.BannerURL = body.BannerURL
    }
    if err := h.Events.Update(ctx, ev); err != nil {
        return respondError(c, err)
    }
    if body.TotalSeats > 0 && body.TotalSeats != ev.TotalSeats {
        if err := h.Bookings.ResizeEvent(ctx, eventID, body.TotalSeats); err != nil {
            return respondError(c, err)
        }
    }
    ev, err = h.Events.GetByID(ctx, eventID)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, ev)
}

// UpdateEventStatus handles PATCH /v1/events/:id/status (admin).  A
// transition to inactive or deleted force-cancels and refunds every
// confirmed booking for the event before the new status is persisted.
func (h *EventHandler) UpdateEventStatus(c echo.Context) error {
    eventID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || eventID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    var body struct {
        Status string `json:"status"`
    }
    if err := c.Bind(&body); err != nil || body.Status == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "status is required"})
    }
    ctx := c.Request().Context()
    if err := h.Bookings.OnEventStatusChange(ctx, eventID, body.Status); err != nil {
        return respondError(c, err)
    }
    // A deleted event is a 404 everywhere else; do not echo its body.
    if body.Status == model.EventDeleted {
        return c.NoContent(http.StatusNoContent)
    }
    ev, err := h.Events.GetByID(ctx, eventID)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, ev)
}

// DeleteEvent handles DELETE /v1/events/:id (admin).  Deletion is a
// soft status change to deleted with the same forced-refund sweep.
func (h *EventHandler) DeleteEvent(c echo.Context) error {
    eventID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || eventID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    if err := h.Bookings.OnEventStatusChange(c.Request().Context(), eventID, model.EventDeleted); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
