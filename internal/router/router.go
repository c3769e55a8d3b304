package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/ticketly/ticket-booking/internal/config"
    "github.com/ticketly/ticket-booking/internal/handler"
    "github.com/ticketly/ticket-booking/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication
// on the provided Echo instance: the health check and the public event
// browse endpoints.  The event listing sits behind the Redis response
// cache; rdb may be nil, which disables caching.
func RegisterRoutes(e *echo.Echo, events *handler.EventHandler, cacheCfg config.CacheConfig, rdb *redis.Client) {
    e.GET("/healthz", handler.Health)

    cached := middleware.CacheResponse(cacheCfg, rdb)
    e.GET("/v1/events", events.ListEvents, cached)
    e.GET("/v1/events/:id", events.GetEvent)
}

// RegisterBooking registers the authenticated seat lock and booking
// endpoints under /v1.  All routes require a valid bearer token; the
// mutating routes additionally sit behind the Redis token-bucket rate
// limiter since they reserve real inventory.
func RegisterBooking(e *echo.Echo, locks *handler.LockHandler, bookings *handler.BookingHandler, jwtSecret string, rlCfg config.RateLimitConfig, rdb *redis.Client) {
    auth := e.Group("/v1")
    auth.Use(middleware.JWTAuth(jwtSecret))
    auth.Use(middleware.RequireRole("admin", "user"))
    limited := middleware.RateLimit(rlCfg, rdb)

    // Seat locks: take, inspect, release.
    auth.POST("/locks", locks.CreateLock, limited)
    auth.GET("/locks/:id", locks.GetLock)
    auth.DELETE("/locks/:id", locks.ReleaseLock)

    // Bookings: create (lock-first or implicit), list, cancel.
    auth.POST("/bookings", bookings.CreateBooking, limited)
    auth.GET("/bookings", bookings.ListBookings)
    auth.DELETE("/bookings/:id", bookings.CancelBooking)
}

// RegisterAdmin registers the event management endpoints.  They
// require a bearer token with the admin role.  Status changes and
// deletion run the forced-refund sweep before the new status lands.
func RegisterAdmin(e *echo.Echo, events *handler.EventHandler, jwtSecret string) {
    admin := e.Group("/v1")
    admin.Use(middleware.JWTAuth(jwtSecret))
    admin.Use(middleware.RequireRole("admin"))

    admin.POST("/events", events.CreateEvent)
    admin.PUT("/events/:id", events.UpdateEvent)
    admin.PATCH("/events/:id/status", events.UpdateEventStatus)
    admin.DELETE("/events/:id", events.DeleteEvent)
}
