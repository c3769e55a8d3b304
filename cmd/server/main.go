package main // Entry point package

import (
    "context"
    "log"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "github.com/ticketly/ticket-booking/internal/config"
    "github.com/ticketly/ticket-booking/internal/database"
    "github.com/ticketly/ticket-booking/internal/handler"
    "github.com/ticketly/ticket-booking/internal/queue"
    "github.com/ticketly/ticket-booking/internal/repository"
    "github.com/ticketly/ticket-booking/internal/router"
    "github.com/ticketly/ticket-booking/internal/service"
    "github.com/ticketly/ticket-booking/internal/worker"
)

func main() {
    _ = godotenv.Load() // .env is optional; real env vars win
    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    if err := database.Migrate(context.Background(), db); err != nil {
        log.Fatalf("migrate: %v", err)
    }

    // Redis is optional: without it the rate limiter and the response
    // cache disable themselves and the core keeps working.
    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Printf("redis unavailable, rate limiting and caching disabled")
    }

    eventRepo := repository.NewEventRepo(db)
    lockRepo := repository.NewSeatLockRepo(db)
    bookingRepo := repository.NewBookingRepo(db)

    txr := database.NewTxRunner(db)
    lockSvc := service.NewSeatLockService(txr, eventRepo, lockRepo, cfg.LockTTL)
    bookingSvc := service.NewBookingService(txr, eventRepo, bookingRepo, lockSvc, queue.NewPublisher(cfg.AMQPURL))

    // Reclaim seats stranded by expired locks in the background.  The
    // sweeper is advisory: expiry is also enforced at booking time.
    sweeper := worker.NewSweeper(lockSvc, cfg.SweepInterval)
    sweeper.Start()
    defer sweeper.Stop()

    // Append confirmed bookings to logs/booking.log as they arrive.
    go queue.StartBookingConsumer(cfg.AMQPURL)

    e := echo.New()
    lockHandler := handler.NewLockHandler(lockSvc)
    bookingHandler := handler.NewBookingHandler(bookingSvc, bookingRepo)
    eventHandler := handler.NewEventHandler(eventRepo, bookingSvc)

    router.RegisterRoutes(e, eventHandler, config.LoadCacheConfig(), rdb)
    router.RegisterBooking(e, lockHandler, bookingHandler, cfg.JWTSecret, config.LoadRateLimitConfig(), rdb)
    router.RegisterAdmin(e, eventHandler, cfg.JWTSecret)

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)
    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
