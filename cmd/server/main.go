package main // Entry point package

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/arclive/gym-occupancy/internal/config"
	"github.com/arclive/gym-occupancy/internal/database"
	"github.com/arclive/gym-occupancy/internal/handler"
	"github.com/arclive/gym-occupancy/internal/middleware"
	"github.com/arclive/gym-occupancy/internal/queue"
	"github.com/arclive/gym-occupancy/internal/repository"
	"github.com/arclive/gym-occupancy/internal/router"
	"github.com/arclive/gym-occupancy/internal/service"
)

func main() {
	cfg := config.Load() // Load .env + environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Repositories share the one pool; the pool is the only shared
	// mutable resource between request handlers and the sweeper.
	visitRepo := repository.NewVisitRepo(db)
	statsRepo := repository.NewStatsRepo(db)

	publisher := service.AMQPPublisher{}
	visits := service.NewVisitService(visitRepo, publisher)
	stats := service.NewStatsService(visitRepo, statsRepo)

	// The sweeper is owned by process lifecycle: started here, stopped
	// via context cancellation at shutdown.
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	sweeper := service.NewSweeper(visitRepo, publisher, cfg.SweepInterval, cfg.VisitMaxAge)
	go sweeper.Run(sweepCtx)

	// Background consumer that mirrors closed visits to logs/visits.log.
	go func() {
		if err := queue.StartVisitConsumer(); err != nil {
			log.Printf("visit-consumer: %v", err)
		}
	}()

	// Redis backs rate limiting and response caching; when it is not
	// reachable both middlewares degrade to pass-throughs.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and caching disabled")
	}
	// Lifecycle writes keep the tight 10/min budget; the polled read
	// endpoints get a looser one.
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	readLimiter := middleware.NewTokenBucket(config.LoadReadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost},
	}))

	router.RegisterRoutes(e)
	router.RegisterVisits(e, handler.NewVisitHandler(visits), cfg.JWTSecret, limiter)
	router.RegisterReads(e, handler.NewOccupancyHandler(stats), handler.NewStatsHandler(stats), cfg.JWTSecret, readLimiter, cache)
	router.RegisterDevices(e, handler.NewDeviceHandler(cfg.JWTSecret, cfg.DeviceTokenTTLDays), limiter)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// Block until SIGINT/SIGTERM, then stop the sweeper and drain the
	// HTTP server. In-flight closes are single-row atomic updates, so
	// interrupting a sweep tick cannot corrupt a visit.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	stopSweeper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
