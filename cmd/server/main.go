package main // Entry point package

import (
	"log"  // Logging library
	"time" // session TTL construction

	"github.com/joho/godotenv"    // .env loading for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/stay-reservation/internal/config"   // Internal config loader
	"github.com/iliyamo/stay-reservation/internal/database" // MySQL connection
	"github.com/iliyamo/stay-reservation/internal/handler"
	"github.com/iliyamo/stay-reservation/internal/payment"
	"github.com/iliyamo/stay-reservation/internal/queue"
	"github.com/iliyamo/stay-reservation/internal/repository"
	"github.com/iliyamo/stay-reservation/internal/router" // Internal router setup
	queue_publisher "github.com/iliyamo/stay-reservation/internal/service"
	"github.com/iliyamo/stay-reservation/internal/session"
	"github.com/iliyamo/stay-reservation/internal/token"
)

func main() {
	_ = godotenv.Load() // best effort; real deployments set env directly

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	// Redis backs rate limiting and the response cache; nil means
	// both degrade to no-ops.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and caching disabled")
	}

	bookings := repository.NewBookingRepo(db)
	properties := repository.NewPropertyRepo(db)
	tenants := repository.NewTenantRepo(db)
	users := repository.NewUserRepo(db)

	codec := token.NewCodec(cfg.JWTSecret, time.Duration(cfg.SessionTTLMin)*time.Minute, nil)
	sessions := session.New(
		bookings,
		properties,
		users,
		payment.NewSessionStarter(),
		queue_publisher.PublishGuestAction,
		codec,
		cfg.BcryptCost,
		nil,
	)

	// Consume guest action events in the background (reconnects on
	// broker failure).
	go func() {
		if err := queue.StartGuestConsumer(); err != nil {
			log.Printf("guest consumer stopped: %v", err)
		}
	}()

	e := echo.New() // Create Echo instance
	router.RegisterRoutes(e)
	router.RegisterGuest(e, handler.NewGuestHandler(sessions), tenants, rdb)
	router.RegisterPublic(e, handler.NewQuoteHandler(properties), tenants, rdb)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
