package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/brightdesk/room-booking-api/internal/adapters/httpapi"
	membookingrepo "github.com/brightdesk/room-booking-api/internal/adapters/memory/bookingrepo"
	memidempotency "github.com/brightdesk/room-booking-api/internal/adapters/memory/idempotency"
	memroomdir "github.com/brightdesk/room-booking-api/internal/adapters/memory/roomdir"
	postgres "github.com/brightdesk/room-booking-api/internal/adapters/postgres"
	pgbookingrepo "github.com/brightdesk/room-booking-api/internal/adapters/postgres/bookingrepo"
	pgidempotency "github.com/brightdesk/room-booking-api/internal/adapters/postgres/idempotency"
	pgroomdir "github.com/brightdesk/room-booking-api/internal/adapters/postgres/roomdir"
	"github.com/brightdesk/room-booking-api/internal/app/bookings"
	platformclock "github.com/brightdesk/room-booking-api/internal/platform/clock"
	"github.com/brightdesk/room-booking-api/internal/platform/config"
	bookingrepoport "github.com/brightdesk/room-booking-api/internal/ports/out/bookingrepo"
	idempotencyport "github.com/brightdesk/room-booking-api/internal/ports/out/idempotency"
	roomdirport "github.com/brightdesk/room-booking-api/internal/ports/out/roomdir"
)

func main() {
	cfg, err := config.LoadAPIConfigFromEnv()
	if err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	clk := platformclock.NewSystemClock()

	var (
		bookingRepo bookingrepoport.Repository
		roomDir     roomdirport.Directory
		idemStore   idempotencyport.Store
		cleanup     func()
	)

	switch cfg.StorageBackend {
	case "postgres":
		pool, err := postgres.NewPool(context.Background(), cfg.DatabaseURL, postgres.PoolOptions{})
		if err != nil {
			log.Fatalf("invalid postgres config: %v", err)
		}
		cleanup = pool.Close

		bookingRepo = pgbookingrepo.NewRepo(pool)
		roomDir = pgroomdir.NewDirectory(pool)
		idemStore = pgidempotency.NewStore(pool, clk, cfg.IdempotencyTTL)
	default:
		bookingRepo = membookingrepo.NewRepo()
		roomDir = memroomdir.NewDirectory(seedRooms()...)
		idemStore = memidempotency.NewStore(clk, cfg.IdempotencyTTL)
	}

	if cleanup != nil {
		defer cleanup()
	}

	svc := bookings.NewService(bookingRepo, roomDir, idemStore, clk)
	handler := httpapi.NewRouter(httpapi.NewServer(svc))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("api listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// seedRooms provides a fixed catalog for the in-memory backend. The postgres
// backend reads rooms from the rooms table instead.
func seedRooms() []roomdirport.Room {
	tz := func(s string) *string { return &s }
	return []roomdirport.Room{
		{ID: "room-einstein", Name: "Einstein", Capacity: 8, Timezone: tz("UTC")},
		{ID: "room-curie", Name: "Curie", Capacity: 4, Timezone: tz("UTC")},
		{ID: "room-newton", Name: "Newton", Capacity: 12, Timezone: tz("Europe/London")},
	}
}
