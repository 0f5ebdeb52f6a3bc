package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"star-booking-be/internal/bootstrap"
	"star-booking-be/internal/config"
	"star-booking-be/internal/server"
	"star-booking-be/internal/tracer"
	"star-booking-be/pkg/database"
)

func main() {
	// 0. Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer("star-booking-be")
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.App.Environment == "production")
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Start Background Services
	if err := container.ConversationConsumer.Consume(ctx); err != nil {
		log.Printf("Background Consumer Error: %v", err)
	}
	if cfg.Scheduler.Enabled {
		if err := container.Reconciler.Start(); err != nil {
			log.Fatalf("Failed to start reconciliation scheduler: %v", err)
		}
		defer container.Reconciler.Stop()
	}

	// 5. Initialize Server
	srv := server.New(cfg, container)

	go func() {
		<-ctx.Done()
		log.Println("Shutting down server...")
		if err := srv.Shutdown(); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// 6. Run Server
	if err := srv.Run(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
