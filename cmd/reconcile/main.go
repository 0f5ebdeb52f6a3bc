package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"star-booking-be/internal/bootstrap"
	"star-booking-be/internal/config"
	"star-booking-be/pkg/database"

	"github.com/benbjohnson/clock"
)

// reconcile runs a single reconciliation pass and prints the summary.
// With --at the pass evaluates appointments as of that instant.
func main() {
	at := flag.String("at", "", "evaluate as of this RFC3339 instant instead of now")
	flag.Parse()

	cfg := config.Load()

	clk := clock.New()
	if *at != "" {
		t, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			log.Fatalf("Error: invalid --at value %q: %v", *at, err)
		}
		mock := clock.NewMock()
		mock.Set(t)
		clk = mock
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.App.Environment == "production")
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	container := bootstrap.NewContainerWithClock(db, cfg, clk)
	defer container.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	summary, err := container.Reconciler.RunOnce(ctx)
	if err != nil {
		log.Fatalf("Error: reconciliation failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		log.Fatal(err)
	}
}
