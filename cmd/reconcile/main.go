package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/markjakearzadon/donation-gobackend/internal/app"
	"github.com/markjakearzadon/donation-gobackend/internal/config"
	"github.com/markjakearzadon/donation-gobackend/internal/services"
)

// reconcile settles confirmations that stopped part way. Run it from cron
// when MONGO_TRANSACTIONS is off.
func main() {
	grace := flag.Duration("grace", services.DefaultReconcileGrace, "skip confirmations newer than this")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	store, closeStore, err := app.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer closeStore()

	reconciler := app.NewServices(cfg, store, nil).Reconciler
	reconciler.Grace = *grace
	report, err := reconciler.Run(ctx)
	if err != nil {
		log.Fatalf("Reconcile failed: %v", err)
	}
	for _, f := range report.Failures {
		log.Printf("Not repaired: %s", f)
	}
	if len(report.Failures) > 0 {
		log.Fatalf("%d confirmations still need attention", len(report.Failures))
	}
}
