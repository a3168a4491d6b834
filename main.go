package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storewatch/aggregate"
	"storewatch/config"
	"storewatch/logging"
	"storewatch/monitor"
	"storewatch/notify"
	"storewatch/scheduler"
	"storewatch/storage"
)

var (
	checkNow = flag.Bool("check", false, "Run one monitoring cycle and exit")
	dryRun   = flag.Bool("dry-run", false, "Run one cycle, print the digest, skip delivery")
	stats    = flag.Bool("stats", false, "Print today's rollups and exit")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logFile, err := logging.Setup(cfg.LogPath)
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	log.Println("Starting storewatch...")

	ctx := context.Background()

	if *stats {
		if err := printStats(ctx, cfg); err != nil {
			log.Fatalf("Stats failed: %v", err)
		}
		return
	}

	// A broken notifier config must surface before any probing starts.
	var notifier notify.Notifier
	if !*dryRun {
		if err := cfg.Notifier.Validate(); err != nil {
			log.Fatalf("Notifier config invalid: %v", err)
		}
		notifier = notify.FromConfig(cfg.Notifier)
	}

	urls, err := config.LoadStoreURLs(cfg.StoreFile)
	if err != nil {
		log.Fatalf("Failed to load store list: %v", err)
	}
	log.Printf("Loaded %d store URL(s) from %s", len(urls), cfg.StoreFile)

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	runner := monitor.New(cfg.Monitor, store, notifier)

	if *checkNow || *dryRun {
		outcome, err := runner.Run(ctx, urls)
		if outcome != nil && *dryRun {
			fmt.Println(outcome.Digest)
		}
		if err != nil {
			log.Fatalf("Run failed: %v", err)
		}
		return
	}

	// Daemon mode
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sched := scheduler.New(cfg.Scheduler, func(ctx context.Context) error {
		_, err := runner.Run(ctx, urls)
		return err
	})
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	log.Println("Daemon running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	sched.Stop()
	log.Println("Goodbye!")
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	retry := storage.DefaultRetryPolicy()
	if cfg.DatabaseURL != "" {
		log.Println("Recording to Postgres")
		return storage.NewPostgres(ctx, cfg.DatabaseURL, retry)
	}
	log.Printf("Recording to SQLite: %s", cfg.DBPath)
	return storage.NewSQLite(cfg.DBPath, retry)
}

func openSource(ctx context.Context, cfg *config.Config) (aggregate.Source, error) {
	if cfg.DatabaseURL != "" {
		return aggregate.OpenPostgres(ctx, cfg.DatabaseURL)
	}
	return aggregate.OpenSQLite(cfg.DBPath)
}

func printStats(ctx context.Context, cfg *config.Config) error {
	src, err := openSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer src.Close()

	now := time.Now()

	statuses, err := src.LatestStatuses(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Latest status (%d stores):\n", len(statuses))
	for _, st := range statuses {
		state := "ONLINE"
		if !st.IsOnline {
			state = "OFFLINE"
		}
		fmt.Printf("  %-8s %s [%s] at %s\n", state, st.Name, st.Platform,
			st.CheckedAt.In(aggregate.ReportZone).Format("15:04:05"))
	}

	slots, err := src.HourlyRollup(ctx, now)
	if err != nil {
		return err
	}
	fmt.Println("\nHourly rollup (today):")
	for _, s := range slots {
		fmt.Printf("  %02d:00  %5.1f%% online  (%d runs)\n", s.Hour, s.OnlinePct, s.Runs)
	}

	uptimes, err := src.DailyUptime(ctx, now)
	if err != nil {
		return err
	}
	fmt.Println("\nDaily uptime (today):")
	for _, u := range uptimes {
		fmt.Printf("  %3d%%  %s [%s] (%d/%d checks online)\n",
			u.UptimePct, u.Name, u.Platform, u.OnlineChecks, u.ChecksToday)
	}
	return nil
}
