package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"schoolattend/internal/attendance"
	"schoolattend/internal/config"
	"schoolattend/internal/metrics"
	"schoolattend/internal/schedule"
	"schoolattend/internal/store"
	"schoolattend/internal/user"
)

// Sweeper backfills ABSENT rows for users with no attendance record.
// By default it runs once and exits, meant to be triggered by cron at
// end of day; SWEEP_INTERVAL turns it into a looping daemon.
func main() {
	cfg := config.Load()

	sched := schedule.Default()
	if cfg.ScheduleFile != "" {
		loaded, err := schedule.Load(cfg.ScheduleFile)
		if err != nil {
			log.Fatalf("schedule config: %v", err)
		}
		sched = loaded
	}
	loc, err := sched.Location()
	if err != nil {
		log.Fatalf("timezone: %v", err)
	}

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	users := user.NewRepository(db.Client)
	records := attendance.NewRepository(db.Client)
	svc := attendance.NewService(users, records, sched, loc, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	sweep := func() {
		marked, err := svc.MarkAbsent(ctx)
		if err != nil {
			log.Printf("sweep failed: %v", err)
			return
		}
		metrics.SweepMarked.Add(float64(marked))
		log.Printf("sweep complete: %d users marked absent", marked)
	}

	sweep()
	if cfg.SweepInterval <= 0 {
		return
	}

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			sweep()
		case <-ctx.Done():
			log.Println("sweeper stopped")
			return
		}
	}
}
