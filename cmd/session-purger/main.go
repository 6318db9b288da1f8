package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"hezora/internal/config"
	"hezora/internal/db"
	"hezora/internal/session"
)

func main() {
	var every time.Duration
	flag.DurationVar(&every, "every", 0, "Repeat the purge at this interval instead of running once")
	flag.Parse()

	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[session-purger] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	gdb, err := db.ConnectGorm(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	store := session.NewPostgresStore(gdb, cfg.SessionTTL)

	purge := func() {
		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		removed, err := store.PurgeExpired(ctx)
		if err != nil {
			logger.Printf("purge sessions: %v", err)
			return
		}
		logger.Printf("purged %d expired sessions", removed)
	}

	purge()
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for range ticker.C {
		purge()
	}
}
