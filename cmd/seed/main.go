package main

import (
	"context"
	"flag"
	"log"
	"os"

	"hezora/internal/config"
	"hezora/internal/db"
	bookrepo "hezora/internal/repository/book"
	"hezora/internal/seed"
)

func main() {
	var file string
	flag.StringVar(&file, "file", "", "YAML catalog to load instead of the built-in demo catalog")
	flag.Parse()

	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[seed] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	data := seed.Default()
	if file != "" {
		var err error
		if data, err = os.ReadFile(file); err != nil {
			logger.Fatalf("read catalog: %v", err)
		}
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	n, err := seed.Apply(ctx, bookrepo.NewPostgres(pool, logger), data)
	if err != nil {
		logger.Fatalf("seed apply: %v", err)
	}

	logger.Printf("seed applied: %d books", n)
}
