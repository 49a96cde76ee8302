package main

import (
	"context"

	"github.com/joho/godotenv"

	"storecatalog/internal/config"
	"storecatalog/internal/db"
	"storecatalog/internal/logger"
	"storecatalog/internal/seed"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log = log.With("cmd", "seed")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, log)
	if err != nil {
		log.Fatal("connect db", "error", err)
	}
	defer pool.Close()

	if err := seed.Apply(ctx, pool, log); err != nil {
		log.Fatal("seed apply", "error", err)
	}
}
