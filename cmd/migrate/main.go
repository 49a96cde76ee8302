package main

import (
	"context"

	"github.com/joho/godotenv"

	"storecatalog/internal/config"
	"storecatalog/internal/db"
	"storecatalog/internal/logger"
	"storecatalog/internal/migrate"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log = log.With("cmd", "migrate")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, log)
	if err != nil {
		log.Fatal("connect db", "error", err)
	}
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		log.Fatal("apply migrations", "error", err)
	}

	version, dirty, err := migrate.Version(ctx, pool)
	if err != nil {
		log.Fatal("read migration version", "error", err)
	}
	log.Info("migrations applied", "version", version, "dirty", dirty)
}
