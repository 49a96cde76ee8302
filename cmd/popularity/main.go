package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"storecatalog/internal/config"
	"storecatalog/internal/db"
	"storecatalog/internal/logger"
	productrepo "storecatalog/internal/repository/product"
	popularitysvc "storecatalog/internal/service/popularity"
)

func main() {
	var every time.Duration
	flag.DurationVar(&every, "every", 0, "Repeat the sync at this interval; 0 runs once")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.FromEnv()
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log = log.With("cmd", "popularity")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.DBConnString, log)
	if err != nil {
		log.Fatal("connect db", "error", err)
	}
	defer pool.Close()

	rdb, err := db.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
	if err != nil {
		log.Fatal("connect redis", "error", err)
	}
	defer rdb.Close()

	svc := popularitysvc.New(rdb, productrepo.NewPostgres(pool, log), log)

	if _, err := svc.Sync(ctx, time.Now()); err != nil {
		log.Error("sync failed", "error", err)
		if every == 0 {
			os.Exit(1)
		}
	}
	if every == 0 {
		return
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("stopping")
			return
		case now := <-ticker.C:
			if _, err := svc.Sync(ctx, now); err != nil {
				log.Error("sync failed", "error", err)
			}
		}
	}
}
