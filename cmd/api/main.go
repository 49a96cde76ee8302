package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"storecatalog/internal/config"
	"storecatalog/internal/db"
	"storecatalog/internal/httpserver"
	"storecatalog/internal/logger"
	"storecatalog/internal/observability"
	catalogrepo "storecatalog/internal/repository/catalog"
	productrepo "storecatalog/internal/repository/product"
	storerepo "storecatalog/internal/repository/store"
	catalogsvc "storecatalog/internal/service/catalog"
	popularitysvc "storecatalog/internal/service/popularity"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log = log.With("cmd", "api")

	ctx := context.Background()
	shutdownOtel, err := observability.Init(ctx, log, observability.Config{
		ServiceName: cfg.ServiceName,
		Endpoint:    cfg.OTLPEndpoint,
	})
	if err != nil {
		log.Fatal("init telemetry", "error", err)
	}

	dbpool, err := db.Connect(ctx, cfg.DBConnString, log)
	if err != nil {
		log.Fatal("connect to db", "error", err)
	}
	defer dbpool.Close()

	deps := httpserver.Deps{
		DB:          dbpool,
		Resolver:    catalogsvc.New(catalogrepo.NewPostgres(dbpool, log)),
		Stores:      storerepo.NewPostgres(dbpool),
		CORSOrigins: cfg.CORSAllowOrigins,
		ServiceName: cfg.ServiceName,
	}

	rdb, err := db.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
	if err != nil {
		log.Warn("purchase recording disabled", "error", err)
	} else {
		defer rdb.Close()
		deps.Purchases = popularitysvc.New(rdb, productrepo.NewPostgres(dbpool, log), log)
	}

	srv, err := httpserver.New(cfg.HTTPAddr, log, deps)
	if err != nil {
		log.Fatal("init server", "error", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		log.Info("shutting down", "signal", sig.String())
	case err := <-serverErr:
		log.Error("server error", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	} else {
		log.Info("server stopped")
	}
	if err := shutdownOtel(ctx); err != nil {
		log.Warn("telemetry shutdown", "error", err)
	}
}
