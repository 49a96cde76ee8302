package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"storecatalog/internal/config"
	"storecatalog/internal/db"
	"storecatalog/internal/importer"
	"storecatalog/internal/logger"
	"storecatalog/internal/repository/product"
	"storecatalog/internal/repository/store"
	"storecatalog/internal/repository/storeproduct"
)

func main() {
	var (
		filePath string
		header   bool
	)
	flag.StringVar(&filePath, "file", "", "Path to catalog CSV")
	flag.BoolVar(&header, "header", false, "Print the expected CSV header and exit")
	flag.Parse()

	if header {
		fmt.Println(strings.Join(importer.Columns, ","))
		return
	}
	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg := config.FromEnv()
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log = log.With("cmd", "importer")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, log)
	if err != nil {
		log.Fatal("connect db", "error", err)
	}
	defer pool.Close()

	f, err := os.Open(filePath)
	if err != nil {
		log.Fatal("open file", "error", err)
	}
	defer f.Close()

	imp := importer.NewCSVImporter(f,
		product.NewPostgres(pool, log),
		store.NewPostgres(pool),
		storeproduct.NewPostgres(pool, log),
		log,
	)

	start := time.Now()
	stats, err := imp.Run(ctx)
	if err != nil {
		log.Fatal("import failed", "error", err, "products", stats.Products)
	}

	fmt.Printf("Imported %d products, %d variants, %d store listings in %s\n",
		stats.Products, stats.Variants, stats.StoreProducts, time.Since(start).Truncate(time.Millisecond))
}
