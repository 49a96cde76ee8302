package seed

import (
	"context"
	"fmt"

	"github.com/gosimple/slug"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"storecatalog/internal/domain"
	"storecatalog/internal/logger"
	productrepo "storecatalog/internal/repository/product"
	storerepo "storecatalog/internal/repository/store"
	storeproductrepo "storecatalog/internal/repository/storeproduct"
)

type storeWriter interface {
	Upsert(ctx context.Context, s domain.Store) (*domain.Store, error)
}

type productWriter interface {
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
	UpsertVariant(ctx context.Context, v domain.Variant) (*domain.Variant, error)
}

type overrideWriter interface {
	Upsert(ctx context.Context, sp domain.StoreProduct) (*domain.StoreProduct, error)
}

// Writers groups the sinks the fixtures are written through.
type Writers struct {
	Stores    storeWriter
	Products  productWriter
	Overrides overrideWriter
}

type variantSeed struct {
	SKU   string
	Name  string
	Price string
	THC   *float64
}

type overrideSeed struct {
	Store      string
	VariantSKU string
	Price      string
	Stock      *int
	Active     bool
}

type productSeed struct {
	Name         string
	Brand        string
	Category     string
	Strain       string
	DefaultPrice string
	THC          *float64
	CBD          *float64
	Variants     []variantSeed
	Overrides    []overrideSeed
}

var stores = []domain.Store{
	{Slug: "demo", Name: "Demo Dispensary", IsActive: true},
	{Slug: "closed", Name: "Closed Location", IsActive: false},
}

func pct(v float64) *float64 { return &v }

func qty(v int) *int { return &v }

// Fixtures cover the storefront behaviours worth clicking through: a base
// product override, a variant priced only at variant level, a variant whose
// own potency hides the product value, and an out-of-stock listing.
var products = []productSeed{
	{
		Name: "Sour Diesel", Brand: "Acme", Category: "flower", Strain: "sativa",
		DefaultPrice: "20", THC: pct(5),
		Overrides: []overrideSeed{{Store: "demo", Price: "18", Stock: qty(3), Active: true}},
	},
	{
		Name: "Pineapple Express", Brand: "Bolt", Category: "vape", Strain: "hybrid",
		THC:      pct(10),
		Variants: []variantSeed{{SKU: "PE-1G", Name: "1g cartridge", Price: "30"}},
		Overrides: []overrideSeed{
			{Store: "demo", VariantSKU: "PE-1G", Stock: qty(5), Active: true},
		},
	},
	{
		Name: "Blue Dream", Brand: "Acme", Category: "flower", Strain: "hybrid",
		DefaultPrice: "40", THC: pct(5),
		Variants: []variantSeed{
			{SKU: "BD-35", Name: "3.5g", Price: "45", THC: pct(50)},
			{SKU: "BD-7", Name: "7g", Price: "80"},
		},
		Overrides: []overrideSeed{
			{Store: "demo", VariantSKU: "BD-35", Price: "42", Stock: qty(0), Active: true},
			{Store: "demo", VariantSKU: "BD-7", Price: "75", Stock: qty(2), Active: true},
		},
	},
	{
		Name: "Calm CBD Tincture", Brand: "Verde", Category: "tincture",
		DefaultPrice: "35", CBD: pct(20),
		Overrides: []overrideSeed{
			{Store: "demo", Price: "32.50", Stock: qty(12), Active: true},
			{Store: "closed", Price: "30", Stock: qty(4), Active: true},
		},
	},
	{
		Name: "Retired Pre-Roll", Brand: "Bolt", Category: "pre-roll", Strain: "indica",
		DefaultPrice: "9",
		Overrides:    []overrideSeed{{Store: "demo", Price: "8", Stock: qty(10), Active: false}},
	},
}

// Apply inserts demo data for manual testing. It is idempotent via the
// repositories' upserts.
func Apply(ctx context.Context, pool *pgxpool.Pool, log *logger.Logger) error {
	return ApplyWith(ctx, Writers{
		Stores:    storerepo.NewPostgres(pool),
		Products:  productrepo.NewPostgres(pool, log),
		Overrides: storeproductrepo.NewPostgres(pool, log),
	}, log)
}

// ApplyWith writes the fixtures through w.
func ApplyWith(ctx context.Context, w Writers, log *logger.Logger) error {
	log = logger.OrNop(log)

	storeIDs := make(map[string]string, len(stores))
	for _, s := range stores {
		created, err := w.Stores.Upsert(ctx, s)
		if err != nil {
			return fmt.Errorf("ensure store %s: %w", s.Slug, err)
		}
		storeIDs[s.Slug] = created.ID
	}

	for _, ps := range products {
		if err := applyProduct(ctx, w, storeIDs, ps); err != nil {
			return fmt.Errorf("product %s: %w", ps.Name, err)
		}
	}
	log.Info("seed applied", "stores", len(stores), "products", len(products))
	return nil
}

func applyProduct(ctx context.Context, w Writers, storeIDs map[string]string, ps productSeed) error {
	p, err := w.Products.Upsert(ctx, domain.Product{
		Slug:         slug.Make(ps.Name),
		Name:         ps.Name,
		Brand:        ps.Brand,
		Category:     ps.Category,
		Strain:       ps.Strain,
		DefaultPrice: amount(ps.DefaultPrice),
		THCPercent:   ps.THC,
		CBDPercent:   ps.CBD,
		IsActive:     true,
	})
	if err != nil {
		return err
	}

	variantIDs := make(map[string]string, len(ps.Variants))
	for _, vs := range ps.Variants {
		v, err := w.Products.UpsertVariant(ctx, domain.Variant{
			ProductID:  p.ID,
			Name:       vs.Name,
			SKU:        vs.SKU,
			Price:      amount(vs.Price),
			THCPercent: vs.THC,
			Active:     true,
		})
		if err != nil {
			return fmt.Errorf("variant %s: %w", vs.SKU, err)
		}
		variantIDs[vs.SKU] = v.ID
	}

	for _, o := range ps.Overrides {
		sp := domain.StoreProduct{
			StoreID:   storeIDs[o.Store],
			ProductID: p.ID,
			Price:     amount(o.Price),
			Stock:     o.Stock,
			Active:    o.Active,
		}
		if o.VariantSKU != "" {
			id, ok := variantIDs[o.VariantSKU]
			if !ok {
				return fmt.Errorf("override references unknown variant %s", o.VariantSKU)
			}
			sp.VariantID = &id
		}
		if _, err := w.Overrides.Upsert(ctx, sp); err != nil {
			return fmt.Errorf("override %s: %w", o.Store, err)
		}
	}
	return nil
}

func amount(s string) *decimal.Decimal {
	if s == "" {
		return nil
	}
	d := decimal.RequireFromString(s)
	return &d
}
