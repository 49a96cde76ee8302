package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"

	"storecatalog/internal/domain"
	"storecatalog/internal/logger"
)

type ProductWriter interface {
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
	UpsertVariant(ctx context.Context, v domain.Variant) (*domain.Variant, error)
}

type StoreWriter interface {
	GetBySlug(ctx context.Context, slug string) (*domain.Store, error)
	Upsert(ctx context.Context, s domain.Store) (*domain.Store, error)
}

type StoreProductWriter interface {
	Upsert(ctx context.Context, sp domain.StoreProduct) (*domain.StoreProduct, error)
}

// Columns is the expected CSV header.
var Columns = []string{
	"product_key", "name", "brand", "category", "strain", "default_price", "thc", "cbd",
	"variant_sku", "variant_name", "variant_price", "variant_thc", "variant_cbd",
	"store_slug", "store_price", "stock", "active",
}

// Stats counts the rows written by one run.
type Stats struct {
	Products      int
	Variants      int
	StoreProducts int
	StoresCreated int
}

// CSVImporter loads a flat catalog export. Rows sharing a product_key describe
// one product; a variant_sku adds a variant and a store_slug adds the store
// override for (store, product, variant-or-null). Unknown stores are created.
type CSVImporter struct {
	reader    *csv.Reader
	products  ProductWriter
	stores    StoreWriter
	overrides StoreProductWriter
	logger    *logger.Logger

	productIDs map[string]string
	slugKeys   map[string]string
	variantIDs map[string]string
	storeIDs   map[string]string
}

func NewCSVImporter(r io.Reader, products ProductWriter, stores StoreWriter, overrides StoreProductWriter, log *logger.Logger) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{
		reader:     csvr,
		products:   products,
		stores:     stores,
		overrides:  overrides,
		logger:     logger.OrNop(log),
		productIDs: map[string]string{},
		slugKeys:   map[string]string{},
		variantIDs: map[string]string{},
		storeIDs:   map[string]string{},
	}
}

type csvRow struct {
	ProductKey   string
	Name         string
	Brand        string
	Category     string
	Strain       string
	DefaultPrice *decimal.Decimal
	THC          *float64
	CBD          *float64
	VariantSKU   string
	VariantName  string
	VariantPrice *decimal.Decimal
	VariantTHC   *float64
	VariantCBD   *float64
	StoreSlug    string
	StorePrice   *decimal.Decimal
	Stock        *int
	Active       bool
}

// Run reads every row and writes products, variants and store overrides.
func (i *CSVImporter) Run(ctx context.Context) (Stats, error) {
	var stats Stats
	runID := uuid.NewString()
	log := i.logger.With("run_id", runID)

	headers, err := i.reader.Read()
	if err != nil {
		return stats, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["product_key"]; !ok {
		return stats, errors.New("read headers: missing product_key column")
	}
	log.Info("import started", "columns", len(headers))

	for line := 2; ; line++ {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("line %d: read row: %w", line, err)
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		row, err := parseRow(record, index)
		if err != nil {
			return stats, fmt.Errorf("line %d: %w", line, err)
		}
		if row == nil {
			continue
		}
		if err := i.apply(ctx, row, &stats); err != nil {
			return stats, fmt.Errorf("line %d: %w", line, err)
		}
	}

	log.Info("import finished",
		"products", stats.Products,
		"variants", stats.Variants,
		"store_products", stats.StoreProducts,
		"stores_created", stats.StoresCreated,
	)
	return stats, nil
}

func (i *CSVImporter) apply(ctx context.Context, row *csvRow, stats *Stats) error {
	productID, ok := i.productIDs[row.ProductKey]
	if !ok {
		if row.Name == "" {
			return fmt.Errorf("product %q: name is required on its first row", row.ProductKey)
		}
		productSlug := ProductSlug(row.Name, row.ProductKey)
		if other, taken := i.slugKeys[productSlug]; taken {
			return fmt.Errorf("product %q: slug %q already used by product %q", row.ProductKey, productSlug, other)
		}
		p, err := i.products.Upsert(ctx, domain.Product{
			Slug:         productSlug,
			Name:         row.Name,
			Brand:        row.Brand,
			Category:     row.Category,
			Strain:       row.Strain,
			DefaultPrice: row.DefaultPrice,
			THCPercent:   row.THC,
			CBDPercent:   row.CBD,
			IsActive:     true,
		})
		if err != nil {
			return fmt.Errorf("upsert product %q: %w", row.ProductKey, err)
		}
		productID = p.ID
		i.productIDs[row.ProductKey] = productID
		i.slugKeys[productSlug] = row.ProductKey
		stats.Products++
	}

	var variantID *string
	if row.VariantSKU != "" {
		key := row.ProductKey + "\x00" + row.VariantSKU
		id, ok := i.variantIDs[key]
		if !ok {
			v, err := i.products.UpsertVariant(ctx, domain.Variant{
				ProductID:  productID,
				Name:       row.VariantName,
				SKU:        row.VariantSKU,
				Price:      row.VariantPrice,
				THCPercent: row.VariantTHC,
				CBDPercent: row.VariantCBD,
				Active:     true,
			})
			if err != nil {
				return fmt.Errorf("upsert variant %q: %w", row.VariantSKU, err)
			}
			id = v.ID
			i.variantIDs[key] = id
			stats.Variants++
		}
		variantID = &id
	}

	if row.StoreSlug == "" {
		return nil
	}
	storeID, err := i.storeID(ctx, row.StoreSlug, stats)
	if err != nil {
		return err
	}
	if _, err := i.overrides.Upsert(ctx, domain.StoreProduct{
		StoreID:   storeID,
		ProductID: productID,
		VariantID: variantID,
		Price:     row.StorePrice,
		Stock:     row.Stock,
		Active:    row.Active,
	}); err != nil {
		return fmt.Errorf("upsert store product %q/%q: %w", row.StoreSlug, row.ProductKey, err)
	}
	stats.StoreProducts++
	return nil
}

// ProductSlug derives the product slug from its display name and import key.
// Products are upserted on slug, so the key keeps same-named products apart.
func ProductSlug(name, key string) string {
	return slug.Make(name + " " + key)
}

func (i *CSVImporter) storeID(ctx context.Context, storeSlug string, stats *Stats) (string, error) {
	if id, ok := i.storeIDs[storeSlug]; ok {
		return id, nil
	}
	s, err := i.stores.GetBySlug(ctx, storeSlug)
	if errors.Is(err, domain.ErrNotFound) {
		s, err = i.stores.Upsert(ctx, domain.Store{Slug: storeSlug, Name: storeSlug, IsActive: true})
		if err == nil {
			stats.StoresCreated++
			i.logger.Info("created store", "slug", storeSlug, "id", s.ID)
		}
	}
	if err != nil {
		return "", fmt.Errorf("store %q: %w", storeSlug, err)
	}
	i.storeIDs[storeSlug] = s.ID
	return s.ID, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) (*csvRow, error) {
	row := &csvRow{
		ProductKey:  pick(record, index, "product_key"),
		Name:        pick(record, index, "name"),
		Brand:       pick(record, index, "brand"),
		Category:    pick(record, index, "category"),
		Strain:      pick(record, index, "strain"),
		VariantSKU:  pick(record, index, "variant_sku"),
		VariantName: pick(record, index, "variant_name"),
		StoreSlug:   pick(record, index, "store_slug"),
	}
	if row.ProductKey == "" {
		return nil, nil
	}

	var err error
	if row.DefaultPrice, err = optionalDecimal(record, index, "default_price"); err != nil {
		return nil, err
	}
	if row.VariantPrice, err = optionalDecimal(record, index, "variant_price"); err != nil {
		return nil, err
	}
	if row.StorePrice, err = optionalDecimal(record, index, "store_price"); err != nil {
		return nil, err
	}
	for col, dst := range map[string]**float64{
		"thc":         &row.THC,
		"cbd":         &row.CBD,
		"variant_thc": &row.VariantTHC,
		"variant_cbd": &row.VariantCBD,
	} {
		if *dst, err = optionalPercent(record, index, col); err != nil {
			return nil, err
		}
	}
	if raw := pick(record, index, "stock"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("stock: invalid value %q", raw)
		}
		row.Stock = &n
	}
	row.Active = true
	if raw := pick(record, index, "active"); raw != "" {
		if row.Active, err = strconv.ParseBool(raw); err != nil {
			return nil, fmt.Errorf("active: invalid value %q", raw)
		}
	}
	return row, nil
}

func optionalDecimal(record []string, index map[string]int, col string) (*decimal.Decimal, error) {
	raw := pick(record, index, col)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return nil, fmt.Errorf("%s: invalid amount %q", col, raw)
	}
	return &d, nil
}

func optionalPercent(record []string, index map[string]int, col string) (*float64, error) {
	raw := pick(record, index, col)
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 || f > 100 {
		return nil, fmt.Errorf("%s: invalid percent %q", col, raw)
	}
	return &f, nil
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
