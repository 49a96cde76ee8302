package catalog

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"storecatalog/internal/domain"
	catalogrepo "storecatalog/internal/repository/catalog"
)

const instrumentationName = "storecatalog/internal/service/catalog"

// Resolver computes effective listings for one store at a time. It keeps no
// mutable state and is safe for concurrent use.
type Resolver struct {
	source   catalogrepo.Repository
	tracer   trace.Tracer
	requests metric.Int64Counter
}

func New(source catalogrepo.Repository) *Resolver {
	requests, err := otel.Meter(instrumentationName).Int64Counter(
		"catalog.resolver.requests",
		metric.WithDescription("Resolver calls by operation and outcome"),
	)
	if err != nil {
		requests, _ = noop.NewMeterProvider().Meter(instrumentationName).Int64Counter("catalog.resolver.requests")
	}
	return &Resolver{
		source:   source,
		tracer:   otel.Tracer(instrumentationName),
		requests: requests,
	}
}

// ResolveListings returns one page of effective listings for storeID.
func (r *Resolver) ResolveListings(ctx context.Context, storeID string, q ListingQuery) (_ *domain.ListingPage, err error) {
	ctx, span := r.tracer.Start(ctx, "catalog.ResolveListings", trace.WithAttributes(attribute.String("store.id", storeID)))
	defer func() { r.finish(ctx, span, "listings", err) }()

	if strings.TrimSpace(storeID) == "" {
		return nil, domain.NewValidationError("storeId", "is required")
	}
	q = q.withDefaults()
	if err := q.Validate(); err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("query.page", q.Page),
		attribute.Int("query.limit", q.Limit),
		attribute.String("query.sort", string(q.Sort)),
	)

	rows, total, err := r.source.FindListings(ctx, BuildCriteria(storeID, q), q.Sort, q.Window())
	if err != nil {
		return nil, &domain.SourceError{Op: "find listings", Err: err}
	}

	items := make([]domain.EffectiveListing, 0, len(rows))
	for _, row := range rows {
		items = append(items, domain.NewEffectiveListing(row))
	}
	span.SetAttributes(attribute.Int("result.total", total), attribute.Int("result.count", len(items)))
	return &domain.ListingPage{
		Items:      items,
		Page:       q.Page,
		Limit:      q.Limit,
		Total:      total,
		TotalPages: domain.TotalPages(total, q.Limit),
	}, nil
}

// ResolveProductDetail resolves every active variant of a product, or the
// implicit base variant when it has none, against the store's overrides.
func (r *Resolver) ResolveProductDetail(ctx context.Context, productID, storeID string) (_ *domain.ProductDetail, err error) {
	ctx, span := r.tracer.Start(ctx, "catalog.ResolveProductDetail", trace.WithAttributes(
		attribute.String("store.id", storeID),
		attribute.String("product.id", productID),
	))
	defer func() { r.finish(ctx, span, "detail", err) }()

	if strings.TrimSpace(storeID) == "" {
		return nil, domain.NewValidationError("storeId", "is required")
	}
	if strings.TrimSpace(productID) == "" {
		return nil, domain.ErrNotFound
	}

	p, err := r.source.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, &domain.SourceError{Op: "get product", Err: err}
	}
	if !p.IsActive {
		return nil, domain.ErrNotFound
	}
	overrides, err := r.source.ListStoreProducts(ctx, storeID, productID)
	if err != nil {
		return nil, &domain.SourceError{Op: "list store products", Err: err}
	}

	refs := make([]domain.VariantRef, 0, len(p.Variants))
	for _, v := range p.Variants {
		refs = append(refs, domain.SomeVariant(v))
	}
	if len(refs) == 0 {
		refs = append(refs, domain.NoVariant())
	}

	detail := &domain.ProductDetail{
		ProductID: p.ID,
		StoreID:   storeID,
		Slug:      p.Slug,
		Name:      p.Name,
		Brand:     p.Brand,
		Category:  p.Category,
		Strain:    p.Strain,
		Variants:  make([]domain.DetailVariant, 0, len(refs)),
	}
	for _, ref := range refs {
		detail.Variants = append(detail.Variants, domain.NewDetailVariant(*p, ref, findOverride(overrides, ref.ID())))
	}
	return detail, nil
}

// Facets returns the filter metadata of a store's active listings.
func (r *Resolver) Facets(ctx context.Context, storeID string) (_ *domain.Facets, err error) {
	ctx, span := r.tracer.Start(ctx, "catalog.Facets", trace.WithAttributes(attribute.String("store.id", storeID)))
	defer func() { r.finish(ctx, span, "facets", err) }()

	if strings.TrimSpace(storeID) == "" {
		return nil, domain.NewValidationError("storeId", "is required")
	}
	f, err := r.source.Facets(ctx, storeID)
	if err != nil {
		return nil, &domain.SourceError{Op: "facets", Err: err}
	}
	return f, nil
}

func (r *Resolver) finish(ctx context.Context, span trace.Span, op string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		outcome = "not_found"
	case errors.Is(err, domain.ErrSourceUnavailable):
		outcome = "source_error"
		span.RecordError(err)
		span.SetStatus(codes.Error, "record source failed")
	default:
		outcome = "invalid"
	}
	r.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("outcome", outcome),
	))
	span.End()
}

func findOverride(overrides []domain.StoreProduct, variantID *string) *domain.StoreProduct {
	for i := range overrides {
		if overrides[i].SameVariant(variantID) {
			return &overrides[i]
		}
	}
	return nil
}
