package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"storecatalog/internal/domain"
	"storecatalog/internal/logger"
	catalogsvc "storecatalog/internal/service/catalog"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type catalogResolver interface {
	ResolveListings(ctx context.Context, storeID string, q catalogsvc.ListingQuery) (*domain.ListingPage, error)
	ResolveProductDetail(ctx context.Context, productID, storeID string) (*domain.ProductDetail, error)
	Facets(ctx context.Context, storeID string) (*domain.Facets, error)
}

type purchaseRecorder interface {
	Record(ctx context.Context, productID string, qty int, at time.Time) error
}

// Deps are the collaborators behind the routes. DB and Purchases are optional.
type Deps struct {
	DB          pinger
	Resolver    catalogResolver
	Stores      storeLookup
	Purchases   purchaseRecorder
	CORSOrigins []string
	ServiceName string
}

// buildRouter wires routes for the API.
func buildRouter(log *logger.Logger, deps Deps) (*gin.Engine, error) {
	if deps.Resolver == nil {
		return nil, errors.New("httpserver: resolver is required")
	}
	if deps.Stores == nil {
		return nil, errors.New("httpserver: store lookup is required")
	}
	if deps.ServiceName == "" {
		deps.ServiceName = "storecatalog"
	}
	registerFieldNames()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestID(),
		otelgin.Middleware(deps.ServiceName),
		requestLogger(log),
	)
	if len(deps.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins: deps.CORSOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{"Content-Type", requestIDHeader},
			MaxAge:       12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.DB))

	h := &catalogHandler{resolver: deps.Resolver, logger: log}
	stores := router.Group("/stores/:storeId", storeMiddleware(deps.Stores, log))
	stores.GET("/listings", h.listings)
	stores.GET("/products/:productId", h.productDetail)
	stores.GET("/facets", h.facets)

	if deps.Purchases != nil {
		p := &purchaseHandler{recorder: deps.Purchases, logger: log, now: time.Now}
		router.POST("/purchases", p.record)
	}

	return router, nil
}
