package httpserver

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storecatalog/internal/domain"
	"storecatalog/internal/logger"
)

const requestIDHeader = "X-Request-ID"

type ctxKey string

const (
	storeCtxKey     ctxKey = "store"
	requestIDCtxKey ctxKey = "request_id"
)

type storeLookup interface {
	GetByID(ctx context.Context, id string) (*domain.Store, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Store, error)
}

// requestID propagates X-Request-ID, minting one when the caller sent none.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), requestIDCtxKey, id))
		c.Next()
	}
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDCtxKey).(string)
	return id
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", requestIDFrom(c.Request.Context()),
		}
		switch {
		case status >= 500:
			log.Error("http request", fields...)
		case status >= 400:
			log.Warn("http request", fields...)
		default:
			log.Info("http request", fields...)
		}
	}
}

// storeMiddleware resolves :storeId, by id or slug, to an active store and
// stores it on the request context.
func storeMiddleware(stores storeLookup, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ref := strings.TrimSpace(c.Param("storeId"))
		if ref == "" {
			writeError(c, log, domain.NewValidationError("storeId", "is required"))
			c.Abort()
			return
		}

		var (
			store *domain.Store
			err   error
		)
		if _, parseErr := uuid.Parse(ref); parseErr == nil {
			store, err = stores.GetByID(c.Request.Context(), ref)
		} else {
			store, err = stores.GetBySlug(c.Request.Context(), ref)
		}
		if err == nil && !store.IsActive {
			err = domain.ErrNotFound
		}
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				err = &domain.SourceError{Op: "lookup store", Err: err}
			}
			writeError(c, log, err)
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), storeCtxKey, store))
		c.Next()
	}
}

func storeFrom(c *gin.Context) (*domain.Store, bool) {
	s, ok := c.Request.Context().Value(storeCtxKey).(*domain.Store)
	return s, ok && s != nil
}

var errNoStore = errors.New("store missing from request context")

func mustStore(c *gin.Context, log *logger.Logger) (*domain.Store, bool) {
	s, ok := storeFrom(c)
	if !ok {
		writeError(c, log, errNoStore)
		return nil, false
	}
	return s, true
}
