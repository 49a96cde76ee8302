package popularity

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"storecatalog/internal/domain"
	"storecatalog/internal/logger"
)

const (
	// Window is the number of daily buckets summed into the popular counter.
	Window    = 30
	keyPrefix = "popularity:"
	bucketTTL = (Window + 1) * 24 * time.Hour
	syncChunk = 500
)

type countStore interface {
	ListIDs(ctx context.Context) ([]string, error)
	SetPurchaseCounts(ctx context.Context, counts map[string]int) error
}

// Service keeps per-day purchase counters in Redis and rolls them up into the
// product purchases_30d column that backs the popular sort.
type Service struct {
	rdb      redis.Cmdable
	products countStore
	logger   *logger.Logger
}

func New(rdb redis.Cmdable, products countStore, log *logger.Logger) *Service {
	return &Service{rdb: rdb, products: products, logger: logger.OrNop(log)}
}

// BucketKey names the hash holding purchase counts for the UTC day of t.
func BucketKey(t time.Time) string {
	return keyPrefix + t.UTC().Format("20060102")
}

// Record adds qty purchases of productID to the bucket of at.
func (s *Service) Record(ctx context.Context, productID string, qty int, at time.Time) error {
	if productID == "" {
		return domain.NewValidationError("productId", "is required")
	}
	if qty < 1 {
		return domain.NewValidationError("quantity", "must be at least 1")
	}
	key := BucketKey(at)
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, key, productID, int64(qty))
		pipe.Expire(ctx, key, bucketTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("record purchase: %w", err)
	}
	return nil
}

// Trailing30 sums the last Window daily buckets, today included, for each id.
// Ids without purchases map to zero.
func (s *Service) Trailing30(ctx context.Context, productIDs []string, now time.Time) (map[string]int, error) {
	out := make(map[string]int, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	for _, id := range productIDs {
		out[id] = 0
	}

	// Buckets are UTC days; stepping in local time skips or repeats one across DST.
	now = now.UTC()
	cmds := make([]*redis.SliceCmd, 0, Window)
	_, err := s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for day := 0; day < Window; day++ {
			cmds = append(cmds, pipe.HMGet(ctx, BucketKey(now.AddDate(0, 0, -day)), productIDs...))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read purchase buckets: %w", err)
	}

	for _, cmd := range cmds {
		for i, raw := range cmd.Val() {
			str, ok := raw.(string)
			if !ok {
				continue
			}
			n, err := strconv.Atoi(str)
			if err != nil {
				return nil, fmt.Errorf("bucket value for %s: %w", productIDs[i], err)
			}
			out[productIDs[i]] += n
		}
	}
	return out, nil
}

// Sync writes the trailing counters of every product and returns how many
// products were updated.
func (s *Service) Sync(ctx context.Context, now time.Time) (int, error) {
	ids, err := s.products.ListIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list products: %w", err)
	}
	updated := 0
	for start := 0; start < len(ids); start += syncChunk {
		end := min(start+syncChunk, len(ids))
		counts, err := s.Trailing30(ctx, ids[start:end], now)
		if err != nil {
			return updated, err
		}
		if err := s.products.SetPurchaseCounts(ctx, counts); err != nil {
			return updated, fmt.Errorf("store purchase counts: %w", err)
		}
		updated += len(counts)
	}
	s.logger.Info("popularity synced", "products", updated)
	return updated, nil
}
