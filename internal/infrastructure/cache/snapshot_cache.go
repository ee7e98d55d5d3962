package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/steelerp/backend/internal/domain/allocation"
)

// SnapshotCache caches batch snapshots keyed by product and warehouse.
// A miss or backend failure is reported as (nil, false) so callers fall
// through to the ledger; the cache is never a source of errors.
type SnapshotCache interface {
	Get(ctx context.Context, productID, warehouseID int64) ([]allocation.Batch, bool)
	Set(ctx context.Context, productID, warehouseID int64, batches []allocation.Batch)
	Invalidate(ctx context.Context, productID, warehouseID int64)
}

func snapshotKey(prefix string, productID, warehouseID int64) string {
	return fmt.Sprintf("%sp%d:w%d", prefix, productID, warehouseID)
}

// RedisSnapshotCache implements SnapshotCache on Redis, suitable for
// distributed deployments where multiple instances share snapshot state.
type RedisSnapshotCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisSnapshotCache creates a Redis-backed snapshot cache and verifies
// the connection.
func NewRedisSnapshotCache(cfg RedisConfig) (*RedisSnapshotCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisSnapshotCacheWithClient(client, "", cfg.TTL), nil
}

// NewRedisSnapshotCacheWithClient creates a cache with an existing Redis
// client. Useful for testing or when sharing a client across components.
func NewRedisSnapshotCacheWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisSnapshotCache {
	if keyPrefix == "" {
		keyPrefix = "stock:snapshot:"
	}
	if ttl == 0 {
		ttl = 30 * time.Second
	}
	return &RedisSnapshotCache{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// cachedBatch is the wire form of a batch in Redis. Decimals serialize as
// strings so no precision is lost on the round trip.
type cachedBatch struct {
	ID                int64  `json:"id"`
	BatchNumber       string `json:"batchNumber"`
	QuantityAvailable string `json:"quantityAvailable"`
	UnitCost          string `json:"unitCost"`
	Channel           string `json:"channel"`
	HeatNumber        string `json:"heatNumber,omitempty"`
}

// Get implements SnapshotCache
func (c *RedisSnapshotCache) Get(ctx context.Context, productID, warehouseID int64) ([]allocation.Batch, bool) {
	data, err := c.client.Get(ctx, snapshotKey(c.keyPrefix, productID, warehouseID)).Bytes()
	if err != nil {
		return nil, false
	}

	var cached []cachedBatch
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false
	}

	batches := make([]allocation.Batch, 0, len(cached))
	for _, cb := range cached {
		batch, err := cb.toDomain()
		if err != nil {
			return nil, false
		}
		batches = append(batches, batch)
	}
	return batches, true
}

// Set implements SnapshotCache
func (c *RedisSnapshotCache) Set(ctx context.Context, productID, warehouseID int64, batches []allocation.Batch) {
	cached := make([]cachedBatch, 0, len(batches))
	for _, b := range batches {
		cached = append(cached, cachedBatch{
			ID:                b.ID,
			BatchNumber:       b.BatchNumber,
			QuantityAvailable: b.QuantityAvailable.String(),
			UnitCost:          b.UnitCost.String(),
			Channel:           string(b.Channel),
			HeatNumber:        b.HeatNumber,
		})
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return
	}
	c.client.Set(ctx, snapshotKey(c.keyPrefix, productID, warehouseID), data, c.ttl)
}

// Invalidate implements SnapshotCache
func (c *RedisSnapshotCache) Invalidate(ctx context.Context, productID, warehouseID int64) {
	c.client.Del(ctx, snapshotKey(c.keyPrefix, productID, warehouseID))
}

// Close closes the Redis client
func (c *RedisSnapshotCache) Close() error {
	return c.client.Close()
}

func (cb cachedBatch) toDomain() (allocation.Batch, error) {
	qty, err := decimal.NewFromString(cb.QuantityAvailable)
	if err != nil {
		return allocation.Batch{}, err
	}
	cost, err := decimal.NewFromString(cb.UnitCost)
	if err != nil {
		return allocation.Batch{}, err
	}
	return allocation.Batch{
		ID:                cb.ID,
		BatchNumber:       cb.BatchNumber,
		QuantityAvailable: qty,
		UnitCost:          cost,
		Channel:           allocation.NormalizeChannel(cb.Channel),
		HeatNumber:        cb.HeatNumber,
	}, nil
}

var _ SnapshotCache = (*RedisSnapshotCache)(nil)
