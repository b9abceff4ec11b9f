// Package cache provides Redis-backed cache invalidation for stock read aggregates.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/stock"
	"stockledger/pkg/logger"
)

const scanBatch = 100

// Config holds invalidation settings.
type Config struct {
	// KeyPrefix namespaces every aggregate key: <prefix>:<tenant>:...
	KeyPrefix string

	// Channel receives one notice per invalidation. Empty disables publishing.
	Channel string
}

// DefaultConfig returns the default key layout.
func DefaultConfig() Config {
	return Config{KeyPrefix: "stock", Channel: "stock:invalidate"}
}

// AggregateKey builds the cache key of a tenant-scoped read aggregate.
func AggregateKey(prefix string, tenantID id.ID, parts ...string) string {
	return strings.Join(append([]string{prefix, tenantID.String()}, parts...), ":")
}

// Notice is the payload published on the invalidation channel.
type Notice struct {
	TenantID  string    `json:"tenantId"`
	BranchIDs []string  `json:"branchIds"`
	Deleted   int64     `json:"deleted"`
	At        time.Time `json:"at"`
}

// RedisInvalidator drops every cached aggregate of a tenant and publishes a notice.
type RedisInvalidator struct {
	client redis.UniversalClient
	cfg    Config
	now    func() time.Time
}

// NewRedisInvalidator creates an invalidator over client.
func NewRedisInvalidator(client redis.UniversalClient, cfg Config) *RedisInvalidator {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultConfig().KeyPrefix
	}
	return &RedisInvalidator{client: client, cfg: cfg, now: time.Now}
}

var _ stock.Invalidator = (*RedisInvalidator)(nil)

// Invalidate deletes <prefix>:<tenant>:* and publishes a Notice.
func (r *RedisInvalidator) Invalidate(ctx context.Context, tenantID id.ID, branchIDs ...id.ID) error {
	pattern := AggregateKey(r.cfg.KeyPrefix, tenantID, "*")

	deleted, err := r.deleteMatching(ctx, pattern)
	if err != nil {
		return fmt.Errorf("invalidate %s: %w", pattern, err)
	}

	logger.Debug(ctx, "stock cache invalidated",
		"pattern", pattern,
		"deleted", deleted)

	if r.cfg.Channel == "" {
		return nil
	}

	notice := Notice{
		TenantID:  tenantID.String(),
		BranchIDs: make([]string, 0, len(branchIDs)),
		Deleted:   deleted,
		At:        r.now().UTC(),
	}
	for _, b := range branchIDs {
		notice.BranchIDs = append(notice.BranchIDs, b.String())
	}

	payload, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("marshal invalidation notice: %w", err)
	}
	if err := r.client.Publish(ctx, r.cfg.Channel, payload).Err(); err != nil {
		return fmt.Errorf("publish invalidation notice: %w", err)
	}
	return nil
}

func (r *RedisInvalidator) deleteMatching(ctx context.Context, pattern string) (int64, error) {
	var (
		deleted int64
		batch   = make([]string, 0, scanBatch)
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := r.client.Del(ctx, batch...).Result()
		if err != nil {
			return err
		}
		deleted += n
		batch = batch[:0]
		return nil
	}

	iter := r.client.Scan(ctx, 0, pattern, scanBatch).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := flush(); err != nil {
				return deleted, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, err
	}
	return deleted, flush()
}

// ClientConfig holds Redis connection settings.
type ClientConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, cfg ClientConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return client, nil
}
