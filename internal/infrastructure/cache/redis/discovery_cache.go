package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/kirillkom/lostfound-matcher/internal/core/domain"
	"github.com/redis/go-redis/v9"
)

const DefaultKeyPrefix = "lostfound:discovery"

// DiscoveryCache stores discovery reports under a generation counter.
// Invalidate bumps the generation so older entries are never read again
// and expire on their own TTL.
type DiscoveryCache struct {
	store  store
	prefix string
}

func NewDiscoveryCache(rdb *redis.Client, prefix string) *DiscoveryCache {
	return newDiscoveryCache(clientStore{rdb: rdb}, prefix)
}

func newDiscoveryCache(s store, prefix string) *DiscoveryCache {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &DiscoveryCache{store: s, prefix: prefix}
}

func (c *DiscoveryCache) Get(ctx context.Context, req domain.DiscoveryRequest) (*domain.DiscoveryReport, bool, error) {
	key, err := c.reportKey(ctx, req)
	if err != nil {
		return nil, false, err
	}
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("redis get discovery report: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	var report domain.DiscoveryReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil, false, fmt.Errorf("decode cached discovery report: %w", err)
	}
	if report.Matches == nil {
		report.Matches = []domain.PotentialMatch{}
	}
	return &report, true, nil
}

func (c *DiscoveryCache) Set(ctx context.Context, req domain.DiscoveryRequest, report *domain.DiscoveryReport, ttl time.Duration) error {
	if report == nil || ttl <= 0 {
		return nil
	}
	key, err := c.reportKey(ctx, req)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode discovery report: %w", err)
	}
	if err := c.store.Set(ctx, key, string(payload), ttl); err != nil {
		return fmt.Errorf("redis set discovery report: %w", err)
	}
	return nil
}

func (c *DiscoveryCache) Invalidate(ctx context.Context) error {
	if _, err := c.store.Incr(ctx, c.generationKey()); err != nil {
		return fmt.Errorf("redis bump discovery generation: %w", err)
	}
	return nil
}

func (c *DiscoveryCache) generationKey() string {
	return c.prefix + ":gen"
}

func (c *DiscoveryCache) reportKey(ctx context.Context, req domain.DiscoveryRequest) (string, error) {
	gen, ok, err := c.store.Get(ctx, c.generationKey())
	if err != nil {
		return "", fmt.Errorf("redis get discovery generation: %w", err)
	}
	if !ok {
		gen = "0"
	}
	return c.prefix + ":" + gen + ":" + requestDigest(req), nil
}

func requestDigest(req domain.DiscoveryRequest) string {
	h := sha256.New()
	h.Write([]byte(strconv.Itoa(req.MinScore)))
	h.Write([]byte{0})
	h.Write([]byte(req.Category))
	h.Write([]byte{0})
	h.Write([]byte(req.UserID))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(req.Limit)))
	return hex.EncodeToString(h.Sum(nil))[:32]
}
