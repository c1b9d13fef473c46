package redis

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/kirillkom/lostfound-matcher/internal/core/domain"
)

type memoryStore struct {
	values map[string]string
	ttls   map[string]time.Duration
	getErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (s *memoryStore) Get(_ context.Context, key string) (string, bool, error) {
	if s.getErr != nil {
		return "", false, s.getErr
	}
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *memoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.values[key] = value
	s.ttls[key] = ttl
	return nil
}

func (s *memoryStore) Incr(_ context.Context, key string) (int64, error) {
	n, _ := strconv.ParseInt(s.values[key], 10, 64)
	n++
	s.values[key] = strconv.FormatInt(n, 10)
	return n, nil
}

func sampleReport() *domain.DiscoveryReport {
	return &domain.DiscoveryReport{
		Summary: domain.DiscoverySummary{TotalAnalyzed: 2, TotalPotentialMatches: 1, HighConfidence: 1, NewPotential: 1},
		Matches: []domain.PotentialMatch{{Score: 85, Confidence: domain.ConfidenceHigh, Similarities: []string{"colors: black"}}},
	}
}

func TestDiscoveryCacheRoundTrip(t *testing.T) {
	s := newMemoryStore()
	cache := newDiscoveryCache(s, "")
	ctx := context.Background()
	req := domain.DiscoveryRequest{MinScore: 10, Limit: 100, UserID: "u1"}

	if _, ok, err := cache.Get(ctx, req); ok || err != nil {
		t.Fatalf("expected miss on empty cache, got ok=%v err=%v", ok, err)
	}
	if err := cache.Set(ctx, req, sampleReport(), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, ok, err := cache.Get(ctx, req)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if got.Summary.HighConfidence != 1 || len(got.Matches) != 1 || got.Matches[0].Score != 85 {
		t.Fatalf("unexpected cached report: %+v", got)
	}

	other := req
	other.Category = domain.CategoryBooks
	if _, ok, _ := cache.Get(ctx, other); ok {
		t.Fatalf("different request shape must not share an entry")
	}
	for key, ttl := range s.ttls {
		if ttl != time.Minute {
			t.Fatalf("unexpected ttl for %s: %v", key, ttl)
		}
	}
}

func TestDiscoveryCacheInvalidate(t *testing.T) {
	cache := newDiscoveryCache(newMemoryStore(), "test")
	ctx := context.Background()
	req := domain.DiscoveryRequest{MinScore: 10, Limit: 100}

	if err := cache.Set(ctx, req, sampleReport(), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := cache.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	if _, ok, _ := cache.Get(ctx, req); ok {
		t.Fatalf("expected miss after invalidation")
	}
}

func TestDiscoveryCacheSkipsZeroTTL(t *testing.T) {
	s := newMemoryStore()
	cache := newDiscoveryCache(s, "")
	if err := cache.Set(context.Background(), domain.DiscoveryRequest{}, sampleReport(), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if len(s.values) != 0 {
		t.Fatalf("expected nothing stored, got %v", s.values)
	}
}

func TestDiscoveryCacheGetError(t *testing.T) {
	s := newMemoryStore()
	s.getErr = errors.New("connection refused")
	cache := newDiscoveryCache(s, "")
	if _, _, err := cache.Get(context.Background(), domain.DiscoveryRequest{}); err == nil {
		t.Fatalf("expected error")
	}
}
