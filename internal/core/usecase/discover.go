package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/kirillkom/lostfound-matcher/internal/core/domain"
	"github.com/kirillkom/lostfound-matcher/internal/core/matching"
	"github.com/kirillkom/lostfound-matcher/internal/core/ports"
)

type DiscoveryUseCase struct {
	items    ports.ItemRepository
	dedup    *Deduplicator
	overlap  *matching.OverlapScorer
	cache    ports.DiscoveryCache
	cacheTTL time.Duration
}

func NewDiscoveryUseCase(
	items ports.ItemRepository,
	matches ports.MatchRepository,
	cache ports.DiscoveryCache,
	cacheTTL time.Duration,
) *DiscoveryUseCase {
	return &DiscoveryUseCase{
		items:    items,
		dedup:    NewDeduplicator(matches),
		overlap:  matching.NewOverlapScorer(),
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

// DiscoverPotential ranks candidate pairs without writing anything. Pairs that
// already have a match are reported with the stored score and status.
func (uc *DiscoveryUseCase) DiscoverPotential(ctx context.Context, req domain.DiscoveryRequest) (*domain.DiscoveryReport, error) {
	req = normalizeDiscovery(req)

	if uc.cache != nil && uc.cacheTTL > 0 {
		report, ok, err := uc.cache.Get(ctx, req)
		if err != nil {
			slog.Warn("discovery_cache_read_failed", "error", err)
		} else if ok {
			return report, nil
		}
	}

	lostFilter := domain.ItemFilter{UserID: req.UserID, Limit: req.Limit}
	foundFilter := domain.ItemFilter{}
	if req.Category != "" {
		lostFilter.Categories = []domain.Category{req.Category}
		foundFilter.Categories = []domain.Category{req.Category}
	}

	lostItems, err := uc.items.ListLost(ctx, lostFilter)
	if err != nil {
		return nil, fmt.Errorf("list lost items: %w", err)
	}
	report := &domain.DiscoveryReport{Matches: []domain.PotentialMatch{}}
	if len(lostItems) == 0 {
		return report, nil
	}
	foundItems, err := uc.items.ListFound(ctx, foundFilter)
	if err != nil {
		return nil, fmt.Errorf("list found items: %w", err)
	}

	for _, lost := range lostItems {
		report.Summary.TotalAnalyzed++
		if !lost.Scorable() {
			continue
		}
		for _, found := range foundItems {
			if !found.Scorable() || skipPair(lost, found) {
				continue
			}
			candidate, ok, err := uc.evaluate(ctx, lost, found, req.MinScore)
			if err != nil {
				return nil, err
			}
			if ok {
				report.Matches = append(report.Matches, candidate)
			}
		}
	}

	sort.SliceStable(report.Matches, func(i, j int) bool {
		return report.Matches[i].Score > report.Matches[j].Score
	})
	summarize(report)

	if uc.cache != nil && uc.cacheTTL > 0 {
		if err := uc.cache.Set(ctx, req, report, uc.cacheTTL); err != nil {
			slog.Warn("discovery_cache_write_failed", "error", err)
		}
	}
	return report, nil
}

func (uc *DiscoveryUseCase) evaluate(ctx context.Context, lost domain.LostItem, found domain.FoundItem, minScore int) (domain.PotentialMatch, bool, error) {
	existing, ok, err := uc.dedup.Check(ctx, lost.ID, found.ID)
	if err != nil {
		return domain.PotentialMatch{}, false, err
	}

	result := uc.overlap.Compare(lost.Item, found.Item)
	candidate := domain.PotentialMatch{
		LostItem:          lost,
		FoundItem:         found,
		Score:             result.Score,
		Similarities:      result.Matched,
		Rationale:         result.Rationale,
		Confidence:        domain.ConfidenceForScore(result.Score),
		FeatureConfidence: result.FeatureConfidence,
	}
	if ok {
		candidate.Score = existing.Score
		candidate.Similarities = nonNil(existing.Similarities)
		candidate.Rationale = existing.Recommendation
		candidate.Confidence = existing.Confidence
		candidate.ExistingStatus = existing.Status
		candidate.ExistingMatchID = existing.ID
		return candidate, true, nil
	}
	return candidate, candidate.Score >= minScore, nil
}

func normalizeDiscovery(req domain.DiscoveryRequest) domain.DiscoveryRequest {
	if req.MinScore <= 0 {
		req.MinScore = domain.DefaultPotentialMinScore
	}
	if req.Limit <= 0 {
		req.Limit = domain.DefaultDiscoveryLimit
	}
	return req
}

func summarize(report *domain.DiscoveryReport) {
	report.Summary.TotalPotentialMatches = len(report.Matches)
	for _, m := range report.Matches {
		switch domain.ConfidenceForScore(m.Score) {
		case domain.ConfidenceHigh:
			report.Summary.HighConfidence++
		case domain.ConfidenceMedium:
			report.Summary.MediumConfidence++
		default:
			report.Summary.LowConfidence++
		}
		if m.IsExisting() {
			report.Summary.ExistingMatches++
		} else {
			report.Summary.NewPotential++
		}
	}
}
