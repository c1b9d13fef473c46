package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kirillkom/lostfound-matcher/internal/core/domain"
	"github.com/kirillkom/lostfound-matcher/internal/core/ports"
)

const (
	defaultMatchPageSize = 20
	maxMatchPageSize     = 200
)

type ReviewUseCase struct {
	matches ports.MatchRepository
	cache   ports.DiscoveryCache
}

func NewReviewUseCase(matches ports.MatchRepository, cache ports.DiscoveryCache) *ReviewUseCase {
	return &ReviewUseCase{matches: matches, cache: cache}
}

// ListMatches pages through stored matches, best score first.
func (uc *ReviewUseCase) ListMatches(ctx context.Context, filter domain.MatchFilter) (*domain.MatchPage, error) {
	if filter.Status != "" {
		if _, err := domain.ParseMatchStatus(string(filter.Status)); err != nil {
			return nil, err
		}
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultMatchPageSize
	}
	if filter.Limit > maxMatchPageSize {
		filter.Limit = maxMatchPageSize
	}
	if filter.Skip < 0 {
		filter.Skip = 0
	}

	matches, total, err := uc.matches.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	if matches == nil {
		matches = []domain.Match{}
	}
	return &domain.MatchPage{
		Matches: matches,
		Total:   total,
		Skip:    filter.Skip,
		Limit:   filter.Limit,
		HasMore: filter.Skip+filter.Limit < total,
	}, nil
}

// UpdateStatus applies a reviewer decision to one or more matches and returns
// how many rows changed. A single unknown id is reported as not found.
func (uc *ReviewUseCase) UpdateStatus(ctx context.Context, ids []string, status domain.MatchStatus) (int, error) {
	if _, err := domain.ParseMatchStatus(string(status)); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, domain.WrapError(domain.ErrInvalidInput, "update match status", errors.New("at least one match id is required"))
	}

	updated, err := uc.matches.UpdateStatus(ctx, ids, status)
	if err != nil {
		return 0, fmt.Errorf("update match status: %w", err)
	}
	if updated == 0 && len(ids) == 1 {
		return 0, domain.WrapError(domain.ErrMatchNotFound, "update match status", fmt.Errorf("match %s", ids[0]))
	}
	if updated > 0 && uc.cache != nil {
		if err := uc.cache.Invalidate(ctx); err != nil {
			slog.Warn("discovery_cache_invalidate_failed", "error", err)
		}
	}
	return updated, nil
}

func (uc *ReviewUseCase) Stats(ctx context.Context) (*domain.MatchStats, error) {
	stats, err := uc.matches.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("load match stats: %w", err)
	}
	return stats, nil
}
