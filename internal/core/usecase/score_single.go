package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/lostfound-matcher/internal/core/domain"
	"github.com/kirillkom/lostfound-matcher/internal/core/ports"
)

type ScoreSingleUseCase struct {
	items    ports.ItemRepository
	matches  ports.MatchRepository
	dedup    *Deduplicator
	scorer   ports.PairScorer
	events   ports.MatchEvents
	cache    ports.DiscoveryCache
	recorder ports.MatchRecorder
	now      func() time.Time
}

func NewScoreSingleUseCase(
	items ports.ItemRepository,
	matches ports.MatchRepository,
	scorer ports.PairScorer,
	events ports.MatchEvents,
	cache ports.DiscoveryCache,
	recorder ports.MatchRecorder,
) *ScoreSingleUseCase {
	return &ScoreSingleUseCase{
		items:    items,
		matches:  matches,
		dedup:    NewDeduplicator(matches),
		scorer:   scorer,
		events:   events,
		cache:    cache,
		recorder: recorder,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ScoreSingle returns the stored match for the pair when one exists and
// otherwise scores the pair and stores the result regardless of score.
func (uc *ScoreSingleUseCase) ScoreSingle(ctx context.Context, lostID, foundID string) (*ports.SingleResult, error) {
	lostID = strings.TrimSpace(lostID)
	foundID = strings.TrimSpace(foundID)
	if lostID == "" || foundID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "score pair", errors.New("lost_item_id and found_item_id are required"))
	}

	lost, err := uc.items.GetLost(ctx, lostID)
	if err != nil {
		return nil, fmt.Errorf("load lost item: %w", err)
	}
	found, err := uc.items.GetFound(ctx, foundID)
	if err != nil {
		return nil, fmt.Errorf("load found item: %w", err)
	}

	if existing, ok, err := uc.dedup.Check(ctx, lost.ID, found.ID); err != nil {
		return nil, err
	} else if ok {
		return &ports.SingleResult{Match: existing, Created: false, Analysis: analysisFromMatch(existing)}, nil
	}

	result, err := uc.scorer.Score(ctx, *lost, *found)
	if err != nil {
		return nil, fmt.Errorf("score pair: %w", err)
	}
	if uc.recorder != nil {
		uc.recorder.RecordScore(result.Source, result.Score, result.Attempts)
	}

	match := newMatchRecord(uuid.NewString(), *lost, *found, result, uc.now())
	created, err := uc.matches.CreateIfAbsent(ctx, match)
	if err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}
	if !created {
		// Lost the insert race; report the row that won.
		existing, ok, err := uc.dedup.Check(ctx, lost.ID, found.ID)
		if err != nil {
			return nil, err
		}
		if ok {
			return &ports.SingleResult{Match: existing, Created: false, Analysis: analysisFromMatch(existing)}, nil
		}
	}

	if created {
		// Cached discovery reports predate this pair.
		if uc.cache != nil {
			if err := uc.cache.Invalidate(ctx); err != nil {
				slog.Warn("discovery_cache_invalidate_failed", "error", err)
			}
		}
		if uc.events != nil {
			publishMatchCreated(ctx, uc.events, *match)
		}
	}
	return &ports.SingleResult{Match: match, Created: created, Analysis: result}, nil
}
