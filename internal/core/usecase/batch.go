package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/lostfound-matcher/internal/core/domain"
	"github.com/kirillkom/lostfound-matcher/internal/core/matching"
	"github.com/kirillkom/lostfound-matcher/internal/core/ports"
)

const defaultBatchWorkers = 4

type BatchOptions struct {
	Workers  int
	Locker   ports.BatchLocker
	Events   ports.MatchEvents
	Cache    ports.DiscoveryCache
	Recorder ports.MatchRecorder
}

type BatchUseCase struct {
	items     ports.ItemRepository
	matches   ports.MatchRepository
	dedup     *Deduplicator
	scorer    ports.PairScorer
	extractor ports.FeatureExtractor
	opts      BatchOptions

	running sync.Mutex
	now     func() time.Time
	newID   func() string
}

func NewBatchUseCase(
	items ports.ItemRepository,
	matches ports.MatchRepository,
	scorer ports.PairScorer,
	extractor ports.FeatureExtractor,
	opts BatchOptions,
) *BatchUseCase {
	if opts.Workers <= 0 {
		opts.Workers = defaultBatchWorkers
	}
	return &BatchUseCase{
		items:     items,
		matches:   matches,
		dedup:     NewDeduplicator(matches),
		scorer:    scorer,
		extractor: extractor,
		opts:      opts,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// batchTally collects per-pair outcomes from concurrent workers.
type batchTally struct {
	mu    sync.Mutex
	stats domain.BatchStats
}

func (t *batchTally) add(fn func(stats *domain.BatchStats)) {
	t.mu.Lock()
	fn(&t.stats)
	t.mu.Unlock()
}

func (uc *BatchUseCase) RunBatch(ctx context.Context, req domain.BatchRequest) (*domain.BatchStats, error) {
	if !uc.running.TryLock() {
		return nil, domain.WrapError(domain.ErrBatchBusy, "run batch", errors.New("a batch run is already active in this process"))
	}
	defer uc.running.Unlock()

	if req.MinScore <= 0 {
		req.MinScore = domain.DefaultMatchMinScore
	}

	var stats *domain.BatchStats
	run := func(ctx context.Context) error {
		var err error
		stats, err = uc.run(ctx, req)
		return err
	}
	if uc.opts.Locker != nil {
		if err := uc.opts.Locker.WithBatchLock(ctx, run); err != nil {
			return nil, err
		}
	} else if err := run(ctx); err != nil {
		return nil, err
	}
	return stats, nil
}

func (uc *BatchUseCase) run(ctx context.Context, req domain.BatchRequest) (*domain.BatchStats, error) {
	started := uc.now()
	filter := domain.ItemFilter{Categories: req.Categories, ActiveOnly: req.ActiveOnly}

	lostItems, err := uc.items.ListLost(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list lost items: %w", err)
	}
	foundItems, err := uc.items.ListFound(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list found items: %w", err)
	}
	if len(lostItems) == 0 || len(foundItems) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "run batch",
			fmt.Errorf("need both lost and found items: got %d lost, %d found", len(lostItems), len(foundItems)))
	}

	tally := &batchTally{}
	candidates := uc.prepareFound(ctx, foundItems, tally)

	for _, lost := range lostItems {
		if err := ctx.Err(); err != nil {
			break
		}
		tally.add(func(s *domain.BatchStats) { s.TotalAnalyzed++ })
		if !lost.Scorable() {
			tally.add(func(s *domain.BatchStats) { s.SkippedItems++ })
			continue
		}
		lost.Item = uc.ensureFeatures(ctx, domain.KindLost, lost.Item)

		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(uc.opts.Workers)
		for _, found := range candidates {
			if skipPair(lost, found) {
				continue
			}
			group.Go(func() error {
				uc.processPair(groupCtx, lost, found, req.MinScore, tally)
				return nil
			})
		}
		_ = group.Wait()
	}

	stats := tally.stats
	if err := ctx.Err(); err != nil {
		slog.Warn("batch_run_interrupted",
			"total_analyzed", stats.TotalAnalyzed,
			"lost_items", len(lostItems),
			"error", err,
		)
	}
	// Pairs already written still count when the caller has gone away.
	finishCtx := context.WithoutCancel(ctx)
	if err := uc.finish(finishCtx, &stats); err != nil {
		return nil, err
	}
	stats.Duration = uc.now().Sub(started)

	if stats.MatchesCreated > 0 && uc.opts.Cache != nil {
		if err := uc.opts.Cache.Invalidate(finishCtx); err != nil {
			slog.Warn("discovery_cache_invalidate_failed", "error", err)
		}
	}
	if uc.opts.Recorder != nil {
		uc.opts.Recorder.RecordBatch(stats)
	}
	slog.Info("batch_run_completed",
		"total_analyzed", stats.TotalAnalyzed,
		"matches_created", stats.MatchesCreated,
		"high_confidence", stats.HighConfidenceMatches,
		"skipped_items", stats.SkippedItems,
		"skipped_existing", stats.SkippedExisting,
		"failed_pairs", stats.FailedPairs,
		"duration_ms", stats.Duration.Milliseconds(),
	)
	return &stats, nil
}

// prepareFound drops unscorable found reports and refreshes stale features once per run.
func (uc *BatchUseCase) prepareFound(ctx context.Context, items []domain.FoundItem, tally *batchTally) []domain.FoundItem {
	out := make([]domain.FoundItem, 0, len(items))
	for _, found := range items {
		if !found.Scorable() {
			tally.add(func(s *domain.BatchStats) { s.SkippedItems++ })
			continue
		}
		found.Item = uc.ensureFeatures(ctx, domain.KindFound, found.Item)
		out = append(out, found)
	}
	return out
}

// ensureFeatures re-extracts when the cached fingerprint is stale. A failed
// write only loses the cache entry; scoring still uses the fresh features.
func (uc *BatchUseCase) ensureFeatures(ctx context.Context, kind domain.ItemKind, item domain.Item) domain.Item {
	if uc.extractor == nil || !matching.NeedsAnalysis(item) {
		return item
	}
	features := uc.extractor.Extract(item)
	if err := uc.items.SaveFeatures(ctx, kind, item.ID, features); err != nil {
		slog.Warn("feature_persist_failed", "kind", kind, "item_id", item.ID, "error", err)
	}
	item.Features = &features
	return item
}

func (uc *BatchUseCase) processPair(ctx context.Context, lost domain.LostItem, found domain.FoundItem, minScore int, tally *batchTally) {
	_, exists, err := uc.dedup.Check(ctx, lost.ID, found.ID)
	if err != nil {
		uc.pairFailed(lost, found, "dedup", err, tally)
		return
	}
	if exists {
		tally.add(func(s *domain.BatchStats) { s.SkippedExisting++ })
		return
	}

	result, err := uc.scorer.Score(ctx, lost, found)
	if err != nil {
		uc.pairFailed(lost, found, "score", err, tally)
		return
	}
	if uc.opts.Recorder != nil {
		uc.opts.Recorder.RecordScore(result.Source, result.Score, result.Attempts)
	}
	if result.Score < minScore {
		return
	}

	match := newMatchRecord(uc.newID(), lost, found, result, uc.now())
	created, err := uc.matches.CreateIfAbsent(ctx, match)
	if err != nil {
		uc.pairFailed(lost, found, "create", err, tally)
		return
	}
	if !created {
		tally.add(func(s *domain.BatchStats) { s.SkippedExisting++ })
		return
	}

	tally.add(func(s *domain.BatchStats) {
		s.MatchesCreated++
		if match.Score >= domain.HighConfidenceScore {
			s.HighConfidenceMatches++
		}
	})
	if uc.opts.Events != nil {
		publishMatchCreated(ctx, uc.opts.Events, *match)
	}
}

func (uc *BatchUseCase) pairFailed(lost domain.LostItem, found domain.FoundItem, stage string, err error, tally *batchTally) {
	slog.Warn("batch_pair_failed",
		"lost_item_id", lost.ID,
		"found_item_id", found.ID,
		"stage", stage,
		"error", err,
	)
	tally.add(func(s *domain.BatchStats) { s.FailedPairs++ })
}

// finish fills the store-wide aggregates: the average covers every stored match.
func (uc *BatchUseCase) finish(ctx context.Context, stats *domain.BatchStats) error {
	summary, err := uc.matches.Stats(ctx)
	if err != nil {
		return fmt.Errorf("load match stats: %w", err)
	}
	stats.TotalMatches = summary.TotalMatches
	stats.AverageScore = summary.AverageScore
	return nil
}
