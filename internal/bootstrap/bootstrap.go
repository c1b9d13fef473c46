package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kirillkom/lostfound-matcher/internal/config"
	"github.com/kirillkom/lostfound-matcher/internal/core/matching"
	"github.com/kirillkom/lostfound-matcher/internal/core/ports"
	"github.com/kirillkom/lostfound-matcher/internal/core/usecase"
	"github.com/kirillkom/lostfound-matcher/internal/infrastructure/cache/redis"
	"github.com/kirillkom/lostfound-matcher/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/lostfound-matcher/internal/infrastructure/queue/nats"
	"github.com/kirillkom/lostfound-matcher/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/lostfound-matcher/internal/infrastructure/resilience"
	"github.com/kirillkom/lostfound-matcher/internal/infrastructure/scoring"
)

type App struct {
	Config config.Config

	// Queue is nil when NATS_URL is empty.
	Queue  *nats.Queue
	Scorer *scoring.Facade

	Matcher  ports.PairMatcher
	Batch    ports.BatchRunner
	Finder   ports.PotentialFinder
	Analyzer ports.ItemAnalyzer
	Reviewer ports.MatchReviewer

	closeFn func()
}

// New wires the service graph. The database is mandatory; NATS, Redis and the
// model credential are optional and their absence narrows the feature set.
func New(ctx context.Context, cfg config.Config, recorder ports.MatchRecorder) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	closers := []func(){func() { _ = db.Close() }}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	items := postgres.NewItemRepository(db)
	matches := postgres.NewMatchRepository(db)

	var (
		queue  *nats.Queue
		events ports.MatchEvents
	)
	if cfg.NATSURL != "" {
		queue, err = nats.NewWithOptions(cfg.NATSURL, nats.Options{
			BatchSubject:       cfg.NATSBatchSubject,
			EventsSubject:      cfg.NATSEventsSubject,
			ResilienceExecutor: resilience.NewExecutor(resilience.DefaultConfig()),
		})
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("init message queue: %w", err)
		}
		closers = append(closers, queue.Close)
		events = queue
	}

	var cache ports.DiscoveryCache
	if cfg.RedisAddr != "" {
		rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("init discovery cache: %w", err)
		}
		closers = append(closers, closeRedis(rdb))
		cache = redis.NewDiscoveryCache(rdb, redis.DefaultKeyPrefix)
	}

	scorer := scoring.NewFacade(externalScorer(cfg), ollama.ClassifyError, scoring.Config{
		AttemptTimeout: cfg.AIAttemptTimeout,
		MaxAttempts:    cfg.AIMaxAttempts,
		BackoffInitial: cfg.AIBackoffInitial,
		BackoffMax:     cfg.AIBackoffMax,
		RateLimitRPS:   cfg.AIRateLimitRPS,
		BreakerEnabled: cfg.AIBreakerEnabled,
	})
	extractor := matching.NewExtractor()

	batchOpts := usecase.BatchOptions{
		Workers:  cfg.BatchWorkers,
		Locker:   postgres.NewBatchLocker(db),
		Events:   events,
		Cache:    cache,
		Recorder: recorder,
	}

	slog.Info("app_bootstrapped",
		"scorer_mode", scorerMode(scorer),
		"queue_enabled", queue != nil,
		"cache_enabled", cache != nil,
		"batch_workers", cfg.BatchWorkers,
	)

	return &App{
		Config: cfg,
		Queue:  queue,
		Scorer: scorer,

		Matcher:  usecase.NewScoreSingleUseCase(items, matches, scorer, events, cache, recorder),
		Batch:    usecase.NewBatchUseCase(items, matches, scorer, extractor, batchOpts),
		Finder:   usecase.NewDiscoveryUseCase(items, matches, cache, cfg.DiscoveryCacheTTL),
		Analyzer: usecase.NewAnalyzeItemUseCase(items, extractor),
		Reviewer: usecase.NewReviewUseCase(matches, cache),

		closeFn: closeAll,
	}, nil
}

// externalScorer returns nil without a model credential, which keeps the
// facade in fallback mode.
func externalScorer(cfg config.Config) ports.PairScorer {
	client := ollama.New(cfg.ModelURL, cfg.ModelName, cfg.ModelAPIKey)
	if !client.HasCredential() {
		return nil
	}
	return ollama.NewPairMatcher(client)
}

func scorerMode(f *scoring.Facade) string {
	if f.Degraded() {
		return "fallback"
	}
	return "model"
}

func closeRedis(rdb *goredis.Client) func() {
	return func() { _ = rdb.Close() }
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
