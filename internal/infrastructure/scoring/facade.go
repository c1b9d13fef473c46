package scoring

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/kirillkom/lostfound-matcher/internal/core/domain"
	"github.com/kirillkom/lostfound-matcher/internal/core/matching"
	"github.com/kirillkom/lostfound-matcher/internal/core/ports"
	"github.com/kirillkom/lostfound-matcher/internal/infrastructure/resilience"
)

const operationModelScore = "model_score_pair"

type Config struct {
	AttemptTimeout time.Duration
	MaxAttempts    int
	BackoffInitial time.Duration
	BackoffMax     time.Duration
	RateLimitRPS   float64
	BreakerEnabled bool
}

func DefaultConfig() Config {
	def := resilience.DefaultConfig()
	return Config{
		AttemptTimeout: def.AttemptTimeout,
		MaxAttempts:    def.RetryMaxAttempts,
		BackoffInitial: def.RetryInitialBackoff,
		BackoffMax:     def.RetryMaxBackoff,
		BreakerEnabled: true,
	}
}

// Facade scores pairs with the external model and always ends in a usable
// result: any failure, an open breaker or a missing model falls back to the
// deterministic scorer. Score never returns an error.
type Facade struct {
	external ports.PairScorer
	classify resilience.ErrorClassifier
	fallback *matching.FallbackScorer
	executor *resilience.Executor
	limiter  *rate.Limiter
}

// NewFacade builds the facade. A nil external scorer puts it in permanent
// fallback mode, which is logged once here.
func NewFacade(external ports.PairScorer, classify resilience.ErrorClassifier, cfg Config) *Facade {
	f := &Facade{
		external: external,
		classify: classify,
		fallback: matching.NewFallbackScorer(),
		executor: resilience.NewExecutor(executorConfig(cfg)),
	}
	if cfg.RateLimitRPS > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), 1)
	}
	if external == nil {
		slog.Warn("ai_scorer_degraded", "reason", "model credential not configured", "mode", "fallback_only")
	}
	return f
}

func executorConfig(cfg Config) resilience.Config {
	out := resilience.DefaultConfig()
	if cfg.MaxAttempts > 0 {
		out.RetryMaxAttempts = cfg.MaxAttempts
	}
	if cfg.AttemptTimeout > 0 {
		out.AttemptTimeout = cfg.AttemptTimeout
	}
	if cfg.BackoffInitial > 0 {
		out.RetryInitialBackoff = cfg.BackoffInitial
	}
	if cfg.BackoffMax > 0 {
		out.RetryMaxBackoff = cfg.BackoffMax
	}
	out.BreakerEnabled = cfg.BreakerEnabled
	return out
}

// Degraded reports whether the facade only ever uses the fallback scorer.
func (f *Facade) Degraded() bool {
	return f.external == nil
}

func (f *Facade) Score(ctx context.Context, lost domain.LostItem, found domain.FoundItem) (domain.ScoreResult, error) {
	if f.external == nil {
		return f.fallback.Evaluate(lost, found), nil
	}

	var result domain.ScoreResult
	attempts, err := f.executor.Execute(ctx, operationModelScore, func(attemptCtx context.Context, attempt int) error {
		if f.limiter != nil {
			if err := f.limiter.Wait(attemptCtx); err != nil {
				return err
			}
		}
		scored, err := f.external.Score(attemptCtx, lost, found)
		if err != nil {
			slog.Warn("ai_attempt_failed",
				"lost_item_id", lost.ID,
				"found_item_id", found.ID,
				"attempt", attempt,
				"error", err,
			)
			return err
		}
		result = scored
		return nil
	}, f.classifier(ctx))

	if err != nil {
		reason := "attempts_exhausted"
		switch {
		case resilience.IsCircuitOpen(err):
			reason = "circuit_open"
		case ctx.Err() != nil:
			reason = "cancelled"
		}
		slog.Warn("ai_scorer_fallback",
			"lost_item_id", lost.ID,
			"found_item_id", found.ID,
			"reason", reason,
			"attempts", attempts,
			"error", err,
		)
		fallback := f.fallback.Evaluate(lost, found)
		fallback.Attempts = attempts
		return fallback, nil
	}

	result.Score = domain.ClampScore(result.Score)
	if result.Similarities == nil {
		result.Similarities = []string{}
	}
	if result.Differences == nil {
		result.Differences = []string{}
	}
	if result.Confidence == "" {
		result.Confidence = domain.ConfidenceMedium
	}
	if result.ProductDetails.UniqueIdentifiers == nil {
		result.ProductDetails.UniqueIdentifiers = []string{}
	}
	result.Source = domain.SourceAI
	result.Attempts = attempts
	return result, nil
}

// classifier retries every failure while the caller is still waiting. The
// breaker accounting comes from the transport classifier.
func (f *Facade) classifier(parent context.Context) resilience.ErrorClassifier {
	return func(err error) resilience.ErrorClassification {
		record := true
		if f.classify != nil {
			record = f.classify(err).RecordFailure
		}
		return resilience.ErrorClassification{
			Retryable:     parent.Err() == nil,
			RecordFailure: record,
		}
	}
}
