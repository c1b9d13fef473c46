package ports

import (
	"context"
	"time"

	"github.com/kirillkom/lostfound-matcher/internal/core/domain"
)

// ItemRepository reads lost and found reports and stores their cached features.
type ItemRepository interface {
	GetLost(ctx context.Context, id string) (*domain.LostItem, error)
	GetFound(ctx context.Context, id string) (*domain.FoundItem, error)
	ListLost(ctx context.Context, filter domain.ItemFilter) ([]domain.LostItem, error)
	ListFound(ctx context.Context, filter domain.ItemFilter) ([]domain.FoundItem, error)
	SaveFeatures(ctx context.Context, kind domain.ItemKind, id string, features domain.Features) error
}

// MatchRepository persists match records.
type MatchRepository interface {
	FindByPair(ctx context.Context, key domain.PairKey) (*domain.Match, error)
	// CreateIfAbsent inserts the match unless its pair already exists. It reports
	// whether a row was written.
	CreateIfAbsent(ctx context.Context, match *domain.Match) (bool, error)
	List(ctx context.Context, filter domain.MatchFilter) ([]domain.Match, int, error)
	UpdateStatus(ctx context.Context, ids []string, status domain.MatchStatus) (int, error)
	Stats(ctx context.Context) (*domain.MatchStats, error)
}

// PairScorer scores a lost/found pair.
type PairScorer interface {
	Score(ctx context.Context, lost domain.LostItem, found domain.FoundItem) (domain.ScoreResult, error)
}

// FeatureExtractor derives keyword features from item text.
type FeatureExtractor interface {
	Extract(item domain.Item) domain.Features
}

// BatchLocker serializes batch runs across processes.
type BatchLocker interface {
	WithBatchLock(ctx context.Context, fn func(context.Context) error) error
}

// BatchQueue carries batch run requests from the API to workers.
type BatchQueue interface {
	PublishBatchJob(ctx context.Context, job domain.BatchJob) error
	SubscribeBatchJobs(ctx context.Context, handler func(context.Context, domain.BatchJob) error) error
}

// MatchEvents announces newly created matches.
type MatchEvents interface {
	PublishMatchCreated(ctx context.Context, match domain.Match) error
}

// DiscoveryCache keeps discovery reports keyed by query shape.
type DiscoveryCache interface {
	Get(ctx context.Context, req domain.DiscoveryRequest) (*domain.DiscoveryReport, bool, error)
	Set(ctx context.Context, req domain.DiscoveryRequest, report *domain.DiscoveryReport, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

// MatchRecorder receives matching observations for metrics.
type MatchRecorder interface {
	RecordScore(source domain.ScoreSource, score int, attempts int)
	RecordBatch(stats domain.BatchStats)
}
