package ports

import (
	"context"

	"github.com/kirillkom/lostfound-matcher/internal/core/domain"
)

// SingleResult is returned by one-off pair scoring.
type SingleResult struct {
	Match    *domain.Match      `json:"match"`
	Created  bool               `json:"created"`
	Analysis domain.ScoreResult `json:"analysis"`
}

// PairMatcher scores one lost/found pair on demand.
type PairMatcher interface {
	ScoreSingle(ctx context.Context, lostID, foundID string) (*SingleResult, error)
}

// BatchRunner reconciles the lost and found collections pairwise.
type BatchRunner interface {
	RunBatch(ctx context.Context, req domain.BatchRequest) (*domain.BatchStats, error)
}

// PotentialFinder produces an unpersisted ranked list of candidate pairs.
type PotentialFinder interface {
	DiscoverPotential(ctx context.Context, req domain.DiscoveryRequest) (*domain.DiscoveryReport, error)
}

// ItemAnalyzer attaches keyword features to a single item.
type ItemAnalyzer interface {
	AnalyzeItem(ctx context.Context, kind domain.ItemKind, id string) (*domain.Features, error)
}

// MatchReviewer is the read/update surface used by the review workflow.
type MatchReviewer interface {
	ListMatches(ctx context.Context, filter domain.MatchFilter) (*domain.MatchPage, error)
	UpdateStatus(ctx context.Context, ids []string, status domain.MatchStatus) (int, error)
	Stats(ctx context.Context) (*domain.MatchStats, error)
}
