package usecase

import (
	"context"
	"testing"

	"github.com/kirillkom/lostfound-matcher/internal/core/domain"
)

func reviewFixture() *matchRepoFake {
	return &matchRepoFake{matches: []domain.Match{
		{ID: "m-1", LostItemID: "l-1", FoundItemID: "f-1", Score: 40, Confidence: domain.ConfidenceLow, Status: domain.MatchStatusPending},
		{ID: "m-2", LostItemID: "l-1", FoundItemID: "f-2", Score: 90, Confidence: domain.ConfidenceHigh, Status: domain.MatchStatusPending},
		{ID: "m-3", LostItemID: "l-2", FoundItemID: "f-1", Score: 65, Confidence: domain.ConfidenceMedium, Status: domain.MatchStatusRejected},
	}}
}

func TestListMatchesPagesByScore(t *testing.T) {
	uc := NewReviewUseCase(reviewFixture(), nil)

	page, err := uc.ListMatches(context.Background(), domain.MatchFilter{Limit: 2})
	if err != nil {
		t.Fatalf("ListMatches() error = %v", err)
	}
	if page.Total != 3 || !page.HasMore || len(page.Matches) != 2 {
		t.Fatalf("unexpected page: %+v", page)
	}
	if page.Matches[0].ID != "m-2" || page.Matches[1].ID != "m-3" {
		t.Fatalf("expected score order, got %s, %s", page.Matches[0].ID, page.Matches[1].ID)
	}

	pending, err := uc.ListMatches(context.Background(), domain.MatchFilter{Status: domain.MatchStatusPending})
	if err != nil {
		t.Fatalf("ListMatches(pending) error = %v", err)
	}
	if pending.Total != 2 || pending.HasMore || pending.Limit != defaultMatchPageSize {
		t.Fatalf("unexpected pending page: %+v", pending)
	}
}

func TestListMatchesRejectsUnknownStatus(t *testing.T) {
	uc := NewReviewUseCase(reviewFixture(), nil)
	if _, err := uc.ListMatches(context.Background(), domain.MatchFilter{Status: "potential"}); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestUpdateStatusSingleAndBulk(t *testing.T) {
	repo := reviewFixture()
	cache := &cacheFake{}
	uc := NewReviewUseCase(repo, cache)

	updated, err := uc.UpdateStatus(context.Background(), []string{"m-1"}, domain.MatchStatusConfirmed)
	if err != nil || updated != 1 {
		t.Fatalf("single update: updated=%d err=%v", updated, err)
	}
	updated, err = uc.UpdateStatus(context.Background(), []string{"m-2", "m-3", "m-404"}, domain.MatchStatusResolved)
	if err != nil || updated != 2 {
		t.Fatalf("bulk update: updated=%d err=%v", updated, err)
	}
	if cache.invalidated != 2 {
		t.Fatalf("expected cache invalidated after each update, got %d", cache.invalidated)
	}
	if repo.matches[0].Status != domain.MatchStatusConfirmed || repo.matches[2].Status != domain.MatchStatusResolved {
		t.Fatalf("statuses not applied: %+v", repo.matches)
	}
}

func TestUpdateStatusErrors(t *testing.T) {
	uc := NewReviewUseCase(reviewFixture(), nil)

	if _, err := uc.UpdateStatus(context.Background(), []string{"m-1"}, "archived"); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid status error, got %v", err)
	}
	if _, err := uc.UpdateStatus(context.Background(), nil, domain.MatchStatusConfirmed); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected missing ids error, got %v", err)
	}
	if _, err := uc.UpdateStatus(context.Background(), []string{"m-404"}, domain.MatchStatusConfirmed); !domain.IsKind(err, domain.ErrMatchNotFound) {
		t.Fatalf("expected match not found, got %v", err)
	}
}

func TestStatsAggregates(t *testing.T) {
	uc := NewReviewUseCase(reviewFixture(), nil)
	stats, err := uc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalMatches != 3 || stats.AverageScore != 65 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.ByStatus[domain.MatchStatusPending] != 2 || stats.ByConfidence[domain.ConfidenceHigh] != 1 {
		t.Fatalf("unexpected breakdown: %+v", stats)
	}
}
