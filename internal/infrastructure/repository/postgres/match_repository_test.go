package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/kirillkom/lostfound-matcher/internal/core/domain"
)

func newMatchRepoWithMock(t *testing.T) (*MatchRepository, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return NewMatchRepository(db), mock, func() { _ = db.Close() }
}

var matchRowColumns = []string{
	"id", "lost_item_id", "found_item_id", "lost_item_user_id", "found_item_user_id", "match_score",
	"confidence", "similarities", "differences", "product_details", "recommendation", "status",
	"source", "notes", "created_at", "updated_at",
}

func TestMatchRepositoryFindByPair(t *testing.T) {
	repo, mock, cleanup := newMatchRepoWithMock(t)
	defer cleanup()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE lost_item_id = $1 AND found_item_id = $2")).
		WithArgs("lost-1", "found-1").
		WillReturnRows(sqlmock.NewRows(matchRowColumns).AddRow(
			"m1", "lost-1", "found-1", "u1", "u2", 88, "high",
			[]byte(`["Same category: Electronics"]`), []byte(`[]`),
			[]byte(`{"brand":"Apple","unique_identifiers":["case"]}`),
			"Contact the finder", "confirmed", "ai", "AI Analysis: Contact the finder", now, now,
		))

	match, err := repo.FindByPair(context.Background(), domain.PairKey{LostItemID: "lost-1", FoundItemID: "found-1"})
	if err != nil {
		t.Fatalf("FindByPair() error = %v", err)
	}
	if match.Score != 88 || match.Confidence != domain.ConfidenceHigh || match.Status != domain.MatchStatusConfirmed {
		t.Fatalf("unexpected match: %+v", match)
	}
	if len(match.Similarities) != 1 || match.Differences == nil {
		t.Fatalf("unexpected similarity lists: %+v / %+v", match.Similarities, match.Differences)
	}
	if match.ProductDetails.Brand != "Apple" || len(match.ProductDetails.UniqueIdentifiers) != 1 {
		t.Fatalf("unexpected product details: %+v", match.ProductDetails)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMatchRepositoryFindByPairNotFound(t *testing.T) {
	repo, mock, cleanup := newMatchRepoWithMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("FROM matches")).
		WithArgs("lost-1", "found-9").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByPair(context.Background(), domain.PairKey{LostItemID: "lost-1", FoundItemID: "found-9"})
	if !domain.IsKind(err, domain.ErrMatchNotFound) {
		t.Fatalf("expected ErrMatchNotFound, got %v", err)
	}
}

func TestMatchRepositoryCreateIfAbsent(t *testing.T) {
	repo, mock, cleanup := newMatchRepoWithMock(t)
	defer cleanup()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	match := &domain.Match{
		ID:          "m1",
		LostItemID:  "lost-1",
		FoundItemID: "found-1",
		Score:       75,
		Confidence:  domain.ConfidenceMedium,
		Status:      domain.MatchStatusPending,
		Source:      domain.SourceFallback,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (lost_item_id, found_item_id) DO NOTHING")).
		WithArgs(
			"m1", "lost-1", "found-1", "", "", 75, "medium",
			"[]", "[]", `{"unique_identifiers":[]}`,
			"", "pending", "fallback", "", now, now,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO matches")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	created, err := repo.CreateIfAbsent(context.Background(), match)
	if err != nil || !created {
		t.Fatalf("first CreateIfAbsent() = %v, %v", created, err)
	}
	created, err = repo.CreateIfAbsent(context.Background(), match)
	if err != nil || created {
		t.Fatalf("duplicate CreateIfAbsent() = %v, %v", created, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMatchRepositoryCreateIfAbsentError(t *testing.T) {
	repo, mock, cleanup := newMatchRepoWithMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO matches")).WillReturnError(errors.New("db down"))

	if _, err := repo.CreateIfAbsent(context.Background(), &domain.Match{ID: "m1"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestMatchRepositoryListWithStatus(t *testing.T) {
	repo, mock, cleanup := newMatchRepoWithMock(t)
	defer cleanup()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM matches WHERE status = $1")).
		WithArgs("pending").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = $1 ORDER BY match_score DESC, created_at DESC LIMIT $2 OFFSET $3")).
		WithArgs("pending", 2, 0).
		WillReturnRows(sqlmock.NewRows(matchRowColumns).
			AddRow("m1", "l1", "f1", "", "", 90, "high", nil, nil, nil, "", "pending", "ai", "", now, now).
			AddRow("m2", "l2", "f2", "", "", 40, "low", []byte(`[]`), []byte(`[]`), []byte(`{}`), "", "pending", "fallback", "", now, now))

	matches, total, err := repo.List(context.Background(), domain.MatchFilter{Status: domain.MatchStatusPending, Limit: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 3 || len(matches) != 2 {
		t.Fatalf("unexpected page: total=%d len=%d", total, len(matches))
	}
	if matches[0].Similarities == nil || matches[0].ProductDetails.UniqueIdentifiers == nil {
		t.Fatalf("expected null json columns to decode as empty lists: %+v", matches[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMatchRepositoryUpdateStatus(t *testing.T) {
	repo, mock, cleanup := newMatchRepoWithMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE matches SET status = $1, updated_at = $2 WHERE id IN ($3,$4)")).
		WithArgs("confirmed", sqlmock.AnyArg(), "m1", "m2").
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.UpdateStatus(context.Background(), []string{"m1", "m2"}, domain.MatchStatusConfirmed)
	if err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 updated rows, got %d", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMatchRepositoryStats(t *testing.T) {
	repo, mock, cleanup := newMatchRepoWithMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*), COALESCE(ROUND(AVG(match_score)), 0)::int FROM matches")).
		WillReturnRows(sqlmock.NewRows([]string{"count", "avg"}).AddRow(4, 63))
	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY status")).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("pending", 3).
			AddRow("confirmed", 1))
	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY confidence")).
		WillReturnRows(sqlmock.NewRows([]string{"confidence", "count"}).
			AddRow("high", 1).
			AddRow("low", 3))

	stats, err := repo.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalMatches != 4 || stats.AverageScore != 63 {
		t.Fatalf("unexpected totals: %+v", stats)
	}
	if stats.ByStatus[domain.MatchStatusPending] != 3 || stats.ByConfidence[domain.ConfidenceLow] != 3 {
		t.Fatalf("unexpected buckets: %+v", stats)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
