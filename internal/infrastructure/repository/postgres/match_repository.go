package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kirillkom/lostfound-matcher/internal/core/domain"
)

const matchColumns = `id, lost_item_id, found_item_id, lost_item_user_id, found_item_user_id, match_score, confidence,
similarities, differences, product_details, recommendation, status, source, notes, created_at, updated_at`

type MatchRepository struct {
	db *sql.DB
}

func NewMatchRepository(db *sql.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) FindByPair(ctx context.Context, key domain.PairKey) (*domain.Match, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+matchColumns+`
FROM matches
WHERE lost_item_id = $1 AND found_item_id = $2
`, key.LostItemID, key.FoundItemID)

	match, err := scanMatch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrMatchNotFound, "find match by pair", fmt.Errorf("pair %s", key))
		}
		return nil, fmt.Errorf("find match by pair: %w", err)
	}
	return match, nil
}

func (r *MatchRepository) CreateIfAbsent(ctx context.Context, match *domain.Match) (bool, error) {
	similarities, err := json.Marshal(nonNilStrings(match.Similarities))
	if err != nil {
		return false, fmt.Errorf("marshal similarities: %w", err)
	}
	differences, err := json.Marshal(nonNilStrings(match.Differences))
	if err != nil {
		return false, fmt.Errorf("marshal differences: %w", err)
	}
	details := match.ProductDetails
	details.UniqueIdentifiers = nonNilStrings(details.UniqueIdentifiers)
	productDetails, err := json.Marshal(details)
	if err != nil {
		return false, fmt.Errorf("marshal product details: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
INSERT INTO matches (
	id, lost_item_id, found_item_id, lost_item_user_id, found_item_user_id, match_score, confidence,
	similarities, differences, product_details, recommendation, status, source, notes, created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
ON CONFLICT (lost_item_id, found_item_id) DO NOTHING
`,
		match.ID,
		match.LostItemID,
		match.FoundItemID,
		match.LostItemUserID,
		match.FoundItemUserID,
		match.Score,
		string(match.Confidence),
		string(similarities),
		string(differences),
		string(productDetails),
		match.Recommendation,
		string(match.Status),
		string(match.Source),
		match.Notes,
		match.CreatedAt,
		match.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert match: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert match rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *MatchRepository) List(ctx context.Context, filter domain.MatchFilter) ([]domain.Match, int, error) {
	var (
		where string
		args  []any
	)
	if filter.Status != "" {
		where = ` WHERE status = $1`
		args = append(args, string(filter.Status))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM matches`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count matches: %w", err)
	}

	query := `SELECT ` + matchColumns + ` FROM matches` + where +
		` ORDER BY match_score DESC, created_at DESC` +
		` LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	rows, err := r.db.QueryContext(ctx, query, append(args, filter.Limit, filter.Skip)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Match, 0, max(filter.Limit, 0))
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan match: %w", err)
		}
		out = append(out, *match)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate matches: %w", err)
	}
	return out, total, nil
}

func (r *MatchRepository) UpdateStatus(ctx context.Context, ids []string, status domain.MatchStatus) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := []any{string(status), time.Now().UTC()}
	for _, id := range ids {
		args = append(args, id)
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE matches SET status = $1, updated_at = $2 WHERE id IN (`+placeholders(3, len(ids))+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("update match status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update match status rows affected: %w", err)
	}
	return int(affected), nil
}

func (r *MatchRepository) Stats(ctx context.Context) (*domain.MatchStats, error) {
	stats := &domain.MatchStats{
		ByStatus:     map[domain.MatchStatus]int{},
		ByConfidence: map[domain.Confidence]int{},
	}

	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(ROUND(AVG(match_score)), 0)::int FROM matches`,
	).Scan(&stats.TotalMatches, &stats.AverageScore); err != nil {
		return nil, fmt.Errorf("match totals: %w", err)
	}

	byStatus, err := r.groupCounts(ctx, "status")
	if err != nil {
		return nil, err
	}
	for key, n := range byStatus {
		stats.ByStatus[domain.MatchStatus(key)] = n
	}

	byConfidence, err := r.groupCounts(ctx, "confidence")
	if err != nil {
		return nil, err
	}
	for key, n := range byConfidence {
		stats.ByConfidence[domain.Confidence(key)] = n
	}
	return stats, nil
}

func (r *MatchRepository) groupCounts(ctx context.Context, column string) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+column+`, COUNT(*) FROM matches GROUP BY `+column)
	if err != nil {
		return nil, fmt.Errorf("match counts by %s: %w", column, err)
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var (
			key string
			n   int
		)
		if err := rows.Scan(&key, &n); err != nil {
			return nil, fmt.Errorf("scan match count by %s: %w", column, err)
		}
		out[key] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate match counts by %s: %w", column, err)
	}
	return out, nil
}

func scanMatch(scanner rowScanner) (*domain.Match, error) {
	var (
		match          domain.Match
		confidence     string
		status         string
		source         string
		similarities   []byte
		differences    []byte
		productDetails []byte
	)
	if err := scanner.Scan(
		&match.ID,
		&match.LostItemID,
		&match.FoundItemID,
		&match.LostItemUserID,
		&match.FoundItemUserID,
		&match.Score,
		&confidence,
		&similarities,
		&differences,
		&productDetails,
		&match.Recommendation,
		&status,
		&source,
		&match.Notes,
		&match.CreatedAt,
		&match.UpdatedAt,
	); err != nil {
		return nil, err
	}
	match.Confidence = domain.Confidence(confidence)
	match.Status = domain.MatchStatus(status)
	match.Source = domain.ScoreSource(source)

	if err := unmarshalJSONColumn(similarities, &match.Similarities); err != nil {
		return nil, fmt.Errorf("decode similarities for %s: %w", match.ID, err)
	}
	if err := unmarshalJSONColumn(differences, &match.Differences); err != nil {
		return nil, fmt.Errorf("decode differences for %s: %w", match.ID, err)
	}
	if err := unmarshalJSONColumn(productDetails, &match.ProductDetails); err != nil {
		return nil, fmt.Errorf("decode product details for %s: %w", match.ID, err)
	}
	match.Similarities = nonNilStrings(match.Similarities)
	match.Differences = nonNilStrings(match.Differences)
	match.ProductDetails.UniqueIdentifiers = nonNilStrings(match.ProductDetails.UniqueIdentifiers)
	return &match, nil
}

func unmarshalJSONColumn(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
