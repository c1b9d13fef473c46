package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/lostfound-matcher/internal/core/domain"
)

const itemColumns = `id, title, description, category, location, image, user_id, user_name, user_email, user_phone, ai_analysis`

type ItemRepository struct {
	db *sql.DB
}

func NewItemRepository(db *sql.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

func (r *ItemRepository) GetLost(ctx context.Context, id string) (*domain.LostItem, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+itemColumns+`, date_lost, status, created_at, updated_at
FROM lost_items
WHERE id = $1
`, id)

	item, err := scanLostItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrItemNotFound, "get lost item", fmt.Errorf("lost item %s", id))
		}
		return nil, fmt.Errorf("get lost item: %w", err)
	}
	return item, nil
}

func (r *ItemRepository) GetFound(ctx context.Context, id string) (*domain.FoundItem, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+itemColumns+`, date_found, status, created_at, updated_at
FROM found_items
WHERE id = $1
`, id)

	item, err := scanFoundItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrItemNotFound, "get found item", fmt.Errorf("found item %s", id))
		}
		return nil, fmt.Errorf("get found item: %w", err)
	}
	return item, nil
}

func (r *ItemRepository) ListLost(ctx context.Context, filter domain.ItemFilter) ([]domain.LostItem, error) {
	where, args := itemWhere(filter, []string{string(domain.LostStatusOpen), string(domain.LostStatusClaimed)})
	query := `SELECT ` + itemColumns + `, date_lost, status, created_at, updated_at FROM lost_items` +
		where + ` ORDER BY created_at DESC, id` + limitClause(filter.Limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list lost items: %w", err)
	}
	defer rows.Close()

	out := make([]domain.LostItem, 0)
	for rows.Next() {
		item, err := scanLostItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lost item: %w", err)
		}
		out = append(out, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lost items: %w", err)
	}
	return out, nil
}

func (r *ItemRepository) ListFound(ctx context.Context, filter domain.ItemFilter) ([]domain.FoundItem, error) {
	where, args := itemWhere(filter, []string{string(domain.FoundStatusAvailable), string(domain.FoundStatusClaimed)})
	query := `SELECT ` + itemColumns + `, date_found, status, created_at, updated_at FROM found_items` +
		where + ` ORDER BY created_at DESC, id` + limitClause(filter.Limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list found items: %w", err)
	}
	defer rows.Close()

	out := make([]domain.FoundItem, 0)
	for rows.Next() {
		item, err := scanFoundItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan found item: %w", err)
		}
		out = append(out, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate found items: %w", err)
	}
	return out, nil
}

func (r *ItemRepository) SaveFeatures(ctx context.Context, kind domain.ItemKind, id string, features domain.Features) error {
	var table string
	switch kind {
	case domain.KindLost:
		table = "lost_items"
	case domain.KindFound:
		table = "found_items"
	default:
		return domain.WrapError(domain.ErrInvalidInput, "save features", fmt.Errorf("unknown item kind %q", kind))
	}

	payload, err := json.Marshal(features)
	if err != nil {
		return fmt.Errorf("marshal features: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE `+table+` SET ai_analysis = $2, updated_at = $3 WHERE id = $1`,
		id, string(payload), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save features: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save features rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrItemNotFound, "save features", fmt.Errorf("%s item %s", kind, id))
	}
	return nil
}

// itemWhere builds the WHERE clause shared by both item tables.
func itemWhere(filter domain.ItemFilter, active []string) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if len(filter.Categories) > 0 {
		conds = append(conds, "category IN ("+placeholders(len(args)+1, len(filter.Categories))+")")
		for _, c := range filter.Categories {
			args = append(args, string(c))
		}
	}
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		conds = append(conds, "user_id = $"+strconv.Itoa(len(args)))
	}
	if filter.ActiveOnly {
		conds = append(conds, "status IN ("+placeholders(len(args)+1, len(active))+")")
		for _, s := range active {
			args = append(args, s)
		}
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func limitClause(limit int) string {
	if limit <= 0 {
		return ""
	}
	return " LIMIT " + strconv.Itoa(limit)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLostItem(scanner rowScanner) (*domain.LostItem, error) {
	var (
		item     domain.LostItem
		analysis []byte
		date     sql.NullTime
		status   string
	)
	if err := scanner.Scan(append(itemDest(&item.Item, &analysis), &date, &status, &item.CreatedAt, &item.UpdatedAt)...); err != nil {
		return nil, err
	}
	if err := decodeFeatures(&item.Item, analysis); err != nil {
		return nil, err
	}
	if date.Valid {
		item.DateLost = date.Time
	}
	item.Status = domain.LostStatus(status)
	return &item, nil
}

func scanFoundItem(scanner rowScanner) (*domain.FoundItem, error) {
	var (
		item     domain.FoundItem
		analysis []byte
		date     sql.NullTime
		status   string
	)
	if err := scanner.Scan(append(itemDest(&item.Item, &analysis), &date, &status, &item.CreatedAt, &item.UpdatedAt)...); err != nil {
		return nil, err
	}
	if err := decodeFeatures(&item.Item, analysis); err != nil {
		return nil, err
	}
	if date.Valid {
		item.DateFound = date.Time
	}
	item.Status = domain.FoundStatus(status)
	return &item, nil
}

func itemDest(item *domain.Item, analysis *[]byte) []any {
	return []any{
		&item.ID,
		&item.Title,
		&item.Description,
		(*string)(&item.Category),
		&item.Location,
		&item.Image,
		&item.UserID,
		&item.UserName,
		&item.UserEmail,
		&item.UserPhone,
		analysis,
	}
}

func decodeFeatures(item *domain.Item, raw []byte) error {
	if len(raw) == 0 {
		return nil
	}
	var features domain.Features
	if err := json.Unmarshal(raw, &features); err != nil {
		return fmt.Errorf("decode ai_analysis for %s: %w", item.ID, err)
	}
	item.Features = &features
	return nil
}
