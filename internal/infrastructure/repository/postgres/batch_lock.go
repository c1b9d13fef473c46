package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/kirillkom/lostfound-matcher/internal/core/domain"
)

const batchLockKey int64 = 2025030302

// BatchLocker holds a session-level advisory lock for the duration of a batch run.
// The lock lives on a dedicated connection so it is released with that session.
type BatchLocker struct {
	db *sql.DB
}

func NewBatchLocker(db *sql.DB) *BatchLocker {
	return &BatchLocker{db: db}
}

func (l *BatchLocker) WithBatchLock(ctx context.Context, fn func(context.Context) error) error {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("batch lock conn: %w", err)
	}
	defer conn.Close()

	var acquired bool
	if err := conn.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, batchLockKey).Scan(&acquired); err != nil {
		return fmt.Errorf("acquire batch lock: %w", err)
	}
	if !acquired {
		return domain.WrapError(domain.ErrBatchBusy, "acquire batch lock", fmt.Errorf("lock %d held by another session", batchLockKey))
	}
	defer func() {
		// The run context may already be cancelled; unlock regardless.
		if _, err := conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, batchLockKey); err != nil {
			slog.Warn("batch_lock_release_failed", "error", err)
		}
	}()

	return fn(ctx)
}
