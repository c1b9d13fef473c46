package usecase

import (
	"context"
	"log/slog"

	"github.com/kirillkom/lostfound-matcher/internal/core/domain"
	"github.com/kirillkom/lostfound-matcher/internal/core/ports"
)

// publishMatchCreated is best effort: the match row is the source of truth.
func publishMatchCreated(ctx context.Context, events ports.MatchEvents, match domain.Match) {
	if err := events.PublishMatchCreated(ctx, match); err != nil {
		slog.Warn("match_event_publish_failed",
			"match_id", match.ID,
			"lost_item_id", match.LostItemID,
			"found_item_id", match.FoundItemID,
			"error", err,
		)
	}
}
