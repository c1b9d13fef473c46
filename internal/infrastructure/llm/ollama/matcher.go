package ollama

import (
	"context"
	"log/slog"

	"github.com/kirillkom/lostfound-matcher/internal/core/domain"
)

// PairMatcher performs a single model scoring attempt. Retries, timeouts and
// the fallback live in the scoring facade.
type PairMatcher struct {
	client *Client
}

func NewPairMatcher(client *Client) *PairMatcher {
	return &PairMatcher{client: client}
}

func (m *PairMatcher) Score(ctx context.Context, lost domain.LostItem, found domain.FoundItem) (domain.ScoreResult, error) {
	if lost.Image != "" && found.Image != "" {
		images := []string{imagePayload(lost.Image), imagePayload(found.Image)}
		result, err := m.score(ctx, buildMatchPrompt(lost, found, true), images)
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return domain.ScoreResult{}, wrapTemporaryIfNeeded("score pair with images", err)
		}
		slog.Warn("ai_image_attempt_failed",
			"lost_item_id", lost.ID,
			"found_item_id", found.ID,
			"error", err,
		)
	}

	result, err := m.score(ctx, buildMatchPrompt(lost, found, false), nil)
	if err != nil {
		return domain.ScoreResult{}, wrapTemporaryIfNeeded("score pair", err)
	}
	return result, nil
}

func (m *PairMatcher) score(ctx context.Context, prompt string, images []string) (domain.ScoreResult, error) {
	raw, err := m.client.generateJSON(ctx, prompt, images)
	if err != nil {
		return domain.ScoreResult{}, err
	}
	return parseMatchAnalysis(raw)
}
