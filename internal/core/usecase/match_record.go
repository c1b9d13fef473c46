package usecase

import (
	"strings"
	"time"

	"github.com/kirillkom/lostfound-matcher/internal/core/domain"
)

const maxDerivedIdentifiers = 3

// newMatchRecord turns a scorer result into a pending match. Confidence is
// recomputed from the clamped score; the scorer's own label is not persisted.
func newMatchRecord(id string, lost domain.LostItem, found domain.FoundItem, result domain.ScoreResult, now time.Time) *domain.Match {
	score := domain.ClampScore(result.Score)

	details := result.ProductDetails
	if details.Brand == "" {
		if words := strings.Fields(lost.Title); len(words) > 0 {
			details.Brand = words[0]
		}
	}
	if len(details.UniqueIdentifiers) == 0 {
		details.UniqueIdentifiers = append([]string{}, result.Similarities[:min(maxDerivedIdentifiers, len(result.Similarities))]...)
	}

	notes := ""
	if result.Recommendation != "" {
		notes = "AI Analysis: " + result.Recommendation
	}

	return &domain.Match{
		ID:              id,
		LostItemID:      lost.ID,
		FoundItemID:     found.ID,
		LostItemUserID:  lost.UserID,
		FoundItemUserID: found.UserID,
		Score:           score,
		Confidence:      domain.ConfidenceForScore(score),
		Similarities:    nonNil(result.Similarities),
		Differences:     nonNil(result.Differences),
		ProductDetails:  details,
		Recommendation:  result.Recommendation,
		Status:          domain.MatchStatusPending,
		Source:          result.Source,
		Notes:           notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// analysisFromMatch rebuilds the score view of a stored match.
func analysisFromMatch(match *domain.Match) domain.ScoreResult {
	return domain.ScoreResult{
		Score:          match.Score,
		Similarities:   nonNil(match.Similarities),
		Differences:    nonNil(match.Differences),
		Confidence:     match.Confidence,
		ProductDetails: match.ProductDetails,
		Recommendation: match.Recommendation,
		Source:         match.Source,
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// skipPair reports pairs that must never be scored: the same record on both
// sides, or a reporter matching against their own report.
func skipPair(lost domain.LostItem, found domain.FoundItem) bool {
	if lost.ID == found.ID {
		return true
	}
	return lost.UserID != "" && lost.UserID == found.UserID
}
