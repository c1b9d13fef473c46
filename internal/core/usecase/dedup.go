package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/lostfound-matcher/internal/core/domain"
	"github.com/kirillkom/lostfound-matcher/internal/core/ports"
)

// Deduplicator answers whether a (lost, found) pair already has a match.
// Lookups use the stored order only: lost id first, found id second.
type Deduplicator struct {
	matches ports.MatchRepository
}

func NewDeduplicator(matches ports.MatchRepository) *Deduplicator {
	return &Deduplicator{matches: matches}
}

func (d *Deduplicator) Check(ctx context.Context, lostID, foundID string) (*domain.Match, bool, error) {
	match, err := d.matches.FindByPair(ctx, domain.PairKey{LostItemID: lostID, FoundItemID: foundID})
	if err != nil {
		if domain.IsKind(err, domain.ErrMatchNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("lookup match pair: %w", err)
	}
	if match == nil {
		return nil, false, nil
	}
	return match, true, nil
}
