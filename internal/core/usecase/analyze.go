package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/lostfound-matcher/internal/core/domain"
	"github.com/kirillkom/lostfound-matcher/internal/core/matching"
	"github.com/kirillkom/lostfound-matcher/internal/core/ports"
)

type AnalyzeItemUseCase struct {
	items     ports.ItemRepository
	extractor ports.FeatureExtractor
}

func NewAnalyzeItemUseCase(items ports.ItemRepository, extractor ports.FeatureExtractor) *AnalyzeItemUseCase {
	return &AnalyzeItemUseCase{items: items, extractor: extractor}
}

func (uc *AnalyzeItemUseCase) AnalyzeItem(ctx context.Context, kind domain.ItemKind, id string) (*domain.Features, error) {
	item, err := uc.load(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if !matching.NeedsAnalysis(item) {
		return item.Features, nil
	}

	features := uc.extractor.Extract(item)
	if err := uc.items.SaveFeatures(ctx, kind, item.ID, features); err != nil {
		return nil, fmt.Errorf("save features: %w", err)
	}
	return &features, nil
}

func (uc *AnalyzeItemUseCase) load(ctx context.Context, kind domain.ItemKind, id string) (domain.Item, error) {
	switch kind {
	case domain.KindLost:
		lost, err := uc.items.GetLost(ctx, id)
		if err != nil {
			return domain.Item{}, fmt.Errorf("load lost item: %w", err)
		}
		return lost.Item, nil
	case domain.KindFound:
		found, err := uc.items.GetFound(ctx, id)
		if err != nil {
			return domain.Item{}, fmt.Errorf("load found item: %w", err)
		}
		return found.Item, nil
	default:
		return domain.Item{}, domain.WrapError(domain.ErrInvalidInput, "analyze item", fmt.Errorf("unknown item kind %q", kind))
	}
}
