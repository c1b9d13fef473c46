package matching

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/kirillkom/lostfound-matcher/internal/core/domain"
)

const (
	overlapColors   = 30
	overlapObjects  = 25
	overlapBrands   = 20
	overlapCategory = 15
	overlapLocation = 10

	overlapVeryHigh = 80
	overlapGood     = 60
	overlapPossible = 40
)

var buildingPattern = regexp.MustCompile(`(?i)building\s*[a-z0-9]`)

// OverlapResult is the outcome of a text-only feature comparison.
type OverlapResult struct {
	Score             int
	Matched           []string
	Rationale         string
	FeatureConfidence int
}

// OverlapScorer ranks candidate pairs by shared extracted features. It is
// cheaper than the fallback scorer and is used for discovery only.
type OverlapScorer struct{}

func NewOverlapScorer() *OverlapScorer {
	return &OverlapScorer{}
}

func (s *OverlapScorer) Score(_ context.Context, lost domain.LostItem, found domain.FoundItem) (domain.ScoreResult, error) {
	result := s.Compare(lost.Item, found.Item)
	return domain.ScoreResult{
		Score:          result.Score,
		Similarities:   result.Matched,
		Differences:    []string{},
		Confidence:     domain.ConfidenceForScore(result.Score),
		ProductDetails: domain.ProductDetails{UniqueIdentifiers: []string{}},
		Recommendation: result.Rationale,
		Source:         domain.SourceOverlap,
	}, nil
}

// Compare uses cached features when they are fresh and recomputes them otherwise.
// Nothing is written back.
func (s *OverlapScorer) Compare(lost, found domain.Item) OverlapResult {
	lf := currentFeatures(lost)
	ff := currentFeatures(found)

	score := 0
	matched := make([]string, 0, 5)
	if intersects(lf.Colors, ff.Colors) {
		score += overlapColors
		matched = append(matched, "Similar colors")
	}
	if intersects(lf.Objects, ff.Objects) {
		score += overlapObjects
		matched = append(matched, "Similar objects")
	}
	if intersects(lf.Brands, ff.Brands) {
		score += overlapBrands
		matched = append(matched, "Same brand")
	}
	if lost.Category == found.Category {
		score += overlapCategory
		matched = append(matched, "Same category")
	}
	if locationProximate(lost.Location, found.Location) {
		score += overlapLocation
		matched = append(matched, "Similar location")
	}

	score = domain.ClampScore(score)
	avg := float64(lf.ConfidenceScore+ff.ConfidenceScore) / 2
	featureConfidence := math.Min(100, float64(score)/100*avg)

	return OverlapResult{
		Score:             score,
		Matched:           matched,
		Rationale:         overlapRationale(matched, score),
		FeatureConfidence: int(math.Round(featureConfidence)),
	}
}

func currentFeatures(item domain.Item) domain.Features {
	if NeedsAnalysis(item) {
		return ExtractFeatures(item)
	}
	return *item.Features
}

func intersects(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(b))
	for _, v := range b {
		set[v] = struct{}{}
	}
	for _, v := range a {
		if _, ok := set[v]; ok {
			return true
		}
	}
	return false
}

// locationProximate treats two locations as close when they name the same
// building or share a common campus area keyword.
func locationProximate(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if strings.TrimSpace(la) == "" || strings.TrimSpace(lb) == "" {
		return false
	}
	if ba := buildingPattern.FindString(la); ba != "" && ba == buildingPattern.FindString(lb) {
		return true
	}
	for _, area := range commonAreas {
		if strings.Contains(la, area) && strings.Contains(lb, area) {
			return true
		}
	}
	return false
}

func overlapRationale(matched []string, score int) string {
	switch {
	case score >= overlapVeryHigh:
		return fmt.Sprintf("Very high confidence match. Found %d matching features including %s.",
			len(matched), strings.Join(matched[:min(2, len(matched))], " and "))
	case score >= overlapGood:
		return fmt.Sprintf("Good match with %d matching features. Consider reviewing this match.", len(matched))
	case score >= overlapPossible:
		return "Possible match with some similar features. Manual review recommended."
	case len(matched) > 0:
		return "Low confidence match. Similar features: " + strings.Join(matched, ", ")
	default:
		return "Low confidence match. No obvious similarities found."
	}
}
