package matching

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/kirillkom/lostfound-matcher/internal/core/domain"
)

const (
	weightCategory       = 30
	weightTitle          = 25
	weightTitlePartial   = 15
	weightDesc           = 20
	weightDescPartial    = 10
	weightLocation       = 15
	weightLocationNearby = 8
	weightDate           = 10
	weightDatePartial    = 5

	titleStrongRatio  = 0.7
	titlePartialRatio = 0.4
	descStrongRatio   = 0.6
	descPartialRatio  = 0.3

	closeDateDays   = 7
	similarDateDays = 30

	fallbackHighScore   = 70
	fallbackMediumScore = 50
	fallbackWeakScore   = 30
)

// FallbackScorer is the deterministic weighted scorer. It never calls out and never fails.
type FallbackScorer struct{}

func NewFallbackScorer() *FallbackScorer {
	return &FallbackScorer{}
}

func (s *FallbackScorer) Score(_ context.Context, lost domain.LostItem, found domain.FoundItem) (domain.ScoreResult, error) {
	return s.Evaluate(lost, found), nil
}

func (s *FallbackScorer) Evaluate(lost domain.LostItem, found domain.FoundItem) domain.ScoreResult {
	score := 0
	similarities := make([]string, 0, 5)
	differences := make([]string, 0, 5)

	if lost.Category == found.Category {
		score += weightCategory
		similarities = append(similarities, fmt.Sprintf("Same category: %s", lost.Category))
	} else {
		differences = append(differences, fmt.Sprintf("Different categories: %s vs %s", lost.Category, found.Category))
	}

	titleRatio := StringSimilarity(lost.Title, found.Title)
	switch {
	case titleRatio > titleStrongRatio:
		score += weightTitle
		similarities = append(similarities, "Similar titles")
	case titleRatio > titlePartialRatio:
		score += weightTitlePartial
		similarities = append(similarities, "Partially similar titles")
	default:
		differences = append(differences, "Different titles")
	}

	descRatio := StringSimilarity(lost.Description, found.Description)
	switch {
	case descRatio > descStrongRatio:
		score += weightDesc
		similarities = append(similarities, "Similar descriptions")
	case descRatio > descPartialRatio:
		score += weightDescPartial
		similarities = append(similarities, "Partially similar descriptions")
	}

	switch locationRelation(lost.Location, found.Location) {
	case locationSame:
		score += weightLocation
		similarities = append(similarities, "Same location")
	case locationNearby:
		score += weightLocationNearby
		similarities = append(similarities, "Nearby locations")
	default:
		differences = append(differences, "Different locations")
	}

	if !lost.DateLost.IsZero() && !found.DateFound.IsZero() {
		days := dayDistance(lost.DateLost, found.DateFound)
		switch {
		case days <= closeDateDays:
			score += weightDate
			similarities = append(similarities, "Close dates")
		case days <= similarDateDays:
			score += weightDatePartial
			similarities = append(similarities, "Similar timeframe")
		default:
			differences = append(differences, "Different timeframes")
		}
	}

	score = domain.ClampScore(score)
	return domain.ScoreResult{
		Score:        score,
		Similarities: similarities,
		Differences:  differences,
		Confidence:   fallbackConfidence(score),
		ProductDetails: domain.ProductDetails{
			Condition:         "Assessed by algorithm",
			UniqueIdentifiers: []string{},
		},
		Recommendation: fallbackRationale(score),
		Source:         domain.SourceFallback,
	}
}

func fallbackConfidence(score int) domain.Confidence {
	switch {
	case score >= fallbackHighScore:
		return domain.ConfidenceHigh
	case score >= fallbackMediumScore:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}

func fallbackRationale(score int) string {
	switch {
	case score >= fallbackHighScore:
		return "High confidence match - likely same item"
	case score >= fallbackMediumScore:
		return "Possible match - requires manual verification"
	case score >= fallbackWeakScore:
		return "Weak match - a few shared attributes, review before contacting reporters"
	default:
		return "Low confidence - unlikely to be same item"
	}
}

type locationMatch int

const (
	locationDifferent locationMatch = iota
	locationNearby
	locationSame
)

func normalizeLocation(location string) string {
	return strings.Join(strings.Fields(strings.ToLower(location)), " ")
}

// locationRelation compares normalized locations. Empty locations never match.
func locationRelation(a, b string) locationMatch {
	la, lb := normalizeLocation(a), normalizeLocation(b)
	if la == "" || lb == "" {
		return locationDifferent
	}
	if la == lb {
		return locationSame
	}
	if strings.Contains(la, lb) || strings.Contains(lb, la) {
		return locationNearby
	}
	return locationDifferent
}

func dayDistance(a, b time.Time) float64 {
	return math.Abs(a.Sub(b).Hours()) / 24
}
