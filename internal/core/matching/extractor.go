package matching

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/kirillkom/lostfound-matcher/internal/core/domain"
)

const (
	maxTextFeatures   = 10
	fingerprintSample = 10
)

// Extractor computes keyword features for items and stamps the analysis time.
type Extractor struct {
	now func() time.Time
}

func NewExtractor() *Extractor {
	return &Extractor{now: func() time.Time { return time.Now().UTC() }}
}

func (e *Extractor) Extract(item domain.Item) domain.Features {
	features := ExtractFeatures(item)
	features.AnalyzedAt = e.now()
	return features
}

// NeedsAnalysis reports whether the cached features are missing or stale.
func NeedsAnalysis(item domain.Item) bool {
	if item.Features == nil {
		return true
	}
	return item.Features.Fingerprint != Fingerprint(item)
}

// ExtractFeatures is the pure part of the analysis; AnalyzedAt is left zero.
func ExtractFeatures(item domain.Item) domain.Features {
	titleFirst := strings.ToLower(item.Title + " " + item.Description)
	descFirst := strings.ToLower(item.Description + " " + item.Title)
	description := strings.ToLower(item.Description)

	return domain.Features{
		Colors:             vocabularyHits(descFirst, colorKeywords),
		Objects:            vocabularyHits(titleFirst, objectKeywords),
		Brands:             vocabularyHits(titleFirst, brandKeywords),
		TextFeatures:       significantTokens(titleFirst),
		Condition:          estimateCondition(description),
		EstimatedValue:     estimateValue(item.Category, description),
		CategoryConfidence: categoryConfidence(item.Category, titleFirst),
		ConfidenceScore:    descriptionConfidence(item.Description),
		Fingerprint:        Fingerprint(item),
	}
}

// Fingerprint is a cheap change detector over the item content. Collisions are
// acceptable; it never identifies a pair.
func Fingerprint(item domain.Item) string {
	content := []rune(item.Title + "\n" + item.Description + "\n" + string(item.Category) + "\n" + item.Image)
	n := len(content)
	head := content[:min(fingerprintSample, n)]
	tail := content[max(0, n-fingerprintSample):]
	return fmt.Sprintf("%d-%s-%s", n, string(head), string(tail))
}

func vocabularyHits(text string, vocabulary []string) []string {
	out := make([]string, 0)
	seen := make(map[string]struct{}, len(vocabulary))
	for _, keyword := range vocabulary {
		if _, ok := seen[keyword]; ok {
			continue
		}
		if strings.Contains(text, keyword) {
			seen[keyword] = struct{}{}
			out = append(out, keyword)
		}
	}
	return out
}

func estimateCondition(description string) domain.Condition {
	for _, family := range conditionFamilies {
		for _, keyword := range family.keywords {
			if strings.Contains(description, keyword) {
				return family.condition
			}
		}
	}
	return domain.ConditionUnknown
}

func estimateValue(category domain.Category, description string) domain.ValueTier {
	switch category {
	case domain.CategoryElectronics:
		if strings.Contains(description, "iphone") || strings.Contains(description, "macbook") {
			return domain.ValueHigh
		}
		if strings.Contains(description, "phone") || strings.Contains(description, "tablet") {
			return domain.ValueMedium
		}
	case domain.CategoryJewelry:
		return domain.ValueHigh
	case domain.CategoryBags:
		if strings.Contains(description, "luxury") || strings.Contains(description, "designer") {
			return domain.ValueHigh
		}
	}
	return domain.ValueUnknown
}

func categoryConfidence(category domain.Category, text string) int {
	keywords := categoryKeywords[category]
	if len(keywords) == 0 {
		return 0
	}
	hits := len(vocabularyHits(text, keywords))
	return int(math.Round(float64(hits) / float64(len(keywords)) * 100))
}

func significantTokens(text string) []string {
	out := make([]string, 0, maxTextFeatures)
	seen := make(map[string]struct{})
	for _, word := range strings.Fields(text) {
		if utf8.RuneCountInString(word) <= 3 {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		out = append(out, word)
		if len(out) == maxTextFeatures {
			break
		}
	}
	return out
}

func descriptionConfidence(description string) int {
	score := 50
	length := utf8.RuneCountInString(description)
	lower := strings.ToLower(description)

	if length > 50 {
		score += 20
	}
	if length > 100 {
		score += 15
	}
	if strings.IndexFunc(description, unicode.IsDigit) >= 0 {
		score += 10
	}
	if strings.Contains(lower, "color") || strings.Contains(lower, "brand") {
		score += 15
	}
	if length < 20 {
		score -= 20
	}
	return domain.ClampScore(score)
}
