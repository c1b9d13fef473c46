package ollama

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/kirillkom/lostfound-matcher/internal/core/domain"
)

var ErrMalformedResponse = errors.New("malformed model response")

type matchAnalysis struct {
	MatchScore     *float64 `json:"matchScore"`
	Similarities   []string `json:"similarities"`
	Differences    []string `json:"differences"`
	Confidence     string   `json:"confidence"`
	ProductDetails struct {
		Brand             string   `json:"brand"`
		Model             string   `json:"model"`
		Color             string   `json:"color"`
		Condition         string   `json:"condition"`
		UniqueIdentifiers []string `json:"uniqueIdentifiers"`
	} `json:"productDetails"`
	Recommendation string `json:"recommendation"`
}

func parseMatchAnalysis(raw string) (domain.ScoreResult, error) {
	cleaned := strings.NewReplacer("```json", "", "```", "").Replace(raw)
	object := extractJSONObject(cleaned)
	if object == "" {
		return domain.ScoreResult{}, fmt.Errorf("%w: no JSON object in %q", ErrMalformedResponse, truncate(raw, 120))
	}

	var analysis matchAnalysis
	if err := json.Unmarshal([]byte(object), &analysis); err != nil {
		return domain.ScoreResult{}, fmt.Errorf("%w: decode match analysis: %v", ErrMalformedResponse, err)
	}
	if analysis.MatchScore == nil {
		return domain.ScoreResult{}, fmt.Errorf("%w: matchScore is missing", ErrMalformedResponse)
	}
	if math.IsNaN(*analysis.MatchScore) || math.IsInf(*analysis.MatchScore, 0) {
		return domain.ScoreResult{}, fmt.Errorf("%w: matchScore is not finite", ErrMalformedResponse)
	}

	details := domain.ProductDetails{
		Brand:             analysis.ProductDetails.Brand,
		Model:             analysis.ProductDetails.Model,
		Color:             analysis.ProductDetails.Color,
		Condition:         analysis.ProductDetails.Condition,
		UniqueIdentifiers: analysis.ProductDetails.UniqueIdentifiers,
	}
	if details.UniqueIdentifiers == nil {
		details.UniqueIdentifiers = []string{}
	}

	return domain.ScoreResult{
		Score:          domain.ClampScore(int(math.Round(*analysis.MatchScore))),
		Similarities:   orEmpty(analysis.Similarities),
		Differences:    orEmpty(analysis.Differences),
		Confidence:     parseConfidence(analysis.Confidence),
		ProductDetails: details,
		Recommendation: strings.TrimSpace(analysis.Recommendation),
		Source:         domain.SourceAI,
	}, nil
}

func parseConfidence(raw string) domain.Confidence {
	switch c := domain.Confidence(strings.ToLower(strings.TrimSpace(raw))); c {
	case domain.ConfidenceHigh, domain.ConfidenceMedium, domain.ConfidenceLow:
		return c
	default:
		return domain.ConfidenceMedium
	}
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return ""
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
