package domain

import (
	"fmt"
	"time"
)

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

const (
	HighConfidenceScore   = 80
	MediumConfidenceScore = 60
)

// ConfidenceForScore maps a persisted match score onto its tier.
func ConfidenceForScore(score int) Confidence {
	switch {
	case score >= HighConfidenceScore:
		return ConfidenceHigh
	case score >= MediumConfidenceScore:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// ClampScore bounds any scorer output to [0,100].
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

type MatchStatus string

const (
	MatchStatusPending   MatchStatus = "pending"
	MatchStatusConfirmed MatchStatus = "confirmed"
	MatchStatusRejected  MatchStatus = "rejected"
	MatchStatusResolved  MatchStatus = "resolved"
)

func ParseMatchStatus(raw string) (MatchStatus, error) {
	switch status := MatchStatus(raw); status {
	case MatchStatusPending, MatchStatusConfirmed, MatchStatusRejected, MatchStatusResolved:
		return status, nil
	default:
		return "", WrapError(ErrInvalidInput, "parse match status",
			fmt.Errorf("invalid status %q: must be one of pending, confirmed, rejected, resolved", raw))
	}
}

type ScoreSource string

const (
	SourceAI       ScoreSource = "ai"
	SourceFallback ScoreSource = "fallback"
	SourceOverlap  ScoreSource = "overlap"
)

type ProductDetails struct {
	Brand             string   `json:"brand,omitempty"`
	Model             string   `json:"model,omitempty"`
	Color             string   `json:"color,omitempty"`
	Condition         string   `json:"condition,omitempty"`
	UniqueIdentifiers []string `json:"unique_identifiers"`
}

// Match is a candidate correspondence between one lost and one found item.
type Match struct {
	ID              string         `json:"id"`
	LostItemID      string         `json:"lost_item_id"`
	FoundItemID     string         `json:"found_item_id"`
	LostItemUserID  string         `json:"lost_item_user_id"`
	FoundItemUserID string         `json:"found_item_user_id"`
	Score           int            `json:"match_score"`
	Confidence      Confidence     `json:"confidence"`
	Similarities    []string       `json:"similarities"`
	Differences     []string       `json:"differences"`
	ProductDetails  ProductDetails `json:"product_details"`
	Recommendation  string         `json:"recommendation"`
	Status          MatchStatus    `json:"status"`
	Source          ScoreSource    `json:"source"`
	Notes           string         `json:"notes,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// PairKey identifies a match by its (lost, found) pair. The lost id always comes first.
type PairKey struct {
	LostItemID  string
	FoundItemID string
}

func (k PairKey) String() string {
	return k.LostItemID + ":" + k.FoundItemID
}

type MatchFilter struct {
	Status MatchStatus
	Limit  int
	Skip   int
}

type MatchPage struct {
	Matches []Match `json:"matches"`
	Total   int     `json:"total"`
	Skip    int     `json:"skip"`
	Limit   int     `json:"limit"`
	HasMore bool    `json:"has_more"`
}

type MatchStats struct {
	TotalMatches int                 `json:"total_matches"`
	AverageScore int                 `json:"average_score"`
	ByStatus     map[MatchStatus]int `json:"by_status"`
	ByConfidence map[Confidence]int  `json:"by_confidence"`
}
