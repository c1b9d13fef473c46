package domain

import "time"

const (
	DefaultMatchMinScore     = 30
	DefaultPotentialMinScore = 10
	DefaultDiscoveryLimit    = 100
)

type BatchRequest struct {
	MinScore   int        `json:"min_score"`
	Categories []Category `json:"categories,omitempty"`
	ActiveOnly bool       `json:"active_only,omitempty"`
}

type BatchStats struct {
	TotalAnalyzed         int           `json:"total_analyzed"`
	MatchesCreated        int           `json:"matches_created"`
	HighConfidenceMatches int           `json:"high_confidence_matches"`
	AverageScore          int           `json:"average_score"`
	TotalMatches          int           `json:"total_matches"`
	SkippedItems          int           `json:"skipped_items"`
	SkippedExisting       int           `json:"skipped_existing"`
	FailedPairs           int           `json:"failed_pairs"`
	Duration              time.Duration `json:"duration_ns"`
}

// BatchJob is the queued form of a batch run request.
type BatchJob struct {
	ID          string       `json:"id"`
	Request     BatchRequest `json:"request"`
	RequestedAt time.Time    `json:"requested_at"`
}

type DiscoveryRequest struct {
	MinScore int      `json:"min_score"`
	Category Category `json:"category,omitempty"`
	UserID   string   `json:"user_id,omitempty"`
	Limit    int      `json:"limit"`
}

type PotentialMatch struct {
	LostItem          LostItem    `json:"lost_item"`
	FoundItem         FoundItem   `json:"found_item"`
	Score             int         `json:"match_score"`
	Similarities      []string    `json:"similarities"`
	Rationale         string      `json:"reasoning"`
	Confidence        Confidence  `json:"confidence"`
	FeatureConfidence int         `json:"feature_confidence"`
	ExistingStatus    MatchStatus `json:"existing_status,omitempty"`
	ExistingMatchID   string      `json:"existing_match_id,omitempty"`
}

func (p PotentialMatch) IsExisting() bool {
	return p.ExistingMatchID != ""
}

type DiscoverySummary struct {
	TotalAnalyzed         int `json:"total_analyzed"`
	TotalPotentialMatches int `json:"total_potential_matches"`
	HighConfidence        int `json:"high_confidence"`
	MediumConfidence      int `json:"medium_confidence"`
	LowConfidence         int `json:"low_confidence"`
	ExistingMatches       int `json:"existing_matches"`
	NewPotential          int `json:"new_potential"`
}

type DiscoveryReport struct {
	Summary DiscoverySummary `json:"summary"`
	Matches []PotentialMatch `json:"matches"`
}
