package domain

import "time"

type Condition string

const (
	ConditionExcellent Condition = "excellent"
	ConditionGood      Condition = "good"
	ConditionFair      Condition = "fair"
	ConditionPoor      Condition = "poor"
	ConditionUnknown   Condition = "unknown"
)

type ValueTier string

const (
	ValueHigh    ValueTier = "high"
	ValueMedium  ValueTier = "medium"
	ValueUnknown ValueTier = "unknown"
)

// Features is the keyword analysis cached on an item record.
type Features struct {
	Colors             []string  `json:"colors"`
	Objects            []string  `json:"objects"`
	Brands             []string  `json:"brands"`
	TextFeatures       []string  `json:"text_features"`
	Condition          Condition `json:"condition"`
	EstimatedValue     ValueTier `json:"estimated_value"`
	CategoryConfidence int       `json:"category_confidence"`
	ConfidenceScore    int       `json:"confidence_score"`
	Fingerprint        string    `json:"fingerprint"`
	AnalyzedAt         time.Time `json:"analyzed_at"`
}
