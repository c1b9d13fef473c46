package domain

// ScoreResult is the shape every pair scorer returns.
type ScoreResult struct {
	Score          int            `json:"score"`
	Similarities   []string       `json:"similarities"`
	Differences    []string       `json:"differences"`
	Confidence     Confidence     `json:"confidence"`
	ProductDetails ProductDetails `json:"product_details"`
	Recommendation string         `json:"recommendation"`
	Source         ScoreSource    `json:"source"`
	// Attempts counts external model calls spent on this result.
	Attempts int `json:"attempts"`
}
