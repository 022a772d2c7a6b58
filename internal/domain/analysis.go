package domain

// Confidence levels attached to an AnalysisResult.
const (
	ConfidenceLow    = "low"
	ConfidenceMedium = "medium"
	ConfidenceHigh   = "high"
)

// AnalysisResult is a structured credibility judgment of report content.
// The generative provider and the heuristic fallback produce the same shape,
// so consumers never branch on provenance.
type AnalysisResult struct {
	Score           int      `json:"score"` // 0–100, higher is more credible
	ConfidenceLevel string   `json:"confidence_level"`
	Notes           string   `json:"notes,omitempty"`
	Flags           []string `json:"flags,omitempty"`
	Provider        string   `json:"provider"`
}

// ConfidenceForScore maps a credibility score to a confidence level.
// Scores near the 50 midpoint are ambiguous; scores at the extremes are not.
func ConfidenceForScore(score int) string {
	distance := score - 50
	if distance < 0 {
		distance = -distance
	}
	switch {
	case distance <= 15:
		return ConfidenceLow
	case distance <= 35:
		return ConfidenceMedium
	default:
		return ConfidenceHigh
	}
}
