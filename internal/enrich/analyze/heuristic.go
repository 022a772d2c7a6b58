package analyze

import (
	"context"
	"strings"

	"github.com/couchcryptid/disaster-response-core/internal/domain"
)

// Keyword weights for the deterministic fallback. Crude on purpose: the
// heuristic exists to guarantee an answer, not to compete with the model.
var (
	credibleMarkers = []string{
		"official", "confirmed", "verified", "evacuate", "evacuation",
		"emergency services", "red cross", "fire department", "police",
	}
	suspiciousMarkers = []string{
		"fake", "hoax", "scam", "rumor", "rumour", "unconfirmed",
		"photoshop", "forwarded as received",
	}
)

// Heuristic is the terminal analysis provider. It never fails, so the
// content-analysis chain always yields some answer even with zero external
// providers configured.
type Heuristic struct{}

// Analyze scores content by keyword and media signals. The output shape is
// identical to the generative provider's, so consumers never branch on
// provenance.
func (Heuristic) Analyze(_ context.Context, in Input) (domain.AnalysisResult, error) {
	text := strings.ToLower(in.Text)
	score := 50
	var flags []string

	for _, marker := range credibleMarkers {
		if strings.Contains(text, marker) {
			score += 8
			flags = append(flags, "credible:"+strings.ReplaceAll(marker, " ", "_"))
		}
	}
	for _, marker := range suspiciousMarkers {
		if strings.Contains(text, marker) {
			score -= 12
			flags = append(flags, "suspicious:"+strings.ReplaceAll(marker, " ", "_"))
		}
	}

	if in.MediaURL != "" {
		if strings.HasPrefix(in.MediaURL, "https://") {
			score += 5
		} else {
			flags = append(flags, "media:insecure_url")
		}
	} else {
		flags = append(flags, "no_media")
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return domain.AnalysisResult{
		Score:           score,
		ConfidenceLevel: domain.ConfidenceForScore(score),
		Notes:           "keyword heuristic assessment; no generative provider consulted",
		Flags:           flags,
		Provider:        "heuristic",
	}, nil
}
