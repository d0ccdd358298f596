package identify

import (
	"shelve/internal/textutil"
)

// Decision is the confidence gate verdict for a classified file.
type Decision int

const (
	// DecisionReject routes the file to the fallback shelf untouched.
	DecisionReject Decision = iota
	// DecisionKeepName places the file in its category but preserves the
	// original filename.
	DecisionKeepName
	// DecisionRename places the file under the provider's canonical title.
	DecisionRename
)

func (d Decision) String() string {
	switch d {
	case DecisionReject:
		return "reject"
	case DecisionKeepName:
		return "keep-name"
	case DecisionRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Gate applies the two-threshold confidence policy to parsed-vs-provider
// title similarity.
type Gate struct {
	low  float64
	high float64
}

// NewGate creates a gate with the given thresholds. Scores below low are
// rejected, scores at or above high earn a rename, everything between keeps
// the original name.
func NewGate(low, high float64) Gate {
	return Gate{low: low, high: high}
}

// Score computes the similarity between the parsed title and the provider
// title, in [0, 1].
func (g Gate) Score(parsed, provider string) float64 {
	return textutil.SimilarityRatio(parsed, provider)
}

// Decide maps a similarity score to a placement decision.
func (g Gate) Decide(score float64) Decision {
	switch {
	case score < g.low:
		return DecisionReject
	case score >= g.high:
		return DecisionRename
	default:
		return DecisionKeepName
	}
}
