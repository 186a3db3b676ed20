package ticketeta

import "math"

// Estimate is the aggregate of one tier's matches under a policy.
type Estimate struct {
	Qualified  bool          `json:"qualified"`
	Hours      int           `json:"hours"`
	Confidence float64       `json:"confidence"`
	Count      int           `json:"count"`
	Kept       []ScoredMatch `json:"kept,omitempty"`
	Rejected   []ScoredMatch `json:"rejected,omitempty"`
}

// Aggregate filters matches by the policy threshold and, when the quorum is
// met, estimates hours as the rounded mean of the first usable time field.
// An empty or sub-quorum list is not an error; it simply does not qualify.
func Aggregate(matches []ScoredMatch, p Policy, timeFields ...string) Estimate {
	var est Estimate
	for _, m := range matches {
		if m.Score > p.Threshold {
			est.Kept = append(est.Kept, m)
		} else {
			est.Rejected = append(est.Rejected, m)
		}
	}

	quorum := max(p.Quorum, 1)
	if len(est.Kept) < quorum {
		return est
	}

	var sum float64
	best := math.Inf(-1)
	for _, m := range est.Kept {
		sum += m.Hours(timeFields...)
		best = math.Max(best, m.Score)
	}

	est.Qualified = true
	est.Count = len(est.Kept)
	est.Hours = int(math.Round(sum / float64(est.Count)))
	est.Confidence = best
	return est
}

// similarity converts a vector distance to a score in [0,1]. A missing
// distance is treated as a near-exact match.
func similarity(distance *float64) float64 {
	if distance == nil {
		return 0.99
	}
	return clamp01(1 - *distance)
}

// squash maps a non-negative relevance score into [0,1) preserving order.
func squash(score float64) float64 {
	if score <= 0 || math.IsNaN(score) {
		return 0
	}
	if math.IsInf(score, 1) {
		return 1
	}
	return score / (1 + score)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
