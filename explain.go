package ticketeta

import "context"

// TierReport is one tier's outcome in an explanation.
type TierReport struct {
	Method     Method        `json:"method"`
	Backend    string        `json:"backend"`
	Policy     Policy        `json:"policy"`
	Candidates int           `json:"candidates"`
	Estimate   Estimate      `json:"estimate"`
	Error      string        `json:"error,omitempty"`
	Top        []ScoredMatch `json:"top,omitempty"`
}

// Explanation lists what every configured tier would answer for a submission
// and which tier Estimate would pick.
type Explanation struct {
	Description string       `json:"description"`
	LocationID  int          `json:"location_id"`
	Tiers       []TierReport `json:"tiers"`
	Winner      Method       `json:"winner"`
}

// Explain runs every tier without short-circuiting and without touching the
// cache or allocating IDs. Tiers still run one after another and share the
// query embedding.
func (e *Engine) Explain(ctx context.Context, sub Submission) (*Explanation, error) {
	if err := Validate(sub.Description); err != nil {
		return nil, err
	}

	loc := sub.LocationID
	q := NewQuery(sub.Description, &loc, e.cfg.SearchLimit, e.embedFn)

	ex := &Explanation{Description: sub.Description, LocationID: sub.LocationID, Winner: MethodDefault}
	for _, t := range e.tiers {
		out := e.runTier(ctx, t, q)
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rep := TierReport{
			Method:     t.method,
			Backend:    t.backend.Name(),
			Policy:     out.policy,
			Candidates: len(out.matches),
			Estimate:   out.estimate,
			Top:        out.matches[:min(3, len(out.matches))],
		}
		if out.err != nil {
			rep.Error = out.err.Error()
		}
		if out.estimate.Qualified && ex.Winner == MethodDefault {
			ex.Winner = t.method
		}
		ex.Tiers = append(ex.Tiers, rep)
	}
	return ex, nil
}
