package ticketeta

import (
	"fmt"
	"strings"
)

// FormatExplanation renders an explanation as Markdown for terminals and
// support dashboards. Returns an empty string for nil input.
func FormatExplanation(ex *Explanation) string {
	if ex == nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Estimate Trace: location %d\n\n", ex.LocationID)

	if len(ex.Tiers) == 0 {
		b.WriteString("No retrieval backends configured.\n\n")
	}
	for i, rep := range ex.Tiers {
		writeTier(&b, i+1, rep, rep.Method == ex.Winner)
	}

	b.WriteString("---\n")
	if ex.Winner == MethodDefault {
		fmt.Fprintf(&b, "No tier qualified; the %d hour default applies.\n", DefaultHours)
	} else {
		fmt.Fprintf(&b, "Estimate comes from %s.\n", ex.Winner.Label())
	}
	return b.String()
}

func writeTier(b *strings.Builder, num int, rep TierReport, winner bool) {
	marker := ""
	if winner {
		marker = " (selected)"
	}
	fmt.Fprintf(b, "**%d. %s**%s via %s\n\n", num, rep.Method.Label(), marker, rep.Backend)

	if rep.Error != "" {
		fmt.Fprintf(b, "Unavailable: %s\n\n", rep.Error)
		return
	}

	est := rep.Estimate
	fmt.Fprintf(b, "Candidates: %d, kept: %d, rejected: %d (threshold %.2f, quorum %d)\n",
		rep.Candidates, len(est.Kept), len(est.Rejected), rep.Policy.Threshold, max(rep.Policy.Quorum, 1))
	if est.Qualified {
		fmt.Fprintf(b, "Estimate: %d hours, confidence %.0f%%\n", est.Hours, est.Confidence*100)
	}

	if len(rep.Top) > 0 {
		b.WriteString("Closest tickets:\n")
		for _, m := range rep.Top {
			fmt.Fprintf(b, "  - [%.3f] #%s %s\n", m.Score, m.TicketID, oneLine(m.Description, 80))
		}
	}
	b.WriteString("\n")
}

func oneLine(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) > n {
		return string(r[:n]) + "..."
	}
	return s
}
