package compose

import (
	"context"
	"fmt"
	"strings"
)

// Letter renders the full acknowledgement letter without a model.
func Letter(req Request) string {
	var b strings.Builder

	b.WriteString("Dear Customer,\n\n")
	b.WriteString("Thank you for contacting our technical support team. We have received your ticket regarding:\n\n")
	fmt.Fprintf(&b, "\"%s\"\n\n", Truncate(req.Description, 100))

	fmt.Fprintf(&b, "Location: %d\n", req.LocationID)
	fmt.Fprintf(&b, "Estimated Resolution Time: %d hours\n", req.EstimatedHours)
	if req.Method != "" {
		fmt.Fprintf(&b, "Analysis Method: %s\n", req.Method)
	}

	b.WriteString("\nOur team is working on your issue and will keep you updated on the progress. ")
	b.WriteString("If you have additional details, please reply to this message.\n\n")
	b.WriteString("Best regards,\nTechnical Support Team\n")

	return b.String()
}

// Template returns a Func that always renders Letter.
func Template() Func {
	return func(_ context.Context, req Request) (string, error) {
		return Letter(req), nil
	}
}
