package main

import (
	"fmt"
	"sort"

	"github.com/lucas-stellet/ticketeta"
)

func printResult(r *ticketeta.Result) {
	fmt.Printf("Ticket:      %d\n", r.TicketID)
	fmt.Printf("Customer:    %d\n", r.CustomerID)
	fmt.Printf("Location:    %d\n", r.LocationID)
	if !r.Valid {
		fmt.Println("** NEEDS MORE DETAIL **")
	}
	fmt.Printf("Estimate:    %d hours\n", r.EstimatedHours)
	fmt.Printf("Method:      %s\n", r.Label)
	if r.Confidence != nil {
		fmt.Printf("Confidence:  %.2f\n", *r.Confidence)
	}
	fmt.Printf("Matches:     %d\n", r.MatchCount)
	if r.Cached {
		fmt.Println("Cached:      yes")
	}
	fmt.Printf("Created:     %s\n", r.CreatedAt.Format("2006-01-02 15:04:05"))

	if r.Notification != "" {
		fmt.Printf("\nNotification:\n%s\n", r.Notification)
	}
}

func printCandidate(c ticketeta.Candidate) {
	fmt.Printf("Ticket:      %s\n", c.TicketID)
	fmt.Printf("Location:    %d\n", c.LocationID)
	if v, ok := c.Fields[ticketeta.FieldCustomerID]; ok {
		fmt.Printf("Customer:    %v\n", v)
	}
	if _, ok := c.Fields[ticketeta.FieldEstimatedTime]; ok {
		fmt.Printf("Estimated:   %.0f hours\n", c.Hours(ticketeta.FieldEstimatedTime))
	}
	if _, ok := c.Fields[ticketeta.FieldActualTime]; ok {
		fmt.Printf("Actual:      %.0f hours\n", c.Hours(ticketeta.FieldActualTime))
	}

	var extra []string
	for k := range c.Fields {
		switch k {
		case ticketeta.FieldCustomerID, ticketeta.FieldEstimatedTime, ticketeta.FieldActualTime:
		default:
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		fmt.Printf("%-12s %v\n", k+":", c.Fields[k])
	}

	if c.Description != "" {
		fmt.Printf("\nDescription:\n  %s\n", c.Description)
	}
}
