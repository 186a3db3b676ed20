package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/lucas-stellet/ticketeta"
)

func runList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	limitFlag := fs.Int("limit", 50, "maximum number of tickets")
	locationFlag := fs.Int("location", 0, "only show tickets for this location (default all)")
	jsonFlag := fs.Bool("json", false, "output as JSON")

	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	bi, err := a.textIndex()
	if err != nil {
		return err
	}

	tickets, err := bi.List(context.Background(), *limitFlag)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	if isFlagSet(fs, "location") {
		filtered := tickets[:0]
		for _, c := range tickets {
			if c.LocationID == *locationFlag {
				filtered = append(filtered, c)
			}
		}
		tickets = filtered
	}

	if *jsonFlag {
		return printJSON(tickets)
	}

	if len(tickets) == 0 {
		fmt.Println("No tickets found.")
		return nil
	}

	fmt.Printf("%-10s  %-8s  %-6s  %s\n", "Ticket", "Location", "Hours", "Description")
	fmt.Printf("%-10s  %-8s  %-6s  %s\n", "----------", "--------", "------", "-----------")
	for _, c := range tickets {
		fmt.Printf("%-10s  %-8d  %-6.0f  %s\n",
			c.TicketID, c.LocationID, c.Hours(ticketeta.FieldEstimatedTime, ticketeta.FieldActualTime), truncate(c.Description, 60))
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
