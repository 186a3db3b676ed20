package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/lucas-stellet/ticketeta"
)

func runSearch(args []string) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	locationFlag := fs.Int("location", 0, "restrict to one location (default all)")
	limitFlag := fs.Int("limit", ticketeta.DefaultSearchLimit, "maximum number of results")
	jsonFlag := fs.Bool("json", false, "output as JSON")

	if err := fs.Parse(args); err != nil {
		return err
	}

	query := strings.Join(fs.Args(), " ")
	if query == "" {
		return fmt.Errorf("usage: ticketeta search \"query\" [-location N] [-limit N]")
	}

	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	var loc *int
	if isFlagSet(fs, "location") {
		loc = locationFlag
	}

	results, err := a.engine.Similar(context.Background(), query, loc, *limitFlag)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if *jsonFlag {
		return printJSON(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d result(s) for %q:\n\n", len(results), query)
	for i, r := range results {
		fmt.Printf("%d. [%.3f] #%s (location %d, %.0f hours)\n",
			i+1, r.Score, r.TicketID, r.LocationID, r.Hours(ticketeta.FieldEstimatedTime, ticketeta.FieldActualTime))
		if r.Description != "" {
			fmt.Printf("   %s\n", r.Description)
		}
		fmt.Println()
	}
	return nil
}
