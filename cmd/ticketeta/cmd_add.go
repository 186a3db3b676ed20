package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/lucas-stellet/ticketeta"
)

func runAdd(args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	idFlag := fs.Int("id", 0, "ticket ID (required)")
	customerFlag := fs.Int("customer", 0, "customer ID")
	locationFlag := fs.Int("location", 0, "location ID (required)")
	hoursFlag := fs.Float64("hours", ticketeta.DefaultHours, "resolution time in hours")
	verboseFlag := fs.Bool("v", false, "debug logging")

	if err := fs.Parse(args); err != nil {
		return err
	}

	description := strings.Join(fs.Args(), " ")
	if description == "" || !isFlagSet(fs, "id") || !isFlagSet(fs, "location") {
		return fmt.Errorf("usage: ticketeta add -id N -location N [-customer N] [-hours H] \"description\"")
	}
	if err := ticketeta.Validate(description); err != nil {
		return err
	}

	a, err := newApp(*verboseFlag)
	if err != nil {
		return err
	}
	defer a.Close()

	rec := ticketeta.TicketRecord{
		TicketID:       *idFlag,
		CustomerID:     *customerFlag,
		LocationID:     *locationFlag,
		Description:    description,
		EstimatedHours: *hoursFlag,
	}
	if err := a.engine.Record(context.Background(), rec); err != nil {
		return fmt.Errorf("add ticket %d: %w", rec.TicketID, err)
	}

	fmt.Printf("Recorded ticket %d.\n", rec.TicketID)
	return nil
}
