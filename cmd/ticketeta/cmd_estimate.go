package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/lucas-stellet/ticketeta"
)

func runEstimate(args []string) error {
	fs := flag.NewFlagSet("estimate", flag.ContinueOnError)
	locationFlag := fs.Int("location", 0, "location ID of the ticket (required)")
	recordFlag := fs.Bool("record", false, "index the ticket after a valid estimate")
	jsonFlag := fs.Bool("json", false, "output as JSON")
	verboseFlag := fs.Bool("v", false, "debug logging")

	if err := fs.Parse(args); err != nil {
		return err
	}

	description := strings.Join(fs.Args(), " ")
	if description == "" || !isFlagSet(fs, "location") {
		return fmt.Errorf("usage: ticketeta estimate -location N \"description\" [-record] [-json]")
	}

	a, err := newApp(*verboseFlag)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	r, err := a.engine.Estimate(ctx, ticketeta.Submission{LocationID: *locationFlag, Description: description})
	if err != nil {
		return fmt.Errorf("estimate: %w", err)
	}

	if *recordFlag && r.Valid && !r.Cached {
		if err := a.engine.Record(ctx, ticketeta.RecordFromResult(r, description)); err != nil {
			return fmt.Errorf("record ticket %d: %w", r.TicketID, err)
		}
	}

	if *jsonFlag {
		return printJSON(r)
	}
	printResult(r)
	return nil
}
