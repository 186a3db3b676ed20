package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/lucas-stellet/ticketeta"
)

func runExplain(args []string) error {
	fs := flag.NewFlagSet("explain", flag.ContinueOnError)
	locationFlag := fs.Int("location", 0, "location ID of the ticket (required)")
	jsonFlag := fs.Bool("json", false, "output as JSON")
	verboseFlag := fs.Bool("v", false, "debug logging")

	if err := fs.Parse(args); err != nil {
		return err
	}

	description := strings.Join(fs.Args(), " ")
	if description == "" || !isFlagSet(fs, "location") {
		return fmt.Errorf("usage: ticketeta explain -location N \"description\" [-json]")
	}

	a, err := newApp(*verboseFlag)
	if err != nil {
		return err
	}
	defer a.Close()

	ex, err := a.engine.Explain(context.Background(), ticketeta.Submission{LocationID: *locationFlag, Description: description})
	if err != nil {
		return fmt.Errorf("explain: %w", err)
	}

	if *jsonFlag {
		return printJSON(ex)
	}
	fmt.Print(ticketeta.FormatExplanation(ex))
	return nil
}
