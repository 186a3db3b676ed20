package main

import (
	"context"
	"flag"
	"fmt"
)

func runGet(args []string) error {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	jsonFlag := fs.Bool("json", false, "output as JSON")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: ticketeta get TICKET_ID")
	}
	id := fs.Arg(0)

	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	bi, err := a.textIndex()
	if err != nil {
		return err
	}

	c, err := bi.Get(context.Background(), id)
	if err != nil {
		return fmt.Errorf("get ticket %q: %w", id, err)
	}

	if *jsonFlag {
		return printJSON(c)
	}
	printCandidate(c)
	return nil
}
