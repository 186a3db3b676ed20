package main

import (
	"context"
	"flag"
	"fmt"
)

func runReindex(args []string) error {
	fs := flag.NewFlagSet("reindex", flag.ContinueOnError)
	limitFlag := fs.Int("limit", 10000, "maximum number of tickets to re-embed")
	verboseFlag := fs.Bool("v", false, "debug logging")

	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(*verboseFlag)
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Println("Re-embedding indexed tickets...")
	res, err := a.engine.Reindex(context.Background(), *limitFlag)
	if err != nil {
		return fmt.Errorf("reindex: %w", err)
	}

	fmt.Printf("Reindex complete: %d ticket(s), %d embedded, %d failed.\n", res.Tickets, res.Embedded, res.Failed)
	return nil
}
