package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/lucas-stellet/ticketeta"
)

func runPrune(args []string) error {
	fs := flag.NewFlagSet("prune", flag.ContinueOnError)
	dryRunFlag := fs.Bool("dry-run", false, "show what would be pruned without making changes")
	jsonFlag := fs.Bool("json", false, "output as JSON")

	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	fc, ok := a.cfg.Cache.(*ticketeta.FileCache)
	if !ok {
		return errors.New("prune only applies to the file cache (redis expires entries itself)")
	}

	removed, err := fc.Prune(context.Background(), *dryRunFlag)
	if err != nil {
		return fmt.Errorf("prune: %w", err)
	}

	if *jsonFlag {
		return printJSON(map[string]any{"removed": removed, "dry_run": *dryRunFlag})
	}

	if *dryRunFlag {
		fmt.Printf("Dry run: %d cache entr(ies) would be removed.\n", removed)
	} else {
		fmt.Printf("Removed %d cache entr(ies).\n", removed)
	}
	return nil
}
